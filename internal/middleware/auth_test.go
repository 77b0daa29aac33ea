package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/traineo/backend/internal/middleware"

	"github.com/stretchr/testify/assert"
)

type loginCheckerStub struct {
	loggedTokens map[string]bool
	err          error
}

func (c *loginCheckerStub) IsLogged(_ context.Context, token string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.loggedTokens[token], nil
}

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	checker := &loginCheckerStub{
		loggedTokens: map[string]bool{"valid-token": true},
	}
	authMiddleware := middleware.NewAuthMiddlewareHandler("kiosk-secret", checker)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		kioskSecret        string
		checkerErr         error
		expectedStatusCode int
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/version",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "AllowedLoginPathWithoutToken",
			path:               "/a/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/attendance/trainee/1/stats",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/attendance/trainee/1/stats",
			method:             "GET",
			token:              "valid-token",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "InvalidToken",
			path:               "/attendance/trainee/1/stats",
			method:             "GET",
			token:              "invalid-token",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "LoginCheckError",
			path:               "/attendance/trainee/1/stats",
			method:             "GET",
			token:              "valid-token",
			checkerErr:         errors.New("redis down"),
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "KioskCheckInValidSecret",
			path:               "/attendance",
			method:             "POST",
			kioskSecret:        "kiosk-secret",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "KioskCheckInInvalidSecret",
			path:               "/attendance",
			method:             "POST",
			kioskSecret:        "stolen-secret",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "OptionsAlwaysOK",
			path:               "/attendance/trainee/1/stats",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker.err = tc.checkerErr

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set(middleware.AuthTokenHeader, tc.token)
			}
			if tc.kioskSecret != "" {
				req.Header.Set(middleware.KioskSecretHeader, tc.kioskSecret)
			}

			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			authMiddleware.AuthCheck()(nextHandler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}
