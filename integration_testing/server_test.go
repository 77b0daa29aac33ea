package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/traineo/backend/internal/attendance"
	"github.com/traineo/backend/internal/middleware"
	"github.com/traineo/backend/internal/trainees"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Server(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suite := newSuite(ctx)
	require.NotNil(t, suite)
	defer suite.cleanup()

	httpClient := &http.Client{Timeout: 10 * time.Second}

	t.Run("root and version", func(t *testing.T) {
		resp, err := httpClient.Get(serverEndpoint + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = httpClient.Get(serverEndpoint + "/version")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "test-version-info", string(body))
	})

	t.Run("dashboard requires auth", func(t *testing.T) {
		resp, err := httpClient.Get(serverEndpoint + "/attendance/trainee/1/totals")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	// login to get a session token for the dashboard endpoints
	loginResp, err := httpClient.PostForm(serverEndpoint+"/a/login", url.Values{
		"username": {adminUsername},
		"password": {"testpass"},
	})
	require.NoError(t, err)
	defer loginResp.Body.Close()
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var tokenResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	authGet := func(t *testing.T, path string) *http.Response {
		t.Helper()
		req, err := http.NewRequest("GET", serverEndpoint+path, nil)
		require.NoError(t, err)
		req.Header.Set(middleware.AuthTokenHeader, tokenResp.Token)
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	// add a trainee enrolled 4 days ago
	enrollmentStart := time.Now().UTC().AddDate(0, 0, -4).Truncate(24 * time.Hour)
	traineeJson, err := json.Marshal(trainees.Trainee{
		Name:            "Iva",
		EnrollmentStart: &enrollmentStart,
	})
	require.NoError(t, err)
	req, err := http.NewRequest("POST", serverEndpoint+"/trainees", bytes.NewReader(traineeJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthTokenHeader, tokenResp.Token)
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var addedTrainee trainees.Trainee
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&addedTrainee))
	require.Greater(t, addedTrainee.ID, 0)

	// kiosk posts check-ins with the shared secret, no session needed
	for daysAgo, status := range map[int]string{
		4: "present",
		3: "Present",
		2: "late",
	} {
		recJson, err := json.Marshal(attendance.Record{
			TraineeID: addedTrainee.ID,
			Timestamp: time.Now().UTC().AddDate(0, 0, -daysAgo),
			Status:    status,
		})
		require.NoError(t, err)

		req, err := http.NewRequest("POST", serverEndpoint+"/attendance", bytes.NewReader(recJson))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.KioskSecretHeader, kioskSecret)
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, resp.Body.Close())
	}

	t.Run("kiosk secret is checked", func(t *testing.T) {
		req, err := http.NewRequest("POST", serverEndpoint+"/attendance", strings.NewReader("{}"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.KioskSecretHeader, "wrong-secret")
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	traineePath := fmt.Sprintf("/attendance/trainee/%d", addedTrainee.ID)

	t.Run("totals", func(t *testing.T) {
		resp := authGet(t, traineePath+"/totals")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var totals attendance.Totals
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&totals))
		assert.Equal(t, 5, totals.TotalDays)
		assert.Equal(t, 2, totals.Counts.Present)
		assert.Equal(t, 1, totals.Counts.Late)
		assert.Equal(t, 2, totals.Counts.Absent)
	})

	t.Run("map has gap days filled in", func(t *testing.T) {
		resp := authGet(t, traineePath+"/map")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var m map[string]attendance.DayRecord
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
		// enrollment day until today, all days documented
		assert.Len(t, m, 5)
	})

	t.Run("streak", func(t *testing.T) {
		resp := authGet(t, traineePath+"/streak")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var streak attendance.StreakResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&streak))
		assert.Equal(t, 2, streak.MaxStreak)
	})

	t.Run("paged list", func(t *testing.T) {
		resp := authGet(t, traineePath+"/list/page/0/size/2")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list attendance.ListRecordsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Equal(t, 3, list.Total)
		assert.Len(t, list.Records, 2)
	})
}
