package trainees_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/traineo/backend/internal/trainees"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *trainees.RepoMock) *mux.Router {
	handler := trainees.NewHandler(repo)
	r := mux.NewRouter()
	r.HandleFunc("/trainees", handler.HandleAdd).Methods("POST")
	r.HandleFunc("/trainees", handler.HandleList).Methods("GET")
	r.HandleFunc("/trainees/{id}", handler.HandleGet).Methods("GET")
	return r
}

func TestHandler_HandleAdd(t *testing.T) {
	repo := trainees.NewRepoMock()
	router := newTestRouter(repo)

	enrollmentStart := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	traineeJson, err := json.Marshal(trainees.Trainee{
		Name:            "Mila",
		EnrollmentStart: &enrollmentStart,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/trainees", bytes.NewReader(traineeJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var added trainees.Trainee
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, "Mila", added.Name)
	require.NotNil(t, added.EnrollmentStart)
	assert.True(t, enrollmentStart.Equal(*added.EnrollmentStart))

	// empty name rejected
	req, err = http.NewRequest("POST", "/trainees", bytes.NewReader([]byte(`{"name":""}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleGet(t *testing.T) {
	repo := trainees.NewRepoMock()
	router := newTestRouter(repo)

	added, err := repo.Add(context.Background(), trainees.Trainee{Name: "Bojan"})
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/trainees/1", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var gotten trainees.Trainee
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gotten))
	assert.Equal(t, added.ID, gotten.ID)
	assert.Equal(t, "Bojan", gotten.Name)
	assert.Nil(t, gotten.EnrollmentStart)

	req, err = http.NewRequest("GET", "/trainees/42", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req, err = http.NewRequest("GET", "/trainees/nan", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleList(t *testing.T) {
	repo := trainees.NewRepoMock()
	router := newTestRouter(repo)

	ctx := context.Background()
	_, err := repo.Add(ctx, trainees.Trainee{Name: "Zoe"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, trainees.Trainee{Name: "Ana"})
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/trainees", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var list trainees.ListTraineesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Trainees, 2)
	assert.Equal(t, "Ana", list.Trainees[0].Name)
	assert.Equal(t, "Zoe", list.Trainees[1].Name)
}
