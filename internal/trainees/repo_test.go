//go:build integration_test || all_tests

package trainees

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/traineo/backend/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*Repo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postres host: %s", host)

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         "traineo",
		TracingEnabled: false,
	})
	require.NoError(t, err)

	return NewRepo(dbPool), func() {
		dbPool.Close()
	}
}

func TestRepo_Add_Get(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	enrollmentStart := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	added, err := repo.Add(ctx, Trainee{
		Name:            gofakeit.Name(),
		EnrollmentStart: &enrollmentStart,
	})
	require.NoError(t, err)
	assert.Greater(t, added.ID, 0)
	assert.False(t, added.CreatedAt.IsZero())

	gotten, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.Name, gotten.Name)
	require.NotNil(t, gotten.EnrollmentStart)
	assert.Equal(t, enrollmentStart.Unix(), gotten.EnrollmentStart.Unix())

	_, err = repo.Get(ctx, 25342523)
	assert.ErrorIs(t, err, ErrTraineeNotFound)
}

func TestRepo_EnrollmentStart(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	// trainee without a documented enrollment start
	added, err := repo.Add(ctx, Trainee{Name: gofakeit.Name()})
	require.NoError(t, err)

	start, err := repo.EnrollmentStart(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, start.IsZero())

	enrollmentStart := time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC)
	withStart, err := repo.Add(ctx, Trainee{
		Name:            gofakeit.Name(),
		EnrollmentStart: &enrollmentStart,
	})
	require.NoError(t, err)

	start, err = repo.EnrollmentStart(ctx, withStart.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollmentStart.Unix(), start.Unix())

	_, err = repo.EnrollmentStart(ctx, 25342523)
	assert.ErrorIs(t, err, ErrTraineeNotFound)
}
