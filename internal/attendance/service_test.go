package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/traineo/backend/internal/attendance"
	"github.com/traineo/backend/internal/telemetry/metrics"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrollmentProviderStub struct {
	starts map[int]time.Time
}

func (e *enrollmentProviderStub) EnrollmentStart(_ context.Context, traineeID int) (time.Time, error) {
	return e.starts[traineeID], nil
}

func newTestService(t *testing.T, nowFunc func() time.Time, starts map[int]time.Time) (*attendance.Service, *attendance.RepoMock) {
	t.Helper()
	repo := attendance.NewRepoMock()
	service := attendance.NewService(
		repo,
		&enrollmentProviderStub{starts: starts},
		attendance.NewAnalyzerWithNow(nowFunc),
		nil,
	)
	return service, repo
}

func TestService_AddRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	service, repo := newTestService(t, func() time.Time { return now }, nil)

	added, err := service.AddRecord(ctx, attendance.Record{
		TraineeID: 1,
		Timestamp: now,
		Status:    "present",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added.ID)
	assert.Len(t, repo.Records, 1)

	_, err = service.AddRecord(ctx, attendance.Record{TraineeID: 1})
	assert.ErrorIs(t, err, attendance.ErrInvalidTimestamp)
}

func TestService_DeleteRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	service, repo := newTestService(t, func() time.Time { return now }, nil)

	added, err := service.AddRecord(ctx, attendance.Record{
		TraineeID: 1,
		Timestamp: now,
		Status:    "present",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteRecord(ctx, added.ID))
	assert.Empty(t, repo.Records)

	err = service.DeleteRecord(ctx, added.ID)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	enrollmentStart := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, func() time.Time { return now }, map[int]time.Time{
		1: enrollmentStart,
	})

	for day, status := range map[int]string{
		6: "present",
		7: "late",
		9: "present",
	} {
		_, err := service.AddRecord(ctx, attendance.Record{
			TraineeID: 1,
			Timestamp: time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC),
			Status:    status,
		})
		require.NoError(t, err)
	}

	m, err := service.AttendanceMap(ctx, 1)
	require.NoError(t, err)
	// mar 6 .. mar 10, with 8th and 10th filled in as absent
	require.Len(t, m, 5)
	assert.Equal(t, attendance.StatusAbsent, m["2024-03-08"].Status)
	assert.Equal(t, attendance.StatusAbsent, m["2024-03-10"].Status)
	assert.Equal(t, attendance.StatusLate, m["2024-03-07"].Status)

	totals, err := service.Totals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, totals.TotalDays)
	assert.Equal(t, 2, totals.Counts.Present)
	assert.Equal(t, 1, totals.Counts.Late)
	assert.Equal(t, 2, totals.Counts.Absent)

	stats, err := service.Stats(ctx, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalDays)
	assert.Equal(t, 40, stats.Percentages.Present)

	streak, err := service.MaxStreak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestService_ListPage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, func() time.Time { return now }, nil)

	for day := 1; day <= 5; day++ {
		_, err := service.AddRecord(ctx, attendance.Record{
			TraineeID: 1,
			Timestamp: time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC),
			Status:    "present",
		})
		require.NoError(t, err)
	}

	records, total, err := service.ListPage(ctx, 1, attendance.ListParams{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, records, 2)
	// newest first
	assert.Equal(t, 5, records[0].Timestamp.Day())
	assert.Equal(t, 4, records[1].Timestamp.Day())

	records, total, err = service.ListPage(ctx, 1, attendance.ListParams{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Timestamp.Day())
}

func TestDashboardCache(t *testing.T) {
	ctx := context.Background()
	redisClient, redisMock := redismock.NewClientMock()
	cache := attendance.NewDashboardCache(redisClient, metrics.NewTestManager())

	redisMock.ExpectGet("traineo-dashboard||1||totals").RedisNil()
	_, ok := cache.Get(ctx, 1, "totals")
	assert.False(t, ok)

	payload := []byte(`{"totalDays":5}`)
	redisMock.
		ExpectSet("traineo-dashboard||1||totals", payload, 10*time.Minute).
		SetVal("OK")
	redisMock.
		ExpectSAdd("traineo-dashboard||1||keys", "traineo-dashboard||1||totals").
		SetVal(1)
	cache.Set(ctx, 1, "totals", payload)

	redisMock.ExpectGet("traineo-dashboard||1||totals").SetVal(string(payload))
	cached, ok := cache.Get(ctx, 1, "totals")
	assert.True(t, ok)
	assert.Equal(t, payload, cached)

	redisMock.
		ExpectSMembers("traineo-dashboard||1||keys").
		SetVal([]string{"traineo-dashboard||1||totals"})
	redisMock.
		ExpectDel("traineo-dashboard||1||totals", "traineo-dashboard||1||keys").
		SetVal(2)
	cache.InvalidateTrainee(ctx, 1)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}
