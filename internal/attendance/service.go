package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/traineo/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var ErrInvalidTimestamp = errors.New("invalid record timestamp")

type recordsRepo interface {
	Add(ctx context.Context, rec Record) (*Record, error)
	Get(ctx context.Context, id int) (*Record, error)
	ListForTrainee(ctx context.Context, traineeID int, params RecordParams) ([]Record, error)
	ListPage(ctx context.Context, traineeID int, params ListParams) ([]Record, error)
	Count(ctx context.Context, traineeID int) (int, error)
	Delete(ctx context.Context, id int) error
}

// enrollmentProvider resolves the trainee's enrollment start date. A zero
// time means the trainee has no documented enrollment start.
type enrollmentProvider interface {
	EnrollmentStart(ctx context.Context, traineeID int) (time.Time, error)
}

type Service struct {
	repo     recordsRepo
	trainees enrollmentProvider
	analyzer *Analyzer
	cache    *DashboardCache
}

func NewService(repo recordsRepo, trainees enrollmentProvider, analyzer *Analyzer, cache *DashboardCache) *Service {
	return &Service{
		repo:     repo,
		trainees: trainees,
		analyzer: analyzer,
		cache:    cache,
	}
}

func (s *Service) AddRecord(ctx context.Context, rec Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if rec.Timestamp.IsZero() {
		return nil, ErrInvalidTimestamp
	}

	added, err := s.repo.Add(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("add attendance record: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateTrainee(ctx, added.TraineeID)
	}
	return added, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateTrainee(ctx, rec.TraineeID)
	}
	return nil
}

func (s *Service) ListPage(ctx context.Context, traineeID int, params ListParams) (_ []Record, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.listPage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	records, err := s.repo.ListPage(ctx, traineeID, params)
	if err != nil {
		return nil, -1, fmt.Errorf("list attendance records: %w", err)
	}
	total, err = s.repo.Count(ctx, traineeID)
	if err != nil {
		return nil, -1, fmt.Errorf("count attendance records: %w", err)
	}
	return records, total, nil
}

// AttendanceMap builds the trainee's per-day attendance map from all of
// their records and the enrollment start date.
func (s *Service) AttendanceMap(ctx context.Context, traineeID int) (_ AttendanceMap, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.map")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("trainee_id", traineeID))

	m, _, err := s.traineeMap(ctx, traineeID)
	return m, err
}

func (s *Service) Stats(ctx context.Context, traineeID, lookbackDays int) (_ Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("trainee_id", traineeID),
		attribute.Int("lookback_days", lookbackDays),
	)

	m, enrollmentStart, err := s.traineeMap(ctx, traineeID)
	if err != nil {
		return Stats{}, err
	}
	return s.analyzer.Stats(m, enrollmentStart, lookbackDays), nil
}

func (s *Service) Totals(ctx context.Context, traineeID int) (_ Totals, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.totals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("trainee_id", traineeID))

	m, enrollmentStart, err := s.traineeMap(ctx, traineeID)
	if err != nil {
		return Totals{}, err
	}
	return s.analyzer.Totals(m, enrollmentStart), nil
}

func (s *Service) MaxStreak(ctx context.Context, traineeID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.attendance.maxStreak")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("trainee_id", traineeID))

	m, enrollmentStart, err := s.traineeMap(ctx, traineeID)
	if err != nil {
		return 0, err
	}
	return s.analyzer.MaxStreak(m, enrollmentStart), nil
}

func (s *Service) traineeMap(ctx context.Context, traineeID int) (AttendanceMap, time.Time, error) {
	enrollmentStart, err := s.trainees.EnrollmentStart(ctx, traineeID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get enrollment start: %w", err)
	}
	records, err := s.repo.ListForTrainee(ctx, traineeID, RecordParams{})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("list attendance records: %w", err)
	}
	return s.analyzer.BuildMap(records, enrollmentStart), enrollmentStart, nil
}
