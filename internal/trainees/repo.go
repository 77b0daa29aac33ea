package trainees

import (
	"context"
	"errors"
	"time"

	"github.com/traineo/backend/internal/telemetry/tracing"
	"github.com/traineo/backend/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, t Trainee) (_ *Trainee, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainees.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(ctx, `
		INSERT INTO trainee (name, enrollment_start, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`,
		t.Name,
		t.EnrollmentStart,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrTraineeExists
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Trainee, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainees.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("trainee_id", id))

	t := &Trainee{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, name, enrollment_start, created_at
			FROM trainee
			WHERE id = $1
		`, id).
		Scan(&t.ID, &t.Name, &t.EnrollmentStart, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTraineeNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repo) List(ctx context.Context) (_ []Trainee, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainees.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, name, enrollment_start, created_at
		FROM trainee
		ORDER BY name ASC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainees := make([]Trainee, 0)
	for rows.Next() {
		var t Trainee
		if err := rows.Scan(&t.ID, &t.Name, &t.EnrollmentStart, &t.CreatedAt); err != nil {
			return nil, err
		}
		trainees = append(trainees, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trainees, nil
}

// EnrollmentStart returns the trainee's documented enrollment start, or
// a zero time when the start date was never set.
func (r *Repo) EnrollmentStart(ctx context.Context, traineeID int) (time.Time, error) {
	t, err := r.Get(ctx, traineeID)
	if err != nil {
		return time.Time{}, err
	}
	if t.EnrollmentStart == nil {
		return time.Time{}, nil
	}
	return *t.EnrollmentStart, nil
}
