package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/traineo/backend/internal/telemetry/tracing"
	"github.com/traineo/backend/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrUnknownTrainee = errors.New("unknown trainee")
)

type RecordParams struct {
	From *time.Time
	To   *time.Time
}

type ListParams struct {
	RecordParams
	Page int
	Size int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, rec Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.attendance.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO attendance_record (trainee_id, timestamp, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		rec.TraineeID,
		rec.Timestamp,
		rec.Status,
		rec.Notes,
	).Scan(&rec.ID)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrUnknownTrainee
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.attendance.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rec := &Record{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, trainee_id, timestamp, status, notes
			FROM attendance_record
			WHERE id = $1
		`, id).
		Scan(&rec.ID, &rec.TraineeID, &rec.Timestamp, &rec.Status, &rec.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListForTrainee returns the trainee's records ordered by timestamp
// ascending, so that a later record for the same day wins when the
// attendance map is built.
func (r *Repo) ListForTrainee(ctx context.Context, traineeID int, params RecordParams) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.attendance.listForTrainee")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("trainee_id", traineeID))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, trainee_id, timestamp, status, notes
		FROM attendance_record
		WHERE trainee_id = $1
		  AND ($2::timestamp IS NULL OR timestamp >= $2)
		  AND ($3::timestamp IS NULL OR timestamp <= $3)
		ORDER BY timestamp ASC;
	`,
		traineeID,
		params.From, params.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TraineeID, &rec.Timestamp, &rec.Status, &rec.Notes); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *Repo) ListPage(ctx context.Context, traineeID int, params ListParams) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.attendance.listPage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("trainee_id", traineeID),
		attribute.Int("page", params.Page),
		attribute.Int("size", params.Size),
	)

	rows, err := r.db.Query(ctx, `
		SELECT id, trainee_id, timestamp, status, notes
		FROM attendance_record
		WHERE trainee_id = $1
		  AND ($2::timestamp IS NULL OR timestamp >= $2)
		  AND ($3::timestamp IS NULL OR timestamp <= $3)
		ORDER BY timestamp DESC
		LIMIT $4 OFFSET $5;
	`,
		traineeID,
		params.From, params.To,
		params.Size, params.Size*params.Page,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TraineeID, &rec.Timestamp, &rec.Status, &rec.Notes); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *Repo) Count(ctx context.Context, traineeID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.attendance.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.
		QueryRow(ctx, `
			SELECT COUNT(*) FROM attendance_record
			WHERE trainee_id = $1;
		`, traineeID).
		Scan(&count)
	if err != nil {
		return -1, err
	}
	return count, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.attendance.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM attendance_record WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
