package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/apperr"
	"github.com/ntrioooo/job-tracker/internal/telemetry"
	"github.com/ntrioooo/job-tracker/internal/tracker"
)

var tracer = telemetry.GetTracer("job-tracker/store")

const selectColumns = `
	id::text, user_id, company_name, position, status,
	to_char(applied_date, 'YYYY-MM-DD'),
	COALESCE(job_type, ''), COALESCE(location, ''), COALESCE(salary, ''),
	COALESCE(job_url, ''), COALESCE(notes, ''),
	tags, interview_stages, created_at, updated_at`

// PostgresStore keeps applications in the job_applications table and
// announces every write through a Notifier.
type PostgresStore struct {
	pool     *pgxpool.Pool
	notifier Notifier
	logger   *zap.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, notifier Notifier, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, notifier: notifier, logger: logger}
}

func (s *PostgresStore) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	sub, err := watch(ctx, userID, s.notifier, func(ctx context.Context) (Snapshot, error) {
		return s.List(ctx, userID)
	}, s.logger)
	if err != nil {
		return nil, apperr.Internal("subscribe failed", err)
	}
	return sub, nil
}

// List returns all applications for the given user, newest appliedDate first.
func (s *PostgresStore) List(ctx context.Context, userID string) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "store.List")
	defer span.End()
	span.SetAttributes(telemetry.String("user.id", userID))

	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+`
		 FROM job_applications
		 WHERE user_id = $1
		 ORDER BY applied_date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("list applications query: %w", err)
	}
	defer rows.Close()

	apps := make([]tracker.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			span.RecordError(err)
			return Snapshot{}, fmt.Errorf("list applications scan: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("list applications rows: %w", err)
	}

	span.SetAttributes(telemetry.Int("applications.count", len(apps)))
	return NewSnapshot(userID, apps), nil
}

// Get returns a single application by ID, validating ownership.
func (s *PostgresStore) Get(ctx context.Context, userID, id string) (tracker.Application, error) {
	ctx, span := tracer.Start(ctx, "store.Get")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return tracker.Application{}, apperr.NotFound("application not found", nil)
	}

	a, err := scanApplication(s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM job_applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return tracker.Application{}, apperr.NotFound("application not found", nil)
	}
	if err != nil {
		span.RecordError(err)
		return tracker.Application{}, apperr.Internal("get application failed", err)
	}
	return a, nil
}

// Create inserts a new application owned by userID.
func (s *PostgresStore) Create(ctx context.Context, userID string, draft tracker.Draft) (tracker.Application, error) {
	ctx, span := tracer.Start(ctx, "store.Create")
	defer span.End()

	if userID == "" {
		return tracker.Application{}, apperr.StoreWrite("create rejected: missing owner", nil)
	}

	a, err := tracker.NewApplication(uuid.NewString(), userID, draft, time.Now().UTC())
	if err != nil {
		return tracker.Application{}, apperr.Validation(err.Error(), err)
	}

	args, err := rowArgs(a)
	if err != nil {
		return tracker.Application{}, apperr.StoreWrite("create failed", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO job_applications (
		   id, user_id, company_name, position, status, applied_date,
		   job_type, location, salary, job_url, notes,
		   tags, interview_stages, created_at, updated_at
		 ) VALUES (
		   $1, $2, $3, $4, $5, $6,
		   NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''),
		   $12, $13::jsonb, $14, $14
		 )`,
		append([]any{a.ID, a.UserID}, append(args, a.CreatedAt)...)...,
	)
	if err != nil {
		span.SetStatus(codes.Error, "insert failed")
		span.RecordError(err)
		return tracker.Application{}, apperr.StoreWrite("create failed", err)
	}

	s.publish(ctx, Change{Type: EventApplicationCreated, UserID: userID, ApplicationID: a.ID})
	return a, nil
}

// Update merges patch into the stored application inside one transaction.
func (s *PostgresStore) Update(ctx context.Context, userID, id string, patch tracker.Patch) (tracker.Application, error) {
	ctx, span := tracer.Start(ctx, "store.Update")
	defer span.End()
	span.SetAttributes(telemetry.String("application.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return tracker.Application{}, apperr.StoreWrite("update failed", apperr.NotFound("application not found", nil))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return tracker.Application{}, apperr.StoreWrite("update failed", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	current, err := scanApplication(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM job_applications WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return tracker.Application{}, apperr.StoreWrite("update failed", apperr.NotFound("application not found", nil))
	}
	if err != nil {
		span.RecordError(err)
		return tracker.Application{}, apperr.StoreWrite("update failed", err)
	}

	next, err := current.Apply(patch)
	if err != nil {
		return tracker.Application{}, apperr.Validation(err.Error(), err)
	}
	next.UpdatedAt = time.Now().UTC()

	args, err := rowArgs(next)
	if err != nil {
		return tracker.Application{}, apperr.StoreWrite("update failed", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE job_applications
		 SET company_name     = $1,
		     position         = $2,
		     status           = $3,
		     applied_date     = $4,
		     job_type         = NULLIF($5, ''),
		     location         = NULLIF($6, ''),
		     salary           = NULLIF($7, ''),
		     job_url          = NULLIF($8, ''),
		     notes            = NULLIF($9, ''),
		     tags             = $10,
		     interview_stages = $11::jsonb,
		     updated_at       = $12
		 WHERE id = $13 AND user_id = $14`,
		append(args, next.UpdatedAt, id, userID)...,
	)
	if err != nil {
		span.RecordError(err)
		return tracker.Application{}, apperr.StoreWrite("update failed", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return tracker.Application{}, apperr.StoreWrite("update failed", err)
	}

	s.publish(ctx, Change{Type: EventApplicationUpdated, UserID: userID, ApplicationID: id, Fields: patch.Fields()})
	return next, nil
}

// Delete removes the application. A missing or foreign id is a StoreWrite
// error wrapping NotFound.
func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "store.Delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return apperr.StoreWrite("delete failed", apperr.NotFound("application not found", nil))
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM job_applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		span.RecordError(err)
		return apperr.StoreWrite("delete failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.StoreWrite("delete failed", apperr.NotFound("application not found", nil))
	}

	s.publish(ctx, Change{Type: EventApplicationDeleted, UserID: userID, ApplicationID: id})
	return nil
}

// publish is non-fatal: the row is already committed and the next change
// will resync every subscriber.
func (s *PostgresStore) publish(ctx context.Context, change Change) {
	change.At = time.Now().UTC()
	if err := s.notifier.Publish(ctx, change); err != nil {
		s.logger.Warn("publish change failed",
			zap.String("type", change.Type),
			zap.String("applicationId", change.ApplicationID),
			zap.Error(err))
	}
}

// rowArgs returns the mutable columns of a in UPDATE order:
// company_name … interview_stages.
func rowArgs(a tracker.Application) ([]any, error) {
	applied, err := time.Parse(tracker.DateLayout, a.AppliedDate)
	if err != nil {
		return nil, fmt.Errorf("appliedDate: %w", err)
	}
	stages, err := json.Marshal(a.InterviewStages)
	if err != nil {
		return nil, fmt.Errorf("marshal interview stages: %w", err)
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		a.CompanyName, a.Position, string(a.Status), applied,
		string(a.JobType), a.Location, a.Salary, a.JobURL, a.Notes,
		tags, string(stages),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (tracker.Application, error) {
	var (
		a       tracker.Application
		status  string
		jobType string
		stages  []byte
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.CompanyName, &a.Position, &status,
		&a.AppliedDate,
		&jobType, &a.Location, &a.Salary,
		&a.JobURL, &a.Notes,
		&a.Tags, &stages, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return tracker.Application{}, err
	}

	a.Status = tracker.Status(status)
	a.JobType = tracker.JobType(jobType)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if err := json.Unmarshal(stages, &a.InterviewStages); err != nil {
		return tracker.Application{}, fmt.Errorf("decode interview stages: %w", err)
	}
	if a.InterviewStages == nil {
		a.InterviewStages = []tracker.InterviewStage{}
	}
	return a, nil
}
