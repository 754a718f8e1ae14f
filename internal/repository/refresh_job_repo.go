package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// Status represents the state of a rate refresh job.
type Status string

// Status values for the refresh job lifecycle.
const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// ErrJobNotRunnable is returned by MarkRunning when the job is missing, already
// finished successfully, or superseded by a newer in-flight job for its source.
var ErrJobNotRunnable = errors.New("refresh job not found or not runnable")

// RefreshJob is one refresh attempt as stored in the DB.
type RefreshJob struct {
	ID           string
	Source       string
	Status       Status
	ProviderBase *string
	Symbols      *int
	ErrorMsg     *string
	RequestedAt  time.Time
	UpdatedAt    *time.Time
}

// RefreshJobRepository defines DB operations for refresh jobs.
type RefreshJobRepository interface {
	Create(ctx context.Context, id, source string) (string, Status, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id, providerBase string, symbols int) error
	MarkFailed(ctx context.Context, id, errorMsg string) error
	GetByID(ctx context.Context, id string) (*RefreshJob, error)
}

// PostgresRefreshJobRepository is an implementation of RefreshJobRepository using PostgreSQL.
type PostgresRefreshJobRepository struct {
	db *sql.DB
}

// NewPostgresRefreshJobRepository creates a new PostgresRefreshJobRepository.
func NewPostgresRefreshJobRepository(db *sql.DB) *PostgresRefreshJobRepository {
	return &PostgresRefreshJobRepository{db: db}
}

// Create inserts a PENDING job. If a job for the same source is already
// pending or running, the existing job's ID and stored status are returned instead.
func (r *PostgresRefreshJobRepository) Create(ctx context.Context, id, source string) (string, Status, error) {
	query := `INSERT INTO refresh_jobs (id, source, status, requested_at)
              VALUES ($1::uuid, $2, 'PENDING'::refresh_job_status, NOW())
              ON CONFLICT (source) WHERE status IN ('PENDING', 'RUNNING')
              DO UPDATE SET source = refresh_jobs.source
              RETURNING id::text, status::text`

	var returnedID, status string
	if err := r.db.QueryRowContext(ctx, query, id, source).Scan(&returnedID, &status); err != nil {
		return "", "", fmt.Errorf("failed to create refresh job: %w", err)
	}
	return returnedID, Status(status), nil
}

// MarkRunning moves a job to RUNNING. FAILED jobs may run again on task retry.
func (r *PostgresRefreshJobRepository) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE refresh_jobs
				SET status=$1::refresh_job_status, error=NULL, updated_at=NOW()
				WHERE id=$2::uuid AND status IN ($3::refresh_job_status, $4::refresh_job_status)`
	result, err := r.db.ExecContext(ctx, query, StatusRunning, id, StatusPending, StatusFailed)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// A newer job for the source went in flight while this one waited for a retry.
		return fmt.Errorf("%w: %s superseded", ErrJobNotRunnable, id)
	}
	if err != nil {
		return fmt.Errorf("mark refresh job %s running: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotRunnable, id)
	}
	return nil
}

// MarkSuccess records the loaded snapshot's base and size.
func (r *PostgresRefreshJobRepository) MarkSuccess(ctx context.Context, id, providerBase string, symbols int) error {
	query := `UPDATE refresh_jobs
				SET status=$1::refresh_job_status,
				    provider_base=$2,
				    symbols=$3,
				    error=NULL,
				    updated_at=NOW()
				WHERE id=$4::uuid AND status=$5::refresh_job_status`

	result, err := r.db.ExecContext(ctx, query, StatusSuccess, providerBase, symbols, id, StatusRunning)
	if err != nil {
		return fmt.Errorf("mark refresh job %s succeeded: %w", id, err)
	}
	return checkRowsAffected(result, id)
}

// MarkFailed records the error message of a failed attempt.
func (r *PostgresRefreshJobRepository) MarkFailed(ctx context.Context, id, errorMsg string) error {
	query := `UPDATE refresh_jobs
				SET status=$1::refresh_job_status,
				    error=$2,
				    updated_at=NOW()
				WHERE id=$3::uuid AND status IN ($4::refresh_job_status, $5::refresh_job_status)`

	result, err := r.db.ExecContext(ctx, query, StatusFailed, errorMsg, id, StatusPending, StatusRunning)
	if err != nil {
		return fmt.Errorf("mark refresh job %s failed: %w", id, err)
	}
	return checkRowsAffected(result, id)
}

func checkRowsAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("refresh job %s not found", id)
	}
	return nil
}

// GetByID retrieves a job, returning (nil, nil) when it does not exist.
func (r *PostgresRefreshJobRepository) GetByID(ctx context.Context, id string) (*RefreshJob, error) {
	query := `SELECT id::text, source, status, provider_base, symbols, error, requested_at, updated_at
              FROM refresh_jobs
              WHERE id=$1::uuid`

	return scanRefreshJob(r.db.QueryRowContext(ctx, query, id))
}

func scanRefreshJob(row *sql.Row) (*RefreshJob, error) {
	var j RefreshJob
	var statusStr string
	var providerBase, errMsg sql.NullString
	var symbols sql.NullInt64
	var updatedAt sql.NullTime

	err := row.Scan(&j.ID, &j.Source, &statusStr, &providerBase, &symbols, &errMsg, &j.RequestedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	j.Status = Status(statusStr)
	if providerBase.Valid {
		j.ProviderBase = &providerBase.String
	}
	if symbols.Valid {
		n := int(symbols.Int64)
		j.Symbols = &n
	}
	if errMsg.Valid {
		j.ErrorMsg = &errMsg.String
	}
	if updatedAt.Valid {
		j.UpdatedAt = &updatedAt.Time
	}
	return &j, nil
}

var _ RefreshJobRepository = (*PostgresRefreshJobRepository)(nil)
