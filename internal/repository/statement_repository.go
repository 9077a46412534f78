package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

// UpdateStatementJobParams carries partial updates for a statement job.
// Nil fields are left untouched.
type UpdateStatementJobParams struct {
	Status       *models.StatementStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// StatementRepository persists statement export job metadata.
type StatementRepository struct {
	db *sqlx.DB
}

// NewStatementRepository constructs a StatementRepository.
func NewStatementRepository(db *sqlx.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Create inserts a queued job, assigning ID and creation time when unset.
func (r *StatementRepository) Create(ctx context.Context, job *models.StatementJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO statement_jobs (id, student_id, format, status, progress, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.StudentID, job.Format, job.Status, job.Progress, job.CreatedAt); err != nil {
		return fmt.Errorf("create statement job: %w", err)
	}
	return nil
}

// GetByID fetches a job by ID.
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*models.StatementJob, error) {
	query := `SELECT id, student_id, format, status, progress, result_url, created_at, finished_at, error_message
        FROM statement_jobs WHERE id = $1`
	var job models.StatementJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// Update applies the non-nil fields of params to the stored job.
func (r *StatementRepository) Update(ctx context.Context, id string, params UpdateStatementJobParams) error {
	sets := []string{}
	args := []interface{}{id}

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if params.Status != nil {
		appendSet("status", *params.Status)
	}
	if params.Progress != nil {
		appendSet("progress", *params.Progress)
	}
	if params.ResultURL != nil {
		appendSet("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		appendSet("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		appendSet("finished_at", *params.FinishedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE statement_jobs SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update statement job: %w", err)
	}
	return nil
}

// ListQueued returns jobs awaiting processing, oldest first.
func (r *StatementRepository) ListQueued(ctx context.Context, limit int) ([]models.StatementJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, student_id, format, status, progress, result_url, created_at, finished_at, error_message
        FROM statement_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	jobs := []models.StatementJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, models.StatementStatusQueued, limit); err != nil {
		return nil, fmt.Errorf("list queued statement jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than the cutoff, used by the
// cleanup loop to expire stored files.
func (r *StatementRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.StatementJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, student_id, format, status, progress, result_url, created_at, finished_at, error_message
        FROM statement_jobs WHERE status = $1 AND finished_at IS NOT NULL AND finished_at < $2
        ORDER BY finished_at ASC LIMIT $3`
	jobs := []models.StatementJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, models.StatementStatusFinished, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished statement jobs: %w", err)
	}
	return jobs, nil
}
