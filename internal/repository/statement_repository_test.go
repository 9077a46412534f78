package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

func TestStatementRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO statement_jobs")).
		WithArgs(sqlmock.AnyArg(), "s1", models.StatementFormatCSV, models.StatementStatusQueued, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.StatementJob{StudentID: "s1", Format: models.StatementFormatCSV, Status: models.StatementStatusQueued}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)

	rows := sqlmock.NewRows([]string{"id", "student_id", "format", "status", "progress", "result_url", "created_at", "finished_at", "error_message"}).
		AddRow(job.ID, "s1", "csv", "QUEUED", 0, nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM statement_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatementStatusQueued, fetched.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	now := time.Now()
	status := models.StatementStatusFinished
	progress := 100
	result := "/api/v1/statements/download/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE statement_jobs SET status = $2, progress = $3, result_url = $4, finished_at = $5 WHERE id = $1")).
		WithArgs("job-1", status, progress, result, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateStatementJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	// No SETs, no query issued.
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateStatementJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "format", "status", "progress", "result_url", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", "s1", "pdf", "QUEUED", 0, nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 ORDER BY created_at ASC LIMIT $2")).
		WithArgs(models.StatementStatusQueued, 50).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "student_id", "format", "status", "progress", "result_url", "created_at", "finished_at", "error_message"})
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND finished_at IS NOT NULL AND finished_at < $2")).
		WithArgs(models.StatementStatusFinished, cutoff, 100).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 100)
	require.NoError(t, err)
	require.Empty(t, jobs)
	require.NoError(t, mock.ExpectationsWereMet())
}
