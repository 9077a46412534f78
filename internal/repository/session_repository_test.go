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

func TestSessionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "start_time", "end_time", "status", "payment_status"}).
		AddRow("c1", "s1", time.Now(), "14:00", "15:30", "scheduled", "pending")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND status = $2 ORDER BY date DESC, start_time DESC")).
		WithArgs("s1", models.ClassStatusScheduled).
		WillReturnRows(rows)

	sessions, err := repo.List(context.Background(), models.SessionFilter{StudentID: "s1", Status: models.ClassStatusScheduled})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "c1", sessions[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "start_time", "end_time", "status", "payment_status"})
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sessions ORDER BY date DESC, start_time DESC")).
		WillReturnRows(rows)

	sessions, err := repo.List(context.Background(), models.SessionFilter{})
	require.NoError(t, err)
	require.Empty(t, sessions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WithArgs(sqlmock.AnyArg(), "s1", sqlmock.AnyArg(), "14:00", "15:30", models.ClassStatusScheduled, models.PaymentStatusPending).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.ClassSession{
		StudentID:     "s1",
		Date:          time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC),
		StartTime:     "14:00",
		EndTime:       "15:30",
		Status:        models.ClassStatusScheduled,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), session))
	require.NotEmpty(t, session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET status = $2, payment_status = $3 WHERE id = $1")).
		WithArgs("c1", models.ClassStatusCompleted, models.PaymentStatusPaid).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "c1", models.ClassStatusCompleted, models.PaymentStatusPaid))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET status")).
		WithArgs("ghost", models.ClassStatusCancelled, models.PaymentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "ghost", models.ClassStatusCancelled, models.PaymentStatusPending)
	require.Error(t, err)
}

func TestSessionRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WithArgs("c1", "s1", sqlmock.AnyArg(), "14:00", "15:30", models.ClassStatusScheduled, models.PaymentStatusPending).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceAll(context.Background(), []models.ClassSession{
		{ID: "c1", StudentID: "s1", Date: time.Now(), StartTime: "14:00", EndTime: "15:30",
			Status: models.ClassStatusScheduled, PaymentStatus: models.PaymentStatusPending},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
