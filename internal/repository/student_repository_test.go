package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WithArgs(sqlmock.AnyArg(), "Alya", "Algebra", 150.0, models.PaymentTypeUpfront, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Name: "Alya", ClassName: "Algebra", HourlyRate: 150, PaymentType: models.PaymentTypeUpfront}
	require.NoError(t, repo.Create(context.Background(), student))
	require.NotEmpty(t, student.ID)
	require.False(t, student.CreatedAt.IsZero())

	rows := sqlmock.NewRows([]string{"id", "name", "class_name", "hourly_rate", "payment_type", "topups", "created_at"}).
		AddRow(student.ID, "Alya", "Algebra", 150.0, "upfront", `[{"id":"t1","amount":500,"date":"2025-01-05T00:00:00Z"}]`, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, class_name, hourly_rate, payment_type, topups, created_at")).
		WithArgs(student.ID).
		WillReturnRows(rows)

	fetched, err := repo.FindByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, "Alya", fetched.Name)
	require.Len(t, fetched.Topups, 1)
	require.Equal(t, 500.0, fetched.Topups[0].Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAppendTopup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET topups = topups || $2::jsonb WHERE id = $1")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	topup := models.Topup{ID: "t1", Amount: 500, Date: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.AppendTopup(context.Background(), "s1", topup))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAppendTopupMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET topups")).
		WithArgs("ghost", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AppendTopup(context.Background(), "ghost", models.Topup{ID: "t1", Amount: 500})
	require.Error(t, err)
}

func TestStudentRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WithArgs("s1", "Alya", "Algebra", 150.0, models.PaymentTypeUpfront, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceAll(context.Background(), []models.Student{
		{ID: "s1", Name: "Alya", ClassName: "Algebra", HourlyRate: 150, PaymentType: models.PaymentTypeUpfront},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryReplaceAllRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ReplaceAll(context.Background(), nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
