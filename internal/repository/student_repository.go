package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

// StudentRepository manages persistence for student records. Topups live in
// a JSONB column so the stored shape matches the document the dashboard
// client works with.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns the full roster in creation order.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := `SELECT id, name, class_name, hourly_rate, payment_type, topups, created_at
        FROM students ORDER BY created_at ASC`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT id, name, class_name, hourly_rate, payment_type, topups, created_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student, assigning ID and creation time when unset.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	if student.Topups == nil {
		student.Topups = models.Topups{}
	}
	query := `INSERT INTO students (id, name, class_name, hourly_rate, payment_type, topups, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		student.ID, student.Name, student.ClassName, student.HourlyRate,
		student.PaymentType, student.Topups, student.CreatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update replaces every mutable field of the student row, topups included.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := `UPDATE students SET name = $2, class_name = $3, hourly_rate = $4,
        payment_type = $5, topups = $6 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		student.ID, student.Name, student.ClassName, student.HourlyRate,
		student.PaymentType, student.Topups)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update student %s: no rows affected", student.ID)
	}
	return nil
}

// AppendTopup concatenates one deposit onto the student's topup list. The
// jsonb append keeps the write atomic without a read-modify-write cycle.
func (r *StudentRepository) AppendTopup(ctx context.Context, id string, topup models.Topup) error {
	payload, err := models.Topups{topup}.Value()
	if err != nil {
		return err
	}
	query := `UPDATE students SET topups = topups || $2::jsonb WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, payload)
	if err != nil {
		return fmt.Errorf("append topup: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("append topup %s: no rows affected", id)
	}
	return nil
}

// ReplaceAll swaps the whole collection in one transaction, mirroring the
// dashboard client's replace-on-save contract.
func (r *StudentRepository) ReplaceAll(ctx context.Context, students []models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace students: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("clear students: %w", err)
	}
	query := `INSERT INTO students (id, name, class_name, hourly_rate, payment_type, topups, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range students {
		s := &students[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		if s.Topups == nil {
			s.Topups = models.Topups{}
		}
		if _, err := tx.ExecContext(ctx, query,
			s.ID, s.Name, s.ClassName, s.HourlyRate, s.PaymentType, s.Topups, s.CreatedAt); err != nil {
			return fmt.Errorf("insert student %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace students: %w", err)
	}
	return nil
}

// DeleteAll clears the collection.
func (r *StudentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("delete students: %w", err)
	}
	return nil
}
