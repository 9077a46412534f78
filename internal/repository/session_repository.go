package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

// SessionRepository manages persistence for class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions matching the optional filters, newest first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, error) {
	base := `SELECT id, student_id, date, start_time, end_time, status, payment_status FROM class_sessions`
	conditions := []string{}
	args := []interface{}{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))
	}
	base += " ORDER BY date DESC, start_time DESC"

	sessions := []models.ClassSession{}
	if err := r.db.SelectContext(ctx, &sessions, base, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID fetches a single session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := `SELECT id, student_id, date, start_time, end_time, status, payment_status
        FROM class_sessions WHERE id = $1`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new session, assigning an ID when unset.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	query := `INSERT INTO class_sessions (id, student_id, date, start_time, end_time, status, payment_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		session.ID, session.StudentID, session.Date, session.StartTime,
		session.EndTime, session.Status, session.PaymentStatus); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateStatus transitions the scheduling and payment state of one session.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus, paymentStatus models.PaymentStatus) error {
	query := `UPDATE class_sessions SET status = $2, payment_status = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, paymentStatus)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update session %s: no rows affected", id)
	}
	return nil
}

// ReplaceAll swaps the whole collection in one transaction.
func (r *SessionRepository) ReplaceAll(ctx context.Context, sessions []models.ClassSession) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace sessions: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM class_sessions"); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	query := `INSERT INTO class_sessions (id, student_id, date, start_time, end_time, status, payment_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range sessions {
		s := &sessions[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query,
			s.ID, s.StudentID, s.Date, s.StartTime, s.EndTime, s.Status, s.PaymentStatus); err != nil {
			return fmt.Errorf("insert session %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace sessions: %w", err)
	}
	return nil
}

// DeleteAll clears the collection.
func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM class_sessions"); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
