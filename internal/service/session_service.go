package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/models"
	appErrors "github.com/Prodrious/new-payment-tracker/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus, paymentStatus models.PaymentStatus) error
	ReplaceAll(ctx context.Context, sessions []models.ClassSession) error
	DeleteAll(ctx context.Context) error
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CreateSessionRequest holds payload for scheduling a session.
type CreateSessionRequest struct {
	StudentID string    `json:"studentId" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string    `json:"endTime" validate:"required,datetime=15:04"`
}

// TransitionSessionRequest moves a session out of the scheduled state.
// PaymentStatus is optional; when omitted at completion the student's payment
// model decides (upfront consumes balance and is marked paid, postpaid starts
// as a pending due).
type TransitionSessionRequest struct {
	Status        string `json:"status" validate:"required,oneof=completed cancelled"`
	PaymentStatus string `json:"paymentStatus" validate:"omitempty,oneof=pending paid"`
}

// SessionService handles session lifecycle use-cases.
type SessionService struct {
	repo      sessionRepository
	students  studentFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, students studentFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, students: students, cache: cache, validator: validate, logger: logger}
}

// List returns sessions matching the filter.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown session status")
	}
	sessions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Create schedules a new session for an existing student.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	session := &models.ClassSession{
		StudentID:     req.StudentID,
		Date:          req.Date.UTC(),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        models.ClassStatusScheduled,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.invalidateDashboard(ctx)
	return session, nil
}

// Transition completes or cancels a scheduled session.
func (s *SessionService) Transition(ctx context.Context, id string, req TransitionSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.ClassStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only scheduled sessions can change status")
	}

	target := models.ClassStatus(req.Status)
	paymentStatus := models.PaymentStatusPending
	if target == models.ClassStatusCompleted {
		if req.PaymentStatus != "" {
			paymentStatus = models.PaymentStatus(req.PaymentStatus)
		} else {
			student, err := s.students.FindByID(ctx, session.StudentID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
			}
			if student.PaymentType == models.PaymentTypeUpfront {
				paymentStatus = models.PaymentStatusPaid
			}
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, target, paymentStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	session.Status = target
	session.PaymentStatus = paymentStatus
	s.invalidateDashboard(ctx)
	return session, nil
}

// MarkPaid settles a pending due on a completed postpaid session.
func (s *SessionService) MarkPaid(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.ClassStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session is not completed")
	}
	if session.PaymentStatus == models.PaymentStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session is already paid")
	}
	if err := s.repo.UpdateStatus(ctx, id, session.Status, models.PaymentStatusPaid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	session.PaymentStatus = models.PaymentStatusPaid
	s.invalidateDashboard(ctx)
	return session, nil
}

// Replace swaps the whole session collection, validating every incoming row.
func (s *SessionService) Replace(ctx context.Context, sessions []models.ClassSession) error {
	for i := range sessions {
		if sessions[i].StudentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "session studentId is required")
		}
		if !sessions[i].Status.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown session status")
		}
		if sessions[i].PaymentStatus != "" && !sessions[i].PaymentStatus.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown payment status")
		}
	}
	if err := s.repo.ReplaceAll(ctx, sessions); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace sessions")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Clear removes every session.
func (s *SessionService) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear sessions")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *SessionService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
