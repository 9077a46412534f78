package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/models"
	appErrors "github.com/Prodrious/new-payment-tracker/pkg/errors"
)

// dashboardCachePattern matches every cached dashboard view. Any roster or
// session write invalidates the lot; the ledger recomputes from snapshots.
const dashboardCachePattern = "dash:*"

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	AppendTopup(ctx context.Context, id string, topup models.Topup) error
	ReplaceAll(ctx context.Context, students []models.Student) error
	DeleteAll(ctx context.Context) error
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	Name        string  `json:"name" validate:"required"`
	ClassName   string  `json:"className" validate:"required"`
	HourlyRate  float64 `json:"hourlyRate" validate:"gte=0"`
	PaymentType string  `json:"paymentType" validate:"required,oneof=upfront postpaid"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Name        string  `json:"name" validate:"required"`
	ClassName   string  `json:"className" validate:"required"`
	HourlyRate  float64 `json:"hourlyRate" validate:"gte=0"`
	PaymentType string  `json:"paymentType" validate:"required,oneof=upfront postpaid"`
}

// TopupRequest holds payload for appending a deposit.
type TopupRequest struct {
	Amount float64    `json:"amount" validate:"required,gt=0"`
	Date   *time.Time `json:"date"`
}

// StudentService handles roster use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the full roster.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		Name:        req.Name,
		ClassName:   req.ClassName,
		HourlyRate:  req.HourlyRate,
		PaymentType: models.PaymentType(req.PaymentType),
		Topups:      models.Topups{},
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidateDashboard(ctx)
	return student, nil
}

// Update modifies an existing student record. Topups are managed through
// AddTopup and are never replaced here.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.Name = req.Name
	student.ClassName = req.ClassName
	student.HourlyRate = req.HourlyRate
	student.PaymentType = models.PaymentType(req.PaymentType)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidateDashboard(ctx)
	return student, nil
}

// AddTopup appends a deposit to a prepaid student's balance.
func (s *StudentService) AddTopup(ctx context.Context, id string, req TopupRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topup payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.PaymentType != models.PaymentTypeUpfront {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topups apply to upfront students only")
	}
	topup := models.Topup{ID: uuid.NewString(), Amount: req.Amount, Date: time.Now().UTC()}
	if req.Date != nil {
		topup.Date = req.Date.UTC()
	}
	if err := s.repo.AppendTopup(ctx, id, topup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record topup")
	}
	student.Topups = append(student.Topups, topup)
	s.invalidateDashboard(ctx)
	return student, nil
}

// Replace swaps the whole roster in one shot, validating every incoming row.
func (s *StudentService) Replace(ctx context.Context, students []models.Student) error {
	for i := range students {
		if students[i].Name == "" {
			return appErrors.Clone(appErrors.ErrValidation, "student name is required")
		}
		if !students[i].PaymentType.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown payment type")
		}
		if students[i].HourlyRate < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "hourly rate must not be negative")
		}
	}
	if err := s.repo.ReplaceAll(ctx, students); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace students")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Clear removes every student.
func (s *StudentService) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear students")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *StudentService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
