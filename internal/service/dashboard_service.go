package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/dto"
	"github.com/Prodrious/new-payment-tracker/internal/ledger"
	"github.com/Prodrious/new-payment-tracker/internal/models"
	appErrors "github.com/Prodrious/new-payment-tracker/pkg/errors"
)

type rosterLister interface {
	List(ctx context.Context) ([]models.Student, error)
}

type sessionLister interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	UpcomingLimit int
}

// DashboardService loads a consistent roster/session snapshot and derives
// the financial views from it through the ledger.
type DashboardService struct {
	students rosterLister
	sessions sessionLister
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(students rosterLister, sessions sessionLister, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: students,
		sessions: sessions,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Overview returns roster-wide financials and indicates cache utilisation.
func (s *DashboardService) Overview(ctx context.Context) (*dto.OverviewResponse, bool, error) {
	const cacheKey = "dash:overview"
	var cached dto.OverviewResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	students, sessions, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	summary := ledger.ComputeFinancialSummary(students, sessions)

	completed := 0
	upcoming := make([]models.ClassSession, 0)
	today := s.now().UTC().Truncate(24 * time.Hour)
	for _, sess := range sessions {
		switch sess.Status {
		case models.ClassStatusCompleted:
			completed++
		case models.ClassStatusScheduled:
			if !sess.Date.Before(today) {
				upcoming = append(upcoming, sess)
			}
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if !upcoming[i].Date.Equal(upcoming[j].Date) {
			return upcoming[i].Date.Before(upcoming[j].Date)
		}
		return upcoming[i].StartTime < upcoming[j].StartTime
	})
	if len(upcoming) > s.cfg.UpcomingLimit {
		upcoming = upcoming[:s.cfg.UpcomingLimit]
	}

	resp := &dto.OverviewResponse{
		TotalRevenue:      summary.TotalRevenue,
		PendingDuesTotal:  summary.PendingDuesTotal,
		ActiveStudents:    len(students),
		CompletedSessions: completed,
		UpcomingSessions:  upcoming,
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// Income returns the monthly income series for one calendar year.
func (s *DashboardService) Income(ctx context.Context, year int) (*dto.IncomeResponse, bool, error) {
	if year <= 0 {
		year = s.now().UTC().Year()
	}
	cacheKey := fmt.Sprintf("dash:income:%d", year)
	var cached dto.IncomeResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	students, sessions, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	months := ledger.ComputeMonthlyIncome(students, sessions, year)
	var total float64
	for _, m := range months {
		total += m
	}
	resp := &dto.IncomeResponse{Year: year, Months: months, Total: total}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// Receivables returns every outstanding amount across the roster.
func (s *DashboardService) Receivables(ctx context.Context) (*dto.ReceivablesResponse, bool, error) {
	const cacheKey = "dash:receivables"
	var cached dto.ReceivablesResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	students, sessions, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	summary := ledger.ComputeFinancialSummary(students, sessions)
	resp := &dto.ReceivablesResponse{
		Total:       summary.PendingDuesTotal,
		Receivables: summary.PendingList,
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// Invoice builds the statement view for one student.
func (s *DashboardService) Invoice(ctx context.Context, studentID string) (*dto.InvoiceResponse, bool, error) {
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	cacheKey := fmt.Sprintf("dash:invoice:%s", studentID)
	var cached dto.InvoiceResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	students, sessions, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	invoice := ledger.BuildInvoice(students, studentID, sessions)
	if invoice == nil {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	resp := &dto.InvoiceResponse{
		Student:   invoice.Student,
		Sessions:  invoice.Sessions,
		Consumed:  invoice.Consumed,
		Balance:   invoice.Balance,
		AmountDue: invoice.AmountDue,
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// snapshot loads the full roster and session list the ledger operates on.
func (s *DashboardService) snapshot(ctx context.Context) ([]models.Student, []models.ClassSession, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	sessions, err := s.sessions.List(ctx, models.SessionFilter{})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	return students, sessions, nil
}

func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false, err
	}
	return hit, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
