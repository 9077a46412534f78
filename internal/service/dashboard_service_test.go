package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

func dashboardFixtures() (*mockStudentRepo, *mockSessionRepo) {
	students := &mockStudentRepo{
		students: map[string]models.Student{
			"up": {ID: "up", Name: "Alya", HourlyRate: 100, PaymentType: models.PaymentTypeUpfront, Topups: models.Topups{
				{ID: "t1", Amount: 1000, Date: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)},
			}},
			"post": {ID: "post", Name: "Ben", HourlyRate: 200, PaymentType: models.PaymentTypePostpaid},
		},
		order: []string{"up", "post"},
	}
	sessions := &mockSessionRepo{sessions: map[string]models.ClassSession{
		"c1": {ID: "c1", StudentID: "up", Date: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00", EndTime: "12:00", Status: models.ClassStatusCompleted, PaymentStatus: models.PaymentStatusPaid},
		"c2": {ID: "c2", StudentID: "post", Date: time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00", EndTime: "10:30", Status: models.ClassStatusCompleted, PaymentStatus: models.PaymentStatusPending},
		"c3": {ID: "c3", StudentID: "up", Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00", EndTime: "11:00", Status: models.ClassStatusScheduled, PaymentStatus: models.PaymentStatusPending},
	}}
	return students, sessions
}

func newDashboardService(students rosterLister, sessions sessionLister) *DashboardService {
	svc := NewDashboardService(students, sessions, nil, zap.NewNop(), DashboardServiceConfig{UpcomingLimit: 5})
	svc.now = func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDashboardOverview(t *testing.T) {
	students, sessions := dashboardFixtures()
	svc := newDashboardService(students, sessions)

	resp, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	// 1000 upfront deposits; Ben's pending 1.5h x 200 is dues, not revenue.
	assert.Equal(t, 1000.0, resp.TotalRevenue)
	assert.Equal(t, 300.0, resp.PendingDuesTotal)
	assert.Equal(t, 2, resp.ActiveStudents)
	assert.Equal(t, 2, resp.CompletedSessions)
	require.Len(t, resp.UpcomingSessions, 1)
	assert.Equal(t, "c3", resp.UpcomingSessions[0].ID)
}

func TestDashboardOverviewUpcomingLimit(t *testing.T) {
	students, sessions := dashboardFixtures()
	for i := 0; i < 10; i++ {
		id := string(rune('d'+i)) + "-extra"
		sessions.sessions[id] = models.ClassSession{
			ID: id, StudentID: "up",
			Date:      time.Date(2025, time.July, 1+i, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00", EndTime: "11:00",
			Status: models.ClassStatusScheduled, PaymentStatus: models.PaymentStatusPending,
		}
	}
	svc := NewDashboardService(students, sessions, nil, zap.NewNop(), DashboardServiceConfig{UpcomingLimit: 3})
	svc.now = func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) }

	resp, _, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.UpcomingSessions, 3)
	// Nearest dates first.
	assert.Equal(t, "c3", resp.UpcomingSessions[0].ID)
}

func TestDashboardIncome(t *testing.T) {
	students, sessions := dashboardFixtures()
	svc := newDashboardService(students, sessions)

	resp, hit, err := svc.Income(context.Background(), 2025)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2025, resp.Year)
	// January bucket holds the topup; Ben's February session is still pending.
	assert.Equal(t, 1000.0, resp.Months[0])
	assert.Equal(t, 0.0, resp.Months[1])
	assert.Equal(t, 1000.0, resp.Total)
}

func TestDashboardIncomeDefaultsYear(t *testing.T) {
	students, sessions := dashboardFixtures()
	svc := newDashboardService(students, sessions)

	resp, _, err := svc.Income(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, resp.Year)
}

func TestDashboardReceivables(t *testing.T) {
	students, sessions := dashboardFixtures()
	svc := newDashboardService(students, sessions)

	resp, _, err := svc.Receivables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300.0, resp.Total)
	require.Len(t, resp.Receivables, 1)
	assert.Equal(t, "post", resp.Receivables[0].StudentID)
}

func TestDashboardInvoice(t *testing.T) {
	students, sessions := dashboardFixtures()
	svc := newDashboardService(students, sessions)

	resp, _, err := svc.Invoice(context.Background(), "post")
	require.NoError(t, err)
	assert.Equal(t, 300.0, resp.AmountDue)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "c2", resp.Sessions[0].ID)
}

func TestDashboardInvoiceUnknownStudent(t *testing.T) {
	students, sessions := dashboardFixtures()
	svc := newDashboardService(students, sessions)

	_, _, err := svc.Invoice(context.Background(), "ghost")
	require.Error(t, err)
}
