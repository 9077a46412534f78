package dto

import (
	"github.com/Prodrious/new-payment-tracker/internal/ledger"
	"github.com/Prodrious/new-payment-tracker/internal/models"
)

// OverviewResponse is the landing view: roster-wide financials plus a short
// look at what is coming up.
type OverviewResponse struct {
	TotalRevenue      float64               `json:"totalRevenue"`
	PendingDuesTotal  float64               `json:"pendingDuesTotal"`
	ActiveStudents    int                   `json:"activeStudents"`
	CompletedSessions int                   `json:"completedSessions"`
	UpcomingSessions  []models.ClassSession `json:"upcomingSessions"`
}

// IncomeResponse is the per-month income series of one calendar year.
type IncomeResponse struct {
	Year   int         `json:"year"`
	Months [12]float64 `json:"months"`
	Total  float64     `json:"total"`
}

// ReceivablesResponse lists every outstanding amount with its total.
type ReceivablesResponse struct {
	Total       float64             `json:"total"`
	Receivables []ledger.Receivable `json:"receivables"`
}

// InvoiceResponse is the invoice view for one student, with balance fields
// only meaningful for prepaid students.
type InvoiceResponse struct {
	Student   models.Student        `json:"student"`
	Sessions  []models.ClassSession `json:"sessions"`
	Consumed  float64               `json:"consumed"`
	Balance   float64               `json:"balance"`
	AmountDue float64               `json:"amountDue"`
}
