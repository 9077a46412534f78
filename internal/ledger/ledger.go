// Package ledger derives financial views from student and session snapshots.
//
// Every function is pure and total: it never mutates its inputs, never
// performs I/O, and never fails on well-typed data. Sessions referencing an
// unknown student are skipped, and malformed wall-clock strings degrade to a
// zero duration instead of an error. Callers supply a consistent snapshot of
// both collections and may invoke any function concurrently.
package ledger

import (
	"strconv"
	"strings"

	"github.com/Prodrious/new-payment-tracker/internal/models"
)

// ReceivableKind tags the origin of an outstanding amount.
type ReceivableKind string

const (
	// ReceivableOverdraft marks a prepaid student whose completed sessions
	// exceed their deposits.
	ReceivableOverdraft ReceivableKind = "overdraft"
	// ReceivablePostpaid marks unpaid completed sessions of a postpaid
	// student.
	ReceivablePostpaid ReceivableKind = "postpaid"
)

// Receivable is one outstanding amount owed to the tutor.
type Receivable struct {
	StudentID string         `json:"studentId"`
	Name      string         `json:"name"`
	Amount    float64        `json:"amount"`
	Kind      ReceivableKind `json:"kind"`
}

// FinancialSummary aggregates revenue and outstanding dues across the whole
// roster.
type FinancialSummary struct {
	TotalRevenue     float64      `json:"totalRevenue"`
	PendingDuesTotal float64      `json:"pendingDuesTotal"`
	PendingList      []Receivable `json:"pendingList"`
}

// Invoice is a point-in-time statement for one student.
type Invoice struct {
	Student   models.Student        `json:"student"`
	Sessions  []models.ClassSession `json:"sessions"`
	Consumed  float64               `json:"consumed"`
	Balance   float64               `json:"balance"`
	AmountDue float64               `json:"amountDue"`
}

// SessionDuration returns the session length in hours. Malformed time
// strings yield 0, and an end before the start is floored at 0 so bad input
// never produces negative hours.
func SessionDuration(s models.ClassSession) float64 {
	start, ok := parseClock(s.StartTime)
	if !ok {
		return 0
	}
	end, ok := parseClock(s.EndTime)
	if !ok {
		return 0
	}
	if d := end - start; d > 0 {
		return d
	}
	return 0
}

// SessionCost prices a session at the student's hourly rate.
func SessionCost(s models.ClassSession, hourlyRate float64) float64 {
	return SessionDuration(s) * hourlyRate
}

// ComputeBalance returns the standing balance of a prepaid student: deposits
// minus the value of completed sessions. It may be negative (overdraft) and
// is intentionally not clamped. Postpaid students have no standing balance;
// their cost accrues per session, so the result is always 0.
func ComputeBalance(student models.Student, sessions []models.ClassSession) float64 {
	if student.PaymentType != models.PaymentTypeUpfront {
		return 0
	}
	deposited := student.Topups.Total()
	var consumed float64
	for _, s := range sessions {
		if s.StudentID != student.ID || s.Status != models.ClassStatusCompleted {
			continue
		}
		consumed += SessionCost(s, student.HourlyRate)
	}
	return deposited - consumed
}

// ComputeFinancialSummary classifies every deposit and completed-session
// dollar exactly once as realized revenue or as an outstanding due.
//
// Upfront deposits count as revenue at deposit time, independent of
// consumption; an overdrawn prepaid balance surfaces as an overdraft
// receivable. Postpaid completed sessions count as revenue when paid and as
// dues when pending, merged per student. PendingList order is stable
// insertion order of first encounter.
func ComputeFinancialSummary(students []models.Student, sessions []models.ClassSession) FinancialSummary {
	summary := FinancialSummary{PendingList: []Receivable{}}

	byID := make(map[string]models.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	for _, student := range students {
		if student.PaymentType != models.PaymentTypeUpfront {
			continue
		}
		summary.TotalRevenue += student.Topups.Total()
		if balance := ComputeBalance(student, sessions); balance < 0 {
			summary.PendingDuesTotal += -balance
			summary.PendingList = append(summary.PendingList, Receivable{
				StudentID: student.ID,
				Name:      student.Name,
				Amount:    -balance,
				Kind:      ReceivableOverdraft,
			})
		}
	}

	pendingIdx := make(map[string]int)
	for _, session := range sessions {
		student, ok := byID[session.StudentID]
		if !ok {
			continue
		}
		if student.PaymentType != models.PaymentTypePostpaid || session.Status != models.ClassStatusCompleted {
			continue
		}
		cost := SessionCost(session, student.HourlyRate)
		if session.PaymentStatus == models.PaymentStatusPaid {
			summary.TotalRevenue += cost
			continue
		}
		summary.PendingDuesTotal += cost
		if idx, seen := pendingIdx[student.ID]; seen {
			summary.PendingList[idx].Amount += cost
			continue
		}
		pendingIdx[student.ID] = len(summary.PendingList)
		summary.PendingList = append(summary.PendingList, Receivable{
			StudentID: student.ID,
			Name:      student.Name,
			Amount:    cost,
			Kind:      ReceivablePostpaid,
		})
	}

	return summary
}

// ComputeMonthlyIncome buckets realized income for a calendar year into 12
// months indexed 0=January. Topups count in the month they were deposited;
// postpaid completed+paid sessions count in the month they took place.
// Consumption of a prepaid balance is never re-counted as new income, and
// pending, cancelled or scheduled sessions never contribute.
func ComputeMonthlyIncome(students []models.Student, sessions []models.ClassSession, year int) [12]float64 {
	var income [12]float64

	byID := make(map[string]models.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
		for _, topup := range s.Topups {
			if topup.Date.Year() == year {
				income[int(topup.Date.Month())-1] += topup.Amount
			}
		}
	}

	for _, session := range sessions {
		student, ok := byID[session.StudentID]
		if !ok {
			continue
		}
		if student.PaymentType != models.PaymentTypePostpaid ||
			session.Status != models.ClassStatusCompleted ||
			session.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		if session.Date.Year() == year {
			income[int(session.Date.Month())-1] += SessionCost(session, student.HourlyRate)
		}
	}

	return income
}

// BuildInvoice assembles a statement for one student, or nil when the
// student is unknown.
//
// Line items are the student's completed sessions; for postpaid students
// only those still pending payment (an upfront student's billing model has
// no per-session paid/pending state that matters for the statement, so all
// completed sessions are listed). The balance is computed against lifetime
// consumption regardless of the line-item filter.
func BuildInvoice(students []models.Student, studentID string, sessions []models.ClassSession) *Invoice {
	var student *models.Student
	for i := range students {
		if students[i].ID == studentID {
			student = &students[i]
			break
		}
	}
	if student == nil {
		return nil
	}

	items := []models.ClassSession{}
	var consumed, lifetimeConsumed float64
	for _, s := range sessions {
		if s.StudentID != student.ID || s.Status != models.ClassStatusCompleted {
			continue
		}
		cost := SessionCost(s, student.HourlyRate)
		lifetimeConsumed += cost
		if student.PaymentType == models.PaymentTypePostpaid && s.PaymentStatus != models.PaymentStatusPending {
			continue
		}
		items = append(items, s)
		consumed += cost
	}

	invoice := &Invoice{
		Student:  *student,
		Sessions: items,
		Consumed: consumed,
	}
	if student.PaymentType == models.PaymentTypeUpfront {
		invoice.Balance = student.Topups.Total() - lifetimeConsumed
		if invoice.Balance < 0 {
			invoice.AmountDue = -invoice.Balance
		}
	} else {
		invoice.AmountDue = consumed
	}
	return invoice
}

func parseClock(raw string) (float64, bool) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return float64(hours) + float64(minutes)/60, true
}
