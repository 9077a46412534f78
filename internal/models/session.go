package models

import "time"

// ClassStatus captures the scheduling lifecycle of a session.
type ClassStatus string

const (
	ClassStatusScheduled ClassStatus = "scheduled"
	ClassStatusCompleted ClassStatus = "completed"
	ClassStatusCancelled ClassStatus = "cancelled"
)

// Valid reports whether the value is a known class status.
func (s ClassStatus) Valid() bool {
	return s == ClassStatusScheduled || s == ClassStatusCompleted || s == ClassStatusCancelled
}

// PaymentStatus tracks whether a postpaid session has been settled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Valid reports whether the value is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// ClassSession is a single tutoring appointment. StudentID may dangle when
// the student was removed; the ledger skips unresolved references.
type ClassSession struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"studentId"`
	Date          time.Time     `db:"date" json:"date"`
	StartTime     string        `db:"start_time" json:"startTime"`
	EndTime       string        `db:"end_time" json:"endTime"`
	Status        ClassStatus   `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	StudentID string
	Status    ClassStatus
}
