package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PaymentType distinguishes the two billing models a student can be on.
type PaymentType string

const (
	// PaymentTypeUpfront students deposit money in advance (topups) and
	// consume it session by session. Their balance may go negative.
	PaymentTypeUpfront PaymentType = "upfront"
	// PaymentTypePostpaid students are billed per completed session; each
	// session carries its own paid/pending state.
	PaymentTypePostpaid PaymentType = "postpaid"
)

// Valid reports whether the value is a known payment type.
func (p PaymentType) Valid() bool {
	return p == PaymentTypeUpfront || p == PaymentTypePostpaid
}

// Topup is a dated deposit added to a prepaid student's running balance.
type Topup struct {
	ID     string    `json:"id"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

// Topups is stored as a JSONB column on the students table. Insertion order
// is chronological and the ledger treats the list as append-only.
type Topups []Topup

// Value marshals topups to JSON for persistence.
func (t Topups) Value() (driver.Value, error) {
	if t == nil {
		t = Topups{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal topups: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the topup list.
func (t *Topups) Scan(value interface{}) error {
	if value == nil {
		*t = Topups{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Topups", value)
	}
	if len(data) == 0 {
		*t = Topups{}
		return nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("unmarshal topups: %w", err)
	}
	return nil
}

// Total sums all deposit amounts.
func (t Topups) Total() float64 {
	var sum float64
	for _, topup := range t {
		sum += topup.Amount
	}
	return sum
}

// Student represents a tutored learner with an hourly rate and billing model.
type Student struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	ClassName   string      `db:"class_name" json:"className"`
	HourlyRate  float64     `db:"hourly_rate" json:"hourlyRate"`
	PaymentType PaymentType `db:"payment_type" json:"paymentType"`
	Topups      Topups      `db:"topups" json:"topups"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}
