package models

import "time"

// StatementFormat enumerates supported export formats.
type StatementFormat string

const (
	StatementFormatCSV StatementFormat = "csv"
	StatementFormatPDF StatementFormat = "pdf"
)

// Valid reports whether the value is a supported format.
func (f StatementFormat) Valid() bool {
	return f == StatementFormatCSV || f == StatementFormatPDF
}

// StatementStatus captures background job lifecycle states.
type StatementStatus string

const (
	StatementStatusQueued     StatementStatus = "QUEUED"
	StatementStatusProcessing StatementStatus = "PROCESSING"
	StatementStatusFinished   StatementStatus = "FINISHED"
	StatementStatusFailed     StatementStatus = "FAILED"
)

// StatementJob is a persisted background job rendering a student's
// invoice/statement to a downloadable file.
type StatementJob struct {
	ID           string          `db:"id" json:"id"`
	StudentID    string          `db:"student_id" json:"studentId"`
	Format       StatementFormat `db:"format" json:"format"`
	Status       StatementStatus `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"resultUrl,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error,omitempty"`
}
