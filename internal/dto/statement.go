package dto

import "github.com/Prodrious/new-payment-tracker/internal/models"

// StatementRequest asks for an asynchronous statement export.
type StatementRequest struct {
	StudentID string                 `json:"studentId" validate:"required"`
	Format    models.StatementFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// StatementJobResponse acknowledges an accepted export job.
type StatementJobResponse struct {
	ID       string                 `json:"id"`
	Status   models.StatementStatus `json:"status"`
	Progress int                    `json:"progress"`
}

// StatementStatusResponse reports job progress and, once finished, the
// signed download location.
type StatementStatusResponse struct {
	ID        string                 `json:"id"`
	Status    models.StatementStatus `json:"status"`
	Progress  int                    `json:"progress"`
	ResultURL *string                `json:"resultUrl,omitempty"`
	Error     *string                `json:"error,omitempty"`
}
