package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Prodrious/new-payment-tracker/internal/dto"
	"github.com/Prodrious/new-payment-tracker/internal/models"
	"github.com/Prodrious/new-payment-tracker/internal/service"
	appErrors "github.com/Prodrious/new-payment-tracker/pkg/errors"
	"github.com/Prodrious/new-payment-tracker/pkg/response"
)

type statementService interface {
	CreateJob(ctx context.Context, req dto.StatementRequest) (*dto.StatementJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.StatementStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.StatementDownload, error)
}

// StatementHandler exposes statement export endpoints.
type StatementHandler struct {
	service statementService
}

// NewStatementHandler constructs the handler.
func NewStatementHandler(service statementService) *StatementHandler {
	return &StatementHandler{service: service}
}

// Create godoc
// @Summary Queue a statement export
// @Tags Statements
// @Accept json
// @Produce json
// @Param payload body dto.StatementRequest true "Statement request"
// @Success 202 {object} response.Envelope
// @Router /statements [post]
func (h *StatementHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.StatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Statement job status
// @Tags Statements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /statements/{id} [get]
func (h *StatementHandler) Status(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished statement via signed token
// @Tags Statements
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /statements/download/{token} [get]
func (h *StatementHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close()

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat statement file"))
		return
	}
	contentType := "text/csv"
	if result.Format == models.StatementFormatPDF {
		contentType = "application/pdf"
	}
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", result.Filename),
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, result.File, extraHeaders)
}
