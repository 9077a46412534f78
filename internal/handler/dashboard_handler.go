package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prodrious/new-payment-tracker/internal/dto"
	"github.com/Prodrious/new-payment-tracker/internal/middleware"
	appErrors "github.com/Prodrious/new-payment-tracker/pkg/errors"
	"github.com/Prodrious/new-payment-tracker/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context) (*dto.OverviewResponse, bool, error)
	Income(ctx context.Context, year int) (*dto.IncomeResponse, bool, error)
	Receivables(ctx context.Context) (*dto.ReceivablesResponse, bool, error)
	Invoice(ctx context.Context, studentID string) (*dto.InvoiceResponse, bool, error)
}

// DashboardHandler wires the derived financial views to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Roster-wide financial overview
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	overview, cacheHit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, start, cacheHit, overview)
}

// Income godoc
// @Summary Monthly income series for a year
// @Tags Dashboard
// @Produce json
// @Param year query int false "Calendar year. Defaults to the current year"
// @Success 200 {object} response.Envelope
// @Router /dashboard/income [get]
func (h *DashboardHandler) Income(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	year := 0
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a positive integer"))
			return
		}
		year = parsed
	}
	start := time.Now()
	income, cacheHit, err := h.service.Income(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, start, cacheHit, income)
}

// Receivables godoc
// @Summary Outstanding amounts across the roster
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/receivables [get]
func (h *DashboardHandler) Receivables(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	receivables, cacheHit, err := h.service.Receivables(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, start, cacheHit, receivables)
}

// Invoice godoc
// @Summary Statement view for one student
// @Tags Dashboard
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard/invoice/{studentId} [get]
func (h *DashboardHandler) Invoice(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	invoice, cacheHit, err := h.service.Invoice(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, start, cacheHit, invoice)
}

func (h *DashboardHandler) respond(c *gin.Context, start time.Time, cacheHit bool, payload interface{}) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, payload, nil, meta)
}
