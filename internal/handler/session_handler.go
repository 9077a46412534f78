package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Prodrious/new-payment-tracker/internal/models"
	"github.com/Prodrious/new-payment-tracker/internal/service"
	appErrors "github.com/Prodrious/new-payment-tracker/pkg/errors"
	"github.com/Prodrious/new-payment-tracker/pkg/response"
)

type sessionService interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, error)
	Get(ctx context.Context, id string) (*models.ClassSession, error)
	Create(ctx context.Context, req service.CreateSessionRequest) (*models.ClassSession, error)
	Transition(ctx context.Context, id string, req service.TransitionSessionRequest) (*models.ClassSession, error)
	MarkPaid(ctx context.Context, id string) (*models.ClassSession, error)
	Replace(ctx context.Context, sessions []models.ClassSession) error
	Clear(ctx context.Context) error
}

// SessionHandler wires session lifecycle endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		Status:    models.ClassStatus(strings.TrimSpace(c.Query("status"))),
	}
	sessions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Get godoc
// @Summary Get one session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Schedule a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Transition godoc
// @Summary Complete or cancel a scheduled session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.TransitionSessionRequest true "Transition"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/status [patch]
func (h *SessionHandler) Transition(c *gin.Context) {
	var req service.TransitionSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	session, err := h.service.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// MarkPaid godoc
// @Summary Settle a pending due on a completed session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/pay [post]
func (h *SessionHandler) MarkPaid(c *gin.Context) {
	session, err := h.service.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Replace godoc
// @Summary Replace the whole session collection
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body []models.ClassSession true "Sessions"
// @Success 200 {object} response.Envelope
// @Router /sessions [put]
func (h *SessionHandler) Replace(c *gin.Context) {
	var sessions []models.ClassSession
	if err := c.ShouldBindJSON(&sessions); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.service.Replace(c.Request.Context(), sessions); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": len(sessions)}, nil)
}

// Clear godoc
// @Summary Remove every session
// @Tags Sessions
// @Success 204
// @Router /sessions [delete]
func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
