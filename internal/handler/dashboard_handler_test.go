package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prodrious/new-payment-tracker/internal/dto"
)

type dashboardServiceMock struct {
	overview    *dto.OverviewResponse
	income      *dto.IncomeResponse
	receivables *dto.ReceivablesResponse
	invoice     *dto.InvoiceResponse
	cacheHit    bool
	err         error
	lastYear    int
}

func (m *dashboardServiceMock) Overview(ctx context.Context) (*dto.OverviewResponse, bool, error) {
	return m.overview, m.cacheHit, m.err
}

func (m *dashboardServiceMock) Income(ctx context.Context, year int) (*dto.IncomeResponse, bool, error) {
	m.lastYear = year
	return m.income, m.cacheHit, m.err
}

func (m *dashboardServiceMock) Receivables(ctx context.Context) (*dto.ReceivablesResponse, bool, error) {
	return m.receivables, m.cacheHit, m.err
}

func (m *dashboardServiceMock) Invoice(ctx context.Context, studentID string) (*dto.InvoiceResponse, bool, error) {
	return m.invoice, m.cacheHit, m.err
}

func TestDashboardHandlerOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{overview: &dto.OverviewResponse{TotalRevenue: 1000, ActiveStudents: 2}, cacheHit: true}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard/overview", nil)
	handler.Overview(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.OverviewResponse   `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1000.0, envelope.Data.TotalRevenue)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerIncomeParsesYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{income: &dto.IncomeResponse{Year: 2024}}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard/income?year=2024", nil)
	handler.Income(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2024, mockSvc.lastYear)
}

func TestDashboardHandlerIncomeRejectsBadYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&dashboardServiceMock{})

	c, w := newGinContext(http.MethodGet, "/dashboard/income?year=soon", nil)
	handler.Income(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardHandlerInvoice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{invoice: &dto.InvoiceResponse{AmountDue: 300}}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard/invoice/s1", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "s1"}}
	handler.Invoice(c)
	require.Equal(t, http.StatusOK, w.Code)
}
