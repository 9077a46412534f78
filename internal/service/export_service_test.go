package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/ledger"
	"github.com/Prodrious/new-payment-tracker/internal/models"
	"github.com/Prodrious/new-payment-tracker/pkg/export"
	"github.com/Prodrious/new-payment-tracker/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	students, sessions := dashboardFixtures()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(students, sessions, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.StatementJob{ID: "job-1", StudentID: "post", Format: models.StatementFormatCSV}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/statements/download/")

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.StatementJob{ID: "job-2", StudentID: "up", Format: models.StatementFormatPDF}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateUnknownStudent(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.StatementJob{ID: "job-3", StudentID: "ghost", Format: models.StatementFormatCSV}

	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestBuildStatementDatasetPostpaidPendingOnly(t *testing.T) {
	invoice := &ledger.Invoice{
		Student: models.Student{Name: "Ben", ClassName: "Physics", HourlyRate: 200, PaymentType: models.PaymentTypePostpaid},
		Sessions: []models.ClassSession{
			{Date: time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), StartTime: "09:00", EndTime: "10:30",
				Status: models.ClassStatusCompleted, PaymentStatus: models.PaymentStatusPending},
		},
		Consumed:  300,
		AmountDue: 300,
	}

	dataset, title := buildStatementDataset(invoice)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, map[string]string{
		"Date":    "2025-02-03",
		"Start":   "09:00",
		"End":     "10:30",
		"Hours":   "1.50",
		"Cost":    "300.00",
		"Payment": "pending",
	}, dataset.Rows[0])
	assert.Contains(t, title, "Ben")
	// No balance line for postpaid students.
	for _, line := range dataset.Summary {
		assert.NotEqual(t, "Balance", line[0])
	}
}

func TestStatementDatasetRendersInHeaderOrder(t *testing.T) {
	invoice := &ledger.Invoice{
		Student: models.Student{Name: "Ben", HourlyRate: 200, PaymentType: models.PaymentTypePostpaid},
		Sessions: []models.ClassSession{
			{Date: time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), StartTime: "09:00", EndTime: "10:30",
				Status: models.ClassStatusCompleted, PaymentStatus: models.PaymentStatusPending},
		},
	}

	dataset, _ := buildStatementDataset(invoice)
	// Every row must carry a value for every header, so renderers that pick
	// cells by header name never emit blanks.
	for _, row := range dataset.Rows {
		for _, header := range dataset.Headers {
			assert.Contains(t, row, header)
		}
	}

	payload, err := export.NewCSVExporter().Render(dataset)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "Date,Start,End,Hours,Cost,Payment", lines[0])
	assert.Equal(t, "2025-02-03,09:00,10:30,1.50,300.00,pending", lines[1])
}

func TestBuildStatementDatasetUpfrontIncludesBalance(t *testing.T) {
	invoice := &ledger.Invoice{
		Student:  models.Student{Name: "Alya", PaymentType: models.PaymentTypeUpfront, HourlyRate: 100},
		Consumed: 200,
		Balance:  800,
	}

	dataset, _ := buildStatementDataset(invoice)
	var found bool
	for _, line := range dataset.Summary {
		if line[0] == "Balance" {
			found = true
			assert.Equal(t, "800.00", line[1])
		}
	}
	assert.True(t, found)
}
