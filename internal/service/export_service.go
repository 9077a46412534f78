package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Prodrious/new-payment-tracker/internal/ledger"
	"github.com/Prodrious/new-payment-tracker/internal/models"
	"github.com/Prodrious/new-payment-tracker/pkg/export"
	"github.com/Prodrious/new-payment-tracker/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.StatementFormat
	ExpiresAt    time.Time
}

// ExportService renders student statements and persists the files.
type ExportService struct {
	students rosterLister
	sessions sessionLister
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(students rosterLister, sessions sessionLister, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		students: students,
		sessions: sessions,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the student's statement at processing time and stores the
// file under a signed download token.
func (s *ExportService) Generate(ctx context.Context, job *models.StatementJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	sessions, err := s.sessions.List(ctx, models.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	invoice := ledger.BuildInvoice(students, job.StudentID, sessions)
	if invoice == nil {
		return nil, fmt.Errorf("student %s not found", job.StudentID)
	}

	dataset, title := buildStatementDataset(invoice)

	var payload []byte
	switch job.Format {
	case models.StatementFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.StatementFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("statement-%s-%s.%s", job.StudentID, job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/statements/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns the stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than the given TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

// buildStatementDataset flattens an invoice into a renderable table. Rows
// follow the invoice line-item filter (pending dues for postpaid students,
// every completed session for prepaid ones).
func buildStatementDataset(invoice *ledger.Invoice) (export.Dataset, string) {
	headers := []string{"Date", "Start", "End", "Hours", "Cost", "Payment"}
	rows := make([]map[string]string, 0, len(invoice.Sessions))
	for _, sess := range invoice.Sessions {
		rows = append(rows, map[string]string{
			"Date":    sess.Date.Format("2006-01-02"),
			"Start":   sess.StartTime,
			"End":     sess.EndTime,
			"Hours":   fmt.Sprintf("%.2f", ledger.SessionDuration(sess)),
			"Cost":    fmt.Sprintf("%.2f", ledger.SessionCost(sess, invoice.Student.HourlyRate)),
			"Payment": string(sess.PaymentStatus),
		})
	}

	summary := [][2]string{
		{"Student", invoice.Student.Name},
		{"Class", invoice.Student.ClassName},
		{"Payment model", string(invoice.Student.PaymentType)},
		{"Consumed", fmt.Sprintf("%.2f", invoice.Consumed)},
		{"Amount due", fmt.Sprintf("%.2f", invoice.AmountDue)},
	}
	if invoice.Student.PaymentType == models.PaymentTypeUpfront {
		summary = append(summary, [2]string{"Balance", fmt.Sprintf("%.2f", invoice.Balance)})
	}

	title := fmt.Sprintf("Statement - %s", invoice.Student.Name)
	return export.Dataset{Headers: headers, Rows: rows, Summary: summary}, title
}
