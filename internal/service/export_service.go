package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sms-results-api/internal/models"
	appErrors "github.com/noah-isme/sms-results-api/pkg/errors"
	"github.com/noah-isme/sms-results-api/pkg/export"
	"github.com/noah-isme/sms-results-api/pkg/jobs"
	"github.com/noah-isme/sms-results-api/pkg/storage"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type cohortReader interface {
	Cohort(ctx context.Context, filter models.CohortFilter) ([]models.SubjectAssessment, error)
	StudentRecord(ctx context.Context, studentID, term, session string) (*models.StudentMarksRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string       `json:"relative_path"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	Format       ExportFormat `json:"format"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ExportService renders class broadsheets and student report cards into
// CSV or PDF files, stores them on disk and hands back signed download
// URLs. Broadsheets for large classes go through the background queue.
type ExportService struct {
	results cohortReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. The queue is optional;
// without one every export renders synchronously.
func NewExportService(results cohortReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		results: results,
		storage: files,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// AttachQueue wires the background queue used for asynchronous broadsheet
// rendering.
func (s *ExportService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// BroadsheetJobPayload is the queued unit of work for async exports.
type BroadsheetJobPayload struct {
	Filter models.CohortFilter
	Format ExportFormat
}

// ExportBroadsheet renders the ranked cohort as one row per student.
func (s *ExportService) ExportBroadsheet(ctx context.Context, filter models.CohortFilter, format ExportFormat) (*ExportResult, error) {
	cohort, err := s.results.Cohort(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(cohort) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no results recorded for this cohort")
	}
	sort.Slice(cohort, func(i, j int) bool { return cohort[i].Position < cohort[j].Position })

	dataset := export.Dataset{
		Headers: []string{"Position", "Student", "1st Test", "2nd Test", "Assignment", "Exam", "CA", "Total", "Avg %", "Grade", "Remark"},
	}
	for _, a := range cohort {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Position":   strconv.Itoa(a.Position),
			"Student":    a.StudentID,
			"1st Test":   strconv.Itoa(a.Scores.FirstTest),
			"2nd Test":   strconv.Itoa(a.Scores.SecondTest),
			"Assignment": strconv.Itoa(a.Scores.Assignment),
			"Exam":       strconv.Itoa(a.Scores.Exam),
			"CA":         strconv.Itoa(a.ContinuousTotal),
			"Total":      strconv.Itoa(a.GrandTotal),
			"Avg %":      strconv.Itoa(a.AveragePercent),
			"Grade":      a.Grade,
			"Remark":     a.Remark,
		})
	}

	title := fmt.Sprintf("%s %s Broadsheet, %s %s", filter.ClassID, filter.Subject, filter.Term, filter.Session)
	name := fmt.Sprintf("broadsheet_%s_%s_%s_%s", filter.ClassID, filter.Subject, filter.Term, strings.ReplaceAll(filter.Session, "/", "-"))
	return s.render(dataset, title, name, format)
}

// ExportReportCard renders one student's term report card.
func (s *ExportService) ExportReportCard(ctx context.Context, studentID, term, session string, format ExportFormat) (*ExportResult, error) {
	record, err := s.results.StudentRecord(ctx, studentID, term, session)
	if err != nil {
		return nil, err
	}

	subjects := make([]models.SubjectAssessment, 0, len(record.Subjects))
	for _, subject := range record.Subjects {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Subject < subjects[j].Subject })

	dataset := export.Dataset{
		Headers: []string{"Subject", "CA", "Exam", "Total", "Avg %", "Position", "Grade", "Remark"},
	}
	for _, a := range subjects {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Subject":  a.Subject,
			"CA":       strconv.Itoa(a.ContinuousTotal),
			"Exam":     strconv.Itoa(a.Scores.Exam),
			"Total":    strconv.Itoa(a.GrandTotal),
			"Avg %":    strconv.Itoa(a.AveragePercent),
			"Position": strconv.Itoa(a.Position),
			"Grade":    a.Grade,
			"Remark":   a.Remark,
		})
	}
	dataset.Rows = append(dataset.Rows, map[string]string{
		"Subject": "OVERALL",
		"Avg %":   fmt.Sprintf("%.2f", record.OverallAverage),
		"Remark":  string(record.Status),
	})

	title := fmt.Sprintf("Report Card for %s, %s %s", studentID, term, session)
	name := fmt.Sprintf("reportcard_%s_%s_%s", studentID, term, strings.ReplaceAll(session, "/", "-"))
	return s.render(dataset, title, name, format)
}

// EnqueueBroadsheet schedules an async broadsheet export.
func (s *ExportService) EnqueueBroadsheet(filter models.CohortFilter, format ExportFormat) (string, error) {
	if s.queue == nil {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "export queue not running")
	}
	jobID := uuid.NewString()
	err := s.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    "broadsheet",
		Payload: BroadsheetJobPayload{Filter: filter, Format: format},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return jobID, nil
}

// HandleJob is the queue handler for async exports.
func (s *ExportService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(BroadsheetJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	result, err := s.ExportBroadsheet(ctx, payload.Filter, payload.Format)
	if err != nil {
		return err
	}
	s.logger.Sugar().Infow("broadsheet exported", "job_id", job.ID, "path", result.RelativePath)
	return nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (relPath string, err error) {
	_, relPath, _, err = s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	return relPath, nil
}

// Open returns a handle to a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

func (s *ExportService) render(dataset export.Dataset, title, name string, format ExportFormat) (*ExportResult, error) {
	var payload []byte
	var err error
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s_%d.%s", name, time.Now().UTC().Unix(), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(uuid.NewString(), relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download URL")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}
