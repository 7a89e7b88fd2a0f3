package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/export"
)

// ExportFormat values supported by the register export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"ID", "Title", "Category", "Department", "Priority", "Status", "Uploaded By", "Due Date", "Created"}

// ExportResult carries rendered bytes plus transport metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// ExportService renders document registers as CSV or PDF.
type ExportService struct {
	docs   documentStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(docs documentStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		docs:   docs,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Export renders the document register matching the query.
func (s *ExportService) Export(ctx context.Context, format string, query dto.DocumentListQuery) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	filter := models.DocumentFilter{
		Category:     models.Category(strings.ToUpper(strings.TrimSpace(query.Category))),
		DepartmentID: query.DepartmentID,
		UploadedBy:   query.UploadedBy,
		Page:         1,
		PageSize:     100,
	}
	if query.Status != "" {
		filter.Status = append(filter.Status, models.DocumentStatus(strings.ToLower(query.Status)))
	}

	docs, _, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents for export")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(docs))}
	for i := range docs {
		dataset.Rows = append(dataset.Rows, exportRow(&docs[i]))
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("documents-%s.csv", stamp),
			Data:        data,
		}, nil
	default:
		data, err := s.pdf.Render(dataset, "Document Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("documents-%s.pdf", stamp),
			Data:        data,
		}, nil
	}
}

func exportRow(doc *models.Document) map[string]string {
	row := map[string]string{
		"ID":          doc.ID,
		"Title":       doc.Title,
		"Priority":    string(doc.Priority),
		"Status":      string(doc.Status),
		"Uploaded By": doc.UploadedBy,
		"Created":     doc.CreatedAt.UTC().Format("2006-01-02"),
	}
	if doc.Category != nil {
		row["Category"] = string(*doc.Category)
	}
	if doc.DepartmentID != nil {
		row["Department"] = *doc.DepartmentID
	}
	if doc.DueDate != nil {
		row["Due Date"] = doc.DueDate.UTC().Format("2006-01-02")
	}
	return row
}
