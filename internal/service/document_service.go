package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	"github.com/transitdocs/dms-api/internal/repository"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/jobs"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document, audit *models.AuditLog) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, version int, audit *models.AuditLog) error
	PersistClassification(ctx context.Context, update repository.ClassificationUpdate, analysis *models.DocumentAnalysis, audit *models.AuditLog) error
	LatestAnalysis(ctx context.Context, documentID string) (*models.DocumentAnalysis, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type routeReader interface {
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentRoute, error)
}

type departmentResolver interface {
	FindByCode(ctx context.Context, code string) (*models.Department, error)
}

type classificationQueue interface {
	Enqueue(job jobs.Job) error
}

type textClassifier interface {
	ProcessText(ctx context.Context, title, text string) (*models.Classification, error)
}

// JobTypeClassify names the asynchronous classification job.
const JobTypeClassify = "classify_document"

// ClassifyPayload is carried by classification jobs.
type ClassifyPayload struct {
	DocumentID  string
	ContentText string
}

// DocumentService handles document intake and lifecycle reads. Every state
// change hands its audit entry to the store so both commit together.
type DocumentService struct {
	docs        documentStore
	routes      routeReader
	departments departmentResolver
	classifier  textClassifier
	queue       classificationQueue
	logger      *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(docs documentStore, routes routeReader, departments departmentResolver, classifier textClassifier, queue classificationQueue, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		docs:        docs,
		routes:      routes,
		departments: departments,
		classifier:  classifier,
		queue:       queue,
		logger:      logger,
	}
}

// Create registers a new document and queues it for classification.
func (s *DocumentService) Create(ctx context.Context, req dto.CreateDocumentRequest) (*models.Document, error) {
	if err := validateRequired(req); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		AltTitle:       req.AltTitle,
		Description:    req.Description,
		AltDescription: req.AltDescription,
		FilePath:       req.FilePath,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		MimeType:       req.MimeType,
		SourceType:     models.SourceType(strings.ToLower(strings.TrimSpace(req.SourceType))),
		DepartmentID:   req.DepartmentID,
		Priority:       models.PriorityMedium,
		Status:         models.StatusPending,
		UploadedBy:     req.UploadedBy,
	}

	audit := &models.AuditLog{
		UserID:     &doc.UploadedBy,
		DocumentID: &doc.ID,
		Action:     models.AuditActionDocumentCreated,
		Details:    mustDetails(map[string]interface{}{"title": doc.Title, "source_type": doc.SourceType}),
	}
	if err := s.docs.Create(ctx, doc, audit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}

	if s.queue != nil {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    JobTypeClassify,
			Payload: ClassifyPayload{DocumentID: doc.ID, ContentText: req.ContentText},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue classification job",
				zap.String("document_id", doc.ID), zap.Error(err))
		}
	}

	return doc, nil
}

// ClassifyDocument is the classification job handler: it runs the classifier
// over the document text and persists the result atomically.
func (s *DocumentService) ClassifyDocument(ctx context.Context, documentID, contentText string) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("classification target vanished", zap.String("document_id", documentID))
			return nil
		}
		return fmt.Errorf("load document for classification: %w", err)
	}
	if doc.Status != models.StatusPending && doc.Status != models.StatusProcessing {
		s.logger.Info("skipping classification, document already progressed",
			zap.String("document_id", documentID), zap.String("status", string(doc.Status)))
		return nil
	}

	text := contentText
	if doc.Description != nil && *doc.Description != "" {
		text = *doc.Description + "\n" + text
	}

	result, err := s.classifier.ProcessText(ctx, doc.Title, text)
	if err != nil {
		return fmt.Errorf("classify document %s: %w", documentID, err)
	}

	var departmentID *string
	if s.departments != nil && result.Department != "" {
		department, err := s.departments.FindByCode(ctx, result.Department)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("resolve department %s: %w", result.Department, err)
			}
			s.logger.Warn("classified department has no lookup row", zap.String("code", result.Department))
		} else {
			departmentID = &department.ID
		}
	}

	now := time.Now().UTC()
	update := repository.ClassificationUpdate{
		DocumentID:      doc.ID,
		ExpectedVersion: doc.Version,
		Category:        result.Category,
		DepartmentID:    departmentID,
		Priority:        result.Priority,
		Summary:         optionalText(result.Summary),
		Keywords:        models.StringList(result.Keywords),
		Confidence:      result.Confidence,
		DueDate:         result.DueDate,
		ProcessedAt:     now,
	}
	analysis := &models.DocumentAnalysis{
		DocumentID:   doc.ID,
		AnalysisType: analysisType(result.ModelUsed),
		Category:     result.Category,
		Confidence:   result.Confidence,
		Reasoning:    optionalText(result.Reasoning),
		Summary:      optionalText(result.Summary),
		Keywords:     models.StringList(result.Keywords),
		Sentiment:    result.Sentiment,
		UrgencyScore: result.UrgencyScore,
		Priority:     result.Priority,
		Department:   result.Department,
		Actionable:   result.IsActionable,
		DeadlineDays: result.DeadlineDays,
		ModelUsed:    result.ModelUsed,
	}
	audit := &models.AuditLog{
		DocumentID: &doc.ID,
		Action:     models.AuditActionDocumentClassified,
		Details: mustDetails(map[string]interface{}{
			"category":   result.Category,
			"priority":   result.Priority,
			"department": result.Department,
			"confidence": result.Confidence,
			"model_used": result.ModelUsed,
			"old_status": doc.Status,
			"new_status": models.StatusClassified,
		}),
		UserAgent: "classification-worker",
	}

	if err := s.docs.PersistClassification(ctx, update, analysis, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("classification lost version race, leaving document as-is",
				zap.String("document_id", doc.ID))
			return nil
		}
		return fmt.Errorf("persist classification for %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns a single document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// GetDetail returns a document with its routing history and latest analysis.
func (s *DocumentService) GetDetail(ctx context.Context, id string) (*dto.DocumentDetail, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &dto.DocumentDetail{Document: doc}

	if routes, err := s.routes.ListByDocument(ctx, id); err != nil {
		s.logger.Warn("failed to load document routes", zap.String("document_id", id), zap.Error(err))
	} else {
		detail.Routes = routes
	}

	analysis, err := s.docs.LatestAnalysis(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load document analysis", zap.String("document_id", id), zap.Error(err))
		}
	} else {
		detail.Analysis = analysis
	}

	return detail, nil
}

// GetAnalysis returns the latest classification analysis for a document.
func (s *DocumentService) GetAnalysis(ctx context.Context, id string) (*models.DocumentAnalysis, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	analysis, err := s.docs.LatestAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document has not been analysed yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document analysis")
	}
	return analysis, nil
}

// List returns documents matching the query with pagination metadata.
func (s *DocumentService) List(ctx context.Context, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error) {
	filter := models.DocumentFilter{
		Category:     models.Category(strings.ToUpper(strings.TrimSpace(query.Category))),
		DepartmentID: query.DepartmentID,
		UploadedBy:   query.UploadedBy,
		Priority:     models.DocumentPriority(strings.ToLower(strings.TrimSpace(query.Priority))),
		Search:       query.Search,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if query.Status != "" {
		for _, raw := range strings.Split(query.Status, ",") {
			status := models.DocumentStatus(strings.ToLower(strings.TrimSpace(raw)))
			if status != "" {
				filter.Status = append(filter.Status, status)
			}
		}
	}

	docs, total, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return docs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// UpdateStatus applies a direct status change, bypassing the workflow actions.
func (s *DocumentService) UpdateStatus(ctx context.Context, id, status string, actorID string) (*models.Document, error) {
	newStatus, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := doc.Status

	audit := &models.AuditLog{
		UserID:     optionalText(actorID),
		DocumentID: &doc.ID,
		Action:     models.AuditActionStatusUpdated,
		Details:    mustDetails(map[string]interface{}{"old_status": oldStatus, "new_status": newStatus}),
	}
	if err := s.docs.UpdateStatus(ctx, doc.ID, newStatus, doc.Version, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document changed concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document status")
	}
	doc.Status = newStatus
	doc.Version++

	return doc, nil
}

func validateRequired(req dto.CreateDocumentRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"title", req.Title},
		{"file_path", req.FilePath},
		{"file_name", req.FileName},
		{"source_type", req.SourceType},
		{"uploaded_by", req.UploadedBy},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "Missing required field: "+field.name)
		}
	}
	return nil
}

func parseStatus(raw string) (models.DocumentStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "status is required")
	}
	status := models.DocumentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case models.StatusPending, models.StatusProcessing, models.StatusClassified,
		models.StatusApproved, models.StatusRejected:
		return status, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "unknown document status")
}

func analysisType(modelUsed string) string {
	if modelUsed == models.AnalysisTypeFallback {
		return models.AnalysisTypeFallback
	}
	return models.AnalysisTypeRemote
}

func optionalText(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func mustDetails(payload map[string]interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return []byte("{}")
	}
	return data
}
