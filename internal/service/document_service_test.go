package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	"github.com/transitdocs/dms-api/internal/repository"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/jobs"
)

type documentStoreStub struct {
	docs           map[string]*models.Document
	created        []*models.Document
	createdAudit   []*models.AuditLog
	statusAudit    []*models.AuditLog
	updates        []repository.ClassificationUpdate
	analyses       []*models.DocumentAnalysis
	persistedAudit []*models.AuditLog
	createErr      error
	persistErr     error
	statusErr      error
	filter         models.DocumentFilter
}

func newDocumentStoreStub() *documentStoreStub {
	return &documentStoreStub{docs: make(map[string]*models.Document)}
}

func (s *documentStoreStub) Create(ctx context.Context, doc *models.Document, audit *models.AuditLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, doc)
	s.createdAudit = append(s.createdAudit, audit)
	s.docs[doc.ID] = doc
	return nil
}

func (s *documentStoreStub) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := s.docs[id]; ok {
		copy := *doc
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *documentStoreStub) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	s.filter = filter
	result := make([]models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		result = append(result, *doc)
	}
	return result, len(result), nil
}

func (s *documentStoreStub) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, version int, audit *models.AuditLog) error {
	if s.statusErr != nil {
		return s.statusErr
	}
	doc, ok := s.docs[id]
	if !ok || doc.Version != version {
		return sql.ErrNoRows
	}
	doc.Status = status
	doc.Version++
	s.statusAudit = append(s.statusAudit, audit)
	return nil
}

func (s *documentStoreStub) PersistClassification(ctx context.Context, update repository.ClassificationUpdate, analysis *models.DocumentAnalysis, audit *models.AuditLog) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.updates = append(s.updates, update)
	s.analyses = append(s.analyses, analysis)
	s.persistedAudit = append(s.persistedAudit, audit)
	if doc, ok := s.docs[update.DocumentID]; ok {
		doc.Status = models.StatusClassified
		doc.Version++
	}
	return nil
}

func (s *documentStoreStub) LatestAnalysis(ctx context.Context, documentID string) (*models.DocumentAnalysis, error) {
	for i := len(s.analyses) - 1; i >= 0; i-- {
		if s.analyses[i] != nil && s.analyses[i].DocumentID == documentID {
			return s.analyses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type auditWriterStub struct {
	entries []*models.AuditLog
	err     error
}

func (a *auditWriterStub) Create(ctx context.Context, entry *models.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

type routeReaderStub struct {
	routes map[string][]models.DocumentRoute
}

func (r *routeReaderStub) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentRoute, error) {
	return r.routes[documentID], nil
}

func (r *routeReaderStub) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]models.DocumentRoute, error) {
	return r.routes, nil
}

type departmentStub struct {
	departments map[string]*models.Department
}

func (d *departmentStub) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	if dep, ok := d.departments[code]; ok {
		return dep, nil
	}
	return nil, sql.ErrNoRows
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type classifierStub struct {
	result *models.Classification
	err    error
	calls  int
}

func (c *classifierStub) ProcessText(ctx context.Context, title, text string) (*models.Classification, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func validCreateRequest() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		Title:      "Depot inspection",
		FilePath:   "/uploads/depot.pdf",
		FileName:   "depot.pdf",
		SourceType: "upload",
		UploadedBy: "user-1",
	}
}

func TestDocumentServiceCreateMissingField(t *testing.T) {
	store := newDocumentStoreStub()
	svc := NewDocumentService(store, &routeReaderStub{}, nil, nil, nil, nil)

	req := validCreateRequest()
	req.UploadedBy = ""
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, "Missing required field: uploaded_by", appErrors.FromError(err).Message)
	require.Empty(t, store.created)
	require.Empty(t, store.createdAudit)
}

func TestDocumentServiceCreateValidatesFieldsInOrder(t *testing.T) {
	svc := NewDocumentService(newDocumentStoreStub(), &routeReaderStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateDocumentRequest{})
	require.Error(t, err)
	require.Equal(t, "Missing required field: title", appErrors.FromError(err).Message)
}

func TestDocumentServiceCreateEnqueuesClassification(t *testing.T) {
	store := newDocumentStoreStub()
	queue := &queueStub{}
	svc := NewDocumentService(store, &routeReaderStub{}, nil, nil, queue, nil)

	req := validCreateRequest()
	req.ContentText = "safety walkthrough notes"
	doc, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, doc.Status)
	require.Equal(t, models.PriorityMedium, doc.Priority)

	require.Len(t, store.createdAudit, 1)
	require.Equal(t, models.AuditActionDocumentCreated, store.createdAudit[0].Action)
	require.Equal(t, doc.ID, *store.createdAudit[0].DocumentID)

	require.Len(t, queue.jobs, 1)
	require.Equal(t, JobTypeClassify, queue.jobs[0].Type)
	payload, ok := queue.jobs[0].Payload.(ClassifyPayload)
	require.True(t, ok)
	require.Equal(t, doc.ID, payload.DocumentID)
	require.Equal(t, "safety walkthrough notes", payload.ContentText)
}

func TestDocumentServiceCreatePropagatesStoreError(t *testing.T) {
	store := newDocumentStoreStub()
	store.createErr = sql.ErrConnDone
	svc := NewDocumentService(store, &routeReaderStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)
	require.Empty(t, store.created)
}

func TestDocumentServiceClassifyDocumentPersists(t *testing.T) {
	store := newDocumentStoreStub()
	store.docs["doc-1"] = &models.Document{ID: "doc-1", Title: "Safety incident", Status: models.StatusPending, Version: 1}
	departments := &departmentStub{departments: map[string]*models.Department{
		"safety": {ID: "dep-safety", Code: "safety"},
	}}
	classifier := &classifierStub{result: &models.Classification{
		Category:     models.CategorySafetyRpt,
		Confidence:   0.75,
		Reasoning:    FallbackReasoning,
		Priority:     models.PriorityUrgent,
		Department:   "safety",
		IsActionable: true,
		DeadlineDays: 1,
		Sentiment:    models.SentimentNeutral,
		UrgencyScore: 1.0,
		ModelUsed:    models.AnalysisTypeFallback,
	}}
	svc := NewDocumentService(store, &routeReaderStub{}, departments, classifier, nil, nil)

	err := svc.ClassifyDocument(context.Background(), "doc-1", "hazard at depot")
	require.NoError(t, err)
	require.Equal(t, 1, classifier.calls)

	require.Len(t, store.updates, 1)
	update := store.updates[0]
	require.Equal(t, "doc-1", update.DocumentID)
	require.Equal(t, 1, update.ExpectedVersion)
	require.Equal(t, models.CategorySafetyRpt, update.Category)
	require.NotNil(t, update.DepartmentID)
	require.Equal(t, "dep-safety", *update.DepartmentID)

	require.Len(t, store.analyses, 1)
	require.Equal(t, models.AnalysisTypeFallback, store.analyses[0].AnalysisType)
	require.Equal(t, 1.0, store.analyses[0].UrgencyScore)

	require.Len(t, store.persistedAudit, 1)
	require.Equal(t, models.AuditActionDocumentClassified, store.persistedAudit[0].Action)
}

func TestDocumentServiceClassifySkipsProgressedDocument(t *testing.T) {
	store := newDocumentStoreStub()
	store.docs["doc-1"] = &models.Document{ID: "doc-1", Status: models.StatusApproved, Version: 3}
	classifier := &classifierStub{}
	svc := NewDocumentService(store, &routeReaderStub{}, nil, classifier, nil, nil)

	err := svc.ClassifyDocument(context.Background(), "doc-1", "")
	require.NoError(t, err)
	require.Zero(t, classifier.calls)
	require.Empty(t, store.updates)
}

func TestDocumentServiceClassifyToleratesVersionRace(t *testing.T) {
	store := newDocumentStoreStub()
	store.docs["doc-1"] = &models.Document{ID: "doc-1", Status: models.StatusPending, Version: 1}
	store.persistErr = sql.ErrNoRows
	classifier := &classifierStub{result: &models.Classification{
		Category:  models.CategoryCorresp,
		Priority:  models.PriorityMedium,
		ModelUsed: models.AnalysisTypeFallback,
	}}
	svc := NewDocumentService(store, &routeReaderStub{}, nil, classifier, nil, nil)

	require.NoError(t, svc.ClassifyDocument(context.Background(), "doc-1", ""))
}

func TestDocumentServiceGetNotFound(t *testing.T) {
	svc := NewDocumentService(newDocumentStoreStub(), &routeReaderStub{}, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDocumentServiceUpdateStatusConflict(t *testing.T) {
	store := newDocumentStoreStub()
	store.docs["doc-1"] = &models.Document{ID: "doc-1", Status: models.StatusPending, Version: 1}
	store.statusErr = sql.ErrNoRows
	svc := NewDocumentService(store, &routeReaderStub{}, nil, nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "doc-1", "approved", "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceUpdateStatusAudited(t *testing.T) {
	store := newDocumentStoreStub()
	store.docs["doc-1"] = &models.Document{ID: "doc-1", Status: models.StatusClassified, Version: 2}
	svc := NewDocumentService(store, &routeReaderStub{}, nil, nil, nil, nil)

	doc, err := svc.UpdateStatus(context.Background(), "doc-1", "approved", "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, doc.Status)
	require.Equal(t, 3, doc.Version)
	require.Len(t, store.statusAudit, 1)
	require.Equal(t, models.AuditActionStatusUpdated, store.statusAudit[0].Action)

	_, err = svc.UpdateStatus(context.Background(), "doc-1", "archived", "admin-1")
	require.Error(t, err)
}

func TestDocumentServiceListParsesStatuses(t *testing.T) {
	store := newDocumentStoreStub()
	svc := NewDocumentService(store, &routeReaderStub{}, nil, nil, nil, nil)

	_, pagination, err := svc.List(context.Background(), dto.DocumentListQuery{Status: "pending, classified", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, []models.DocumentStatus{models.StatusPending, models.StatusClassified}, store.filter.Status)
	require.Equal(t, 2, pagination.Page)
	require.Equal(t, 10, pagination.PageSize)
}
