package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	"github.com/transitdocs/dms-api/internal/repository"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
)

type workflowStoreStub struct {
	applied  []repository.ActionParams
	applyErr error
	stats    dto.WorkflowStats
	recent   []models.Document
}

func (w *workflowStoreStub) ApplyAction(ctx context.Context, params repository.ActionParams) error {
	if w.applyErr != nil {
		return w.applyErr
	}
	w.applied = append(w.applied, params)
	return nil
}

func (w *workflowStoreStub) Stats(ctx context.Context) (*dto.WorkflowStats, error) {
	stats := w.stats
	return &stats, nil
}

func (w *workflowStoreStub) RecentDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	return w.recent, nil
}

type cacheStub struct {
	data    map[string][]byte
	sets    int
	deletes int
}

func newCacheStub() *cacheStub {
	return &cacheStub{data: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deletes++
	return nil
}

func workflowFixture(status models.DocumentStatus) (*documentStoreStub, *workflowStoreStub, *cacheStub, *WorkflowService) {
	store := newDocumentStoreStub()
	store.docs["doc-1"] = &models.Document{ID: "doc-1", Title: "Incident report", Status: status, Version: 2}
	workflow := &workflowStoreStub{}
	cache := newCacheStub()
	svc := NewWorkflowService(store, workflow, &routeReaderStub{}, cache, time.Minute, nil)
	return store, workflow, cache, svc
}

func TestWorkflowServiceApproveFromClassified(t *testing.T) {
	_, workflow, cache, svc := workflowFixture(models.StatusClassified)

	resp, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "approve"},
		&models.JWTClaims{UserID: "officer-1"})
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, resp.Document.Status)
	require.Equal(t, 3, resp.Document.Version)
	require.Equal(t, models.ActionApprove, resp.Route.Action)

	require.Len(t, workflow.applied, 1)
	params := workflow.applied[0]
	require.NotNil(t, params.StatusChange)
	require.Equal(t, models.StatusApproved, params.StatusChange.NewStatus)
	require.Equal(t, 2, params.StatusChange.ExpectedVersion)
	require.Equal(t, models.AuditActionWorkflowApprove, params.Audit.Action)
	require.Equal(t, "officer-1", *params.Audit.UserID)
	require.Equal(t, 1, cache.deletes)
}

func TestWorkflowServiceDeclineFromPending(t *testing.T) {
	_, workflow, _, svc := workflowFixture(models.StatusPending)

	resp, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "decline", UserID: "officer-1"}, nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, resp.Document.Status)
	require.Equal(t, models.AuditActionWorkflowDecline, workflow.applied[0].Audit.Action)
}

func TestWorkflowServiceApproveFromApprovedConflicts(t *testing.T) {
	_, workflow, _, svc := workflowFixture(models.StatusApproved)

	_, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "approve", UserID: "officer-1"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Equal(t, "cannot approve a document in status approved", appErr.Message)
	require.Empty(t, workflow.applied)
}

func TestWorkflowServiceInvalidAction(t *testing.T) {
	_, workflow, _, svc := workflowFixture(models.StatusPending)

	_, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "archive", UserID: "officer-1"}, nil)
	require.Error(t, err)
	require.Equal(t, "action must be approve, decline, review, or comment", appErrors.FromError(err).Message)
	require.Empty(t, workflow.applied)
}

func TestWorkflowServiceActorRequired(t *testing.T) {
	_, workflow, _, svc := workflowFixture(models.StatusPending)

	_, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "approve"}, nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, workflow.applied)
}

func TestWorkflowServiceCommentKeepsStatus(t *testing.T) {
	comment := "needs a second look"
	_, workflow, cache, svc := workflowFixture(models.StatusProcessing)

	resp, err := svc.Apply(context.Background(), "doc-1",
		dto.WorkflowActionRequest{Action: "comment", Comments: &comment, UserID: "officer-1"}, nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, resp.Document.Status)
	require.Equal(t, 2, resp.Document.Version)

	require.Len(t, workflow.applied, 1)
	require.Nil(t, workflow.applied[0].StatusChange)
	require.Equal(t, models.AuditActionWorkflowComment, workflow.applied[0].Audit.Action)
	require.Zero(t, cache.deletes)
}

func TestWorkflowServiceReviewAllowedFromAnyStatus(t *testing.T) {
	_, workflow, _, svc := workflowFixture(models.StatusRejected)

	resp, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "review", UserID: "officer-1"}, nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, resp.Document.Status)
	require.Len(t, workflow.applied, 1)
	require.Nil(t, workflow.applied[0].StatusChange)
}

func TestWorkflowServiceUnknownDocument(t *testing.T) {
	_, _, _, svc := workflowFixture(models.StatusPending)

	_, err := svc.Apply(context.Background(), "missing", dto.WorkflowActionRequest{Action: "approve", UserID: "officer-1"}, nil)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestWorkflowServiceVersionConflict(t *testing.T) {
	_, workflow, _, svc := workflowFixture(models.StatusClassified)
	workflow.applyErr = sql.ErrNoRows

	_, err := svc.Apply(context.Background(), "doc-1", dto.WorkflowActionRequest{Action: "approve", UserID: "officer-1"}, nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceOverview(t *testing.T) {
	store := newDocumentStoreStub()
	due := time.Now().UTC().Add(-24 * time.Hour)
	workflow := &workflowStoreStub{
		stats: dto.WorkflowStats{Total: 2, Active: 1, Pending: 1},
		recent: []models.Document{
			{ID: "doc-1", Status: models.StatusClassified, DueDate: &due},
			{ID: "doc-2", Status: models.StatusPending},
		},
	}
	routes := &routeReaderStub{routes: map[string][]models.DocumentRoute{
		"doc-1": {{DocumentID: "doc-1", Action: models.ActionReview, Status: models.RouteStatusCompleted, ActorID: "officer-1"}},
	}}
	cache := newCacheStub()
	svc := NewWorkflowService(store, workflow, routes, cache, time.Minute, nil)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, overview.Stats.Total)
	require.Len(t, overview.Items, 2)

	require.Equal(t, 70, overview.Items[0].Progress)
	require.True(t, overview.Items[0].Overdue)
	require.Len(t, overview.Items[0].Steps, 1)
	require.Equal(t, models.ActionReview, overview.Items[0].Steps[0].Action)

	require.Equal(t, 10, overview.Items[1].Progress)
	require.False(t, overview.Items[1].Overdue)
	require.Equal(t, 1, cache.sets)
}
