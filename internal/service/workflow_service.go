package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	"github.com/transitdocs/dms-api/internal/repository"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
)

type workflowStore interface {
	ApplyAction(ctx context.Context, params repository.ActionParams) error
	Stats(ctx context.Context) (*dto.WorkflowStats, error)
	RecentDocuments(ctx context.Context, limit int) ([]models.Document, error)
}

type routeBatchReader interface {
	ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]models.DocumentRoute, error)
}

type overviewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const (
	workflowOverviewKey     = "workflow:overview"
	workflowOverviewPattern = "workflow:*"
)

// WorkflowService applies workflow actions and serves the dashboard overview.
type WorkflowService struct {
	docs     documentStore
	workflow workflowStore
	routes   routeBatchReader
	cache    overviewCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkflowService constructs the service. Cache is optional.
func NewWorkflowService(docs documentStore, workflow workflowStore, routes routeBatchReader, cache overviewCache, cacheTTL time.Duration, logger *zap.Logger) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &WorkflowService{
		docs:     docs,
		workflow: workflow,
		routes:   routes,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Apply records one workflow action against a document. Route, status change
// and audit entry commit in a single transaction.
func (s *WorkflowService) Apply(ctx context.Context, documentID string, req dto.WorkflowActionRequest, actor *models.JWTClaims) (*dto.WorkflowActionResponse, error) {
	actorID := req.UserID
	if actor != nil {
		actorID = actor.UserID
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "actor is required")
	}

	action := models.RouteAction(strings.ToLower(strings.TrimSpace(req.Action)))
	switch action {
	case models.ActionApprove, models.ActionDecline, models.ActionReview, models.ActionComment:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be approve, decline, review, or comment")
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	oldStatus := doc.Status
	newStatus, changed, err := nextStatus(oldStatus, action)
	if err != nil {
		return nil, err
	}

	route := &models.DocumentRoute{
		DocumentID:  doc.ID,
		Action:      action,
		Status:      models.RouteStatusCompleted,
		ActorID:     actorID,
		Comments:    req.Comments,
		AltComments: req.AltComments,
	}

	params := repository.ActionParams{
		Route: route,
		Audit: &models.AuditLog{
			UserID:     &actorID,
			DocumentID: &doc.ID,
			Action:     auditActionFor(action),
			Details: mustDetails(map[string]interface{}{
				"action":     action,
				"comments":   req.Comments,
				"old_status": oldStatus,
				"new_status": newStatus,
			}),
		},
	}
	if changed {
		params.StatusChange = &repository.StatusChange{
			DocumentID:      doc.ID,
			NewStatus:       newStatus,
			ExpectedVersion: doc.Version,
		}
	}

	if err := s.workflow.ApplyAction(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document changed concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply workflow action")
	}

	if changed {
		doc.Status = newStatus
		doc.Version++
		s.invalidateOverview(ctx)
	}

	return &dto.WorkflowActionResponse{Document: doc, Route: route}, nil
}

// Overview serves the workflow dashboard, cached for a short TTL.
func (s *WorkflowService) Overview(ctx context.Context) (*dto.WorkflowOverview, error) {
	if s.cache != nil {
		var cached dto.WorkflowOverview
		if err := s.cache.Get(ctx, workflowOverviewKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("workflow overview cache read failed", zap.Error(err))
		}
	}

	stats, err := s.workflow.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow stats")
	}

	docs, err := s.workflow.RecentDocuments(ctx, 50)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow documents")
	}

	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	routesByDoc, err := s.routes.ListByDocuments(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow routes")
	}

	now := s.now().UTC()
	overview := &dto.WorkflowOverview{
		Items: make([]dto.WorkflowItem, 0, len(docs)),
		Stats: *stats,
	}
	for i := range docs {
		doc := docs[i]
		item := dto.WorkflowItem{
			Document: &doc,
			Progress: statusProgress(doc.Status),
			Overdue:  isOverdue(&doc, now),
			Steps:    make([]dto.WorkflowStep, 0, len(routesByDoc[doc.ID])),
		}
		for _, route := range routesByDoc[doc.ID] {
			item.Steps = append(item.Steps, dto.WorkflowStep{
				Action:    route.Action,
				Status:    route.Status,
				ActorID:   route.ActorID,
				Comments:  route.Comments,
				CreatedAt: route.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		overview.Items = append(overview.Items, item)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, workflowOverviewKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("workflow overview cache write failed", zap.Error(err))
		}
	}
	return overview, nil
}

func (s *WorkflowService) invalidateOverview(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, workflowOverviewPattern); err != nil {
		s.logger.Warn("workflow cache invalidation failed", zap.Error(err))
	}
}

// nextStatus resolves the transition table. review and comment never change
// status; approve and decline are only legal from pending or classified.
func nextStatus(current models.DocumentStatus, action models.RouteAction) (models.DocumentStatus, bool, error) {
	switch action {
	case models.ActionReview, models.ActionComment:
		return current, false, nil
	case models.ActionApprove, models.ActionDecline:
		if current != models.StatusPending && current != models.StatusClassified {
			return current, false, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("cannot %s a document in status %s", action, current))
		}
		if action == models.ActionApprove {
			return models.StatusApproved, true, nil
		}
		return models.StatusRejected, true, nil
	}
	return current, false, appErrors.Clone(appErrors.ErrValidation, "action must be approve, decline, review, or comment")
}

func auditActionFor(action models.RouteAction) string {
	switch action {
	case models.ActionApprove:
		return models.AuditActionWorkflowApprove
	case models.ActionDecline:
		return models.AuditActionWorkflowDecline
	case models.ActionReview:
		return models.AuditActionWorkflowReview
	default:
		return models.AuditActionWorkflowComment
	}
}

func statusProgress(status models.DocumentStatus) int {
	switch status {
	case models.StatusPending:
		return 10
	case models.StatusProcessing:
		return 40
	case models.StatusClassified:
		return 70
	case models.StatusApproved, models.StatusRejected:
		return 100
	default:
		return 0
	}
}

func isOverdue(doc *models.Document, now time.Time) bool {
	if doc.DueDate == nil {
		return false
	}
	if doc.Status == models.StatusApproved || doc.Status == models.StatusRejected {
		return false
	}
	return doc.DueDate.Before(now)
}
