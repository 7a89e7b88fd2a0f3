package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/response"
)

type workflowService interface {
	Apply(ctx context.Context, documentID string, req dto.WorkflowActionRequest, actor *models.JWTClaims) (*dto.WorkflowActionResponse, error)
	Overview(ctx context.Context) (*dto.WorkflowOverview, error)
}

type routeLister interface {
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentRoute, error)
}

// WorkflowHandler exposes workflow actions and the dashboard overview.
type WorkflowHandler struct {
	service workflowService
	routes  routeLister
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(service workflowService, routes routeLister) *WorkflowHandler {
	return &WorkflowHandler{service: service, routes: routes}
}

// Apply godoc
// @Summary Apply a workflow action to a document
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.WorkflowActionRequest true "Workflow action"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [post]
func (h *WorkflowHandler) Apply(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "workflow service not configured"))
		return
	}
	var req dto.WorkflowActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid workflow payload"))
		return
	}
	result, err := h.service.Apply(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Overview godoc
// @Summary Workflow dashboard with per-document progress and stats
// @Tags Workflows
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workflows [get]
func (h *WorkflowHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "workflow service not configured"))
		return
	}
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Routes godoc
// @Summary List routing history for a document
// @Tags Workflows
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/routes [get]
func (h *WorkflowHandler) Routes(c *gin.Context) {
	if h.routes == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "route store not configured"))
		return
	}
	routes, err := h.routes.ListByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, nil)
}
