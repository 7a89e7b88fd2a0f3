package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/response"
)

type auditReader interface {
	ListByDocument(ctx context.Context, documentID string) ([]models.AuditLog, error)
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditHandler exposes read access to the audit trail.
type AuditHandler struct {
	audit auditReader
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ByDocument godoc
// @Summary Audit trail for a document
// @Tags Audit
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/audit [get]
func (h *AuditHandler) ByDocument(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "audit store not configured"))
		return
	}
	entries, err := h.audit.ListByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param user_id query string false "Filter by user"
// @Param document_id query string false "Filter by document"
// @Param action query string false "Filter by action"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "audit store not configured"))
		return
	}
	filter := models.AuditFilter{
		UserID:     c.Query("user_id"),
		DocumentID: c.Query("document_id"),
		Action:     c.Query("action"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	entries, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	response.JSON(c, http.StatusOK, entries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}
