package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
	"github.com/transitdocs/dms-api/pkg/response"
)

type documentService interface {
	Create(ctx context.Context, req dto.CreateDocumentRequest) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	GetDetail(ctx context.Context, id string) (*dto.DocumentDetail, error)
	GetAnalysis(ctx context.Context, id string) (*models.DocumentAnalysis, error)
	List(ctx context.Context, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id, status, actorID string) (*models.Document, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
}

// UploadPolicy limits accepted upload payloads.
type UploadPolicy struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentHandler exposes REST endpoints for document intake and reads.
type DocumentHandler struct {
	service documentService
	storage fileStore
	policy  UploadPolicy
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService, storage fileStore, policy UploadPolicy) *DocumentHandler {
	if policy.MaxFileSizeBytes <= 0 {
		policy.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	return &DocumentHandler{service: service, storage: storage, policy: policy}
}

// Create godoc
// @Summary Register a new document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.CreateDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid document payload"))
		return
	}
	if req.UploadedBy == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.UploadedBy = claims.UserID
		}
	}
	doc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Upload godoc
// @Summary Upload a document file and register it
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param title formData string true "Document title"
// @Success 201 {object} response.Envelope
// @Router /documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.storage == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "file storage not configured"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.policy.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.policy.MaxFileSizeBytes)))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !h.mimeAllowed(mimeType) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported file type: "+mimeType))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, h.policy.MaxFileSizeBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	if int64(len(data)) > h.policy.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.policy.MaxFileSizeBytes)))
		return
	}

	storedName := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	storedPath, err := h.storage.Save(storedName, data)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	uploadedBy := c.PostForm("uploaded_by")
	if uploadedBy == "" {
		if claims := claimsFromContext(c); claims != nil {
			uploadedBy = claims.UserID
		}
	}

	size := fileHeader.Size
	req := dto.CreateDocumentRequest{
		Title:       c.PostForm("title"),
		FilePath:    storedPath,
		FileName:    fileHeader.Filename,
		FileSize:    &size,
		MimeType:    &mimeType,
		SourceType:  defaultString(c.PostForm("source_type"), string(models.SourceUpload)),
		UploadedBy:  uploadedBy,
		Description: optionalForm(c, "description"),
	}
	if alt := optionalForm(c, "alt_title"); alt != nil {
		req.AltTitle = alt
	}
	if alt := optionalForm(c, "alt_description"); alt != nil {
		req.AltDescription = alt
	}
	if strings.HasPrefix(mimeType, "text/") {
		req.ContentText = string(data)
	}

	doc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param category query string false "Category code"
// @Param department_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var query dto.DocumentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid list query"))
		return
	}
	docs, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Get godoc
// @Summary Get document detail
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	detail, err := h.service.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Analysis godoc
// @Summary Get the latest classification analysis for a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/analysis [get]
func (h *DocumentHandler) Analysis(c *gin.Context) {
	analysis, err := h.service.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}

// UpdateStatus godoc
// @Summary Update document status directly
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.UpdateStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [patch]
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	doc, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

func (h *DocumentHandler) mimeAllowed(mimeType string) bool {
	if len(h.policy.AllowedMIMEs) == 0 {
		return true
	}
	base := mimeType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(strings.ToLower(base))
	for _, allowed := range h.policy.AllowedMIMEs {
		if base == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func optionalForm(c *gin.Context, field string) *string {
	value := strings.TrimSpace(c.PostForm(field))
	if value == "" {
		return nil
	}
	return &value
}
