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

type classifierService interface {
	ProcessText(ctx context.Context, title, text string) (*models.Classification, error)
	ClassifyText(ctx context.Context, title, text string) (*models.Classification, error)
	Summarize(ctx context.Context, text string, maxSentences int) (string, string, error)
	Chat(ctx context.Context, query string, contextDocs []string) (*dto.ChatResponse, error)
	Translate(ctx context.Context, text, fromLang, toLang string) (*dto.TranslateResponse, error)
}

type chatDocumentReader interface {
	Get(ctx context.Context, id string) (*models.Document, error)
}

// AIHandler exposes classification, summarization, chat and translation
// endpoints. Where a deterministic fallback exists, upstream model failures
// never surface here.
type AIHandler struct {
	service classifierService
	docs    chatDocumentReader
}

// NewAIHandler constructs the handler. The document reader feeds chat
// context and may be nil.
func NewAIHandler(service classifierService, docs chatDocumentReader) *AIHandler {
	return &AIHandler{service: service, docs: docs}
}

// ProcessDocument godoc
// @Summary Run full document classification
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.ProcessDocumentRequest true "Document content"
// @Success 200 {object} response.Envelope
// @Router /ai/process-document [post]
func (h *AIHandler) ProcessDocument(c *gin.Context) {
	var req dto.ProcessDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid process payload"))
		return
	}
	text := req.Text
	if req.Description != "" {
		text = req.Description + "\n" + text
	}
	result, err := h.service.ProcessText(c.Request.Context(), req.Title, text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ClassifyResponse{Result: result}, nil)
}

// Classify godoc
// @Summary Classify raw text
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.ClassifyRequest true "Text to classify"
// @Success 200 {object} response.Envelope
// @Router /ai/classify [post]
func (h *AIHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classify payload"))
		return
	}
	result, err := h.service.ClassifyText(c.Request.Context(), req.Title, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ClassifyResponse{Result: result}, nil)
}

// Summarize godoc
// @Summary Summarize document text
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.SummarizeRequest true "Text to summarize"
// @Success 200 {object} response.Envelope
// @Router /ai/summarize [post]
func (h *AIHandler) Summarize(c *gin.Context) {
	var req dto.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid summarize payload"))
		return
	}
	summary, modelUsed, err := h.service.Summarize(c.Request.Context(), req.Text, req.MaxSentences)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SummarizeResponse{Summary: summary, ModelUsed: modelUsed}, nil)
}

// Chat godoc
// @Summary Ask the document assistant a question
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Question and optional document scope"
// @Success 200 {object} response.Envelope
// @Router /ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid chat payload"))
		return
	}

	var contextDocs []string
	if h.docs != nil {
		for _, id := range req.DocumentIDs {
			doc, err := h.docs.Get(c.Request.Context(), id)
			if err != nil {
				continue
			}
			entry := doc.Title
			if doc.Description != nil && *doc.Description != "" {
				entry += "\n" + *doc.Description
			}
			contextDocs = append(contextDocs, entry)
		}
	}

	result, err := h.service.Chat(c.Request.Context(), req.Query, contextDocs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Translate godoc
// @Summary Translate document text between languages
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body dto.TranslateRequest true "Text and language pair"
// @Success 200 {object} response.Envelope
// @Router /ai/translate [post]
func (h *AIHandler) Translate(c *gin.Context) {
	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid translate payload"))
		return
	}
	result, err := h.service.Translate(c.Request.Context(), req.Text, req.FromLanguage, req.ToLanguage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
