package dto

import "github.com/transitdocs/dms-api/internal/models"

// ProcessDocumentRequest runs full classification over document content.
type ProcessDocumentRequest struct {
	DocumentID  string `json:"document_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
}

// ClassifyRequest runs category-only classification over raw text.
type ClassifyRequest struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// ClassifyResponse is the classification payload returned by the AI endpoints.
type ClassifyResponse struct {
	Result *models.Classification `json:"result"`
}

// ChatRequest asks the document assistant a question, optionally scoped to
// specific documents.
type ChatRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Response   string  `json:"response"`
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"model_used"`
}

// TranslateRequest asks for a translation between the two document languages.
type TranslateRequest struct {
	Text         string `json:"text"`
	FromLanguage string `json:"from_language"`
	ToLanguage   string `json:"to_language"`
}

// TranslateResponse carries the translation result.
type TranslateResponse struct {
	OriginalText   string  `json:"original_text"`
	TranslatedText string  `json:"translated_text"`
	FromLanguage   string  `json:"from_language"`
	ToLanguage     string  `json:"to_language"`
	Confidence     float64 `json:"confidence"`
	ModelUsed      string  `json:"model_used,omitempty"`
}

// SummarizeRequest asks for a short summary of document text.
type SummarizeRequest struct {
	Text         string `json:"text"`
	MaxSentences int    `json:"max_sentences,omitempty"`
}

// SummarizeResponse carries the generated summary.
type SummarizeResponse struct {
	Summary   string `json:"summary"`
	ModelUsed string `json:"model_used"`
}
