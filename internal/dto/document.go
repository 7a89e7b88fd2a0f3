package dto

import "github.com/transitdocs/dms-api/internal/models"

// CreateDocumentRequest is the payload for registering a new document.
type CreateDocumentRequest struct {
	Title          string  `json:"title"`
	AltTitle       *string `json:"alt_title,omitempty"`
	Description    *string `json:"description,omitempty"`
	AltDescription *string `json:"alt_description,omitempty"`
	FilePath       string  `json:"file_path"`
	FileName       string  `json:"file_name"`
	FileSize       *int64  `json:"file_size,omitempty"`
	MimeType       *string `json:"mime_type,omitempty"`
	SourceType     string  `json:"source_type"`
	UploadedBy     string  `json:"uploaded_by"`
	DepartmentID   *string `json:"department_id,omitempty"`
	ContentText    string  `json:"content_text,omitempty"`
}

// UpdateStatusRequest changes a document status directly.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// DocumentListQuery captures list filters from query parameters.
type DocumentListQuery struct {
	Status       string `form:"status"`
	Category     string `form:"category"`
	DepartmentID string `form:"department_id"`
	UploadedBy   string `form:"uploaded_by"`
	Priority     string `form:"priority"`
	Search       string `form:"search"`
	Page         int    `form:"page,default=1"`
	PageSize     int    `form:"page_size,default=20"`
}

// DocumentDetail bundles a document with its routes and latest analysis.
type DocumentDetail struct {
	Document *models.Document         `json:"document"`
	Routes   []models.DocumentRoute   `json:"routes,omitempty"`
	Analysis *models.DocumentAnalysis `json:"analysis,omitempty"`
}
