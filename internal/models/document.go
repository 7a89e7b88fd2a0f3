package models

import "time"

// Category enumerates the document classification codes.
type Category string

const (
	CategoryPolicy     Category = "POLICY"
	CategorySafetyRpt  Category = "SAFETY_RPT"
	CategoryTechSpec   Category = "TECH_SPEC"
	CategoryFinRpt     Category = "FIN_RPT"
	CategoryCompliance Category = "COMPLIANCE"
	CategoryEmpRec     Category = "EMP_REC"
	CategoryMaintLog   Category = "MAINT_LOG"
	CategoryCorresp    Category = "CORRESP"
)

// DocumentStatus captures the lifecycle states of a document.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusClassified DocumentStatus = "classified"
	StatusApproved   DocumentStatus = "approved"
	StatusRejected   DocumentStatus = "rejected"
)

// DocumentPriority orders handling urgency.
type DocumentPriority string

const (
	PriorityLow    DocumentPriority = "low"
	PriorityMedium DocumentPriority = "medium"
	PriorityHigh   DocumentPriority = "high"
	PriorityUrgent DocumentPriority = "urgent"
)

// SourceType records how a document entered the system.
type SourceType string

const (
	SourceUpload        SourceType = "upload"
	SourceEmail         SourceType = "email"
	SourceSharedDrive   SourceType = "shared_drive"
	SourceMobileCapture SourceType = "mobile_capture"
)

// Document represents a managed document stored in the documents table.
type Document struct {
	ID             string            `db:"id" json:"id"`
	Title          string            `db:"title" json:"title"`
	AltTitle       *string           `db:"alt_title" json:"alt_title,omitempty"`
	Description    *string           `db:"description" json:"description,omitempty"`
	AltDescription *string           `db:"alt_description" json:"alt_description,omitempty"`
	FilePath       string            `db:"file_path" json:"file_path"`
	FileName       string            `db:"file_name" json:"file_name"`
	FileSize       *int64            `db:"file_size" json:"file_size,omitempty"`
	MimeType       *string           `db:"mime_type" json:"mime_type,omitempty"`
	SourceType     SourceType        `db:"source_type" json:"source_type"`
	Category       *Category         `db:"category" json:"category,omitempty"`
	DepartmentID   *string           `db:"department_id" json:"department_id,omitempty"`
	Priority       DocumentPriority  `db:"priority" json:"priority"`
	Status         DocumentStatus    `db:"status" json:"status"`
	UploadedBy     string            `db:"uploaded_by" json:"uploaded_by"`
	Summary        *string           `db:"summary" json:"summary,omitempty"`
	AltSummary     *string           `db:"alt_summary" json:"alt_summary,omitempty"`
	Keywords       StringList        `db:"keywords" json:"keywords,omitempty"`
	AltKeywords    StringList        `db:"alt_keywords" json:"alt_keywords,omitempty"`
	Confidence     *float64          `db:"confidence" json:"confidence,omitempty"`
	DueDate        *time.Time        `db:"due_date" json:"due_date,omitempty"`
	Version        int               `db:"version" json:"version"`
	ProcessedAt    *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// DocumentFilter constrains listing queries.
type DocumentFilter struct {
	Status       []DocumentStatus
	Category     Category
	DepartmentID string
	UploadedBy   string
	Priority     DocumentPriority
	Search       string
	Page         int
	PageSize     int
}
