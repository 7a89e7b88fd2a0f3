package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "login"
	AuditActionDocumentCreated    = "document_created"
	AuditActionDocumentClassified = "document_classified"
	AuditActionStatusUpdated      = "document_status_updated"
	AuditActionWorkflowApprove    = "workflow_approve"
	AuditActionWorkflowDecline    = "workflow_decline"
	AuditActionWorkflowReview     = "workflow_review"
	AuditActionWorkflowComment    = "workflow_comment"
)

// AuditLog represents an append-only audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	DocumentID *string   `db:"document_id" json:"document_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter constrains audit log listings.
type AuditFilter struct {
	UserID     string
	DocumentID string
	Action     string
	Page       int
	PageSize   int
}
