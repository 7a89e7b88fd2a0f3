package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/transitdocs/dms-api/internal/models"
)

const auditColumns = `id, user_id, document_id, action, details, ip_address, user_agent, created_at`

const auditInsertQuery = `INSERT INTO audit_logs
	(id, user_id, document_id, action, details, ip_address, user_agent, created_at)
	VALUES (:id, :user_id, :document_id, :action, :details, :ip_address, :user_agent, :created_at)`

// AuditRepository appends and reads the audit trail. The table is
// append-only: no update or delete operations exist.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	prepareAudit(entry)
	if _, err := r.db.NamedExecContext(ctx, auditInsertQuery, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByDocument returns the audit trail for a document, oldest first.
func (r *AuditRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE document_id = $1 ORDER BY created_at ASC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, documentID); err != nil {
		return nil, fmt.Errorf("list document audit logs: %w", err)
	}
	return entries, nil
}

// List returns audit entries matching the filter, newest first, with a total count.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.DocumentID != "" {
		args = append(args, filter.DocumentID)
		conditions = append(conditions, fmt.Sprintf("document_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_logs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}

	query := "SELECT " + auditColumns + " FROM audit_logs" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, total, nil
}

func prepareAudit(entry *models.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.IPAddress == "" {
		entry.IPAddress = "system"
	}
}

// insertAuditTx appends an audit entry inside an existing transaction so the
// trail commits or rolls back together with the change it describes.
func insertAuditTx(ctx context.Context, tx *sqlx.Tx, entry *models.AuditLog) error {
	prepareAudit(entry)
	if _, err := tx.NamedExecContext(ctx, auditInsertQuery, entry); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
