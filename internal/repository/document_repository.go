package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/transitdocs/dms-api/internal/models"
)

const documentColumns = `id, title, alt_title, description, alt_description, file_path, file_name,
       file_size, mime_type, source_type, category, department_id, priority, status, uploaded_by,
       summary, alt_summary, keywords, alt_keywords, confidence, due_date, version, processed_at,
       created_at, updated_at`

// DocumentRepository persists documents and their classification results.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document row and its intake audit entry in one
// transaction. A document never becomes durable without its trail.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document, audit *models.AuditLog) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	if doc.Priority == "" {
		doc.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO documents
	(id, title, alt_title, description, alt_description, file_path, file_name, file_size, mime_type,
	 source_type, category, department_id, priority, status, uploaded_by, summary, alt_summary,
	 keywords, alt_keywords, confidence, due_date, version, processed_at, created_at, updated_at)
	VALUES (:id, :title, :alt_title, :description, :alt_description, :file_path, :file_name, :file_size, :mime_type,
	 :source_type, :category, :department_id, :priority, :status, :uploaded_by, :summary, :alt_summary,
	 :keywords, :alt_keywords, :confidence, :due_date, :version, :processed_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	if audit != nil {
		if err := insertAuditTx(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create tx: %w", err)
	}
	return nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents matching the filter plus the total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.UploadedBy != "" {
		args = append(args, filter.UploadedBy)
		conditions = append(conditions, fmt.Sprintf("uploaded_by = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR file_name ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM documents" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := "SELECT " + documentColumns + " FROM documents" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}

// UpdateStatus performs an optimistic status update with its audit entry in
// one transaction. A stale version leaves zero rows touched and surfaces as
// sql.ErrNoRows for the caller to map; an audit failure rolls the status back.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, version int, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE documents
	SET status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND version = $4`
	result, err := tx.ExecContext(ctx, query, status, time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if audit != nil {
		if err := insertAuditTx(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status tx: %w", err)
	}
	return nil
}

// ClassificationUpdate groups the columns written when classification lands.
type ClassificationUpdate struct {
	DocumentID      string
	ExpectedVersion int
	Category        models.Category
	DepartmentID    *string
	Priority        models.DocumentPriority
	Summary         *string
	Keywords        models.StringList
	Confidence      float64
	DueDate         *time.Time
	ProcessedAt     time.Time
}

// PersistClassification applies a classification result atomically: the
// document columns, the analysis record and the audit entry commit together.
func (r *DocumentRepository) PersistClassification(ctx context.Context, update ClassificationUpdate, analysis *models.DocumentAnalysis, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin classification tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const docQuery = `UPDATE documents
	SET category = $1, department_id = $2, priority = $3, summary = $4, keywords = $5,
	    confidence = $6, due_date = $7, status = $8, processed_at = $9,
	    version = version + 1, updated_at = $9
	WHERE id = $10 AND version = $11`
	result, err := tx.ExecContext(ctx, docQuery,
		update.Category, update.DepartmentID, update.Priority, update.Summary, update.Keywords,
		update.Confidence, update.DueDate, models.StatusClassified, update.ProcessedAt,
		update.DocumentID, update.ExpectedVersion,
	)
	if err != nil {
		return fmt.Errorf("apply classification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check classification rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if analysis != nil {
		if analysis.ID == "" {
			analysis.ID = uuid.NewString()
		}
		if analysis.CreatedAt.IsZero() {
			analysis.CreatedAt = time.Now().UTC()
		}
		const analysisQuery = `INSERT INTO document_analyses
		(id, document_id, analysis_type, category, confidence, reasoning, summary, alt_summary,
		 keywords, alt_keywords, sentiment, urgency_score, priority, department, actionable,
		 deadline_days, model_used, created_at)
		VALUES (:id, :document_id, :analysis_type, :category, :confidence, :reasoning, :summary, :alt_summary,
		 :keywords, :alt_keywords, :sentiment, :urgency_score, :priority, :department, :actionable,
		 :deadline_days, :model_used, :created_at)`
		if _, err := tx.NamedExecContext(ctx, analysisQuery, analysis); err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}
	}

	if audit != nil {
		if err := insertAuditTx(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit classification tx: %w", err)
	}
	return nil
}

// LatestAnalysis fetches the most recent analysis for a document.
func (r *DocumentRepository) LatestAnalysis(ctx context.Context, documentID string) (*models.DocumentAnalysis, error) {
	const query = `SELECT id, document_id, analysis_type, category, confidence, reasoning, summary, alt_summary,
	       keywords, alt_keywords, sentiment, urgency_score, priority, department, actionable,
	       deadline_days, model_used, created_at
	FROM document_analyses WHERE document_id = $1 ORDER BY created_at DESC LIMIT 1`
	var analysis models.DocumentAnalysis
	if err := r.db.GetContext(ctx, &analysis, query, documentID); err != nil {
		return nil, err
	}
	return &analysis, nil
}
