package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
)

// WorkflowRepository executes workflow state changes transactionally.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// StatusChange describes an optimistic document status transition.
type StatusChange struct {
	DocumentID      string
	NewStatus       models.DocumentStatus
	ExpectedVersion int
}

// ActionParams bundles everything one workflow action writes.
type ActionParams struct {
	Route        *models.DocumentRoute
	StatusChange *StatusChange
	Audit        *models.AuditLog
}

// ApplyAction records a workflow step atomically: the route row, the
// optional status transition and the audit entry commit together or not
// at all. A stale version on the status update returns sql.ErrNoRows.
func (r *WorkflowRepository) ApplyAction(ctx context.Context, params ActionParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin workflow tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if params.Route != nil {
		if err := insertRouteTx(ctx, tx, params.Route); err != nil {
			return err
		}
	}

	if params.StatusChange != nil {
		const query = `UPDATE documents
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`
		result, err := tx.ExecContext(ctx, query,
			params.StatusChange.NewStatus, time.Now().UTC(),
			params.StatusChange.DocumentID, params.StatusChange.ExpectedVersion,
		)
		if err != nil {
			return fmt.Errorf("update workflow status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check workflow update rows: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
	}

	if params.Audit != nil {
		if err := insertAuditTx(ctx, tx, params.Audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workflow tx: %w", err)
	}
	return nil
}

// Stats aggregates workflow dashboard counters in one query.
func (r *WorkflowRepository) Stats(ctx context.Context) (*dto.WorkflowStats, error) {
	const query = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status IN ('processing', 'classified')) AS active,
	COUNT(*) FILTER (WHERE status = 'pending') AS pending,
	COUNT(*) FILTER (WHERE due_date < NOW() AND status NOT IN ('approved', 'rejected')) AS overdue,
	COUNT(*) FILTER (WHERE status IN ('approved', 'rejected')) AS completed
	FROM documents`

	var row struct {
		Total     int `db:"total"`
		Active    int `db:"active"`
		Pending   int `db:"pending"`
		Overdue   int `db:"overdue"`
		Completed int `db:"completed"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("workflow stats: %w", err)
	}

	return &dto.WorkflowStats{
		Total:     row.Total,
		Active:    row.Active,
		Pending:   row.Pending,
		Overdue:   row.Overdue,
		Completed: row.Completed,
	}, nil
}

// RecentDocuments returns the latest documents for the workflow overview.
func (r *WorkflowRepository) RecentDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC` +
		fmt.Sprintf(" LIMIT %d", limit)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, fmt.Errorf("recent workflow documents: %w", err)
	}
	return docs, nil
}
