package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/transitdocs/dms-api/internal/models"
)

func TestAuditRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	docID := "doc-1"
	entry := &models.AuditLog{DocumentID: &docID, Action: models.AuditActionDocumentCreated}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.Equal(t, "system", entry.IPAddress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByDocument(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	rows := sqlmock.NewRows([]string{"id", "user_id", "document_id", "action", "details", "ip_address", "user_agent", "created_at"}).
		AddRow("log-1", "user-1", "doc-1", "document_created", []byte(`{}`), "system", "", time.Now()).
		AddRow("log-2", nil, "doc-1", "document_classified", []byte(`{}`), "system", "classification-worker", time.Now())
	mock.ExpectQuery("SELECT id, user_id, document_id").
		WithArgs("doc-1").
		WillReturnRows(rows)

	entries, err := repo.ListByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.AuditActionDocumentCreated, entries[0].Action)
	require.Equal(t, models.AuditActionDocumentClassified, entries[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs")).
		WithArgs("user-1", "workflow_approve").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "user_id", "document_id", "action", "details", "ip_address", "user_agent", "created_at"}).
		AddRow("log-1", "user-1", "doc-1", "workflow_approve", []byte(`{}`), "system", "", time.Now())
	mock.ExpectQuery("SELECT id, user_id, document_id").
		WithArgs("user-1", "workflow_approve").
		WillReturnRows(rows)

	entries, total, err := repo.List(context.Background(), models.AuditFilter{
		UserID: "user-1",
		Action: models.AuditActionWorkflowApprove,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, entries, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
