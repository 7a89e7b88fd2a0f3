package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/transitdocs/dms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func documentRows(doc *models.Document) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "alt_title", "description", "alt_description", "file_path", "file_name",
		"file_size", "mime_type", "source_type", "category", "department_id", "priority", "status",
		"uploaded_by", "summary", "alt_summary", "keywords", "alt_keywords", "confidence",
		"due_date", "version", "processed_at", "created_at", "updated_at",
	}).AddRow(
		doc.ID, doc.Title, nil, nil, nil, doc.FilePath, doc.FileName,
		nil, nil, string(doc.SourceType), nil, nil, string(doc.Priority), string(doc.Status),
		doc.UploadedBy, nil, nil, nil, nil, nil,
		nil, doc.Version, nil, time.Now(), time.Now(),
	)
}

func TestDocumentRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc := &models.Document{
		Title:      "Depot inspection",
		FilePath:   "/uploads/depot.pdf",
		FileName:   "depot.pdf",
		SourceType: models.SourceUpload,
		UploadedBy: "user-1",
	}
	audit := &models.AuditLog{Action: models.AuditActionDocumentCreated}
	require.NoError(t, repo.Create(context.Background(), doc, audit))
	require.NotEmpty(t, doc.ID)
	require.Equal(t, models.StatusPending, doc.Status)
	require.Equal(t, models.PriorityMedium, doc.Priority)
	require.NotEmpty(t, audit.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateRollsBackWhenAuditFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	doc := &models.Document{
		Title:      "Depot inspection",
		FilePath:   "/uploads/depot.pdf",
		FileName:   "depot.pdf",
		SourceType: models.SourceUpload,
		UploadedBy: "user-1",
	}
	err := repo.Create(context.Background(), doc, &models.AuditLog{Action: models.AuditActionDocumentCreated})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	doc := &models.Document{
		ID: "doc-1", Title: "Depot inspection", FilePath: "/uploads/depot.pdf",
		FileName: "depot.pdf", SourceType: models.SourceUpload, Priority: models.PriorityMedium,
		Status: models.StatusPending, UploadedBy: "user-1", Version: 1,
	}
	mock.ExpectQuery("SELECT id, title, alt_title").
		WithArgs("doc-1").
		WillReturnRows(documentRows(doc))

	found, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, "doc-1", found.ID)
	require.Equal(t, models.StatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents")).
		WithArgs("pending", "classified", "SAFETY_RPT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	doc := &models.Document{
		ID: "doc-1", Title: "Safety walkthrough", FilePath: "/uploads/s.pdf", FileName: "s.pdf",
		SourceType: models.SourceUpload, Priority: models.PriorityHigh,
		Status: models.StatusPending, UploadedBy: "user-1", Version: 1,
	}
	mock.ExpectQuery("SELECT id, title, alt_title").
		WithArgs("pending", "classified", "SAFETY_RPT").
		WillReturnRows(documentRows(doc))

	docs, total, err := repo.List(context.Background(), models.DocumentFilter{
		Status:   []models.DocumentStatus{models.StatusPending, models.StatusClassified},
		Category: models.CategorySafetyRpt,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, docs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatusOptimistic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	audit := &models.AuditLog{Action: models.AuditActionStatusUpdated}
	require.NoError(t, repo.UpdateStatus(context.Background(), "doc-1", models.StatusApproved, 2, audit))
	require.NotEmpty(t, audit.ID)

	// Stale version touches zero rows.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err := repo.UpdateStatus(context.Background(), "doc-1", models.StatusApproved, 1, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatusRollsBackWhenAuditFails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), "doc-1", models.StatusApproved, 2,
		&models.AuditLog{Action: models.AuditActionStatusUpdated})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryPersistClassificationCommitsAtomically(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO document_analyses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	docID := "doc-1"
	update := ClassificationUpdate{
		DocumentID:      docID,
		ExpectedVersion: 1,
		Category:        models.CategorySafetyRpt,
		Priority:        models.PriorityUrgent,
		Confidence:      0.75,
		ProcessedAt:     time.Now().UTC(),
	}
	analysis := &models.DocumentAnalysis{
		DocumentID:   docID,
		AnalysisType: models.AnalysisTypeFallback,
		Category:     models.CategorySafetyRpt,
		Confidence:   0.75,
		Priority:     models.PriorityUrgent,
		ModelUsed:    models.AnalysisTypeFallback,
	}
	audit := &models.AuditLog{DocumentID: &docID, Action: models.AuditActionDocumentClassified}

	require.NoError(t, repo.PersistClassification(context.Background(), update, analysis, audit))
	require.NotEmpty(t, analysis.ID)
	require.NotEmpty(t, audit.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryPersistClassificationStaleVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.PersistClassification(context.Background(), ClassificationUpdate{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		Category:        models.CategoryCorresp,
		Priority:        models.PriorityMedium,
	}, nil, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
