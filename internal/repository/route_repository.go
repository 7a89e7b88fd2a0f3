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

const routeColumns = `id, document_id, action, status, actor_id, comments, alt_comments, created_at`

// RouteRepository reads routing history. Route rows are written through the
// workflow transaction and never modified afterwards.
type RouteRepository struct {
	db *sqlx.DB
}

// NewRouteRepository constructs the repository.
func NewRouteRepository(db *sqlx.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// ListByDocument returns the routing history for a document, oldest first.
func (r *RouteRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentRoute, error) {
	query := `SELECT ` + routeColumns + ` FROM document_routes WHERE document_id = $1 ORDER BY created_at ASC`
	var routes []models.DocumentRoute
	if err := r.db.SelectContext(ctx, &routes, query, documentID); err != nil {
		return nil, fmt.Errorf("list document routes: %w", err)
	}
	return routes, nil
}

// ListByDocuments fetches routes for a batch of documents in one round trip.
func (r *RouteRepository) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]models.DocumentRoute, error) {
	if len(documentIDs) == 0 {
		return map[string][]models.DocumentRoute{}, nil
	}

	placeholders := make([]string, len(documentIDs))
	args := make([]interface{}, len(documentIDs))
	for i, id := range documentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + routeColumns + ` FROM document_routes WHERE document_id IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY created_at ASC`

	var routes []models.DocumentRoute
	if err := r.db.SelectContext(ctx, &routes, query, args...); err != nil {
		return nil, fmt.Errorf("list routes batch: %w", err)
	}

	grouped := make(map[string][]models.DocumentRoute, len(documentIDs))
	for _, route := range routes {
		grouped[route.DocumentID] = append(grouped[route.DocumentID], route)
	}
	return grouped, nil
}

func prepareRoute(route *models.DocumentRoute) {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	if route.Status == "" {
		route.Status = models.RouteStatusCompleted
	}
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}
}

func insertRouteTx(ctx context.Context, tx *sqlx.Tx, route *models.DocumentRoute) error {
	prepareRoute(route)
	const query = `INSERT INTO document_routes
	(id, document_id, action, status, actor_id, comments, alt_comments, created_at)
	VALUES (:id, :document_id, :action, :status, :actor_id, :comments, :alt_comments, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, route); err != nil {
		return fmt.Errorf("insert document route: %w", err)
	}
	return nil
}
