package dto

import "github.com/transitdocs/dms-api/internal/models"

// WorkflowActionRequest applies a workflow action to a document.
type WorkflowActionRequest struct {
	Action      string  `json:"action"`
	Comments    *string `json:"comments,omitempty"`
	AltComments *string `json:"alt_comments,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
}

// WorkflowActionResponse returns the updated document and the recorded step.
type WorkflowActionResponse struct {
	Document *models.Document      `json:"document"`
	Route    *models.DocumentRoute `json:"route"`
}

// WorkflowStats aggregates dashboard counters.
type WorkflowStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
}

// WorkflowStep is one entry in a document's routing history.
type WorkflowStep struct {
	Action    models.RouteAction `json:"action"`
	Status    models.RouteStatus `json:"status"`
	ActorID   string             `json:"actor_id"`
	Comments  *string            `json:"comments,omitempty"`
	CreatedAt string             `json:"created_at"`
}

// WorkflowItem is a document with derived workflow progress.
type WorkflowItem struct {
	Document *models.Document `json:"document"`
	Progress int              `json:"progress"`
	Overdue  bool             `json:"overdue"`
	Steps    []WorkflowStep   `json:"steps"`
}

// WorkflowOverview is the GET /workflows payload.
type WorkflowOverview struct {
	Items []WorkflowItem `json:"items"`
	Stats WorkflowStats  `json:"stats"`
}
