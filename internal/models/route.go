package models

import "time"

// RouteAction enumerates workflow actions recorded against a document.
type RouteAction string

const (
	ActionRoute   RouteAction = "route"
	ActionApprove RouteAction = "approve"
	ActionDecline RouteAction = "decline"
	ActionReview  RouteAction = "review"
	ActionComment RouteAction = "comment"
)

// RouteStatus tracks completion of a routing step.
type RouteStatus string

const (
	RouteStatusPending   RouteStatus = "pending"
	RouteStatusCompleted RouteStatus = "completed"
	RouteStatusOverdue   RouteStatus = "overdue"
)

// DocumentRoute is an immutable record of a workflow step taken on a document.
type DocumentRoute struct {
	ID          string      `db:"id" json:"id"`
	DocumentID  string      `db:"document_id" json:"document_id"`
	Action      RouteAction `db:"action" json:"action"`
	Status      RouteStatus `db:"status" json:"status"`
	ActorID     string      `db:"actor_id" json:"actor_id"`
	Comments    *string     `db:"comments" json:"comments,omitempty"`
	AltComments *string     `db:"alt_comments" json:"alt_comments,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}
