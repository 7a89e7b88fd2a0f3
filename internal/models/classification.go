package models

import "time"

// Classification is the normalised result of classifying document text,
// produced either by the remote model or the keyword fallback.
type Classification struct {
	Category     Category         `json:"category"`
	Confidence   float64          `json:"confidence"`
	Reasoning    string           `json:"reasoning"`
	Summary      string           `json:"summary,omitempty"`
	Keywords     []string         `json:"keywords,omitempty"`
	Sentiment    string           `json:"sentiment"`
	UrgencyScore float64          `json:"urgency_score"`
	Priority     DocumentPriority `json:"priority"`
	Department   string           `json:"department"`
	IsActionable bool             `json:"is_actionable"`
	DeadlineDays int              `json:"deadline_days"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
	ModelUsed    string           `json:"model_used"`
}
