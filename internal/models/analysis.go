package models

import "time"

// Sentiment tags recorded on an analysis.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Analysis type markers recorded alongside results.
const (
	AnalysisTypeRemote   = "ai_model"
	AnalysisTypeFallback = "keyword_fallback"
)

// DocumentAnalysis stores the outcome of one classification pass over a document.
type DocumentAnalysis struct {
	ID           string           `db:"id" json:"id"`
	DocumentID   string           `db:"document_id" json:"document_id"`
	AnalysisType string           `db:"analysis_type" json:"analysis_type"`
	Category     Category         `db:"category" json:"category"`
	Confidence   float64          `db:"confidence" json:"confidence"`
	Reasoning    *string          `db:"reasoning" json:"reasoning,omitempty"`
	Summary      *string          `db:"summary" json:"summary,omitempty"`
	AltSummary   *string          `db:"alt_summary" json:"alt_summary,omitempty"`
	Keywords     StringList       `db:"keywords" json:"keywords,omitempty"`
	AltKeywords  StringList       `db:"alt_keywords" json:"alt_keywords,omitempty"`
	Sentiment    string           `db:"sentiment" json:"sentiment"`
	UrgencyScore float64          `db:"urgency_score" json:"urgency_score"`
	Priority     DocumentPriority `db:"priority" json:"priority"`
	Department   string           `db:"department" json:"department"`
	Actionable   bool             `db:"actionable" json:"actionable"`
	DeadlineDays int              `db:"deadline_days" json:"deadline_days"`
	ModelUsed    string           `db:"model_used" json:"model_used"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
