package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/transitdocs/dms-api/internal/models"
)

func TestKeywordClassifierUrgentSafetyIncident(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	result := classifier.Classify("Urgent safety incident on platform", "immediate hazard reported near track 3", now)

	require.Equal(t, models.CategorySafetyRpt, result.Category)
	require.Equal(t, models.PriorityUrgent, result.Priority)
	require.Equal(t, "safety", result.Department)
	require.True(t, result.IsActionable)
	require.Equal(t, 1, result.DeadlineDays)
	require.NotNil(t, result.DueDate)
	require.Equal(t, now.AddDate(0, 0, 1), *result.DueDate)
	require.Equal(t, 1.0, result.UrgencyScore)
	require.Equal(t, models.SentimentNeutral, result.Sentiment)
	require.Equal(t, FallbackReasoning, result.Reasoning)
	require.Equal(t, models.AnalysisTypeFallback, result.ModelUsed)
	require.Equal(t, []string{"safety", "incident", "hazard"}, result.Keywords)
}

func TestKeywordClassifierMostHitsWins(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	// Three policy keywords against a single compliance hit.
	result := classifier.Classify("Policy update", "revised procedure and guideline ahead of the audit", time.Now())

	require.Equal(t, models.CategoryPolicy, result.Category)
}

func TestKeywordClassifierTieKeepsEarlierRule(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	// One compliance hit (audit) and one policy hit (protocol). COMPLIANCE
	// appears first in the rule table so the tie resolves to it.
	result := classifier.Classify("Audit protocol", "", time.Now())

	require.Equal(t, models.CategoryCompliance, result.Category)
}

func TestKeywordClassifierNoMatchesFallsBackToCorrespondence(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	result := classifier.Classify("Weekly newsletter", "news from around the agency", time.Now())

	require.Equal(t, models.CategoryCorresp, result.Category)
	require.Equal(t, models.PriorityMedium, result.Priority)
	require.Equal(t, "operations", result.Department)
	require.False(t, result.IsActionable)
	require.Nil(t, result.DueDate)
	require.Equal(t, 7, result.DeadlineDays)
	require.Empty(t, result.Keywords)
}

func TestKeywordClassifierComplianceDeadlineCap(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	// Medium priority would mean 7 days, but compliance documents never wait
	// longer than 3.
	result := classifier.Classify("Regulatory compliance review schedule", "", time.Now())

	require.Equal(t, models.CategoryCompliance, result.Category)
	require.Equal(t, models.PriorityMedium, result.Priority)
	require.Equal(t, 3, result.DeadlineDays)
	require.False(t, result.IsActionable)
	require.Nil(t, result.DueDate)
}

func TestKeywordClassifierSafetyImpliesHighPriority(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	result := classifier.Classify("Platform safety walkthrough notes", "", now)

	require.Equal(t, models.CategorySafetyRpt, result.Category)
	require.Equal(t, models.PriorityHigh, result.Priority)
	require.Equal(t, 3, result.DeadlineDays)
	require.True(t, result.IsActionable)
	require.NotNil(t, result.DueDate)
	require.Equal(t, 0.75, result.UrgencyScore)
}

func TestKeywordClassifierLowPriority(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	result := classifier.Classify("Low priority invoice batch", "payment records for archive", time.Now())

	require.Equal(t, models.CategoryFinRpt, result.Category)
	require.Equal(t, models.PriorityLow, result.Priority)
	require.Equal(t, 14, result.DeadlineDays)
	require.False(t, result.IsActionable)
	require.Equal(t, 0.25, result.UrgencyScore)
}

func TestKeywordClassifierDeterministic(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	first := classifier.Classify("Maintenance repair ticket", "escalator breakdown at central station", now)
	second := classifier.Classify("Maintenance repair ticket", "escalator breakdown at central station", now)

	require.Equal(t, first, second)
	require.Equal(t, models.CategoryMaintLog, first.Category)
	require.Equal(t, []string{"maintenance", "repair", "breakdown"}, first.Keywords)
}

func TestKeywordClassifierSummaryExcerpt(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	result := classifier.Classify("Title", string(long), time.Now())

	require.Len(t, result.Summary, 203)
	require.Equal(t, "...", result.Summary[200:])

	short := classifier.Classify("Only a title", "", time.Now())
	require.Equal(t, "Only a title", short.Summary)
}

func TestKeywordClassifierSummaryExcerptKeepsRunesIntact(t *testing.T) {
	classifier := NewKeywordClassifier(DefaultKeywordConfig())

	// Three-byte runes do not divide 200 evenly, so a byte cut would
	// land mid-rune.
	long := strings.Repeat("സ", 150)
	result := classifier.Classify("Title", long, time.Now())

	require.True(t, utf8.ValidString(result.Summary))
	require.True(t, strings.HasSuffix(result.Summary, "..."))
	require.LessOrEqual(t, len(result.Summary), 203)
}
