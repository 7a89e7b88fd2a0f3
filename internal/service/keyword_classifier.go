package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/transitdocs/dms-api/internal/models"
)

// FallbackReasoning marks results produced without the remote model.
const FallbackReasoning = "Classified using keyword analysis"

// CategoryRule binds a category to its match keywords. Rule order matters:
// ties go to the earliest rule.
type CategoryRule struct {
	Category models.Category
	Keywords []string
}

// KeywordConfig carries the classification tables as data so tests can
// exercise the classifier without touching any environment.
type KeywordConfig struct {
	Rules           []CategoryRule
	DefaultCategory models.Category
	Departments     map[models.Category]string
	DeadlineDays    map[models.DocumentPriority]int
	// DeadlineCaps limits deadline days for categories that must never wait,
	// applied as min(priority-derived days, cap).
	DeadlineCaps map[models.Category]int
	Confidence   float64
}

// DefaultKeywordConfig returns the canonical transit-agency tables.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		Rules: []CategoryRule{
			{Category: models.CategorySafetyRpt, Keywords: []string{"safety", "security", "incident", "accident", "hazard"}},
			{Category: models.CategoryEmpRec, Keywords: []string{"employee", "hr", "staff", "personnel", "hiring"}},
			{Category: models.CategoryFinRpt, Keywords: []string{"finance", "budget", "payment", "invoice", "cost"}},
			{Category: models.CategoryTechSpec, Keywords: []string{"technical", "engineering", "specification", "design"}},
			{Category: models.CategoryMaintLog, Keywords: []string{"maintenance", "repair", "service", "breakdown"}},
			{Category: models.CategoryCompliance, Keywords: []string{"compliance", "regulatory", "legal", "audit"}},
			{Category: models.CategoryPolicy, Keywords: []string{"policy", "procedure", "guideline", "protocol"}},
		},
		DefaultCategory: models.CategoryCorresp,
		Departments: map[models.Category]string{
			models.CategorySafetyRpt:  "safety",
			models.CategoryEmpRec:     "hr",
			models.CategoryFinRpt:     "finance",
			models.CategoryTechSpec:   "maintenance",
			models.CategoryMaintLog:   "maintenance",
			models.CategoryCompliance: "operations",
			models.CategoryPolicy:     "operations",
			models.CategoryCorresp:    "operations",
		},
		DeadlineDays: map[models.DocumentPriority]int{
			models.PriorityUrgent: 1,
			models.PriorityHigh:   3,
			models.PriorityMedium: 7,
			models.PriorityLow:    14,
		},
		DeadlineCaps: map[models.Category]int{
			models.CategorySafetyRpt:  3,
			models.CategoryCompliance: 3,
		},
		Confidence: 0.75,
	}
}

// KeywordClassifier is the deterministic fallback strategy. It is a pure
// function of (title, text, now): no network, no hidden state.
type KeywordClassifier struct {
	cfg KeywordConfig
}

// NewKeywordClassifier builds the classifier from the given tables.
func NewKeywordClassifier(cfg KeywordConfig) *KeywordClassifier {
	if len(cfg.Rules) == 0 {
		cfg = DefaultKeywordConfig()
	}
	return &KeywordClassifier{cfg: cfg}
}

// Classify derives a classification from the combined title and text.
func (c *KeywordClassifier) Classify(title, text string, now time.Time) *models.Classification {
	combined := strings.ToLower(title + " " + text)

	category := c.matchCategory(combined)
	priority := c.matchPriority(combined, category)
	days := c.deadlineDays(priority, category)
	actionable := priority == models.PriorityUrgent || priority == models.PriorityHigh

	result := &models.Classification{
		Category:     category,
		Confidence:   c.cfg.Confidence,
		Reasoning:    FallbackReasoning,
		Summary:      fallbackSummary(title, text),
		Keywords:     c.matchKeywords(combined),
		Sentiment:    models.SentimentNeutral,
		UrgencyScore: urgencyScore(priority),
		Priority:     priority,
		Department:   c.cfg.Departments[category],
		IsActionable: actionable,
		DeadlineDays: days,
		ModelUsed:    models.AnalysisTypeFallback,
	}
	if actionable {
		due := now.UTC().AddDate(0, 0, days)
		result.DueDate = &due
	}
	return result
}

// matchCategory picks the rule with the most keyword hits. Ties keep the
// earliest rule; zero hits everywhere falls back to the default category.
func (c *KeywordClassifier) matchCategory(combined string) models.Category {
	best := c.cfg.DefaultCategory
	bestHits := 0
	for _, rule := range c.cfg.Rules {
		hits := 0
		for _, keyword := range rule.Keywords {
			if strings.Contains(combined, keyword) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = rule.Category
		}
	}
	return best
}

func (c *KeywordClassifier) matchPriority(combined string, category models.Category) models.DocumentPriority {
	switch {
	case strings.Contains(combined, "urgent") || strings.Contains(combined, "critical"):
		return models.PriorityUrgent
	case strings.Contains(combined, "high priority") || category == models.CategorySafetyRpt:
		return models.PriorityHigh
	case strings.Contains(combined, "low priority"):
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

func (c *KeywordClassifier) deadlineDays(priority models.DocumentPriority, category models.Category) int {
	days, ok := c.cfg.DeadlineDays[priority]
	if !ok {
		days = 7
	}
	if limit, capped := c.cfg.DeadlineCaps[category]; capped && limit < days {
		days = limit
	}
	return days
}

// matchKeywords collects every table keyword present in the combined text,
// de-duplicated, in table order.
func (c *KeywordClassifier) matchKeywords(combined string) []string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, 8)
	for _, rule := range c.cfg.Rules {
		for _, keyword := range rule.Keywords {
			if _, dup := seen[keyword]; dup {
				continue
			}
			if strings.Contains(combined, keyword) {
				seen[keyword] = struct{}{}
				keywords = append(keywords, keyword)
			}
		}
	}
	return keywords
}

func urgencyScore(priority models.DocumentPriority) float64 {
	switch priority {
	case models.PriorityUrgent:
		return 1.0
	case models.PriorityHigh:
		return 0.75
	case models.PriorityLow:
		return 0.25
	default:
		return 0.5
	}
}

func fallbackSummary(title, text string) string {
	source := strings.TrimSpace(text)
	if source == "" {
		source = strings.TrimSpace(title)
	}
	const maxLen = 200
	if len(source) <= maxLen {
		return source
	}
	// Back up to a rune boundary so multi-byte text is never split.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(source[cut]) {
		cut--
	}
	return source[:cut] + "..."
}
