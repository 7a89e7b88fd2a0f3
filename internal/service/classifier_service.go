package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transitdocs/dms-api/internal/ai"
	"github.com/transitdocs/dms-api/internal/dto"
	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
)

// Fallback confidence is deliberately lower than a confident model answer.
// Full document processing and classify-only carry different values.
const (
	processFallbackConfidence  = 0.75
	classifyFallbackConfidence = 0.7
	remoteDefaultConfidence    = 0.7
	chatRemoteConfidence       = 0.87
	chatFallbackConfidence     = 0.7
	translateConfidence        = 0.89
)

// ClassifierService selects between the remote model and the keyword
// fallback. The remote path gets a single attempt; any transport or parse
// failure degrades to the deterministic fallback, never to an error.
type ClassifierService struct {
	completer ai.Completer
	fallback  *KeywordClassifier
	modelName string
	logger    *zap.Logger
	metrics   classificationRecorder
	now       func() time.Time
}

type classificationRecorder interface {
	RecordClassification(strategy, category string, duration time.Duration)
}

// NewClassifierService constructs the service. A nil completer means the
// fallback handles everything, which keeps the pipeline usable offline.
func NewClassifierService(completer ai.Completer, fallback *KeywordClassifier, modelName string, logger *zap.Logger) *ClassifierService {
	if fallback == nil {
		fallback = NewKeywordClassifier(DefaultKeywordConfig())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifierService{
		completer: completer,
		fallback:  fallback,
		modelName: modelName,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessText runs full classification for the document pipeline.
func (s *ClassifierService) ProcessText(ctx context.Context, title, text string) (*models.Classification, error) {
	return s.classify(ctx, title, text, processFallbackConfidence)
}

// ClassifyText runs classification for the classify-only endpoint.
func (s *ClassifierService) ClassifyText(ctx context.Context, title, text string) (*models.Classification, error) {
	return s.classify(ctx, title, text, classifyFallbackConfidence)
}

func (s *ClassifierService) classify(ctx context.Context, title, text string, fallbackConfidence float64) (*models.Classification, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(text) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text or title is required")
	}

	start := s.now()
	if s.completer != nil {
		result, err := s.classifyRemote(ctx, title, text)
		if err == nil {
			s.record(models.AnalysisTypeRemote, result.Category, start)
			return result, nil
		}
		s.logger.Warn("remote classification failed, using keyword fallback", zap.Error(err))
	}

	result := s.fallback.Classify(title, text, s.now())
	result.Confidence = fallbackConfidence
	s.record(models.AnalysisTypeFallback, result.Category, start)
	return result, nil
}

// WithMetrics attaches a classification metrics recorder.
func (s *ClassifierService) WithMetrics(metrics classificationRecorder) *ClassifierService {
	s.metrics = metrics
	return s
}

func (s *ClassifierService) record(strategy string, category models.Category, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordClassification(strategy, string(category), time.Since(start))
}

type remoteResult struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Department string   `json:"department"`
	Priority   string   `json:"priority"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
}

func (s *ClassifierService) classifyRemote(ctx context.Context, title, text string) (*models.Classification, error) {
	raw, err := s.completer.Complete(ctx, ai.BuildClassificationPrompt(title, text))
	if err != nil {
		return nil, err
	}

	var parsed remoteResult
	if err := json.Unmarshal([]byte(ai.ExtractJSONObject(raw)), &parsed); err != nil {
		return nil, err
	}

	category, err := parseCategory(parsed.Category)
	if err != nil {
		return nil, err
	}

	confidence := remoteDefaultConfidence
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	priority := parsePriority(parsed.Priority)
	days := s.fallback.deadlineDays(priority, category)
	actionable := priority == models.PriorityUrgent || priority == models.PriorityHigh

	department := strings.ToLower(strings.TrimSpace(parsed.Department))
	if department == "" {
		department = s.fallback.cfg.Departments[category]
	}

	result := &models.Classification{
		Category:     category,
		Confidence:   confidence,
		Reasoning:    parsed.Reasoning,
		Summary:      parsed.Summary,
		Keywords:     parsed.Tags,
		Sentiment:    models.SentimentNeutral,
		UrgencyScore: urgencyScore(priority),
		Priority:     priority,
		Department:   department,
		IsActionable: actionable,
		DeadlineDays: days,
		ModelUsed:    s.modelName,
	}
	if actionable {
		due := s.now().UTC().AddDate(0, 0, days)
		result.DueDate = &due
	}
	return result, nil
}

// Summarize produces a short summary, degrading to a truncated excerpt when
// the model is unavailable.
func (s *ClassifierService) Summarize(ctx context.Context, text string, maxSentences int) (string, string, error) {
	if strings.TrimSpace(text) == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "text is required")
	}

	if s.completer != nil {
		summary, err := s.completer.Complete(ctx, ai.BuildSummaryPrompt(text, maxSentences))
		if err == nil && strings.TrimSpace(summary) != "" {
			return summary, s.modelName, nil
		}
		if err != nil {
			s.logger.Warn("remote summary failed, using excerpt fallback", zap.Error(err))
		}
	}

	return fallbackSummary("", text), models.AnalysisTypeFallback, nil
}

// chatFallbacks answer common operational questions when the model is
// unreachable, keyed on query keywords. First match wins.
var chatFallbacks = []struct {
	keywords []string
	reply    string
}{
	{[]string{"safety"}, "Safety protocols are critical. All safety incidents must be reported immediately to the safety department."},
	{[]string{"deadline", "due"}, "Document deadlines follow priority: urgent documents are due in 1 day, high in 3, medium in 7 and low in 14."},
	{[]string{"upload", "submit"}, "Submit files through the upload endpoint. Documents are processed automatically and routed to the appropriate departments."},
	{[]string{"department"}, "Documents route to the safety, hr, finance, maintenance or operations departments based on their content."},
}

const chatDefaultReply = "I am the document assistant. I can help with documents, policies, procedures, uploads and departmental routing."

// Chat answers a document question, degrading to a canned operational reply
// when the model is unavailable.
func (s *ClassifierService) Chat(ctx context.Context, query string, contextDocs []string) (*dto.ChatResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "query is required")
	}

	if s.completer != nil {
		reply, err := s.completer.Complete(ctx, ai.BuildChatPrompt(query, contextDocs))
		if err == nil && strings.TrimSpace(reply) != "" {
			return &dto.ChatResponse{
				Response:   strings.TrimSpace(reply),
				Confidence: chatRemoteConfidence,
				ModelUsed:  s.modelName,
			}, nil
		}
		if err != nil {
			s.logger.Warn("remote chat failed, using canned reply", zap.Error(err))
		}
	}

	return &dto.ChatResponse{
		Response:   chatFallbackReply(query),
		Confidence: chatFallbackConfidence,
		ModelUsed:  models.AnalysisTypeFallback,
	}, nil
}

func chatFallbackReply(query string) string {
	lower := strings.ToLower(query)
	for _, fallback := range chatFallbacks {
		for _, keyword := range fallback.keywords {
			if strings.Contains(lower, keyword) {
				return fallback.reply
			}
		}
	}
	return chatDefaultReply
}

// Translate converts text between the two document languages. There is no
// deterministic fallback: an unreachable model surfaces as an error.
func (s *ClassifierService) Translate(ctx context.Context, text, fromLang, toLang string) (*dto.TranslateResponse, error) {
	text = strings.TrimSpace(text)
	fromLang = strings.ToLower(strings.TrimSpace(fromLang))
	toLang = strings.ToLower(strings.TrimSpace(toLang))
	if text == "" || fromLang == "" || toLang == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text, from_language and to_language are required")
	}

	resp := &dto.TranslateResponse{
		OriginalText: text,
		FromLanguage: fromLang,
		ToLanguage:   toLang,
	}
	if fromLang == toLang {
		resp.TranslatedText = text
		resp.Confidence = 1.0
		return resp, nil
	}

	if s.completer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "translation service unavailable")
	}
	reply, err := s.completer.Complete(ctx, ai.BuildTranslationPrompt(text, fromLang, toLang))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "translation failed")
	}
	resp.TranslatedText = strings.TrimSpace(reply)
	resp.Confidence = translateConfidence
	resp.ModelUsed = s.modelName
	return resp, nil
}

func parseCategory(raw string) (models.Category, error) {
	category := models.Category(strings.ToUpper(strings.TrimSpace(raw)))
	switch category {
	case models.CategoryPolicy, models.CategorySafetyRpt, models.CategoryTechSpec,
		models.CategoryFinRpt, models.CategoryCompliance, models.CategoryEmpRec,
		models.CategoryMaintLog, models.CategoryCorresp:
		return category, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "unknown category in model response")
}

func parsePriority(raw string) models.DocumentPriority {
	switch models.DocumentPriority(strings.ToLower(strings.TrimSpace(raw))) {
	case models.PriorityUrgent:
		return models.PriorityUrgent
	case models.PriorityHigh:
		return models.PriorityHigh
	case models.PriorityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
