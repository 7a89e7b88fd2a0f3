package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/transitdocs/dms-api/internal/models"
	appErrors "github.com/transitdocs/dms-api/pkg/errors"
)

type completerStub struct {
	reply string
	err   error
	calls int
}

func (c *completerStub) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return c.reply, c.err
}

func TestClassifierServiceRequiresInput(t *testing.T) {
	svc := NewClassifierService(nil, nil, "test-model", nil)

	_, err := svc.ClassifyText(context.Background(), "", "   ")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassifierServiceRemoteSuccess(t *testing.T) {
	completer := &completerStub{reply: `{"category":"FIN_RPT","confidence":0.9,"reasoning":"budget figures","priority":"high","summary":"Q2 budget","tags":["budget"]}`}
	svc := NewClassifierService(completer, nil, "test-model", nil)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	result, err := svc.ClassifyText(context.Background(), "Budget report", "Q2 budget breakdown")
	require.NoError(t, err)
	require.Equal(t, 1, completer.calls)
	require.Equal(t, models.CategoryFinRpt, result.Category)
	require.Equal(t, 0.9, result.Confidence)
	require.Equal(t, models.PriorityHigh, result.Priority)
	require.Equal(t, "finance", result.Department)
	require.True(t, result.IsActionable)
	require.Equal(t, 3, result.DeadlineDays)
	require.NotNil(t, result.DueDate)
	require.Equal(t, now.AddDate(0, 0, 3), *result.DueDate)
	require.Equal(t, "test-model", result.ModelUsed)
}

func TestClassifierServiceRemoteDefaultConfidence(t *testing.T) {
	completer := &completerStub{reply: `{"category":"POLICY","reasoning":"policy text","priority":"medium"}`}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	result, err := svc.ClassifyText(context.Background(), "Policy", "new procedure")
	require.NoError(t, err)
	require.Equal(t, 0.7, result.Confidence)
	require.Equal(t, models.CategoryPolicy, result.Category)
}

func TestClassifierServiceFallbackOnTransportError(t *testing.T) {
	completer := &completerStub{err: errors.New("connection refused")}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	result, err := svc.ProcessText(context.Background(), "Safety incident report", "hazard at depot")
	require.NoError(t, err)
	require.Equal(t, models.CategorySafetyRpt, result.Category)
	require.Equal(t, 0.75, result.Confidence)
	require.Equal(t, models.AnalysisTypeFallback, result.ModelUsed)
	require.Equal(t, FallbackReasoning, result.Reasoning)
}

func TestClassifierServiceClassifyFallbackConfidence(t *testing.T) {
	completer := &completerStub{err: errors.New("timeout")}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	result, err := svc.ClassifyText(context.Background(), "Invoice for repairs", "")
	require.NoError(t, err)
	require.Equal(t, 0.7, result.Confidence)
	require.Equal(t, models.AnalysisTypeFallback, result.ModelUsed)
}

func TestClassifierServiceFallbackOnUnparseableReply(t *testing.T) {
	completer := &completerStub{reply: "I cannot classify this document."}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	result, err := svc.ProcessText(context.Background(), "Staff hiring plan", "")
	require.NoError(t, err)
	require.Equal(t, models.CategoryEmpRec, result.Category)
	require.Equal(t, models.AnalysisTypeFallback, result.ModelUsed)
}

func TestClassifierServiceFallbackOnUnknownCategory(t *testing.T) {
	completer := &completerStub{reply: `{"category":"SOMETHING_ELSE","confidence":0.95}`}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	result, err := svc.ProcessText(context.Background(), "Maintenance schedule", "")
	require.NoError(t, err)
	require.Equal(t, models.CategoryMaintLog, result.Category)
	require.Equal(t, models.AnalysisTypeFallback, result.ModelUsed)
	require.Equal(t, 0.75, result.Confidence)
}

func TestClassifierServiceNilCompleterUsesFallback(t *testing.T) {
	svc := NewClassifierService(nil, nil, "test-model", nil)

	result, err := svc.ProcessText(context.Background(), "Compliance audit findings", "")
	require.NoError(t, err)
	require.Equal(t, models.CategoryCompliance, result.Category)
	require.Equal(t, models.AnalysisTypeFallback, result.ModelUsed)
}

func TestClassifierServiceSummarize(t *testing.T) {
	completer := &completerStub{reply: "Short summary."}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	summary, modelUsed, err := svc.Summarize(context.Background(), "A long operational report about depot activities.", 2)
	require.NoError(t, err)
	require.Equal(t, "Short summary.", summary)
	require.Equal(t, "test-model", modelUsed)
}

func TestClassifierServiceSummarizeFallback(t *testing.T) {
	completer := &completerStub{err: errors.New("unavailable")}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	summary, modelUsed, err := svc.Summarize(context.Background(), "A long operational report.", 2)
	require.NoError(t, err)
	require.Equal(t, "A long operational report.", summary)
	require.Equal(t, models.AnalysisTypeFallback, modelUsed)

	_, _, err = svc.Summarize(context.Background(), "  ", 2)
	require.Error(t, err)
}

func TestClassifierServiceChat(t *testing.T) {
	completer := &completerStub{reply: "  The safety protocol requires immediate reporting.  "}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	resp, err := svc.Chat(context.Background(), "What does the safety protocol say?", []string{"Safety protocol\nReport incidents immediately."})
	require.NoError(t, err)
	require.Equal(t, 1, completer.calls)
	require.Equal(t, "The safety protocol requires immediate reporting.", resp.Response)
	require.Equal(t, 0.87, resp.Confidence)
	require.Equal(t, "test-model", resp.ModelUsed)
}

func TestClassifierServiceChatRequiresQuery(t *testing.T) {
	svc := NewClassifierService(nil, nil, "test-model", nil)

	_, err := svc.Chat(context.Background(), "   ", nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassifierServiceChatFallbackOnError(t *testing.T) {
	completer := &completerStub{err: errors.New("unavailable")}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	resp, err := svc.Chat(context.Background(), "When is my document due?", nil)
	require.NoError(t, err)
	require.Contains(t, resp.Response, "deadlines follow priority")
	require.Equal(t, 0.7, resp.Confidence)
	require.Equal(t, models.AnalysisTypeFallback, resp.ModelUsed)

	generic, err := svc.Chat(context.Background(), "Tell me about the weather", nil)
	require.NoError(t, err)
	require.Equal(t, chatDefaultReply, generic.Response)
}

func TestClassifierServiceTranslate(t *testing.T) {
	completer := &completerStub{reply: "  Texto traducido.  "}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	resp, err := svc.Translate(context.Background(), "Translated text.", "en", "es")
	require.NoError(t, err)
	require.Equal(t, 1, completer.calls)
	require.Equal(t, "Texto traducido.", resp.TranslatedText)
	require.Equal(t, "Translated text.", resp.OriginalText)
	require.Equal(t, 0.89, resp.Confidence)
	require.Equal(t, "test-model", resp.ModelUsed)
}

func TestClassifierServiceTranslateSameLanguageEchoes(t *testing.T) {
	completer := &completerStub{}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	resp, err := svc.Translate(context.Background(), "No change needed.", "en", "EN")
	require.NoError(t, err)
	require.Zero(t, completer.calls)
	require.Equal(t, "No change needed.", resp.TranslatedText)
	require.Equal(t, 1.0, resp.Confidence)
}

func TestClassifierServiceTranslateValidation(t *testing.T) {
	svc := NewClassifierService(nil, nil, "test-model", nil)

	_, err := svc.Translate(context.Background(), "text", "en", "")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassifierServiceTranslateSurfacesModelFailure(t *testing.T) {
	completer := &completerStub{err: errors.New("unavailable")}
	svc := NewClassifierService(completer, nil, "test-model", nil)

	_, err := svc.Translate(context.Background(), "text", "en", "es")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
