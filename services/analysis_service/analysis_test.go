package analysis_service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawtline/callsight/models"
	"github.com/sawtline/callsight/services/llm_service"
)

// scriptedLLM returns its responses in order, one per Chat call. A response
// equal to errSentinel fails the call instead.
type scriptedLLM struct {
	responses []string
	calls     int
}

const errSentinel = "\x00fail"

func (s *scriptedLLM) Chat(_ context.Context, _ []llm_service.Message) (string, error) {
	if s.calls >= len(s.responses) {
		return "", errors.New("unexpected extra call")
	}
	response := s.responses[s.calls]
	s.calls++
	if response == errSentinel {
		return "", errors.New("provider unavailable")
	}
	return response, nil
}

func testSegments() []models.TranscriptSegment {
	return []models.TranscriptSegment{
		{StartTime: 0, EndTime: 2.5, Text: "السلام عليكم، كيف أقدر أساعدك؟", Speaker: "Speaker 0"},
		{StartTime: 2.5, EndTime: 6.0, Text: "عندي مشكلة في الفاتورة الأخيرة", Speaker: "Speaker 1"},
	}
}

func TestSummarizeConversation(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"```json\n{\"summary\": \"مكالمة عن مشكلة فوترة\"}\n```"}}
	service := NewService(llm, slog.Default())

	summary, err := service.SummarizeConversation(context.Background(), testSegments())
	require.NoError(t, err)
	require.Equal(t, "مكالمة عن مشكلة فوترة", summary)
}

func TestSummarizeConversationMalformedResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"I cannot produce JSON today"}}
	service := NewService(llm, slog.Default())

	summary, err := service.SummarizeConversation(context.Background(), testSegments())
	require.NoError(t, err)
	require.Empty(t, summary)
}

func TestSummarizeConversationProviderError(t *testing.T) {
	llm := &scriptedLLM{responses: []string{errSentinel}}
	service := NewService(llm, slog.Default())

	_, err := service.SummarizeConversation(context.Background(), testSegments())
	require.Error(t, err)
}

func TestAnalyzeEvents(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"events": [{"actor": "العميل", "action": "اشتكى من الفاتورة", "timestamp": 2.5}]}`,
	}}
	service := NewService(llm, slog.Default())

	events, err := service.AnalyzeEvents(context.Background(), testSegments())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "العميل", events[0].Actor)
	require.Equal(t, "اشتكى من الفاتورة", events[0].Action)
	require.Equal(t, 2.5, events[0].Timestamp)
}

func TestAnalyzeEventsMalformedResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"not json"}}
	service := NewService(llm, slog.Default())

	events, err := service.AnalyzeEvents(context.Background(), testSegments())
	require.NoError(t, err)
	require.NotNil(t, events)
	require.Empty(t, events)
}

func TestAnalyzeChecklist(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"matches": [{"segment": 1, "checklist_item": "التحية"}]}`,
	}}
	service := NewService(llm, slog.Default())

	annotated, err := service.AnalyzeChecklist(context.Background(), testSegments(), []string{"التحية", "التحقق من الهوية"})
	require.NoError(t, err)
	require.Len(t, annotated, 2)
	require.NotNil(t, annotated[0].ChecklistItem)
	require.Equal(t, "التحية", *annotated[0].ChecklistItem)
	require.Nil(t, annotated[1].ChecklistItem)
}

func TestAnalyzeChecklistMalformedResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"```\ngarbage\n```"}}
	service := NewService(llm, slog.Default())

	annotated, err := service.AnalyzeChecklist(context.Background(), testSegments(), []string{"التحية"})
	require.NoError(t, err)
	require.Len(t, annotated, 2)
	for _, segment := range annotated {
		require.Nil(t, segment.ChecklistItem)
	}
}

func TestAnalyzeChecklistDoesNotMutateInput(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"matches": [{"segment": 1, "checklist_item": "التحية"}]}`,
	}}
	service := NewService(llm, slog.Default())

	segments := testSegments()
	_, err := service.AnalyzeChecklist(context.Background(), segments, []string{"التحية"})
	require.NoError(t, err)
	require.Nil(t, segments[0].ChecklistItem)
}

func TestLabelSegments(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"label": "greeting"}`,
		`{"label": null}`,
	}}
	service := NewService(llm, slog.Default())

	labels := []models.LabelDefinition{
		{Name: "greeting", Description: "opening salutation"},
		{Name: "complaint", Description: "customer reports a problem"},
	}
	labeled, err := service.LabelSegments(context.Background(), testSegments(), labels)
	require.NoError(t, err)
	require.Len(t, labeled, 2)
	require.NotNil(t, labeled[0].Label)
	require.Equal(t, "greeting", *labeled[0].Label)
	require.Nil(t, labeled[1].Label)
}

func TestLabelSegmentsContinuesPastFailures(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		errSentinel,
		`{"label": "complaint"}`,
	}}
	service := NewService(llm, slog.Default())

	labels := []models.LabelDefinition{{Name: "complaint", Description: "customer reports a problem"}}
	labeled, err := service.LabelSegments(context.Background(), testSegments(), labels)
	require.NoError(t, err)
	require.Nil(t, labeled[0].Label)
	require.NotNil(t, labeled[1].Label)
	require.Equal(t, "complaint", *labeled[1].Label)
}

func TestLabelSegmentsMalformedResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"maybe greeting?"}}
	service := NewService(llm, slog.Default())

	segments := testSegments()[:1]
	labeled, err := service.LabelSegments(context.Background(), segments, []models.LabelDefinition{{Name: "greeting", Description: "opening"}})
	require.NoError(t, err)
	require.Nil(t, labeled[0].Label)
}
