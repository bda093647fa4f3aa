package analysis_service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sawtline/callsight/models"
	"github.com/sawtline/callsight/services/llm_service"
)

// Service derives structured insights from call transcripts through
// prompt-templated LLM calls. Malformed model output never propagates as a
// parse error: every method degrades to its documented default instead
// (empty summary, empty events, no matches, nil label).
type Service struct {
	llm    llm_service.LLMService
	logger *slog.Logger
}

func NewService(llm llm_service.LLMService, logger *slog.Logger) *Service {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

// SummarizeConversation returns a one-paragraph Arabic summary of the call,
// or an empty string when the model response cannot be parsed.
func (s *Service) SummarizeConversation(ctx context.Context, segments []models.TranscriptSegment) (string, error) {
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		lines = append(lines, fmt.Sprintf("[%s]: %s", segment.Speaker, segment.Text))
	}

	response, err := s.llm.Chat(ctx, []llm_service.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: summaryPrompt + strings.Join(lines, "\n")},
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(llm_service.StripCodeFences(response)), &result); err != nil {
		s.logger.Warn("Failed to parse summary response, returning empty summary",
			slog.String("error", err.Error()))
		return "", nil
	}

	return result.Summary, nil
}

// AnalyzeEvents identifies up to three key events in the conversation. A
// malformed model response yields an empty event list.
func (s *Service) AnalyzeEvents(ctx context.Context, segments []models.TranscriptSegment) ([]models.KeyEvent, error) {
	conversationJSON, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal segments: %w", err)
	}

	response, err := s.llm.Chat(ctx, []llm_service.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: eventsPrompt + string(conversationJSON)},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Events []models.KeyEvent `json:"events"`
	}
	if err := json.Unmarshal([]byte(llm_service.StripCodeFences(response)), &result); err != nil {
		s.logger.Warn("Failed to parse events response, returning empty list",
			slog.String("error", err.Error()))
		return []models.KeyEvent{}, nil
	}

	if result.Events == nil {
		return []models.KeyEvent{}, nil
	}
	return result.Events, nil
}

// AnalyzeChecklist matches segments against checklist items and annotates
// each matched segment with its item. Unparseable model output leaves all
// segments unannotated.
func (s *Service) AnalyzeChecklist(ctx context.Context, segments []models.TranscriptSegment, checklist []string) ([]models.TranscriptSegment, error) {
	numbered := make([]string, 0, len(segments))
	for i, segment := range segments {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, segment.Text))
	}
	items := make([]string, 0, len(checklist))
	for _, item := range checklist {
		items = append(items, "- "+item)
	}

	prompt := fmt.Sprintf(checklistPromptTemplate, strings.Join(numbered, "\n"), strings.Join(items, "\n"))
	response, err := s.llm.Chat(ctx, []llm_service.Message{
		{Role: "system", Content: labelingSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Matches []struct {
			Segment       int    `json:"segment"`
			ChecklistItem string `json:"checklist_item"`
		} `json:"matches"`
	}
	if err := json.Unmarshal([]byte(llm_service.StripCodeFences(response)), &result); err != nil {
		s.logger.Warn("Failed to parse checklist response, returning segments unannotated",
			slog.String("error", err.Error()))
		result.Matches = nil
	}

	matches := make(map[int]string, len(result.Matches))
	for _, match := range result.Matches {
		matches[match.Segment] = match.ChecklistItem
	}

	annotated := make([]models.TranscriptSegment, len(segments))
	copy(annotated, segments)
	for i := range annotated {
		if item, ok := matches[i+1]; ok {
			value := item
			annotated[i].ChecklistItem = &value
		} else {
			annotated[i].ChecklistItem = nil
		}
	}

	return annotated, nil
}

// LabelSegments assigns at most one label per segment, conservatively. A
// per-segment provider or parse failure leaves that segment unlabeled and
// processing continues.
func (s *Service) LabelSegments(ctx context.Context, segments []models.TranscriptSegment, labels []models.LabelDefinition) ([]models.TranscriptSegment, error) {
	descriptions := make([]string, 0, len(labels))
	for _, label := range labels {
		descriptions = append(descriptions, fmt.Sprintf("- %s: %s", label.Name, label.Description))
	}
	labelBlock := strings.Join(descriptions, "\n")

	labeled := make([]models.TranscriptSegment, len(segments))
	copy(labeled, segments)

	for i := range labeled {
		prompt := fmt.Sprintf(labelingPromptTemplate, labelBlock, labeled[i].Speaker, labeled[i].Text)
		response, err := s.llm.Chat(ctx, []llm_service.Message{
			{Role: "system", Content: labelingSystemPrompt},
			{Role: "user", Content: prompt},
		})
		if err != nil {
			s.logger.Warn("Labeling call failed for segment, leaving unlabeled",
				slog.Int("segment", i),
				slog.String("error", err.Error()))
			labeled[i].Label = nil
			continue
		}

		var result struct {
			Label *string `json:"label"`
		}
		if err := json.Unmarshal([]byte(llm_service.StripCodeFences(response)), &result); err != nil {
			s.logger.Warn("Failed to parse label response, leaving segment unlabeled",
				slog.Int("segment", i),
				slog.String("error", err.Error()))
			labeled[i].Label = nil
			continue
		}

		labeled[i].Label = result.Label
	}

	return labeled, nil
}
