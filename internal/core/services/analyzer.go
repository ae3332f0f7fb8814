package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
	"github.com/clinrag/clinrag-cli/internal/logger"
)

// QueryAnalyzer converts a natural-language question into a structured
// filter using the language-model capability. It is an optional,
// advanced retrieval mode: any failure degrades to unfiltered search
// rather than blocking the answer.
type QueryAnalyzer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewQueryAnalyzer creates an analyzer.
func NewQueryAnalyzer(llm driven.LLMService, prompts driven.PromptStore) *QueryAnalyzer {
	return &QueryAnalyzer{llm: llm, prompts: prompts}
}

// rawStructuredQuery mirrors the JSON the model is asked to return;
// dates arrive as strings and are parsed separately.
type rawStructuredQuery struct {
	ContentSearch     string `json:"content_search"`
	TitleSearch       string `json:"title_search"`
	Conditions        string `json:"conditions"`
	Phase             string `json:"phase"`
	Status            string `json:"status"`
	Interventions     string `json:"interventions"`
	StudyType         string `json:"study_type"`
	NCTID             string `json:"nct_id"`
	EarliestStartDate string `json:"earliest_start_date"`
	LatestStartDate   string `json:"latest_start_date"`
}

// Analyze extracts a structured query from the question. Only fields
// the model explicitly populated end up set; everything else stays zero
// (no constraint).
func (a *QueryAnalyzer) Analyze(ctx context.Context, query string) (*domain.StructuredQuery, error) {
	template, err := a.prompts.Load(driven.PromptAnalyze)
	if err != nil {
		return nil, fmt.Errorf("load analyze prompt: %w", err)
	}

	response, err := a.llm.Generate(ctx, fmt.Sprintf(template, query), driven.GenerateOptions{
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze query: %w", err)
	}

	payload, err := extractJSONObject(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	var raw rawStructuredQuery
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode structured query: %v", domain.ErrMalformedResponse, err)
	}

	structured := &domain.StructuredQuery{
		ContentSearch: strings.TrimSpace(raw.ContentSearch),
		TitleSearch:   strings.TrimSpace(raw.TitleSearch),
		Conditions:    strings.TrimSpace(raw.Conditions),
		Phase:         strings.TrimSpace(raw.Phase),
		Status:        strings.TrimSpace(raw.Status),
		Interventions: strings.TrimSpace(raw.Interventions),
		StudyType:     strings.TrimSpace(raw.StudyType),
		NCTID:         strings.TrimSpace(raw.NCTID),
	}
	structured.EarliestStartDate = parseDate(raw.EarliestStartDate)
	structured.LatestStartDate = parseDate(raw.LatestStartDate)

	logger.Debug("structured query: %+v", *structured)
	return structured, nil
}

// extractJSONObject pulls the first JSON object out of a model response
// that may be wrapped in prose or code fences.
func extractJSONObject(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return response[start : end+1], nil
}

// parseDate accepts ISO dates; anything else means "no constraint".
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &parsed
}
