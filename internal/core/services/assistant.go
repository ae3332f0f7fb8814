package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/clinrag/clinrag-cli/internal/builder"
	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driving"
	"github.com/clinrag/clinrag-cli/internal/logger"
)

// Ensure Assistant implements the interface.
var _ driving.Assistant = (*Assistant)(nil)

// User-safe messages returned at the answer boundary. Provider faults
// never surface as raw errors to the caller.
const (
	msgNothingFound = "I couldn't find any relevant clinical trials for your query."
	msgProviderDown = "I apologize, but I couldn't reach the language model service. Please make sure Ollama is running and try again."
	msgTimeout      = "The language model took too long to respond. Please try again."
	msgMalformed    = "I apologize, but I received an unexpected response from the language model. Please try again."
)

// Verification sentinels expected on the first line of the judge output.
const (
	verdictVerified      = "VERIFIED"
	verdictHallucination = "HALLUCINATION_DETECTED"
)

// ingestBatchSize is the number of records processed per ingestion
// batch. Batches are independent: one failing batch is logged and
// skipped, the rest proceed (at-least-once ingestion).
const ingestBatchSize = 500

// Assistant is the retrieval-augmented answering pipeline. All methods
// are safe for use from a single request-handling goroutine; the usage
// counters carry their own lock so a concurrent caller cannot corrupt
// them.
type Assistant struct {
	store      driven.VectorStore
	llm        driven.LLMService
	prompts    driven.PromptStore
	builder    *builder.Builder
	classifier *QueryClassifier
	retriever  *Retriever
	analyzer   *QueryAnalyzer
	limiter    *rate.Limiter

	mu    sync.Mutex
	usage domain.UsageStats
}

// NewAssistant wires the pipeline. The analyzer is optional; see
// SetAnalyzer.
func NewAssistant(store driven.VectorStore, llm driven.LLMService, prompts driven.PromptStore, b *builder.Builder) *Assistant {
	return &Assistant{
		store:      store,
		llm:        llm,
		prompts:    prompts,
		builder:    b,
		classifier: NewQueryClassifier(),
		retriever:  NewRetriever(store),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		usage:      domain.NewUsageStats(),
	}
}

// SetAnalyzer enables the structured-query retrieval mode.
func (a *Assistant) SetAnalyzer(analyzer *QueryAnalyzer) {
	a.analyzer = analyzer
}

// SetIngestRate throttles ingestion batches to the given number of
// batches per second, protecting a local embedding server from bursts.
func (a *Assistant) SetIngestRate(perSecond float64) {
	if perSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// Answer retrieves context for the question and generates a verified
// answer. Provider failures are recovered to user-safe strings here;
// the error return is reserved for a cancelled context.
func (a *Assistant) Answer(ctx context.Context, query string) (string, error) {
	logger.Section("Answer")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return msgNothingFound, nil
	}

	if err := a.llm.Ping(ctx); err != nil {
		logger.Warn("LLM health probe failed: %v", err)
		return msgProviderDown, nil
	}

	filter := a.analyzeFilter(ctx, query)

	docs := a.retriever.Retrieve(ctx, query, filter)
	if len(docs) == 0 {
		logger.Info("No relevant documents retrieved")
		return msgNothingFound, nil
	}
	logger.Debug("Retrieved %d chunks", len(docs))

	category := a.classifier.Classify(query)
	logger.Info("Query category: %s", category)

	contextText := assembleContext(docs)
	prompt, err := a.buildPrompt(category, contextText, query)
	if err != nil {
		logger.Warn("Prompt assembly failed: %v", err)
		return msgMalformed, nil
	}

	answer, err := a.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.7})
	if err != nil {
		return a.recoverProviderError(err), ctx.Err()
	}

	final := a.verifyAnswer(ctx, contextText, query, answer)

	a.recordUsage(prompt, query, final)
	return final, nil
}

// analyzeFilter runs the optional query analyzer. Any failure means no
// filter, never a blocked answer.
func (a *Assistant) analyzeFilter(ctx context.Context, query string) map[string]any {
	if a.analyzer == nil {
		return nil
	}
	structured, err := a.analyzer.Analyze(ctx, query)
	if err != nil {
		logger.Warn("Query analysis failed, searching unfiltered: %v", err)
		return nil
	}
	return structured.Filter()
}

// buildPrompt loads the category template and fills in context and
// question.
func (a *Assistant) buildPrompt(category domain.QueryCategory, contextText, query string) (string, error) {
	template, err := a.prompts.Load(promptNameFor(category))
	if err != nil {
		return "", fmt.Errorf("load prompt for %s: %w", category, err)
	}
	return fmt.Sprintf(template, contextText, query), nil
}

// verifyAnswer asks the model to judge the answer against its own
// context, and regenerates once with a strengthened context-only
// instruction when the judge flags it. The regenerated answer is
// returned unconditionally: verify once, escalate once, never loop.
func (a *Assistant) verifyAnswer(ctx context.Context, contextText, query, answer string) string {
	verifyTemplate, err := a.prompts.Load(driven.PromptVerify)
	if err != nil {
		logger.Warn("Verification prompt unavailable, passing answer through: %v", err)
		return answer
	}

	verdict, err := a.llm.Generate(ctx, fmt.Sprintf(verifyTemplate, contextText, answer), driven.GenerateOptions{
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		logger.Warn("Verification call failed, passing answer through: %v", err)
		return answer
	}

	if !isHallucinationVerdict(verdict) {
		logger.Debug("Verification verdict: %s", verdictVerified)
		return answer
	}

	logger.Info("Hallucination detected, regenerating with context-only instruction")
	regenTemplate, err := a.prompts.Load(driven.PromptRegenerate)
	if err != nil {
		logger.Warn("Regeneration prompt unavailable: %v", err)
		return msgMalformed
	}

	regenerated, err := a.llm.Generate(ctx, fmt.Sprintf(regenTemplate, contextText, query), driven.GenerateOptions{
		Temperature: 0.2,
	})
	if err != nil {
		logger.Warn("Regeneration failed: %v", err)
		return a.recoverProviderError(err)
	}
	return regenerated
}

// isHallucinationVerdict inspects the first line of the judge output.
// Anything that is not an explicit hallucination verdict counts as
// verified, keeping the call bound at three.
func isHallucinationVerdict(verdict string) bool {
	firstLine := verdict
	if idx := strings.IndexByte(verdict, '\n'); idx >= 0 {
		firstLine = verdict[:idx]
	}
	return strings.Contains(strings.ToUpper(firstLine), verdictHallucination)
}

// recoverProviderError maps a provider failure to its user-safe string.
func (a *Assistant) recoverProviderError(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		logger.Warn("Provider timeout: %v", err)
		return msgTimeout
	case errors.Is(err, domain.ErrMalformedResponse):
		logger.Warn("Malformed provider response: %v", err)
		return msgMalformed
	default:
		logger.Warn("Provider unavailable: %v", err)
		return msgProviderDown
	}
}

// recordUsage updates the per-process counters after an answered query.
func (a *Assistant) recordUsage(prompt, query, answer string) {
	tokens := estimateTokens(prompt) + estimateTokens(query) + estimateTokens(answer)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.TotalQueries++
	a.usage.TotalTokens += tokens
	a.usage.QueriesByModel[a.llm.ModelName()]++
}

// estimateTokens is a rough word-based token estimate (about 1.3 tokens
// per word for English prose).
func estimateTokens(text string) int {
	return len(strings.Fields(text)) * 13 / 10
}

// assembleContext joins chunk contents into one context block, keeping
// per-trial chunk order and separating trials visibly.
func assembleContext(docs []domain.Document) string {
	var sb strings.Builder
	lastID := ""
	for i, doc := range docs {
		if i > 0 {
			if doc.NCTID() != lastID {
				sb.WriteString("\n\n=====\n\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(doc.Content)
		lastID = doc.NCTID()
	}
	return sb.String()
}

// promptNameFor maps a category to its template name.
func promptNameFor(category domain.QueryCategory) string {
	switch category {
	case domain.CategoryStatus:
		return driven.PromptStatus
	case domain.CategoryEligibility:
		return driven.PromptEligibility
	case domain.CategoryIntervention:
		return driven.PromptIntervention
	case domain.CategoryOutcome:
		return driven.PromptOutcome
	case domain.CategoryDiscovery:
		return driven.PromptDiscovery
	case domain.CategorySummary:
		return driven.PromptSummary
	case domain.CategoryDetailedSummary:
		return driven.PromptDetailedSummary
	default:
		return driven.PromptGeneral
	}
}

// AddTrials renders, chunks and indexes trial records in independent
// batches. A malformed record still yields placeholder-tagged documents
// and cannot abort its batch.
func (a *Assistant) AddTrials(ctx context.Context, records []domain.TrialRecord) error {
	if len(records) == 0 {
		return nil
	}

	runID := uuid.New().String()[:8]
	logger.Section("Ingestion " + runID)
	logger.Info("Ingesting %d records", len(records))

	var lastErr error
	ingested := 0
	for start := 0; start < len(records); start += ingestBatchSize {
		end := start + ingestBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}

		docs := a.builder.BuildBatch(batch)
		ids, err := a.store.Add(ctx, docs)
		if err != nil {
			logger.Warn("run %s: batch %d-%d failed: %v", runID, start, end, err)
			lastErr = err
			continue
		}
		ingested += len(ids)
		logger.Debug("run %s: wrote %d documents (%d records)", runID, len(ids), len(batch))
	}

	logger.Info("run %s: ingested %d documents", runID, ingested)
	if ingested == 0 && lastErr != nil {
		return fmt.Errorf("ingestion failed: %w", lastErr)
	}
	return nil
}

// Stats describes the vector store contents.
func (a *Assistant) Stats(ctx context.Context) (domain.StoreStats, error) {
	return a.store.Stats(ctx)
}

// UsageStats returns a copy of the usage counters.
func (a *Assistant) UsageStats() domain.UsageStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage.Clone()
}

// ResetUsageStats zeroes the usage counters.
func (a *Assistant) ResetUsageStats() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage = domain.NewUsageStats()
}

// Clear irreversibly empties the vector store.
func (a *Assistant) Clear(ctx context.Context) error {
	return a.store.Clear(ctx)
}
