package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinrag/clinrag-cli/internal/builder"
	"github.com/clinrag/clinrag-cli/internal/core/domain"
)

// populatedStore returns a store whose searches surface one trial.
func populatedStore() *mockStore {
	return &mockStore{
		searchFn: func(_ string, _ int, _ map[string]any) []domain.Document {
			return []domain.Document{
				chunkDoc("NCT01234567", 0, 1, "Aspirin trial, recruiting."),
			}
		},
	}
}

func newTestAssistant(store *mockStore, llm *mockLLM) *Assistant {
	return NewAssistant(store, llm, &mockPrompts{}, builder.New())
}

func TestAnswer_VerifiedAnswer(t *testing.T) {
	llm := &mockLLM{responses: []string{"The trial is recruiting.", "VERIFIED"}}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "What is the status of NCT01234567?")
	require.NoError(t, err)
	assert.Equal(t, "The trial is recruiting.", answer)
	assert.Equal(t, 2, llm.calls)
}

func TestAnswer_HallucinationRegeneratesOnce(t *testing.T) {
	llm := &mockLLM{responses: []string{
		"The trial cures everything.",
		"HALLUCINATION_DETECTED",
		"The context does not state efficacy results.",
	}}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "Does the aspirin trial work?")
	require.NoError(t, err)
	assert.Equal(t, "The context does not state efficacy results.", answer)
	assert.Equal(t, 3, llm.calls)
}

func TestAnswer_RegeneratedAnswerNotReverified(t *testing.T) {
	// A fourth response would be returned if the loop re-verified.
	llm := &mockLLM{responses: []string{
		"wrong", "HALLUCINATION_DETECTED", "still shaky", "HALLUCINATION_DETECTED",
	}}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "anything about the trial")
	require.NoError(t, err)
	assert.Equal(t, "still shaky", answer)
	assert.LessOrEqual(t, llm.calls, 3)
}

func TestAnswer_VerifierErrorTreatedAsVerified(t *testing.T) {
	llm := &mockLLM{
		responses: []string{"The trial is recruiting.", ""},
		errs:      []error{nil, domain.ErrProviderTimeout},
	}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	assert.Equal(t, "The trial is recruiting.", answer)
}

func TestAnswer_UnrecognisableVerdictTreatedAsVerified(t *testing.T) {
	llm := &mockLLM{responses: []string{"The trial is recruiting.", "maybe?"}}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	assert.Equal(t, "The trial is recruiting.", answer)
}

func TestAnswer_VerdictMatchedCaseInsensitiveFirstLine(t *testing.T) {
	llm := &mockLLM{responses: []string{
		"answer one",
		"hallucination_detected\nbecause of reasons",
		"grounded answer",
	}}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
}

func TestAnswer_PingFailureReturnsApology(t *testing.T) {
	llm := &mockLLM{pingErr: domain.ErrProviderUnavailable}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	assert.Contains(t, answer, "Ollama")
	assert.Zero(t, llm.calls)
}

func TestAnswer_NoRetrievalResults(t *testing.T) {
	llm := &mockLLM{}
	a := newTestAssistant(&mockStore{}, llm)

	answer, err := a.Answer(context.Background(), "obscure question")
	require.NoError(t, err)
	assert.Equal(t, msgNothingFound, answer)
	assert.Zero(t, llm.calls)
}

func TestAnswer_EmptyQuery(t *testing.T) {
	a := newTestAssistant(populatedStore(), &mockLLM{})

	answer, err := a.Answer(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, msgNothingFound, answer)
}

func TestAnswer_GenerateTimeoutRecovered(t *testing.T) {
	llm := &mockLLM{errs: []error{domain.ErrProviderTimeout}}
	a := newTestAssistant(populatedStore(), llm)

	answer, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	assert.Equal(t, msgTimeout, answer)
}

func TestAnswer_PromptContainsContextAndQuestion(t *testing.T) {
	llm := &mockLLM{responses: []string{"ok", "VERIFIED"}}
	a := newTestAssistant(populatedStore(), llm)

	_, err := a.Answer(context.Background(), "What is the status of the aspirin trial?")
	require.NoError(t, err)

	require.NotEmpty(t, llm.prompts)
	assert.Contains(t, llm.prompts[0], "Aspirin trial, recruiting.")
	assert.Contains(t, llm.prompts[0], "What is the status of the aspirin trial?")
	// Status keywords select the status template.
	assert.True(t, strings.HasPrefix(llm.prompts[0], "answer_status|"))
}

func TestAnswer_AnalyzerFailureDegradesToUnfiltered(t *testing.T) {
	store := populatedStore()
	answerLLM := &mockLLM{responses: []string{"fine", "VERIFIED"}}
	a := newTestAssistant(store, answerLLM)

	// The analyzer shares the LLM; its first scripted call fails.
	analyzerLLM := &mockLLM{errs: []error{domain.ErrProviderUnavailable}}
	a.SetAnalyzer(NewQueryAnalyzer(analyzerLLM, &mockPrompts{}))

	answer, err := a.Answer(context.Background(), "recruiting trials question")
	require.NoError(t, err)
	assert.Equal(t, "fine", answer)
}

func TestAnswer_UsageCounters(t *testing.T) {
	llm := &mockLLM{responses: []string{"The trial is recruiting.", "VERIFIED"}, model: "mistral"}
	a := newTestAssistant(populatedStore(), llm)

	_, err := a.Answer(context.Background(), "status of the trial?")
	require.NoError(t, err)

	usage := a.UsageStats()
	assert.Equal(t, 1, usage.TotalQueries)
	assert.Positive(t, usage.TotalTokens)
	assert.Equal(t, 1, usage.QueriesByModel["mistral"])
}

func TestAnswer_FailedAnswerNotCounted(t *testing.T) {
	llm := &mockLLM{pingErr: domain.ErrProviderUnavailable}
	a := newTestAssistant(populatedStore(), llm)

	_, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	assert.Zero(t, a.UsageStats().TotalQueries)
}

func TestResetUsageStats(t *testing.T) {
	llm := &mockLLM{responses: []string{"ok", "VERIFIED"}}
	a := newTestAssistant(populatedStore(), llm)

	_, err := a.Answer(context.Background(), "status?")
	require.NoError(t, err)
	require.Equal(t, 1, a.UsageStats().TotalQueries)

	a.ResetUsageStats()
	usage := a.UsageStats()
	assert.Zero(t, usage.TotalQueries)
	assert.Zero(t, usage.TotalTokens)
	assert.Empty(t, usage.QueriesByModel)
}

func TestAddTrials_BuildsAndStores(t *testing.T) {
	store := &mockStore{}
	a := newTestAssistant(store, &mockLLM{})

	records := []domain.TrialRecord{
		{NCTID: "NCT00000001", Title: "First"},
		{NCTID: "NCT00000002", Title: "Second"},
	}
	require.NoError(t, a.AddTrials(context.Background(), records))

	require.Len(t, store.added, 1)
	ids := map[any]bool{}
	for _, doc := range store.added[0] {
		ids[doc.Metadata[domain.MetaNCTID]] = true
	}
	assert.True(t, ids["NCT00000001"])
	assert.True(t, ids["NCT00000002"])
}

func TestAddTrials_EmptyInputIsNoop(t *testing.T) {
	store := &mockStore{}
	a := newTestAssistant(store, &mockLLM{})

	require.NoError(t, a.AddTrials(context.Background(), nil))
	assert.Empty(t, store.added)
}

func TestAddTrials_AllBatchesFailing(t *testing.T) {
	store := &mockStore{addErr: domain.ErrProviderUnavailable}
	a := newTestAssistant(store, &mockLLM{})

	err := a.AddTrials(context.Background(), []domain.TrialRecord{{NCTID: "NCT00000001"}})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClear_DelegatesToStore(t *testing.T) {
	store := populatedStore()
	a := newTestAssistant(store, &mockLLM{})

	require.NoError(t, a.Clear(context.Background()))
	assert.True(t, store.cleared)
}

func TestStats_DelegatesToStore(t *testing.T) {
	store := &mockStore{stats: domain.StoreStats{TotalDocuments: 12, CollectionName: "clinical_trials"}}
	a := newTestAssistant(store, &mockLLM{})

	stats, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalDocuments)
}
