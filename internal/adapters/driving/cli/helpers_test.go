package cli

import (
	"context"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
)

// mockAssistant is a scriptable driving.Assistant for command tests.
type mockAssistant struct {
	answer      string
	answerErr   error
	lastQuery   string
	addedCount  int
	addErr      error
	stats       domain.StoreStats
	statsErr    error
	usage       domain.UsageStats
	resetCalled bool
	cleared     bool
	clearErr    error
}

func (m *mockAssistant) Answer(_ context.Context, query string) (string, error) {
	m.lastQuery = query
	return m.answer, m.answerErr
}

func (m *mockAssistant) AddTrials(_ context.Context, records []domain.TrialRecord) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.addedCount += len(records)
	return nil
}

func (m *mockAssistant) Stats(context.Context) (domain.StoreStats, error) {
	return m.stats, m.statsErr
}

func (m *mockAssistant) UsageStats() domain.UsageStats {
	return m.usage.Clone()
}

func (m *mockAssistant) ResetUsageStats() {
	m.resetCalled = true
}

func (m *mockAssistant) Clear(context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	return nil
}

// setupTestAssistant swaps in a mock and returns it with a cleanup that
// restores the previous wiring.
func setupTestAssistant() (*mockAssistant, func()) {
	mock := &mockAssistant{}
	old := assistant
	assistant = mock
	return mock, func() {
		assistant = old
	}
}
