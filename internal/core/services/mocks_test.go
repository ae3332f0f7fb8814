package services

import (
	"context"
	"fmt"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
)

// mockLLM scripts Generate responses in call order and counts calls.
type mockLLM struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
	pingErr   error
	model     string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	idx := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)

	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "", fmt.Errorf("%w: unscripted call %d", domain.ErrMalformedResponse, idx)
}

func (m *mockLLM) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-model"
}

func (m *mockLLM) Ping(context.Context) error { return m.pingErr }
func (m *mockLLM) Close() error               { return nil }

// mockPrompts serves simple placeholder templates so tests can see what
// went into each prompt.
type mockPrompts struct {
	loadErr   error
	overrides map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if tpl, ok := m.overrides[name]; ok {
		return tpl, nil
	}
	if name == driven.PromptAnalyze {
		return "analyze(%s)", nil
	}
	return name + "|%s|%s", nil
}

func (m *mockPrompts) Reload() {}

// mockStore is a scriptable vector store.
type mockStore struct {
	searchFn func(query string, k int, filter map[string]any) []domain.Document
	added    [][]domain.Document
	addErr   error
	cleared  bool
	stats    domain.StoreStats
}

func (m *mockStore) Add(_ context.Context, docs []domain.Document) ([]string, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.added = append(m.added, docs)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = fmt.Sprintf("doc_%d_%06d", len(m.added), i)
	}
	return ids, nil
}

func (m *mockStore) SimilaritySearch(_ context.Context, query string, k int, filter map[string]any) []domain.Document {
	if m.searchFn == nil {
		return nil
	}
	return m.searchFn(query, k, filter)
}

func (m *mockStore) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) Clear(context.Context) error {
	m.cleared = true
	return nil
}

func (m *mockStore) Stats(context.Context) (domain.StoreStats, error) {
	return m.stats, nil
}

func (m *mockStore) Close() error { return nil }

// chunkDoc builds a chunk document for retrieval tests.
func chunkDoc(nctID string, index, total int, content string) domain.Document {
	return domain.Document{
		Content: content,
		Metadata: map[string]any{
			domain.MetaNCTID:       nctID,
			domain.MetaChunkIndex:  index,
			domain.MetaTotalChunks: total,
		},
	}
}
