// Package memory provides an in-memory vector store used in tests and
// as a fallback when no persistence directory is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
	"github.com/clinrag/clinrag-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type entry struct {
	id        string
	doc       domain.Document
	embedding []float32
}

// Store is an in-memory implementation of driven.VectorStore.
type Store struct {
	embedder driven.EmbeddingService

	mu      sync.RWMutex
	entries []entry
	byID    map[string]int
	seq     uint64
}

// NewStore creates an empty in-memory store. The embedder may be nil,
// in which case search ranks by insertion order.
func NewStore(embedder driven.EmbeddingService) *Store {
	return &Store{
		embedder: embedder,
		byID:     make(map[string]int),
	}
}

// Add stores the documents and returns their assigned ids.
func (s *Store) Add(ctx context.Context, docs []domain.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(docs))
	if s.embedder != nil {
		texts := make([]string, len(docs))
		for i, doc := range docs {
			texts[i] = doc.Content
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch: %w", err)
		}
		embeddings = batch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		s.seq++
		id := fmt.Sprintf("doc_%d_%06d", time.Now().UnixNano(), s.seq)
		ids[i] = id
		s.byID[id] = len(s.entries)
		s.entries = append(s.entries, entry{
			id:        id,
			doc:       domain.Document{Content: doc.Content, Metadata: domain.CoerceMetadata(doc.Metadata)},
			embedding: embeddings[i],
		})
	}
	return ids, nil
}

// SimilaritySearch returns up to k documents matching the filter,
// ranked by cosine similarity to the query.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) []domain.Document {
	if k <= 0 {
		return nil
	}

	var queryVec []float32
	if query != "" && s.embedder != nil {
		var err error
		queryVec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			logger.Warn("query embedding failed: %v", err)
			return nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   domain.Document
		score float64
	}
	var candidates []scored
	for _, e := range s.entries {
		if !matchesFilter(e.doc.Metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{
			doc:   e.doc,
			score: cosineSimilarity(queryVec, e.embedding),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	docs := make([]domain.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.doc
	}
	return docs
}

// GetByID is a point lookup by assigned id.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.entries[idx].doc
	return &doc, nil
}

// Clear removes all documents.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.byID = make(map[string]int)
	return nil
}

// Stats describes the collection.
func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.StoreStats{
		TotalDocuments:   len(s.entries),
		CollectionName:   "clinical_trials",
		PersistDirectory: ":memory:",
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matchesFilter reports whether metadata satisfies every filter field
// (conjunctive AND, exact equality on the coerced scalar forms).
func matchesFilter(metadata, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", domain.CoerceScalar(got)) != fmt.Sprintf("%v", domain.CoerceScalar(want)) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
