package driven

import (
	"context"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
)

// VectorStore is an append-only keyed store of chunk documents with
// embedding-based similarity search.
//
// Write semantics: Add assigns a fresh unique id per document, coerces
// metadata to scalars, and writes in bounded batches. Partial batch
// failures do not roll back prior batches; ingestion is at-least-once.
// No read sees a partially written document.
type VectorStore interface {
	// Add stores the documents and returns the assigned ids in order.
	Add(ctx context.Context, docs []domain.Document) ([]string, error)

	// SimilaritySearch returns up to k nearest documents to the query
	// text, optionally narrowed by an exact-equality metadata filter
	// (conjunctive AND across fields). The empty query is valid and
	// means "match everything, ranked arbitrarily".
	//
	// Provider-level failures yield an empty slice, not an error:
	// callers treat an empty result as "nothing relevant".
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) []domain.Document

	// GetByID is a point lookup. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Document, error)

	// Clear irreversibly removes all documents.
	Clear(ctx context.Context) error

	// Stats describes the collection.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// Close releases resources.
	Close() error
}
