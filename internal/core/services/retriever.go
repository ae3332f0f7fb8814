package services

import (
	"context"
	"regexp"
	"sort"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
	"github.com/clinrag/clinrag-cli/internal/logger"
)

// nctPattern recognises registry trial identifiers in free text.
var nctPattern = regexp.MustCompile(`NCT\d{8}`)

const (
	// discoveryTopK is the number of chunks used to discover relevant
	// trials before their full chunk sets are pulled.
	discoveryTopK = 5

	// maxChunksPerTrial caps the per-identifier fetch. Generous: a
	// trial narrative at default chunking never comes close.
	maxChunksPerTrial = 50
)

// Retriever resolves a question to retrieval context. A question naming
// a trial identifier short-circuits to that trial's complete chunk set;
// otherwise a discovery search finds the relevant trials and every one
// of their chunks is pulled, so the model never sees a truncated trial.
type Retriever struct {
	store driven.VectorStore
}

// NewRetriever creates a retriever over the store.
func NewRetriever(store driven.VectorStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns the context documents for a question. The filter is
// optional and narrows the discovery search only. An empty result means
// the discovery search itself surfaced nothing.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter map[string]any) []domain.Document {
	if id := nctPattern.FindString(query); id != "" {
		logger.Debug("identifier short-circuit: %s", id)
		return r.TrialChunks(ctx, id)
	}

	hits := r.store.SimilaritySearch(ctx, query, discoveryTopK, filter)
	if len(hits) == 0 {
		return nil
	}

	ids := distinctTrialIDs(hits)
	logger.Debug("discovery surfaced %d trials from %d hits", len(ids), len(hits))

	var docs []domain.Document
	for _, id := range ids {
		docs = append(docs, r.TrialChunks(ctx, id)...)
	}
	return docs
}

// TrialChunks fetches the complete chunk set for one trial identifier,
// ordered by chunk index. If the filtered fetch returns nothing, an
// unfiltered search is matched manually against the metadata; this
// compensates for filter inconsistencies in some store backends.
func (r *Retriever) TrialChunks(ctx context.Context, nctID string) []domain.Document {
	chunks := r.store.SimilaritySearch(ctx, "", maxChunksPerTrial, map[string]any{
		domain.MetaNCTID: nctID,
	})

	if len(chunks) == 0 {
		for _, doc := range r.store.SimilaritySearch(ctx, nctID, maxChunksPerTrial, nil) {
			if doc.NCTID() == nctID {
				chunks = append(chunks, doc)
			}
		}
	}

	return orderByChunkIndex(chunks)
}

// distinctTrialIDs extracts the unique identifiers from discovery hits,
// sorted for a deterministic final context order.
func distinctTrialIDs(docs []domain.Document) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, doc := range docs {
		id := doc.NCTID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// orderByChunkIndex sorts ascending by chunk_index. If any chunk lacks
// a numeric index the original retrieval order is preserved instead.
func orderByChunkIndex(docs []domain.Document) []domain.Document {
	for _, doc := range docs {
		if doc.ChunkIndex() < 0 {
			return docs
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ChunkIndex() < docs[j].ChunkIndex()
	})
	return docs
}
