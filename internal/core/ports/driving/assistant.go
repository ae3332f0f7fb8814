package driving

import (
	"context"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
)

// Assistant is the entry point consumed by the CLI (and any future UI
// layer). All calls are synchronous; each question is handled end to end
// before the next is accepted.
type Assistant interface {
	// Answer retrieves relevant trial context and generates a grounded
	// answer to a natural-language question. Provider failures are
	// recovered to user-safe strings at this boundary; the error return
	// is reserved for programming errors such as a cancelled context.
	Answer(ctx context.Context, query string) (string, error)

	// AddTrials normalises, renders, chunks and indexes trial records.
	AddTrials(ctx context.Context, records []domain.TrialRecord) error

	// Stats describes the vector store contents.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// UsageStats returns a copy of the process-wide usage counters.
	UsageStats() domain.UsageStats

	// ResetUsageStats zeroes the usage counters.
	ResetUsageStats()

	// Clear irreversibly empties the vector store.
	Clear(ctx context.Context) error
}
