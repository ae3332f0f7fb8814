package domain

import "time"

// UsageStats holds per-process query and token counters. They live for
// the lifetime of the assistant instance and are not persisted.
type UsageStats struct {
	TotalQueries   int            `json:"total_queries"`
	TotalTokens    int            `json:"total_tokens"`
	QueriesByModel map[string]int `json:"queries_by_model"`
	LastReset      time.Time      `json:"last_reset"`
}

// NewUsageStats returns zeroed counters stamped with the current time.
func NewUsageStats() UsageStats {
	return UsageStats{
		QueriesByModel: make(map[string]int),
		LastReset:      time.Now(),
	}
}

// Clone returns a deep copy so callers can read counters without
// holding the owner's lock.
func (s UsageStats) Clone() UsageStats {
	out := s
	out.QueriesByModel = make(map[string]int, len(s.QueriesByModel))
	for k, v := range s.QueriesByModel {
		out.QueriesByModel[k] = v
	}
	return out
}

// StoreStats describes the vector store contents.
type StoreStats struct {
	TotalDocuments   int    `json:"total_documents"`
	CollectionName   string `json:"collection_name"`
	PersistDirectory string `json:"persist_directory"`
}
