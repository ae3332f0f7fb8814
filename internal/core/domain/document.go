package domain

import (
	"fmt"
	"strconv"
)

// Metadata keys carried by every chunk document.
const (
	MetaNCTID       = "nct_id"
	MetaTitle       = "title"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaStatus      = "status"
	MetaPhase       = "phase"
	MetaStudyType   = "study_type"
	MetaConditions  = "conditions"
)

// Document is one chunk of rendered trial text plus provenance metadata.
// It is the unit stored in and retrieved from the vector store.
//
// Invariants: Metadata[MetaNCTID] is present and non-empty (the literal
// "N/A" marks a record that arrived without an identifier), and
// 0 <= chunk_index < total_chunks. Metadata values are scalars only;
// CoerceScalar enforces this at write time.
type Document struct {
	// Content is the chunk text.
	Content string

	// Metadata contains scalar provenance values keyed by the Meta*
	// constants above.
	Metadata map[string]any
}

// ChunkIndex returns the chunk position, or -1 if the metadata value is
// missing or not numeric. Callers fall back to original retrieval order
// on -1 rather than failing.
func (d Document) ChunkIndex() int {
	return metaInt(d.Metadata, MetaChunkIndex)
}

// TotalChunks returns the total chunk count for the document's trial,
// or -1 if missing or non-numeric.
func (d Document) TotalChunks() int {
	return metaInt(d.Metadata, MetaTotalChunks)
}

// NCTID returns the trial identifier, or "" if absent.
func (d Document) NCTID() string {
	s, _ := d.Metadata[MetaNCTID].(string)
	return s
}

func metaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return -1
}

// CoerceScalar maps an arbitrary metadata value onto the three permitted
// scalar kinds (string, number, bool). The mapping is total: anything
// that is not already a scalar is rendered with its default string form.
func CoerceScalar(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// CoerceMetadata returns a copy of m with every value passed through
// CoerceScalar. A nil map yields an empty, non-nil map so stores never
// persist nil metadata.
func CoerceMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CoerceScalar(v)
	}
	return out
}
