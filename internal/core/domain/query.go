package domain

import "time"

// QueryCategory is the intent class assigned to a user question.
// The category selects the answer-formatting template; retrieval is the
// same for every category except the identifier short-circuit.
type QueryCategory string

// Query categories in precedence order. When a question matches several
// rule sets, the earliest-listed category wins.
const (
	CategoryOutcome         QueryCategory = "outcome"
	CategoryDiscovery       QueryCategory = "discovery"
	CategorySummary         QueryCategory = "summary"
	CategoryDetailedSummary QueryCategory = "detailed_summary"
	CategoryStatus          QueryCategory = "status"
	CategoryEligibility     QueryCategory = "eligibility"
	CategoryIntervention    QueryCategory = "intervention"
	CategoryGeneral         QueryCategory = "general"
)

// StructuredQuery is a filter object inferred from a natural-language
// question by the query analyzer. Every filter field is optional: a zero
// value means "no constraint", never a default guess.
type StructuredQuery struct {
	// ContentSearch is the similarity query applied to trial text.
	ContentSearch string `json:"content_search"`

	// TitleSearch is an alternate phrasing aimed at trial titles.
	TitleSearch string `json:"title_search"`

	// Comma-separated exact-match filters.
	Conditions    string `json:"conditions,omitempty"`
	Phase         string `json:"phase,omitempty"`
	Status        string `json:"status,omitempty"`
	Interventions string `json:"interventions,omitempty"`
	StudyType     string `json:"study_type,omitempty"`
	NCTID         string `json:"nct_id,omitempty"`

	// Start-date range. Earliest is inclusive, Latest exclusive.
	EarliestStartDate *time.Time `json:"earliest_start_date,omitempty"`
	LatestStartDate   *time.Time `json:"latest_start_date,omitempty"`
}

// Filter converts the populated exact-match fields into a metadata
// filter for the vector store. Date-range fields are not representable
// as equality filters and are left to post-retrieval handling.
func (q StructuredQuery) Filter() map[string]any {
	filter := make(map[string]any)
	if q.NCTID != "" {
		filter[MetaNCTID] = q.NCTID
	}
	if q.Status != "" {
		filter[MetaStatus] = q.Status
	}
	if q.Phase != "" {
		filter[MetaPhase] = q.Phase
	}
	if q.StudyType != "" {
		filter[MetaStudyType] = q.StudyType
	}
	if q.Conditions != "" {
		filter[MetaConditions] = q.Conditions
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}
