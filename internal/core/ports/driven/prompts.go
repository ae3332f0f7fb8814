package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Each answer template expects two %s
// placeholders: retrieved context, then the user question.
const (
	// Per-category answer templates.
	PromptStatus          = "answer_status"
	PromptEligibility     = "answer_eligibility"
	PromptIntervention    = "answer_intervention"
	PromptOutcome         = "answer_outcome"
	PromptDiscovery       = "answer_discovery"
	PromptSummary         = "answer_summary"
	PromptDetailedSummary = "answer_detailed_summary"
	PromptGeneral         = "answer_general"

	// PromptVerify judges whether an answer is supported by the context.
	// Placeholders: context, answer.
	PromptVerify = "verify"

	// PromptRegenerate is the strengthened context-only template used
	// after a failed verification. Placeholders: context, question.
	PromptRegenerate = "regenerate"

	// PromptAnalyze extracts a structured filter from a question.
	// Placeholder: question.
	PromptAnalyze = "analyze_query"
)
