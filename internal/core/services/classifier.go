package services

import (
	"regexp"
	"strings"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
)

// classifierRule pairs a keyword pattern with the category it selects.
type classifierRule struct {
	category domain.QueryCategory
	pattern  *regexp.Regexp
}

// classifierRules are evaluated in order; the first match wins. Outcome
// keywords are checked before discovery, discovery before the summary
// pair, so queries matching several categories resolve deterministically.
// Detailed-summary precedes summary because its keywords subsume them.
var classifierRules = []classifierRule{
	{domain.CategoryOutcome, regexp.MustCompile(`\b(outcome|outcomes|result|results|endpoint|endpoints|measure|measures|assessment|evaluation)\b`)},
	{domain.CategoryDiscovery, regexp.MustCompile(`\b(find|search|discover|list|looking for|show me|which trials|any trials|trials for|trials about)\b`)},
	{domain.CategoryDetailedSummary, regexp.MustCompile(`\b(detailed summary|comprehensive|exhaustive|in depth|everything about|full details)\b`)},
	{domain.CategorySummary, regexp.MustCompile(`\b(summary|summarize|summarise|overview|brief|condense)\b`)},
	{domain.CategoryStatus, regexp.MustCompile(`\b(status|phase|stage|current state|recruiting|completed|terminated|suspended|withdrawn)\b`)},
	{domain.CategoryEligibility, regexp.MustCompile(`\b(eligible|eligibility|criteria|requirements|inclusion|exclusion|age|gender|qualify)\b`)},
	{domain.CategoryIntervention, regexp.MustCompile(`\b(intervention|treatment|drug|therapy|medication|dose|dosage|administration|placebo)\b`)},
}

// QueryClassifier maps a free-text question to a query category.
// Classification is pure keyword matching over the lower-cased text;
// the category selects the answer template, not the retrieval path.
type QueryClassifier struct {
	rules []classifierRule
}

// NewQueryClassifier creates a classifier with the default rule table.
func NewQueryClassifier() *QueryClassifier {
	return &QueryClassifier{rules: classifierRules}
}

// Classify returns the category for a question, CategoryGeneral when no
// rule matches.
func (c *QueryClassifier) Classify(query string) domain.QueryCategory {
	lowered := strings.ToLower(query)
	for _, rule := range c.rules {
		if rule.pattern.MatchString(lowered) {
			return rule.category
		}
	}
	return domain.CategoryGeneral
}
