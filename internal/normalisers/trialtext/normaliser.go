// Package trialtext cleans raw registry field text before rendering and
// chunking. It unescapes HTML, strips tags, collapses whitespace and
// expands a fixed table of medical dosing abbreviations.
package trialtext

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"time"
)

// NotAvailable is the placeholder for missing field values. It keeps
// section layout stable so chunk boundaries are deterministic across runs.
const NotAvailable = "N/A"

// Pre-compiled regular expressions for cleaning performance.
var (
	htmlTags      = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n\s*\n`)
)

// abbreviation pairs are applied longest-first so that e.g. "q.12h."
// never gets clobbered by a shorter "q.h." expansion.
var abbreviations = []struct{ from, to string }{
	{"e.g.", "for example"},
	{"i.e.", "that is"},
	{"vs.", "versus"},
	{"w/o", "without"},
	{"w/", "with"},
	{"q.d.", "once daily"},
	{"b.i.d.", "twice daily"},
	{"t.i.d.", "three times daily"},
	{"q.i.d.", "four times daily"},
	{"q.h.", "every hour"},
	{"q.4h.", "every 4 hours"},
	{"q.6h.", "every 6 hours"},
	{"q.8h.", "every 8 hours"},
	{"q.12h.", "every 12 hours"},
	{"q.24h.", "every 24 hours"},
	{"p.o.", "by mouth"},
	{"p.r.n.", "as needed"},
	{"p.r.", "by rectum"},
	{"i.v.", "intravenous"},
	{"i.m.", "intramuscular"},
	{"s.c.", "subcutaneous"},
}

func init() {
	// Stable longest-first order regardless of declaration order above.
	sort.SliceStable(abbreviations, func(i, j int) bool {
		return len(abbreviations[i].from) > len(abbreviations[j].from)
	})
}

// Clean normalises a raw field string: HTML entities are decoded, tags
// stripped, whitespace runs collapsed to one space, blank-line runs to a
// single blank line, abbreviations expanded, outer whitespace trimmed.
// The NotAvailable sentinel passes through unchanged.
func Clean(text string) string {
	if text == "" || text == NotAvailable {
		return NotAvailable
	}

	text = html.UnescapeString(text)
	text = htmlTags.ReplaceAllString(text, " ")
	text = multiSpaces.ReplaceAllString(text, " ")
	text = multiNewlines.ReplaceAllString(text, "\n\n")

	for _, abbr := range abbreviations {
		text = strings.ReplaceAll(text, abbr.from, abbr.to)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return NotAvailable
	}
	return text
}

// FormatDate re-renders an ISO YYYY-MM-DD date as a long-form date
// ("January 02, 2006"). Anything that does not parse is returned
// unchanged; this function never fails.
func FormatDate(dateStr string) string {
	if dateStr == "" || dateStr == NotAvailable {
		return NotAvailable
	}
	parsed, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return dateStr
	}
	return parsed.Format("January 02, 2006")
}

// CleanList applies Clean to every element.
func CleanList(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Clean(item)
	}
	return out
}
