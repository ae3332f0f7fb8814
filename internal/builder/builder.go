// Package builder renders trial records into a canonical narrative text
// and splits it into chunk documents with provenance metadata.
package builder

import (
	"fmt"
	"strings"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/normalisers/trialtext"
	"github.com/clinrag/clinrag-cli/internal/postprocessors/chunker"
)

// Builder converts one trial record into chunk documents. The section
// order of the rendered text is fixed and missing fields render as the
// "N/A" placeholder, so the split is deterministic for a given record
// and chunking parameters.
type Builder struct {
	splitter *chunker.Splitter
}

// New creates a builder. Options are forwarded to the splitter.
func New(opts ...chunker.Option) *Builder {
	return &Builder{splitter: chunker.New(opts...)}
}

// Build renders the record and splits it into documents. Every record
// yields at least one document; records missing identifying fields are
// tagged with "N/A" rather than dropped, so downstream retrieval can
// still surface partial information.
func (b *Builder) Build(record domain.TrialRecord) []domain.Document {
	text := b.Render(record)
	chunks := b.splitter.Split(text)
	if len(chunks) == 0 {
		chunks = []string{text}
	}

	nctID := clean(record.NCTID)
	title := clean(record.Title)
	status := clean(record.Status)
	phase := joinComma(record.StudyPhase)
	studyType := clean(record.StudyType)
	conditions := joinComma(record.Conditions)

	docs := make([]domain.Document, len(chunks))
	for i, content := range chunks {
		docs[i] = domain.Document{
			Content: content,
			Metadata: map[string]any{
				domain.MetaNCTID:       nctID,
				domain.MetaTitle:       title,
				domain.MetaChunkIndex:  i,
				domain.MetaTotalChunks: len(chunks),
				domain.MetaStatus:      status,
				domain.MetaPhase:       phase,
				domain.MetaStudyType:   studyType,
				domain.MetaConditions:  conditions,
			},
		}
	}
	return docs
}

// BuildBatch builds documents for every record in order.
func (b *Builder) BuildBatch(records []domain.TrialRecord) []domain.Document {
	var docs []domain.Document
	for _, record := range records {
		docs = append(docs, b.Build(record)...)
	}
	return docs
}

// Render produces the long-form narrative for a trial. Section order:
// identification, status, design, sponsor/oversight, description,
// conditions, interventions, outcomes, eligibility, facilities.
func (b *Builder) Render(record domain.TrialRecord) string {
	var sb strings.Builder

	writeLine(&sb, "Title", clean(record.Title))
	writeLine(&sb, "Official Title", clean(record.OfficialTitle))
	writeLine(&sb, "NCT ID", clean(record.NCTID))
	writeLine(&sb, "Organization", clean(record.Organization))

	sb.WriteString("\nStatus Information:\n")
	writeItem(&sb, "Current Status", clean(record.Status))
	writeItem(&sb, "Start Date", trialtext.FormatDate(record.StartDate))
	writeItem(&sb, "Completion Date", trialtext.FormatDate(record.CompletionDate))
	writeItem(&sb, "Last Update", trialtext.FormatDate(record.LastUpdate))
	writeItem(&sb, "Why Stopped", clean(record.WhyStopped))

	sb.WriteString("\nStudy Information:\n")
	writeItem(&sb, "Study Type", clean(record.StudyType))
	writeItem(&sb, "Study Phase", joinComma(record.StudyPhase))
	writeItem(&sb, "Design Allocation", clean(record.DesignAllocation))
	writeItem(&sb, "Intervention Model", clean(record.InterventionModel))
	writeItem(&sb, "Primary Purpose", clean(record.PrimaryPurpose))
	writeItem(&sb, "Time Perspective", clean(record.TimePerspective))
	writeItem(&sb, "Enrollment", clean(record.Enrollment))

	sb.WriteString("\nSponsor Information:\n")
	writeItem(&sb, "Lead Sponsor", clean(record.Sponsor))
	writeItem(&sb, "Collaborators", joinComma(record.Collaborators))

	sb.WriteString("\nOversight Information:\n")
	writeItem(&sb, "Has DMC", clean(record.HasDMC))
	writeItem(&sb, "FDA Regulated Drug", clean(record.IsFDARegulatedDrug))
	writeItem(&sb, "FDA Regulated Device", clean(record.IsFDARegulatedDevice))
	writeItem(&sb, "Unapproved Device", clean(record.IsUnapprovedDevice))
	writeItem(&sb, "PPSD", clean(record.IsPPSD))
	writeItem(&sb, "US Export", clean(record.IsUSExport))

	sb.WriteString("\nDescription:\nBrief Summary:\n")
	sb.WriteString(clean(record.BriefSummary))
	sb.WriteString("\n\nDetailed Description:\n")
	sb.WriteString(clean(record.DetailedDescription))

	sb.WriteString("\n\nConditions:\n")
	sb.WriteString(joinComma(record.Conditions))

	sb.WriteString("\n\nInterventions:\n")
	sb.WriteString(renderInterventions(record))

	sb.WriteString("\n\nOutcomes:\nPrimary Outcomes:\n")
	sb.WriteString(renderOutcomes(record.PrimaryOutcomes))
	sb.WriteString("\n\nSecondary Outcomes:\n")
	sb.WriteString(renderOutcomes(record.SecondaryOutcomes))

	sb.WriteString("\n\nEligibility:\nCriteria:\n")
	sb.WriteString(clean(record.EligibilityCriteria))
	sb.WriteString("\n\nAdditional Eligibility Information:\n")
	writeItem(&sb, "Gender", clean(record.EligibilityGender))
	writeItem(&sb, "Age", clean(record.EligibilityAge))
	writeItem(&sb, "Healthy Volunteers", clean(record.HealthyVolunteers))
	writeItem(&sb, "Healthy Volunteers Description", clean(record.HealthyVolunteersDescription))

	sb.WriteString("\nFacilities:\n")
	sb.WriteString(joinComma(record.Facilities))
	sb.WriteString("\n")

	return sb.String()
}

// renderInterventions flattens the parallel intervention slices into
// repeated Type/Name/Description blocks. Slices may be ragged; missing
// entries render as the placeholder.
func renderInterventions(record domain.TrialRecord) string {
	n := len(record.InterventionNames)
	if len(record.InterventionTypes) > n {
		n = len(record.InterventionTypes)
	}
	if n == 0 {
		return trialtext.NotAvailable
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Intervention %d:\n", i+1)
		writeItem(&sb, "Type", clean(at(record.InterventionTypes, i)))
		writeItem(&sb, "Name", clean(at(record.InterventionNames, i)))
		writeItem(&sb, "Description", clean(at(record.InterventionDescriptions, i)))
	}
	return sb.String()
}

// renderOutcomes formats outcome records as repeated
// Measure/Time Frame/Description blocks.
func renderOutcomes(outcomes []domain.Outcome) string {
	if len(outcomes) == 0 {
		return trialtext.NotAvailable
	}

	var sb strings.Builder
	for i, outcome := range outcomes {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeItem(&sb, "Measure", clean(outcome.Measure))
		writeItem(&sb, "Time Frame", clean(outcome.TimeFrame))
		writeItem(&sb, "Description", clean(outcome.Description))
	}
	return sb.String()
}

func clean(s string) string {
	return trialtext.Clean(s)
}

// joinComma cleans and comma-joins list values, or the placeholder when
// the list is empty.
func joinComma(items []string) string {
	if len(items) == 0 {
		return trialtext.NotAvailable
	}
	return strings.Join(trialtext.CleanList(items), ", ")
}

func at(items []string, i int) string {
	if i < len(items) {
		return items[i]
	}
	return ""
}

func writeLine(sb *strings.Builder, label, value string) {
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteString("\n")
}

func writeItem(sb *strings.Builder, label, value string) {
	sb.WriteString("- ")
	writeLine(sb, label, value)
}
