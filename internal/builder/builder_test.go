package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/postprocessors/chunker"
)

func aspirinRecord() domain.TrialRecord {
	return domain.TrialRecord{
		NCTID:             "NCT00000001",
		Title:             "Aspirin Study",
		OfficialTitle:     "A Randomized Study of Low-Dose Aspirin",
		Organization:      "Example Medical Center",
		Status:            "RECRUITING",
		StartDate:         "2023-03-15",
		StudyType:         "INTERVENTIONAL",
		StudyPhase:        []string{"PHASE2"},
		Sponsor:           "Example Medical Center",
		BriefSummary:      "Evaluates low-dose aspirin b.i.d. in adults.",
		Conditions:        []string{"Cardiovascular Disease"},
		InterventionTypes: []string{"DRUG"},
		InterventionNames: []string{"Aspirin"},
		PrimaryOutcomes: []domain.Outcome{
			{Measure: "Major cardiovascular events", TimeFrame: "12 months"},
		},
		EligibilityCriteria: "Inclusion: adults 18+. Exclusion: bleeding disorders.",
	}
}

func TestBuild_AtLeastOneDocument(t *testing.T) {
	docs := New().Build(domain.TrialRecord{})
	require.NotEmpty(t, docs)
}

func TestBuild_Metadata(t *testing.T) {
	docs := New().Build(aspirinRecord())
	require.NotEmpty(t, docs)

	for i, doc := range docs {
		assert.Equal(t, "NCT00000001", doc.Metadata[domain.MetaNCTID])
		assert.Equal(t, "Aspirin Study", doc.Metadata[domain.MetaTitle])
		assert.Equal(t, "RECRUITING", doc.Metadata[domain.MetaStatus])
		assert.Equal(t, "PHASE2", doc.Metadata[domain.MetaPhase])
		assert.Equal(t, "INTERVENTIONAL", doc.Metadata[domain.MetaStudyType])
		assert.Equal(t, "Cardiovascular Disease", doc.Metadata[domain.MetaConditions])
		assert.Equal(t, i, doc.Metadata[domain.MetaChunkIndex])
		assert.Equal(t, len(docs), doc.Metadata[domain.MetaTotalChunks])
	}
}

func TestBuild_MissingIdentifierTaggedNotDropped(t *testing.T) {
	docs := New().Build(domain.TrialRecord{Title: "Untitled Trial"})
	require.NotEmpty(t, docs)
	assert.Equal(t, "N/A", docs[0].Metadata[domain.MetaNCTID])
}

func TestBuild_Deterministic(t *testing.T) {
	b := New()
	record := aspirinRecord()

	first := b.Build(record)
	second := b.Build(record)
	assert.Equal(t, first, second)
}

func TestBuild_ChunkingRespectsConfiguredSize(t *testing.T) {
	b := New(chunker.WithChunkSize(200), chunker.WithOverlap(40))
	record := aspirinRecord()
	record.DetailedDescription = strings.Repeat("The study follows participants for twelve months. ", 40)

	docs := b.Build(record)
	require.Greater(t, len(docs), 1)
	for _, doc := range docs {
		assert.LessOrEqual(t, len(doc.Content), 200)
	}
}

func TestBuildBatch_PreservesRecordOrder(t *testing.T) {
	first := aspirinRecord()
	second := aspirinRecord()
	second.NCTID = "NCT00000002"

	docs := New().BuildBatch([]domain.TrialRecord{first, second})
	require.NotEmpty(t, docs)

	// All chunks of the first record precede all chunks of the second.
	boundary := -1
	for i, doc := range docs {
		if doc.Metadata[domain.MetaNCTID] == "NCT00000002" {
			boundary = i
			break
		}
	}
	require.GreaterOrEqual(t, boundary, 1)
	for _, doc := range docs[boundary:] {
		assert.Equal(t, "NCT00000002", doc.Metadata[domain.MetaNCTID])
	}
}

func TestRender_SectionOrder(t *testing.T) {
	text := New().Render(aspirinRecord())

	sections := []string{
		"Title: Aspirin Study",
		"NCT ID: NCT00000001",
		"Status Information:",
		"Study Information:",
		"Sponsor Information:",
		"Oversight Information:",
		"Description:",
		"Conditions:",
		"Interventions:",
		"Outcomes:",
		"Eligibility:",
		"Facilities:",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(text, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestRender_MissingFieldsUsePlaceholder(t *testing.T) {
	text := New().Render(domain.TrialRecord{NCTID: "NCT99999999"})

	assert.Contains(t, text, "Title: N/A")
	assert.Contains(t, text, "- Current Status: N/A")
	assert.Contains(t, text, "- Start Date: N/A")
}

func TestRender_FormatsDates(t *testing.T) {
	text := New().Render(aspirinRecord())
	assert.Contains(t, text, "- Start Date: March 15, 2023")
}

func TestRender_ExpandsAbbreviationsInText(t *testing.T) {
	text := New().Render(aspirinRecord())
	assert.Contains(t, text, "twice daily")
	assert.NotContains(t, text, "b.i.d.")
}

func TestRender_RaggedInterventionSlices(t *testing.T) {
	record := domain.TrialRecord{
		InterventionTypes: []string{"DRUG", "DEVICE"},
		InterventionNames: []string{"Aspirin"},
	}
	text := New().Render(record)

	assert.Contains(t, text, "Intervention 1:")
	assert.Contains(t, text, "Intervention 2:")
	assert.Contains(t, text, "- Name: Aspirin")
	assert.Contains(t, text, "- Type: DEVICE")
	// The second intervention has no name reported.
	assert.Contains(t, text, "- Name: N/A")
}

func TestRender_Outcomes(t *testing.T) {
	text := New().Render(aspirinRecord())
	assert.Contains(t, text, "Primary Outcomes:")
	assert.Contains(t, text, "- Measure: Major cardiovascular events")
	assert.Contains(t, text, "- Time Frame: 12 months")
	assert.Contains(t, text, "Secondary Outcomes:\nN/A")
}
