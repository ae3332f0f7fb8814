package domain

// TrialRecord is one clinical trial as supplied by the ingestion
// collaborator. Fields are already parsed from the registry payload;
// empty strings and nil slices mean the registry did not report a value.
// Records are treated as immutable once handed to the pipeline.
type TrialRecord struct {
	NCTID         string `json:"nct_id"`
	Title         string `json:"title"`
	OfficialTitle string `json:"official_title"`
	Organization  string `json:"organization_full_name"`

	// Status information.
	Status         string `json:"status"`
	StartDate      string `json:"start_date"`
	CompletionDate string `json:"completion_date"`
	LastUpdate     string `json:"last_update"`
	WhyStopped     string `json:"why_stopped"`

	// Study design.
	StudyType         string   `json:"study_type"`
	StudyPhase        []string `json:"study_phase"`
	DesignAllocation  string   `json:"design_allocation"`
	InterventionModel string   `json:"intervention_study_design"`
	PrimaryPurpose    string   `json:"design_primary_purpose"`
	TimePerspective   string   `json:"design_time_perspective"`
	Enrollment        string   `json:"enrollment"`

	// Sponsor and oversight.
	Sponsor              string   `json:"sponsor"`
	Collaborators        []string `json:"collaborators"`
	HasDMC               string   `json:"has_dmc"`
	IsFDARegulatedDrug   string   `json:"is_fda_regulated_drug"`
	IsFDARegulatedDevice string   `json:"is_fda_regulated_device"`
	IsUnapprovedDevice   string   `json:"is_unapproved_device"`
	IsPPSD               string   `json:"is_ppsd"`
	IsUSExport           string   `json:"is_us_export"`

	// Descriptions.
	BriefSummary        string   `json:"brief_summary"`
	DetailedDescription string   `json:"detailed_description"`
	Conditions          []string `json:"conditions"`

	// Interventions are parallel slices in the registry payload:
	// index i describes one intervention across all three.
	InterventionTypes        []string `json:"intervention_types"`
	InterventionNames        []string `json:"intervention_names"`
	InterventionDescriptions []string `json:"intervention_descriptions"`

	// Outcomes.
	PrimaryOutcomes   []Outcome `json:"primary_outcomes"`
	SecondaryOutcomes []Outcome `json:"secondary_outcomes"`

	// Eligibility.
	EligibilityCriteria          string `json:"eligibility_criteria"`
	EligibilityGender            string `json:"eligibility_gender"`
	EligibilityAge               string `json:"eligibility_age"`
	HealthyVolunteers            string `json:"eligibility_healthy_volunteers"`
	HealthyVolunteersDescription string `json:"eligibility_healthy_volunteers_description"`

	// Facilities and contacts.
	Facilities []string `json:"facility"`
}

// Outcome is one outcome measure reported for a trial.
type Outcome struct {
	Measure     string `json:"measure"`
	TimeFrame   string `json:"timeFrame"`
	Description string `json:"description"`
}
