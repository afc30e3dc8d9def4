package dto

import (
	"time"

	"github.com/google/uuid"

	"research-workflow-be/pkg/analysisspec"
	"research-workflow-be/pkg/resolve"
)

type CreateAnalysisRequest struct {
	StudyId    uuid.UUID `json:"study_id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	QSFPath    string    `json:"qsf_path" validate:"required"`
	PreregPath string    `json:"prereg_path" validate:"required"`
}

type CreateAnalysisResponse struct {
	Id uuid.UUID `json:"id"`
}

type AnalysisResponse struct {
	Id         uuid.UUID  `json:"id"`
	StudyId    uuid.UUID  `json:"study_id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	SpecPath   string     `json:"spec_path"`
	QSFPath    string     `json:"qsf_path"`
	PreregPath string     `json:"prereg_path"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// SessionStatusResponse mirrors the wizard's state machine for the client.
type SessionStatusResponse struct {
	AnalysisId    string   `json:"analysis_id"`
	State         string   `json:"state"`
	StatusMessage string   `json:"status_message,omitempty"`
	Unresolved    []string `json:"unresolved"`
	Warnings      int      `json:"warnings"`
}

// MappingRowResponse is one classified mapping row plus the session's
// current selection for that variable.
type MappingRowResponse struct {
	PreregVar  string                          `json:"prereg_var"`
	ResolvedTo *string                         `json:"resolved_to"`
	TopScore   float64                         `json:"top_score"`
	Confidence string                          `json:"confidence"`
	Candidates []analysisspec.MappingCandidate `json:"candidates"`
	Selected   string                          `json:"selected,omitempty"`
}

type OverrideMappingRequest struct {
	PreregVar string `json:"prereg_var" validate:"required"`
	Key       string `json:"key"` // empty clears the selection
}

type ManualVarsRequest struct {
	DV       []string `json:"dv"`
	IV       []string `json:"iv"`
	Controls []string `json:"controls"`
}

type TemplateChoiceRequest struct {
	Choice string `json:"choice" validate:"required,oneof=auto factorial_2x2 simple_ols"`
}

type SaveSpecResponse struct {
	SpecPath string `json:"spec_path"`
	Warnings int    `json:"warnings"`
}

// Layout and wizard option payloads keep the document's own casing; they are
// the spec contract, not the API envelope.
type LayoutsResponse struct {
	Layouts []resolve.ModelLayout `json:"layouts"`
}

type OptionsResponse struct {
	Options resolve.WizardOptions `json:"options"`
}

type EligibleColumnsResponse struct {
	Columns []string `json:"columns"`
}
