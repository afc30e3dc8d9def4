package resolve

import (
	"fmt"
	"strings"

	"research-workflow-be/pkg/analysisspec"
)

// TemplateChoice selects the derivation strategy for model layouts.
type TemplateChoice string

const (
	TemplateAuto      TemplateChoice = "auto"
	TemplateFactorial TemplateChoice = "factorial_2x2"
	TemplateSimpleOLS TemplateChoice = "simple_ols"
)

// Model types a layout may carry.
const (
	ModelOLS          = "ols"
	ModelLogit        = "logit"
	ModelPoisson      = "poisson"
	ModelNegbin       = "negbin"
	ModelMixedEffects = "mixed_effects"
	ModelFixedEffects = "fixed_effects"
	ModelSurvival     = "survival"
	ModelRD           = "rd"
	ModelDiD          = "did"
	ModelEventStudy   = "event_study"
)

// Formula shapes.
const (
	LayoutSimple      = "simple"
	LayoutInteraction = "interaction"
)

// ModelLayout is a normalized description of one statistical model, ready
// for template rendering downstream.
type ModelLayout struct {
	Name               string   `json:"name"`
	ModelType          string   `json:"modelType"`
	OutcomeVar         string   `json:"outcomeVar"`
	TreatmentVar       string   `json:"treatmentVar"`
	Layout             string   `json:"layout"`
	InteractionVar     string   `json:"interactionVar,omitempty"`
	Covariates         string   `json:"covariates"`
	IDVar              string   `json:"idVar"`
	TimeVar            string   `json:"timeVar"`
	Figures            []string `json:"figures"`
	IncludeInMainTable bool     `json:"includeInMainTable"`
}

// remap resolves a variable reference through the current selections,
// keeping the original name when unresolved.
func remap(name string, s *Selections) string {
	if s != nil {
		if key, ok := s.Resolved(name); ok && key != "" {
			return key
		}
	}
	return name
}

// classifyFamily folds a producer model-family string onto a supported model
// type via substring matches.
func classifyFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "binomial") || strings.Contains(f, "logit"):
		return ModelLogit
	case strings.Contains(f, "poisson"):
		return ModelPoisson
	default:
		return ModelOLS
	}
}

// BuildLayoutsFromModels derives one layout per extracted model, remapping
// every variable reference through the selections. Only the first "A:B"
// interaction term is consulted, and only its second component is extracted;
// the first is assumed to be the primary treatment. Behavior for additional
// or three-way interaction terms is deliberately left at that.
func BuildLayoutsFromModels(models []analysisspec.ModelSpec, s *Selections) []ModelLayout {
	layouts := make([]ModelLayout, 0, len(models))
	for i, m := range models {
		name := m.ID
		if name == "" {
			name = fmt.Sprintf("model_%d", i+1)
		}

		treatment := "treat"
		if len(m.IV) > 0 {
			treatment = remap(m.IV[0], s)
		}

		covariates := make([]string, 0, len(m.Controls))
		for _, c := range m.Controls {
			covariates = append(covariates, remap(c, s))
		}

		interactionVar := ""
		if len(m.Interactions) > 0 {
			parts := strings.Split(m.Interactions[0], ":")
			if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
				interactionVar = remap(strings.TrimSpace(parts[1]), s)
			}
		}
		shape := LayoutSimple
		if interactionVar != "" {
			shape = LayoutInteraction
		}

		layouts = append(layouts, ModelLayout{
			Name:               name,
			ModelType:          classifyFamily(m.Family),
			OutcomeVar:         remap(m.DV, s),
			TreatmentVar:       treatment,
			Layout:             shape,
			InteractionVar:     interactionVar,
			Covariates:         strings.Join(covariates, ", "),
			IDVar:              "id",
			TimeVar:            "time",
			Figures:            []string{"coef_plot"},
			IncludeInMainTable: true,
		})
	}
	return layouts
}

// BuildLayoutsFromManualSelection synthesizes layouts from explicitly chosen
// variables. At least one DV and one IV are required; otherwise the result
// is empty. Names are sequential within the batch so they stay unique.
func BuildLayoutsFromManualSelection(dv, iv, controls []string, choice TemplateChoice) []ModelLayout {
	if len(dv) == 0 || len(iv) == 0 {
		return []ModelLayout{}
	}
	covariates := strings.Join(controls, ", ")

	if choice == TemplateFactorial && len(iv) >= 2 {
		layouts := make([]ModelLayout, 0, len(dv))
		for i, outcome := range dv {
			layouts = append(layouts, ModelLayout{
				Name:               fmt.Sprintf("factorial_%d", i+1),
				ModelType:          ModelOLS,
				OutcomeVar:         outcome,
				TreatmentVar:       iv[0],
				Layout:             LayoutInteraction,
				InteractionVar:     iv[1],
				Covariates:         covariates,
				IDVar:              "id",
				TimeVar:            "time",
				Figures:            []string{"coef_plot"},
				IncludeInMainTable: true,
			})
		}
		return layouts
	}

	layouts := make([]ModelLayout, 0, len(dv))
	for i, outcome := range dv {
		layouts = append(layouts, ModelLayout{
			Name:               fmt.Sprintf("model_%d", i+1),
			ModelType:          ModelOLS,
			OutcomeVar:         outcome,
			TreatmentVar:       iv[0],
			Layout:             LayoutSimple,
			Covariates:         covariates,
			IDVar:              "id",
			TimeVar:            "time",
			Figures:            []string{"coef_plot"},
			IncludeInMainTable: true,
		})
	}
	return layouts
}

// DeriveLayouts applies the final selection rule: with the auto template and
// at least one extracted model, the extracted-model layouts win; otherwise
// the manually derived layouts are used. Re-running with unchanged inputs
// yields the same list in the same order.
func DeriveLayouts(spec *analysisspec.AnalysisSpec, s *Selections, choice TemplateChoice) []ModelLayout {
	if choice == TemplateAuto && spec != nil {
		fromModels := BuildLayoutsFromModels(spec.Models.Main, s)
		if len(fromModels) > 0 {
			return fromModels
		}
	}
	var dv, iv, controls []string
	if s != nil {
		dv, iv, controls = s.DV, s.IV, s.Controls
	}
	return BuildLayoutsFromManualSelection(dv, iv, controls, choice)
}
