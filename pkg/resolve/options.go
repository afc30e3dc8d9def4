package resolve

import (
	"research-workflow-be/pkg/analysisspec"
)

// WizardOptions is the configuration object the downstream template wizard
// prefills from. It is assembled fresh on every call; nothing here is cached.
type WizardOptions struct {
	FileName        string        `json:"fileName"`
	OutcomeVar      string        `json:"outcomeVar"`
	TreatmentVar    string        `json:"treatmentVar"`
	GroupVar        string        `json:"groupVar"`
	Descriptives    []string      `json:"descriptives"`
	Plots           []string      `json:"plots"`
	BalanceChecks   []string      `json:"balanceChecks"`
	Models          []string      `json:"models"`
	ModelLayouts    []ModelLayout `json:"modelLayouts"`
	Robustness      []string      `json:"robustness"`
	Exploratory     bool          `json:"exploratory"`
	ExportArtifacts bool          `json:"exportArtifacts"`
}

// ToOptions flattens the resolved mapping and layout state into the wizard
// configuration. Pure given its inputs; the host re-invokes it whenever any
// argument changes.
func ToOptions(spec *analysisspec.AnalysisSpec, analysisID string, s *Selections, choice TemplateChoice) WizardOptions {
	layouts := DeriveLayouts(spec, s, choice)

	opts := WizardOptions{
		FileName:        analysisID,
		OutcomeVar:      "outcome",
		TreatmentVar:    "treat",
		Descriptives:    []string{"summary_stats", "missingness", "group_summary"},
		Plots:           []string{"boxplot", "coef_plot"},
		BalanceChecks:   []string{"baseline_table", "randomization_check"},
		ModelLayouts:    layouts,
		Robustness:      []string{},
		ExportArtifacts: true,
	}
	if opts.FileName == "" {
		opts.FileName = "analysis"
	}

	if len(layouts) > 0 {
		first := layouts[0]
		opts.OutcomeVar = first.OutcomeVar
		opts.TreatmentVar = first.TreatmentVar
		opts.GroupVar = first.InteractionVar
	} else if s != nil {
		if len(s.DV) > 0 {
			opts.OutcomeVar = s.DV[0]
		}
		if len(s.IV) > 0 {
			opts.TreatmentVar = s.IV[0]
		}
	}

	seen := make(map[string]struct{})
	models := []string{}
	for _, l := range layouts {
		if _, ok := seen[l.ModelType]; ok {
			continue
		}
		seen[l.ModelType] = struct{}{}
		models = append(models, l.ModelType)
	}
	opts.Models = models

	if spec != nil {
		if len(spec.Models.Robustness) > 0 {
			opts.Robustness = []string{"alt_controls"}
		}
		opts.Exploratory = len(spec.Models.Exploratory) > 0
	}
	return opts
}
