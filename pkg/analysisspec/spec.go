package analysisspec

// Package analysisspec defines the analysis spec contract exchanged with the
// spec producer and persisted per analysis. Field names follow the spec.json
// document format (camelCase), not the API envelope convention.

// Warning codes carried in AnalysisSpec.Warnings.
const (
	WarnUnresolvedVariable = "UNRESOLVED_VARIABLE"
	WarnNoMainModels       = "NO_MAIN_MODELS"
	WarnMalformedMapping   = "MALFORMED_MAPPING"
)

type InputRef struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

type InputsSpec struct {
	QSF    InputRef `json:"qsf"`
	Prereg InputRef `json:"prereg"`
}

type ExclusionSpec struct {
	ID        string `json:"id"`
	Criterion string `json:"criterion"`
	RFilter   string `json:"rFilter"`
}

type DerivedVariableSpec struct {
	Name        string   `json:"name"`
	DerivedType string   `json:"derivedType"`
	DependsOn   []string `json:"dependsOn"`
	Definition  string   `json:"definition"`
}

type DataContractSpec struct {
	Source           string                `json:"source"`
	IDColumns        map[string]string     `json:"idColumns"`
	ExpectedColumns  []string              `json:"expectedColumns"`
	LabelMap         map[string]string     `json:"labelMap"`
	Exclusions       []ExclusionSpec       `json:"exclusions"`
	Missingness      string                `json:"missingness,omitempty"`
	DerivedVariables []DerivedVariableSpec `json:"derivedVariables"`
}

// ModelSpec is one statistical model mined from the pre-registration text.
type ModelSpec struct {
	ID                  string   `json:"id"`
	Family              string   `json:"family"`
	DV                  string   `json:"dv"`
	IV                  []string `json:"iv"`
	Controls            []string `json:"controls"`
	Interactions        []string `json:"interactions"`
	Formula             string   `json:"formula"`
	UnresolvedVariables []string `json:"unresolvedVariables"`
}

type ModelsSpec struct {
	Main        []ModelSpec `json:"main"`
	Exploratory []ModelSpec `json:"exploratory"`
	Robustness  []ModelSpec `json:"robustness"`
}

type OutputsSpec struct {
	Tables  []string `json:"tables"`
	Figures []string `json:"figures"`
}

type TemplateBindingsSpec struct {
	TemplateSet  string            `json:"templateSet"`
	StyleProfile string            `json:"styleProfile"`
	Paths        map[string]string `json:"paths"`
	Packages     []string          `json:"packages"`
}

type MappingCandidate struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// VariableMapping links one prereg variable to candidate survey columns.
// Candidates are ordered by descending score; ResolvedTo is nil until the
// mapping has been accepted (by the producer or by the user).
type VariableMapping struct {
	PreregVar  string             `json:"preregVar"`
	ResolvedTo *string            `json:"resolvedTo"`
	Candidates []MappingCandidate `json:"candidates"`
}

type Warning struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

type AnalysisSpec struct {
	ProjectID        string               `json:"projectId"`
	StudyID          string               `json:"studyId"`
	AnalysisID       string               `json:"analysisId"`
	Inputs           InputsSpec           `json:"inputs"`
	DataContract     DataContractSpec     `json:"dataContract"`
	VariableMappings []VariableMapping    `json:"variableMappings"`
	Models           ModelsSpec           `json:"models"`
	Outputs          OutputsSpec          `json:"outputs"`
	TemplateBindings TemplateBindingsSpec `json:"templateBindings"`
	Warnings         []Warning            `json:"warnings"`
}

// Clone returns a deep copy. The resolution engine mutates copies only, so
// rows recomputed from the pre-mutation spec stay comparable.
func (s *AnalysisSpec) Clone() *AnalysisSpec {
	if s == nil {
		return nil
	}
	out := *s
	out.DataContract.IDColumns = cloneStringMap(s.DataContract.IDColumns)
	out.DataContract.ExpectedColumns = cloneStrings(s.DataContract.ExpectedColumns)
	out.DataContract.LabelMap = cloneStringMap(s.DataContract.LabelMap)
	out.DataContract.Exclusions = append([]ExclusionSpec(nil), s.DataContract.Exclusions...)
	out.DataContract.DerivedVariables = cloneDerived(s.DataContract.DerivedVariables)
	out.VariableMappings = cloneMappings(s.VariableMappings)
	out.Models.Main = cloneModels(s.Models.Main)
	out.Models.Exploratory = cloneModels(s.Models.Exploratory)
	out.Models.Robustness = cloneModels(s.Models.Robustness)
	out.Outputs.Tables = cloneStrings(s.Outputs.Tables)
	out.Outputs.Figures = cloneStrings(s.Outputs.Figures)
	out.TemplateBindings.Paths = cloneStringMap(s.TemplateBindings.Paths)
	out.TemplateBindings.Packages = cloneStrings(s.TemplateBindings.Packages)
	out.Warnings = cloneWarnings(s.Warnings)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneDerived(in []DerivedVariableSpec) []DerivedVariableSpec {
	if in == nil {
		return nil
	}
	out := make([]DerivedVariableSpec, len(in))
	for i, d := range in {
		d.DependsOn = cloneStrings(d.DependsOn)
		out[i] = d
	}
	return out
}

func cloneMappings(in []VariableMapping) []VariableMapping {
	if in == nil {
		return nil
	}
	out := make([]VariableMapping, len(in))
	for i, m := range in {
		if m.ResolvedTo != nil {
			v := *m.ResolvedTo
			m.ResolvedTo = &v
		}
		m.Candidates = append([]MappingCandidate(nil), m.Candidates...)
		out[i] = m
	}
	return out
}

func cloneModels(in []ModelSpec) []ModelSpec {
	if in == nil {
		return nil
	}
	out := make([]ModelSpec, len(in))
	for i, m := range in {
		m.IV = cloneStrings(m.IV)
		m.Controls = cloneStrings(m.Controls)
		m.Interactions = cloneStrings(m.Interactions)
		m.UnresolvedVariables = cloneStrings(m.UnresolvedVariables)
		out[i] = m
	}
	return out
}

func cloneWarnings(in []Warning) []Warning {
	if in == nil {
		return nil
	}
	out := make([]Warning, len(in))
	for i, w := range in {
		if w.Details != nil {
			details := make(map[string]interface{}, len(w.Details))
			for k, v := range w.Details {
				details[k] = v
			}
			w.Details = details
		}
		out[i] = w
	}
	return out
}
