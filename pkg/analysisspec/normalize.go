package analysisspec

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize validates and default-fills a spec at the ingestion boundary.
// Producer output is loosely structured; rather than propagating undefined
// shapes, malformed mapping entries are dropped and flagged with a
// MALFORMED_MAPPING warning. Candidate lists come out sorted by descending
// score with scores clamped to [0, 1], so downstream code can rely on
// position 0 being the top candidate.
func Normalize(spec *AnalysisSpec) {
	if spec == nil {
		return
	}

	kept := make([]VariableMapping, 0, len(spec.VariableMappings))
	for _, m := range spec.VariableMappings {
		m.PreregVar = strings.TrimSpace(m.PreregVar)
		if m.PreregVar == "" {
			spec.Warnings = append(spec.Warnings, Warning{
				Code:    WarnMalformedMapping,
				Message: "Dropped a variable mapping with an empty prereg variable name.",
				Details: map[string]interface{}{},
			})
			continue
		}
		if m.ResolvedTo != nil && strings.TrimSpace(*m.ResolvedTo) == "" {
			m.ResolvedTo = nil
		}
		m.Candidates = normalizeCandidates(m.Candidates)
		kept = append(kept, m)
	}
	spec.VariableMappings = kept

	spec.Models.Main = normalizeModels(spec.Models.Main, "model")
	spec.Models.Exploratory = normalizeModels(spec.Models.Exploratory, "exploratory")
	spec.Models.Robustness = normalizeModels(spec.Models.Robustness, "robustness")

	if spec.DataContract.IDColumns == nil {
		spec.DataContract.IDColumns = map[string]string{}
	}
	if spec.DataContract.ExpectedColumns == nil {
		spec.DataContract.ExpectedColumns = []string{}
	}
	if spec.DataContract.LabelMap == nil {
		spec.DataContract.LabelMap = map[string]string{}
	}
	if spec.Warnings == nil {
		spec.Warnings = []Warning{}
	}
	for i := range spec.Warnings {
		if spec.Warnings[i].Details == nil {
			spec.Warnings[i].Details = map[string]interface{}{}
		}
	}
}

func normalizeCandidates(in []MappingCandidate) []MappingCandidate {
	out := make([]MappingCandidate, 0, len(in))
	for _, c := range in {
		c.Key = strings.TrimSpace(c.Key)
		if c.Key == "" {
			continue
		}
		if c.Score < 0 {
			c.Score = 0
		}
		if c.Score > 1 {
			c.Score = 1
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func normalizeModels(in []ModelSpec, idPrefix string) []ModelSpec {
	out := make([]ModelSpec, 0, len(in))
	for i, m := range in {
		m.DV = strings.TrimSpace(m.DV)
		if m.DV == "" {
			continue
		}
		if strings.TrimSpace(m.ID) == "" {
			m.ID = fmt.Sprintf("%s_%d", idPrefix, i+1)
		}
		if m.IV == nil {
			m.IV = []string{}
		}
		if m.Controls == nil {
			m.Controls = []string{}
		}
		if m.Interactions == nil {
			m.Interactions = []string{}
		}
		out = append(out, m)
	}
	return out
}

// UnresolvedVars reports prereg variables that still lack a resolution,
// lowercased for case-insensitive membership checks.
func UnresolvedVars(spec *AnalysisSpec) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range spec.VariableMappings {
		if m.ResolvedTo == nil {
			out[strings.ToLower(m.PreregVar)] = struct{}{}
		}
	}
	return out
}
