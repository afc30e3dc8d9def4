package resolve

import (
	"research-workflow-be/pkg/analysisspec"
)

// Package resolve implements the variable-mapping resolution and model-layout
// derivation engine. Everything in it is a total function over in-memory
// structures; all I/O stays with the host services.

// Confidence tiers for a mapping's top candidate score.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Tier thresholds. Boundaries are inclusive on the high side: 0.90 is high,
// 0.75 is medium.
const (
	highThreshold   = 0.90
	mediumThreshold = 0.75
)

// MappingRow is the derived view of one variable mapping. Rows are always
// recomputed from the spec, never stored, so they cannot drift from the
// candidate scores they classify.
type MappingRow struct {
	PreregVar    string                          `json:"preregVar"`
	ResolvedTo   *string                         `json:"resolvedTo"`
	TopCandidate *analysisspec.MappingCandidate  `json:"topCandidate"`
	TopScore     float64                         `json:"topScore"`
	Candidates   []analysisspec.MappingCandidate `json:"candidates"`
	Confidence   string                          `json:"confidence"`
}

// ClassifyMapping derives the row for one mapping. A mapping with no
// candidates has no top candidate and a low confidence.
func ClassifyMapping(m analysisspec.VariableMapping) MappingRow {
	row := MappingRow{
		PreregVar:  m.PreregVar,
		ResolvedTo: m.ResolvedTo,
		Candidates: m.Candidates,
		Confidence: ConfidenceLow,
	}
	if len(m.Candidates) > 0 {
		top := m.Candidates[0]
		row.TopCandidate = &top
		row.TopScore = top.Score
	}
	switch {
	case row.TopCandidate != nil && row.TopScore >= highThreshold:
		row.Confidence = ConfidenceHigh
	case row.TopCandidate != nil && row.TopScore >= mediumThreshold:
		row.Confidence = ConfidenceMedium
	}
	return row
}

// BuildRows classifies every mapping in the spec, in spec order.
func BuildRows(spec *analysisspec.AnalysisSpec) []MappingRow {
	if spec == nil {
		return nil
	}
	rows := make([]MappingRow, len(spec.VariableMappings))
	for i, m := range spec.VariableMappings {
		rows[i] = ClassifyMapping(m)
	}
	return rows
}
