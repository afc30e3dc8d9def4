package resolve

import (
	"testing"

	"research-workflow-be/pkg/analysisspec"
)

func strPtr(s string) *string { return &s }

func TestClassifyMappingConfidence(t *testing.T) {
	tests := []struct {
		name     string
		mapping  analysisspec.VariableMapping
		want     string
		topScore float64
	}{
		{
			name: "high at boundary",
			mapping: analysisspec.VariableMapping{
				PreregVar:  "outcome",
				Candidates: []analysisspec.MappingCandidate{{Key: "Q1", Score: 0.90}},
			},
			want:     ConfidenceHigh,
			topScore: 0.90,
		},
		{
			name: "medium just under high",
			mapping: analysisspec.VariableMapping{
				PreregVar:  "outcome",
				Candidates: []analysisspec.MappingCandidate{{Key: "Q1", Score: 0.899}},
			},
			want:     ConfidenceMedium,
			topScore: 0.899,
		},
		{
			name: "medium at boundary",
			mapping: analysisspec.VariableMapping{
				PreregVar:  "outcome",
				Candidates: []analysisspec.MappingCandidate{{Key: "Q1", Score: 0.75}},
			},
			want:     ConfidenceMedium,
			topScore: 0.75,
		},
		{
			name: "low just under medium",
			mapping: analysisspec.VariableMapping{
				PreregVar:  "outcome",
				Candidates: []analysisspec.MappingCandidate{{Key: "Q1", Score: 0.749}},
			},
			want:     ConfidenceLow,
			topScore: 0.749,
		},
		{
			name:    "no candidates is low",
			mapping: analysisspec.VariableMapping{PreregVar: "outcome"},
			want:    ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := ClassifyMapping(tt.mapping)
			if row.Confidence != tt.want {
				t.Errorf("Confidence = %q, want %q", row.Confidence, tt.want)
			}
			if row.TopScore != tt.topScore {
				t.Errorf("TopScore = %v, want %v", row.TopScore, tt.topScore)
			}
			if len(tt.mapping.Candidates) == 0 && row.TopCandidate != nil {
				t.Error("TopCandidate should be nil when there are no candidates")
			}
		})
	}
}

func TestClassifyMappingUsesFirstCandidate(t *testing.T) {
	row := ClassifyMapping(analysisspec.VariableMapping{
		PreregVar: "cond",
		Candidates: []analysisspec.MappingCandidate{
			{Key: "condition", Score: 0.95},
			{Key: "cond_b", Score: 0.60},
		},
	})
	if row.TopCandidate == nil || row.TopCandidate.Key != "condition" {
		t.Fatalf("TopCandidate = %+v, want condition", row.TopCandidate)
	}
	if row.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", row.Confidence)
	}
}

func TestBuildRowsPreservesOrderAndResolution(t *testing.T) {
	spec := &analysisspec.AnalysisSpec{
		VariableMappings: []analysisspec.VariableMapping{
			{PreregVar: "outcome", ResolvedTo: strPtr("Q1")},
			{PreregVar: "cond"},
		},
	}
	rows := BuildRows(spec)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].PreregVar != "outcome" || rows[1].PreregVar != "cond" {
		t.Errorf("row order = [%s, %s], want spec order", rows[0].PreregVar, rows[1].PreregVar)
	}
	if rows[0].ResolvedTo == nil || *rows[0].ResolvedTo != "Q1" {
		t.Errorf("ResolvedTo not carried into row: %+v", rows[0].ResolvedTo)
	}

	if got := BuildRows(nil); got != nil {
		t.Errorf("BuildRows(nil) = %v, want nil", got)
	}
}
