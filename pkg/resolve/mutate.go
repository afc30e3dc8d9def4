package resolve

import (
	"strings"

	"research-workflow-be/pkg/analysisspec"
)

// ApplyMappings merges the user's selections back onto the spec and prunes
// warnings that no longer apply. The input spec is not touched: rows can
// still be recomputed from it afterwards. For each mapping the resolution
// becomes the selection when one exists, otherwise the spec's own prior
// resolution, otherwise nil. An UNRESOLVED_VARIABLE warning survives only if
// its prereg variable is still unresolved after the merge (matched
// case-insensitively); every other warning code passes through untouched.
// Nothing here adds warnings.
func ApplyMappings(spec *analysisspec.AnalysisSpec, s *Selections) *analysisspec.AnalysisSpec {
	if spec == nil {
		return nil
	}
	out := spec.Clone()

	unresolved := make(map[string]struct{})
	for i := range out.VariableMappings {
		m := &out.VariableMappings[i]
		if s != nil {
			if key, ok := s.Resolved(m.PreregVar); ok && key != "" {
				v := key
				m.ResolvedTo = &v
			}
		}
		if m.ResolvedTo == nil {
			unresolved[strings.ToLower(m.PreregVar)] = struct{}{}
		}
	}

	kept := out.Warnings[:0]
	for _, w := range out.Warnings {
		if w.Code == analysisspec.WarnUnresolvedVariable {
			preregVar, _ := w.Details["preregVar"].(string)
			if _, still := unresolved[strings.ToLower(preregVar)]; !still {
				continue
			}
		}
		kept = append(kept, w)
	}
	out.Warnings = kept
	return out
}

// MergeSavedResolutions carries resolutions from a previously saved spec
// into a freshly generated one, so regenerating never throws away accepted
// mappings. Variables match case-insensitively; only prior resolutions are
// copied, never candidates. Warnings are re-pruned against the merged state.
func MergeSavedResolutions(spec, saved *analysisspec.AnalysisSpec) *analysisspec.AnalysisSpec {
	if spec == nil || saved == nil {
		return spec
	}
	out := spec.Clone()

	prior := make(map[string]*string, len(saved.VariableMappings))
	for _, m := range saved.VariableMappings {
		if m.ResolvedTo != nil && *m.ResolvedTo != "" {
			v := *m.ResolvedTo
			prior[strings.ToLower(m.PreregVar)] = &v
		}
	}

	unresolved := make(map[string]struct{})
	for i := range out.VariableMappings {
		m := &out.VariableMappings[i]
		if p, ok := prior[strings.ToLower(m.PreregVar)]; ok {
			v := *p
			m.ResolvedTo = &v
		}
		if m.ResolvedTo == nil {
			unresolved[strings.ToLower(m.PreregVar)] = struct{}{}
		}
	}

	kept := out.Warnings[:0]
	for _, w := range out.Warnings {
		if w.Code == analysisspec.WarnUnresolvedVariable {
			preregVar, _ := w.Details["preregVar"].(string)
			if _, still := unresolved[strings.ToLower(preregVar)]; !still {
				continue
			}
		}
		kept = append(kept, w)
	}
	out.Warnings = kept
	return out
}
