package resolve

// Selections owns the user's mapping choices plus the manual DV/IV/control
// picks for template-based derivation. Mapping keys are prereg variable
// names; values are survey column keys. Manual variable lists preserve
// insertion order so derived layout naming stays deterministic.
type Selections struct {
	Mapping  map[string]string
	DV       []string
	IV       []string
	Controls []string
}

func NewSelections() *Selections {
	return &Selections{Mapping: make(map[string]string)}
}

// AutoSeed fills the mapping selections from freshly classified rows. High
// confidence rows with a top candidate are accepted automatically; rows that
// already carry a resolution in the spec keep it; everything else stays
// unresolved. Seeding the same rows twice yields identical selections, and a
// selection that already exists for a variable is never overwritten, so
// re-seeding cannot clobber a manual override.
func (s *Selections) AutoSeed(rows []MappingRow) {
	for _, row := range rows {
		if _, done := s.Mapping[row.PreregVar]; done {
			continue
		}
		switch {
		case row.Confidence == ConfidenceHigh && row.TopCandidate != nil:
			s.Mapping[row.PreregVar] = row.TopCandidate.Key
		case row.ResolvedTo != nil && *row.ResolvedTo != "":
			s.Mapping[row.PreregVar] = *row.ResolvedTo
		}
	}
}

// Override sets the selection for exactly one variable. An empty key clears
// the selection ("no selection" in the dropdown).
func (s *Selections) Override(preregVar, key string) {
	if key == "" {
		delete(s.Mapping, preregVar)
		return
	}
	s.Mapping[preregVar] = key
}

// Resolved reports the chosen column for a variable, if any.
func (s *Selections) Resolved(preregVar string) (string, bool) {
	key, ok := s.Mapping[preregVar]
	return key, ok
}

// UnresolvedLow lists the prereg variables whose rows are low confidence and
// still have no selection. Derivation and save are gated on this being empty.
func UnresolvedLow(rows []MappingRow, s *Selections) []string {
	var out []string
	for _, row := range rows {
		if row.Confidence != ConfidenceLow {
			continue
		}
		if s != nil {
			if _, ok := s.Mapping[row.PreregVar]; ok {
				continue
			}
		}
		out = append(out, row.PreregVar)
	}
	return out
}
