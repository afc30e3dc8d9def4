package resolve

import (
	"fmt"
	"strings"

	"research-workflow-be/pkg/analysisspec"
)

// SessionState enumerates the resolution wizard lifecycle.
type SessionState string

const (
	StateIdle       SessionState = "IDLE"
	StateGenerating SessionState = "GENERATING"
	StateReady      SessionState = "READY"
	StateResolving  SessionState = "RESOLVING"
	StateBlocked    SessionState = "BLOCKED"
	StateResolved   SessionState = "RESOLVED"
	StateSaving     SessionState = "SAVING"
	StateSaved      SessionState = "SAVED"
)

// ValidationBlockedError gates the save step: it lists the low-confidence
// variables that still need a selection. It is a status, not a hard failure.
type ValidationBlockedError struct {
	Vars []string
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("unresolved low-confidence mappings: %s", strings.Join(e.Vars, ", "))
}

// TransitionError reports a session action attempted in the wrong state.
type TransitionError struct {
	From   SessionState
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Action, e.From)
}

// Session owns the resolution state for one analysis. All mutation happens
// through guarded transitions in response to discrete actions; the owning
// service serializes access, so no locking lives here.
type Session struct {
	ID         string
	ProjectID  string
	StudyID    string
	AnalysisID string

	State          SessionState
	Spec           *analysisspec.AnalysisSpec
	Selections     *Selections
	TemplateChoice TemplateChoice
	StatusMessage  string

	// State to fall back to when a one-shot external call fails.
	prev SessionState
}

func NewSession(id, projectID, studyID, analysisID string) *Session {
	return &Session{
		ID:             id,
		ProjectID:      projectID,
		StudyID:        studyID,
		AnalysisID:     analysisID,
		State:          StateIdle,
		Selections:     NewSelections(),
		TemplateChoice: TemplateAuto,
	}
}

// Rows recomputes the classified mapping rows from the current spec.
func (s *Session) Rows() []MappingRow {
	return BuildRows(s.Spec)
}

// Unresolved lists low-confidence variables without a selection.
func (s *Session) Unresolved() []string {
	return UnresolvedLow(s.Rows(), s.Selections)
}

// BeginGenerate moves the session into the producer call. Allowed from any
// settled state; a generation or save already in flight refuses.
func (s *Session) BeginGenerate() error {
	switch s.State {
	case StateGenerating, StateSaving:
		return &TransitionError{From: s.State, Action: "generate"}
	}
	s.prev = s.State
	s.State = StateGenerating
	s.StatusMessage = ""
	return nil
}

// CompleteGenerate installs a freshly produced spec, resets the selections
// and seeds them from the classified rows. Runs once per generated spec, so
// later renders never re-seed over a manual override.
func (s *Session) CompleteGenerate(spec *analysisspec.AnalysisSpec) error {
	if s.State != StateGenerating {
		return &TransitionError{From: s.State, Action: "complete generation"}
	}
	s.Spec = spec
	s.Selections = NewSelections()
	s.Selections.AutoSeed(BuildRows(spec))
	s.State = StateReady
	s.StatusMessage = ""
	return nil
}

// FailGenerate surfaces the producer error verbatim and restores the state
// the session was in before the call. Selections are untouched.
func (s *Session) FailGenerate(msg string) {
	if s.State == StateGenerating {
		s.State = s.prev
	}
	s.StatusMessage = msg
}

// Override records one mapping choice and re-evaluates the gate.
func (s *Session) Override(preregVar, key string) error {
	if err := s.requireSettled("override mapping"); err != nil {
		return err
	}
	s.Selections.Override(preregVar, key)
	s.refresh()
	return nil
}

// SetManualVars replaces the manual DV/IV/control picks.
func (s *Session) SetManualVars(dv, iv, controls []string) error {
	if err := s.requireSettled("set manual variables"); err != nil {
		return err
	}
	s.Selections.DV = append([]string(nil), dv...)
	s.Selections.IV = append([]string(nil), iv...)
	s.Selections.Controls = append([]string(nil), controls...)
	s.refresh()
	return nil
}

// SetTemplateChoice records the wizard's template selection.
func (s *Session) SetTemplateChoice(choice TemplateChoice) error {
	if err := s.requireSettled("set template choice"); err != nil {
		return err
	}
	s.TemplateChoice = choice
	return nil
}

// BeginSave guards the persistence call: every low-confidence row must have
// a selection first, and the check runs before any collaborator is invoked.
func (s *Session) BeginSave() error {
	if err := s.requireSettled("save"); err != nil {
		return err
	}
	if s.Spec == nil {
		return &TransitionError{From: s.State, Action: "save"}
	}
	if missing := s.Unresolved(); len(missing) > 0 {
		s.State = StateBlocked
		return &ValidationBlockedError{Vars: missing}
	}
	s.prev = s.State
	s.State = StateSaving
	return nil
}

// CompleteSave installs the merged spec as the session's current one.
func (s *Session) CompleteSave(applied *analysisspec.AnalysisSpec) error {
	if s.State != StateSaving {
		return &TransitionError{From: s.State, Action: "complete save"}
	}
	s.Spec = applied
	s.State = StateSaved
	s.StatusMessage = ""
	return nil
}

// FailSave keeps the session resolved with its selections intact so the user
// can retry without re-resolving anything.
func (s *Session) FailSave(msg string) {
	if s.State == StateSaving {
		s.State = StateResolved
	}
	s.StatusMessage = msg
}

func (s *Session) requireSettled(action string) error {
	switch s.State {
	case StateReady, StateResolving, StateBlocked, StateResolved, StateSaved:
		return nil
	default:
		return &TransitionError{From: s.State, Action: action}
	}
}

// refresh re-evaluates the session after a resolution action. Outstanding
// low-confidence rows keep the session in RESOLVING; BLOCKED is entered only
// by a gated save attempt and holds until every low row has a selection.
func (s *Session) refresh() {
	if len(s.Unresolved()) == 0 {
		s.State = StateResolved
		return
	}
	if s.State != StateBlocked {
		s.State = StateResolving
	}
}
