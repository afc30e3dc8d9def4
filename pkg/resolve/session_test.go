package resolve

import (
	"errors"
	"testing"

	"research-workflow-be/pkg/analysisspec"
)

func specWithLowRow() *analysisspec.AnalysisSpec {
	return &analysisspec.AnalysisSpec{
		VariableMappings: []analysisspec.VariableMapping{
			{PreregVar: "outcome", Candidates: []analysisspec.MappingCandidate{{Key: "Q1", Score: 0.95}}},
			{PreregVar: "attn", Candidates: []analysisspec.MappingCandidate{{Key: "attention_1", Score: 0.40}}},
		},
	}
}

func readySession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("sess-1", "p1", "st1", "an1")
	if err := s.BeginGenerate(); err != nil {
		t.Fatalf("BeginGenerate: %v", err)
	}
	if err := s.CompleteGenerate(specWithLowRow()); err != nil {
		t.Fatalf("CompleteGenerate: %v", err)
	}
	return s
}

func TestNewSessionStartsIdle(t *testing.T) {
	s := NewSession("sess-1", "p1", "st1", "an1")
	if s.State != StateIdle {
		t.Errorf("State = %s, want IDLE", s.State)
	}
	if s.TemplateChoice != TemplateAuto {
		t.Errorf("TemplateChoice = %s, want auto", s.TemplateChoice)
	}
}

func TestGenerateLifecycle(t *testing.T) {
	s := readySession(t)
	if s.State != StateReady {
		t.Fatalf("State = %s, want READY", s.State)
	}
	// High-confidence row was auto-seeded.
	if got, _ := s.Selections.Resolved("outcome"); got != "Q1" {
		t.Errorf("seeded outcome = %q, want Q1", got)
	}
	if got := s.Unresolved(); len(got) != 1 || got[0] != "attn" {
		t.Errorf("Unresolved = %v, want [attn]", got)
	}
}

func TestBeginGenerateRefusedWhileInFlight(t *testing.T) {
	s := NewSession("sess-1", "p1", "st1", "an1")
	if err := s.BeginGenerate(); err != nil {
		t.Fatal(err)
	}
	err := s.BeginGenerate()
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
	if te.From != StateGenerating {
		t.Errorf("From = %s", te.From)
	}
}

func TestFailGenerateRestoresPreviousState(t *testing.T) {
	s := readySession(t)
	s.Selections.Override("attn", "attention_1")
	s.refresh()
	prevSpec := s.Spec

	if err := s.BeginGenerate(); err != nil {
		t.Fatal(err)
	}
	s.FailGenerate("producer exploded")

	if s.State != StateResolved {
		t.Errorf("State = %s, want the pre-generate state back", s.State)
	}
	if s.StatusMessage != "producer exploded" {
		t.Errorf("StatusMessage = %q", s.StatusMessage)
	}
	if s.Spec != prevSpec {
		t.Error("failed generation must not replace the spec")
	}
	if got, _ := s.Selections.Resolved("attn"); got != "attention_1" {
		t.Error("failed generation must not touch selections")
	}
}

func TestRegenerateResetsSelections(t *testing.T) {
	s := readySession(t)
	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginGenerate(); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteGenerate(specWithLowRow()); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Selections.Resolved("attn"); ok {
		t.Error("a fresh generation reseeds selections from the new rows")
	}
}

func TestOverrideMovesBetweenResolvingAndResolved(t *testing.T) {
	s := readySession(t)

	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if s.State != StateResolved {
		t.Errorf("State = %s, want RESOLVED", s.State)
	}

	if err := s.Override("attn", ""); err != nil {
		t.Fatal(err)
	}
	if s.State != StateResolving {
		t.Errorf("State = %s, want RESOLVING after clearing", s.State)
	}
}

func TestResolvingEnteredOnPartialResolution(t *testing.T) {
	s := readySession(t)

	// A resolution action with low rows still outstanding is in-progress
	// state, not a save refusal.
	if err := s.Override("outcome", "Q1"); err != nil {
		t.Fatal(err)
	}
	if s.State != StateResolving {
		t.Errorf("State = %s, want RESOLVING", s.State)
	}
}

func TestBlockedHoldsUntilLowRowsResolved(t *testing.T) {
	s := readySession(t)

	var vb *ValidationBlockedError
	if err := s.BeginSave(); !errors.As(err, &vb) {
		t.Fatalf("err = %v, want ValidationBlockedError", err)
	}
	if s.State != StateBlocked {
		t.Fatalf("State = %s, want BLOCKED", s.State)
	}

	// A partial override that leaves a low row outstanding keeps the refusal.
	if err := s.Override("outcome", "Q1"); err != nil {
		t.Fatal(err)
	}
	if s.State != StateBlocked {
		t.Errorf("State = %s, want BLOCKED to persist", s.State)
	}

	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if s.State != StateResolved {
		t.Errorf("State = %s, want RESOLVED once the low row is picked", s.State)
	}
}

func TestOverrideRefusedBeforeGeneration(t *testing.T) {
	s := NewSession("sess-1", "p1", "st1", "an1")
	err := s.Override("attn", "attention_1")
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
}

func TestBeginSaveGate(t *testing.T) {
	s := readySession(t)

	err := s.BeginSave()
	var vb *ValidationBlockedError
	if !errors.As(err, &vb) {
		t.Fatalf("err = %v, want ValidationBlockedError", err)
	}
	if len(vb.Vars) != 1 || vb.Vars[0] != "attn" {
		t.Errorf("Vars = %v, want [attn]", vb.Vars)
	}
	if s.State != StateBlocked {
		t.Errorf("State = %s, want BLOCKED", s.State)
	}

	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatalf("BeginSave after resolving: %v", err)
	}
	if s.State != StateSaving {
		t.Errorf("State = %s, want SAVING", s.State)
	}
}

func TestBeginSaveWithoutSpec(t *testing.T) {
	s := NewSession("sess-1", "p1", "st1", "an1")
	if err := s.BeginGenerate(); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteGenerate(nil); err != nil {
		t.Fatal(err)
	}
	var te *TransitionError
	if err := s.BeginSave(); !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
}

func TestCompleteSaveInstallsAppliedSpec(t *testing.T) {
	s := readySession(t)
	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatal(err)
	}

	applied := ApplyMappings(s.Spec, s.Selections)
	if err := s.CompleteSave(applied); err != nil {
		t.Fatal(err)
	}
	if s.State != StateSaved {
		t.Errorf("State = %s, want SAVED", s.State)
	}
	if s.Spec != applied {
		t.Error("CompleteSave must install the applied spec")
	}
}

func TestFailSaveKeepsSelections(t *testing.T) {
	s := readySession(t)
	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatal(err)
	}

	s.FailSave("disk full")
	if s.State != StateResolved {
		t.Errorf("State = %s, want RESOLVED so the user can retry", s.State)
	}
	if got, _ := s.Selections.Resolved("attn"); got != "attention_1" {
		t.Error("failed save must keep selections intact")
	}
	if s.StatusMessage != "disk full" {
		t.Errorf("StatusMessage = %q", s.StatusMessage)
	}
}

func TestSaveAgainAfterSaved(t *testing.T) {
	s := readySession(t)
	if err := s.Override("attn", "attention_1"); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteSave(ApplyMappings(s.Spec, s.Selections)); err != nil {
		t.Fatal(err)
	}

	// SAVED is a settled state; amending and re-saving is allowed.
	if err := s.Override("outcome", "Q1"); err != nil {
		t.Fatalf("override after save: %v", err)
	}
	if err := s.BeginSave(); err != nil {
		t.Fatalf("second save: %v", err)
	}
}
