package store

import (
	"testing"

	"research-workflow-be/pkg/analysisspec"
)

func TestCurrentSpecs(t *testing.T) {
	s := NewCurrentSpecs()

	if got := s.Get("an1"); got != nil {
		t.Errorf("Get on empty store = %v, want nil", got)
	}

	spec := &analysisspec.AnalysisSpec{AnalysisID: "an1"}
	s.Set(spec)

	got := s.Get("an1")
	if got == nil || got.AnalysisID != "an1" {
		t.Fatalf("Get = %+v", got)
	}
	if got == spec {
		t.Error("store must hand out copies, not the stored pointer")
	}

	// Mutating the original after Set must not leak into the store.
	spec.AnalysisID = "mutated"
	if s.Get("an1") == nil {
		t.Error("stored spec is aliased to the caller's pointer")
	}

	s.Delete("an1")
	if s.Get("an1") != nil {
		t.Error("Get after Delete must be nil")
	}
}

func TestCurrentSpecsIgnoresUnkeyed(t *testing.T) {
	s := NewCurrentSpecs()
	s.Set(nil)
	s.Set(&analysisspec.AnalysisSpec{})
	if got := s.Get(""); got != nil {
		t.Errorf("unkeyed spec must not be stored, got %+v", got)
	}
}
