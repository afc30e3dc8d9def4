package specgen

import (
	"context"

	"research-workflow-be/pkg/analysisspec"
)

// GenerateArgs identifies one analysis and the inputs the spec is built from.
// Paths are absolute; the producer reads them itself so it can record input
// hashes alongside the extracted content.
type GenerateArgs struct {
	ProjectID    string
	StudyID      string
	AnalysisID   string
	QSFPath      string
	PreregPath   string
	TemplateSet  string
	StyleProfile string
}

// Producer builds a draft analysis spec from a survey definition and a
// pre-registration document. Implementations must return a normalized spec;
// callers treat any error as a producer failure and keep prior state.
type Producer interface {
	GenerateSpec(ctx context.Context, args GenerateArgs) (*analysisspec.AnalysisSpec, error)
}
