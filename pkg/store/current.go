package store

import (
	"sync"

	"research-workflow-be/pkg/analysisspec"
)

// CurrentSpecs holds the most recently saved spec per analysis. It backs the
// read side of the event pipeline so request handlers never race a save in
// flight; the saved document itself lives in the database and on disk.
type CurrentSpecs struct {
	mu    sync.RWMutex
	specs map[string]*analysisspec.AnalysisSpec
}

func NewCurrentSpecs() *CurrentSpecs {
	return &CurrentSpecs{
		specs: make(map[string]*analysisspec.AnalysisSpec),
	}
}

// Set records spec as the current document for its analysis ID. The store
// keeps its own clone so later session mutations cannot leak in.
func (c *CurrentSpecs) Set(spec *analysisspec.AnalysisSpec) {
	if spec == nil || spec.AnalysisID == "" {
		return
	}
	cloned := spec.Clone()
	c.mu.Lock()
	c.specs[cloned.AnalysisID] = cloned
	c.mu.Unlock()
}

// Get returns a clone of the current spec for analysisID, or nil.
func (c *CurrentSpecs) Get(analysisID string) *analysisspec.AnalysisSpec {
	c.mu.RLock()
	spec := c.specs[analysisID]
	c.mu.RUnlock()
	return spec.Clone()
}

// Delete drops the cached document, used when an analysis is removed.
func (c *CurrentSpecs) Delete(analysisID string) {
	c.mu.Lock()
	delete(c.specs, analysisID)
	c.mu.Unlock()
}
