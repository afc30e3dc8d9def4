package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"research-workflow-be/pkg/resolve"
)

// SessionRepository keeps resolution sessions in process memory, keyed by
// analysis ID. A session left idle for an hour is dropped; the saved spec
// survives in the database either way.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *resolve.Session) {
	r.cache.Set(session.AnalysisID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(analysisID string) (*resolve.Session, bool) {
	if x, found := r.cache.Get(analysisID); found {
		return x.(*resolve.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(analysisID string) {
	r.cache.Delete(analysisID)
}
