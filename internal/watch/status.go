package watch

import (
	"sync"
	"time"
)

// Status tracks the outcome of the most recent builds. It is shared between
// the watch loop and the HTTP readiness check.
type Status struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
	lastBuild    time.Time
	builds       int
}

// Record stores the outcome of one build.
func (s *Status) Record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastBuild = time.Now()
	s.builds++
	if err == nil {
		s.hasGoodBuild = true
	}
}

// Snapshot is a copy of Status at one point in time.
type Snapshot struct {
	LastError    error
	HasGoodBuild bool
	LastBuild    time.Time
	Builds       int
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LastError:    s.lastError,
		HasGoodBuild: s.hasGoodBuild,
		LastBuild:    s.lastBuild,
		Builds:       s.builds,
	}
}
