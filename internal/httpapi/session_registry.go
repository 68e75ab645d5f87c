package httpapi

import (
	"sync"
	"time"
)

// SessionRegistry tracks active interview sessions and supports graceful
// draining. When draining is enabled, new sessions are rejected while
// in-flight sessions finish naturally.
//
// The mu mutex makes the draining check and wg.Add atomic in Add(),
// preventing a TOCTOU race where StartDraining+Wait could be called between
// the draining check and wg.Add.
type SessionRegistry struct {
	mu       sync.Mutex
	draining bool
	sessions map[string]*interviewSession
	wg       sync.WaitGroup
}

// NewSessionRegistry creates a new SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*interviewSession)}
}

// Add registers a new session. Returns false if the registry is draining,
// meaning no new sessions should be accepted.
func (sr *SessionRegistry) Add(id string, s *interviewSession) bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.draining {
		return false
	}
	sr.sessions[id] = s
	sr.wg.Add(1)
	return true
}

// Get returns the session with the given id, or nil.
func (sr *SessionRegistry) Get(id string) *interviewSession {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.sessions[id]
}

// Remove drops a session from the registry. Must be called exactly once per
// successful Add.
func (sr *SessionRegistry) Remove(id string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if _, ok := sr.sessions[id]; !ok {
		return
	}
	delete(sr.sessions, id)
	sr.wg.Done()
}

// StartDraining sets the draining flag so that future Add calls return
// false. Safe to call concurrently with Add.
func (sr *SessionRegistry) StartDraining() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.draining = true
}

// IsDraining reports whether the registry is in draining mode.
func (sr *SessionRegistry) IsDraining() bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.draining
}

// ActiveCount returns the number of currently registered sessions.
func (sr *SessionRegistry) ActiveCount() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.sessions)
}

// Wait blocks until all registered sessions have been removed.
func (sr *SessionRegistry) Wait() {
	sr.wg.Wait()
}

// ReapIdle exits and removes sessions idle for longer than maxIdle,
// returning how many were reaped.
func (sr *SessionRegistry) ReapIdle(maxIdle time.Duration) int {
	sr.mu.Lock()
	var stale []*interviewSession
	cutoff := time.Now().Add(-maxIdle)
	for _, s := range sr.sessions {
		if s.lastActive().Before(cutoff) {
			stale = append(stale, s)
		}
	}
	sr.mu.Unlock()

	for _, s := range stale {
		s.machine.Exit()
		sr.Remove(s.machine.ID())
	}
	return len(stale)
}
