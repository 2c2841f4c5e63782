package runtime

import (
	"sync"
	"time"
)

// scheduler owns one cancellable auto-advance timer per session.
// Callbacks never touch state directly; they re-enter the engine, which
// checks under the session lock that the pending advance is still current.
type scheduler struct {
	mu     sync.Mutex
	timers map[string]*timerEntry
	seq    uint64
	closed bool
}

type timerEntry struct {
	id    uint64
	timer *time.Timer
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[string]*timerEntry)}
}

// schedule replaces any timer of the session with one firing fn after d.
func (s *scheduler) schedule(sessionID string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if old, ok := s.timers[sessionID]; ok {
		old.timer.Stop()
	}
	s.seq++
	entry := &timerEntry{id: s.seq}
	entry.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if cur, ok := s.timers[sessionID]; ok && cur.id == entry.id {
			delete(s.timers, sessionID)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[sessionID] = entry
}

// cancel stops the session's timer, if any.
func (s *scheduler) cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timers[sessionID]; ok {
		e.timer.Stop()
		delete(s.timers, sessionID)
	}
}

// pending reports whether the session has a live timer.
func (s *scheduler) pending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[sessionID]
	return ok
}

// stop cancels every timer and refuses new ones.
func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
}
