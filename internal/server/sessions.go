package server

import (
	"maps"
	"sync"
	"time"

	"github.com/pefman/void-duel/internal/match"
)

// Session guards one match. Every operation on the match holds mu.
type Session struct {
	mu       sync.Mutex
	match    *match.Match
	now      func() time.Time
	lastSeen time.Time
}

// Do runs fn with the session locked and marks the session active.
func (s *Session) Do(fn func(m *match.Match)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.match)
	s.lastSeen = s.now()
}

// idle reports how long the session has gone untouched and whether its
// match is over.
func (s *Session) idle(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen), s.match.Over()
}

// Registry indexes live sessions by match id.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*Session
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Session{}, now: time.Now}
}

func (r *Registry) Add(m *match.Match) *Session {
	s := &Session{match: m, now: r.now, lastSeen: r.now()}
	r.mu.Lock()
	r.byID[m.ID()] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Expired lists sessions untouched for idleTTL, and finished ones untouched
// for finishedTTL.
func (r *Registry) Expired(now time.Time, idleTTL, finishedTTL time.Duration) []string {
	r.mu.Lock()
	sessions := maps.Clone(r.byID)
	r.mu.Unlock()

	var ids []string
	for id, s := range sessions {
		idle, over := s.idle(now)
		if idle >= idleTTL || (over && idle >= finishedTTL) {
			ids = append(ids, id)
		}
	}
	return ids
}
