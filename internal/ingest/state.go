package ingest

import "sync"

// WatchState is the set of file names already processed during one watch
// session. It only grows and is never persisted.
type WatchState struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewWatchState() *WatchState {
	return &WatchState{seen: make(map[string]struct{})}
}

func (s *WatchState) Seen(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[name]
	return ok
}

func (s *WatchState) Mark(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[name] = struct{}{}
}

func (s *WatchState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
