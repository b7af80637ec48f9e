package core

import "sync"

// IDSource hands out entry ids derived from the creation time in milliseconds.
// Ids are strictly increasing even when two entries are created in the same
// millisecond or the clock steps backwards.
type IDSource struct {
	mu    sync.Mutex
	clock Clock
	last  int64
}

func NewIDSource(clock Clock) *IDSource {
	if clock == nil {
		clock = SystemClock
	}
	return &IDSource{clock: clock}
}

// Next returns a fresh id.
func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.clock.Now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe records an id that already exists so it is never handed out again.
func (s *IDSource) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}
