package atomics

import (
	"sync"
	"time"
)

// A StopWatch can be used to measure time. In contrast to using time.Duration
// this structure is thread-safe.
//
// The zero-value is a stopped StopWatch using time.Now as clock.
type StopWatch struct {
	m       sync.Mutex
	started time.Time
	// Clock, if non-nil, is used instead of time.Now
	Clock func() time.Time
}

func (s *StopWatch) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Reset will stop the StopWatch, reset it to zero and return the time elapsed
// before resetting.
func (s *StopWatch) Reset() time.Duration {
	s.m.Lock()
	defer s.m.Unlock()

	// If zero value then it's not started yet
	if s.started.IsZero() {
		return 0
	}

	elapsed := s.now().Sub(s.started)
	s.started = time.Time{}
	return elapsed
}

// Start the StopWatch, this will increase the elapsed time as time goes.
// This will not reset the StopWatch if it's already started.
func (s *StopWatch) Start() {
	s.m.Lock()
	defer s.m.Unlock()

	if s.started.IsZero() {
		s.started = s.now()
	}
}

// Running returns true, if the StopWatch is started.
func (s *StopWatch) Running() bool {
	s.m.Lock()
	defer s.m.Unlock()

	return !s.started.IsZero()
}

// Elapsed returns the time elapsed since the StopWatch was started, zero if
// the StopWatch isn't running.
func (s *StopWatch) Elapsed() time.Duration {
	s.m.Lock()
	defer s.m.Unlock()

	if s.started.IsZero() {
		return 0
	}

	return s.now().Sub(s.started)
}
