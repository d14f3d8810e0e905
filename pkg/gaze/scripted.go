package gaze

import (
	"context"
	"sync"
)

// Scripted replays a fixed list of observations, then repeats the last one.
// It is used by tests and by the headless demo mode.
type Scripted struct {
	mu     sync.Mutex
	script []Observation
	pos    int
	closed bool
}

// NewScripted creates a scripted source. An empty script yields a face
// looking at the screen.
func NewScripted(obs ...Observation) *Scripted {
	if len(obs) == 0 {
		obs = []Observation{{FaceFound: true, Direction: DirCenter, Ratio: 0.5}}
	}
	return &Scripted{script: obs}
}

// Next returns the next scripted observation.
func (s *Scripted) Next(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Observation{}, ErrClosed
	}
	o := s.script[s.pos]
	if s.pos < len(s.script)-1 {
		s.pos++
	}
	return o, nil
}

// Close stops the source.
func (s *Scripted) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ Source = (*Scripted)(nil)
