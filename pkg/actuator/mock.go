package actuator

import (
	"bytes"
	"strings"
	"sync"
)

// MockPort implements Port in memory for testing.
type MockPort struct {
	// WriteErr, when set, is returned by every Write.
	WriteErr error

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// Write records p unless WriteErr is set.
func (p *MockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.buf.Write(b)
}

// Close marks the port closed.
func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Tokens returns the newline-separated tokens written so far.
func (p *MockPort) Tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := strings.TrimSuffix(p.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Closed reports whether Close was called.
func (p *MockPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Verify MockPort implements Port at compile time.
var _ Port = (*MockPort)(nil)
