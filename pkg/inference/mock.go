package inference

import (
	"context"
	"sync"
)

// Mock is a scriptable Provider for tests.
type Mock struct {
	VisionFunc func(ctx context.Context, req *VisionRequest) (*VisionResponse, error)
	HealthFunc func(ctx context.Context) error

	mu       sync.Mutex
	counts   map[string]int
	requests []VisionRequest
	closed   bool
}

// NewMock answers every image with content.
func NewMock(content string) *Mock {
	return &Mock{
		VisionFunc: func(context.Context, *VisionRequest) (*VisionResponse, error) {
			return &VisionResponse{Content: content, Usage: Usage{Prompt: 100, Completion: 5, Total: 105}}, nil
		},
	}
}

// WithError returns a mock whose Vision and Health both fail with err.
func WithError(err error) *Mock {
	return &Mock{
		VisionFunc: func(context.Context, *VisionRequest) (*VisionResponse, error) { return nil, err },
		HealthFunc: func(context.Context) error { return err },
	}
}

func (m *Mock) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	m.mu.Lock()
	m.count("Vision")
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	if m.VisionFunc == nil {
		return nil, providerError("mock", ErrProviderUnavailable)
	}
	return m.VisionFunc(ctx, req)
}

func (m *Mock) Health(ctx context.Context) error {
	m.mu.Lock()
	m.count("Health")
	m.mu.Unlock()

	if m.HealthFunc == nil {
		return nil
	}
	return m.HealthFunc(ctx)
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.count("Close")
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *Mock) count(method string) {
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[method]++
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[method]
}

// LastRequest returns the most recent vision request.
func (m *Mock) LastRequest() (VisionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return VisionRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Provider = (*Mock)(nil)
