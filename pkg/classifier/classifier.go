// Package classifier judges whether the screen shows productive work.
//
// An Adapter captures a screenshot on a fixed interval, sends it to a
// vision Client off the sampling loop, and hands the latest completed
// verdict back through a non-blocking Poll. Every failure becomes an ERROR
// verdict; nothing in this package stops the sampling loop.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/teslashibe/focuson/pkg/inference"
)

// Defaults.
const (
	DefaultInterval  = 30 * time.Second
	DefaultTimeout   = 30 * time.Second
	DefaultMaxTokens = 50
)

// Prompt asks the model for a one-word judgment.
const Prompt = "Analyze this screenshot and determine if the user is on a productive website/application or a non-productive one. Consider:\n" +
	"- Work-related websites (email, documents, coding, etc.)\n" +
	"- Educational content\n" +
	"- Social media, entertainment, gaming, shopping\n\n" +
	"Respond with only 'PRODUCTIVE' if the content is work/education related, or 'NON-PRODUCTIVE' if it's entertainment/social media. " +
	"If you can't determine, respond with 'UNKNOWN'."

// ErrUnavailable is returned on every call when the classifier has no credential.
var ErrUnavailable = errors.New("classifier: unavailable")

// TransportError is a failed round-trip to the remote model.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("classifier: transport: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client turns a screenshot into the model's raw reply.
type Client interface {
	Classify(ctx context.Context, img image.Image) (string, error)
}

// InferenceClient classifies through a vision inference provider.
type InferenceClient struct {
	provider  inference.Provider
	prompt    string
	maxTokens int
}

// NewInferenceClient wraps p with the productivity prompt.
func NewInferenceClient(p inference.Provider) *InferenceClient {
	return &InferenceClient{
		provider:  p,
		prompt:    Prompt,
		maxTokens: DefaultMaxTokens,
	}
}

// Classify sends img with the prompt and returns the trimmed reply.
func (c *InferenceClient) Classify(ctx context.Context, img image.Image) (string, error) {
	resp, err := c.provider.Vision(ctx, &inference.VisionRequest{
		Image:     img,
		Prompt:    c.prompt,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", &TransportError{Err: err}
	}
	return strings.TrimSpace(resp.Content), nil
}

// Close releases the provider.
func (c *InferenceClient) Close() error {
	return c.provider.Close()
}

// Connect health-checks p within timeout and wraps it as a Client. A
// provider that fails the check is closed and replaced by Unavailable, so
// every verdict of the session is ERROR. The returned func releases p.
func Connect(ctx context.Context, p inference.Provider, timeout time.Duration) (Client, func()) {
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Health(hctx); err != nil {
		p.Close()
		return Unavailable{Reason: fmt.Sprintf("health check: %v", err)}, func() {}
	}
	ic := NewInferenceClient(p)
	return ic, func() { ic.Close() }
}

// Unavailable is a Client that fails every call, used when no API key is
// set or the provider failed its health check.
type Unavailable struct {
	Reason string
}

// Classify always returns ErrUnavailable.
func (u Unavailable) Classify(ctx context.Context, img image.Image) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

var (
	_ Client = (*InferenceClient)(nil)
	_ Client = Unavailable{}
)
