// Package inference sends screenshots to hosted vision models.
//
// Two wire formats are spoken: OpenAI-style chat completions (Client, which
// also fits Ollama, vLLM and other compatible servers) and Gemini
// generateContent (Gemini). Chain puts several providers behind one and
// falls through to the next on failure.
//
//	p, _ := inference.NewClient(inference.WithAPIKey(key))
//	defer p.Close()
//	resp, err := p.Vision(ctx, &inference.VisionRequest{Image: shot, Prompt: q})
package inference

import (
	"context"
	"image"
	"time"
)

// Provider answers a question about one image.
type Provider interface {
	Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error)

	// Health reports whether the endpoint accepts the configured key and model.
	Health(ctx context.Context) error

	Close() error
}

// VisionRequest is one image and the question asked about it.
type VisionRequest struct {
	Image  image.Image
	Prompt string

	// MaxTokens caps the reply; 0 uses the provider default.
	MaxTokens int
}

// VisionResponse is the model's reply.
type VisionResponse struct {
	Content string
	Model   string
	Usage   Usage
	Latency time.Duration
}

// Usage counts tokens billed for one request.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

func (r *VisionRequest) tokens(def int) int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return def
}
