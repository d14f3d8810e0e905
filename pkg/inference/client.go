package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client speaks the chat completions API. It works against OpenAI and any
// compatible server (Ollama, vLLM, Groq).
type Client struct {
	baseURL string
	cfg     *Config
	t       *transport
}

// NewClient creates an OpenAI-compatible provider. The API key may be
// empty for local servers.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, providerError("openai", err)
	}

	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cfg:     cfg,
		t:       newTransport("openai", cfg, header),
	}, nil
}

type chatPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Vision sends the screenshot as an inline JPEG data URL.
func (c *Client) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	start := time.Now()
	if req.Image == nil {
		return nil, providerError("openai", ErrNoImage)
	}
	b64, err := c.cfg.EncodeImageBase64(req.Image)
	if err != nil {
		return nil, providerError("openai", fmt.Errorf("encode image: %w", err))
	}

	body := chatRequest{
		Model: c.cfg.VisionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + b64}},
			},
		}},
		MaxTokens: req.tokens(c.cfg.MaxTokens),
	}

	var out chatResponse
	if err := c.t.call(ctx, http.MethodPost, c.baseURL+"/chat/completions", body, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, providerError("openai", ErrEmptyResponse)
	}

	resp := &VisionResponse{
		Content: out.Choices[0].Message.Content,
		Model:   out.Model,
		Usage: Usage{
			Prompt:     out.Usage.PromptTokens,
			Completion: out.Usage.CompletionTokens,
			Total:      out.Usage.TotalTokens,
		},
		Latency: time.Since(start),
	}
	c.t.logger.Debug("vision complete", "model", resp.Model, "tokens", resp.Usage.Total, "latency_ms", resp.Latency.Milliseconds())
	return resp, nil
}

// Health lists models, which fails fast on a bad key or unreachable server.
func (c *Client) Health(ctx context.Context) error {
	return c.t.call(ctx, http.MethodGet, c.baseURL+"/models", nil, nil)
}

// Close drops idle connections.
func (c *Client) Close() error {
	c.t.close()
	return nil
}

var _ Provider = (*Client)(nil)
