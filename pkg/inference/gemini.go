package inference

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiBaseURL is the public Gemini API endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultGeminiModel is used unless WithVisionModel overrides it.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini speaks Google's generateContent API, authenticating with an API key.
type Gemini struct {
	baseURL string
	cfg     *Config
	t       *transport
}

// NewGemini creates a Gemini provider. An API key is required.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = GeminiBaseURL
	cfg.VisionModel = DefaultGeminiModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, providerError("gemini", ErrNoAPIKey)
	}
	if err := cfg.Validate(); err != nil {
		return nil, providerError("gemini", err)
	}
	return &Gemini{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cfg:     cfg,
		t:       newTransport("gemini", cfg, nil),
	}, nil
}

type geminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *geminiInline `json:"inline_data,omitempty"`
}

type geminiInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (g *Gemini) endpoint(suffix string) string {
	return fmt.Sprintf("%s/models/%s%s?key=%s", g.baseURL, g.cfg.VisionModel, suffix, url.QueryEscape(g.cfg.APIKey))
}

// Vision sends the screenshot as inline JPEG data.
func (g *Gemini) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	start := time.Now()
	if req.Image == nil {
		return nil, providerError("gemini", ErrNoImage)
	}
	b64, err := g.cfg.EncodeImageBase64(req.Image)
	if err != nil {
		return nil, providerError("gemini", fmt.Errorf("encode image: %w", err))
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{
			{Text: req.Prompt},
			{InlineData: &geminiInline{MimeType: "image/jpeg", Data: b64}},
		}}},
	}
	body.GenerationConfig.MaxOutputTokens = req.tokens(g.cfg.MaxTokens)

	var out geminiResponse
	if err := g.t.call(ctx, http.MethodPost, g.endpoint(":generateContent"), body, &out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, providerError("gemini", ErrEmptyResponse)
	}

	return &VisionResponse{
		Content: out.Candidates[0].Content.Parts[0].Text,
		Model:   g.cfg.VisionModel,
		Usage: Usage{
			Prompt:     out.UsageMetadata.PromptTokenCount,
			Completion: out.UsageMetadata.CandidatesTokenCount,
			Total:      out.UsageMetadata.TotalTokenCount,
		},
		Latency: time.Since(start),
	}, nil
}

// Health fetches the configured model's metadata.
func (g *Gemini) Health(ctx context.Context) error {
	return g.t.call(ctx, http.MethodGet, g.endpoint(""), nil, nil)
}

// Close drops idle connections.
func (g *Gemini) Close() error {
	g.t.close()
	return nil
}

var _ Provider = (*Gemini)(nil)
