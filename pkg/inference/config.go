package inference

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/focuson/internal/httpc"
	"github.com/teslashibe/focuson/internal/log"
)

// Config holds provider settings shared by both wire formats.
type Config struct {
	BaseURL     string
	APIKey      string // optional for local OpenAI-compatible servers
	VisionModel string

	MaxTokens int

	// Screenshots are downscaled to fit MaxWidth x MaxHeight before encoding.
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

// WithBaseURL points the provider at another endpoint,
// e.g. "http://localhost:11434/v1" for Ollama.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

func WithVisionModel(model string) Option {
	return func(c *Config) { c.VisionModel = model }
}

func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithMaxImageSize sets the box screenshots are downscaled into.
func WithMaxImageSize(width, height int) Option {
	return func(c *Config) {
		c.MaxWidth = width
		c.MaxHeight = height
	}
}

func WithJPEGQuality(q int) Option {
	return func(c *Config) { c.JPEGQuality = q }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry re-sends a request up to maxRetries times after a transport
// failure or a retryable APIError, waiting delay*attempt between tries.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// DefaultConfig targets OpenAI with a short reply and 720p screenshots.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		VisionModel: "gpt-4.1-mini",
		MaxTokens:   50,
		MaxWidth:    1280,
		MaxHeight:   720,
		JPEGQuality: 85,
		Timeout:     httpc.DefaultTimeout,
		RetryDelay:  500 * time.Millisecond,
		Logger:      log.L(),
	}
}

// Apply runs opts against c.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the settings a request cannot be built without.
func (c *Config) Validate() error {
	switch {
	case c.VisionModel == "":
		return ErrNoModel
	case c.MaxTokens < 0:
		return fmt.Errorf("inference: max tokens %d is negative", c.MaxTokens)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("inference: jpeg quality %d outside [1, 100]", c.JPEGQuality)
	case c.MaxRetries < 0:
		return fmt.Errorf("inference: max retries %d is negative", c.MaxRetries)
	}
	return nil
}
