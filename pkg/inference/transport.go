package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/focuson/internal/httpc"
)

// maxErrorBody bounds how much of a failed reply is read into an APIError.
const maxErrorBody = 64 << 10

// transport is the HTTP plumbing shared by both wire formats.
type transport struct {
	provider string
	http     *http.Client
	header   http.Header
	retries  int
	delay    time.Duration
	logger   *slog.Logger
}

func newTransport(provider string, cfg *Config, header http.Header) *transport {
	return &transport{
		provider: provider,
		http:     httpc.NewClient(cfg.Timeout),
		header:   header,
		retries:  cfg.MaxRetries,
		delay:    cfg.RetryDelay,
		logger:   cfg.Logger.With("component", "inference."+provider),
	}
}

// call sends payload (nil for GET) to url and decodes a 200 reply into out.
// Transport failures and retryable API errors are re-sent up to retries
// times with a linear backoff.
func (t *transport) call(ctx context.Context, method, url string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return providerError(t.provider, fmt.Errorf("marshal request: %w", err))
		}
	}

	for attempt := 0; ; attempt++ {
		err := t.once(ctx, method, url, body, out)
		if err == nil || attempt >= t.retries || ctx.Err() != nil {
			return err
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return err
		}

		t.logger.Warn("request failed, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return providerError(t.provider, ctx.Err())
		case <-time.After(t.delay * time.Duration(attempt+1)):
		}
	}
}

func (t *transport) once(ctx context.Context, method, url string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return providerError(t.provider, err)
	}
	for k, v := range t.header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return providerError(t.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseAPIError(t.provider, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providerError(t.provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (t *transport) close() {
	t.http.CloseIdleConnections()
}
