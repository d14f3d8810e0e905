package inference

import (
	"context"
	"errors"
	"log/slog"

	"github.com/teslashibe/focuson/internal/log"
)

// Chain asks each provider in order and returns the first reply.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain returns ErrProviderUnavailable when given no providers.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    log.Component("inference.chain"),
	}, nil
}

// Vision stops at the first success or when ctx is done.
func (c *Chain) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	var errs []error
	for i, p := range c.providers {
		resp, err := p.Vision(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider answered", "index", i)
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("provider failed", "index", i, "error", err)
		errs = append(errs, err)
	}
	return nil, &ChainError{Errors: errs}
}

// Health succeeds when at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Health(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(c.providers) {
		return &ChainError{Errors: errs}
	}
	if len(errs) > 0 {
		c.logger.Warn("some providers unhealthy", "healthy", len(c.providers)-len(errs), "total", len(c.providers))
	}
	return nil
}

// Close closes every provider.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

var _ Provider = (*Chain)(nil)
