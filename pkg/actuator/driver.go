package actuator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/focuson/internal/log"
)

// errorLogInterval limits how often write failures are logged.
const errorLogInterval = 5 * time.Second

// Driver sends band updates to the indicator device.
// Write failures are counted and logged, never returned to the tick loop as fatal.
type Driver struct {
	port               Port
	suppressDuplicates bool
	logger             *slog.Logger

	mu            sync.Mutex
	last          Band
	hasLast       bool
	sent          uint64
	skipped       uint64
	errorCount    uint64
	lastErrorTime time.Time
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithSuppressDuplicates skips writes when the band has not changed.
func WithSuppressDuplicates(on bool) DriverOption {
	return func(d *Driver) { d.suppressDuplicates = on }
}

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a driver writing to port. A nil port makes Emit a no-op.
func NewDriver(port Port, opts ...DriverOption) *Driver {
	d := &Driver{port: port}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.Component("actuator.driver")
	}
	return d
}

// Emit writes the color token for band.
func (d *Driver) Emit(band Band) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}
	if d.suppressDuplicates && d.hasLast && band == d.last {
		d.skipped++
		return nil
	}

	if _, err := fmt.Fprintf(d.port, "%s\n", band.Color()); err != nil {
		d.errorCount++
		if d.lastErrorTime.IsZero() || time.Since(d.lastErrorTime) > errorLogInterval {
			d.logger.Warn("indicator write failed", "band", band.String(), "error", err, "total_errors", d.errorCount)
			d.lastErrorTime = time.Now()
		}
		return err
	}

	if !d.hasLast || band != d.last {
		d.logger.Debug("indicator band changed", "band", band.String(), "color", band.Color())
	}
	d.last = band
	d.hasLast = true
	d.sent++
	return nil
}

// Stats returns the number of writes sent, skipped as duplicates, and failed.
func (d *Driver) Stats() (sent, skipped, failed uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent, d.skipped, d.errorCount
}

// Sweep emits the band of each score in turn, pausing delay between them.
// It is a bench test for the indicator wiring.
func (d *Driver) Sweep(ctx context.Context, mapper Mapper, scores []float64, delay time.Duration) error {
	for i, s := range scores {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		band := mapper.Map(s)
		d.logger.Info("sweep", "score", s, "color", band.Color())
		if err := d.Emit(band); err != nil {
			return fmt.Errorf("actuator: sweep score %.0f: %w", s, err)
		}
	}
	return nil
}

// Close closes the underlying port.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}
