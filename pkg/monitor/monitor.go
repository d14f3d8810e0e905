// Package monitor runs the sampling loop: each tick reads the eye tracker,
// polls the classifier, advances the focus engine, drives the indicator,
// samples session statistics and publishes to the dashboard. When the loop
// is cancelled the session is finalized and persisted.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/actuator"
	"github.com/teslashibe/focuson/pkg/debug"
	"github.com/teslashibe/focuson/pkg/focus"
	"github.com/teslashibe/focuson/pkg/gaze"
	"github.com/teslashibe/focuson/pkg/session"
)

const (
	// sensorErrorLogInterval limits how often tracker failures are logged.
	sensorErrorLogInterval = 5 * time.Second

	// persistTimeout bounds the index write after cancellation.
	persistTimeout = 5 * time.Second
)

// Classifier delivers asynchronous productivity verdicts.
type Classifier interface {
	Start(ctx context.Context)
	Poll(now time.Time) (focus.Verdict, bool)
}

// Emitter receives the band after every tick.
type Emitter interface {
	Emit(band actuator.Band) error
}

// Publisher receives every snapshot with the running session totals.
type Publisher interface {
	Publish(snap focus.Snapshot, totals session.Totals)
}

// Config holds loop timing and engine parameters.
type Config struct {
	Engine         focus.Config
	Mapper         actuator.Mapper
	TickInterval   time.Duration
	SampleInterval time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClassifier sets the verdict source. Without one the verdict stays NONE.
func WithClassifier(c Classifier) Option {
	return func(m *Monitor) { m.classifier = c }
}

// WithEmitter sets the indicator output.
func WithEmitter(e Emitter) Option {
	return func(m *Monitor) { m.emitter = e }
}

// WithPublisher adds a snapshot consumer.
func WithPublisher(p Publisher) Option {
	return func(m *Monitor) { m.publishers = append(m.publishers, p) }
}

// WithWriter sets where the report folder is written on finish.
func WithWriter(w *session.Writer) Option {
	return func(m *Monitor) { m.writer = w }
}

// WithIndex sets the history index updated on finish.
func WithIndex(idx *session.Index) Option {
	return func(m *Monitor) { m.index = idx }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the monitor logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// Result is the outcome of a finished session.
type Result struct {
	Record session.Record
	Paths  session.Paths
}

// Monitor owns the engine and the session accumulator.
type Monitor struct {
	cfg        Config
	source     gaze.Source
	classifier Classifier
	emitter    Emitter
	publishers []Publisher
	writer     *session.Writer
	index      *session.Index
	now        func() time.Time
	logger     *slog.Logger

	engine *focus.Engine
	acc    *session.Accumulator

	mu            sync.Mutex // Protects last
	last          focus.Snapshot
	lastSensorLog time.Time
	sensorErrors  uint64
}

// New creates a monitor whose session starts now.
func New(cfg Config, src gaze.Source, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:    cfg,
		source: src,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Component("monitor")
	}
	if m.cfg.TickInterval <= 0 {
		m.cfg.TickInterval = 50 * time.Millisecond
	}

	start := m.now()
	m.engine = focus.New(cfg.Engine, start)
	if cfg.Mapper.Valid() {
		m.engine.SetMapper(cfg.Mapper)
	}
	m.acc = session.NewAccumulator(start, cfg.SampleInterval)
	return m
}

// SetMapper swaps the band cutoffs. Safe to call from any goroutine.
func (m *Monitor) SetMapper(mp actuator.Mapper) error {
	if !mp.Valid() {
		return fmt.Errorf("monitor: invalid cutoffs %.1f/%.1f", mp.LowCutoff, mp.HighCutoff)
	}
	m.engine.SetMapper(mp)
	m.logger.Info("band cutoffs updated", "low", mp.LowCutoff, "high", mp.HighCutoff)
	return nil
}

// Last returns the most recent snapshot.
func (m *Monitor) Last() focus.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Run ticks until ctx is cancelled or the tracker closes, then finalizes
// and persists the session. Persistence errors are returned with the result.
func (m *Monitor) Run(ctx context.Context) (Result, error) {
	if m.classifier != nil {
		m.classifier.Start(ctx)
	}

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	m.logger.Info("monitoring started",
		"tick", m.cfg.TickInterval,
		"calibration", m.cfg.Engine.CalibrationWindow,
	)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if err := m.Step(ctx, m.now()); err != nil {
				if !errors.Is(err, context.Canceled) {
					m.logger.Warn("tracker stopped", "error", err)
				}
				break loop
			}
		}
	}

	return m.Finish(m.now())
}

// Step runs one tick at now. It returns an error only when the tracker can
// no longer produce observations.
func (m *Monitor) Step(ctx context.Context, now time.Time) error {
	obs, err := m.source.Next(ctx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, gaze.ErrClosed) {
			return err
		}
		m.sensorError(err, now)
		obs = gaze.Observation{}
	}

	tick := focus.Tick{
		Time:        now,
		Blinking:    obs.Blinking,
		LookingAway: obs.LookingAway(),
	}
	if m.classifier != nil {
		if v, fresh := m.classifier.Poll(now); fresh {
			tick.Verdict = &v
		}
	}

	snap := m.engine.Tick(tick)

	if m.emitter != nil {
		// Failures are counted and logged by the driver.
		_ = m.emitter.Emit(snap.Band)
	}

	m.acc.Sample(now, snap.BPM, snap.Verdict, snap.Score)
	totals := m.acc.Totals()
	for _, p := range m.publishers {
		p.Publish(snap, totals)
	}

	m.mu.Lock()
	m.last = snap
	m.mu.Unlock()

	debug.TickLog("tick %d score=%.1f band=%s bpm=%.1f dwell=%.1fs verdict=%s\n",
		snap.Ticks, snap.Score, snap.Band, snap.BPM, snap.DwellSeconds, snap.Verdict.Label)
	return nil
}

func (m *Monitor) sensorError(err error, now time.Time) {
	m.sensorErrors++
	if now.Sub(m.lastSensorLog) >= sensorErrorLogInterval {
		m.logger.Warn("tracker read failed", "error", err, "count", m.sensorErrors)
		m.lastSensorLog = now
	}
}

// Finish finalizes the session at now and writes the report folder and
// index row. The record is returned even when persistence fails.
func (m *Monitor) Finish(now time.Time) (Result, error) {
	rec, err := m.acc.Finalize(now)
	if err != nil {
		return Result{}, err
	}
	res := Result{Record: rec}

	m.logger.Info("session finished",
		"duration", time.Duration(rec.Duration*float64(time.Second)).Round(time.Second),
		"avg_focus", rec.AvgFocusScore,
		"productivity_pct", rec.ProductivityPercentage,
	)

	var errs []error
	if m.writer != nil {
		paths, err := m.writer.Write(rec)
		res.Paths = paths
		if err != nil {
			m.logger.Error("save session failed", "error", err)
			errs = append(errs, err)
		}
	}
	if m.index != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.index.Insert(ctx, rec, res.Paths.Dir); err != nil {
			m.logger.Error("index session failed", "error", err)
			errs = append(errs, fmt.Errorf("monitor: index session: %w", err))
		}
	}
	return res, errors.Join(errs...)
}
