package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/debug"
	"github.com/teslashibe/focuson/pkg/focus"
	"github.com/teslashibe/focuson/pkg/screen"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithInterval sets the time between dispatches.
func WithInterval(d time.Duration) Option {
	return func(a *Adapter) { a.interval = d }
}

// WithTimeout bounds one capture plus classification round-trip.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithClock sets the time source used to stamp completions.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// Adapter schedules classifications without blocking the caller.
//
// Poll is called once per sampling tick. The first call anchors the
// schedule; a request is dispatched once the interval has elapsed since the
// previous dispatch and no request is in flight. A single worker goroutine
// runs requests and writes the result into a one-slot mailbox, where the
// newest completion always replaces any undelivered older one.
type Adapter struct {
	client   Client
	screen   screen.Source
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	requests chan time.Time

	mu           sync.Mutex
	started      bool
	anchored     bool
	lastDispatch time.Time
	inFlight     bool
	latest       focus.Verdict
	undelivered  bool
	dispatched   uint64
	completed    uint64
}

// New creates an adapter. Call Start before polling.
func New(client Client, src screen.Source, opts ...Option) *Adapter {
	a := &Adapter{
		client:   client,
		screen:   src,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		logger:   log.Component("classifier.adapter"),
		now:      time.Now,
		requests: make(chan time.Time, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the worker. It returns immediately; the worker exits when
// ctx is cancelled, abandoning any request in flight.
func (a *Adapter) Start(ctx context.Context) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	go a.worker(ctx)
}

// Poll dispatches a request if one is due and returns the latest completed
// verdict. fresh is true exactly once per completion.
func (a *Adapter) Poll(now time.Time) (v focus.Verdict, fresh bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case !a.anchored:
		a.anchored = true
		a.lastDispatch = now
	case a.started && !a.inFlight && now.Sub(a.lastDispatch) >= a.interval:
		select {
		case a.requests <- now:
			a.inFlight = true
			a.lastDispatch = now
			a.dispatched++
		default:
		}
	}

	if a.undelivered {
		a.undelivered = false
		return a.latest, true
	}
	return a.latest, false
}

// Latest returns the most recent completed verdict without consuming it.
func (a *Adapter) Latest() focus.Verdict {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Stats returns request counters.
func (a *Adapter) Stats() (dispatched, completed uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dispatched, a.completed
}

func (a *Adapter) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-a.requests:
			v := a.classify(ctx, at)
			if ctx.Err() != nil {
				return
			}
			a.deliver(v)
		}
	}
}

func (a *Adapter) classify(ctx context.Context, dispatchedAt time.Time) focus.Verdict {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := a.now()
	img, err := a.screen.Capture(ctx)
	if err != nil {
		a.logger.Warn("screenshot failed", "error", err)
		return ErrorVerdict(fmt.Errorf("screenshot: %w", err), a.now())
	}
	b := img.Bounds()
	debug.Log("🖥️  screenshot %dx%d\n", b.Dx(), b.Dy())

	text, err := a.client.Classify(ctx, img)
	if err != nil {
		a.logger.Warn("classification failed", "error", err)
		return ErrorVerdict(err, a.now())
	}

	v := ParseVerdict(text, a.now())
	a.logger.Info("classification complete",
		"label", v.Label.String(),
		"reply", text,
		"latency_ms", a.now().Sub(start).Milliseconds(),
		"queued_ms", start.Sub(dispatchedAt).Milliseconds(),
	)
	return v
}

func (a *Adapter) deliver(v focus.Verdict) {
	a.mu.Lock()
	a.latest = v
	a.undelivered = true
	a.inFlight = false
	a.completed++
	a.mu.Unlock()
}
