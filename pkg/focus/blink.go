package focus

import (
	"math"
	"time"
)

// BlinkRateTracker converts a blinking/not-blinking signal into blinks per minute.
//
// A blink is the rising edge of the signal; a sustained closed-eye run counts
// once. The count is kept over a window that hard-resets (count and start) once
// the window length of wall time has elapsed. It does not slide.
type BlinkRateTracker struct {
	window      time.Duration
	edge        EdgeDetector
	count       int
	windowStart time.Time
	bpm         float64
}

// NewBlinkRateTracker starts the first window at start.
func NewBlinkRateTracker(start time.Time, window time.Duration) *BlinkRateTracker {
	return &BlinkRateTracker{
		window:      window,
		windowStart: start,
	}
}

// Observe feeds one sample. It returns the current BPM and whether this sample
// started a new blink.
func (t *BlinkRateTracker) Observe(blinking bool, now time.Time) (bpm float64, blinked bool) {
	blinked, _ = t.edge.Update(blinking)

	elapsed := now.Sub(t.windowStart)
	if elapsed >= t.window {
		t.count = 0
		t.windowStart = now
		elapsed = 0
	}
	if blinked {
		t.count++
	}

	t.bpm = 0
	if secs := elapsed.Seconds(); secs > 0 {
		t.bpm = float64(t.count) / secs * 60
	}
	return t.bpm, blinked
}

// BPM returns the rate computed by the last Observe.
func (t *BlinkRateTracker) BPM() float64 {
	return t.bpm
}

// Count returns the blinks in the current window.
func (t *BlinkRateTracker) Count() int {
	return t.count
}

// WindowElapsed returns the time since the current window started.
func (t *BlinkRateTracker) WindowElapsed(now time.Time) time.Duration {
	return now.Sub(t.windowStart)
}

// Deviation returns |bpm - baseline| / baseline as a percentage.
// ok is false when there is nothing to compare: no blinks in the current
// window, or a zero baseline.
func Deviation(bpm, baseline float64) (pct float64, ok bool) {
	if bpm <= 0 || baseline <= 0 {
		return 0, false
	}
	return math.Abs(bpm-baseline) / baseline * 100, true
}
