package focus

import "time"

// BaselineEstimator establishes the resting blink rate during a warm-up window.
//
// The baseline is computed exactly once, when the window expires, and never
// changes afterwards even if the true resting rate drifts.
type BaselineEstimator struct {
	window      time.Duration
	start       time.Time
	calibrating bool
	blinks      int
	bpm         float64
	set         bool
}

// NewBaselineEstimator starts a calibration window at start.
func NewBaselineEstimator(start time.Time, window time.Duration) *BaselineEstimator {
	return &BaselineEstimator{
		window:      window,
		start:       start,
		calibrating: true,
	}
}

// Observe counts a blink event and closes the window once it has elapsed.
// It is a no-op after calibration.
func (b *BaselineEstimator) Observe(blink bool, now time.Time) {
	if !b.calibrating {
		return
	}
	if blink {
		b.blinks++
	}

	elapsed := now.Sub(b.start)
	if elapsed < b.window {
		return
	}

	if secs := elapsed.Seconds(); secs > 0 {
		b.bpm = float64(b.blinks) / secs * 60
	}
	b.set = true
	b.calibrating = false
}

// IsCalibrated reports whether the baseline has been established.
func (b *BaselineEstimator) IsCalibrated() bool {
	return !b.calibrating
}

// BaselineBPM returns the baseline and whether it has been set.
func (b *BaselineEstimator) BaselineBPM() (float64, bool) {
	return b.bpm, b.set
}

// Remaining returns how much of the calibration window is left.
func (b *BaselineEstimator) Remaining(now time.Time) time.Duration {
	if !b.calibrating {
		return 0
	}
	if r := b.window - now.Sub(b.start); r > 0 {
		return r
	}
	return 0
}
