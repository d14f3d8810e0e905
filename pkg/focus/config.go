package focus

import (
	"fmt"
	"time"
)

// Config holds all tunable parameters of the focus engine.
// Penalties are magnitudes: a value of 5 subtracts five points.
type Config struct {
	// Calibration
	CalibrationWindow time.Duration // Warm-up used to establish the resting blink rate

	// Blink rate
	BlinkWindow             time.Duration // Hard-reset window for the rolling BPM
	BlinkDeviationThreshold float64       // Percent deviation from baseline that raises the flag
	BlinkPenalty            float64

	// Gaze
	DwellThreshold time.Duration // Continuous look-away before the flag is raised
	DwellPenalty   float64

	// Productivity
	ProductivityPenalty float64

	// Score
	InitialScore float64
	RecoveryRate float64 // Points per second while every condition is benign

	// Notice display lifetimes
	BlinkNoticeLifetime   time.Duration
	GazeNoticeLifetime    time.Duration
	VerdictNoticeLifetime time.Duration
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		CalibrationWindow: 30 * time.Second,

		BlinkWindow:             60 * time.Second,
		BlinkDeviationThreshold: 40,
		BlinkPenalty:            5,

		DwellThreshold: 5 * time.Second,
		DwellPenalty:   3,

		ProductivityPenalty: 8,

		InitialScore: MaxScore,
		RecoveryRate: 0.1,

		BlinkNoticeLifetime:   3 * time.Second,
		GazeNoticeLifetime:    3 * time.Second,
		VerdictNoticeLifetime: 5 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.CalibrationWindow <= 0:
		return fmt.Errorf("focus: calibration window must be positive")
	case c.BlinkWindow <= 0:
		return fmt.Errorf("focus: blink window must be positive")
	case c.BlinkDeviationThreshold <= 0:
		return fmt.Errorf("focus: blink deviation threshold must be positive")
	case c.DwellThreshold <= 0:
		return fmt.Errorf("focus: dwell threshold must be positive")
	case c.BlinkPenalty < 0 || c.DwellPenalty < 0 || c.ProductivityPenalty < 0:
		return fmt.Errorf("focus: penalties must not be negative")
	case c.RecoveryRate < 0:
		return fmt.Errorf("focus: recovery rate must not be negative")
	case c.InitialScore < MinScore || c.InitialScore > MaxScore:
		return fmt.Errorf("focus: initial score %.1f outside [%v, %v]", c.InitialScore, MinScore, MaxScore)
	}
	return nil
}
