// Package gaze turns webcam frames into per-tick eye observations: whether
// the eyes are closed and which way the pupils point.
package gaze

import (
	"context"
	"errors"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("gaze: source closed")

// Direction is the horizontal gaze direction.
type Direction int

const (
	// DirUnknown means no pupil could be located (no face, or eyes closed).
	DirUnknown Direction = iota
	DirCenter
	DirLeft
	DirRight
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirCenter:
		return "center"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Observation is one eye-tracker sample.
type Observation struct {
	FaceFound bool      `json:"face_found"`
	Blinking  bool      `json:"blinking"`
	Direction Direction `json:"direction"`

	// Ratio is the horizontal pupil position, 0 at the image's left edge of
	// the eye and 1 at its right edge. Zero when unknown.
	Ratio float64 `json:"ratio"`
}

// LookingAway reports whether the gaze points off-screen. Only a definite
// left or right counts; unknown is not looking away.
func (o Observation) LookingAway() bool {
	return o.Direction == DirLeft || o.Direction == DirRight
}

// Thresholds split the horizontal pupil ratio into directions.
type Thresholds struct {
	Right float64 `yaml:"right"` // ratio at or below is right
	Left  float64 `yaml:"left"`  // ratio at or above is left
}

// DefaultThresholds returns 0.35/0.65.
func DefaultThresholds() Thresholds {
	return Thresholds{Right: 0.35, Left: 0.65}
}

// Classify maps a horizontal ratio to a direction.
func (t Thresholds) Classify(ratio float64) Direction {
	switch {
	case ratio <= t.Right:
		return DirRight
	case ratio >= t.Left:
		return DirLeft
	default:
		return DirCenter
	}
}

// Source produces observations. Next blocks until the next frame is ready.
type Source interface {
	Next(ctx context.Context) (Observation, error)
	Close() error
}
