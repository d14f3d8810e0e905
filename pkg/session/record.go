// Package session accumulates per-session focus statistics and persists
// the end-of-session record and report.
package session

import (
	"math"
	"time"
)

// Record is the persisted summary of one session. Times are epoch seconds.
type Record struct {
	ID string `json:"id"`

	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`

	BlinkCount       int     `json:"blink_count"`
	ProductiveTime   int     `json:"productive_time"`
	DistractionCount int     `json:"distraction_count"`
	FocusScoreTotal  float64 `json:"focus_score_total"`
	DataPoints       int     `json:"data_points"`

	AvgFocusScore          float64 `json:"avg_focus_score"`
	ProductivityPercentage float64 `json:"productivity_percentage"`
}

// Start returns the session start time.
func (r Record) Start() time.Time {
	return fromEpoch(r.StartTime)
}

// End returns the session end time.
func (r Record) End() time.Time {
	return fromEpoch(r.EndTime)
}

// Valid reports whether the record has the fields the comparison needs.
func (r Record) Valid() bool {
	return r.StartTime > 0 && r.EndTime >= r.StartTime
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromEpoch(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(frac*1e9))
}
