package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/focuson/pkg/focus"
)

// DefaultInterval is the sampling cadence for session statistics.
const DefaultInterval = 5 * time.Second

// ErrAlreadyFinalized is returned by Finalize after the first call.
var ErrAlreadyFinalized = errors.New("session: already finalized")

// Totals are the running counters of an open session.
type Totals struct {
	Start            time.Time `json:"start"`
	BlinkCount       int       `json:"blink_count"`
	ProductiveTime   int       `json:"productive_time"`
	DistractionCount int       `json:"distraction_count"`
	FocusScoreTotal  float64   `json:"focus_score_total"`
	DataPoints       int       `json:"data_points"`
}

// AvgFocusScore returns the mean sampled score, 0 with no samples.
func (t Totals) AvgFocusScore() float64 {
	if t.DataPoints == 0 {
		return 0
	}
	return t.FocusScoreTotal / float64(t.DataPoints)
}

// ProductivityPercentage returns the share of productive samples, 0 with no samples.
func (t Totals) ProductivityPercentage() float64 {
	if t.DataPoints == 0 {
		return 0
	}
	return float64(t.ProductiveTime) / float64(t.DataPoints) * 100
}

// Accumulator samples engine state on a fixed timer and produces the
// session record. It is owned by the sampling loop.
type Accumulator struct {
	interval  time.Duration
	next      time.Time
	totals    Totals
	finalized bool
}

// NewAccumulator starts a session at start. The first sample is due at start.
func NewAccumulator(start time.Time, interval time.Duration) *Accumulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Accumulator{
		interval: interval,
		next:     start,
		totals:   Totals{Start: start},
	}
}

// Sample records one data point if the cadence timer is due and reports
// whether it did. At most one point is recorded per call; after a stall the
// timer skips ahead rather than catching up.
func (a *Accumulator) Sample(now time.Time, bpm float64, verdict focus.Verdict, score float64) bool {
	if a.finalized || now.Before(a.next) {
		return false
	}
	a.Record(now, bpm, verdict, score)
	for !a.next.After(now) {
		a.next = a.next.Add(a.interval)
	}
	return true
}

// Record adds one data point unconditionally. A sample with a nonzero
// blink rate counts toward blink_count; a PRODUCTIVE verdict counts as
// productive time and anything else as a distraction.
func (a *Accumulator) Record(now time.Time, bpm float64, verdict focus.Verdict, score float64) {
	if a.finalized {
		return
	}
	if bpm > 0 {
		a.totals.BlinkCount++
	}
	if verdict.IsProductive() {
		a.totals.ProductiveTime++
	} else {
		a.totals.DistractionCount++
	}
	a.totals.FocusScoreTotal += score
	a.totals.DataPoints++
}

// Totals returns the running counters.
func (a *Accumulator) Totals() Totals {
	return a.totals
}

// Finalize closes the session and computes the averages. It succeeds once.
func (a *Accumulator) Finalize(now time.Time) (Record, error) {
	if a.finalized {
		return Record{}, ErrAlreadyFinalized
	}
	a.finalized = true

	t := a.totals
	duration := now.Sub(t.Start)
	if duration < 0 {
		duration = 0
	}

	return Record{
		ID:                     uuid.New().String(),
		StartTime:              epoch(t.Start),
		EndTime:                epoch(now),
		Duration:               duration.Seconds(),
		BlinkCount:             t.BlinkCount,
		ProductiveTime:         t.ProductiveTime,
		DistractionCount:       t.DistractionCount,
		FocusScoreTotal:        t.FocusScoreTotal,
		DataPoints:             t.DataPoints,
		AvgFocusScore:          t.AvgFocusScore(),
		ProductivityPercentage: t.ProductivityPercentage(),
	}, nil
}
