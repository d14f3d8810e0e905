// Package compare summarises progress across finished sessions.
package compare

import (
	"errors"
	"fmt"
	"sort"

	"github.com/teslashibe/focuson/pkg/session"
)

// MinSessions is the number of valid sessions a comparison needs.
const MinSessions = 2

// ErrTooFewSessions is returned when fewer than MinSessions are available.
var ErrTooFewSessions = errors.New("compare: need at least 2 valid sessions")

// Trend is the direction of the focus score from the first session to the last.
type Trend int

const (
	Stable Trend = iota
	Improved
	Declined
)

// String returns the trend name.
func (t Trend) String() string {
	switch t {
	case Improved:
		return "improved"
	case Declined:
		return "declined"
	default:
		return "stable"
	}
}

// Summary is the comparison of sessions in start order.
type Summary struct {
	Sessions           []session.Record
	FocusChange        float64
	ProductivityChange float64
	Trend              Trend
}

// Load reads every session under dir and summarises them.
func Load(dir string) (Summary, error) {
	recs, err := session.LoadAll(dir)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs)
}

// Summarize compares recs. Invalid records are dropped and the rest are
// sorted by start time.
func Summarize(recs []session.Record) (Summary, error) {
	valid := make([]session.Record, 0, len(recs))
	for _, r := range recs {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	if len(valid) < MinSessions {
		return Summary{}, fmt.Errorf("%w: found %d", ErrTooFewSessions, len(valid))
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].StartTime < valid[j].StartTime
	})

	first, last := valid[0], valid[len(valid)-1]
	s := Summary{
		Sessions:           valid,
		FocusChange:        last.AvgFocusScore - first.AvgFocusScore,
		ProductivityChange: last.ProductivityPercentage - first.ProductivityPercentage,
	}
	switch {
	case s.FocusChange > 0:
		s.Trend = Improved
	case s.FocusChange < 0:
		s.Trend = Declined
	}
	return s, nil
}
