package focus

import "time"

// GazeDwellTracker measures how long the gaze has continuously been away
// from the screen.
type GazeDwellTracker struct {
	threshold time.Duration
	away      bool
	since     time.Time
	dwell     time.Duration
}

// NewGazeDwellTracker creates a tracker that flags dwell at or above threshold.
func NewGazeDwellTracker(threshold time.Duration) *GazeDwellTracker {
	return &GazeDwellTracker{threshold: threshold}
}

// Observe feeds one sample and returns the current dwell.
// Looking back resets the dwell to zero immediately.
func (g *GazeDwellTracker) Observe(lookingAway bool, now time.Time) time.Duration {
	if !lookingAway {
		g.away = false
		g.since = time.Time{}
		g.dwell = 0
		return 0
	}
	if !g.away {
		g.away = true
		g.since = now
	}
	g.dwell = now.Sub(g.since)
	return g.dwell
}

// Flagged reports whether the last observed dwell reached the threshold.
func (g *GazeDwellTracker) Flagged() bool {
	return g.away && g.dwell >= g.threshold
}

// LookingAwaySince returns when the current look-away run started.
func (g *GazeDwellTracker) LookingAwaySince() (time.Time, bool) {
	return g.since, g.away
}

// Dwell returns the last observed dwell.
func (g *GazeDwellTracker) Dwell() time.Duration {
	return g.dwell
}
