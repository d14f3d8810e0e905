package focus

import "time"

// Outcome is the result of one PenaltyStateMachine tick.
type Outcome struct {
	// Score is the updated score before clamping.
	Score float64

	BlinkFired        bool
	GazeFired         bool
	ProductivityFired bool

	// Recovered is the number of points added by recovery this tick.
	Recovered float64
}

// Fired reports whether any penalty was applied this tick.
func (o Outcome) Fired() bool {
	return o.BlinkFired || o.GazeFired || o.ProductivityFired
}

// PenaltyStateMachine turns the three condition flags into score deltas.
//
// Each penalty is edge-triggered: it is subtracted once on the tick its
// condition turns on, and can fire again only after the condition has cleared.
// When all three conditions are benign and no penalty fired, the score
// recovers at RecoveryRate points per second since the previous tick.
type PenaltyStateMachine struct {
	blinkPenalty        float64
	dwellPenalty        float64
	productivityPenalty float64
	recoveryRate        float64

	blink        EdgeDetector
	gaze         EdgeDetector
	productivity EdgeDetector

	lastUpdate time.Time
}

// NewPenaltyStateMachine creates a state machine whose recovery clock starts at start.
func NewPenaltyStateMachine(cfg Config, start time.Time) *PenaltyStateMachine {
	return &PenaltyStateMachine{
		blinkPenalty:        cfg.BlinkPenalty,
		dwellPenalty:        cfg.DwellPenalty,
		productivityPenalty: cfg.ProductivityPenalty,
		recoveryRate:        cfg.RecoveryRate,
		lastUpdate:          start,
	}
}

// Tick applies this tick's penalties, then recovery if nothing fired.
func (p *PenaltyStateMachine) Tick(now time.Time, blinkFlag, gazeFlag bool, verdict Verdict, score float64) Outcome {
	elapsed := now.Sub(p.lastUpdate).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	p.lastUpdate = now

	nonProductive := verdict.IsNonProductive()
	out := Outcome{Score: score}

	if rising, _ := p.blink.Update(blinkFlag); rising {
		out.Score -= p.blinkPenalty
		out.BlinkFired = true
	}
	if rising, _ := p.gaze.Update(gazeFlag); rising {
		out.Score -= p.dwellPenalty
		out.GazeFired = true
	}
	if rising, _ := p.productivity.Update(nonProductive); rising {
		out.Score -= p.productivityPenalty
		out.ProductivityFired = true
	}

	if !out.Fired() && !blinkFlag && !gazeFlag && !nonProductive {
		out.Recovered = p.recoveryRate * elapsed
		out.Score += out.Recovered
	}
	return out
}

// Active returns the three penalty flags.
func (p *PenaltyStateMachine) Active() (blink, gaze, productivity bool) {
	return p.blink.Active(), p.gaze.Active(), p.productivity.Active()
}
