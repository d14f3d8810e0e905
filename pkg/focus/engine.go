// Package focus fuses blink cadence, gaze dwell and screen-content verdicts
// into a single bounded focus score.
//
// An Engine owns all mutable state and is advanced by one Tick call per
// sampling loop iteration. It is not safe for concurrent use except for
// SetMapper; the sampling loop is its single owner.
//
//	eng := focus.New(focus.DefaultConfig(), time.Now())
//	snap := eng.Tick(focus.Tick{Time: time.Now(), Blinking: obs.Blinking, LookingAway: obs.LookingAway()})
//	driver.Emit(snap.Band)
package focus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/actuator"
)

// Tick is one sampling loop iteration.
type Tick struct {
	Time        time.Time
	Blinking    bool
	LookingAway bool

	// Verdict is set only when a classification completed since the last tick.
	Verdict *Verdict
}

// Snapshot is the engine state after a tick. It is a value copy and safe to
// hand to other goroutines.
type Snapshot struct {
	Time  time.Time     `json:"time"`
	Ticks uint64        `json:"ticks"`
	Score float64       `json:"score"`
	Band  actuator.Band `json:"band"`

	BPM          float64 `json:"bpm"`
	WindowBlinks int     `json:"window_blinks"`
	Blinked      bool    `json:"blinked"`

	Calibrating          bool    `json:"calibrating"`
	CalibrationRemaining float64 `json:"calibration_remaining"`
	BaselineBPM          float64 `json:"baseline_bpm"`
	DeviationPct         float64 `json:"deviation_pct"`

	LookingAway  bool    `json:"looking_away"`
	DwellSeconds float64 `json:"dwell_seconds"`

	Verdict Verdict `json:"verdict"`

	BlinkPenaltyActive        bool `json:"blink_penalty_active"`
	GazePenaltyActive         bool `json:"gaze_penalty_active"`
	ProductivityPenaltyActive bool `json:"productivity_penalty_active"`

	Outcome Outcome  `json:"-"`
	Notices []Notice `json:"notices"`
}

// Engine is the focus fusion state machine.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	baseline *BaselineEstimator
	blink    *BlinkRateTracker
	gaze     *GazeDwellTracker
	penalty  *PenaltyStateMachine
	score    *ScoreAggregator
	notices  *NoticeBoard

	verdict Verdict
	ticks   uint64

	// Last defined blink deviation; held while the window has no blinks.
	deviation float64
	blinkFlag bool

	mapperMu sync.RWMutex
	mapper   actuator.Mapper
}

// New creates an engine whose calibration and blink windows start at start.
func New(cfg Config, start time.Time) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   log.Component("focus.engine"),
		baseline: NewBaselineEstimator(start, cfg.CalibrationWindow),
		blink:    NewBlinkRateTracker(start, cfg.BlinkWindow),
		gaze:     NewGazeDwellTracker(cfg.DwellThreshold),
		penalty:  NewPenaltyStateMachine(cfg, start),
		score:    NewScoreAggregator(cfg.InitialScore),
		notices:  NewNoticeBoard(cfg),
		mapper:   actuator.DefaultMapper(),
	}
}

// SetMapper replaces the band cutoffs. Safe to call from any goroutine.
func (e *Engine) SetMapper(m actuator.Mapper) {
	e.mapperMu.Lock()
	e.mapper = m
	e.mapperMu.Unlock()
}

// Mapper returns the current band cutoffs.
func (e *Engine) Mapper() actuator.Mapper {
	e.mapperMu.RLock()
	defer e.mapperMu.RUnlock()
	return e.mapper
}

// Score returns the current focus score.
func (e *Engine) Score() float64 {
	return e.score.Score()
}

// Tick advances the engine by one sample.
func (e *Engine) Tick(t Tick) Snapshot {
	now := t.Time
	e.ticks++

	// Blink rate and baseline
	bpm, blinked := e.blink.Observe(t.Blinking, now)
	wasCalibrating := !e.baseline.IsCalibrated()
	e.baseline.Observe(blinked, now)
	baseline, hasBaseline := e.baseline.BaselineBPM()
	if wasCalibrating && e.baseline.IsCalibrated() {
		e.logger.Info("baseline established", "baseline_bpm", baseline)
	}

	fresh := false
	if hasBaseline {
		if pct, ok := Deviation(bpm, baseline); ok {
			e.deviation = pct
			e.blinkFlag = pct >= e.cfg.BlinkDeviationThreshold
			fresh = true
		}
	}
	deviation, blinkFlag := e.deviation, e.blinkFlag
	if blinkFlag && fresh {
		if bpm > baseline {
			e.notices.Set(NoticeBlink, "Increased blinking rate", now)
		} else {
			e.notices.Set(NoticeBlink, "Decreased blinking rate", now)
		}
	}

	// Gaze dwell
	dwell := e.gaze.Observe(t.LookingAway, now)
	gazeFlag := e.gaze.Flagged()
	if gazeFlag {
		e.notices.Set(NoticeGaze, "Lost eye contact with screen", now)
	}

	// Latest verdict
	if t.Verdict != nil {
		e.verdict = *t.Verdict
		e.notices.Set(NoticeProductivity, e.verdict.NoticeText(), now)
		e.logger.Info("verdict", "label", e.verdict.Label.String(), "message", e.verdict.Message)
	}

	out := e.penalty.Tick(now, blinkFlag, gazeFlag, e.verdict, e.score.Score())
	score := e.score.Apply(out.Score)
	if out.Fired() {
		e.logger.Debug("penalty applied",
			"blink", out.BlinkFired,
			"gaze", out.GazeFired,
			"productivity", out.ProductivityFired,
			"score", score,
		)
	}

	blinkActive, gazeActive, productivityActive := e.penalty.Active()

	return Snapshot{
		Time:                      now,
		Ticks:                     e.ticks,
		Score:                     score,
		Band:                      e.Mapper().Map(score),
		BPM:                       bpm,
		WindowBlinks:              e.blink.Count(),
		Blinked:                   blinked,
		Calibrating:               !e.baseline.IsCalibrated(),
		CalibrationRemaining:      e.baseline.Remaining(now).Seconds(),
		BaselineBPM:               baseline,
		DeviationPct:              deviation,
		LookingAway:               t.LookingAway,
		DwellSeconds:              dwell.Seconds(),
		Verdict:                   e.verdict,
		BlinkPenaltyActive:        blinkActive,
		GazePenaltyActive:         gazeActive,
		ProductivityPenaltyActive: productivityActive,
		Outcome:                   out,
		Notices:                   e.notices.Active(now),
	}
}
