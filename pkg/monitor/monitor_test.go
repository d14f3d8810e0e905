package monitor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/actuator"
	"github.com/teslashibe/focuson/pkg/focus"
	"github.com/teslashibe/focuson/pkg/gaze"
	"github.com/teslashibe/focuson/pkg/session"
)

func init() {
	log.SetOutput(io.Discard, "error")
}

var t0 = time.Unix(1_700_000_000, 0)

func at(s float64) time.Time {
	return t0.Add(time.Duration(s * float64(time.Second)))
}

// fakeClassifier hands out queued verdicts at fixed times.
type fakeClassifier struct {
	mu      sync.Mutex
	started bool
	due     map[time.Time]focus.Verdict
}

func (f *fakeClassifier) Start(ctx context.Context) {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
}

func (f *fakeClassifier) Poll(now time.Time) (focus.Verdict, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.due[now]
	if ok {
		delete(f.due, now)
	}
	return v, ok
}

type recorder struct {
	mu    sync.Mutex
	snaps []focus.Snapshot
	last  session.Totals
}

func (r *recorder) Publish(snap focus.Snapshot, totals session.Totals) {
	r.mu.Lock()
	r.snaps = append(r.snaps, snap)
	r.last = totals
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

// errSource fails every read with a transient error.
type errSource struct{}

func (errSource) Next(ctx context.Context) (gaze.Observation, error) {
	return gaze.Observation{}, errors.New("camera busy")
}
func (errSource) Close() error { return nil }

func testConfig() Config {
	return Config{
		Engine:         focus.DefaultConfig(),
		Mapper:         actuator.DefaultMapper(),
		TickInterval:   500 * time.Millisecond,
		SampleInterval: 5 * time.Second,
	}
}

func TestStepSession(t *testing.T) {
	dir := t.TempDir()
	idx, err := session.OpenIndex(filepath.Join(dir, "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	// Look away for the first 6 seconds, then face the screen.
	var script []gaze.Observation
	for i := 0; i < 12; i++ {
		script = append(script, gaze.Observation{FaceFound: true, Direction: gaze.DirLeft})
	}
	script = append(script, gaze.Observation{FaceFound: true, Direction: gaze.DirCenter})

	cls := &fakeClassifier{due: map[time.Time]focus.Verdict{
		at(10): {Label: focus.LabelNonProductive, Message: "video site", At: at(10)},
	}}
	port := &actuator.MockPort{}
	pub := &recorder{}

	m := New(testConfig(), gaze.NewScripted(script...),
		WithClock(func() time.Time { return t0 }),
		WithClassifier(cls),
		WithEmitter(actuator.NewDriver(port)),
		WithPublisher(pub),
		WithWriter(session.NewWriter(dir)),
		WithIndex(idx),
	)

	ctx := context.Background()
	for s := 0.0; s <= 20; s += 0.5 {
		if err := m.Step(ctx, at(s)); err != nil {
			t.Fatalf("Step(%v): %v", s, err)
		}
	}

	last := m.Last()
	// Gaze penalty once at 5s (97). The flag holds at 5.5s, so recovery runs
	// on the eight ticks from 6s to 9.5s (0.05 each). The productivity
	// penalty fires at 10s and its verdict blocks recovery afterwards.
	want := 97 + 8*0.05 - 8
	if diff := last.Score - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("score = %v, want %v", last.Score, want)
	}
	if !last.ProductivityPenaltyActive || last.GazePenaltyActive {
		t.Errorf("penalty flags = gaze %v productivity %v", last.GazePenaltyActive, last.ProductivityPenaltyActive)
	}

	if got := len(port.Tokens()); got != 41 {
		t.Errorf("emitted %d tokens, want 41", got)
	}
	if port.Tokens()[0] != "green" {
		t.Errorf("first token = %s", port.Tokens()[0])
	}
	if pub.count() != 41 {
		t.Errorf("published %d, want 41", pub.count())
	}
	// Samples at 0, 5, 10, 15, 20.
	if pub.last.DataPoints != 5 {
		t.Errorf("data points = %d, want 5", pub.last.DataPoints)
	}
	// The verdict lands at 10s, so the 10, 15 and 20s samples are distractions,
	// and so are the 0 and 5s samples with no verdict yet.
	if pub.last.DistractionCount != 5 || pub.last.ProductiveTime != 0 {
		t.Errorf("totals = %+v", pub.last)
	}

	res, err := m.Finish(at(20))
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Record.Duration != 20 || res.Record.DataPoints != 5 {
		t.Errorf("record = %+v", res.Record)
	}
	if _, err := os.Stat(res.Paths.Report); err != nil {
		t.Errorf("report not written: %v", err)
	}
	rows, err := idx.List(ctx, 0)
	if err != nil || len(rows) != 1 || rows[0].ID != res.Record.ID {
		t.Errorf("index rows = %+v, err %v", rows, err)
	}

	if _, err := m.Finish(at(21)); !errors.Is(err, session.ErrAlreadyFinalized) {
		t.Errorf("second Finish err = %v", err)
	}
}

func TestStepSensorErrorIsNeutral(t *testing.T) {
	m := New(testConfig(), errSource{}, WithClock(func() time.Time { return t0 }))
	for s := 0.0; s <= 10; s += 0.5 {
		if err := m.Step(context.Background(), at(s)); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if m.Last().Score != focus.MaxScore {
		t.Errorf("score = %v, want %v", m.Last().Score, focus.MaxScore)
	}
}

func TestStepClosedSource(t *testing.T) {
	src := gaze.NewScripted()
	src.Close()
	m := New(testConfig(), src)
	if err := m.Step(context.Background(), t0); !errors.Is(err, gaze.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestSetMapper(t *testing.T) {
	m := New(testConfig(), gaze.NewScripted(), WithClock(func() time.Time { return t0 }))
	if err := m.SetMapper(actuator.Mapper{LowCutoff: 60, HighCutoff: 40}); err == nil {
		t.Error("expected error for inverted cutoffs")
	}
	if err := m.SetMapper(actuator.Mapper{LowCutoff: 30, HighCutoff: 101}); err == nil {
		t.Error("expected error for cutoff above 100")
	}
	if err := m.SetMapper(actuator.Mapper{LowCutoff: 10, HighCutoff: 100}); err != nil {
		t.Fatal(err)
	}
	m.Step(context.Background(), t0)
	if m.Last().Band != actuator.BandHigh {
		t.Errorf("band = %v, want HIGH at 100", m.Last().Band)
	}
}

func TestRunPersistsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.TickInterval = 5 * time.Millisecond

	cls := &fakeClassifier{due: map[time.Time]focus.Verdict{}}
	pub := &recorder{}
	m := New(cfg, gaze.NewScripted(),
		WithClassifier(cls),
		WithPublisher(pub),
		WithWriter(session.NewWriter(dir)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var res Result
	var runErr error
	go func() {
		res, runErr = m.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	cls.mu.Lock()
	started := cls.started
	cls.mu.Unlock()
	if !started {
		t.Error("classifier not started")
	}
	if res.Record.DataPoints < 1 {
		t.Errorf("data points = %d, want at least the start sample", res.Record.DataPoints)
	}
	recs, err := session.LoadAll(dir)
	if err != nil || len(recs) != 1 {
		t.Fatalf("LoadAll = %d records, err %v", len(recs), err)
	}
}

func TestFinishWriteFailure(t *testing.T) {
	// A file where the reports dir should be makes the write fail.
	blocker := filepath.Join(t.TempDir(), "reports")
	os.WriteFile(blocker, []byte("x"), 0o644)

	m := New(testConfig(), gaze.NewScripted(),
		WithClock(func() time.Time { return t0 }),
		WithWriter(session.NewWriter(blocker)),
	)
	m.Step(context.Background(), t0)

	res, err := m.Finish(at(30))
	if err == nil {
		t.Fatal("expected write error")
	}
	if res.Record.ID == "" || res.Record.DataPoints != 1 {
		t.Errorf("record should survive write failure: %+v", res.Record)
	}
	if m.Last().Score != focus.MaxScore {
		t.Errorf("live score changed: %v", m.Last().Score)
	}
}
