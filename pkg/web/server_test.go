package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/actuator"
	"github.com/teslashibe/focuson/pkg/focus"
	"github.com/teslashibe/focuson/pkg/session"
)

func init() {
	log.SetOutput(io.Discard, "error")
}

var t0 = time.Unix(1_700_000_000, 0)

func testSnapshot(score float64) focus.Snapshot {
	return focus.Snapshot{
		Time:                      t0.Add(90 * time.Second),
		Ticks:                     1800,
		Score:                     score,
		Band:                      actuator.DefaultMapper().Map(score),
		BPM:                       24,
		BaselineBPM:               16,
		DeviationPct:              50,
		DwellSeconds:              2.5,
		Verdict:                   focus.Verdict{Label: focus.LabelProductive},
		BlinkPenaltyActive:        true,
		ProductivityPenaltyActive: false,
	}
}

func testTotals() session.Totals {
	return session.Totals{
		Start:            t0,
		BlinkCount:       10,
		ProductiveTime:   15,
		DistractionCount: 5,
		FocusScoreTotal:  1800,
		DataPoints:       20,
	}
}

func TestStatusBeforePublish(t *testing.T) {
	s := NewServer(0)
	for _, path := range []string{"/api/status", "/api/session"} {
		resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != 503 {
			t.Errorf("%s status = %d, want 503", path, resp.StatusCode)
		}
	}
}

func TestStatus(t *testing.T) {
	s := NewServer(0)
	s.Publish(testSnapshot(82), testTotals())

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["score"] != 82.0 {
		t.Errorf("score = %v", body["score"])
	}
	if body["band"] != "HIGH" {
		t.Errorf("band = %v", body["band"])
	}
	if body["blink_penalty_active"] != true {
		t.Errorf("blink_penalty_active = %v", body["blink_penalty_active"])
	}
}

func TestSession(t *testing.T) {
	s := NewServer(0)
	s.Publish(testSnapshot(82), testTotals())

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/session", nil))
	if err != nil {
		t.Fatal(err)
	}
	var v sessionView
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.AvgFocusScore != 90 || v.ProductivityPercentage != 75 {
		t.Errorf("averages = %v/%v, want 90/75", v.AvgFocusScore, v.ProductivityPercentage)
	}
	if v.ElapsedSeconds != 90 || v.DataPoints != 20 {
		t.Errorf("session = %+v", v)
	}
}

func TestMetrics(t *testing.T) {
	s := NewServer(0)
	s.Publish(testSnapshot(64.5), testTotals())

	resp, err := s.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %s", ct)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		t.Fatalf("parse metrics: %v", err)
	}

	gaugeValue := func(name string) float64 {
		mf, ok := families[name]
		if !ok {
			t.Fatalf("missing %s", name)
		}
		return mf.GetMetric()[0].GetGauge().GetValue()
	}
	if v := gaugeValue("focuson_focus_score"); v != 64.5 {
		t.Errorf("focus score = %v", v)
	}
	if v := gaugeValue("focuson_blinks_per_minute"); v != 24 {
		t.Errorf("bpm = %v", v)
	}
	if v := gaugeValue("focuson_baseline_bpm"); v != 16 {
		t.Errorf("baseline = %v", v)
	}
	if v := gaugeValue("focuson_gaze_dwell_seconds"); v != 2.5 {
		t.Errorf("dwell = %v", v)
	}

	penalties := map[string]float64{}
	for _, m := range families["focuson_penalty_active"].GetMetric() {
		penalties[labelValue(m, "source")] = m.GetGauge().GetValue()
	}
	if penalties["blink"] != 1 || penalties["gaze"] != 0 || penalties["productivity"] != 0 {
		t.Errorf("penalties = %v", penalties)
	}

	ticks := families["focuson_ticks_total"]
	if ticks.GetType() != dto.MetricType_COUNTER || ticks.GetMetric()[0].GetCounter().GetValue() != 1800 {
		t.Errorf("ticks = %v", ticks)
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := NewServer(0)
	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 426 {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}

type wireStatus struct {
	Score float64 `json:"score"`
	Band  string  `json:"band"`
}

func TestWebSocketStatusStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer(0)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	s.Publish(testSnapshot(91), testTotals())

	url := "ws://" + ln.Addr().String() + "/ws/status"
	var conn *websocket.Conn
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// The last published snapshot is replayed on connect.
	var first wireStatus
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read replay: %v", err)
	}
	if first.Score != 91 {
		t.Errorf("replayed score = %v, want 91", first.Score)
	}

	s.Publish(testSnapshot(45), testTotals())
	// The queued copy of the first publish may still arrive before the update.
	var next wireStatus
	for i := 0; i < 3; i++ {
		if err := conn.ReadJSON(&next); err != nil {
			t.Fatalf("read update: %v", err)
		}
		if next.Score != 91 {
			break
		}
	}
	if next.Score != 45 || next.Band != "MEDIUM" {
		t.Errorf("update = %+v, want 45 MEDIUM", next)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
