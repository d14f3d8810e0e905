package web

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/teslashibe/focuson/pkg/focus"
	"github.com/teslashibe/focuson/pkg/session"
)

// Prometheus text format 0.0.4.
const metricsContentType = "text/plain; version=0.0.4; charset=utf-8"

func ptr[T any](v T) *T {
	return &v
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: ptr(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: ptr(v)}}},
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func penaltyMetric(source string, active bool) *dto.Metric {
	return &dto.Metric{
		Label: []*dto.LabelPair{{Name: ptr("source"), Value: ptr(source)}},
		Gauge: &dto.Gauge{Value: ptr(boolValue(active))},
	}
}

// metricFamilies builds the exposition for one snapshot.
func metricFamilies(snap focus.Snapshot, totals session.Totals) []*dto.MetricFamily {
	return []*dto.MetricFamily{
		gauge("focuson_focus_score", "Current focus score (0-100).", snap.Score),
		gauge("focuson_blinks_per_minute", "Blink rate over the current window.", snap.BPM),
		gauge("focuson_baseline_bpm", "Resting blink rate from calibration; 0 while calibrating.", snap.BaselineBPM),
		gauge("focuson_calibrating", "1 while the baseline is being established.", boolValue(snap.Calibrating)),
		gauge("focuson_gaze_dwell_seconds", "Continuous look-away duration.", snap.DwellSeconds),
		{
			Name: ptr("focuson_penalty_active"),
			Help: ptr("1 while a penalty condition holds."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{
				penaltyMetric("blink", snap.BlinkPenaltyActive),
				penaltyMetric("gaze", snap.GazePenaltyActive),
				penaltyMetric("productivity", snap.ProductivityPenaltyActive),
			},
		},
		counter("focuson_ticks_total", "Sampling loop iterations.", float64(snap.Ticks)),
		counter("focuson_session_samples_total", "Session statistics samples.", float64(totals.DataPoints)),
	}
}

func writeMetrics(w io.Writer, snap focus.Snapshot, totals session.Totals) error {
	for _, mf := range metricFamilies(snap, totals) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
