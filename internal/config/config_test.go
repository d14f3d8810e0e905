package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/focuson/internal/log"
)

func init() {
	log.SetOutput(io.Discard, "error")
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "focuson.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvOpenAIKey, EnvGoogleKey, EnvSerialPort, EnvReportsDir} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	e := cfg.Engine
	if e.CalibrationWindow != 30*time.Second || e.BlinkDeviationThreshold != 40 || e.BlinkPenalty != 5 {
		t.Errorf("blink defaults = %+v", e)
	}
	if e.DwellThreshold != 5*time.Second || e.DwellPenalty != 3 || e.ProductivityPenalty != 8 || e.RecoveryRate != 0.1 {
		t.Errorf("gaze/productivity defaults = %+v", e)
	}
	if cfg.Classifier.Interval != 30*time.Second || cfg.Session.SampleInterval != 5*time.Second {
		t.Errorf("interval defaults = %v/%v", cfg.Classifier.Interval, cfg.Session.SampleInterval)
	}
	if m := cfg.Mapper(); m.LowCutoff != 30 || m.HighCutoff != 70 {
		t.Errorf("mapper = %+v", m)
	}
	if cfg.IndexPath() != filepath.Join("reports", "sessions.db") {
		t.Errorf("index path = %s", cfg.IndexPath())
	}
	if cfg.HasClassifierKey() {
		t.Error("no key expected")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
engine:
  dwell_threshold: 8s
  blink_penalty: 7
classifier:
  provider: gemini
  interval: 45s
actuator:
  port: /dev/ttyUSB0
  low_cutoff: 25
camera:
  width: 1280
  height: 720
session:
  reports_dir: /tmp/focus-reports
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.DwellThreshold != 8*time.Second || cfg.Engine.BlinkPenalty != 7 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	// Untouched fields keep defaults.
	if cfg.Engine.RecoveryRate != 0.1 || cfg.Actuator.HighCutoff != 70 {
		t.Errorf("defaults lost: recovery %v, high %v", cfg.Engine.RecoveryRate, cfg.Actuator.HighCutoff)
	}
	if cfg.Classifier.Provider != ProviderGemini || cfg.Classifier.Interval != 45*time.Second {
		t.Errorf("classifier = %+v", cfg.Classifier)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Framerate != 30 {
		t.Errorf("camera = %+v", cfg.Camera)
	}

	fc := cfg.FocusConfig()
	if fc.DwellThreshold != 8*time.Second || fc.BlinkPenalty != 7 || fc.BlinkWindow != 60*time.Second {
		t.Errorf("focus config = %+v", fc)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIKey, "sk-test")
	t.Setenv(EnvSerialPort, "/dev/cu.usbmodem1")
	t.Setenv(EnvReportsDir, "/var/focuson")

	path := writeFile(t, "actuator:\n  port: /dev/ttyUSB0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Classifier.OpenAIKey != "sk-test" || !cfg.HasClassifierKey() {
		t.Error("openai key not applied")
	}
	if cfg.Actuator.Port != "/dev/cu.usbmodem1" {
		t.Errorf("port = %s", cfg.Actuator.Port)
	}
	if cfg.Session.ReportsDir != "/var/focuson" {
		t.Errorf("reports dir = %s", cfg.Session.ReportsDir)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "engine: [", "parse yaml"},
		{"bad provider", "classifier:\n  provider: llama\n", "unknown provider"},
		{"inverted cutoffs", "actuator:\n  low_cutoff: 80\n  high_cutoff: 20\n", "low_cutoff"},
		{"negative penalty", "engine:\n  dwell_penalty: -1\n", "penalties"},
		{"zero tick", "engine:\n  tick_interval: 0s\n", "tick_interval"},
		{"bad camera", "camera:\n  width: 10\n", "camera"},
		{"bad gaze", "gaze:\n  right_ratio: 0.7\n", "gaze"},
		{"bad quality", "classifier:\n  jpeg_quality: 0\n", "jpeg_quality"},
		{"negative retries", "classifier:\n  retries: -1\n", "retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatch(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "actuator:\n  low_cutoff: 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register; rewrite until a change is seen.
	deadline := time.After(3 * time.Second)
	for {
		os.WriteFile(path, []byte("actuator:\n  low_cutoff: 40\n"), 0o644)
		select {
		case c := <-changes:
			if c.Actuator.LowCutoff != 40 {
				t.Errorf("low cutoff = %v, want 40", c.Actuator.LowCutoff)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch: %v", err)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
