// Package config loads the focuson YAML configuration.
//
// A missing path means defaults. Environment variables override credentials
// and device paths after the file is parsed (see env.go). Watch reloads the
// file on change.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/focuson/pkg/actuator"
	"github.com/teslashibe/focuson/pkg/camera"
	"github.com/teslashibe/focuson/pkg/focus"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultTickInterval   = 50 * time.Millisecond
	DefaultSampleInterval = 5 * time.Second
	DefaultReportsDir     = "reports"
	DefaultIndexFile      = "sessions.db"
	DefaultDashboardPort  = 8080
	DefaultBaud           = 9600
)

// Providers accepted by classifier.provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderChain  = "chain"
)

// Config is the top-level configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Engine     EngineConfig     `yaml:"engine"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Actuator   ActuatorConfig   `yaml:"actuator"`
	Camera     camera.Config    `yaml:"camera"`
	Gaze       GazeConfig       `yaml:"gaze"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Session    SessionConfig    `yaml:"session"`
}

// LogConfig sets the process log level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// EngineConfig holds the scoring parameters.
type EngineConfig struct {
	// TickInterval is the sampling loop period.
	TickInterval time.Duration `yaml:"tick_interval"`

	CalibrationWindow       time.Duration `yaml:"calibration_window"`
	BlinkWindow             time.Duration `yaml:"blink_window"`
	BlinkDeviationThreshold float64       `yaml:"blink_deviation_threshold"`
	BlinkPenalty            float64       `yaml:"blink_penalty"`
	DwellThreshold          time.Duration `yaml:"dwell_threshold"`
	DwellPenalty            float64       `yaml:"dwell_penalty"`
	ProductivityPenalty     float64       `yaml:"productivity_penalty"`
	RecoveryRate            float64       `yaml:"recovery_rate"`

	NoticeBlink   time.Duration `yaml:"notice_blink"`
	NoticeGaze    time.Duration `yaml:"notice_gaze"`
	NoticeVerdict time.Duration `yaml:"notice_verdict"`
}

// ClassifierConfig configures the screen productivity classifier.
type ClassifierConfig struct {
	// Provider is one of: openai | gemini | chain.
	Provider string `yaml:"provider"`

	// Model overrides the provider's default vision model.
	Model string `yaml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`

	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxWidth    int           `yaml:"max_width"`
	MaxHeight   int           `yaml:"max_height"`
	JPEGQuality int           `yaml:"jpeg_quality"`

	// Retries re-sends a screenshot after a rate limit or 5xx reply.
	Retries int `yaml:"retries"`

	// HealthCheck checks the provider at startup; a failing provider
	// leaves the classifier unavailable for the session.
	HealthCheck bool `yaml:"health_check"`

	// Display selects the captured screen; negative captures all displays.
	Display int `yaml:"display"`

	// Keys come from the environment only.
	OpenAIKey string `yaml:"-"`
	GoogleKey string `yaml:"-"`
}

// ActuatorConfig configures the serial indicator.
type ActuatorConfig struct {
	Enabled            bool    `yaml:"enabled"`
	Port               string  `yaml:"port"`
	Baud               int     `yaml:"baud"`
	LowCutoff          float64 `yaml:"low_cutoff"`
	HighCutoff         float64 `yaml:"high_cutoff"`
	SuppressDuplicates bool    `yaml:"suppress_duplicates"`
}

// GazeConfig configures the webcam eye tracker.
type GazeConfig struct {
	FaceModel      string  `yaml:"face_model"`
	FaceConfidence float64 `yaml:"face_confidence"`
	EyeCascade     string  `yaml:"eye_cascade"`

	// Horizontal pupil ratio at or below RightRatio is looking right, at or
	// above LeftRatio is looking left.
	RightRatio float64 `yaml:"right_ratio"`
	LeftRatio  float64 `yaml:"left_ratio"`
}

// DashboardConfig configures the live dashboard server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SessionConfig configures statistics and persistence.
type SessionConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"`
	ReportsDir     string        `yaml:"reports_dir"`

	// IndexPath is the SQLite history file. Empty means <reports_dir>/sessions.db.
	IndexPath string `yaml:"index_path"`
}

// Load reads the YAML config at path. An empty path yields defaults.
// Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	engine := focus.DefaultConfig()
	mapper := actuator.DefaultMapper()

	return &Config{
		Log: LogConfig{Level: "info"},
		Engine: EngineConfig{
			TickInterval:            DefaultTickInterval,
			CalibrationWindow:       engine.CalibrationWindow,
			BlinkWindow:             engine.BlinkWindow,
			BlinkDeviationThreshold: engine.BlinkDeviationThreshold,
			BlinkPenalty:            engine.BlinkPenalty,
			DwellThreshold:          engine.DwellThreshold,
			DwellPenalty:            engine.DwellPenalty,
			ProductivityPenalty:     engine.ProductivityPenalty,
			RecoveryRate:            engine.RecoveryRate,
			NoticeBlink:             engine.BlinkNoticeLifetime,
			NoticeGaze:              engine.GazeNoticeLifetime,
			NoticeVerdict:           engine.VerdictNoticeLifetime,
		},
		Classifier: ClassifierConfig{
			Provider:    ProviderOpenAI,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			MaxWidth:    1280,
			MaxHeight:   720,
			JPEGQuality: 85,
			HealthCheck: true,
		},
		Actuator: ActuatorConfig{
			Enabled:    true,
			Baud:       DefaultBaud,
			LowCutoff:  mapper.LowCutoff,
			HighCutoff: mapper.HighCutoff,
		},
		Camera: camera.DefaultConfig(),
		Gaze:   DefaultGaze(),
		Dashboard: DashboardConfig{
			Enabled: true,
			Port:    DefaultDashboardPort,
		},
		Session: SessionConfig{
			SampleInterval: DefaultSampleInterval,
			ReportsDir:     DefaultReportsDir,
		},
	}
}

// DefaultGaze returns the default eye tracker settings.
func DefaultGaze() GazeConfig {
	return GazeConfig{
		FaceModel:      "models/face_detection_yunet.onnx",
		FaceConfidence: 0.6,
		EyeCascade:     "models/haarcascade_eye_tree_eyeglasses.xml",
		RightRatio:     0.35,
		LeftRatio:      0.65,
	}
}

// Validate checks structural constraints and returns the first problem.
func (c *Config) Validate() error {
	if err := c.FocusConfig().Validate(); err != nil {
		return err
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive")
	}
	switch c.Classifier.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderChain:
	default:
		return fmt.Errorf("classifier.provider: unknown provider %q", c.Classifier.Provider)
	}
	if c.Classifier.Interval <= 0 {
		return fmt.Errorf("classifier.interval must be positive")
	}
	if c.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive")
	}
	if c.Classifier.JPEGQuality < 1 || c.Classifier.JPEGQuality > 100 {
		return fmt.Errorf("classifier.jpeg_quality must be 1-100")
	}
	if c.Classifier.Retries < 0 {
		return fmt.Errorf("classifier.retries must not be negative")
	}
	if !c.Mapper().Valid() {
		return fmt.Errorf("actuator: low_cutoff %.1f must be below high_cutoff %.1f",
			c.Actuator.LowCutoff, c.Actuator.HighCutoff)
	}
	if c.Actuator.Baud <= 0 {
		return fmt.Errorf("actuator.baud must be positive")
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: %s", errs[0])
	}
	if c.Gaze.RightRatio >= c.Gaze.LeftRatio {
		return fmt.Errorf("gaze.right_ratio must be below gaze.left_ratio")
	}
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port %d out of range", c.Dashboard.Port)
	}
	if c.Session.SampleInterval <= 0 {
		return fmt.Errorf("session.sample_interval must be positive")
	}
	if c.Session.ReportsDir == "" {
		return fmt.Errorf("session.reports_dir is required")
	}
	return nil
}

// FocusConfig returns the engine configuration.
func (c *Config) FocusConfig() focus.Config {
	fc := focus.DefaultConfig()
	e := c.Engine
	fc.CalibrationWindow = e.CalibrationWindow
	fc.BlinkWindow = e.BlinkWindow
	fc.BlinkDeviationThreshold = e.BlinkDeviationThreshold
	fc.BlinkPenalty = e.BlinkPenalty
	fc.DwellThreshold = e.DwellThreshold
	fc.DwellPenalty = e.DwellPenalty
	fc.ProductivityPenalty = e.ProductivityPenalty
	fc.RecoveryRate = e.RecoveryRate
	fc.BlinkNoticeLifetime = e.NoticeBlink
	fc.GazeNoticeLifetime = e.NoticeGaze
	fc.VerdictNoticeLifetime = e.NoticeVerdict
	return fc
}

// Mapper returns the actuator band cutoffs.
func (c *Config) Mapper() actuator.Mapper {
	return actuator.Mapper{LowCutoff: c.Actuator.LowCutoff, HighCutoff: c.Actuator.HighCutoff}
}

// IndexPath returns the SQLite history path.
func (c *Config) IndexPath() string {
	if c.Session.IndexPath != "" {
		return c.Session.IndexPath
	}
	return filepath.Join(c.Session.ReportsDir, DefaultIndexFile)
}
