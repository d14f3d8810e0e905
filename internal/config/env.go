package config

import "os"

// Environment variables read on Load.
const (
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvGoogleKey  = "GOOGLE_API_KEY"
	EnvSerialPort = "FOCUSON_SERIAL_PORT"
	EnvReportsDir = "FOCUSON_REPORTS_DIR"
)

func applyEnv(cfg *Config) {
	cfg.Classifier.OpenAIKey = os.Getenv(EnvOpenAIKey)
	cfg.Classifier.GoogleKey = os.Getenv(EnvGoogleKey)
	cfg.Actuator.Port = SerialPort(cfg.Actuator.Port)
	cfg.Session.ReportsDir = ReportsDir(cfg.Session.ReportsDir)
}

// SerialPort returns the serial device from FOCUSON_SERIAL_PORT.
// Falls back to the provided default if not set.
func SerialPort(defaultPort string) string {
	if p := os.Getenv(EnvSerialPort); p != "" {
		return p
	}
	return defaultPort
}

// ReportsDir returns the reports directory from FOCUSON_REPORTS_DIR.
// Falls back to the provided default if not set.
func ReportsDir(defaultDir string) string {
	if d := os.Getenv(EnvReportsDir); d != "" {
		return d
	}
	return defaultDir
}

// HasClassifierKey reports whether any classifier credential is set.
func (c *Config) HasClassifierKey() bool {
	return c.Classifier.OpenAIKey != "" || c.Classifier.GoogleKey != ""
}
