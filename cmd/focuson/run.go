package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/focuson/internal/config"
	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/actuator"
	"github.com/teslashibe/focuson/pkg/camera"
	"github.com/teslashibe/focuson/pkg/classifier"
	"github.com/teslashibe/focuson/pkg/debug"
	"github.com/teslashibe/focuson/pkg/gaze"
	"github.com/teslashibe/focuson/pkg/gaze/opencv"
	"github.com/teslashibe/focuson/pkg/inference"
	"github.com/teslashibe/focuson/pkg/monitor"
	"github.com/teslashibe/focuson/pkg/screen"
	"github.com/teslashibe/focuson/pkg/session"
	"github.com/teslashibe/focuson/pkg/web"
)

var (
	runConfigPath  string
	runDebug       bool
	runTraceTicks  bool
	runSerialPort  string
	runNoSerial    bool
	runNoDashboard bool
	runReportsDir  string
	runProvider    string
	runHeadless    bool
	runCamPreset   string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a monitoring session; Ctrl+C ends it and writes the report",
		Args:  cobra.NoArgs,
		RunE:  runRunCmd,
	}
	cmd.Flags().StringVar(&runConfigPath, "config", "", "YAML config file (default: built-in defaults)")
	cmd.Flags().BoolVar(&runDebug, "debug", false, "enable verbose debug logging")
	cmd.Flags().BoolVar(&runTraceTicks, "trace-ticks", false, "print a line for every sampling tick")
	cmd.Flags().StringVar(&runSerialPort, "serial-port", "", "serial device for the indicator")
	cmd.Flags().BoolVar(&runNoSerial, "no-serial", false, "disable the serial indicator")
	cmd.Flags().BoolVar(&runNoDashboard, "no-dashboard", false, "disable the web dashboard")
	cmd.Flags().StringVar(&runReportsDir, "reports-dir", "", "directory for session reports")
	cmd.Flags().StringVar(&runProvider, "provider", "", "classifier provider: openai, gemini, chain")
	cmd.Flags().BoolVar(&runHeadless, "headless", false, "run without a webcam (user always looking at the screen)")
	cmd.Flags().StringVar(&runCamPreset, "camera-preset", "", fmt.Sprintf("webcam preset: %s", strings.Join(camera.PresetNames(), ", ")))
	return cmd
}

// applyRunFlags overrides file values with flags the user set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if runCamPreset != "" {
		preset := camera.GetPreset(runCamPreset)
		if preset == nil {
			return fmt.Errorf("unknown camera preset %q (have %s)", runCamPreset, strings.Join(camera.PresetNames(), ", "))
		}
		preset.Device = cfg.Camera.Device
		cfg.Camera = *preset
	}
	if cmd.Flags().Changed("serial-port") {
		cfg.Actuator.Port = runSerialPort
	}
	if runNoSerial {
		cfg.Actuator.Enabled = false
	}
	if runNoDashboard {
		cfg.Dashboard.Enabled = false
	}
	if cmd.Flags().Changed("reports-dir") {
		cfg.Session.ReportsDir = runReportsDir
	}
	if cmd.Flags().Changed("provider") {
		cfg.Classifier.Provider = runProvider
	}
	if runDebug {
		cfg.Log.Level = "debug"
	}
	return nil
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log.Init(cfg.Log.Level)
	debug.Enabled = runDebug
	debug.Ticks = runTraceTicks
	debug.Logln("🐛 Debug mode enabled")
	logger := log.Component("cmd.run")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Eye tracker
	var source gaze.Source
	if runHeadless {
		source = gaze.NewScripted()
	} else {
		tracker, err := opencv.Open(trackerConfig(cfg))
		if err != nil {
			return fmt.Errorf("open eye tracker: %w", err)
		}
		source = tracker
	}
	defer source.Close()

	// Classifier
	client, closeClient := buildClassifier(ctx, cfg)
	defer closeClient()
	capturer := screen.NewCapturer()
	capturer.Display = cfg.Classifier.Display
	adapter := classifier.New(client, capturer,
		classifier.WithInterval(cfg.Classifier.Interval),
		classifier.WithTimeout(cfg.Classifier.Timeout),
	)

	opts := []monitor.Option{
		monitor.WithClassifier(adapter),
		monitor.WithWriter(session.NewWriter(cfg.Session.ReportsDir)),
	}

	// Indicator
	if cfg.Actuator.Enabled {
		driver, err := openDriver(cfg)
		if err != nil {
			logger.Warn("indicator disabled", "error", err)
		} else {
			defer driver.Close()
			opts = append(opts, monitor.WithEmitter(driver))
		}
	}

	// History index
	idx, err := session.OpenIndex(cfg.IndexPath())
	if err != nil {
		logger.Warn("session index disabled", "path", cfg.IndexPath(), "error", err)
	} else {
		defer idx.Close()
		opts = append(opts, monitor.WithIndex(idx))
	}

	// Dashboard
	if cfg.Dashboard.Enabled {
		srv := web.NewServer(cfg.Dashboard.Port)
		opts = append(opts, monitor.WithPublisher(srv))
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("dashboard stopped", "error", err)
			}
		}()
		fmt.Printf("🌐 Dashboard: http://localhost:%d/api/status\n", cfg.Dashboard.Port)
	}

	mon := monitor.New(monitor.Config{
		Engine:         cfg.FocusConfig(),
		Mapper:         cfg.Mapper(),
		TickInterval:   cfg.Engine.TickInterval,
		SampleInterval: cfg.Session.SampleInterval,
	}, source, opts...)

	// Live band cutoffs
	if runConfigPath != "" {
		go func() {
			err := config.Watch(ctx, runConfigPath, func(c *config.Config) {
				if err := mon.SetMapper(c.Mapper()); err != nil {
					logger.Warn("ignoring cutoffs", "error", err)
				}
			})
			if err != nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	fmt.Printf("👁  Calibrating for %s, keep working normally. Ctrl+C ends the session.\n", cfg.Engine.CalibrationWindow)

	res, err := mon.Run(ctx)
	if res.Record.ID != "" {
		fmt.Print(session.Report(res.Record))
		if res.Paths.Dir != "" {
			fmt.Printf("\n📁 Saved to %s\n", res.Paths.Dir)
		}
	}
	return err
}

func trackerConfig(cfg *config.Config) opencv.Config {
	tc := opencv.DefaultConfig()
	tc.Camera = cfg.Camera
	tc.FaceModel = cfg.Gaze.FaceModel
	tc.FaceConfidence = cfg.Gaze.FaceConfidence
	tc.EyeCascade = cfg.Gaze.EyeCascade
	tc.Thresholds = gaze.Thresholds{Right: cfg.Gaze.RightRatio, Left: cfg.Gaze.LeftRatio}
	return tc
}

func openDriver(cfg *config.Config) (*actuator.Driver, error) {
	if cfg.Actuator.Port == "" {
		ports, err := actuator.ListPorts()
		if err != nil || len(ports) == 0 {
			return nil, fmt.Errorf("no serial port configured or found")
		}
		cfg.Actuator.Port = ports[0]
	}
	port, err := actuator.OpenSerial(cfg.Actuator.Port, cfg.Actuator.Baud)
	if err != nil {
		return nil, err
	}
	return actuator.NewDriver(port, actuator.WithSuppressDuplicates(cfg.Actuator.SuppressDuplicates)), nil
}

// buildClassifier returns the screen classifier for the configured provider.
// Missing credentials or a failed health check yield a client that reports
// ERROR on every call.
func buildClassifier(ctx context.Context, cfg *config.Config) (classifier.Client, func()) {
	logger := log.Component("cmd.run")
	c := cfg.Classifier

	common := []inference.Option{
		inference.WithTimeout(c.Timeout),
		inference.WithMaxTokens(classifier.DefaultMaxTokens),
		inference.WithMaxImageSize(c.MaxWidth, c.MaxHeight),
		inference.WithJPEGQuality(c.JPEGQuality),
		inference.WithRetry(c.Retries, time.Second),
	}

	var providers []inference.Provider
	if (c.Provider == config.ProviderOpenAI || c.Provider == config.ProviderChain) && c.OpenAIKey != "" {
		opts := append([]inference.Option{inference.WithAPIKey(c.OpenAIKey)}, common...)
		if c.Model != "" {
			opts = append(opts, inference.WithVisionModel(c.Model))
		}
		if c.BaseURL != "" {
			opts = append(opts, inference.WithBaseURL(c.BaseURL))
		}
		if p, err := inference.NewClient(opts...); err != nil {
			logger.Warn("openai client", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	if (c.Provider == config.ProviderGemini || c.Provider == config.ProviderChain) && c.GoogleKey != "" {
		opts := append([]inference.Option{inference.WithAPIKey(c.GoogleKey)}, common...)
		// In a chain the model override names the OpenAI model.
		if c.Provider == config.ProviderGemini && c.Model != "" {
			opts = append(opts, inference.WithVisionModel(c.Model))
		}
		if p, err := inference.NewGemini(opts...); err != nil {
			logger.Warn("gemini client", "error", err)
		} else {
			providers = append(providers, p)
		}
	}

	var provider inference.Provider
	switch len(providers) {
	case 0:
		reason := fmt.Sprintf("no API key for provider %q (set %s or %s)",
			c.Provider, config.EnvOpenAIKey, config.EnvGoogleKey)
		logger.Warn("classifier unavailable, verdicts will be ERROR", "reason", reason)
		return classifier.Unavailable{Reason: reason}, func() {}
	case 1:
		provider = providers[0]
	default:
		chain, err := inference.NewChain(providers...)
		if err != nil {
			return classifier.Unavailable{Reason: err.Error()}, func() {}
		}
		provider = chain
	}

	if !c.HealthCheck {
		ic := classifier.NewInferenceClient(provider)
		return ic, func() { ic.Close() }
	}
	client, closeFn := classifier.Connect(ctx, provider, c.Timeout)
	if u, ok := client.(classifier.Unavailable); ok {
		logger.Warn("classifier unavailable, verdicts will be ERROR", "reason", u.Reason)
	}
	return client, closeFn
}
