package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/focuson/internal/config"
	"github.com/teslashibe/focuson/pkg/compare"
	"github.com/teslashibe/focuson/pkg/session"
)

var (
	compareConfigPath string
	compareReportsDir string
	compareIndex      bool
	compareLast       int
	compareWatch      bool
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare finished sessions",
		Args:  cobra.NoArgs,
		RunE:  runCompareCmd,
	}
	cmd.Flags().StringVar(&compareConfigPath, "config", "", "YAML config file; reports_dir and index_path are read from it")
	cmd.Flags().StringVar(&compareReportsDir, "reports-dir", "", "directory with session reports (default: from config)")
	cmd.Flags().BoolVar(&compareIndex, "index", false, "read sessions from the SQLite index instead of the report folders")
	cmd.Flags().IntVar(&compareLast, "last", 0, "compare only the N most recent sessions (with --index)")
	cmd.Flags().BoolVar(&compareWatch, "watch", false, "re-run the comparison whenever a session is saved")
	return cmd
}

// compareSources resolves the reports folder and index file the same way
// run does, so both commands agree on where history lives.
func compareSources(cmd *cobra.Command) (reportsDir, indexPath string, err error) {
	cfg, err := config.Load(compareConfigPath)
	if err != nil {
		return "", "", err
	}
	if cmd.Flags().Changed("reports-dir") {
		cfg.Session.ReportsDir = compareReportsDir
	}
	return cfg.Session.ReportsDir, cfg.IndexPath(), nil
}

func runCompareCmd(cmd *cobra.Command, _ []string) error {
	reportsDir, indexPath, err := compareSources(cmd)
	if err != nil {
		return err
	}

	if compareWatch {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return compare.Watch(ctx, reportsDir, func(s compare.Summary, err error) {
			printComparison(s, err)
		})
	}

	s, err := loadComparison(reportsDir, indexPath)
	if errors.Is(err, compare.ErrTooFewSessions) {
		printComparison(s, err)
		return nil
	}
	if err != nil {
		return err
	}
	return compare.Render(os.Stdout, s)
}

func loadComparison(reportsDir, indexPath string) (compare.Summary, error) {
	if !compareIndex {
		if _, err := os.Stat(reportsDir); os.IsNotExist(err) {
			return compare.Summary{}, fmt.Errorf("no reports folder at %s; run a session first", reportsDir)
		}
		return compare.Load(reportsDir)
	}

	idx, err := session.OpenExistingIndex(indexPath)
	if err != nil {
		return compare.Summary{}, fmt.Errorf("failed to open index: %w", err)
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil {
			logErrf("failed to close index: %v\n", cerr)
		}
	}()

	recs, err := idx.List(context.Background(), compareLast)
	if err != nil {
		return compare.Summary{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	return compare.Summarize(recs)
}

func printComparison(s compare.Summary, err error) {
	if err != nil {
		fmt.Println(err)
		return
	}
	if rerr := compare.Render(os.Stdout, s); rerr != nil {
		logErrf("render: %v\n", rerr)
	}
}
