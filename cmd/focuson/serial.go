package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/focuson/internal/config"
	"github.com/teslashibe/focuson/pkg/actuator"
)

// benchScores exercise every band in both directions.
var benchScores = []float64{95, 50, 20, 75, 65, 10}

var (
	serialPort  string
	serialBaud  int
	serialDelay time.Duration
	serialList  bool
)

func newSerialTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serial-test",
		Short: "Send a fixed score sweep to the indicator",
		Args:  cobra.NoArgs,
		RunE:  runSerialTestCmd,
	}
	cmd.Flags().StringVar(&serialPort, "port", config.SerialPort(""), "serial device (default: first detected)")
	cmd.Flags().IntVar(&serialBaud, "baud", config.DefaultBaud, "baud rate")
	cmd.Flags().DurationVar(&serialDelay, "delay", 2*time.Second, "pause between scores")
	cmd.Flags().BoolVar(&serialList, "list", false, "list serial ports and exit")
	return cmd
}

func runSerialTestCmd(_ *cobra.Command, _ []string) error {
	ports, err := actuator.ListPorts()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if serialList {
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	name := serialPort
	if name == "" {
		if len(ports) == 0 {
			return fmt.Errorf("no serial ports found")
		}
		name = ports[0]
	}

	port, err := actuator.OpenSerial(name, serialBaud)
	if err != nil {
		return err
	}
	driver := actuator.NewDriver(port)
	defer driver.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mapper := actuator.DefaultMapper()
	fmt.Printf("🔌 %s @ %d baud\n", name, serialBaud)
	for _, s := range benchScores {
		fmt.Printf("   score %3.0f → %s\n", s, mapper.Map(s).Color())
	}

	if err := driver.Sweep(ctx, mapper, benchScores, serialDelay); err != nil {
		return err
	}
	sent, _, failed := driver.Stats()
	fmt.Printf("✅ sent %d, failed %d\n", sent, failed)
	return nil
}
