// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Ticks controls whether a trace line is printed for every sampling tick.
// Very verbose: the loop runs at tens of hertz.
var Ticks bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// TickLog prints a message only if tick tracing is enabled
func TickLog(format string, args ...interface{}) {
	if Ticks {
		fmt.Printf(format, args...)
	}
}
