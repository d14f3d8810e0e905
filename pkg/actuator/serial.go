package actuator

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the indicator firmware.
const DefaultBaudRate = 9600

// Port is the byte stream to the indicator device.
type Port interface {
	io.Writer
	io.Closer
}

// OpenSerial opens a serial port at the given baud rate (8N1).
func OpenSerial(name string, baud int) (Port, error) {
	if name == "" {
		return nil, fmt.Errorf("actuator: serial port name required")
	}
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("actuator: open %s: %w", name, err)
	}
	return p, nil
}

// ListPorts returns the serial ports visible to the OS.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
