// Package screen captures the user's display for content classification.
package screen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when no active display is available.
var ErrNoDisplay = errors.New("screen: no active display")

// Source produces screenshots.
type Source interface {
	Capture(ctx context.Context) (image.Image, error)
}

// Capturer grabs a display using the OS screenshot facility.
type Capturer struct {
	// Display is the index of the display to capture. A negative value
	// captures the union of every active display.
	Display int
}

// NewCapturer returns a capturer for the primary display.
func NewCapturer() *Capturer {
	return &Capturer{Display: 0}
}

// Capture takes one screenshot.
func (c *Capturer) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplay
	}

	if c.Display < 0 {
		var all image.Rectangle
		for i := 0; i < n; i++ {
			all = all.Union(screenshot.GetDisplayBounds(i))
		}
		img, err := screenshot.CaptureRect(all)
		if err != nil {
			return nil, fmt.Errorf("screen: capture all displays: %w", err)
		}
		return img, nil
	}

	if c.Display >= n {
		return nil, fmt.Errorf("screen: display %d of %d: %w", c.Display, n, ErrNoDisplay)
	}
	img, err := screenshot.CaptureDisplay(c.Display)
	if err != nil {
		return nil, fmt.Errorf("screen: capture display %d: %w", c.Display, err)
	}
	return img, nil
}

// Static returns the same image (or error) on every capture and counts calls.
type Static struct {
	Image image.Image
	Err   error

	mu    sync.Mutex
	calls int
}

// Capture returns the configured image or error.
func (s *Static) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Image, nil
}

// Calls returns the number of captures taken.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	_ Source = (*Capturer)(nil)
	_ Source = (*Static)(nil)
)
