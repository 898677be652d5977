// Package screen captures the host display as PNG.
package screen

import (
	"bytes"
	"context"
	"errors"
	"image/png"

	"github.com/kbinani/screenshot"

	"github.com/hostdash/hostdash/pkg/errclass"
)

var errNoDisplay = errors.New("no active display")

// Grabber captures displays through the platform screenshot API.
type Grabber struct {
	// displays and capture are overridable in tests.
	displays func() int
	capture  func(display int) ([]byte, error)
}

// NewGrabber returns a Grabber backed by kbinani/screenshot.
func NewGrabber() *Grabber {
	return &Grabber{displays: screenshot.NumActiveDisplays, capture: captureDisplay}
}

// Displays returns the number of active displays.
func (g *Grabber) Displays() int {
	return g.displays()
}

// Probe fails when no display is attached.
func (g *Grabber) Probe(context.Context) error {
	if g.displays() < 1 {
		return errNoDisplay
	}
	return nil
}

// PNG captures display as a PNG image. Display numbers start at 0.
func (g *Grabber) PNG(ctx context.Context, display int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := g.displays()
	if n < 1 {
		return nil, errclass.ErrCapabilityUnavailable.Wrap(errNoDisplay)
	}
	if display < 0 || display >= n {
		return nil, errclass.ErrInvalidArgument.WithMessagef("display %d out of range (0..%d)", display, n-1)
	}
	data, err := g.capture(display)
	if err != nil {
		return nil, errclass.ErrIO.Wrap(err)
	}
	return data, nil
}

func captureDisplay(display int) ([]byte, error) {
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(display))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
