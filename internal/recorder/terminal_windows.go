//go:build windows

package recorder

import (
	"context"
	"errors"
	"os"
)

var errNoTerminalCapture = errors.New("terminal capture is not supported on windows")

// TerminalSource is unavailable on Windows.
type TerminalSource struct {
	In *os.File
}

func (s *TerminalSource) Probe(context.Context) error { return errNoTerminalCapture }

func (s *TerminalSource) Open(func(string)) (Handle, error) { return nil, errNoTerminalCapture }
