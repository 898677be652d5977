//go:build !windows

package recorder

import (
	"context"
	"errors"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const pollMillis = 100

var errNotTerminal = errors.New("stdin is not a terminal")

// TerminalSource captures key presses typed into the server process's own
// controlling terminal. The terminal is put in raw mode while a capture is
// open and restored on Close.
type TerminalSource struct {
	// In defaults to os.Stdin.
	In *os.File
}

func (s *TerminalSource) file() *os.File {
	if s.In != nil {
		return s.In
	}
	return os.Stdin
}

// Probe fails unless the input is a terminal.
func (s *TerminalSource) Probe(context.Context) error {
	if !term.IsTerminal(int(s.file().Fd())) {
		return errNotTerminal
	}
	return nil
}

// Open switches the terminal to raw mode and starts the read loop.
func (s *TerminalSource) Open(emit func(string)) (Handle, error) {
	f := s.file()
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	h := &terminalHandle{fd: fd, state: state, done: make(chan struct{}), exited: make(chan struct{})}
	go h.loop(f, emit)
	return h, nil
}

type terminalHandle struct {
	fd     int
	state  *term.State
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// loop polls so that Close can interrupt it without closing stdin.
func (h *terminalHandle) loop(f *os.File, emit func(string)) {
	defer close(h.exited)
	buf := make([]byte, 64)
	fds := []unix.PollFd{{Fd: int32(h.fd), Events: unix.POLLIN}}
	for {
		select {
		case <-h.done:
			return
		default:
		}
		n, err := unix.Poll(fds, pollMillis)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return
		}
		if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
			if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
				return
			}
			continue
		}
		m, err := f.Read(buf)
		if err != nil {
			return
		}
		for _, desc := range describeKeys(buf[:m]) {
			emit(desc)
		}
	}
}

func (h *terminalHandle) Close() error {
	var err error
	h.once.Do(func() {
		close(h.done)
		<-h.exited
		err = term.Restore(h.fd, h.state)
	})
	return err
}
