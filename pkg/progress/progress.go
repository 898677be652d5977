// Package progress reports byte transfer progress for long copies.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// Callback receives progress updates. total is -1 when unknown.
type Callback func(op string, current, total int64)

// Noop is a no-op callback for default behavior.
func Noop(op string, current, total int64) {}

// Reader counts bytes read through it and reports each step.
type Reader struct {
	r       io.Reader
	op      string
	total   int64
	current atomic.Int64
	cb      Callback
}

// NewReader wraps r. Pass a negative total when the size is not known.
func NewReader(r io.Reader, op string, total int64, cb Callback) *Reader {
	if cb == nil {
		cb = Noop
	}
	return &Reader{r: r, op: op, total: total, cb: cb}
}

func (p *Reader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.cb(p.op, p.current.Add(int64(n)), p.total)
	}
	return n, err
}

// Current returns the number of bytes read so far.
func (p *Reader) Current() int64 {
	return p.current.Load()
}

// Terminal draws a single-line progress bar, redrawn in place.
type Terminal struct {
	writer      io.Writer
	op          string
	current     atomic.Int64
	total       atomic.Int64
	lastLineLen atomic.Int64
	enabled     atomic.Bool
}

// NewTerminal creates a progress bar writing to stderr.
func NewTerminal(op string, enabled bool) *Terminal {
	t := &Terminal{writer: os.Stderr, op: op}
	t.enabled.Store(enabled)
	t.total.Store(-1)
	return t
}

// Callback returns a Callback that redraws this bar.
func (t *Terminal) Callback() Callback {
	return func(op string, current, total int64) {
		if !t.enabled.Load() {
			return
		}
		t.current.Store(current)
		t.total.Store(total)
		t.render()
	}
}

func (t *Terminal) render() {
	current, total := t.current.Load(), t.total.Load()

	clear := "\r"
	if lastLen := t.lastLineLen.Load(); lastLen > 0 {
		clear = "\r" + strings.Repeat(" ", int(lastLen)) + "\r"
	}

	var line string
	if total <= 0 {
		line = fmt.Sprintf("%s... %s", t.op, FormatBytes(current))
	} else {
		if current > total {
			current = total
		}
		const barWidth = 30
		filled := int(barWidth * current / total)
		bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
		line = fmt.Sprintf("%s [%s] %s/%s (%.0f%%)", t.op, bar,
			FormatBytes(current), FormatBytes(total), float64(current)/float64(total)*100)
	}

	fmt.Fprint(t.writer, clear+line)
	t.lastLineLen.Store(int64(len(line)))
}

// Done clears the bar and ends the line.
func (t *Terminal) Done() {
	if !t.enabled.Load() || t.lastLineLen.Load() == 0 {
		return
	}
	fmt.Fprint(t.writer, "\r"+strings.Repeat(" ", int(t.lastLineLen.Load()))+"\r")
	t.lastLineLen.Store(0)
}

// SetEnabled enables or disables the progress bar.
func (t *Terminal) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// IsEnabled returns whether the progress bar is enabled.
func (t *Terminal) IsEnabled() bool {
	return t.enabled.Load()
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
