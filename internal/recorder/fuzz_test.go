package recorder

import (
	"testing"
	"unicode/utf8"
)

// FuzzDescribeKeys checks that any byte sequence from a raw terminal yields
// non-empty descriptions without panicking.
func FuzzDescribeKeys(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte("\x1b[A\x1b[B"))
	f.Add([]byte("\x1b[1"))
	f.Add([]byte("\x1b"))
	f.Add([]byte{0x03, 0x7f, 0x0d})
	f.Add([]byte{0xff, 0xfe})
	f.Add([]byte("\xc3"))

	f.Fuzz(func(t *testing.T, in []byte) {
		for _, d := range describeKeys(in) {
			if d == "" {
				t.Fatalf("describeKeys(%q) produced an empty description", in)
			}
			if !utf8.ValidString(d) {
				t.Fatalf("describeKeys(%q) produced invalid UTF-8 %q", in, d)
			}
		}
	})
}
