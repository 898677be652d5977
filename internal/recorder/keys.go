package recorder

import (
	"fmt"
	"unicode/utf8"
)

var escapeKeys = map[string]string{
	"\x1b[A":  "Key.up",
	"\x1b[B":  "Key.down",
	"\x1b[C":  "Key.right",
	"\x1b[D":  "Key.left",
	"\x1b[H":  "Key.home",
	"\x1b[F":  "Key.end",
	"\x1b[2~": "Key.insert",
	"\x1b[3~": "Key.delete",
	"\x1b[5~": "Key.page_up",
	"\x1b[6~": "Key.page_down",
	"\x1bOP":  "Key.f1",
	"\x1bOQ":  "Key.f2",
	"\x1bOR":  "Key.f3",
	"\x1bOS":  "Key.f4",
}

// describeKeys splits raw terminal input into one description per key.
// Printable runes are quoted; control bytes and escape sequences map to
// Key.<name>.
func describeKeys(b []byte) []string {
	var out []string
	for len(b) > 0 {
		if b[0] == 0x1b {
			if name, n := matchEscape(b); n > 0 {
				out = append(out, name)
				b = b[n:]
				continue
			}
			out = append(out, "Key.esc")
			b = b[1:]
			continue
		}
		if b[0] < 0x20 || b[0] == 0x7f {
			out = append(out, controlName(b[0]))
			b = b[1:]
			continue
		}
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			out = append(out, fmt.Sprintf("Key.byte_%02x", b[0]))
			b = b[1:]
			continue
		}
		out = append(out, fmt.Sprintf("'%c'", r))
		b = b[size:]
	}
	return out
}

func matchEscape(b []byte) (string, int) {
	for seq, name := range escapeKeys {
		if len(b) >= len(seq) && string(b[:len(seq)]) == seq {
			return name, len(seq)
		}
	}
	return "", 0
}

func controlName(c byte) string {
	switch c {
	case '\r', '\n':
		return "Key.enter"
	case '\t':
		return "Key.tab"
	case 0x7f, 0x08:
		return "Key.backspace"
	case 0x00:
		return "Key.ctrl+space"
	case 0x1c, 0x1d, 0x1e, 0x1f:
		return fmt.Sprintf("Key.ctrl+%c", '@'+c)
	default:
		return fmt.Sprintf("Key.ctrl+%c", 'a'+c-1)
	}
}
