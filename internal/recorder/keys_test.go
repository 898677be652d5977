package recorder

import (
	"reflect"
	"testing"
)

func TestDescribeKeys(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a", []string{"'a'"}},
		{"hi", []string{"'h'", "'i'"}},
		{"\r", []string{"Key.enter"}},
		{"\t\x7f", []string{"Key.tab", "Key.backspace"}},
		{"\x03", []string{"Key.ctrl+c"}},
		{"\x1c", []string{"Key.ctrl+\\"}},
		{"\x1b[A\x1b[D", []string{"Key.up", "Key.left"}},
		{"\x1b", []string{"Key.esc"}},
		{"\x1b[3~x", []string{"Key.delete", "'x'"}},
		{"é", []string{"'é'"}},
		{"\xff", []string{"Key.byte_ff"}},
	}
	for _, tt := range tests {
		got := describeKeys([]byte(tt.in))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("describeKeys(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
