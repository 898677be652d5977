package color

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withColor(t *testing.T, on bool) {
	t.Helper()
	orig := Enabled()
	if on {
		Enable()
	} else {
		Disable()
	}
	t.Cleanup(func() { state.enabled.Store(orig) })
}

func TestEnableDisable(t *testing.T) {
	withColor(t, true)
	assert.True(t, Enabled())
	Disable()
	assert.False(t, Enabled())
}

func TestFormattersEnabled(t *testing.T) {
	withColor(t, true)

	tests := []struct {
		name string
		got  string
		code string
	}{
		{"Success", Success("ok"), Green},
		{"Error", Error("ok"), Red},
		{"Warning", Warning("ok"), Yellow},
		{"Info", Info("ok"), Cyan},
		{"Header", Header("ok"), Bold},
		{"Dim", Dim("ok"), DimCode},
		{"Path", Path("ok"), Blue},
		{"Code", Code("ok"), Bold + DimCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.got, tt.code))
			assert.True(t, strings.HasSuffix(tt.got, Reset))
			assert.Contains(t, tt.got, "ok")
		})
	}
}

func TestFormattersDisabled(t *testing.T) {
	withColor(t, false)
	assert.Equal(t, "ok", Success("ok"))
	assert.Equal(t, "ok", Path("ok"))
	assert.Equal(t, "n=3", Successf("n=%d", 3))
	assert.Equal(t, "critical", Severity("critical"))
}

func TestSeverity(t *testing.T) {
	withColor(t, true)
	assert.Equal(t, Error("critical"), Severity("critical"))
	assert.Equal(t, Error("error"), Severity("error"))
	assert.Equal(t, Warning("warning"), Severity("warning"))
	assert.Equal(t, Dim("info"), Severity("info"))
}
