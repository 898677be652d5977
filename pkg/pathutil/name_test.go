package pathutil_test

import (
	"testing"

	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/pathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateFileName_Invalid tests names that cannot be used as a leaf.
func TestValidateFileName_Invalid(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "tab\there", "nl\n", "bell\a"} {
		t.Run(name, func(t *testing.T) {
			_, err := pathutil.ValidateFileName(name)
			require.ErrorIs(t, err, errclass.ErrInvalidArgument)
		})
	}
}

// TestValidateFileName_Valid tests ordinary names, including spaces and dots.
func TestValidateFileName_Valid(t *testing.T) {
	for _, name := range []string{"a.txt", "My Report (final).pdf", "...", ".hidden", "x..y"} {
		t.Run(name, func(t *testing.T) {
			got, err := pathutil.ValidateFileName(name)
			require.NoError(t, err)
			assert.Equal(t, name, got)
		})
	}
}

// TestValidateFileName_NFC tests that decomposed names are returned composed.
func TestValidateFileName_NFC(t *testing.T) {
	decomposed := "cafe\u0301.txt"
	got, err := pathutil.ValidateFileName(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9.txt", got)
}
