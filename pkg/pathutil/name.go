package pathutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hostdash/hostdash/pkg/errclass"
)

// ValidateFileName checks a single path component used as the name of an
// uploaded file and returns its NFC form.
func ValidateFileName(name string) (string, error) {
	if name == "" {
		return "", errclass.ErrInvalidArgument.WithMessage("file name must not be empty")
	}

	name = norm.NFC.String(name)

	if name == "." || name == ".." {
		return "", errclass.ErrInvalidArgument.WithMessagef("file name must not be %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", errclass.ErrInvalidArgument.WithMessagef("file name must not contain separators: %s", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", errclass.ErrInvalidArgument.WithMessagef("file name must not contain control characters: %q", name)
		}
	}
	return name, nil
}
