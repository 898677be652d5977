package cli

import (
	"fmt"
	"strings"

	"github.com/hostdash/hostdash/pkg/color"
	"github.com/hostdash/hostdash/pkg/config"
)

// suggestKeys returns config keys that look like what the user meant:
// prefix matches first, then substring matches on the last segment.
func suggestKeys(query string) []string {
	q := strings.ToLower(query)
	var matches []string
	for _, k := range config.Keys() {
		if strings.HasPrefix(k, q) {
			matches = append(matches, k)
		}
	}
	if len(matches) > 0 {
		return matches
	}

	if i := strings.LastIndex(q, "."); i >= 0 {
		q = q[i+1:]
	}
	if q == "" {
		return nil
	}
	for _, k := range config.Keys() {
		if strings.Contains(k, q) {
			matches = append(matches, k)
		}
	}
	return matches
}

// withKeySuggestion appends a "Did you mean" hint to unknown-key errors.
func withKeySuggestion(key string, err error) error {
	if !strings.HasPrefix(err.Error(), "unknown config key") {
		return err
	}
	matches := suggestKeys(key)
	if len(matches) == 0 {
		return fmt.Errorf("%w\n  %s", err, color.Dim(fmt.Sprintf("Run %s to see available keys.", color.Code("hostdash config keys"))))
	}
	hint := "Did you mean"
	if len(matches) > 1 {
		hint += " one of"
	}
	return fmt.Errorf("%w\n  %s", err, color.Dim(fmt.Sprintf("%s: %s?", hint, strings.Join(matches, ", "))))
}
