// Package sanitize normalizes configured project paths into URL-safe route
// segments and guards directory lookups against traversal outside the library
// base directory. The same function feeds both route registration and
// filesystem resolution, so it must stay deterministic.
package sanitize

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// InvalidProjectPathError indicates a configured project path that cannot be
// turned into a usable route segment or source directory.
type InvalidProjectPathError struct {
	Raw    string
	Reason string
}

func (e *InvalidProjectPathError) Error() string {
	return fmt.Sprintf("invalid project path %q: %s", e.Raw, e.Reason)
}

// foldMarks strips combining marks after NFD decomposition so accented input
// folds to plain ASCII before slugging (Café -> Cafe).
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize converts a raw configured path into a single lowercase route
// segment containing only [a-z0-9-]. Runs of any other characters collapse to
// a single dash; leading and trailing dashes are trimmed.
func Sanitize(raw string) (string, error) {
	folded, _, err := transform.String(foldMarks, raw)
	if err != nil {
		// Malformed input folds byte-wise; fall back to the raw string.
		folded = raw
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastWasDash := false
	for _, c := range folded {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b.WriteRune(c)
			lastWasDash = false
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + ('a' - 'A'))
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteByte('-')
				lastWasDash = true
			}
		}
	}

	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "", &InvalidProjectPathError{Raw: raw, Reason: "empty after sanitization"}
	}
	return s, nil
}

// ResolveUnder joins a raw configured project path onto the base library
// directory and rejects results that escape it after normalization. Returns
// the cleaned absolute source directory.
func ResolveUnder(base, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &InvalidProjectPathError{Raw: raw, Reason: "empty path"}
	}
	abs := filepath.Clean(filepath.Join(base, raw))
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &InvalidProjectPathError{Raw: raw, Reason: "escapes base directory"}
	}
	if rel == "." {
		return "", &InvalidProjectPathError{Raw: raw, Reason: "resolves to base directory itself"}
	}
	return abs, nil
}
