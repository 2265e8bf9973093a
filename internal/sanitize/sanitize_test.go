package sanitize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeBasic(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "mylib", "mylib"},
		{"uppercase folded", "MyLib", "mylib"},
		{"slash becomes dash", "java/mylib", "java-mylib"},
		{"repeated separators collapse", "java//my__lib", "java-my-lib"},
		{"leading and trailing trimmed", "/libs/mylib/", "libs-mylib"},
		{"dots collapse", "my.lib.v2", "my-lib-v2"},
		{"unicode folds to ascii", "Café/Docs", "cafe-docs"},
		{"control characters stripped", "my\x00lib\n", "my-lib"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Sanitize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"java/mylib", "My Über Lib", "a..b..c", "x-y-z"}
	for _, in := range inputs {
		once, err := Sanitize(in)
		require.NoError(t, err)
		twice, err := Sanitize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", in)
	}
}

func TestSanitizeEmptyResult(t *testing.T) {
	for _, in := range []string{"", "///", "...", "---", "!!"} {
		_, err := Sanitize(in)
		var ipe *InvalidProjectPathError
		assert.True(t, errors.As(err, &ipe), "expected InvalidProjectPathError for %q, got %v", in, err)
	}
}

func TestSanitizeTraversalNeverEscapes(t *testing.T) {
	// Traversal sequences survive only as dashes; the result can never form a
	// path component that climbs out of the base directory.
	for _, in := range []string{"../etc/passwd", "a/../../b", "..%2f..", "foo/.."} {
		got, err := Sanitize(in)
		require.NoError(t, err)
		assert.NotContains(t, got, "..")
		assert.NotContains(t, got, "/")
	}
}

func TestResolveUnder(t *testing.T) {
	base := t.TempDir()

	abs, err := ResolveUnder(base, "java/mylib")
	require.NoError(t, err)
	assert.Contains(t, abs, base)

	for _, raw := range []string{"../outside", "a/../../b", "..", "", "."} {
		_, err := ResolveUnder(base, raw)
		var ipe *InvalidProjectPathError
		assert.True(t, errors.As(err, &ipe), "expected rejection for %q, got %v", raw, err)
	}
}
