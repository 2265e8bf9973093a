package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPage(t *testing.T) {
	out, err := RenderPage("Handbook", []byte("# Welcome\n\nSome *docs* here.\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<title>Handbook</title>")
	assert.Contains(t, html, "<h1>Welcome</h1>")
	assert.Contains(t, html, "<em>docs</em>")
}

func TestRenderPageGFMTable(t *testing.T) {
	out, err := RenderPage("t", []byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<table>")
}
