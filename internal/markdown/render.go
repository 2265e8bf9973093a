// Package markdown renders documentation pages that a custom build emitted as
// raw markdown instead of HTML. Rendering happens at request time; generated
// HTML trees (javadoc, rustdoc) never pass through here.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 2em auto; padding: 0 1em; line-height: 1.5; }
pre { background: #f5f5f5; padding: 1em; border-radius: 4px; overflow-x: auto; }
code { background: #f5f5f5; padding: 0.1em 0.3em; border-radius: 3px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// RenderPage converts a markdown document into a standalone HTML page.
func RenderPage(title string, source []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	data := struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())}
	if err := pageTemplate.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return page.Bytes(), nil
}
