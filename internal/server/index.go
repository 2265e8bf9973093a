package server

import (
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/project"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Documentation Server</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 2em auto; padding: 0 1em; }
h1 { text-align: center; }
ul { list-style: none; padding: 0; }
li { margin: 0.5em 0; padding: 0.5em; background: #f5f5f5; border-radius: 4px; }
a { text-decoration: none; color: #0366d6; font-weight: 500; }
.status { float: right; font-size: 0.85em; padding: 0.1em 0.5em; border-radius: 3px; color: #fff; }
.status.ok { background: #2e7d32; }
.status.update-failed { background: #ef6c00; }
.status.build-failed, .status.missing-output { background: #c62828; }
.status.pending { background: #757575; }
.meta { color: #666; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Documentation Server</h1>
<ul>
{{range .Projects}}<li>
  <span class="status {{.Status}}">{{.Status}}</span>
  <a href="/{{.Route}}/">{{.Title}}</a>
  <div class="meta">{{.Path}} &middot; {{.Variant}}{{if .LastSuccess}} &middot; last built {{.LastSuccess.Format "2006-01-02 15:04"}}{{end}}</div>
</li>
{{end}}</ul>
</body>
</html>
`))

type indexProject struct {
	Route       string
	Title       string
	Path        string
	Variant     string
	Status      project.Status
	LastSuccess *time.Time
}

// handleIndex renders the project listing with per-entry build status.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	projects := make([]indexProject, 0, len(s.entries))
	for _, e := range s.entries {
		st := s.board.Get(e.Route)

		status := st.Status
		if status == project.StatusOK && !outputExists(e.DocsDir) {
			// The build reported success but left nothing to serve.
			status = project.Status("missing-output")
		}

		p := indexProject{
			Route:   e.Route,
			Title:   e.Config.Path,
			Path:    e.Config.Path,
			Variant: string(e.Config.BuildSystem),
			Status:  status,
		}
		if title := docTitle(e.DocsDir); title != "" {
			p.Title = title
		}
		if s.opts.History != nil {
			if last, err := s.opts.History.LastSuccess(r.Context(), e.Route); err == nil {
				p.LastSuccess = last
			}
		}
		projects = append(projects, p)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Projects []indexProject }{projects}); err != nil {
		slog.Error("Index rendering failed", logfields.Error(err))
	}
}

func outputExists(docsDir string) bool {
	_, err := os.Stat(filepath.Join(docsDir, "index.html"))
	return err == nil
}

// docTitle extracts the <title> of a project's generated index.html so the
// listing can show what the documentation tool produced. Empty when the file
// is missing or has no title.
func docTitle(docsDir string) string {
	f, err := os.Open(filepath.Join(docsDir, "index.html"))
	if err != nil {
		return ""
	}
	defer f.Close()

	doc, err := xhtml.Parse(f)
	if err != nil {
		return ""
	}

	var title string
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if title != "" {
			return
		}
		if n.Type == xhtml.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == xhtml.TextNode {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
