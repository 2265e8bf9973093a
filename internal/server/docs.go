package server

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/markdown"
	"git.home.luguber.info/inful/dochost/internal/project"
)

// serveDocs serves one file from a project's documentation tree. Traversal
// outside the output directory is rejected here regardless of what route
// sanitization already guarantees.
func (s *Server) serveDocs(w http.ResponseWriter, r *http.Request, route, docsDir, rest string) {
	if containsDotDot(rest) {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	target := filepath.Join(docsDir, filepath.FromSlash(path.Clean("/"+rest)))
	if rel, err := filepath.Rel(docsDir, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	if _, err := os.Stat(docsDir); os.IsNotExist(err) {
		s.renderMissingArtifact(w, route)
		return
	}

	info, err := os.Stat(target)
	if err == nil && info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusFound)
			return
		}
		target = filepath.Join(target, "index.html")
		_, err = os.Stat(target)
	}
	if err != nil {
		// Directory requests that lack their index file mean the build never
		// emitted output there; report that instead of a bare not-found.
		if rest == "" || strings.HasSuffix(rest, "/") || filepath.Base(target) == "index.html" {
			s.renderMissingArtifact(w, route)
			return
		}
		http.NotFound(w, r)
		return
	}

	if strings.EqualFold(filepath.Ext(target), ".md") {
		s.serveMarkdown(w, r, target)
		return
	}

	http.ServeFile(w, r, target)
}

// serveMarkdown renders a markdown artifact as HTML at request time.
func (s *Server) serveMarkdown(w http.ResponseWriter, r *http.Request, target string) {
	source, err := os.ReadFile(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	page, err := markdown.RenderPage(filepath.Base(target), source)
	if err != nil {
		slog.Error("Markdown rendering failed", logfields.Path(target), logfields.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// renderMissingArtifact writes the diagnostic 404 for a registered route whose
// output directory or index file is absent, distinguishing a failed build from
// one that never produced output.
func (s *Server) renderMissingArtifact(w http.ResponseWriter, route string) {
	st := s.board.Get(route)

	var reason string
	switch st.Status {
	case project.StatusBuildFailed:
		reason = "The last documentation build for this project failed."
		if st.Detail != "" {
			reason += " " + st.Detail
		}
	case project.StatusUpdateFailed:
		reason = "The source update failed and no previously built documentation exists."
	default:
		reason = "No documentation output was found; the project has not been built yet."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = fmt.Fprintf(w, `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Documentation missing</title></head>
<body>
<h1>Documentation missing for %s</h1>
<p>%s</p>
<p><a href="/">Back to index</a></p>
</body>
</html>
`, html.EscapeString(route), html.EscapeString(reason))
}

// containsDotDot reports whether any slash-separated segment is "..".
func containsDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
