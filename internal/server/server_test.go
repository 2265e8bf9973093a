package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/orchestrator"
	"git.home.luguber.info/inful/dochost/internal/project"
)

// newTestServer assembles a server over two projects: "mylib" with generated
// output on disk and "empty" whose build never produced anything.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	libs := t.TempDir()

	mylibDocs := filepath.Join(libs, "mylib", "out", "html")
	require.NoError(t, os.MkdirAll(mylibDocs, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(mylibDocs, "index.html"),
		[]byte("<html><head><title>My Library API</title></head><body>hello docs</body></html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(mylibDocs, "notes.md"), []byte("# Notes\n\ncontent\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(mylibDocs, "style.css"), []byte("body{}"), 0o600))

	emptyDocs := filepath.Join(libs, "empty", "build", "docs", "javadoc")

	entries := []*project.Entry{
		{
			Config:    config.ProjectConfig{Path: "mylib", BuildSystem: config.BuildSystemCustom, BuildCommand: "make html", DocOutput: "out/html"},
			SourceDir: filepath.Join(libs, "mylib"),
			Route:     "mylib",
			DocsDir:   mylibDocs,
		},
		{
			Config:    config.ProjectConfig{Path: "empty", BuildSystem: config.BuildSystemGradle},
			SourceDir: filepath.Join(libs, "empty"),
			Route:     "empty",
			DocsDir:   emptyDocs,
		},
	}
	table := project.RouteTable{"mylib": mylibDocs, "empty": emptyDocs}

	board := orchestrator.NewStatusBoard()
	board.Set("mylib", project.StatusOK, "")
	board.Set("empty", project.StatusBuildFailed, "gradle: exit status 1")

	cfg := &config.Config{LibsPath: libs, Port: 8080}
	return New(cfg, table, entries, board, Options{}), mylibDocs
}

func TestIndexListsAllProjects(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/mylib/"`)
	assert.Contains(t, body, `href="/empty/"`)
	assert.Contains(t, body, "build-failed")
	// Title comes from the generated index.html when present.
	assert.Contains(t, body, "My Library API")
}

func TestServeDocumentationIndex(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mylib/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello docs")
}

func TestServeStaticAsset(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mylib/style.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "body{}")
}

func TestRouteWithoutTrailingSlashRedirects(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mylib", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/mylib/", rec.Header().Get("Location"))
}

func TestMissingArtifactDiagnostic(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empty/", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Documentation missing")
	assert.Contains(t, body, "build for this project failed")
}

func TestMissingArtifactNeverBuilt(t *testing.T) {
	s, _ := newTestServer(t)
	s.board.Set("empty", project.StatusOK, "")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empty/", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "has not been built yet")
}

func TestUnknownRouteNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTraversalRejected(t *testing.T) {
	s, _ := newTestServer(t)

	// Bypass ServeMux path cleaning to exercise the handler's own defense.
	req := httptest.NewRequest(http.MethodGet, "/mylib/", nil)
	req.URL.Path = "/mylib/../../etc/passwd"
	rec := httptest.NewRecorder()
	s.handleRoot(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkdownArtifactRendered(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mylib/notes.md", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>Notes</h1>")
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mylib/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
