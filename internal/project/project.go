// Package project defines the derived per-project model: the resolved source
// root, the sanitized public route, and the documentation output directory
// each build system variant emits to.
package project

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/dochost/internal/config"
)

// MissingOutputPathError indicates a custom project without a declared output
// directory. Fixed-convention variants (gradle, cargo) can never produce it.
type MissingOutputPathError struct {
	Project string
}

func (e *MissingOutputPathError) Error() string {
	return fmt.Sprintf("project %s: custom build system requires doc_output", e.Project)
}

// Status summarizes the most recent orchestration outcome for an entry.
type Status string

const (
	StatusPending      Status = "pending"
	StatusOK           Status = "ok"
	StatusUpdateFailed Status = "update-failed"
	StatusBuildFailed  Status = "build-failed"
)

// Entry is one configured documentation-hosting unit. Entries are built once
// per orchestration cycle and are read-only while the HTTP server runs;
// mutable status lives in orchestrator.StatusBoard instead.
type Entry struct {
	Config config.ProjectConfig
	// SourceDir is the absolute project root under libs_path.
	SourceDir string
	// Route is the sanitized public URL segment.
	Route string
	// DocsDir is the absolute documentation output directory.
	DocsDir string
}

// OutputDir computes the documentation output directory for a build system
// variant relative to the project root. Pure: no filesystem access; existence
// is a serve-time concern so a silently failed build degrades to a missing
// artifact response rather than aborting startup.
func OutputDir(root string, variant config.BuildSystem, docOutput string) (string, error) {
	switch variant {
	case config.BuildSystemGradle:
		return filepath.Join(root, "build", "docs", "javadoc"), nil
	case config.BuildSystemCargo:
		return filepath.Join(root, "target", "doc"), nil
	case config.BuildSystemCustom:
		if docOutput == "" {
			return "", &MissingOutputPathError{Project: filepath.Base(root)}
		}
		return filepath.Join(root, docOutput), nil
	default:
		return "", fmt.Errorf("unknown build system %q", variant)
	}
}

// RouteTable maps sanitized public routes to absolute output directories.
// Built once at startup and immutable afterwards; concurrent request handlers
// read it without locking.
type RouteTable map[string]string
