package config

import (
	"fmt"
	"strings"
	"time"
)

// BuildSystem enumerates the supported documentation build tool integrations.
// New variants are added here plus one arm each in project.OutputDir and
// builder.Command.
type BuildSystem string

const (
	BuildSystemGradle BuildSystem = "gradle"
	BuildSystemCargo  BuildSystem = "cargo"
	BuildSystemCustom BuildSystem = "custom"
)

// Normalize returns the lowercased typed value, or "" for unknown variants so
// callers can branch safely.
func (b BuildSystem) Normalize() BuildSystem {
	switch BuildSystem(strings.ToLower(strings.TrimSpace(string(b)))) {
	case BuildSystemGradle:
		return BuildSystemGradle
	case BuildSystemCargo:
		return BuildSystemCargo
	case BuildSystemCustom:
		return BuildSystemCustom
	default:
		return ""
	}
}

// Duration wraps time.Duration so config files can use "90s" / "10m" strings
// in both TOML and YAML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by the TOML codec).
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler (yaml.v3 does not consult
// TextUnmarshaler).
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// Std returns the wrapped standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProjectConfig describes one documentation-hosting unit.
type ProjectConfig struct {
	// Path is the project directory relative to LibsPath. It also seeds the
	// sanitized public route.
	Path string `toml:"path" yaml:"path"`
	// Repo is the optional git URL; empty means the source tree is managed
	// out of band and updates are skipped.
	Repo string `toml:"repo,omitempty" yaml:"repo,omitempty"`
	// Branch overrides the branch to fast-forward; empty resolves the remote
	// default branch.
	Branch string `toml:"branch,omitempty" yaml:"branch,omitempty"`
	// BuildSystem selects the documentation tool: gradle, cargo or custom.
	BuildSystem BuildSystem `toml:"build_system" yaml:"build_system"`
	// BuildCommand is the literal command line for custom builds. Required
	// iff BuildSystem is custom.
	BuildCommand string `toml:"build_command,omitempty" yaml:"build_command,omitempty"`
	// DocOutput is the output directory relative to the project root for
	// custom builds. Required iff BuildSystem is custom; gradle and cargo
	// have fixed tool conventions.
	DocOutput string `toml:"doc_output,omitempty" yaml:"doc_output,omitempty"`
}

// EventsConfig enables publishing per-project orchestration results to NATS.
type EventsConfig struct {
	NATSURL string `toml:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Subject string `toml:"subject,omitempty" yaml:"subject,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	// LibsPath is the base directory containing all project source trees.
	LibsPath string `toml:"libs_path" yaml:"libs_path"`
	Port     int    `toml:"port,omitempty" yaml:"port,omitempty"`
	// UpdateOnStart runs the git update pass before building at startup.
	UpdateOnStart bool `toml:"update_on_start,omitempty" yaml:"update_on_start,omitempty"`
	// Concurrency bounds how many projects are orchestrated in parallel.
	// 1 (the default) keeps the original strictly sequential behavior.
	Concurrency int `toml:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	UpdateTimeout Duration `toml:"update_timeout,omitempty" yaml:"update_timeout,omitempty"`
	BuildTimeout  Duration `toml:"build_timeout,omitempty" yaml:"build_timeout,omitempty"`

	// RefreshInterval re-runs update+build periodically while serving.
	// Zero disables periodic refresh. Routes never change at runtime; only
	// artifact content and per-project status are refreshed.
	RefreshInterval Duration `toml:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"`

	// HistoryPath is the sqlite file recording update/build outcomes.
	// Empty keeps history in memory only.
	HistoryPath string `toml:"history_path,omitempty" yaml:"history_path,omitempty"`

	Events EventsConfig `toml:"events,omitempty" yaml:"events,omitempty"`

	Projects []ProjectConfig `toml:"projects" yaml:"projects"`
}
