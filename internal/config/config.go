// Package config loads and validates the dochost configuration file.
//
// Both TOML (the original format) and YAML are accepted, selected by file
// extension. Validation failures are fatal before the HTTP listener binds;
// everything that can be degraded per project instead is left to the
// orchestrator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Error is a fatal configuration error. The process must exit non-zero
// before binding the listener when one is returned.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %s", e.Msg)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// IsConfigError reports whether err is (or wraps) a fatal configuration error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

const (
	defaultPort          = 8080
	defaultUpdateTimeout = 2 * time.Minute
	defaultBuildTimeout  = 10 * time.Minute
	defaultEventSubject  = "dochost.builds"
)

// Load reads, expands, decodes and validates the configuration file.
func Load(configPath string) (*Config, error) {
	// Load .env first so ${VAR} expansion below can see it. Absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env not loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Msg: fmt.Sprintf("configuration file not found: %s", configPath)}
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, &Error{Msg: fmt.Sprintf("decode yaml: %v", err)}
		}
	default:
		// TOML is the historical default, including extensionless files.
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, &Error{Msg: fmt.Sprintf("decode toml: %v", err)}
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.UpdateTimeout == 0 {
		c.UpdateTimeout = Duration(defaultUpdateTimeout)
	}
	if c.BuildTimeout == 0 {
		c.BuildTimeout = Duration(defaultBuildTimeout)
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		c.Events.Subject = defaultEventSubject
	}
	for i := range c.Projects {
		c.Projects[i].BuildSystem = c.Projects[i].BuildSystem.Normalize()
	}
}

// Validate enforces the invariants that make the route table unambiguous and
// the build pass well defined. Per-project degradable problems (unreachable
// repos, failing builds) are deliberately not checked here.
func (c *Config) Validate() error {
	if c.LibsPath == "" {
		return &Error{Field: "libs_path", Msg: "required"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &Error{Field: "port", Msg: fmt.Sprintf("out of range: %d", c.Port)}
	}
	if len(c.Projects) == 0 {
		return &Error{Field: "projects", Msg: "at least one project required"}
	}

	for i, p := range c.Projects {
		field := fmt.Sprintf("projects[%d]", i)
		if strings.TrimSpace(p.Path) == "" {
			return &Error{Field: field + ".path", Msg: "required"}
		}
		if p.BuildSystem == "" {
			return &Error{Field: field + ".build_system", Msg: "must be one of gradle, cargo, custom"}
		}
		if p.BuildSystem == BuildSystemCustom {
			if strings.TrimSpace(p.BuildCommand) == "" {
				return &Error{Field: field + ".build_command", Msg: "required for custom build system"}
			}
			if strings.TrimSpace(p.DocOutput) == "" {
				return &Error{Field: field + ".doc_output", Msg: "required for custom build system"}
			}
			if filepath.IsAbs(p.DocOutput) || strings.Contains(p.DocOutput, "..") {
				return &Error{Field: field + ".doc_output", Msg: "must be a relative path inside the project"}
			}
		} else {
			if p.BuildCommand != "" {
				return &Error{Field: field + ".build_command", Msg: fmt.Sprintf("only valid for custom build system, not %s", p.BuildSystem)}
			}
			if p.DocOutput != "" {
				return &Error{Field: field + ".doc_output", Msg: fmt.Sprintf("only valid for custom build system, not %s", p.BuildSystem)}
			}
		}
	}
	return nil
}

const exampleConfig = `# dochost configuration
libs_path = "/srv/libs"
port = 8080
update_on_start = true
# update_timeout = "2m"
# build_timeout = "10m"
# refresh_interval = "30m"
# history_path = "/var/lib/dochost/history.db"

# [events]
# nats_url = "nats://localhost:4222"
# subject = "dochost.builds"

[[projects]]
path = "java/mylib"
repo = "https://git.example.com/java/mylib.git"
build_system = "gradle"

[[projects]]
path = "rust/other"
repo = "https://git.example.com/rust/other.git"
build_system = "cargo"

[[projects]]
path = "misc/handbook"
build_system = "custom"
build_command = "make html"
doc_output = "out/html"
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
