// Package builder turns a project's build system variant into a concrete tool
// invocation and runs it in the project's source root. It never verifies that
// documentation artifacts were actually emitted; that is a serve-time concern.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/project"
)

// ErrorKind classifies build failures.
type ErrorKind string

const (
	KindExit    ErrorKind = "exit"    // tool ran and exited non-zero
	KindStart   ErrorKind = "start"   // tool could not be started
	KindTimeout ErrorKind = "timeout" // tool was killed by the build timeout
)

// BuildError reports a failed documentation build for one project, carrying
// the captured tool output for diagnostics. Never fatal to the process.
type BuildError struct {
	Kind     ErrorKind
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *BuildError) Error() string {
	switch e.Kind {
	case KindExit:
		return fmt.Sprintf("build command %q exited with status %d", e.Command, e.ExitCode)
	case KindTimeout:
		return fmt.Sprintf("build command %q timed out", e.Command)
	default:
		return fmt.Sprintf("build command %q failed to start: %v", e.Command, e.Err)
	}
}

func (e *BuildError) Unwrap() error { return e.Err }

// Builder invokes documentation build tools through a Runner.
type Builder struct {
	runner  Runner
	timeout time.Duration
}

// New creates a Builder. A zero timeout disables the deadline.
func New(runner Runner, timeout time.Duration) *Builder {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Builder{runner: runner, timeout: timeout}
}

// Command resolves the concrete command line for an entry's build system
// variant. Gradle prefers the project's own wrapper script when present.
func Command(e *project.Entry) (name string, args []string, err error) {
	switch e.Config.BuildSystem {
	case config.BuildSystemGradle:
		wrapper := filepath.Join(e.SourceDir, "gradlew")
		if _, serr := os.Stat(wrapper); serr == nil {
			return wrapper, []string{"clean", "javadoc"}, nil
		}
		return "gradle", []string{"clean", "javadoc"}, nil
	case config.BuildSystemCargo:
		return "cargo", []string{"doc"}, nil
	case config.BuildSystemCustom:
		fields := strings.Fields(e.Config.BuildCommand)
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("empty build command for %s", e.Route)
		}
		return fields[0], fields[1:], nil
	default:
		return "", nil, fmt.Errorf("unknown build system %q", e.Config.BuildSystem)
	}
}

// Build runs the entry's build command in its source root. Non-zero exit,
// start failure and timeout all surface as *BuildError.
func (b *Builder) Build(ctx context.Context, e *project.Entry) error {
	name, args, err := Command(e)
	if err != nil {
		return &BuildError{Kind: KindStart, Command: e.Config.BuildCommand, Err: err}
	}
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	slog.Info("Building documentation", logfields.Route(e.Route), slog.String("command", cmdline))

	res, err := b.runner.Run(ctx, e.SourceDir, name, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &BuildError{Kind: KindTimeout, Command: cmdline, Output: string(res.Output), Err: ctx.Err()}
		}
		return &BuildError{Kind: KindStart, Command: cmdline, Output: string(res.Output), Err: err}
	}
	if res.ExitCode != 0 {
		// A deadline kill usually surfaces as a non-zero exit from the
		// runner; keep the timeout classification in that case too.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &BuildError{Kind: KindTimeout, Command: cmdline, ExitCode: res.ExitCode, Output: string(res.Output), Err: ctx.Err()}
		}
		return &BuildError{Kind: KindExit, Command: cmdline, ExitCode: res.ExitCode, Output: string(res.Output)}
	}

	slog.Info("Documentation built", logfields.Route(e.Route), logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return nil
}
