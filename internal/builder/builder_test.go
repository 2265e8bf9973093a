package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/project"
)

// fakeRunner records the invocation and returns a canned result.
type fakeRunner struct {
	dir  string
	name string
	args []string

	result Result
	err    error
	sleep  time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	f.dir, f.name, f.args = dir, name, args
	if f.sleep > 0 {
		select {
		case <-ctx.Done():
			return Result{ExitCode: -1}, ctx.Err()
		case <-time.After(f.sleep):
		}
	}
	return f.result, f.err
}

func entry(variant config.BuildSystem, buildCommand, root string) *project.Entry {
	return &project.Entry{
		Config:    config.ProjectConfig{Path: "p", BuildSystem: variant, BuildCommand: buildCommand},
		SourceDir: root,
		Route:     "p",
	}
}

func TestCommandGradleWithoutWrapper(t *testing.T) {
	name, args, err := Command(entry(config.BuildSystemGradle, "", t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "gradle", name)
	assert.Equal(t, []string{"clean", "javadoc"}, args)
}

func TestCommandGradlePrefersWrapper(t *testing.T) {
	root := t.TempDir()
	wrapper := filepath.Join(root, "gradlew")
	require.NoError(t, os.WriteFile(wrapper, []byte("#!/bin/sh\n"), 0o755))

	name, args, err := Command(entry(config.BuildSystemGradle, "", root))
	require.NoError(t, err)
	assert.Equal(t, wrapper, name)
	assert.Equal(t, []string{"clean", "javadoc"}, args)
}

func TestCommandCargo(t *testing.T) {
	name, args, err := Command(entry(config.BuildSystemCargo, "", t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "cargo", name)
	assert.Equal(t, []string{"doc"}, args)
}

func TestCommandCustomSplitsFields(t *testing.T) {
	name, args, err := Command(entry(config.BuildSystemCustom, "make -C docs html", t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "make", name)
	assert.Equal(t, []string{"-C", "docs", "html"}, args)
}

func TestBuildRunsInSourceRoot(t *testing.T) {
	root := t.TempDir()
	fr := &fakeRunner{}
	b := New(fr, time.Minute)

	require.NoError(t, b.Build(context.Background(), entry(config.BuildSystemCargo, "", root)))
	assert.Equal(t, root, fr.dir)
	assert.Equal(t, "cargo", fr.name)
}

func TestBuildNonZeroExit(t *testing.T) {
	fr := &fakeRunner{result: Result{ExitCode: 3, Output: []byte("error: missing crate")}}
	b := New(fr, time.Minute)

	err := b.Build(context.Background(), entry(config.BuildSystemCargo, "", t.TempDir()))
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindExit, be.Kind)
	assert.Equal(t, 3, be.ExitCode)
	assert.Contains(t, be.Output, "missing crate")
}

func TestBuildStartFailure(t *testing.T) {
	fr := &fakeRunner{result: Result{ExitCode: -1}, err: errors.New("executable file not found")}
	b := New(fr, time.Minute)

	err := b.Build(context.Background(), entry(config.BuildSystemCustom, "nonexistent-tool", t.TempDir()))
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindStart, be.Kind)
}

func TestBuildTimeout(t *testing.T) {
	fr := &fakeRunner{sleep: time.Second}
	b := New(fr, 10*time.Millisecond)

	err := b.Build(context.Background(), entry(config.BuildSystemCargo, "", t.TempDir()))
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, KindTimeout, be.Kind)
}

func TestExecRunnerCapturesOutputAndStatus(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), t.TempDir(), "sh", "-c", "echo built; exit 2")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, string(res.Output), "built")
}
