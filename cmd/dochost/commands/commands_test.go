package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestDefaultConfigPath(t *testing.T) {
	cli, _ := parse(t, "serve")
	assert.Equal(t, "config.toml", cli.Config)
	assert.False(t, cli.Verbose)
}

func TestServeIsDefaultCommand(t *testing.T) {
	_, ctx := parse(t)
	assert.Equal(t, "serve", ctx.Command())
}

func TestBuildNoUpdateFlag(t *testing.T) {
	cli, ctx := parse(t, "build", "--no-update")
	assert.Equal(t, "build", ctx.Command())
	assert.True(t, cli.Build.NoUpdate)
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cli, _ := parse(t, "-c", path, "init")

	require.NoError(t, cli.Init.Run(cli))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "libs_path")

	// A second init without --force must not clobber the file.
	assert.Error(t, cli.Init.Run(cli))
}
