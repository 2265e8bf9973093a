package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initOriginRepo initializes a local repository with one commit to act as the
// clone/fetch remote.
func initOriginRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "README.md", "hello")
	return dir, repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestUpdateNoRepoIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")

	err := NewUpdater(time.Minute).Update(context.Background(), dir, "", "")
	require.NoError(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no-op update must not touch the filesystem")
}

func TestUpdateClonesMissingDirectory(t *testing.T) {
	originDir, _ := initOriginRepo(t)
	dir := filepath.Join(t.TempDir(), "checkout")

	err := NewUpdater(time.Minute).Update(context.Background(), dir, originDir, "")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "README.md"))
}

func TestUpdateFastForwardsExistingClone(t *testing.T) {
	originDir, origin := initOriginRepo(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	u := NewUpdater(time.Minute)

	require.NoError(t, u.Update(context.Background(), dir, originDir, ""))

	commitFile(t, origin, originDir, "CHANGES.md", "v2")
	require.NoError(t, u.Update(context.Background(), dir, originDir, ""))

	assert.FileExists(t, filepath.Join(dir, "CHANGES.md"))
}

func TestUpdateAlreadyUpToDate(t *testing.T) {
	originDir, _ := initOriginRepo(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	u := NewUpdater(time.Minute)

	require.NoError(t, u.Update(context.Background(), dir, originDir, ""))
	require.NoError(t, u.Update(context.Background(), dir, originDir, ""))
}

func TestUpdateDivergedBranch(t *testing.T) {
	originDir, origin := initOriginRepo(t)
	dir := filepath.Join(t.TempDir(), "checkout")
	u := NewUpdater(time.Minute)

	require.NoError(t, u.Update(context.Background(), dir, originDir, ""))

	// Advance both sides independently.
	commitFile(t, origin, originDir, "a.md", "origin side")
	local, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	commitFile(t, local, dir, "b.md", "local side")

	err = u.Update(context.Background(), dir, originDir, "")
	var ue *UpdateError
	require.True(t, errors.As(err, &ue), "expected UpdateError, got %v", err)
	assert.Equal(t, KindDiverged, ue.Kind)
}

func TestUpdateDirectoryIsNotARepository(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o750))

	err := NewUpdater(time.Minute).Update(context.Background(), dir, "https://example.com/repo.git", "")
	var ue *UpdateError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, KindInvalidRepo, ue.Kind)
}
