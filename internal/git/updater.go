// Package git refreshes project source trees from their remotes before the
// documentation build pass. A project without a configured repo URL is left
// untouched.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/dochost/internal/logfields"
)

// Updater performs clone-or-fast-forward updates with a per-operation timeout.
type Updater struct {
	timeout time.Duration
}

// NewUpdater creates an Updater. A zero timeout disables the deadline.
func NewUpdater(timeout time.Duration) *Updater {
	return &Updater{timeout: timeout}
}

// Update refreshes the working tree at dir from repoURL. An empty repoURL is
// a no-op, not an error: the project serves whatever sources are already on
// disk. A missing directory (or a directory that is not yet a repository)
// triggers a full clone; otherwise the default (or configured) branch is
// fetched and fast-forwarded.
func (u *Updater) Update(ctx context.Context, dir, repoURL, branch string) error {
	if repoURL == "" {
		slog.Debug("No repo configured, skipping update", logfields.Path(dir))
		return nil
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return u.clone(ctx, dir, repoURL, branch)
	}
	return u.fastForward(ctx, dir, repoURL, branch)
}

func (u *Updater) clone(ctx context.Context, dir, repoURL, branch string) error {
	slog.Info("Cloning repository", logfields.URL(repoURL), logfields.Path(dir))

	opts := &gogit.CloneOptions{URL: repoURL}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	repo, err := gogit.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return classify(repoURL, err)
	}

	if ref, err := repo.Head(); err == nil {
		slog.Info("Repository cloned", logfields.URL(repoURL), slog.String("commit", shortHash(ref.Hash())))
	}
	return nil
}

func (u *Updater) fastForward(ctx context.Context, dir, repoURL, branch string) error {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return &UpdateError{Kind: KindInvalidRepo, URL: repoURL, Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return &UpdateError{Kind: KindInvalidRepo, URL: repoURL, Err: err}
	}

	fetchOpts := &gogit.FetchOptions{
		RemoteName: "origin",
		Tags:       gogit.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	if err := repo.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return classify(repoURL, fmt.Errorf("fetch: %w", err))
	}

	target, err := resolveTargetBranch(repo, branch)
	if err != nil {
		return &UpdateError{Kind: KindUnknown, URL: repoURL, Err: err}
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", target), true)
	if err != nil {
		return &UpdateError{Kind: KindNotFound, URL: repoURL, Err: fmt.Errorf("remote ref %s: %w", target, err)}
	}
	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(target), true)
	if err != nil {
		// Local branch missing (e.g. clone of another branch); create it at
		// the remote tip.
		if cerr := wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(target), Hash: remoteRef.Hash(), Create: true, Force: true}); cerr != nil {
			return &UpdateError{Kind: KindUnknown, URL: repoURL, Err: fmt.Errorf("checkout %s: %w", target, cerr)}
		}
		slog.Info("Checked out branch at remote tip", logfields.Path(dir), slog.String("branch", target), slog.String("commit", shortHash(remoteRef.Hash())))
		return nil
	}

	if localRef.Hash() == remoteRef.Hash() {
		slog.Info("Repository already up-to-date", logfields.Path(dir), slog.String("branch", target), slog.String("commit", shortHash(remoteRef.Hash())))
		return nil
	}

	ff, err := isAncestor(repo, localRef.Hash(), remoteRef.Hash())
	if err != nil {
		return &UpdateError{Kind: KindUnknown, URL: repoURL, Err: fmt.Errorf("ancestor check: %w", err)}
	}
	if !ff {
		return &UpdateError{Kind: KindDiverged, URL: repoURL, Err: fmt.Errorf("local branch %s diverged from origin", target)}
	}

	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(target), Force: true}); err != nil {
		return &UpdateError{Kind: KindUnknown, URL: repoURL, Err: fmt.Errorf("checkout: %w", err)}
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: remoteRef.Hash(), Mode: gogit.HardReset}); err != nil {
		return &UpdateError{Kind: KindUnknown, URL: repoURL, Err: fmt.Errorf("fast-forward reset: %w", err)}
	}

	slog.Info("Fast-forwarded repository",
		logfields.Path(dir),
		slog.String("branch", target),
		slog.String("from", shortHash(localRef.Hash())),
		slog.String("to", shortHash(remoteRef.Hash())))
	return nil
}

// resolveTargetBranch follows the precedence: explicit config, current HEAD
// branch, remote default, "main" fallback.
func resolveTargetBranch(repo *gogit.Repository, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if headRef, err := repo.Head(); err == nil && headRef.Name().IsBranch() {
		return headRef.Name().Short(), nil
	}
	if ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), true); err == nil && ref.Target() != "" {
		// Target is refs/remotes/origin/<branch>; Short() keeps the remote
		// name prefix, so strip it.
		return strings.TrimPrefix(ref.Target().Short(), "origin/"), nil
	}
	return "main", nil
}

func isAncestor(repo *gogit.Repository, a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return false, nil
}

func shortHash(h plumbing.Hash) string { return h.String()[:8] }
