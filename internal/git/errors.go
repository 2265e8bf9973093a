package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Kind classifies update failures so callers can log and degrade without
// string matching.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not-found"
	KindDiverged    Kind = "diverged"
	KindInvalidRepo Kind = "invalid-repo"
	KindTimeout     Kind = "timeout"
	KindUnknown     Kind = "unknown"
)

// UpdateError reports a failed source refresh for one project. It is never
// fatal to the process; the orchestrator logs it and keeps the entry's route
// registered with whatever documentation was last built.
type UpdateError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// classify wraps an underlying go-git failure into an UpdateError with the
// closest matching kind.
func classify(url string, err error) *UpdateError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpdateError{Kind: KindTimeout, URL: url, Err: err}
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return &UpdateError{Kind: KindAuth, URL: url, Err: err}
	}
	if errors.Is(err, transport.ErrRepositoryNotFound) {
		return &UpdateError{Kind: KindNotFound, URL: url, Err: err}
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization"):
		return &UpdateError{Kind: KindAuth, URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "does not exist"):
		return &UpdateError{Kind: KindNotFound, URL: url, Err: err}
	case strings.Contains(l, "connection") || strings.Contains(l, "timeout") || strings.Contains(l, "no route to host") || strings.Contains(l, "no such host"):
		return &UpdateError{Kind: KindNetwork, URL: url, Err: err}
	case strings.Contains(l, "diverged") || strings.Contains(l, "non-fast-forward"):
		return &UpdateError{Kind: KindDiverged, URL: url, Err: err}
	case strings.Contains(l, "repository does not exist") || strings.Contains(l, "not a git repository"):
		return &UpdateError{Kind: KindInvalidRepo, URL: url, Err: err}
	default:
		return &UpdateError{Kind: KindUnknown, URL: url, Err: err}
	}
}
