// Package github provides the pull-request host adapter consumed by the
// restack engine. The engine calls it, never the reverse, and treats every
// call as fallible and rate-limited.
package github

import (
	"context"
)

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// Client is the interface the engine requires from the pull-request host.
// UpdateBase fails distinctly on a stale head mismatch (ErrStaleHead) versus
// a network failure (ErrNetwork), so callers can tell whether the local
// rebase succeeded but the remote update did not.
type Client interface {
	// IsMerged reports whether the pull request has been merged
	IsMerged(ctx context.Context, prNumber int) (bool, error)

	// UpdateBase retargets the pull request's base branch. expectedHead is
	// the commit the caller believes the PR head points at; a mismatch on
	// the host fails with ErrStaleHead instead of silently retargeting.
	UpdateBase(ctx context.Context, prNumber int, newBase, expectedHead string) error

	// Create files a new pull request and returns its number
	Create(ctx context.Context, opts CreatePROptions) (int, error)

	// GetOwnerRepo returns the repository owner and name
	GetOwnerRepo() (owner, repo string)
}
