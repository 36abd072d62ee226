package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// Fetch updates remote-tracking refs from the named remote
func (g *repoGateway) Fetch(ctx context.Context, remote string) error {
	err := g.repo.FetchContext(ctx, &gogit.FetchOptions{RemoteName: remote})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: fetch from %s: %v", graftonerrors.ErrNetwork, remote, err)
	}
	return nil
}

// ForcePush pushes a branch with --force-with-lease. A lease rejection means
// the remote moved under us; it is surfaced as ErrNonFastForward rather than
// retried, since after a successful rebase it indicates external changes.
func (g *repoGateway) ForcePush(ctx context.Context, branch, remote string) error {
	_, err := g.run.Run(ctx, "push", "--force-with-lease", remote, branch)
	if err != nil {
		var cmdErr *graftonerrors.GitCommandError
		if errors.As(err, &cmdErr) {
			out := cmdErr.Stderr
			if strings.Contains(out, "stale info") || strings.Contains(out, "[rejected]") {
				return fmt.Errorf("%w: push of %s to %s", graftonerrors.ErrNonFastForward, branch, remote)
			}
			if strings.Contains(out, "Could not resolve host") || strings.Contains(out, "Connection") {
				return fmt.Errorf("%w: push of %s to %s: %v", graftonerrors.ErrNetwork, branch, remote, err)
			}
		}
		return fmt.Errorf("failed to push %s to %s: %w", branch, remote, err)
	}
	return nil
}
