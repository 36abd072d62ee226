package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	gogithub "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// RealClient implements Client against the GitHub API
type RealClient struct {
	client *gogithub.Client
	owner  string
	repo   string
	rate   *rateTracker
}

// NewRealClient creates a Client for owner/repo authenticated with token
func NewRealClient(ctx context.Context, owner, repo, token string) *RealClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)

	return &RealClient{
		client: gogithub.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
		rate:   &rateTracker{},
	}
}

// GetOwnerRepo returns the repository owner and name
func (c *RealClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// IsMerged reports whether the pull request has been merged
func (c *RealClient) IsMerged(ctx context.Context, prNumber int) (bool, error) {
	var merged bool
	err := c.rate.withBackoff(ctx, func() (*gogithub.Response, error) {
		pr, resp, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, prNumber)
		if err == nil && pr.Merged != nil {
			merged = *pr.Merged
		}
		return resp, err
	})
	if err != nil {
		return false, c.hostError("query PR", prNumber, err)
	}
	return merged, nil
}

// UpdateBase retargets the pull request's base branch after verifying the
// head commit on the host still matches expectedHead.
func (c *RealClient) UpdateBase(ctx context.Context, prNumber int, newBase, expectedHead string) error {
	if expectedHead != "" {
		var headSHA string
		err := c.rate.withBackoff(ctx, func() (*gogithub.Response, error) {
			pr, resp, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, prNumber)
			if err == nil && pr.Head != nil && pr.Head.SHA != nil {
				headSHA = *pr.Head.SHA
			}
			return resp, err
		})
		if err != nil {
			return c.hostError("query PR", prNumber, err)
		}
		if headSHA != expectedHead {
			return &graftonerrors.StaleHeadError{PRNumber: prNumber, ExpectedHead: expectedHead}
		}
	}

	err := c.rate.withBackoff(ctx, func() (*gogithub.Response, error) {
		update := &gogithub.PullRequest{
			Base: &gogithub.PullRequestBranch{Ref: gogithub.String(newBase)},
		}
		_, resp, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, prNumber, update)
		return resp, err
	})
	if err != nil {
		return c.hostError("update base of PR", prNumber, err)
	}
	return nil
}

// Create files a new pull request and returns its number
func (c *RealClient) Create(ctx context.Context, opts CreatePROptions) (int, error) {
	var number int
	err := c.rate.withBackoff(ctx, func() (*gogithub.Response, error) {
		pr := &gogithub.NewPullRequest{
			Title: gogithub.String(opts.Title),
			Head:  gogithub.String(opts.Head),
			Base:  gogithub.String(opts.Base),
			Draft: gogithub.Bool(opts.Draft),
		}
		if opts.Body != "" {
			pr.Body = gogithub.String(opts.Body)
		}
		created, resp, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, pr)
		if err == nil && created.Number != nil {
			number = *created.Number
		}
		return resp, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create pull request for %s: %w", opts.Head, err)
	}
	return number, nil
}

// hostError wraps network-level failures so they are distinguishable from
// repository errors at the engine boundary.
func (c *RealClient) hostError(op string, prNumber int, err error) error {
	if errors.Is(err, graftonerrors.ErrRateLimited) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s #%d: %v", graftonerrors.ErrNetwork, op, prNumber, err)
	}
	return fmt.Errorf("failed to %s #%d: %w", op, prNumber, err)
}
