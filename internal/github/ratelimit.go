package github

import (
	"context"
	"sync"
	"time"

	gogithub "github.com/google/go-github/v62/github"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

const (
	// backoffFloor is the minimum delay before retrying a rate-limited call
	backoffFloor = 1 * time.Second
	// backoffCeiling caps the delay; past it the call fails with
	// ErrRateLimited instead of blocking indefinitely
	backoffCeiling = 32 * time.Second
)

// rateTracker records the remaining request budget from response metadata.
// The adapter retries rate-limited calls itself with exponential backoff
// between the floor and the ceiling; no other retries happen here.
type rateTracker struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetsAt  time.Time
	known     bool
}

// observe updates the tracker from a response's rate headers
func (t *rateTracker) observe(resp *gogithub.Response) {
	if resp == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = resp.Rate.Remaining
	t.limit = resp.Rate.Limit
	t.resetsAt = resp.Rate.Reset.Time
	t.known = true
}

// exhausted reports whether the known budget is spent and not yet reset
func (t *rateTracker) exhausted(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.known && t.remaining == 0 && now.Before(t.resetsAt)
}

// withBackoff runs call, retrying on rate-limit errors with exponential
// backoff. Each retry doubles the delay from the floor; once the next delay
// would pass the ceiling the rate-limit error is surfaced to the caller.
func (t *rateTracker) withBackoff(ctx context.Context, call func() (*gogithub.Response, error)) error {
	delay := backoffFloor
	for {
		if t.exhausted(time.Now()) {
			return graftonerrors.ErrRateLimited
		}

		resp, err := call()
		t.observe(resp)
		if err == nil {
			return nil
		}
		if !isRateLimitError(err) {
			return err
		}
		if delay > backoffCeiling {
			return graftonerrors.ErrRateLimited
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
}

func isRateLimitError(err error) bool {
	switch err.(type) {
	case *gogithub.RateLimitError, *gogithub.AbuseRateLimitError:
		return true
	}
	return false
}
