package engine

import (
	"context"
	"time"
)

// HostSyncResult summarizes one pass of host-state synchronization
type HostSyncResult struct {
	Checked int      // branches with an associated PR that were queried
	Merged  []string // branches whose PR is merged on the host
}

// SyncHostState refreshes the merged state of every branch with an associated
// pull request. It takes the engine lock for the whole pass so it never races
// an in-flight restack's host calls for the same pull request. The merged set
// is informational: retargeting happens during the next restack, which
// re-verifies merge state itself.
func (e *Engine) SyncHostState(ctx context.Context) (*HostSyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &HostSyncResult{}
	if e.host == nil {
		return result, nil
	}

	for _, s := range e.meta.Stacks {
		for _, b := range s.Branches {
			if b.PRNumber == nil {
				continue
			}
			merged, err := e.host.IsMerged(ctx, *b.PRNumber)
			if err != nil {
				return result, err
			}
			result.Checked++
			if merged {
				result.Merged = append(result.Merged, b.Name)
			}
		}
	}

	e.meta.Touch(time.Now())
	if err := e.store.Save(e.meta); err != nil {
		return result, err
	}
	return result, nil
}
