package github

import (
	"context"
	"fmt"
	"sync"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// MockClient is an in-memory Client for tests and offline use
type MockClient struct {
	mu sync.Mutex

	merged     map[int]bool
	bases      map[int]string
	heads      map[int]string
	nextNumber int

	// FailWith, when set, is returned from every call
	FailWith error

	// FailUpdatesWith, when set, is returned from UpdateBase only
	FailUpdatesWith error

	// BaseUpdates records UpdateBase calls as "number:base" strings
	BaseUpdates []string
}

// NewMockClient creates an empty MockClient
func NewMockClient() *MockClient {
	return &MockClient{
		merged:     map[int]bool{},
		bases:      map[int]string{},
		heads:      map[int]string{},
		nextNumber: 1,
	}
}

// SetMerged marks a PR as merged or not
func (m *MockClient) SetMerged(prNumber int, merged bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merged[prNumber] = merged
}

// SetHead sets the head SHA the host reports for a PR
func (m *MockClient) SetHead(prNumber int, sha string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heads[prNumber] = sha
}

// GetOwnerRepo returns a fixed owner and repo
func (m *MockClient) GetOwnerRepo() (string, string) {
	return "testowner", "testrepo"
}

// IsMerged reports the configured merged state
func (m *MockClient) IsMerged(_ context.Context, prNumber int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}
	return m.merged[prNumber], nil
}

// UpdateBase records the retarget, honoring the expected-head check
func (m *MockClient) UpdateBase(_ context.Context, prNumber int, newBase, expectedHead string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if m.FailUpdatesWith != nil {
		return m.FailUpdatesWith
	}
	if expectedHead != "" {
		if head, ok := m.heads[prNumber]; ok && head != expectedHead {
			return &graftonerrors.StaleHeadError{PRNumber: prNumber, ExpectedHead: expectedHead}
		}
	}
	m.bases[prNumber] = newBase
	m.BaseUpdates = append(m.BaseUpdates, fmt.Sprintf("%d:%s", prNumber, newBase))
	return nil
}

// Create assigns the next PR number
func (m *MockClient) Create(_ context.Context, opts CreatePROptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	number := m.nextNumber
	m.nextNumber++
	m.bases[number] = opts.Base
	return number, nil
}

// Base returns the recorded base branch for a PR
func (m *MockClient) Base(prNumber int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bases[prNumber]
}
