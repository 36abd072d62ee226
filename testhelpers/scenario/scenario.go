// Package scenario provides a high-level test scenario that combines a Scene,
// a Gateway and an Engine to provide a terse API for stack tests.
package scenario

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"grafton.dev/grafton/internal/engine"
	"grafton.dev/grafton/internal/git"
	"grafton.dev/grafton/internal/github"
	"grafton.dev/grafton/internal/store"
	"grafton.dev/grafton/testhelpers"
)

// Scenario wires a scratch repository to a live engine
type Scenario struct {
	T       *testing.T
	Scene   *testhelpers.Scene
	Gateway git.Gateway
	Engine  *engine.Engine
	Host    *github.MockClient
	StackID uuid.UUID
}

// NewScenario creates a scene with an initial commit on main and an engine
// with a mock host attached.
func NewScenario(t *testing.T, opts ...engine.Option) *Scenario {
	t.Helper()

	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

	gateway, err := git.Open(scene.Dir)
	require.NoError(t, err)

	host := github.NewMockClient()
	opts = append([]engine.Option{engine.WithHost(host)}, opts...)

	eng, err := engine.New(gateway, store.Open(gateway.Root()), opts...)
	require.NoError(t, err)

	return &Scenario{
		T:       t,
		Scene:   scene,
		Gateway: gateway,
		Engine:  eng,
		Host:    host,
	}
}

// NewScenarioWithoutHost creates a scenario whose engine has no pull-request
// host attached.
func NewScenarioWithoutHost(t *testing.T, opts ...engine.Option) *Scenario {
	t.Helper()

	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

	gateway, err := git.Open(scene.Dir)
	require.NoError(t, err)

	eng, err := engine.New(gateway, store.Open(gateway.Root()), opts...)
	require.NoError(t, err)

	return &Scenario{
		T:       t,
		Scene:   scene,
		Gateway: gateway,
		Engine:  eng,
	}
}

// Reload builds a fresh engine over the same repository, as a new process
// would see it.
func (s *Scenario) Reload() *engine.Engine {
	s.T.Helper()
	eng, err := engine.New(s.Gateway, store.Open(s.Gateway.Root()), engine.WithHost(s.Host))
	require.NoError(s.T, err)
	return eng
}

// WithStack creates a stack rooted at main and remembers its id.
func (s *Scenario) WithStack() *Scenario {
	s.T.Helper()
	stack, err := s.Engine.CreateStack("main")
	require.NoError(s.T, err)
	s.StackID = stack.ID
	return s
}

// Stack returns the scenario's stack
func (s *Scenario) Stack() *store.Stack {
	s.T.Helper()
	stack, err := s.Engine.StackByID(s.StackID)
	require.NoError(s.T, err)
	return stack
}

// Branch returns a tracked branch by name
func (s *Scenario) Branch(name string) *store.StackBranch {
	s.T.Helper()
	b := s.Stack().FindBranch(name)
	require.NotNil(s.T, b, "branch %s not tracked", name)
	return b
}

// CreateBranch creates and checks out a new branch.
func (s *Scenario) CreateBranch(name string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Scene.Repo.CreateAndCheckoutBranch(name))
	return s
}

// Checkout checks out an existing branch.
func (s *Scenario) Checkout(branch string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Scene.Repo.CheckoutBranch(branch))
	return s
}

// Commit creates an empty commit with the given message.
func (s *Scenario) Commit(message string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Scene.Repo.RunGitCommand("commit", "--allow-empty", "-m", message))
	return s
}

// CommitChange creates a file change and commits it.
func (s *Scenario) CommitChange(name, message string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Scene.Repo.CreateChangeAndCommit(message, name))
	return s
}

// Track adds an existing branch to the stack under the given parent.
func (s *Scenario) Track(branch, parent string) *Scenario {
	s.T.Helper()
	st := s.Stack()
	b := store.NewStackBranch(branch, parent)
	if head, err := s.Gateway.CurrentHead(branch); err == nil {
		b.SetHead(head)
	}
	if parentHead, err := s.Gateway.CurrentHead(parent); err == nil {
		b.SetParentSHA(parentHead)
	}
	st.AddBranch(b)
	return s
}

// Head resolves a ref to its commit sha.
func (s *Scenario) Head(ref string) string {
	s.T.Helper()
	sha, err := s.Scene.Repo.GetRef(ref)
	require.NoError(s.T, err)
	return sha
}
