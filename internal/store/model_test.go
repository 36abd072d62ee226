package store_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"grafton.dev/grafton/internal/store"
)

func TestTopologicalOrder(t *testing.T) {
	t.Run("parents come before children", func(t *testing.T) {
		s := store.NewStack("main")
		// Insert out of order on purpose
		s.AddBranch(store.NewStackBranch("c", "b"))
		s.AddBranch(store.NewStackBranch("a", "main"))
		s.AddBranch(store.NewStackBranch("b", "a"))

		names := branchNames(s.TopologicalOrder())
		require.Equal(t, []string{"a", "b", "c"}, names)
	})

	t.Run("sibling subtrees are all visited", func(t *testing.T) {
		s := store.NewStack("main")
		s.AddBranch(store.NewStackBranch("a", "main"))
		s.AddBranch(store.NewStackBranch("b", "main"))
		s.AddBranch(store.NewStackBranch("a1", "a"))
		s.AddBranch(store.NewStackBranch("b1", "b"))

		ordered := s.TopologicalOrder()
		require.Len(t, ordered, 4)

		pos := map[string]int{}
		for i, b := range ordered {
			pos[b.Name] = i
		}
		require.Less(t, pos["a"], pos["a1"])
		require.Less(t, pos["b"], pos["b1"])
	})

	t.Run("branches cut off from the root are still returned", func(t *testing.T) {
		s := store.NewStack("main")
		s.AddBranch(store.NewStackBranch("a", "main"))
		s.AddBranch(store.NewStackBranch("stray", "gone"))

		names := branchNames(s.TopologicalOrder())
		require.Equal(t, []string{"a", "stray"}, names)
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid stack", func(t *testing.T) {
		s := store.NewStack("main")
		s.AddBranch(store.NewStackBranch("a", "main"))
		s.AddBranch(store.NewStackBranch("b", "a"))
		require.NoError(t, s.Validate())
	})

	t.Run("root as member is rejected", func(t *testing.T) {
		s := store.NewStack("main")
		s.AddBranch(store.NewStackBranch("main", "main"))
		err := s.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "is itself a member")
	})

	t.Run("unknown parent is rejected", func(t *testing.T) {
		s := store.NewStack("main")
		s.AddBranch(store.NewStackBranch("a", "nowhere"))
		err := s.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown parent")
	})
}

func TestConflictedBranch(t *testing.T) {
	s := store.NewStack("main")
	s.AddBranch(store.NewStackBranch("a", "main"))
	s.AddBranch(store.NewStackBranch("b", "a"))
	require.Nil(t, s.ConflictedBranch())

	s.FindBranch("b").Status = store.StatusConflicted
	require.Equal(t, "b", s.ConflictedBranch().Name)
}

func TestMetadataFind(t *testing.T) {
	m := store.NewMetadata()
	s := store.NewStack("main")
	s.AddBranch(store.NewStackBranch("feature", "main"))
	m.AddStack(s)

	require.Equal(t, s, m.FindStack(s.ID))
	require.Nil(t, m.FindStack(uuid.New()))

	require.Equal(t, s, m.FindStackContaining("feature"))
	// The root is not a member, so it does not resolve a stack
	require.Nil(t, m.FindStackContaining("main"))

	require.True(t, m.RemoveStack(s.ID))
	require.False(t, m.RemoveStack(s.ID))
	require.Empty(t, m.Stacks)
}

func branchNames(branches []*store.StackBranch) []string {
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names
}
