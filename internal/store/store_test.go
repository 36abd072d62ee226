package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	graftonerrors "grafton.dev/grafton/internal/errors"
	"grafton.dev/grafton/internal/store"
)

func newStoreDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func TestStoreLoad(t *testing.T) {
	t.Run("missing file yields empty document", func(t *testing.T) {
		st := store.Open(newStoreDir(t))

		meta, err := st.Load()
		require.NoError(t, err)
		require.Equal(t, store.MetadataVersion, meta.Version)
		require.Empty(t, meta.Stacks)
	})

	t.Run("corrupt file is a metadata error", func(t *testing.T) {
		dir := newStoreDir(t)
		st := store.Open(dir)
		require.NoError(t, os.WriteFile(st.Path(), []byte("{not json"), 0o644))

		_, err := st.Load()
		var metaErr *graftonerrors.MetadataError
		require.ErrorAs(t, err, &metaErr)
		require.Equal(t, st.Path(), metaErr.Path)
	})

	t.Run("unknown version is rejected", func(t *testing.T) {
		dir := newStoreDir(t)
		st := store.Open(dir)
		require.NoError(t, os.WriteFile(st.Path(), []byte(`{"version": 99, "stacks": []}`), 0o644))

		_, err := st.Load()
		var metaErr *graftonerrors.MetadataError
		require.ErrorAs(t, err, &metaErr)
		require.Equal(t, 99, metaErr.Version)
	})
}

func TestStoreSaveRoundTrip(t *testing.T) {
	st := store.Open(newStoreDir(t))

	meta := store.NewMetadata()
	s := store.NewStack("main")
	pr := 42
	b := store.NewStackBranch("feature", "main")
	b.PRNumber = &pr
	b.Status = store.StatusUpToDate
	b.SetHead("abc123")
	s.AddBranch(b)
	meta.AddStack(s)

	require.NoError(t, st.Save(meta))

	loaded, err := st.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Stacks, 1)

	got := loaded.Stacks[0]
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, "main", got.Root)

	gotBranch := got.FindBranch("feature")
	require.NotNil(t, gotBranch)
	require.Equal(t, "main", gotBranch.Parent)
	require.Equal(t, store.StatusUpToDate, gotBranch.Status)
	require.Equal(t, 42, *gotBranch.PRNumber)
	require.Equal(t, "abc123", *gotBranch.HeadSHA)
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := newStoreDir(t)
	st := store.Open(dir)

	require.NoError(t, st.Save(store.NewMetadata()))

	_, err := os.Stat(st.Path() + ".tmp")
	require.True(t, os.IsNotExist(err))
}
