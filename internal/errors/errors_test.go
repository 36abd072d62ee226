package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

func TestBranchNotFoundError(t *testing.T) {
	err := graftonerrors.NewBranchNotFoundError("feature")
	require.ErrorIs(t, err, graftonerrors.ErrBranchNotFound)
	require.Contains(t, err.Error(), "feature")

	var typed *graftonerrors.BranchNotFoundError
	require.ErrorAs(t, err, &typed)
	require.Equal(t, "feature", typed.BranchName)
}

func TestDirtyWorkingTreeError(t *testing.T) {
	err := &graftonerrors.DirtyWorkingTreeError{Operation: "restack"}
	require.ErrorIs(t, err, graftonerrors.ErrDirtyWorkingTree)
	require.Contains(t, err.Error(), "restack")
	require.Contains(t, err.Error(), "commit or stash")
}

func TestStaleHeadError(t *testing.T) {
	err := &graftonerrors.StaleHeadError{PRNumber: 12, ExpectedHead: "abc"}
	require.ErrorIs(t, err, graftonerrors.ErrStaleHead)
	require.Contains(t, err.Error(), "#12")
}

func TestMetadataError(t *testing.T) {
	t.Run("version mismatch", func(t *testing.T) {
		err := &graftonerrors.MetadataError{Path: "/x/stack-metadata.json", Version: 9}
		require.ErrorIs(t, err, graftonerrors.ErrMetadataVersion)
		require.Contains(t, err.Error(), "version 9")
	})

	t.Run("wrapped read error", func(t *testing.T) {
		cause := stderrors.New("permission denied")
		err := &graftonerrors.MetadataError{Path: "/x/stack-metadata.json", Err: cause}
		require.ErrorIs(t, err, cause)
		require.NotErrorIs(t, err, graftonerrors.ErrMetadataVersion)
	})
}

func TestGitCommandError(t *testing.T) {
	cause := stderrors.New("exit status 1")
	err := graftonerrors.NewGitCommandError("git", []string{"rebase", "main"}, "", "conflict", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "rebase")
	require.Contains(t, err.Error(), "conflict")
}
