package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"grafton.dev/grafton/internal/config"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func TestRepoConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		root := repoRoot(t)

		cfg, err := config.GetRepoConfig(root)
		require.NoError(t, err)
		require.Nil(t, cfg.Trunk)

		trunk, err := config.GetTrunk(root)
		require.NoError(t, err)
		require.Equal(t, "main", trunk)

		remote, err := config.GetRemote(root)
		require.NoError(t, err)
		require.Equal(t, "origin", remote)

		require.False(t, config.IsGithubEnabled(root))
	})

	t.Run("round trip", func(t *testing.T) {
		root := repoRoot(t)

		trunk := "develop"
		remote := "upstream"
		enabled := true
		owner := "acme"
		repo := "widgets"
		require.NoError(t, config.SaveRepoConfig(root, &config.RepoConfig{
			Trunk:         &trunk,
			Remote:        &remote,
			GithubEnabled: &enabled,
			GithubOwner:   &owner,
			GithubRepo:    &repo,
		}))

		got, err := config.GetTrunk(root)
		require.NoError(t, err)
		require.Equal(t, "develop", got)

		got, err = config.GetRemote(root)
		require.NoError(t, err)
		require.Equal(t, "upstream", got)

		require.True(t, config.IsGithubEnabled(root))

		cfg, err := config.GetRepoConfig(root)
		require.NoError(t, err)
		require.Equal(t, "acme", *cfg.GithubOwner)
		require.Equal(t, "widgets", *cfg.GithubRepo)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		root := repoRoot(t)
		path := filepath.Join(root, ".git", ".grafton_config")
		require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

		_, err := config.GetRepoConfig(root)
		require.Error(t, err)
	})
}
