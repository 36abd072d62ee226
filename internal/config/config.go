// Package config provides repository configuration management,
// including reading and writing grafton configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configFileName = ".grafton_config"

// RepoConfig represents the per-repository configuration, stored under .git
// so it stays private to the clone.
type RepoConfig struct {
	Trunk             *string `json:"trunk,omitempty"`
	Remote            *string `json:"remote,omitempty"`
	GithubEnabled     *bool   `json:"githubEnabled,omitempty"`
	GithubOwner       *string `json:"githubOwner,omitempty"`
	GithubRepo        *string `json:"githubRepo,omitempty"`
	SyncIntervalSecs  *int    `json:"syncIntervalSecs,omitempty"`
}

// GetRepoConfig reads the repository configuration. A missing file yields
// defaults.
func GetRepoConfig(repoRoot string) (*RepoConfig, error) {
	configPath := filepath.Join(repoRoot, ".git", configFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return &RepoConfig{}, nil
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}
	return &config, nil
}

// SaveRepoConfig writes the repository configuration
func SaveRepoConfig(repoRoot string, config *RepoConfig) error {
	configPath := filepath.Join(repoRoot, ".git", configFileName)

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repo config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write repo config: %w", err)
	}
	return nil
}

// GetTrunk returns the configured trunk branch name, or "main" as default
func GetTrunk(repoRoot string) (string, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", err
	}
	if config.Trunk != nil && *config.Trunk != "" {
		return *config.Trunk, nil
	}
	return "main", nil
}

// GetRemote returns the configured remote name, or "origin" as default
func GetRemote(repoRoot string) (string, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", err
	}
	if config.Remote != nil && *config.Remote != "" {
		return *config.Remote, nil
	}
	return "origin", nil
}

// IsGithubEnabled reports whether the GitHub integration is turned on.
// Defaults to false: the engine works purely locally until configured.
func IsGithubEnabled(repoRoot string) bool {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return false
	}
	return config.GithubEnabled != nil && *config.GithubEnabled
}
