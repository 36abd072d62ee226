// Package runtime wires the engine, store and output together for command
// execution.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"grafton.dev/grafton/internal/config"
	"grafton.dev/grafton/internal/engine"
	"grafton.dev/grafton/internal/git"
	"grafton.dev/grafton/internal/github"
	"grafton.dev/grafton/internal/output"
	"grafton.dev/grafton/internal/store"
)

// Context provides access to the engine and output for commands
type Context struct {
	Engine *engine.Engine
	Splog  *output.Splog
	Log    *slog.Logger
	Root   string
}

// NewContext opens the repository containing the working directory and
// assembles the engine with its gateway, store and (when configured) host
// adapter.
func NewContext(ctx context.Context) (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	gateway, err := git.Open(wd)
	if err != nil {
		return nil, err
	}
	root := gateway.Root()

	log := output.NewLogger(root, os.Getenv("GRAFTON_DEBUG") != "")

	opts := []engine.Option{engine.WithLogger(log)}

	remote, err := config.GetRemote(root)
	if err != nil {
		return nil, err
	}
	opts = append(opts, engine.WithRemote(remote))

	if config.IsGithubEnabled(root) {
		cfg, err := config.GetRepoConfig(root)
		if err != nil {
			return nil, err
		}
		token := os.Getenv("GRAFTON_GITHUB_TOKEN")
		if token != "" && cfg.GithubOwner != nil && cfg.GithubRepo != nil {
			client := github.NewRealClient(ctx, *cfg.GithubOwner, *cfg.GithubRepo, token)
			opts = append(opts, engine.WithHost(client))
		}
	}

	eng, err := engine.New(gateway, store.Open(root), opts...)
	if err != nil {
		return nil, err
	}

	return &Context{
		Engine: eng,
		Splog:  output.NewSplog(),
		Log:    log,
		Root:   root,
	}, nil
}
