package cli

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"

	"grafton.dev/grafton/internal/engine"
	graftonerrors "grafton.dev/grafton/internal/errors"
	"grafton.dev/grafton/internal/runtime"
	"grafton.dev/grafton/internal/store"
)

// resolveStack picks the stack to operate on. An explicit argument is parsed
// as a stack id; otherwise the stack containing the current branch is used.
func resolveStack(ctx *runtime.Context, arg string) (*store.Stack, error) {
	if arg != "" {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid stack id %q: %w", arg, err)
		}
		return ctx.Engine.StackByID(id)
	}

	current, err := ctx.Engine.CurrentBranch()
	if err != nil {
		if errors.Is(err, graftonerrors.ErrNotOnBranch) {
			return nil, fmt.Errorf("not on a branch; pass a stack id")
		}
		return nil, err
	}

	s, err := ctx.Engine.StackContaining(current)
	if err != nil {
		if errors.Is(err, graftonerrors.ErrStackNotFound) {
			return nil, fmt.Errorf("branch %s is not part of any stack", current)
		}
		return nil, err
	}
	return s, nil
}

// resolveStackForParent finds the stack a new branch belongs to. The parent
// may be a stack root, which StackContaining does not cover since roots are
// not members.
func resolveStackForParent(ctx *runtime.Context, stackID, parent string) (*store.Stack, error) {
	if stackID != "" {
		id, err := uuid.Parse(stackID)
		if err != nil {
			return nil, fmt.Errorf("invalid stack id %q: %w", stackID, err)
		}
		return ctx.Engine.StackByID(id)
	}

	var matches []*store.Stack
	for _, s := range ctx.Engine.Stacks() {
		if s.Root == parent || s.FindBranch(parent) != nil {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("branch %s is not part of any stack; pass --stack", parent)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("branch %s is the root of multiple stacks; pass --stack", parent)
	}
}

// confirm prompts before a destructive action. Force skips the prompt.
func confirm(message string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, fmt.Errorf("canceled")
	}
	return confirmed, nil
}

// printResult renders a restack outcome
func printResult(ctx *runtime.Context, result *engine.Result) {
	for _, branch := range result.Restacked {
		ctx.Splog.Info("Restacked %s", branch)
	}

	switch result.Status {
	case engine.StatusSuccess:
		if len(result.Restacked) == 0 {
			ctx.Splog.Info("Stack is already up to date")
		}
	case engine.StatusConflicts:
		for _, c := range result.Conflicts {
			ctx.Splog.Warn("Conflict on %s", c.Branch)
			for _, f := range c.Files {
				ctx.Splog.Warn("  %s", f)
			}
		}
		ctx.Splog.Tip("Resolve the conflicts, stage the files, then run 'grafton continue'")
	case engine.StatusFailed:
		ctx.Splog.Warn("Restack stopped: %s", result.Error)
	}

	for _, hf := range result.HostFailures {
		ctx.Splog.Warn("Could not retarget PR #%d for %s: %s", hf.PRNumber, hf.Branch, hf.Message)
	}
}
