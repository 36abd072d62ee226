// Package cli wires the grafton commands together with cobra.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grafton",
		Short: "Grafton keeps stacked branches rebased on top of each other",
		Long: `Grafton keeps stacked branches rebased on top of each other.

A stack is a chain of branches rooted at trunk where each branch builds on
its parent. Grafton restacks the chain parent-first, pauses on conflicts so
you can resolve them in the working tree, and keeps pull-request base
branches in step with the stack.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("grafton %s (commit %s, built %s)\n", version, commit, date))

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newStackCmd())
	rootCmd.AddCommand(newBranchCmd())
	rootCmd.AddCommand(newRestackCmd())
	rootCmd.AddCommand(newContinueCmd())
	rootCmd.AddCommand(newAbortCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newPrCmd())
	rootCmd.AddCommand(newSyncCmd())

	return rootCmd
}
