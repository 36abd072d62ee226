package main

import (
	"fmt"
	"os"

	"grafton.dev/grafton/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "grafton: %v\n", err)
		os.Exit(1)
	}
}
