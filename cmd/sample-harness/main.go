package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	exitCode   int
	rootCmd    = &cobra.Command{
		Use:   "sample-harness",
		Short: "Workflow SDK sample test harness",
		Long: `sample-harness drives an AI code-generation CLI to produce a sample
application for a workflow SDK, then validates, builds, and executes the
generated sample against a locally running workflow engine, reporting
per-stage pass/fail.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
