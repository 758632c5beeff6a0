package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "parapet",
	Short: "Parapet - policy enforcement for data-serving endpoints",
	Long: `Parapet gates and reshapes data-serving endpoint invocations with
declarative policies.

Input policies run before an endpoint executes and can deny the request
outright. Output policies run over the response and can filter fields,
mask values, strip schema-annotated sensitive data, or withhold the
response entirely. Every decision is recorded to an audit trail.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "parapet.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
