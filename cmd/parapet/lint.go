package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"parapet-hq/parapet/pkg/policy/source"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy files",
	Long: `Validate policy files without installing them.

Lint decodes each YAML definition, compiles every condition, and checks
the structural rules (deny-only input phase, field lists, sensitivity
annotations). It reports the first failure with its file, endpoint, and
rule position.

Examples:
  # Lint a single file
  parapet lint --file policies/employees.yaml

  # Lint a directory tree
  parapet lint --dir policies/

  # JSON output for CI
  parapet lint --dir policies/ --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "policy file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of policy files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

type lintReport struct {
	Path      string   `json:"path"`
	Valid     bool     `json:"valid"`
	Endpoints []string `json:"endpoints,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	path := lintFlags.file
	if path == "" {
		path = lintFlags.dir
	}
	if path == "" {
		path = policyPathFromConfig()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sets, err := source.NewFileSource(path, logger).Load(context.Background())

	report := lintReport{Path: path, Valid: err == nil}
	if err != nil {
		report.Error = err.Error()
	}
	for _, set := range sets {
		report.Endpoints = append(report.Endpoints, set.Endpoint)
	}

	if lintFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if report.Valid {
		fmt.Printf("OK: %d endpoint(s) valid\n", len(report.Endpoints))
		for _, e := range report.Endpoints {
			fmt.Printf("  %s\n", e)
		}
	} else {
		fmt.Fprintf(os.Stderr, "FAIL: %s\n", report.Error)
	}

	if !report.Valid {
		return fmt.Errorf("policy validation failed")
	}
	return nil
}
