package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"parapet-hq/parapet/pkg/audit"
	"parapet-hq/parapet/pkg/audit/storage"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the decision audit trail",
}

var auditQueryFlags struct {
	db       string
	endpoint string
	phase    string
	decision string
	user     string
	since    time.Duration
	limit    int
	format   string
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query recorded policy decisions",
	Long: `Query the decision audit trail.

Examples:
  # Last hour of denials for one endpoint
  parapet audit query --endpoint employee_lookup --decision deny --since 1h

  # Everything a user was denied, as JSON
  parapet audit query --user u123 --decision deny --format json`,
	RunE: runAuditQuery,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)

	auditQueryCmd.Flags().StringVar(&auditQueryFlags.db, "db", "", "audit database path (default from config)")
	auditQueryCmd.Flags().StringVar(&auditQueryFlags.endpoint, "endpoint", "", "filter by endpoint")
	auditQueryCmd.Flags().StringVar(&auditQueryFlags.phase, "phase", "", "filter by phase: input, output")
	auditQueryCmd.Flags().StringVar(&auditQueryFlags.decision, "decision", "", "filter by decision: allow, deny")
	auditQueryCmd.Flags().StringVar(&auditQueryFlags.user, "user", "", "filter by user ID")
	auditQueryCmd.Flags().DurationVar(&auditQueryFlags.since, "since", 0, "only records newer than this age")
	auditQueryCmd.Flags().IntVar(&auditQueryFlags.limit, "limit", 100, "maximum records to return")
	auditQueryCmd.Flags().StringVar(&auditQueryFlags.format, "format", "text", "output format: text, json")
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	dbPath := auditQueryFlags.db
	if dbPath == "" {
		dbPath = auditDBFromConfig()
	}

	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: dbPath})
	if err != nil {
		return fmt.Errorf("open audit database: %w", err)
	}
	defer store.Close()

	query := &audit.Query{
		Endpoint: auditQueryFlags.endpoint,
		Phase:    auditQueryFlags.phase,
		Decision: auditQueryFlags.decision,
		UserID:   auditQueryFlags.user,
		Limit:    auditQueryFlags.limit,
	}
	if auditQueryFlags.since > 0 {
		start := time.Now().Add(-auditQueryFlags.since)
		query.Start = &start
	}

	records, err := store.Query(context.Background(), query)
	if err != nil {
		return fmt.Errorf("query audit trail: %w", err)
	}

	if auditQueryFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("no matching records")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-7s %-6s %s user=%s",
			r.Time.Format(time.RFC3339), r.Phase, r.Decision, r.Endpoint, r.UserRole)
		if r.Reason != "" {
			line += fmt.Sprintf(" reason=%q", r.Reason)
		}
		if r.Error != "" {
			line += fmt.Sprintf(" error=%q", r.Error)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d record(s)\n", len(records))
	return nil
}
