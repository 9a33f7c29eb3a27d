package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/webstrike/webstrike/internal/config"
	"github.com/webstrike/webstrike/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target-url]",
		Short: "List stored runs from the history database",
		Long: `History lists runs recorded in the local history database.

Without arguments it lists runs for every target. With a target URL it
lists only that target's runs, newest first.

Examples:
  # List all recorded runs
  webstrike history

  # List runs for one target
  webstrike history http://target.test:3000

  # List all targets that have recorded runs
  webstrike history --targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("targets", "T", false,
		"List targets that have recorded runs instead of individual runs")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listTargets, err := cmd.Flags().GetBool("targets")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listTargets {
		return listHistoryTargets(ctx, db, out)
	}

	target := ""
	if len(args) > 0 {
		target = args[0]
	}

	return listRunHistory(ctx, db, target, out)
}

// listHistoryTargets lists every target that has at least one stored run.
func listHistoryTargets(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No recorded runs found in the history database.")
		fmt.Fprintln(out, "\nUse 'webstrike run <target-url>' to run a test.")
		return nil
	}

	fmt.Fprintf(out, "Recorded targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  - %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'webstrike history <target-url>' to see a target's runs.")

	return nil
}

// listRunHistory lists run metadata, newest first. An empty target means
// runs for all targets.
func listRunHistory(ctx context.Context, db *database.HistoryDB, target string, out io.Writer) error {
	runs, err := db.GetRunHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		if target != "" {
			fmt.Fprintf(out, "No run history found for %s\n", target)
		} else {
			fmt.Fprintln(out, "No recorded runs found in the history database.")
		}
		fmt.Fprintln(out, "\nUse 'webstrike run <target-url>' to run a test.")
		return nil
	}

	if target != "" {
		fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", target, len(runs))
	} else {
		fmt.Fprintf(out, "Run history (%d runs):\n\n", len(runs))
	}

	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-12s  %s\n", "ID", "Date", "Findings", "Risk Summary", "Target")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-12s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.TotalFindings,
			formatRiskSummary(meta.RiskSummary),
			meta.Target,
		)
	}

	fmt.Fprintln(out, "\nUse 'webstrike compare <target-url>' to compare the latest two runs.")

	return nil
}

// formatRiskSummary formats the risk summary map into a compact string.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, " ")
}
