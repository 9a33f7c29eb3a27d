package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/webstrike/webstrike/internal/config"
	"github.com/webstrike/webstrike/internal/database"
	"github.com/webstrike/webstrike/internal/model"
)

// Risk direction values used in comparison output.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares run results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <target-url>",
		Short: "Compare run results with historical data",
		Long: `Compare displays differences between the current and previous run results.

This command retrieves historical run data from the database and shows:
- New findings that appeared since the last run
- Resolved findings that are no longer present
- Changes in risk severity levels

The comparison requires at least two runs in the database for the specified
target. Use 'webstrike run' to perform runs and save results.

Examples:
  # Compare latest two runs for a target
  webstrike compare http://target.test:3000

  # Compare with a specific historical run by ID
  webstrike compare --with-run-id 5 http://target.test:3000

  # Compare with the oldest run since a specific date
  webstrike compare --since "2026-01-01" http://target.test:3000

  # Output comparison in JSON format
  webstrike compare --json http://target.test:3000`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use 'webstrike history' to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	target, err := model.ParseTarget(args[0])
	if err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return runComparison(context.Background(), db, target.URL(), withRunID, sinceDate, jsonOutput, cmd.OutOrStdout())
}

// runComparison performs the actual comparison between run reports.
func runComparison(ctx context.Context, db *database.HistoryDB, target string, withRunID int64, sinceDate string, jsonOutput bool, out io.Writer) error {
	reports, err := db.GetRecentRuns(ctx, target, 0)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no run history found for %s", target)
	}

	if len(reports) < 2 && withRunID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(reports))
	}

	// Latest report is always the current one
	current := reports[0]

	var previous *model.Report
	switch {
	case withRunID > 0:
		previous, err = db.GetRunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		if previous.Target.URL() != target {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previous.Target.URL(), target)
		}
	case sinceDate != "":
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted newest first, so iterate in reverse to find
		// the oldest run at or after the date.
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if !r.StartedAt.Before(parsedDate) {
				previous = r
				break
			}
		}
		if previous == nil {
			return fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previous == current {
			return errors.New("only one run found since " + sinceDate + "; at least 2 runs are required for comparison")
		}
	default:
		previous = reports[1]
	}

	comparison := compareReports(previous, current)

	if jsonOutput {
		return outputComparisonJSON(comparison, out)
	}
	return outputComparisonText(comparison, out)
}

// ComparisonResult holds the result of comparing two run reports.
type ComparisonResult struct {
	// Target is the tested target URL.
	Target string `json:"target"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunSummary `json:"current_run"`

	// NewFindings contains findings that are new in the current run.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous run but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// StartedAt is when the run was performed.
	StartedAt time.Time `json:"started_at"`

	// TotalFindings is the total number of findings in this run.
	TotalFindings int `json:"total_findings"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// RiskChange describes the change in risk level between runs.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`
}

// compareReports compares two run reports and generates a comparison result.
func compareReports(previous, current *model.Report) *ComparisonResult {
	result := &ComparisonResult{
		Target:      current.Target.URL(),
		PreviousRun: summarizeRun(previous),
		CurrentRun:  summarizeRun(current),
	}

	previousFindings := make(map[string]model.Finding)
	currentFindings := make(map[string]model.Finding)

	for _, f := range previous.Findings {
		previousFindings[findingKey(f)] = f
	}
	for _, f := range current.Findings {
		currentFindings[findingKey(f)] = f
	}

	// New findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	result.RiskChange = calculateRiskChange(result.PreviousRun, result.CurrentRun)

	return result
}

// summarizeRun extracts comparison metadata from a report.
func summarizeRun(r *model.Report) RunSummary {
	return RunSummary{
		RunID:         r.RunID,
		StartedAt:     r.StartedAt,
		TotalFindings: r.TotalFindings(),
		CriticalCount: r.CriticalCount,
		HighCount:     r.HighCount,
		MediumCount:   r.MediumCount,
		LowCount:      r.LowCount,
		InfoCount:     r.InfoCount,
	}
}

// findingKey generates a unique key for a finding for comparison purposes.
// It matches the deduplication key used when findings are aggregated.
func findingKey(f model.Finding) string {
	return f.Tool + "|" + f.Category + "|" + f.Title + "|" + f.Location + "|" + f.Evidence
}

// calculateRiskChange calculates the change in risk between two runs.
func calculateRiskChange(previous, current RunSummary) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		HighDelta:     current.HighCount - previous.HighCount,
		MediumDelta:   current.MediumCount - previous.MediumCount,
		LowDelta:      current.LowCount - previous.LowCount,
		InfoDelta:     current.InfoCount - previous.InfoCount,
	}

	// Overall direction uses a weighted score so a new critical finding
	// outweighs several resolved low ones.
	previousScore := previous.CriticalCount*100 + previous.HighCount*50 + previous.MediumCount*10 + previous.LowCount*5 + previous.InfoCount
	currentScore := current.CriticalCount*100 + current.HighCount*50 + current.MediumCount*10 + current.LowCount*5 + current.InfoCount

	switch {
	case currentScore < previousScore:
		change.Direction = riskDirectionImproved
	case currentScore > previousScore:
		change.Direction = riskDirectionWorsened
	default:
		change.Direction = riskDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult, out io.Writer) error {
	fmt.Fprintf(out, "Run Comparison: %s\n", result.Target)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))

	fmt.Fprintf(out, "\nPrevious run: %s (%s)\n",
		result.PreviousRun.RunID, result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current run:  %s (%s)\n",
		result.CurrentRun.RunID, result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "\nFindings Summary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousRun.CriticalCount, result.CurrentRun.CriticalCount,
		formatDelta(result.RiskChange.CriticalDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "High",
		result.PreviousRun.HighCount, result.CurrentRun.HighCount,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Medium",
		result.PreviousRun.MediumCount, result.CurrentRun.MediumCount,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Low",
		result.PreviousRun.LowCount, result.CurrentRun.LowCount,
		formatDelta(result.RiskChange.LowDelta))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousRun.InfoCount, result.CurrentRun.InfoCount,
		formatDelta(result.RiskChange.InfoDelta))
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousRun.TotalFindings, result.CurrentRun.TotalFindings,
		formatDelta(result.CurrentRun.TotalFindings-result.PreviousRun.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(out, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(out, "  [+] [%s] %s (%s)\n", f.SeverityText, f.Title, f.Tool)
			if f.Location != "" {
				fmt.Fprintf(out, "      Location: %s\n", f.Location)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(out, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(out, "  [-] [%s] %s (%s)\n", f.SeverityText, f.Title, f.Tool)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
