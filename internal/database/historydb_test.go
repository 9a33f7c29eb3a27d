package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if err := hdb.Close(); err != nil {
			t.Errorf("Close() unexpected error: %v", err)
		}
	})
	return hdb
}

func storedReport(t *testing.T, rawTarget string, started time.Time) *model.Report {
	t.Helper()

	target, err := model.ParseTarget(rawTarget)
	if err != nil {
		t.Fatal(err)
	}

	report := model.NewReport(target, started)
	report.FinishedAt = started.Add(3 * time.Minute)
	report.Tools = []string{"nmap", "sqlmap"}

	report.AddToolRun(&model.ToolRun{
		Tool:   "sqlmap",
		Phase:  model.PhaseExploitation,
		Status: model.StatusCompleted,
	})

	f := model.NewFinding("sqlmap", "sql-injection", "SQL injection", "injectable parameter")
	report.AddFinding(f)

	return report
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() unexpected error: %v", err)
		}
		defer hdb.Close()

		if hdb.dbPath != filepath.Join(dir, "webstrike.db") {
			t.Errorf("dbPath = %q, want %q", hdb.dbPath, filepath.Join(dir, "webstrike.db"))
		}
	})

	t.Run("missing database without create option", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("Open() error = nil, want not-found error")
		}
	})
}

func TestSaveAndQueryRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hdb := openTestDB(t)

	first := storedReport(t, "http://juice.test:3000", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	second := storedReport(t, "http://juice.test:3000", time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	other := storedReport(t, "http://other.test:8080", time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC))

	for _, r := range []*model.Report{first, second, other} {
		if err := hdb.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun() unexpected error: %v", err)
		}
	}

	t.Run("latest run round-trips", func(t *testing.T) {
		got, err := hdb.GetLatestRun(ctx, "http://juice.test:3000")
		if err != nil {
			t.Fatalf("GetLatestRun() unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("GetLatestRun() = nil, want report")
		}
		if got.RunID != second.RunID {
			t.Errorf("RunID = %q, want %q (latest)", got.RunID, second.RunID)
		}
		if got.TotalFindings() != 1 {
			t.Errorf("TotalFindings() = %d, want 1", got.TotalFindings())
		}
		if got.Target.Host != "juice.test" {
			t.Errorf("Target.Host = %q, want juice.test", got.Target.Host)
		}
	})

	t.Run("unknown target returns nil", func(t *testing.T) {
		got, err := hdb.GetLatestRun(ctx, "http://nobody.test")
		if err != nil {
			t.Fatalf("GetLatestRun() unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("GetLatestRun() = %+v, want nil", got)
		}
	})

	t.Run("list targets", func(t *testing.T) {
		targets, err := hdb.ListTargets(ctx)
		if err != nil {
			t.Fatalf("ListTargets() unexpected error: %v", err)
		}
		want := []string{"http://juice.test:3000", "http://other.test:8080"}
		if len(targets) != len(want) {
			t.Fatalf("ListTargets() = %v, want %v", targets, want)
		}
		for i := range want {
			if targets[i] != want[i] {
				t.Errorf("targets[%d] = %q, want %q", i, targets[i], want[i])
			}
		}
	})

	t.Run("history filtered by target", func(t *testing.T) {
		history, err := hdb.GetRunHistory(ctx, "http://juice.test:3000")
		if err != nil {
			t.Fatalf("GetRunHistory() unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("len(history) = %d, want 2", len(history))
		}
		if history[0].TotalFindings != 1 {
			t.Errorf("TotalFindings = %d, want 1", history[0].TotalFindings)
		}
		if history[0].RiskSummary["high"] != 1 {
			t.Errorf("RiskSummary[high] = %d, want 1", history[0].RiskSummary["high"])
		}
	})

	t.Run("history for all targets", func(t *testing.T) {
		history, err := hdb.GetRunHistory(ctx, "")
		if err != nil {
			t.Fatalf("GetRunHistory() unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("len(history) = %d, want 3", len(history))
		}
	})

	t.Run("recent runs newest first", func(t *testing.T) {
		runs, err := hdb.GetRecentRuns(ctx, "http://juice.test:3000", 0)
		if err != nil {
			t.Fatalf("GetRecentRuns() unexpected error: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("len(runs) = %d, want 2", len(runs))
		}
		if runs[0].RunID != second.RunID || runs[1].RunID != first.RunID {
			t.Errorf("runs = [%q %q], want [%q %q]",
				runs[0].RunID, runs[1].RunID, second.RunID, first.RunID)
		}
	})

	t.Run("recent runs respect limit", func(t *testing.T) {
		runs, err := hdb.GetRecentRuns(ctx, "http://juice.test:3000", 1)
		if err != nil {
			t.Fatalf("GetRecentRuns() unexpected error: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("len(runs) = %d, want 1", len(runs))
		}
		if runs[0].RunID != second.RunID {
			t.Errorf("RunID = %q, want %q (latest)", runs[0].RunID, second.RunID)
		}
	})

	t.Run("run by id", func(t *testing.T) {
		history, err := hdb.GetRunHistory(ctx, "http://other.test:8080")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 {
			t.Fatalf("len(history) = %d, want 1", len(history))
		}

		got, err := hdb.GetRunByID(ctx, history[0].ID)
		if err != nil {
			t.Fatalf("GetRunByID() unexpected error: %v", err)
		}
		if got == nil || got.RunID != other.RunID {
			t.Errorf("GetRunByID() RunID = %v, want %q", got, other.RunID)
		}
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		got, err := hdb.GetRunByID(ctx, 999999)
		if err != nil {
			t.Fatalf("GetRunByID() unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("GetRunByID() = %+v, want nil", got)
		}
	})
}

func TestSaveRunDuplicateRunID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hdb := openTestDB(t)

	report := storedReport(t, "http://juice.test:3000", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	if err := hdb.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun() unexpected error: %v", err)
	}

	// run_id is unique; saving the identical report again must fail
	// rather than silently duplicate history.
	if err := hdb.SaveRun(ctx, report); err == nil {
		t.Fatal("SaveRun() error = nil, want unique constraint error")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default", input: "2026-03-14 09:30:00"},
		{name: "iso8601 with Z", input: "2026-03-14T09:30:00Z"},
		{name: "rfc3339", input: "2026-03-14T09:30:00+02:00"},
		{name: "garbage", input: "not a time", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q).IsZero() = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
