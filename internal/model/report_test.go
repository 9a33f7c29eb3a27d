package model

import (
	"testing"
	"time"
)

func mustTarget(t *testing.T, raw string) *Target {
	t.Helper()

	target, err := ParseTarget(raw)
	if err != nil {
		t.Fatalf("ParseTarget(%q) unexpected error: %v", raw, err)
	}
	return target
}

func TestNewReport(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	report := NewReport(mustTarget(t, "http://192.168.50.20:3000"), started)

	if got, want := report.RunID, "run_20260314_150926"; got != want {
		t.Errorf("RunID = %q, want %q", got, want)
	}
	if report.HasFindings() {
		t.Error("new report should have no findings")
	}
}

func TestReportAddFinding(t *testing.T) {
	t.Parallel()

	t.Run("severity counters track findings", func(t *testing.T) {
		t.Parallel()

		report := NewReport(mustTarget(t, "http://example.com"), time.Now())
		report.AddFinding(NewFinding("sqlmap", "sql-injection", "SQL injection", "parameter q is injectable"))
		report.AddFinding(NewFinding("nikto", "missing-security-header", "Missing header", "X-Frame-Options absent"))
		report.AddFinding(NewFinding("nmap", "open-port", "Open port", "3000/tcp open"))

		if got, want := report.TotalFindings(), 3; got != want {
			t.Fatalf("TotalFindings() = %d, want %d", got, want)
		}
		if report.HighCount != 1 {
			t.Errorf("HighCount = %d, want 1", report.HighCount)
		}
		if report.LowCount != 1 {
			t.Errorf("LowCount = %d, want 1", report.LowCount)
		}
		if report.InfoCount != 1 {
			t.Errorf("InfoCount = %d, want 1", report.InfoCount)
		}
	})

	t.Run("duplicate findings are dropped", func(t *testing.T) {
		t.Parallel()

		report := NewReport(mustTarget(t, "http://example.com"), time.Now())
		finding := NewFinding("sqlmap", "sql-injection", "SQL injection", "parameter q is injectable")
		finding.Location = "/rest/products/search"
		finding.Evidence = "error-based payload succeeded"

		report.AddFinding(finding)
		report.AddFinding(finding)

		if got, want := report.TotalFindings(), 1; got != want {
			t.Errorf("TotalFindings() = %d, want %d", got, want)
		}
		if report.HighCount != 1 {
			t.Errorf("HighCount = %d, want 1", report.HighCount)
		}
	})

	t.Run("findings differing only by title all survive", func(t *testing.T) {
		t.Parallel()

		// The header probe reports one finding per absent security
		// header, all sharing category, location and empty evidence.
		report := NewReport(mustTarget(t, "http://example.com"), time.Now())
		headers := []string{
			"X-Frame-Options",
			"X-Content-Type-Options",
			"Content-Security-Policy",
			"Referrer-Policy",
		}
		for _, h := range headers {
			f := NewFinding("nikto", "missing-security-header",
				"Missing "+h+" header",
				"The response does not set the "+h+" header.")
			f.Location = "http://example.com"
			report.AddFinding(f)
		}

		if got, want := report.TotalFindings(), len(headers); got != want {
			t.Errorf("TotalFindings() = %d, want %d", got, want)
		}
	})
}

func TestReportAddToolRun(t *testing.T) {
	t.Parallel()

	t.Run("failed run records a failure note", func(t *testing.T) {
		t.Parallel()

		report := NewReport(mustTarget(t, "http://example.com"), time.Now())
		report.AddToolRun(&ToolRun{
			Tool:   "nikto",
			Status: StatusFailed,
			Error:  "exit status 1",
		})

		if len(report.FailureNotes) != 1 {
			t.Fatalf("len(FailureNotes) = %d, want 1", len(report.FailureNotes))
		}
		note := report.FailureNotes[0]
		if note.Tool != "nikto" {
			t.Errorf("note.Tool = %q, want %q", note.Tool, "nikto")
		}
		if note.Status != StatusFailed {
			t.Errorf("note.Status = %q, want %q", note.Status, StatusFailed)
		}
	})

	t.Run("degraded run records no failure note", func(t *testing.T) {
		t.Parallel()

		report := NewReport(mustTarget(t, "http://example.com"), time.Now())
		report.AddToolRun(&ToolRun{
			Tool:   "sqlmap",
			Status: StatusDegraded,
		})

		if len(report.FailureNotes) != 0 {
			t.Errorf("len(FailureNotes) = %d, want 0", len(report.FailureNotes))
		}
	})

	t.Run("timed out run records a failure note", func(t *testing.T) {
		t.Parallel()

		report := NewReport(mustTarget(t, "http://example.com"), time.Now())
		report.AddToolRun(&ToolRun{
			Tool:   "zap",
			Status: StatusTimedOut,
		})

		if len(report.FailureNotes) != 1 {
			t.Fatalf("len(FailureNotes) = %d, want 1", len(report.FailureNotes))
		}
		if report.FailureNotes[0].Detail == "" {
			t.Error("failure note detail is empty, want a generated detail")
		}
	})
}

func TestReportRunForTool(t *testing.T) {
	t.Parallel()

	report := NewReport(mustTarget(t, "http://example.com"), time.Now())
	report.AddToolRun(&ToolRun{Tool: "nmap", Status: StatusCompleted})

	if run := report.RunForTool("nmap"); run == nil {
		t.Error("RunForTool(nmap) = nil, want run")
	}
	if run := report.RunForTool("hydra"); run != nil {
		t.Errorf("RunForTool(hydra) = %+v, want nil", run)
	}
}

func TestReportFindingsBySeverity(t *testing.T) {
	t.Parallel()

	report := NewReport(mustTarget(t, "http://example.com"), time.Now())
	report.AddFinding(NewFinding("sqlmap", "sql-injection", "SQLi", "injectable"))
	report.AddFinding(NewFinding("nmap", "open-port", "Open port", "80/tcp"))

	high := report.FindingsBySeverity(SeverityHigh)
	if len(high) != 1 || high[0].Tool != "sqlmap" {
		t.Errorf("FindingsBySeverity(High) = %+v, want one sqlmap finding", high)
	}
	if got := report.FindingsBySeverity(SeverityCritical); len(got) != 0 {
		t.Errorf("FindingsBySeverity(Critical) = %+v, want empty", got)
	}
}
