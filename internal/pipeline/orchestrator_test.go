package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/webstrike/webstrike/internal/config"
	"github.com/webstrike/webstrike/internal/model"
	"github.com/webstrike/webstrike/internal/tool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTarget(t *testing.T) *model.Target {
	t.Helper()

	target, err := model.ParseTarget("http://127.0.0.1:3000")
	if err != nil {
		t.Fatal(err)
	}
	return target
}

// scriptTool builds a descriptor that runs a shell snippet. The name
// controls which output parser applies.
func scriptTool(name string, phase model.Phase, script string) *tool.Tool {
	return &tool.Tool{
		Name:   name,
		Binary: "sh",
		Phase:  phase,
		BuildArgs: func(*model.Target, tool.RunOptions) []string {
			return []string{"-c", script}
		},
	}
}

func TestOrchestratorExecute(t *testing.T) {
	t.Parallel()

	tools := []*tool.Tool{
		scriptTool("nmap", model.PhaseRecon,
			`printf '# Nmap 7.94\nHost: 127.0.0.1 ()\tPorts: 3000/open/tcp//http//Node.js 18/\n'`),
		scriptTool("nikto", model.PhaseVulnAssessment,
			`printf -- '- Nikto v2.5.0\n+ Server: Apache/2.4.29\n'`),
		scriptTool("sqlmap", model.PhaseExploitation, "echo broken >&2; exit 1"),
	}

	o := New(
		WithLogger(discardLogger()),
		WithInvoker(tool.NewInvoker(tool.WithLogger(discardLogger()))),
		WithConcurrency(2),
	)

	report, err := o.Execute(context.Background(), testTarget(t), tools)
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	t.Run("all runs recorded", func(t *testing.T) {
		if len(report.ToolRuns) != 3 {
			t.Fatalf("len(ToolRuns) = %d, want 3", len(report.ToolRuns))
		}
	})

	t.Run("phase statuses follow tool outcomes", func(t *testing.T) {
		if len(report.Phases) != len(model.Phases) {
			t.Fatalf("len(Phases) = %d, want %d", len(report.Phases), len(model.Phases))
		}

		wantStatus := map[string]model.PhaseStatus{
			"recon":             model.PhaseCompleted,
			"vuln-assessment":   model.PhaseCompleted,
			"exploitation":      model.PhaseFailed,
			"post-exploitation": model.PhaseSkipped,
		}
		for _, pr := range report.Phases {
			if pr.Status != wantStatus[pr.Name] {
				t.Errorf("phase %s status = %v, want %v", pr.Name, pr.Status, wantStatus[pr.Name])
			}
		}
	})

	t.Run("failed tool produces failure note and no findings", func(t *testing.T) {
		if len(report.FailureNotes) != 1 {
			t.Fatalf("len(FailureNotes) = %d, want 1", len(report.FailureNotes))
		}
		if report.FailureNotes[0].Tool != "sqlmap" {
			t.Errorf("failure note tool = %q, want sqlmap", report.FailureNotes[0].Tool)
		}
		for _, f := range report.Findings {
			if f.Tool == "sqlmap" {
				t.Errorf("got finding from failed tool: %+v", f)
			}
		}
	})

	t.Run("successful tools produce findings", func(t *testing.T) {
		if report.TotalFindings() == 0 {
			t.Fatal("TotalFindings() = 0, want findings from nmap and nikto")
		}
	})

	t.Run("every finding maps to a recorded run", func(t *testing.T) {
		for _, f := range report.Findings {
			if report.RunForTool(f.Tool) == nil {
				t.Errorf("finding from tool %q has no recorded run", f.Tool)
			}
		}
	})

	t.Run("later phase runs despite earlier failure", func(t *testing.T) {
		// exploitation failed, but vuln-assessment before it and the
		// recorded phase list prove nothing was skipped because of it.
		if run := report.RunForTool("nikto"); run == nil || run.Status != model.StatusCompleted {
			t.Error("nikto should have completed regardless of sqlmap failure")
		}
	})
}

func TestOrchestratorTimedOutTool(t *testing.T) {
	t.Parallel()

	tools := []*tool.Tool{
		scriptTool("zap", model.PhaseVulnAssessment, "sleep 10"),
	}

	o := New(
		WithLogger(discardLogger()),
		WithInvoker(tool.NewInvoker(
			tool.WithLogger(discardLogger()),
			tool.WithTimeout(200*time.Millisecond),
		)),
	)

	report, err := o.Execute(context.Background(), testTarget(t), tools)
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	run := report.RunForTool("zap")
	if run == nil || run.Status != model.StatusTimedOut {
		t.Fatalf("zap run = %+v, want timed_out", run)
	}
	if len(report.FailureNotes) != 1 {
		t.Errorf("len(FailureNotes) = %d, want 1", len(report.FailureNotes))
	}
	if report.TotalFindings() != 0 {
		t.Errorf("TotalFindings() = %d, want 0 from a timed out run", report.TotalFindings())
	}
}

func TestOrchestratorDisabledTool(t *testing.T) {
	t.Parallel()

	overrides := &config.File{
		Tools: map[string]config.ToolConfig{
			"nikto": {Disabled: true},
		},
	}

	tools := []*tool.Tool{
		scriptTool("nmap", model.PhaseRecon, "printf '# Nmap 7.94\\n'"),
		scriptTool("nikto", model.PhaseVulnAssessment, "echo should not run"),
	}

	o := New(
		WithLogger(discardLogger()),
		WithInvoker(tool.NewInvoker(tool.WithLogger(discardLogger()))),
		WithOverrides(overrides),
	)

	report, err := o.Execute(context.Background(), testTarget(t), tools)
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	if run := report.RunForTool("nikto"); run != nil {
		t.Errorf("disabled tool ran: %+v", run)
	}
	if len(report.Tools) != 1 || report.Tools[0] != "nmap" {
		t.Errorf("report.Tools = %v, want [nmap]", report.Tools)
	}
}

func TestOrchestratorCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tools := []*tool.Tool{
		scriptTool("nmap", model.PhaseRecon, "echo hi"),
	}

	o := New(
		WithLogger(discardLogger()),
		WithInvoker(tool.NewInvoker(tool.WithLogger(discardLogger()))),
	)

	report, err := o.Execute(ctx, testTarget(t), tools)
	if err == nil {
		t.Error("Execute() error = nil, want context error")
	}
	if report == nil {
		t.Fatal("Execute() report = nil, want partial report")
	}
}

func TestWaitForTarget(t *testing.T) {
	t.Parallel()

	t.Run("target already up", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		target, err := model.ParseTarget(srv.URL)
		if err != nil {
			t.Fatal(err)
		}

		if err := WaitForTarget(context.Background(), target, 5*time.Second, discardLogger()); err != nil {
			t.Errorf("WaitForTarget() unexpected error: %v", err)
		}
	})

	t.Run("target never comes up", func(t *testing.T) {
		t.Parallel()

		target, err := model.ParseTarget("http://127.0.0.1:1")
		if err != nil {
			t.Fatal(err)
		}

		if err := WaitForTarget(context.Background(), target, 100*time.Millisecond, discardLogger()); err == nil {
			t.Error("WaitForTarget() error = nil, want timeout error")
		}
	})
}
