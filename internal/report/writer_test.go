package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

// sampleReport builds a report with findings across several severities,
// one failed run and one degraded run.
func sampleReport(t *testing.T) *model.Report {
	t.Helper()

	target, err := model.ParseTarget("http://juice.test:3000")
	if err != nil {
		t.Fatal(err)
	}

	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report := model.NewReport(target, started)
	report.FinishedAt = started.Add(4 * time.Minute)
	report.Tools = []string{"nmap", "nikto", "sqlmap", "hydra"}

	report.AddToolRun(&model.ToolRun{
		Tool:       "nmap",
		Phase:      model.PhaseRecon,
		Status:     model.StatusCompleted,
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
	})
	report.AddToolRun(&model.ToolRun{
		Tool:       "nikto",
		Phase:      model.PhaseVulnAssessment,
		Status:     model.StatusDegraded,
		StartedAt:  started.Add(time.Minute),
		FinishedAt: started.Add(2 * time.Minute),
	})
	report.AddToolRun(&model.ToolRun{
		Tool:       "sqlmap",
		Phase:      model.PhaseExploitation,
		Status:     model.StatusCompleted,
		StartedAt:  started.Add(2 * time.Minute),
		FinishedAt: started.Add(3 * time.Minute),
	})
	report.AddToolRun(&model.ToolRun{
		Tool:       "hydra",
		Phase:      model.PhaseExploitation,
		Status:     model.StatusFailed,
		ExitCode:   1,
		Error:      "hydra exited with code 1",
		StartedAt:  started.Add(2 * time.Minute),
		FinishedAt: started.Add(3 * time.Minute),
	})

	report.AddPhaseResult("recon", model.PhaseCompleted, []string{"nmap"})
	report.AddPhaseResult("vuln-assessment", model.PhaseCompleted, []string{"nikto"})
	report.AddPhaseResult("exploitation", model.PhaseCompleted, []string{"sqlmap", "hydra"})
	report.AddPhaseResult("post-exploitation", model.PhaseSkipped, nil)

	sqli := model.NewFinding("sqlmap", "sql-injection",
		"SQL injection in q parameter",
		"The q parameter is injectable via boolean-based blind techniques.")
	sqli.Location = "http://juice.test:3000/rest/products/search?q="
	sqli.Evidence = "SQLITE_ERROR: unrecognized token"
	report.AddFinding(sqli)

	port := model.NewFinding("nmap", "open-port", "Open TCP port 3000 (http)", "Port 3000 is open.")
	port.Location = "3000/tcp"
	report.AddFinding(port)

	hdr := model.NewFinding("nikto", "missing-security-header",
		"Missing Content-Security-Policy header",
		"The response lacks a Content-Security-Policy header.")
	hdr.Location = "http://juice.test:3000"
	report.AddFinding(hdr)

	return report
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("output is valid json with expected fields", func(t *testing.T) {
		t.Parallel()

		report := sampleReport(t)
		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		n, err := w.Write(report)
		if err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() returned %d bytes, buffer has %d", n, buf.Len())
		}

		var decoded map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		for _, key := range []string{"run_id", "target", "phases", "tool_runs", "findings", "failure_notes"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("output missing key %q", key)
			}
		}
	})

	t.Run("serialization is idempotent", func(t *testing.T) {
		t.Parallel()

		report := sampleReport(t)

		var first, second bytes.Buffer
		if _, err := NewJSONWriter(&first).Write(report); err != nil {
			t.Fatal(err)
		}
		if _, err := NewJSONWriter(&second).Write(report); err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Error("two serializations of the same report differ")
		}
	})

	t.Run("compact output has no indentation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(sampleReport(t)); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "\n  ") {
			t.Error("compact output contains indentation")
		}
	})
}

func TestConsoleWriter(t *testing.T) {
	t.Parallel()

	report := sampleReport(t)
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, WithVerbose(true))

	n, err := w.Write(report)
	if err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() returned %d bytes, buffer has %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"WEBSTRIKE REPORT",
		"http://juice.test:3000",
		"SEVERITY SUMMARY",
		"SQL injection in q parameter",
		"TOOL FAILURES",
		"hydra",
		"post-exploitation",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	report := sampleReport(t)
	var buf bytes.Buffer

	if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Webstrike Report",
		"## Severity Summary",
		"## Phases",
		"## Findings",
		"SQL injection in q parameter",
		"## Tool Failures",
		"mermaid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders complete document", func(t *testing.T) {
		t.Parallel()

		report := sampleReport(t)
		var buf bytes.Buffer

		n, err := NewHTMLWriter(&buf).Write(report)
		if err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() returned %d bytes, buffer has %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"<!DOCTYPE html>",
			"Webstrike Security Report",
			"http://juice.test:3000",
			"SQL injection in q parameter",
			"Tool Failures",
			"</html>",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("escapes html in finding content", func(t *testing.T) {
		t.Parallel()

		report := sampleReport(t)
		f := model.NewFinding("nikto", "server-disclosure",
			"<script>alert(1)</script>", "injected title")
		report.AddFinding(f)

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}

		if strings.Contains(buf.String(), "<script>alert(1)</script>") {
			t.Error("finding title was not escaped")
		}
	})
}

func TestPDFWriter(t *testing.T) {
	t.Parallel()

	report := sampleReport(t)
	var buf bytes.Buffer

	n, err := NewPDFWriter(&buf).Write(report)
	if err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatal("Write() wrote zero bytes")
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with PDF magic bytes")
	}
}

// errWriter always fails, for MultiWriter error propagation tests.
type errWriter struct{}

func (errWriter) Write(*model.Report) (int, error) {
	return 0, errors.New("sink failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		report := sampleReport(t)
		var a, b bytes.Buffer

		mw := NewMultiWriter(NewJSONWriter(&a), NewConsoleWriter(&b))
		if _, err := mw.Write(report); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}

		if a.Len() == 0 || b.Len() == 0 {
			t.Error("one of the writers received no output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(errWriter{}, NewJSONWriter(&after))

		if _, err := mw.Write(sampleReport(t)); err == nil {
			t.Fatal("Write() error = nil, want error from failing writer")
		}
		if after.Len() != 0 {
			t.Error("writer after the failure still received output")
		}
	})
}
