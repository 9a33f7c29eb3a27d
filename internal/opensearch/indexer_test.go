package opensearch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

func testReport(t *testing.T) *model.Report {
	t.Helper()

	target, err := model.ParseTarget("http://juice.test:3000")
	if err != nil {
		t.Fatal(err)
	}

	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report := model.NewReport(target, started)
	report.FinishedAt = started.Add(2 * time.Minute)

	report.AddToolRun(&model.ToolRun{
		Tool:   "sqlmap",
		Phase:  model.PhaseExploitation,
		Status: model.StatusCompleted,
	})

	f := model.NewFinding("sqlmap", "sql-injection",
		"SQL injection in q parameter", "boolean-based blind")
	f.Location = "/rest/products/search?q="
	report.AddFinding(f)

	return report
}

func TestIndexerIngest(t *testing.T) {
	t.Parallel()

	t.Run("sends one document per finding plus summary", func(t *testing.T) {
		t.Parallel()

		var captured []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/_bulk" {
				t.Errorf("path = %q, want /_bulk", r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
				t.Errorf("Content-Type = %q, want application/x-ndjson", ct)
			}
			captured, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write([]byte(`{"took":3,"errors":false,"items":[]}`)); err != nil {
				t.Error(err)
			}
		}))
		defer srv.Close()

		ix := NewIndexer(srv.URL, WithIndex("pentest-results-test"))
		if err := ix.Ingest(context.Background(), testReport(t)); err != nil {
			t.Fatalf("Ingest() unexpected error: %v", err)
		}

		// 1 finding + 1 summary, each with an action line.
		var lines []string
		scanner := bufio.NewScanner(bytes.NewReader(captured))
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if len(lines) != 4 {
			t.Fatalf("bulk body has %d lines, want 4", len(lines))
		}

		var finding map[string]interface{}
		if err := json.Unmarshal([]byte(lines[1]), &finding); err != nil {
			t.Fatal(err)
		}
		if finding["doc_type"] != "finding" {
			t.Errorf("doc_type = %v, want finding", finding["doc_type"])
		}
		if finding["vulnerability_type"] != "sql-injection" {
			t.Errorf("vulnerability_type = %v, want sql-injection", finding["vulnerability_type"])
		}
		if finding["severity"] != "high" {
			t.Errorf("severity = %v, want high", finding["severity"])
		}
		if finding["test_phase"] != "exploitation" {
			t.Errorf("test_phase = %v, want exploitation", finding["test_phase"])
		}

		var summary map[string]interface{}
		if err := json.Unmarshal([]byte(lines[3]), &summary); err != nil {
			t.Fatal(err)
		}
		if summary["doc_type"] != "run_summary" {
			t.Errorf("doc_type = %v, want run_summary", summary["doc_type"])
		}
		if summary["total_findings"] != float64(1) {
			t.Errorf("total_findings = %v, want 1", summary["total_findings"])
		}
	})

	t.Run("server error is returned", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "cluster unavailable", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ix := NewIndexer(srv.URL)
		if err := ix.Ingest(context.Background(), testReport(t)); err == nil {
			t.Fatal("Ingest() error = nil, want error")
		}
	})

	t.Run("partial failures are reported", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			resp := `{"took":3,"errors":true,"items":[{"index":{"status":400,"error":{"type":"mapper_parsing_exception"}}}]}`
			if _, err := w.Write([]byte(resp)); err != nil {
				t.Error(err)
			}
		}))
		defer srv.Close()

		ix := NewIndexer(srv.URL)
		err := ix.Ingest(context.Background(), testReport(t))
		if err == nil {
			t.Fatal("Ingest() error = nil, want partial failure error")
		}
		if !strings.Contains(err.Error(), "failed to index") {
			t.Errorf("error = %v, want mention of failed documents", err)
		}
	})

	t.Run("unreachable cluster", func(t *testing.T) {
		t.Parallel()

		ix := NewIndexer("http://127.0.0.1:1",
			WithClient(&http.Client{Timeout: time.Second}))
		if err := ix.Ingest(context.Background(), testReport(t)); err == nil {
			t.Fatal("Ingest() error = nil, want connection error")
		}
	})
}

func TestIndexerEnsureTemplate(t *testing.T) {
	t.Parallel()

	t.Run("installs template with mappings", func(t *testing.T) {
		t.Parallel()

		var captured []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("method = %q, want PUT", r.Method)
			}
			if r.URL.Path != "/_index_template/pentest-template" {
				t.Errorf("path = %q, want /_index_template/pentest-template", r.URL.Path)
			}
			captured, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		ix := NewIndexer(srv.URL)
		if err := ix.EnsureTemplate(context.Background()); err != nil {
			t.Fatalf("EnsureTemplate() unexpected error: %v", err)
		}

		var tmpl map[string]interface{}
		if err := json.Unmarshal(captured, &tmpl); err != nil {
			t.Fatal(err)
		}
		patterns, ok := tmpl["index_patterns"].([]interface{})
		if !ok || len(patterns) != 1 || patterns[0] != "pentest-results-*" {
			t.Errorf("index_patterns = %v, want [pentest-results-*]", tmpl["index_patterns"])
		}
	})

	t.Run("basic auth is sent when configured", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "admin" || pass != "secret" {
				t.Errorf("basic auth = %q/%q ok=%v, want admin/secret", user, pass, ok)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		ix := NewIndexer(srv.URL, WithBasicAuth("admin", "secret"))
		if err := ix.EnsureTemplate(context.Background()); err != nil {
			t.Fatalf("EnsureTemplate() unexpected error: %v", err)
		}
	})
}
