package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

const (
	// defaultTimeout bounds every request to the cluster.
	defaultTimeout = 30 * time.Second

	// templateName is the index template installed by EnsureTemplate.
	templateName = "pentest-template"

	// indexPattern matches every monthly results index.
	indexPattern = "pentest-results-*"
)

// Indexer pushes run results to an OpenSearch cluster.
//
// Design decision: We talk to the cluster over plain net/http rather than
// an official client SDK. The surface we need is two endpoints (_bulk and
// _index_template) and the SDK would multiply the dependency tree for no
// gain in a best-effort side channel.
type Indexer struct {
	// url is the cluster base URL without a trailing slash.
	url string

	// index is the destination index name.
	index string

	// client is the HTTP client used for all requests.
	client *http.Client

	// username and password enable basic auth when both are set.
	username string
	password string

	// logger records ingestion progress.
	logger *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) Option {
	return func(ix *Indexer) {
		ix.client = client
	}
}

// WithIndex overrides the default monthly index name.
func WithIndex(index string) Option {
	return func(ix *Indexer) {
		ix.index = index
	}
}

// WithBasicAuth enables basic authentication on every request.
func WithBasicAuth(username, password string) Option {
	return func(ix *Indexer) {
		ix.username = username
		ix.password = password
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// NewIndexer creates an Indexer for the given cluster URL.
func NewIndexer(url string, opts ...Option) *Indexer {
	ix := &Indexer{
		url:    strings.TrimSuffix(url, "/"),
		index:  fmt.Sprintf("pentest-results-%s", time.Now().Format("2006-01")),
		client: &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// EnsureTemplate installs the index template so that finding fields get
// keyword/date mappings instead of dynamic text mappings. Installing an
// already-present template is a no-op on the cluster side.
func (ix *Indexer) EnsureTemplate(ctx context.Context) error {
	template := map[string]interface{}{
		"index_patterns": []string{indexPattern},
		"template": map[string]interface{}{
			"settings": map[string]interface{}{
				"number_of_shards":   1,
				"number_of_replicas": 0,
			},
			"mappings": map[string]interface{}{
				"properties": map[string]interface{}{
					"timestamp":          map[string]string{"type": "date"},
					"run_id":             map[string]string{"type": "keyword"},
					"doc_type":           map[string]string{"type": "keyword"},
					"target_url":         map[string]string{"type": "keyword"},
					"tool_name":          map[string]string{"type": "keyword"},
					"test_phase":         map[string]string{"type": "keyword"},
					"vulnerability_type": map[string]string{"type": "keyword"},
					"severity":           map[string]string{"type": "keyword"},
					"status":             map[string]string{"type": "keyword"},
					"description":        map[string]string{"type": "text"},
					"location":           map[string]string{"type": "keyword"},
					"risk_score":         map[string]string{"type": "integer"},
					"evidence":           map[string]string{"type": "text"},
					"recommendation":     map[string]string{"type": "text"},
					"cvss_score":         map[string]string{"type": "float"},
					"cwe_id":             map[string]string{"type": "keyword"},
					"owasp_category":     map[string]string{"type": "keyword"},
				},
			},
		},
	}

	body, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("opensearch: marshal template: %w", err)
	}

	url := ix.url + "/_index_template/" + templateName
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("opensearch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	ix.setAuth(req)

	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("opensearch: install template: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("opensearch: install template failed (%d): %s", resp.StatusCode, string(msg))
	}

	ix.logger.Debug("index template installed", "template", templateName)
	return nil
}

// Ingest pushes the report to the cluster with one bulk request: a
// document per finding plus one run summary document.
func (ix *Indexer) Ingest(ctx context.Context, report *model.Report) error {
	var buf bytes.Buffer

	action, err := json.Marshal(map[string]interface{}{
		"index": map[string]interface{}{"_index": ix.index},
	})
	if err != nil {
		return fmt.Errorf("opensearch: marshal action: %w", err)
	}

	for _, finding := range report.Findings {
		doc, err := json.Marshal(ix.findingDocument(report, finding))
		if err != nil {
			return fmt.Errorf("opensearch: marshal finding: %w", err)
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	summary, err := json.Marshal(ix.summaryDocument(report))
	if err != nil {
		return fmt.Errorf("opensearch: marshal summary: %w", err)
	}
	buf.Write(action)
	buf.WriteByte('\n')
	buf.Write(summary)
	buf.WriteByte('\n')

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ix.url+"/_bulk", &buf)
	if err != nil {
		return fmt.Errorf("opensearch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	ix.setAuth(req)

	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("opensearch: bulk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("opensearch: bulk insert failed (%d): %s", resp.StatusCode, string(msg))
	}

	var bulkResp bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("opensearch: decode response: %w", err)
	}

	if bulkResp.Errors {
		var failures int
		for _, item := range bulkResp.Items {
			if item.Index.Error != nil {
				failures++
			}
		}
		return fmt.Errorf("opensearch: %d/%d documents failed to index", failures, report.TotalFindings()+1)
	}

	ix.logger.Info("results indexed",
		"index", ix.index,
		"documents", report.TotalFindings()+1,
	)
	return nil
}

// findingDocument flattens one finding into the dashboard schema.
func (ix *Indexer) findingDocument(report *model.Report, finding model.Finding) map[string]interface{} {
	doc := map[string]interface{}{
		"timestamp":          report.StartedAt.Format(time.RFC3339),
		"run_id":             report.RunID,
		"doc_type":           "finding",
		"target_url":         report.Target.URL(),
		"tool_name":          finding.Tool,
		"vulnerability_type": finding.Category,
		"severity":           strings.ToLower(finding.Severity.String()),
		"description":        finding.Description,
		"location":           finding.Location,
		"risk_score":         finding.Severity.RiskScore(),
		"evidence":           finding.Evidence,
		"recommendation":     finding.Recommendation,
		"cvss_score":         finding.CVSS,
		"cwe_id":             finding.CWE,
		"owasp_category":     finding.OWASP,
	}

	if run := report.RunForTool(finding.Tool); run != nil {
		doc["test_phase"] = string(run.Phase)
		doc["status"] = string(run.Status)
	}

	return doc
}

// summaryDocument flattens the run totals into one document so dashboards
// can chart runs over time without aggregating finding documents.
func (ix *Indexer) summaryDocument(report *model.Report) map[string]interface{} {
	return map[string]interface{}{
		"timestamp":      report.StartedAt.Format(time.RFC3339),
		"run_id":         report.RunID,
		"doc_type":       "run_summary",
		"target_url":     report.Target.URL(),
		"duration_sec":   report.Duration().Seconds(),
		"total_findings": report.TotalFindings(),
		"critical_count": report.CriticalCount,
		"high_count":     report.HighCount,
		"medium_count":   report.MediumCount,
		"low_count":      report.LowCount,
		"info_count":     report.InfoCount,
		"tool_failures":  len(report.FailureNotes),
	}
}

// setAuth sets basic auth when credentials are configured.
func (ix *Indexer) setAuth(req *http.Request) {
	if ix.username != "" && ix.password != "" {
		req.SetBasicAuth(ix.username, ix.password)
	}
}

// bulkResponse is the OpenSearch bulk API response.
type bulkResponse struct {
	Took   int  `json:"took"`
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string                 `json:"_id"`
			Result string                 `json:"result"`
			Status int                    `json:"status"`
			Error  map[string]interface{} `json:"error,omitempty"`
		} `json:"index"`
	} `json:"items"`
}
