package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// nucleiResult is one line of nuclei's JSONL output. Only the fields we
// use are declared.
type nucleiResult struct {
	TemplateID string `json:"template-id"`
	Info       struct {
		Name        string   `json:"name"`
		Severity    string   `json:"severity"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	} `json:"info"`
	Host      string `json:"host"`
	MatchedAt string `json:"matched-at"`
}

// nucleiCategories maps template tags or template-id substrings to
// finding categories. Checked in order; the first match wins.
var nucleiCategories = []struct {
	keyword  string
	category string
}{
	{"sqli", "sql-injection"},
	{"sql-injection", "sql-injection"},
	{"xss", "cross-site-scripting"},
	{"default-login", "weak-credentials"},
	{"exposure", "interesting-file"},
	{"exposed", "interesting-file"},
	{"config", "interesting-file"},
	{"backup", "interesting-file"},
	{"headers", "missing-security-header"},
	{"missing-headers", "missing-security-header"},
	{"tls", "tls-misconfiguration"},
	{"ssl", "tls-misconfiguration"},
	{"cve", "outdated-software"},
	{"tech", "server-disclosure"},
	{"detect", "server-disclosure"},
}

// parseNuclei reads nuclei's JSONL output (-jsonl). Each line is one
// matched template. The tool's own severity rating takes precedence over
// our category defaults.
func parseNuclei(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := false

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var result nucleiResult
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			continue
		}
		if result.TemplateID == "" {
			continue
		}
		recognized = true

		category := classifyNuclei(result)

		title := result.Info.Name
		if title == "" {
			title = result.TemplateID
		}
		description := result.Info.Description
		if description == "" {
			description = fmt.Sprintf("Template %s matched the target.", result.TemplateID)
		}

		f := model.NewFinding("nuclei", category, title, description).
			WithSeverity(model.ParseSeverity(result.Info.Severity))
		f.Evidence = result.TemplateID
		f.Location = nonEmpty(result.MatchedAt, result.Host)
		findings = append(findings, f)
	}

	if !recognized {
		return nil, errUnparseable
	}
	return findings, nil
}

// classifyNuclei picks a category from the template's tags and id.
func classifyNuclei(result nucleiResult) string {
	haystack := strings.ToLower(result.TemplateID + " " + strings.Join(result.Info.Tags, " "))
	for _, c := range nucleiCategories {
		if strings.Contains(haystack, c.keyword) {
			return c.category
		}
	}
	return "http-anomaly"
}
