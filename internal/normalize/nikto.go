package normalize

import (
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// niktoClassifiers map substrings of nikto finding lines to categories.
// Checked in order; the first match wins.
var niktoClassifiers = []struct {
	substr   string
	category string
}{
	{"X-Frame-Options", "missing-security-header"},
	{"X-Content-Type-Options", "missing-security-header"},
	{"Strict-Transport-Security", "missing-security-header"},
	{"Content-Security-Policy", "missing-security-header"},
	{"Directory indexing", "directory-indexing"},
	{"indexing found", "directory-indexing"},
	{"appears to be outdated", "outdated-software"},
	{"outdated", "outdated-software"},
	{"Server leaks", "server-disclosure"},
	{"Server:", "server-disclosure"},
	{"Retrieved x-powered-by", "server-disclosure"},
	{"interesting", "interesting-file"},
	{"/robots.txt", "interesting-file"},
	{"Cookie", "access-control"},
}

// parseNikto reads nikto's plain text report. Finding lines start with
// "+ "; summary and banner lines are skipped.
func parseNikto(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := false

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "- Nikto") || strings.HasPrefix(line, "+ Target") ||
			strings.HasPrefix(line, "+ Start Time") || strings.HasPrefix(line, "+ End Time") {
			recognized = true
			continue
		}
		if !strings.HasPrefix(line, "+ ") {
			continue
		}
		recognized = true

		text := strings.TrimPrefix(line, "+ ")
		if text == "" {
			continue
		}

		category := "http-anomaly"
		for _, c := range niktoClassifiers {
			if strings.Contains(text, c.substr) {
				category = c.category
				break
			}
		}

		f := model.NewFinding("nikto", category, summarize(text), text)
		f.Evidence = text
		if run.Target != nil {
			f.Location = run.Target.URL()
		}
		findings = append(findings, f)
	}

	if !recognized {
		return nil, errUnparseable
	}
	return findings, nil
}

// summarize shortens a finding line into a title.
func summarize(text string) string {
	if i := strings.IndexAny(text, ".;"); i > 20 {
		text = text[:i]
	}
	if len(text) > 100 {
		text = text[:100]
	}
	return text
}
