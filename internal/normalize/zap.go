package normalize

import (
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// zapClassifiers map ZAP baseline rule names to finding categories.
// Checked in order; the first match wins.
var zapClassifiers = []struct {
	substr   string
	category string
}{
	{"Header Not Set", "missing-security-header"},
	{"CSP", "missing-security-header"},
	{"HSTS", "missing-security-header"},
	{"Cookie", "access-control"},
	{"Server Leaks", "server-disclosure"},
	{"X-Powered-By", "server-disclosure"},
	{"Version Information", "server-disclosure"},
	{"Directory Browsing", "directory-indexing"},
	{"Vulnerable JS Library", "outdated-software"},
	{"SQL Injection", "sql-injection"},
	{"Cross Site Scripting", "cross-site-scripting"},
	{"Hidden File", "interesting-file"},
}

// parseZAP reads the ZAP baseline scan summary. Rule result lines look
// like:
//
//	WARN-NEW: X-Frame-Options Header Not Set [10020] x 4
//	FAIL-NEW: SQL Injection [40018] x 1
//
// PASS and INFO lines are skipped; WARN and FAIL become findings.
func parseZAP(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := false

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "PASS") || strings.HasPrefix(line, "Total of") {
			recognized = true
			continue
		}

		var fail bool
		var rest string
		switch {
		case strings.HasPrefix(line, "WARN-NEW:"), strings.HasPrefix(line, "WARN-INPROG:"):
			rest = line[strings.Index(line, ":")+1:]
		case strings.HasPrefix(line, "FAIL-NEW:"), strings.HasPrefix(line, "FAIL-INPROG:"):
			rest = line[strings.Index(line, ":")+1:]
			fail = true
		default:
			continue
		}
		recognized = true

		rule := strings.TrimSpace(rest)
		// The final summary line repeats the prefixes with counts:
		// "FAIL-NEW: 1  WARN-NEW: 2  PASS: 50"
		if rule == "" || rule[0] >= '0' && rule[0] <= '9' {
			continue
		}
		// Strip the rule id and match count suffix: "Name [10020] x 4"
		if i := strings.Index(rule, " ["); i > 0 {
			rule = rule[:i]
		}

		category := "http-anomaly"
		for _, c := range zapClassifiers {
			if strings.Contains(rest, c.substr) {
				category = c.category
				break
			}
		}

		f := model.NewFinding("zap", category, rule,
			"ZAP baseline rule "+rule+" matched the target.")
		if fail {
			// FAIL rules are the scanner's high-confidence results.
			f = f.WithSeverity(model.SeverityHigh)
		}
		f.Evidence = strings.TrimSpace(rest)
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
