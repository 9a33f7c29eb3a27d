package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

// HTMLWriter outputs reports as a self-contained HTML document.
// The document embeds its stylesheet so it can be opened from disk or
// attached to a ticket without extra assets.
//
// Design decision: We render with html/template rather than building
// strings by hand so that finding titles, evidence snippets and raw tool
// output are escaped automatically. Scanner output is attacker-influenced
// text and must never be injected into the report unescaped.
type HTMLWriter struct {
	baseWriter

	// title is the document title shown in the header.
	title string
}

// HTMLWriterOption configures an HTMLWriter.
type HTMLWriterOption func(*HTMLWriter)

// WithTitle overrides the default report title.
func WithTitle(title string) HTMLWriterOption {
	return func(w *HTMLWriter) {
		w.title = title
	}
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...HTMLWriterOption) *HTMLWriter {
	w := &HTMLWriter{
		baseWriter: newBaseWriter(output),
		title:      "Webstrike Security Report",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// htmlData is the root object handed to the HTML template.
type htmlData struct {
	Title       string
	GeneratedAt string
	Report      *model.Report
	TargetURL   string
	Duration    string
	Severities  []htmlSeverityGroup
}

// htmlSeverityGroup is one severity bucket with its findings.
type htmlSeverityGroup struct {
	Name     string
	Class    string
	Count    int
	Findings []model.Finding
}

// Write renders the report and writes the complete HTML document.
func (w *HTMLWriter) Write(report *model.Report) (int, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return 0, fmt.Errorf("parse html template: %w", err)
	}

	data := htmlData{
		Title:       w.title,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05 MST"),
		Report:      report,
		TargetURL:   report.Target.URL(),
		Duration:    report.Duration().Round(time.Second).String(),
	}

	classes := map[model.Severity]string{
		model.SeverityCritical: "critical",
		model.SeverityHigh:     "high",
		model.SeverityMedium:   "medium",
		model.SeverityLow:      "low",
		model.SeverityInfo:     "info",
	}
	for _, sev := range severityOrder {
		findings := report.FindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}
		data.Severities = append(data.Severities, htmlSeverityGroup{
			Name:     sev.String(),
			Class:    classes[sev],
			Count:    len(findings),
			Findings: findings,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return 0, fmt.Errorf("execute html template: %w", err)
	}

	return w.output.Write(buf.Bytes())
}

// htmlTemplate is the embedded HTML template for the report.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8f9fa;
            --text-primary: #212529;
            --text-secondary: #6c757d;
            --border-color: #dee2e6;
            --accent: #0d6efd;
            --severity-critical: #dc3545;
            --severity-high: #fd7e14;
            --severity-medium: #ffc107;
            --severity-low: #20c997;
            --severity-info: #0dcaf0;
        }

        *, *::before, *::after { box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            margin: 0;
            line-height: 1.6;
        }

        .header {
            background: var(--bg-secondary);
            padding: 1.5rem 2rem;
            border-bottom: 1px solid var(--border-color);
        }

        .header h1 { margin: 0; font-size: 1.5rem; }

        .report-meta {
            display: flex;
            flex-wrap: wrap;
            gap: 1.5rem;
            padding: 1rem 2rem;
            background: var(--bg-secondary);
            border-bottom: 1px solid var(--border-color);
            font-size: 0.875rem;
        }

        .meta-label { color: var(--text-secondary); font-weight: 500; margin-right: 0.25rem; }

        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }

        .summary-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }

        .summary-card {
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            border-radius: 12px;
            border-left: 4px solid var(--accent);
            padding: 1.25rem;
            text-align: center;
        }

        .summary-card .value { font-size: 2.25rem; font-weight: 700; line-height: 1; }
        .summary-card .label { color: var(--text-secondary); font-size: 0.875rem; margin-top: 0.5rem; }

        .summary-card.critical { border-left-color: var(--severity-critical); }
        .summary-card.critical .value { color: var(--severity-critical); }
        .summary-card.high { border-left-color: var(--severity-high); }
        .summary-card.high .value { color: var(--severity-high); }
        .summary-card.medium { border-left-color: var(--severity-medium); }
        .summary-card.low { border-left-color: var(--severity-low); }
        .summary-card.info { border-left-color: var(--severity-info); }

        h2 { margin-top: 2rem; }

        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 0.875rem;
            margin: 1rem 0;
        }

        th, td {
            padding: 0.5rem 0.75rem;
            border: 1px solid var(--border-color);
            text-align: left;
            vertical-align: top;
        }

        th { background: var(--bg-secondary); font-weight: 600; }

        .status-completed { color: #198754; font-weight: 600; }
        .status-failed { color: var(--severity-critical); font-weight: 600; }
        .status-timed_out { color: var(--severity-high); font-weight: 600; }
        .status-degraded { color: var(--severity-medium); font-weight: 600; }
        .status-unavailable, .status-skipped { color: var(--text-secondary); font-weight: 600; }

        .severity-heading {
            display: flex;
            align-items: center;
            gap: 0.5rem;
            margin-top: 1.5rem;
        }

        .badge {
            padding: 0.2rem 0.6rem;
            border-radius: 12px;
            font-size: 0.75rem;
            font-weight: 600;
            color: white;
        }

        .badge.critical { background: var(--severity-critical); }
        .badge.high { background: var(--severity-high); }
        .badge.medium { background: var(--severity-medium); color: #000; }
        .badge.low { background: var(--severity-low); }
        .badge.info { background: var(--severity-info); color: #000; }

        .finding {
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 1rem 1.25rem;
            margin-bottom: 0.75rem;
        }

        .finding h4 { margin: 0 0 0.5rem 0; }
        .finding .meta { color: var(--text-secondary); font-size: 0.8rem; margin-bottom: 0.5rem; }

        .evidence {
            background: var(--bg-secondary);
            border-radius: 6px;
            padding: 0.75rem;
            font-family: 'Monaco', 'Consolas', monospace;
            font-size: 0.8rem;
            white-space: pre-wrap;
            word-break: break-all;
            overflow-x: auto;
        }

        .footer {
            text-align: center;
            padding: 2rem;
            color: var(--text-secondary);
            font-size: 0.875rem;
        }

        @media print {
            .finding { page-break-inside: avoid; }
            body { font-size: 11pt; }
        }

        @page { margin: 1cm; }
    </style>
</head>
<body>
    <header class="header">
        <h1>{{.Title}}</h1>
    </header>

    <div class="report-meta">
        <div><span class="meta-label">Run:</span>{{.Report.RunID}}</div>
        <div><span class="meta-label">Target:</span>{{.TargetURL}}</div>
        <div><span class="meta-label">Started:</span>{{.Report.StartedAt.Format "2006-01-02 15:04:05 MST"}}</div>
        <div><span class="meta-label">Duration:</span>{{.Duration}}</div>
        <div><span class="meta-label">Generated:</span>{{.GeneratedAt}}</div>
    </div>

    <main class="container">
        <section class="summary-grid">
            <div class="summary-card">
                <div class="value">{{.Report.TotalFindings}}</div>
                <div class="label">Total Findings</div>
            </div>
            <div class="summary-card critical">
                <div class="value">{{.Report.CriticalCount}}</div>
                <div class="label">Critical</div>
            </div>
            <div class="summary-card high">
                <div class="value">{{.Report.HighCount}}</div>
                <div class="label">High</div>
            </div>
            <div class="summary-card medium">
                <div class="value">{{.Report.MediumCount}}</div>
                <div class="label">Medium</div>
            </div>
            <div class="summary-card low">
                <div class="value">{{.Report.LowCount}}</div>
                <div class="label">Low</div>
            </div>
            <div class="summary-card info">
                <div class="value">{{.Report.InfoCount}}</div>
                <div class="label">Info</div>
            </div>
        </section>

        {{if .Report.Phases}}
        <h2>Phases</h2>
        <table>
            <thead><tr><th>Phase</th><th>Status</th><th>Tools</th></tr></thead>
            <tbody>
                {{range .Report.Phases}}
                <tr>
                    <td>{{.Name}}</td>
                    <td class="status-{{.Status}}">{{.Status}}</td>
                    <td>{{range $i, $t := .Tools}}{{if $i}}, {{end}}{{$t}}{{end}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        {{if .Report.ToolRuns}}
        <h2>Tool Runs</h2>
        <table>
            <thead><tr><th>Tool</th><th>Phase</th><th>Status</th><th>Exit Code</th><th>Output File</th></tr></thead>
            <tbody>
                {{range .Report.ToolRuns}}
                <tr>
                    <td>{{.Tool}}</td>
                    <td>{{.Phase}}</td>
                    <td class="status-{{.Status}}">{{.Status}}</td>
                    <td>{{.ExitCode}}</td>
                    <td>{{.OutputFile}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        <h2>Findings</h2>
        {{if not .Severities}}
        <p>No security findings detected.</p>
        {{end}}
        {{range .Severities}}
        <div class="severity-heading">
            <span class="badge {{.Class}}">{{.Name}}</span>
            <span>{{.Count}} finding(s)</span>
        </div>
        {{range .Findings}}
        <div class="finding">
            <h4>{{.Title}}</h4>
            <div class="meta">
                {{.Tool}} &middot; {{.Category}}{{if .Location}} &middot; {{.Location}}{{end}}{{if .CWE}} &middot; {{.CWE}}{{end}}{{if .OWASP}} &middot; {{.OWASP}}{{end}}
            </div>
            {{if .Description}}<p>{{.Description}}</p>{{end}}
            {{if .Evidence}}<div class="evidence">{{.Evidence}}</div>{{end}}
            {{if .Recommendation}}<p><strong>Recommendation:</strong> {{.Recommendation}}</p>{{end}}
        </div>
        {{end}}
        {{end}}

        {{if .Report.FailureNotes}}
        <h2>Tool Failures</h2>
        <table>
            <thead><tr><th>Tool</th><th>Status</th><th>Detail</th></tr></thead>
            <tbody>
                {{range .Report.FailureNotes}}
                <tr>
                    <td>{{.Tool}}</td>
                    <td class="status-{{.Status}}">{{.Status}}</td>
                    <td>{{.Detail}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}
    </main>

    <footer class="footer">
        Report generated by webstrike
    </footer>
</body>
</html>
`
