package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/webstrike/webstrike/internal/model"
)

// MarkdownWriter renders the report for sharing in wikis and pull requests.
// It leans on nao1215/markdown for tables, GitHub-flavored alerts, and the
// mermaid severity pie chart, keeping the builder calls type safe instead of
// hand-formatting pipe tables.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePhases(md, report)
	w.writeFindings(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Webstrike Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Target", "`" + report.Target.URL() + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Tools", strings.Join(report.Tools, ", ")},
		},
	})
	md.PlainText("")
}

// severityEmoji decorates severity labels in the summary table and the
// per-severity finding headers.
var severityEmoji = map[model.Severity]string{
	model.SeverityCritical: "🔴",
	model.SeverityHigh:     "🟠",
	model.SeverityMedium:   "🟡",
	model.SeverityLow:      "🔵",
	model.SeverityInfo:     "⚪",
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Severity Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(severityOrder)+1)
	for _, sev := range severityOrder {
		label := severityEmoji[sev] + " " + sev.String()
		rows = append(rows, []string{label, strconv.Itoa(report.CountBySeverity(sev))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	for _, sev := range severityOrder {
		if n := report.CountBySeverity(sev); n > 0 {
			chart.LabelAndIntValue(sev.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert picks the alert level from the most urgent severity present.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"%d critical finding(s). Remediate before the target ships or stays exposed.",
			report.CriticalCount,
		)
	case report.HighCount > 0:
		md.Warningf(
			"%d high severity finding(s) should be scheduled for remediation.",
			report.HighCount,
		)
	case report.MediumCount > 0:
		md.Importantf(
			"%d medium severity finding(s) weaken the target's security posture.",
			report.MediumCount,
		)
	case report.TotalFindings() > 0:
		md.Note("Only low severity and informational findings were recorded.")
	default:
		md.Tip("No findings were recorded for this run.")
	}
	md.PlainText("")
}

// writePhases writes the phase outcome section.
func (w *MarkdownWriter) writePhases(md *markdown.Markdown, report *model.Report) {
	if len(report.Phases) == 0 {
		return
	}

	md.H2("Phases")
	md.PlainText("")

	rows := make([][]string, len(report.Phases))
	for i, phase := range report.Phases {
		tools := strings.Join(phase.Tools, ", ")
		if tools == "" {
			tools = "-"
		}
		rows[i] = []string{phase.Name, string(phase.Status), tools}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Phase", "Status", "Tools"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.Report) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No security findings detected.")
		md.PlainText("")
		return
	}

	for _, sev := range severityOrder {
		findings := report.FindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}

		md.PlainText("### " + severityEmoji[sev] + " " + sev.String())
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		location := f.Location
		if location == "" {
			location = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			f.Title,
			f.Tool,
			truncateString(location, 40),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Tool", "Location", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeFailures writes the tool failure section.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.Report) {
	if len(report.FailureNotes) == 0 {
		return
	}

	md.H2("Tool Failures")
	md.PlainText("")

	rows := make([][]string, len(report.FailureNotes))
	for i, note := range report.FailureNotes {
		rows[i] = []string{note.Tool, string(note.Status), truncateString(note.Detail, 80)}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Tool", "Status", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webstrike](https://github.com/webstrike/webstrike)*")
}
