package report

import (
	"fmt"
	"io"
	"time"

	gofpdf "github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/webstrike/webstrike/internal/model"
)

// pdfSeverityColors maps severity names to RGB values used for table
// rows and badges.
var pdfSeverityColors = map[string][]int{
	"CRITICAL": {220, 38, 38},
	"HIGH":     {234, 88, 12},
	"MEDIUM":   {202, 138, 4},
	"LOW":      {22, 163, 74},
	"INFO":     {37, 99, 235},
}

// PDFWriter outputs reports as a PDF document suitable for handing to
// stakeholders who will not open an HTML file or a terminal.
//
// Design decision: The PDF is generated directly with go-pdf/fpdf rather
// than by converting the HTML report. A headless-browser conversion step
// would drag in a huge runtime dependency for what is a small, fixed
// layout.
type PDFWriter struct {
	baseWriter

	// title is the document title on the cover block.
	title string
}

// PDFWriterOption configures a PDFWriter.
type PDFWriterOption func(*PDFWriter)

// WithPDFTitle overrides the default document title.
func WithPDFTitle(title string) PDFWriterOption {
	return func(w *PDFWriter) {
		w.title = title
	}
}

// NewPDFWriter creates a PDFWriter that outputs to the given writer.
func NewPDFWriter(output io.Writer, opts ...PDFWriterOption) *PDFWriter {
	w := &PDFWriter{
		baseWriter: newBaseWriter(output),
		title:      "Webstrike Security Report",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the report and writes the complete PDF document.
func (w *PDFWriter) Write(report *model.Report) (int, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(w.title, true)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("webstrike  |  %s  |  Page %d of {nb}", report.RunID, pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	w.addCover(pdf, report)
	w.addSummary(pdf, report)
	w.addPhases(pdf, report)
	w.addToolRuns(pdf, report)
	w.addFindings(pdf, report)
	w.addFailures(pdf, report)

	cw := &countingWriter{w: w.output}
	if err := pdf.Output(cw); err != nil {
		return cw.n, fmt.Errorf("write pdf: %w", err)
	}
	return cw.n, nil
}

// addSectionHeader renders a colored section heading bar.
func (w *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(0, 10, "  "+title, "", 1, "L", true, 0, "")
	pdf.Ln(4)
}

// addCover renders the title block and run metadata.
func (w *PDFWriter) addCover(pdf *gofpdf.Fpdf, report *model.Report) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 14, w.title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 6, "Automated security assessment results", "", 1, "L", false, 0, "")
	pdf.Ln(6)

	meta := [][]string{
		{"Run ID", report.RunID},
		{"Target", report.Target.URL()},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", report.Duration().Round(time.Second).String()},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(35, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

// addSummary renders the severity count table.
func (w *PDFWriter) addSummary(pdf *gofpdf.Fpdf, report *model.Report) {
	w.addSectionHeader(pdf, "Severity Summary")

	counts := [][2]interface{}{
		{"CRITICAL", report.CriticalCount},
		{"HIGH", report.HighCount},
		{"MEDIUM", report.MediumCount},
		{"LOW", report.LowCount},
		{"INFO", report.InfoCount},
	}

	titleCase := cases.Title(language.English)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(60, 8, "Severity", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Findings", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range counts {
		name := row[0].(string)
		count := row[1].(int)

		color := pdfSeverityColors[name]
		pdf.SetTextColor(color[0], color[1], color[2])
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 7, titleCase.String(name), "1", 0, "L", false, 0, "")

		pdf.SetTextColor(60, 60, 60)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", count), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(60, 7, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%d", report.TotalFindings()), "1", 1, "C", false, 0, "")
	pdf.Ln(8)
}

// addPhases renders the phase outcome table.
func (w *PDFWriter) addPhases(pdf *gofpdf.Fpdf, report *model.Report) {
	if len(report.Phases) == 0 {
		return
	}

	w.addSectionHeader(pdf, "Phases")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(50, 8, "Phase", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Tools", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, phase := range report.Phases {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(50, 7, phase.Name, "1", 0, "L", false, 0, "")

		switch phase.Status {
		case model.PhaseCompleted:
			pdf.SetTextColor(22, 163, 74)
		case model.PhaseFailed:
			pdf.SetTextColor(220, 38, 38)
		default:
			pdf.SetTextColor(128, 128, 128)
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 7, string(phase.Status), "1", 0, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, joinOrDash(phase.Tools), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

// addToolRuns renders the per-tool invocation table.
func (w *PDFWriter) addToolRuns(pdf *gofpdf.Fpdf, report *model.Report) {
	if len(report.ToolRuns) == 0 {
		return
	}

	w.addSectionHeader(pdf, "Tool Runs")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(40, 8, "Tool", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 8, "Phase", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Duration", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, run := range report.ToolRuns {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, run.Tool, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, string(run.Phase), "1", 0, "L", false, 0, "")

		if run.Status.Succeeded() {
			pdf.SetTextColor(22, 163, 74)
		} else {
			pdf.SetTextColor(220, 38, 38)
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 7, string(run.Status), "1", 0, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		dur := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)
		pdf.CellFormat(0, 7, dur.String(), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

// addFindings renders every finding grouped by severity, most urgent
// first. Each block lists location, evidence and remediation guidance.
func (w *PDFWriter) addFindings(pdf *gofpdf.Fpdf, report *model.Report) {
	pdf.AddPage()
	w.addSectionHeader(pdf, "Findings")

	if !report.HasFindings() {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No security findings detected.", "", 1, "L", false, 0, "")
		return
	}

	_, pageH := pdf.GetPageSize()
	pageBreakY := pageH - 47

	for _, sev := range severityOrder {
		findings := report.FindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}

		name := sev.String()
		color := pdfSeverityColors[name]
		if color == nil {
			color = []int{128, 128, 128}
		}

		if pdf.GetY()+20 > pageBreakY {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(color[0], color[1], color[2])
		pdf.CellFormat(0, 9, fmt.Sprintf("%s (%d)", name, len(findings)), "", 1, "L", false, 0, "")
		pdf.Ln(1)

		for _, f := range findings {
			// Each finding block needs roughly 30mm before a break.
			if pdf.GetY()+30 > pageBreakY {
				pdf.AddPage()
			}

			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(30, 41, 59)
			pdf.MultiCell(0, 6, f.Title, "", "L", false)

			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(128, 128, 128)
			meta := fmt.Sprintf("%s  |  %s", f.Tool, f.Category)
			if f.Location != "" {
				meta += "  |  " + f.Location
			}
			if f.CWE != "" {
				meta += "  |  " + f.CWE
			}
			pdf.CellFormat(0, 5, meta, "", 1, "L", false, 0, "")

			if f.Description != "" {
				pdf.SetFont("Helvetica", "", 9)
				pdf.SetTextColor(80, 80, 80)
				pdf.MultiCell(0, 5, f.Description, "", "L", false)
			}

			if f.Evidence != "" {
				pdf.SetFont("Courier", "", 8)
				pdf.SetTextColor(60, 60, 60)
				pdf.SetFillColor(245, 245, 245)
				pdf.MultiCell(0, 4.5, truncateString(f.Evidence, 600), "", "L", true)
			}

			if f.Recommendation != "" {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.SetTextColor(37, 99, 235)
				pdf.MultiCell(0, 5, "Recommendation: "+f.Recommendation, "", "L", false)
			}

			pdf.Ln(4)
		}
	}
}

// addFailures renders the tool failure table.
func (w *PDFWriter) addFailures(pdf *gofpdf.Fpdf, report *model.Report) {
	if len(report.FailureNotes) == 0 {
		return
	}

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+40 > pageH-47 {
		pdf.AddPage()
	}

	w.addSectionHeader(pdf, "Tool Failures")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "The following tools did not complete. Their absence means the "+
		"corresponding checks were not performed, not that the target passed them.", "", "L", false)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(40, 8, "Tool", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Detail", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, note := range report.FailureNotes {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, note.Tool, "1", 0, "L", false, 0, "")

		pdf.SetTextColor(220, 38, 38)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(35, 7, string(note.Status), "1", 0, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, truncateString(note.Detail, 80), "1", 1, "L", false, 0, "")
	}
}

// countingWriter counts bytes so Write can report how much was emitted.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// joinOrDash joins items with commas, or returns "-" when empty.
func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}
