package report

import (
	"io"

	"github.com/webstrike/webstrike/internal/model"
)

// Writer renders a finished run in one output format. Every format is a
// pure projection of the same model.Report, so emitting JSON and PDF for
// one run never disagrees on content.
type Writer interface {
	// Write renders the report to the writer's destination and returns
	// the number of bytes written.
	Write(report *model.Report) (int, error)
}

// MultiWriter fans one report out to several Writers, for runs that emit a
// console summary and file reports in one pass. It is a separate type from
// io.MultiWriter because Writers consume reports, not bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to every provided Writer.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report through each Writer in order, stopping at the
// first error. The returned count sums the bytes written so far.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by the concrete formats.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// severityOrder lists severities from most to least urgent, the order
// every format presents findings in.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// truncateString shortens s to maxLen with a trailing ellipsis. Evidence
// strings can carry whole HTTP responses and would otherwise swamp the
// tabular formats.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
