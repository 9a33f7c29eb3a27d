package report

import (
	"encoding/json"
	"io"

	"github.com/webstrike/webstrike/internal/model"
)

// JSONWriter emits the machine-readable report consumed by CI pipelines and
// the search-index side channel.
//
// Design decision: encoding/json marshals struct fields in declaration
// order, so writing the same report twice yields byte-identical documents.
// That idempotency is what lets downstream consumers diff report files
// directly, and it rules out map-backed serializers whose key order varies.
type JSONWriter struct {
	baseWriter

	pretty bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output two spaces per level. Compact output
// stays the default since the report file is mainly read by machines.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// NewJSONWriter creates a JSONWriter writing to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write marshals the report and appends a trailing newline for line-oriented
// consumers.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	var data []byte
	var err error
	if w.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
