// Package report renders aggregated run results in multiple output
// formats.
//
// Each format is implemented as a Writer over the same model.Report, so
// the orchestrator builds the report exactly once and the emitters never
// influence each other. MultiWriter fans one report out to several
// destinations (e.g. console plus a JSON file).
//
// Supported formats: JSON, HTML, PDF, Markdown and plain console text.
package report
