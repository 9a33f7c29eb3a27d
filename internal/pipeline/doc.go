// Package pipeline orchestrates a full test run: it walks the testing
// phases in order, dispatches the tools of each phase concurrently, and
// aggregates tool runs and normalized findings into a single report.
//
// Phases run sequentially; tools inside a phase run concurrently up to a
// configurable limit. A failed phase never stops later phases, and a
// failed tool never fails the run. Every failure stays visible in the
// report as a failure note.
package pipeline
