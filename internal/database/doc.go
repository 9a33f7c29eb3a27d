// Package database provides SQLite-based storage for run history.
//
// Every completed run can be persisted with its full report JSON and a
// small risk summary, so previous results for a target remain queryable
// without re-running the tools. The history command reads from here.
package database
