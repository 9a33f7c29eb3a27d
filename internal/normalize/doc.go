// Package normalize converts raw tool output into findings with a
// uniform category and severity scheme.
//
// Each supported tool has a parser keyed by tool name. Parsers are
// forgiving: output that cannot be understood never fails the run, it
// degrades to a single informational finding carrying the raw output so
// no data is silently dropped.
package normalize
