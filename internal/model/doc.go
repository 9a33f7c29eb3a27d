// Package model defines the core data structures used throughout webstrike.
//
// This package contains the following main types:
//   - Target: The system under test, identified by URL or host:port
//   - ToolRun: One execution of one external security tool
//   - Finding: A normalized security observation extracted from a ToolRun
//   - Report: The aggregated output of a full test run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (tool, normalize, pipeline, report) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
