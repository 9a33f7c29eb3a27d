package model

import (
	"fmt"
	"time"
)

// PhaseStatus describes the outcome of one testing phase.
type PhaseStatus string

const (
	// PhaseCompleted means at least one tool in the phase succeeded.
	PhaseCompleted PhaseStatus = "completed"

	// PhaseFailed means every tool in the phase failed or timed out.
	// Later phases still attempt to run.
	PhaseFailed PhaseStatus = "failed"

	// PhaseSkipped means the phase had no selected tools.
	PhaseSkipped PhaseStatus = "skipped"
)

// PhaseResult records the outcome of one phase within a run.
type PhaseResult struct {
	// Name is the phase name (e.g. "recon", "exploitation").
	Name string `json:"name"`

	// Status is the aggregate outcome of the phase.
	Status PhaseStatus `json:"status"`

	// Tools lists the tools dispatched in this phase.
	Tools []string `json:"tools,omitempty"`
}

// FailureNote records a tool failure so that failed runs remain visible in
// the report instead of silently dropping data.
type FailureNote struct {
	// Tool is the tool whose run failed.
	Tool string `json:"tool"`

	// Status is the terminal run status (failed, timed_out, unavailable).
	Status RunStatus `json:"status"`

	// Detail explains the failure.
	Detail string `json:"detail,omitempty"`
}

// Report is the aggregated result of a full test run against one target.
// It is created once per run and treated as immutable after emission.
//
// Design decision: The report is a plain accumulator with no locking. The
// orchestrator guarantees single-threaded access by aggregating tool runs
// only after each phase has fully drained.
type Report struct {
	// RunID uniquely identifies this run. It is derived from the start
	// timestamp so results directories sort chronologically.
	RunID string `json:"run_id"`

	// Target is the system under test.
	Target *Target `json:"target"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Tools lists the tools selected for this run.
	Tools []string `json:"tools"`

	// Phases records the outcome of each phase in execution order.
	Phases []PhaseResult `json:"phases"`

	// ToolRuns contains every tool invocation in dispatch order.
	ToolRuns []*ToolRun `json:"tool_runs"`

	// Findings contains all normalized findings in aggregation order.
	Findings []Finding `json:"findings"`

	// FailureNotes records tool failures (no silent data loss).
	FailureNotes []FailureNote `json:"failure_notes,omitempty"`

	// AutomatedTest marks runs started by a scheduler rather than an
	// operator. Set from the RUN_AUTOMATED_TEST environment variable.
	AutomatedTest bool `json:"automated_test,omitempty"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// RunIDFor derives the run identifier from a start time. The timestamp
// form makes results directories sort chronologically.
func RunIDFor(started time.Time) string {
	return fmt.Sprintf("run_%s", started.UTC().Format("20060102_150405"))
}

// NewReport creates a new report for the given target.
func NewReport(target *Target, started time.Time) *Report {
	return &Report{
		RunID:     RunIDFor(started),
		Target:    target,
		StartedAt: started,
	}
}

// AddToolRun records a completed tool run. Runs that did not succeed also
// get a failure note so the failure is visible in the final report.
func (r *Report) AddToolRun(run *ToolRun) {
	r.ToolRuns = append(r.ToolRuns, run)

	if !run.Status.Succeeded() {
		detail := run.Error
		if detail == "" {
			detail = fmt.Sprintf("tool exited with status %s (exit code %d)", run.Status, run.ExitCode)
		}
		r.FailureNotes = append(r.FailureNotes, FailureNote{
			Tool:   run.Tool,
			Status: run.Status,
			Detail: detail,
		})
	}
}

// AddFinding appends a finding and updates the severity counters.
// Duplicate findings (same tool, category, title, location and evidence)
// are dropped so that retried probes don't inflate counts. Title is part
// of the key because findings in one category can differ only by title,
// like the per-header missing-security-header findings.
func (r *Report) AddFinding(finding Finding) {
	for _, f := range r.Findings {
		if f.Tool == finding.Tool && f.Category == finding.Category &&
			f.Title == finding.Title &&
			f.Location == finding.Location && f.Evidence == finding.Evidence {
			return
		}
	}

	r.Findings = append(r.Findings, finding)

	switch finding.Severity {
	case SeverityCritical:
		r.CriticalCount++
	case SeverityHigh:
		r.HighCount++
	case SeverityMedium:
		r.MediumCount++
	case SeverityLow:
		r.LowCount++
	case SeverityInfo:
		r.InfoCount++
	}
}

// AddPhaseResult records the outcome of one phase.
func (r *Report) AddPhaseResult(name string, status PhaseStatus, tools []string) {
	r.Phases = append(r.Phases, PhaseResult{
		Name:   name,
		Status: status,
		Tools:  tools,
	})
}

// RunForTool returns the recorded run for the named tool, or nil.
func (r *Report) RunForTool(tool string) *ToolRun {
	for _, run := range r.ToolRuns {
		if run.Tool == tool {
			return run
		}
	}
	return nil
}

// TotalFindings returns the total number of findings.
func (r *Report) TotalFindings() int {
	return len(r.Findings)
}

// HasFindings returns true if there are any findings.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// FindingsBySeverity returns findings filtered by severity.
func (r *Report) FindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// CountBySeverity returns the counter for the given severity.
func (r *Report) CountBySeverity(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return r.CriticalCount
	case SeverityHigh:
		return r.HighCount
	case SeverityMedium:
		return r.MediumCount
	case SeverityLow:
		return r.LowCount
	case SeverityInfo:
		return r.InfoCount
	default:
		return 0
	}
}

// Duration returns the total run duration.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
