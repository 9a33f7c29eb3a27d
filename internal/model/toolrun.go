package model

import "time"

// RunStatus describes how a ToolRun ended.
type RunStatus string

const (
	// StatusCompleted means the external tool ran and exited zero.
	StatusCompleted RunStatus = "completed"

	// StatusFailed means the external tool exited non-zero. Output is
	// retained for diagnostics but no findings are derived from it.
	StatusFailed RunStatus = "failed"

	// StatusTimedOut means the tool exceeded its timeout and was killed.
	// Partial output is retained.
	StatusTimedOut RunStatus = "timed_out"

	// StatusDegraded means the external binary was not found on the
	// execution path and an in-process simplified probe ran instead.
	StatusDegraded RunStatus = "degraded"

	// StatusUnavailable means neither the binary nor a fallback probe
	// was available. Output is empty.
	StatusUnavailable RunStatus = "unavailable"
)

// Succeeded reports whether the run produced output that findings may be
// derived from. Failed, timed-out and unavailable runs yield no findings.
func (s RunStatus) Succeeded() bool {
	return s == StatusCompleted || s == StatusDegraded
}

// ToolRun records one invocation of one external security tool against one
// target. It is created when the orchestrator dispatches a tool and is never
// mutated after completion.
type ToolRun struct {
	// Tool is the name of the invoked tool (e.g. "nmap", "sqlmap").
	Tool string `json:"tool"`

	// Phase is the testing phase the tool belongs to.
	Phase Phase `json:"phase"`

	// Target is the system under test.
	Target *Target `json:"target"`

	// Args are the arguments the tool was invoked with.
	Args []string `json:"args,omitempty"`

	// StartedAt is when the invocation began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the process returned or was killed.
	FinishedAt time.Time `json:"finished_at"`

	// Status describes how the run ended.
	Status RunStatus `json:"status"`

	// ExitCode is the process exit code. Zero for in-process fallbacks.
	ExitCode int `json:"exit_code"`

	// Output is the combined stdout/stderr of the tool, or the fallback
	// probe's textual result. Retained even for failed runs.
	Output string `json:"output,omitempty"`

	// OutputFile is the path of the raw output file in the results
	// directory, if one was written.
	OutputFile string `json:"output_file,omitempty"`

	// Error is the invocation-level error message, if any.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r *ToolRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
