package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

// Default invoker settings.
const (
	// defaultTimeout bounds each tool execution when no override is given.
	defaultTimeout = 5 * time.Minute

	// defaultMaxOutput limits tool output retained in memory. The raw
	// output file on disk is not subject to this limit because it is
	// streamed through the same buffer before writing.
	defaultMaxOutput = 10 * 1024 * 1024 // 10MB
)

// Result is the outcome of invoking one tool.
type Result struct {
	// Run records the execution itself.
	Run *model.ToolRun

	// Findings is non-nil only when the built-in probe ran in place of
	// the real tool. Findings from real tool output are produced later
	// by the normalize package.
	Findings []model.Finding

	// FromProbe indicates the built-in probe ran instead of the tool.
	FromProbe bool
}

// Invoker executes external tools and records their outcomes.
//
// Design decision: We use a struct with injected lookPath and prober
// rather than calling exec.LookPath directly because:
//  1. Tests can simulate missing binaries without touching PATH
//  2. The probe fallback can be exercised deterministically
//  3. Client configuration stays consistent across invocations
type Invoker struct {
	// logger receives structured progress and failure logs.
	logger *slog.Logger

	// timeout is the default per-tool execution budget.
	timeout time.Duration

	// maxOutput caps the output retained in memory, in bytes.
	maxOutput int64

	// runDir is where raw tool output files are written.
	// Empty disables output files.
	runDir string

	// lookPath resolves a binary name to an executable path.
	lookPath func(string) (string, error)

	// prober runs built-in checks when a binary is missing.
	prober *Prober
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithLogger sets the logger used for progress and failure logs.
func WithLogger(logger *slog.Logger) InvokerOption {
	return func(inv *Invoker) {
		inv.logger = logger
	}
}

// WithTimeout sets the default per-tool execution timeout.
func WithTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.timeout = d
	}
}

// WithMaxOutput sets the maximum tool output retained in memory.
func WithMaxOutput(n int64) InvokerOption {
	return func(inv *Invoker) {
		inv.maxOutput = n
	}
}

// WithRunDir sets the directory for raw tool output files.
func WithRunDir(dir string) InvokerOption {
	return func(inv *Invoker) {
		inv.runDir = dir
	}
}

// WithLookPath replaces the binary resolver. Used in tests to simulate
// installed or missing tools.
func WithLookPath(fn func(string) (string, error)) InvokerOption {
	return func(inv *Invoker) {
		inv.lookPath = fn
	}
}

// WithProber sets the built-in probe implementation.
func WithProber(p *Prober) InvokerOption {
	return func(inv *Invoker) {
		inv.prober = p
	}
}

// NewInvoker creates an Invoker with the given options.
func NewInvoker(opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		logger:    slog.Default(),
		timeout:   defaultTimeout,
		maxOutput: defaultMaxOutput,
		lookPath:  exec.LookPath,
	}

	for _, opt := range opts {
		opt(inv)
	}

	if inv.prober == nil {
		inv.prober = NewProber(WithProberLogger(inv.logger))
	}

	return inv
}

// Run executes the tool against the target and returns the outcome.
// Run never returns an error: every failure mode is recorded in the
// ToolRun status so the orchestrator can keep going.
func (inv *Invoker) Run(ctx context.Context, td *Tool, target *model.Target, opts RunOptions) *Result {
	run := &model.ToolRun{
		Tool:      td.Name,
		Phase:     td.Phase,
		Target:    target,
		StartedAt: time.Now(),
	}

	if td.NeedsCredentials && (opts.Username == "" || opts.PasswordFile == "") {
		run.FinishedAt = time.Now()
		run.Status = model.StatusUnavailable
		run.ExitCode = -1
		run.Error = "requires --username and --password-file"
		inv.logger.Info("skipping tool without credentials", "tool", td.Name)
		return &Result{Run: run}
	}

	path, err := inv.lookPath(td.Binary)
	if err != nil {
		inv.logger.Info("tool binary not found, using built-in probe",
			"tool", td.Name, "binary", td.Binary)
		return inv.runProbe(ctx, td, target, opts, run)
	}

	run.Args = td.BuildArgs(target, opts)

	timeout := inv.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	inv.logger.Debug("running tool", "tool", td.Name, "binary", path, "args", run.Args)

	out := &limitWriter{limit: inv.maxOutput}
	cmd := exec.CommandContext(execCtx, path, run.Args...) //nolint:gosec // Args come from the tool table, not user input
	cmd.Stdout = out
	cmd.Stderr = out

	runErr := cmd.Run()
	run.FinishedAt = time.Now()
	run.Output = out.String()

	inv.writeOutputFile(run)

	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		run.Status = model.StatusTimedOut
		run.ExitCode = -1
		run.Error = fmt.Sprintf("killed after %s", timeout)
		inv.logger.Warn("tool timed out", "tool", td.Name, "timeout", timeout)
	case runErr != nil:
		run.Status = model.StatusFailed
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			run.ExitCode = exitErr.ExitCode()
		} else {
			run.ExitCode = -1
		}
		run.Error = runErr.Error()
		inv.logger.Warn("tool failed", "tool", td.Name, "exit_code", run.ExitCode, "error", runErr.Error())
	default:
		run.Status = model.StatusCompleted
		run.ExitCode = 0
		inv.logger.Info("tool completed", "tool", td.Name, "duration", run.Duration())
	}

	return &Result{Run: run}
}

// runProbe executes the built-in probe for a tool whose binary is missing.
// A successful probe yields a degraded run with findings; a failed probe
// marks the tool unavailable.
func (inv *Invoker) runProbe(ctx context.Context, td *Tool, target *model.Target, opts RunOptions, run *model.ToolRun) *Result {
	timeout := inv.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, findings, err := inv.prober.Probe(probeCtx, td, target, opts)
	run.FinishedAt = time.Now()
	run.Output = output
	run.ExitCode = -1

	if err != nil {
		run.Status = model.StatusUnavailable
		run.Error = fmt.Sprintf("binary %q not installed and built-in probe failed: %v", td.Binary, err)
		inv.logger.Warn("tool unavailable", "tool", td.Name, "error", err.Error())
		return &Result{Run: run, FromProbe: true}
	}

	inv.writeOutputFile(run)

	run.Status = model.StatusDegraded
	inv.logger.Info("built-in probe completed", "tool", td.Name, "findings", len(findings))
	return &Result{Run: run, Findings: findings, FromProbe: true}
}

// writeOutputFile saves the raw tool output under the run directory.
// Failure to write is logged but never fails the run; the output is
// still available in memory for normalization.
func (inv *Invoker) writeOutputFile(run *model.ToolRun) {
	if inv.runDir == "" || run.Output == "" {
		return
	}

	name := fmt.Sprintf("%s_%s.log", run.Tool, run.StartedAt.UTC().Format("20060102T150405Z"))
	path := filepath.Join(inv.runDir, name)

	if err := os.MkdirAll(inv.runDir, 0o750); err != nil {
		inv.logger.Warn("cannot create run directory", "dir", inv.runDir, "error", err.Error())
		return
	}
	if err := os.WriteFile(path, []byte(run.Output), 0o600); err != nil {
		inv.logger.Warn("cannot write tool output file", "path", path, "error", err.Error())
		return
	}

	run.OutputFile = path
}

// limitWriter buffers writes up to a byte limit and silently discards
// the rest. It never returns an error so the command keeps running even
// when its output exceeds the limit.
type limitWriter struct {
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

// Write implements io.Writer.
func (w *limitWriter) Write(p []byte) (int, error) {
	n := len(p)
	room := w.limit - int64(w.buf.Len())
	if room <= 0 {
		w.truncated = true
		return n, nil
	}
	if int64(len(p)) > room {
		p = p[:room]
		w.truncated = true
	}
	w.buf.Write(p)
	return n, nil
}

// String returns the buffered output, with a truncation marker when the
// limit was reached.
func (w *limitWriter) String() string {
	if w.truncated {
		return w.buf.String() + "\n[output truncated]\n"
	}
	return w.buf.String()
}
