package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/webstrike/webstrike/internal/config"
	"github.com/webstrike/webstrike/internal/model"
	"github.com/webstrike/webstrike/internal/normalize"
	"github.com/webstrike/webstrike/internal/tool"
)

// Orchestrator executes tools phase by phase and aggregates the results.
//
// Design decision: Tool runs inside a phase execute concurrently via
// errgroup with a limit, but aggregation into the report happens only
// after the phase has fully drained. This keeps the report free of locks
// and makes result order deterministic.
type Orchestrator struct {
	// invoker runs the individual tools.
	invoker *tool.Invoker

	// concurrency limits how many tools run at once within a phase.
	concurrency int

	// runOpts carries credentials and extra args into each invocation.
	runOpts tool.RunOptions

	// overrides holds per-tool settings from the config file. May be nil.
	overrides *config.File

	// logger receives structured progress logs.
	logger *slog.Logger

	// startTime, when non-zero, fixes the report's start time. The CLI
	// uses this to name the results directory after the run ID before
	// the run begins.
	startTime time.Time
}

// Option configures an Orchestrator.
// This follows the functional options pattern for clean API design.
type Option func(*Orchestrator)

// WithInvoker sets the tool invoker.
func WithInvoker(inv *tool.Invoker) Option {
	return func(o *Orchestrator) {
		o.invoker = inv
	}
}

// WithConcurrency sets the maximum number of tools running at once
// within a phase. Default is 3 if not specified.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRunOptions sets credentials and extra args passed to every tool.
func WithRunOptions(opts tool.RunOptions) Option {
	return func(o *Orchestrator) {
		o.runOpts = opts
	}
}

// WithOverrides sets per-tool configuration overrides.
func WithOverrides(overrides *config.File) Option {
	return func(o *Orchestrator) {
		o.overrides = overrides
	}
}

// WithStartTime fixes the report's start time instead of using the
// current time when Execute is called.
func WithStartTime(t time.Time) Option {
	return func(o *Orchestrator) {
		o.startTime = t
	}
}

// WithLogger sets a custom logger for the orchestrator.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates a new Orchestrator with the given options.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		concurrency: 3,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.invoker == nil {
		o.invoker = tool.NewInvoker(tool.WithLogger(o.logger))
	}

	return o
}

// Execute runs the selected tools against the target, phase by phase,
// and returns the aggregated report.
//
// Tool failures never abort the run; they are recorded as failure notes.
// The returned error is non-nil only when the context was cancelled, and
// the partial report is still returned alongside it.
func (o *Orchestrator) Execute(ctx context.Context, target *model.Target, tools []*tool.Tool) (*model.Report, error) {
	started := o.startTime
	if started.IsZero() {
		started = time.Now()
	}
	report := model.NewReport(target, started)

	selected := o.filterDisabled(tools)
	for _, td := range selected {
		report.Tools = append(report.Tools, td.Name)
	}

	o.logger.Info("starting run",
		"run_id", report.RunID,
		"target", target.URL(),
		"tools", len(selected),
		"concurrency", o.concurrency,
	)

	for _, phase := range model.Phases {
		phaseTools := toolsInPhase(selected, phase)
		if len(phaseTools) == 0 {
			report.AddPhaseResult(phase.String(), model.PhaseSkipped, nil)
			continue
		}

		if err := ctx.Err(); err != nil {
			o.logger.Warn("run cancelled", "phase", phase, "reason", err)
			report.FinishedAt = time.Now()
			return report, err
		}

		o.logger.Info("entering phase", "phase", phase, "tools", len(phaseTools))
		status := o.runPhase(ctx, report, phase, phaseTools)
		report.AddPhaseResult(phase.String(), status, toolNames(phaseTools))

		if status == model.PhaseFailed {
			// Phases are advisory: later phases still run.
			o.logger.Warn("phase failed, continuing with later phases", "phase", phase)
		}
	}

	report.FinishedAt = time.Now()

	o.logger.Info("run complete",
		"run_id", report.RunID,
		"duration", report.Duration(),
		"findings", report.TotalFindings(),
		"failures", len(report.FailureNotes),
	)

	return report, nil
}

// runPhase dispatches the phase's tools concurrently, waits for all of
// them, then folds the results into the report in dispatch order.
func (o *Orchestrator) runPhase(ctx context.Context, report *model.Report, phase model.Phase, phaseTools []*tool.Tool) model.PhaseStatus {
	results := make([]*tool.Result, len(phaseTools))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, td := range phaseTools {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			o.logger.Info("dispatching tool", "phase", phase, "tool", td.Name)
			results[i] = o.invoker.Run(gctx, td, report.Target, o.optionsFor(td))
			return nil
		})
	}

	// Run never returns an error; a non-nil error here means cancellation.
	_ = g.Wait() //nolint:errcheck // Cancellation is handled via nil results

	succeeded := false
	for _, res := range results {
		if res == nil {
			continue
		}

		report.AddToolRun(res.Run)

		findings := res.Findings
		if !res.FromProbe {
			findings = normalize.Findings(res.Run)
		}
		for _, f := range findings {
			report.AddFinding(f)
		}

		if res.Run.Status.Succeeded() {
			succeeded = true
		}
	}

	if !succeeded {
		return model.PhaseFailed
	}
	return model.PhaseCompleted
}

// optionsFor merges the orchestrator's run options with per-tool
// overrides from the config file.
func (o *Orchestrator) optionsFor(td *tool.Tool) tool.RunOptions {
	opts := o.runOpts
	if o.overrides == nil {
		return opts
	}

	tc := o.overrides.GetToolConfig(td.Name)
	if len(tc.ExtraArgs) > 0 {
		opts.ExtraArgs = append(append([]string(nil), opts.ExtraArgs...), tc.ExtraArgs...)
	}
	if tc.Timeout > 0 {
		opts.Timeout = tc.Timeout
	}
	return opts
}

// filterDisabled drops tools disabled in the config file.
func (o *Orchestrator) filterDisabled(tools []*tool.Tool) []*tool.Tool {
	if o.overrides == nil {
		return tools
	}

	kept := make([]*tool.Tool, 0, len(tools))
	for _, td := range tools {
		if o.overrides.GetToolConfig(td.Name).Disabled {
			o.logger.Info("tool disabled by configuration", "tool", td.Name)
			continue
		}
		kept = append(kept, td)
	}
	return kept
}

// toolsInPhase returns the tools belonging to the phase, preserving the
// selection order.
func toolsInPhase(tools []*tool.Tool, phase model.Phase) []*tool.Tool {
	var out []*tool.Tool
	for _, td := range tools {
		if td.Phase == phase {
			out = append(out, td)
		}
	}
	return out
}

// toolNames maps tools to their names.
func toolNames(tools []*tool.Tool) []string {
	names := make([]string, len(tools))
	for i, td := range tools {
		names[i] = td.Name
	}
	return names
}
