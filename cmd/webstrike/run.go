package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webstrike/webstrike/internal/config"
	"github.com/webstrike/webstrike/internal/database"
	"github.com/webstrike/webstrike/internal/log"
	"github.com/webstrike/webstrike/internal/model"
	"github.com/webstrike/webstrike/internal/opensearch"
	"github.com/webstrike/webstrike/internal/pipeline"
	"github.com/webstrike/webstrike/internal/report"
	"github.com/webstrike/webstrike/internal/tool"
)

// ingestTimeout bounds the post-run OpenSearch shipping. Shipping is best
// effort; a slow endpoint must not hold the run open indefinitely.
const ingestTimeout = 30 * time.Second

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [target-url]",
		Short: "Run security tools against a target web application",
		Long: `Run executes the selected security tools against the target, phase by
phase (recon, vulnerability assessment, exploitation, post-exploitation),
normalizes their output into unified findings, and emits reports.

The target may be given as a positional argument or via the TARGET_URL
environment variable. Tool failures never abort the run; they are recorded
in the report as failure notes and the exit code stays zero.

Examples:
  # Run every registered tool against a target
  webstrike run http://target.test:3000

  # Run only nmap and nikto
  webstrike run --tools nmap,nikto http://target.test:3000

  # Wait for the target to come up first (e.g. a booting container)
  webstrike run --wait http://target.test:3000

  # Emit a single Markdown report to a specific file
  webstrike run --format markdown --report-file report.md http://target.test:3000

  # Ship findings to OpenSearch after the run
  webstrike run --opensearch http://localhost:9200 http://target.test:3000

  # Enable credential testing tools
  webstrike run --username admin --password-file passwords.txt http://target.test:3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}

	// Tool selection flags
	cmd.Flags().StringSliceP("tools", "t", nil,
		"Comma-separated list of tools to run (default: all registered tools)")
	cmd.Flags().Duration("timeout", config.DefaultToolTimeout,
		"Execution budget for each individual tool")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of tools run in parallel within a phase")

	// Credential flags for tools that test authenticated surfaces
	cmd.Flags().StringP("username", "u", "",
		"Application account for credential testing tools")
	cmd.Flags().StringP("password-file", "P", "",
		"File containing candidate passwords, one per line")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory for raw tool output and reports")
	cmd.Flags().StringSliceP("format", "f", config.DefaultFormats,
		"Report formats to emit (json, html, pdf, markdown, console)")
	cmd.Flags().String("report-file", "",
		"Report path for single-format runs (default: inside the run directory)")

	// Target readiness flags
	cmd.Flags().BoolP("wait", "w", false,
		"Poll the target until it accepts connections before starting")
	cmd.Flags().Duration("wait-timeout", config.DefaultWaitTimeout,
		"How long --wait polls before giving up")

	// Integration flags
	cmd.Flags().String("opensearch", "",
		"OpenSearch endpoint to ship findings to (e.g. http://localhost:9200)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webstrike.yaml in current or XDG config directory)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Environment variables fill in anything flags left unset
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	cfg.NormalizeFormats()

	// Set up structured logging with credential sanitization
	logger := log.NewSecureLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runStrike(ctx, cfg, logger, cmd.OutOrStdout())
}

// getDebugFlag retrieves the debug flag from the command or its parent.
func getDebugFlag(cmd *cobra.Command) bool {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		debug, err = cmd.Root().PersistentFlags().GetBool("debug")
		if err != nil {
			return false
		}
	}
	return debug
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	if len(args) > 0 {
		cfg.TargetURL = args[0]
	}

	cfg.Tools, err = cmd.Flags().GetStringSlice("tools")
	if err != nil {
		return nil, err
	}

	cfg.ToolTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Username, err = cmd.Flags().GetString("username")
	if err != nil {
		return nil, err
	}

	cfg.PasswordFile, err = cmd.Flags().GetString("password-file")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.Formats, err = cmd.Flags().GetStringSlice("format")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	cfg.Wait, err = cmd.Flags().GetBool("wait")
	if err != nil {
		return nil, err
	}

	cfg.WaitTimeout, err = cmd.Flags().GetDuration("wait-timeout")
	if err != nil {
		return nil, err
	}

	cfg.OpenSearchURL, err = cmd.Flags().GetString("opensearch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Debug = getDebugFlag(cmd)

	// Load per-tool overrides from the config file.
	// If the user explicitly specified a path, error when it is missing.
	// Otherwise silently run without overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.ToolOverrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runStrike executes the full run: tool orchestration, report emission,
// OpenSearch shipping, and history persistence.
func runStrike(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	target, err := model.ParseTarget(cfg.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", cfg.TargetURL, err)
	}

	tools, err := tool.Resolve(cfg.Tools)
	if err != nil {
		return err
	}

	// Open the history database up front so a broken database surfaces
	// before tools start. History is best effort: failure to open only
	// disables persistence.
	var db *database.HistoryDB
	if cfg.SaveHistory && cfg.HistoryDir != "" {
		db, err = database.Open(cfg.HistoryDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history database unavailable, run will not be recorded",
				"dir", cfg.HistoryDir, "error", err.Error())
		} else {
			defer db.Close()
		}
	}

	if cfg.Wait {
		if err := pipeline.WaitForTarget(ctx, target, cfg.WaitTimeout, logger); err != nil {
			return err
		}
	}

	// The run directory is named after the run ID, so fix the start time
	// before the orchestrator creates the report.
	started := time.Now()
	runDir := filepath.Join(cfg.OutputDir, model.RunIDFor(started))

	invoker := tool.NewInvoker(
		tool.WithLogger(logger),
		tool.WithTimeout(cfg.ToolTimeout),
		tool.WithMaxOutput(cfg.MaxOutputSize),
		tool.WithRunDir(runDir),
	)

	orch := pipeline.New(
		pipeline.WithInvoker(invoker),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithRunOptions(tool.RunOptions{
			Username:     cfg.Username,
			PasswordFile: cfg.PasswordFile,
		}),
		pipeline.WithOverrides(cfg.ToolOverrides),
		pipeline.WithLogger(logger),
		pipeline.WithStartTime(started),
	)

	fmt.Fprintf(stdout, "Starting run against %s (%d tools)...\n\n", target.URL(), len(tools))

	runReport, execErr := orch.Execute(ctx, target, tools)
	runReport.AutomatedTest = cfg.AutomatedTest

	// Emit reports even for a cancelled run; partial results are still
	// worth keeping.
	if err := emitReports(cfg, runReport, runDir, stdout); err != nil {
		logger.Error("report emission failed", "error", err.Error())
		if execErr == nil {
			execErr = err
		}
	}

	shipToOpenSearch(ctx, cfg, runReport, logger)

	saveRunHistory(ctx, db, runReport, logger)

	if execErr != nil {
		return execErr
	}

	fmt.Fprintf(stdout, "\nRun %s complete in %s: %d findings (%d tool failures)\n",
		runReport.RunID,
		runReport.Duration().Round(time.Millisecond),
		runReport.TotalFindings(),
		len(runReport.FailureNotes),
	)

	// Tool failures are recorded in the report, not the exit code.
	return nil
}

// emitReports writes one report per requested format. File formats go to
// the run directory unless --report-file overrides the path; the console
// format always goes to stdout.
func emitReports(cfg *config.Config, runReport *model.Report, runDir string, stdout io.Writer) error {
	var errs []error

	for _, format := range cfg.Formats {
		if format == config.FormatConsole {
			w := report.NewConsoleWriter(stdout)
			if _, err := w.Write(runReport); err != nil {
				errs = append(errs, fmt.Errorf("console report: %w", err))
			}
			continue
		}

		path := cfg.ReportFile
		if path == "" {
			path = filepath.Join(runDir, reportFileName(format))
		}

		if err := writeReportFile(format, path, runReport); err != nil {
			errs = append(errs, fmt.Errorf("%s report: %w", format, err))
			continue
		}
		fmt.Fprintf(stdout, "Report written: %s\n", path)
	}

	return errors.Join(errs...)
}

// reportFileName returns the default file name for a format.
func reportFileName(format string) string {
	switch format {
	case config.FormatMarkdown:
		return "report.md"
	default:
		return "report." + format
	}
}

// writeReportFile writes a single report file with owner-only permissions.
// Reports may contain sensitive information about the target.
func writeReportFile(format, path string, runReport *model.Report) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // User-chosen report path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	var w report.Writer
	switch format {
	case config.FormatJSON:
		w = report.NewJSONWriter(f, report.WithPrettyPrint())
	case config.FormatHTML:
		w = report.NewHTMLWriter(f)
	case config.FormatPDF:
		w = report.NewPDFWriter(f)
	case config.FormatMarkdown:
		w = report.NewMarkdownWriter(f)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	_, err = w.Write(runReport)
	return err
}

// shipToOpenSearch sends findings to the configured OpenSearch endpoint.
// Shipping is best effort: failures are logged and never fail the run.
func shipToOpenSearch(ctx context.Context, cfg *config.Config, runReport *model.Report, logger *slog.Logger) {
	if cfg.OpenSearchURL == "" {
		return
	}

	// Use a fresh timeout so shipping still works when the run context
	// was cancelled mid-run.
	ingestCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ingestTimeout)
	defer cancel()

	indexer := opensearch.NewIndexer(cfg.OpenSearchURL, opensearch.WithLogger(logger))

	if err := indexer.EnsureTemplate(ingestCtx); err != nil {
		logger.Warn("opensearch template setup failed", "error", err.Error())
	}
	if err := indexer.Ingest(ingestCtx, runReport); err != nil {
		logger.Warn("opensearch ingestion failed, results are still on disk", "error", err.Error())
		return
	}

	logger.Info("findings shipped to opensearch",
		"url", cfg.OpenSearchURL, "findings", runReport.TotalFindings())
}

// saveRunHistory records the run in the history database.
// If db is nil, this function is a no-op.
func saveRunHistory(ctx context.Context, db *database.HistoryDB, runReport *model.Report, logger *slog.Logger) {
	if db == nil {
		return
	}

	if err := db.SaveRun(context.WithoutCancel(ctx), runReport); err != nil {
		logger.Warn("failed to save run history", "run_id", runReport.RunID, "error", err.Error())
		return
	}

	logger.Info("run saved to history", "run_id", runReport.RunID)
}
