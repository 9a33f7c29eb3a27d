package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for scanning a single web application on a lab
// network, which is the typical WebStrike deployment.
const (
	// DefaultToolTimeout is the per-tool execution budget. Five minutes is
	// enough for a focused scan of a single application. Tools that exceed
	// this are killed and recorded as timed out rather than blocking the run.
	DefaultToolTimeout = 5 * time.Minute

	// DefaultConcurrency is the number of tools run in parallel within a
	// phase. Three keeps load on the target moderate; scanners hammering a
	// single application simultaneously can distort each other's results.
	DefaultConcurrency = 3

	// DefaultOutputDir is where raw tool output and reports are written
	// when the user does not specify a directory.
	DefaultOutputDir = "pentest-results"

	// DefaultWaitTimeout is how long `--wait` polls the target before
	// giving up. Lab targets in containers usually come up within a minute.
	DefaultWaitTimeout = 2 * time.Minute

	// DefaultUserAgent identifies WebStrike in HTTP requests made by the
	// built-in probes. A descriptive User-Agent lets operators identify
	// scanner traffic in their logs.
	DefaultUserAgent = "WebStrike/1.0 (+https://github.com/webstrike/webstrike)"

	// DefaultMaxOutputSize limits how much of a tool's stdout is retained
	// in memory. 10MB covers verbose scanners while preventing memory
	// exhaustion from runaway output. The full output still goes to disk.
	DefaultMaxOutputSize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "webstrike"
)

// Environment variable names consumed by WebStrike. These mirror the
// variables used by CI pipelines that drive the tool non-interactively.
const (
	// EnvTargetURL supplies the target when no positional argument is given.
	EnvTargetURL = "TARGET_URL"

	// EnvOutputDir overrides the results directory.
	EnvOutputDir = "PENTEST_OUTPUT_DIR"

	// EnvOpenSearchURL enables result shipping to an OpenSearch endpoint.
	EnvOpenSearchURL = "OPENSEARCH_URL"

	// EnvAutomatedTest marks the run as a scheduled automated test.
	// Accepts the usual boolean spellings (1, true, yes).
	EnvAutomatedTest = "RUN_AUTOMATED_TEST"
)

// Report output formats accepted by the --format flag.
const (
	FormatJSON     = "json"
	FormatHTML     = "html"
	FormatPDF      = "pdf"
	FormatMarkdown = "markdown"
	FormatConsole  = "console"
)

// DefaultFormats are the formats emitted when --format is not given.
// JSON is the machine-readable record, HTML and PDF are for humans.
var DefaultFormats = []string{FormatJSON, FormatHTML, FormatPDF}

// knownFormats is used by Validate to reject typos early.
var knownFormats = map[string]bool{
	FormatJSON:     true,
	FormatHTML:     true,
	FormatPDF:      true,
	FormatMarkdown: true,
	FormatConsole:  true,
}

// Config holds all configuration options for WebStrike.
// This struct is populated from CLI flags and environment variables and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ToolConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// TargetURL is the web application under test. Required.
	// May come from the positional CLI argument or the TARGET_URL
	// environment variable.
	TargetURL string

	// Tools is the list of tools to run. Empty means run every
	// registered tool.
	Tools []string

	// OutputDir is the directory for raw tool output and reports.
	// A per-run subdirectory named after the run ID is created inside it.
	OutputDir string

	// ToolTimeout is the execution budget for each individual tool.
	ToolTimeout time.Duration

	// Concurrency is the number of tools run in parallel within a phase.
	// Phases themselves always run sequentially.
	Concurrency int

	// Formats lists the report formats to emit.
	Formats []string

	// ReportFile overrides the report path for single-format runs.
	// When empty, reports are written into the run directory.
	ReportFile string

	// OpenSearchURL, when set, enables shipping findings to an
	// OpenSearch endpoint after the run. Shipping is best effort and
	// never fails the run.
	OpenSearchURL string

	// Username is an application account used by tools that test
	// authenticated surfaces (hydra credential validation).
	Username string

	// PasswordFile is a path to a file containing candidate passwords,
	// one per line. Never logged.
	PasswordFile string

	// Wait makes the run poll the target until it responds before
	// starting any tools. Useful when the target container is still
	// booting.
	Wait bool

	// WaitTimeout bounds the --wait readiness poll.
	WaitTimeout time.Duration

	// Debug enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Debug bool

	// AutomatedTest marks the run as a scheduled automated test.
	// Set from RUN_AUTOMATED_TEST; recorded in report metadata so
	// scheduled runs can be distinguished from manual ones.
	AutomatedTest bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webstrike.yaml in the current
	// directory and then in the XDG config directory.
	ConfigFilePath string

	// ToolOverrides holds per-tool settings loaded from the config file.
	ToolOverrides *File

	// UserAgent is the User-Agent header sent by built-in probes.
	UserAgent string

	// MaxOutputSize is the maximum tool output retained in memory,
	// in bytes. Set to 0 to use the default.
	MaxOutputSize int64

	// HistoryDir is the directory for the run-history SQLite database.
	// When empty, runs are not persisted. Defaults to the XDG data
	// directory.
	HistoryDir string

	// SaveHistory indicates whether to record the run in the history
	// database. Automatically true when HistoryDir is set.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts,
// concurrency). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:     DefaultOutputDir,
		ToolTimeout:   DefaultToolTimeout,
		Concurrency:   DefaultConcurrency,
		Formats:       append([]string(nil), DefaultFormats...),
		WaitTimeout:   DefaultWaitTimeout,
		UserAgent:     DefaultUserAgent,
		MaxOutputSize: DefaultMaxOutputSize,
		HistoryDir:    XDGDataDir(),
		SaveHistory:   true,
	}
}

// ApplyEnv fills in values from the environment. CLI flags take precedence,
// so this only sets fields that are still at their zero or default value.
func (c *Config) ApplyEnv() {
	if c.TargetURL == "" {
		c.TargetURL = os.Getenv(EnvTargetURL)
	}
	if dir := os.Getenv(EnvOutputDir); dir != "" && c.OutputDir == DefaultOutputDir {
		c.OutputDir = dir
	}
	if c.OpenSearchURL == "" {
		c.OpenSearchURL = os.Getenv(EnvOpenSearchURL)
	}
	if v := os.Getenv(EnvAutomatedTest); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutomatedTest = b
		} else {
			c.AutomatedTest = strings.EqualFold(v, "yes")
		}
	}
}

// XDGDataDir returns the XDG data directory for WebStrike.
// On Linux: ~/.local/share/webstrike
// On macOS: ~/Library/Application Support/webstrike
// On Windows: %LOCALAPPDATA%\webstrike
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for WebStrike.
// On Linux: ~/.config/webstrike
// On macOS: ~/Library/Application Support/webstrike
// On Windows: %APPDATA%\webstrike
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any tools run.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have a target to test
	if c.TargetURL == "" {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would kill tools instantly
	if c.ToolTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Concurrency must be positive; zero would mean no tools run
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if len(c.Formats) == 0 {
		return ErrNoFormats
	}
	for _, f := range c.Formats {
		if !knownFormats[strings.ToLower(f)] {
			return ErrUnknownFormat
		}
	}

	// --report-file only makes sense with exactly one format, otherwise
	// formats would overwrite each other at the same path.
	if c.ReportFile != "" && len(c.Formats) != 1 {
		return ErrReportFileAmbiguous
	}

	if c.WaitTimeout <= 0 {
		return ErrInvalidWaitTimeout
	}

	if c.MaxOutputSize < 0 {
		return ErrInvalidMaxOutputSize
	}

	// A password file without a username cannot be used by any tool
	if c.PasswordFile != "" && c.Username == "" {
		return ErrPasswordWithoutUser
	}

	return nil
}

// NormalizeFormats lowercases and de-duplicates the format list in place.
// Called after Validate so the rest of the code can compare formats
// without case folding.
func (c *Config) NormalizeFormats() {
	seen := make(map[string]bool, len(c.Formats))
	out := c.Formats[:0]
	for _, f := range c.Formats {
		f = strings.ToLower(f)
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	c.Formats = out
}
