package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no target URL is specified.
	// This error occurs when neither the positional argument nor the
	// TARGET_URL environment variable provides a target.
	ErrNoTarget = errors.New("no target specified: provide a target URL or set TARGET_URL")

	// ErrInvalidTimeout is returned when the per-tool timeout is not positive.
	// A timeout of zero or negative would kill every tool immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	// A concurrency of zero would mean no tools run at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrNoFormats is returned when the report format list is empty.
	ErrNoFormats = errors.New("no report formats specified")

	// ErrUnknownFormat is returned when --format names a format the tool
	// does not support. Supported: json, html, pdf, markdown, console.
	ErrUnknownFormat = errors.New("unknown report format: supported formats are json, html, pdf, markdown, console")

	// ErrReportFileAmbiguous is returned when --report-file is combined
	// with more than one output format. The formats would overwrite each
	// other at the same path.
	ErrReportFileAmbiguous = errors.New("--report-file requires exactly one --format")

	// ErrInvalidWaitTimeout is returned when the readiness wait timeout
	// is not positive.
	ErrInvalidWaitTimeout = errors.New("invalid wait timeout: must be positive")

	// ErrInvalidMaxOutputSize is returned when the max output size is negative.
	// A negative size is invalid; use 0 to use the default limit.
	ErrInvalidMaxOutputSize = errors.New("invalid max output size: must be non-negative")

	// ErrPasswordWithoutUser is returned when --password-file is given
	// without --username. No tool can use passwords without an account name.
	ErrPasswordWithoutUser = errors.New("--password-file requires --username")
)
