// Package main provides the entry point for the WebStrike CLI.
//
// WebStrike orchestrates external security tools against a web application
// and aggregates their output into unified reports.
//
// Usage:
//
//	webstrike run <target-url>
//	webstrike run --tools nmap,nikto <target-url>
//
// See --help for all available options.
package main

// main is the entry point for WebStrike.
func main() {
	Execute()
}
