// Package main provides the entry point for the WebStrike CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for WebStrike.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webstrike",
		Short: "Security tool orchestrator for web application testing",
		Long: `WebStrike runs external security tools (nmap, nikto, sqlmap, and others)
against a web application in phases, normalizes their output into unified
findings, and emits reports in multiple formats.

Tools that are not installed fall back to built-in HTTP probes, so a run
always produces a report even on a machine without the full toolchain.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewToolsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
