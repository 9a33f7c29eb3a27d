package main

import (
	"fmt"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/webstrike/webstrike/internal/tool"
)

// NewToolsCmd creates the tools command.
func NewToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered security tools and their availability",
		Long: `Tools lists every registered security tool with its phase, a short
description, and whether the binary is installed on PATH.

Tools whose binary is missing are not skipped during a run: WebStrike
falls back to a built-in HTTP probe and marks the run as degraded.`,
		RunE: runToolsCmd,
	}
}

// runToolsCmd executes the tools command.
func runToolsCmd(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tPHASE\tAVAILABLE\tDESCRIPTION")
	for _, td := range tool.All() {
		available := "yes"
		if _, err := exec.LookPath(td.Binary); err != nil {
			available = "no (built-in probe)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", td.Name, td.Phase, available, td.Description)
	}

	return w.Flush()
}
