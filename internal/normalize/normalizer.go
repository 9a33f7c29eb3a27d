package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// errUnparseable signals that a parser did not recognize the output
// format. The caller degrades to a raw-output finding instead of
// propagating the error.
var errUnparseable = errors.New("unrecognized tool output")

// parseFunc converts one tool run's raw output into findings.
// Returning errUnparseable (or any error) means the output format was
// not understood; returning an empty slice means a clean scan.
type parseFunc func(run *model.ToolRun) ([]model.Finding, error)

// parsers maps tool names to their output parsers. Tools without an
// entry (bloodhound, crackmapexec) fall through to the raw-output
// degrade in Findings.
var parsers = map[string]parseFunc{
	"nmap":       parseNmap,
	"amass":      parseAmass,
	"nikto":      parseNikto,
	"nuclei":     parseNuclei,
	"zap":        parseZAP,
	"sqlmap":     parseSQLMap,
	"hydra":      parseHydra,
	"metasploit": parseMetasploit,
}

// Findings converts a tool run's output into normalized findings.
//
// The contract with the orchestrator:
//   - Runs that did not succeed yield no findings; the failure is
//     already recorded as a failure note on the report.
//   - Empty output yields no findings.
//   - Output the parser does not understand yields exactly one
//     informational raw-output finding so the data stays visible.
func Findings(run *model.ToolRun) []model.Finding {
	if run == nil || !run.Status.Succeeded() {
		return nil
	}
	if strings.TrimSpace(run.Output) == "" {
		return nil
	}

	parse, ok := parsers[run.Tool]
	if !ok {
		return []model.Finding{rawOutputFinding(run)}
	}

	findings, err := parse(run)
	if err != nil {
		return []model.Finding{rawOutputFinding(run)}
	}
	return findings
}

// rawOutputFinding wraps unparseable output in a single informational
// finding.
func rawOutputFinding(run *model.ToolRun) model.Finding {
	f := model.NewFinding(run.Tool, "raw-output",
		fmt.Sprintf("Unparsed %s output", run.Tool),
		fmt.Sprintf("The output of %s could not be normalized. The raw output is preserved for manual review.", run.Tool))
	f.Evidence = truncate(run.Output, 2000)
	if run.OutputFile != "" {
		f.Location = run.OutputFile
	}
	return f
}

// truncate shortens s to at most n bytes, appending a marker when cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n[truncated]"
}
