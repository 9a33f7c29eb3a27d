package tool

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/webstrike/webstrike/internal/model"
)

// ErrUnknownTool is returned when a tool name is not in the registry.
var ErrUnknownTool = errors.New("unknown tool")

// RunOptions carries per-run values that influence how a tool executes.
type RunOptions struct {
	// Username is the application account for credential testing tools.
	Username string

	// PasswordFile is a path to candidate passwords, one per line.
	PasswordFile string

	// ExtraArgs come from the configuration file and are appended to
	// the generated argument list.
	ExtraArgs []string

	// Timeout overrides the invoker's default execution timeout.
	// Zero means use the default.
	Timeout time.Duration
}

// Tool describes one supported external security tool.
//
// Design decision: We use a data table rather than one type per tool
// because the tools differ only in their binary name, phase, and argument
// construction. Output parsing, which genuinely differs per tool, lives in
// the normalize package.
type Tool struct {
	// Name is the registry name used on the CLI (e.g., "nmap").
	Name string

	// Binary is the executable looked up on PATH. Usually equal to
	// Name, but some tools install under a different binary name.
	Binary string

	// Phase is the testing phase this tool belongs to.
	Phase model.Phase

	// Description is a one-line summary shown by `webstrike tools`.
	Description string

	// NeedsCredentials marks tools that require --username and
	// --password-file to do anything useful. Such tools are skipped
	// with a log message when credentials are absent.
	NeedsCredentials bool

	// BuildArgs constructs the command-line arguments for the target.
	BuildArgs func(target *model.Target, opts RunOptions) []string
}

// registry holds every supported tool keyed by name.
var registry = map[string]*Tool{
	"nmap": {
		Name:        "nmap",
		Binary:      "nmap",
		Phase:       model.PhaseRecon,
		Description: "Port and service version scan",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"-sV", "-Pn", "--top-ports", "1000", "-oG", "-"}
			args = append(args, opts.ExtraArgs...)
			return append(args, t.Host)
		},
	},
	"amass": {
		Name:        "amass",
		Binary:      "amass",
		Phase:       model.PhaseRecon,
		Description: "Passive subdomain enumeration",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"enum", "-passive", "-d", t.Host}
			return append(args, opts.ExtraArgs...)
		},
	},
	"nikto": {
		Name:        "nikto",
		Binary:      "nikto",
		Phase:       model.PhaseVulnAssessment,
		Description: "Web server misconfiguration scan",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"-h", t.URL(), "-nointeractive", "-ask", "no"}
			return append(args, opts.ExtraArgs...)
		},
	},
	"nuclei": {
		Name:        "nuclei",
		Binary:      "nuclei",
		Phase:       model.PhaseVulnAssessment,
		Description: "Template-based vulnerability scan",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"-u", t.URL(), "-jsonl", "-silent", "-no-color"}
			return append(args, opts.ExtraArgs...)
		},
	},
	"zap": {
		Name:        "zap",
		Binary:      "zap-baseline.py",
		Phase:       model.PhaseVulnAssessment,
		Description: "ZAP passive baseline scan",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"-t", t.URL(), "-I"}
			return append(args, opts.ExtraArgs...)
		},
	},
	"sqlmap": {
		Name:        "sqlmap",
		Binary:      "sqlmap",
		Phase:       model.PhaseExploitation,
		Description: "SQL injection detection and verification",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"-u", t.URL(), "--batch", "--crawl=2", "--level=1", "--risk=1"}
			return append(args, opts.ExtraArgs...)
		},
	},
	"hydra": {
		Name:             "hydra",
		Binary:           "hydra",
		Phase:            model.PhaseExploitation,
		Description:      "Credential strength validation against the login endpoint",
		NeedsCredentials: true,
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{
				"-l", opts.Username,
				"-P", opts.PasswordFile,
				"-s", fmt.Sprintf("%d", t.Port),
				t.Host,
				"http-post-form",
				"/rest/user/login:email=^USER^&password=^PASS^:F=Invalid",
			}
			return append(args, opts.ExtraArgs...)
		},
	},
	"metasploit": {
		Name:        "metasploit",
		Binary:      "msfconsole",
		Phase:       model.PhaseExploitation,
		Description: "HTTP version fingerprint via auxiliary scanner",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			cmd := fmt.Sprintf(
				"use auxiliary/scanner/http/http_version; set RHOSTS %s; set RPORT %d; run; exit",
				t.Host, t.Port,
			)
			args := []string{"-q", "-x", cmd}
			return append(args, opts.ExtraArgs...)
		},
	},
	"bloodhound": {
		Name:        "bloodhound",
		Binary:      "bloodhound-python",
		Phase:       model.PhasePostExploitation,
		Description: "Active Directory relationship collection",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"-d", t.Host, "-c", "DCOnly", "--zip"}
			return append(args, opts.ExtraArgs...)
		},
	},
	"crackmapexec": {
		Name:        "crackmapexec",
		Binary:      "crackmapexec",
		Phase:       model.PhasePostExploitation,
		Description: "SMB surface enumeration",
		BuildArgs: func(t *model.Target, opts RunOptions) []string {
			args := []string{"smb", t.Host}
			return append(args, opts.ExtraArgs...)
		},
	},
}

// Lookup returns the tool with the given name.
// Returns ErrUnknownTool if the name is not registered.
func Lookup(name string) (*Tool, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// Names returns all registered tool names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered tools in alphabetical name order.
func All() []*Tool {
	tools := make([]*Tool, 0, len(registry))
	for _, name := range Names() {
		tools = append(tools, registry[name])
	}
	return tools
}

// ForPhase returns the tools belonging to the given phase, in
// alphabetical name order.
func ForPhase(phase model.Phase) []*Tool {
	var tools []*Tool
	for _, t := range All() {
		if t.Phase == phase {
			tools = append(tools, t)
		}
	}
	return tools
}

// Resolve maps tool names to registry entries, preserving order.
// An empty name list means every registered tool.
func Resolve(names []string) ([]*Tool, error) {
	if len(names) == 0 {
		return All(), nil
	}

	tools := make([]*Tool, 0, len(names))
	for _, name := range names {
		t, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}
