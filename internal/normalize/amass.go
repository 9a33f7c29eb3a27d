package normalize

import (
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// parseAmass reads amass enum output. Modern amass prints discovery
// lines like:
//
//	www.example.com (FQDN) --> a_record --> 10.0.0.5 (IPAddress)
//
// Older releases print one bare hostname per line. Both forms are
// accepted; anything else on stderr (progress bars, banners) is skipped.
func parseAmass(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	seen := make(map[string]bool)
	recognized := false

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var host string
		switch {
		case strings.Contains(line, "(FQDN)"):
			host = strings.TrimSpace(strings.SplitN(line, "(FQDN)", 2)[0])
		case isHostname(line):
			host = line
		default:
			continue
		}
		recognized = true

		if host == "" || seen[host] {
			continue
		}
		seen[host] = true

		f := model.NewFinding("amass", "subdomain-discovered",
			fmt.Sprintf("Subdomain %s", host),
			fmt.Sprintf("The host %s was discovered during enumeration and may widen the attack surface.", host))
		f.Location = host
		findings = append(findings, f)
	}

	if !recognized {
		return nil, errUnparseable
	}
	return findings, nil
}

// isHostname reports whether line looks like a bare DNS name.
func isHostname(line string) bool {
	if strings.ContainsAny(line, " \t:[]") {
		return false
	}
	if !strings.Contains(line, ".") {
		return false
	}
	for _, r := range line {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
