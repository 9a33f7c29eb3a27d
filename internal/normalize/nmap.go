package normalize

import (
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// riskyServiceNames are nmap service names that should not be exposed on
// a web application host.
var riskyServiceNames = map[string]bool{
	"ftp":           true,
	"telnet":        true,
	"microsoft-ds":  true,
	"ms-sql-s":      true,
	"mysql":         true,
	"ms-wbt-server": true,
	"postgresql":    true,
	"vnc":           true,
	"redis":         true,
	"mongodb":       true,
	"elasticsearch": true,
}

// parseNmap reads nmap's grepable output (-oG -).
//
// A ports line looks like:
//
//	Host: 10.0.0.5 ()  Ports: 22/open/tcp//ssh//OpenSSH 8.9/, 3000/open/tcp//http//Node.js/
func parseNmap(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := false

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# Nmap") || strings.HasPrefix(line, "Host:") {
			recognized = true
		}

		_, portsPart, found := strings.Cut(line, "Ports:")
		if !found {
			continue
		}

		for _, entry := range strings.Split(portsPart, ",") {
			fields := strings.Split(strings.TrimSpace(entry), "/")
			if len(fields) < 5 {
				continue
			}
			port, state, service := fields[0], fields[1], fields[4]
			if state != "open" {
				continue
			}

			version := ""
			if len(fields) >= 7 {
				version = strings.TrimSpace(fields[6])
			}

			desc := fmt.Sprintf("Port %s is open", port)
			if service != "" {
				desc = fmt.Sprintf("Port %s is open running %s", port, service)
			}
			f := model.NewFinding("nmap", "open-port",
				fmt.Sprintf("Open TCP port %s (%s)", port, nonEmpty(service, "unknown")), desc+".")
			f.Location = port + "/tcp"
			if version != "" {
				f.Evidence = version
			}
			findings = append(findings, f)

			if riskyServiceNames[service] {
				rf := model.NewFinding("nmap", "risky-service",
					fmt.Sprintf("Exposed %s service on port %s", service, port),
					fmt.Sprintf("The %s service on port %s is reachable from the scanning host. Database and remote-access services should not be exposed alongside a web application.", service, port))
				rf.Location = port + "/tcp"
				if version != "" {
					rf.Evidence = version
				}
				findings = append(findings, rf)
			}

			if version != "" {
				if vf, ok := versionDisclosure("nmap", service, port, version); ok {
					findings = append(findings, vf)
				}
			}
		}
	}

	if !recognized {
		return nil, errUnparseable
	}
	return findings, nil
}

// versionDisclosure reports service banners that reveal exact versions.
// Only versions containing a digit count; banners like "http" alone say
// nothing useful to an attacker.
func versionDisclosure(tool, service, port, version string) (model.Finding, bool) {
	if !strings.ContainsAny(version, "0123456789") {
		return model.Finding{}, false
	}

	f := model.NewFinding(tool, "server-disclosure",
		fmt.Sprintf("Service version disclosed on port %s", port),
		fmt.Sprintf("The %s service on port %s reveals its exact version, which helps attackers pick version-specific exploits.", nonEmpty(service, "detected"), port))
	f.Location = port + "/tcp"
	f.Evidence = version
	return f, true
}

// nonEmpty returns s, or fallback when s is empty.
func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
