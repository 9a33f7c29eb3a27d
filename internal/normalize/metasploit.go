package normalize

import (
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// parseMetasploit reads msfconsole output from the http_version
// auxiliary scanner:
//
//	[+] 10.0.0.5:3000 Apache/2.4.29 (Ubuntu) ( 302-https://10.0.0.5/ )
func parseMetasploit(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := strings.Contains(run.Output, "msf") ||
		strings.Contains(run.Output, "Auxiliary module execution completed")

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[+]") {
			continue
		}
		recognized = true

		rest := strings.TrimSpace(strings.TrimPrefix(line, "[+]"))
		addr, banner, found := strings.Cut(rest, " ")
		if !found || banner == "" {
			continue
		}

		if !strings.ContainsAny(banner, "0123456789") {
			continue
		}

		f := model.NewFinding("metasploit", "server-disclosure",
			"Web server version disclosed",
			fmt.Sprintf("The web server at %s identifies itself as %s.", addr, banner))
		f.Evidence = banner
		f.Location = addr
		findings = append(findings, f)
	}

	if !recognized {
		return nil, errUnparseable
	}
	return findings, nil
}
