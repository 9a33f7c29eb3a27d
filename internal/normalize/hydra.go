package normalize

import (
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// parseHydra reads hydra's console output. A successful guess prints:
//
//	[3000][http-post-form] host: 10.0.0.5   login: admin@test.shop   password: monkey
//
// The cracked password itself never enters the finding; knowing that the
// account fell to a wordlist is the result, the secret stays out of
// reports and logs.
func parseHydra(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := strings.Contains(run.Output, "Hydra") || strings.Contains(run.Output, "hydra")

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)

		if !strings.HasPrefix(line, "[") || !strings.Contains(line, "login:") {
			continue
		}
		recognized = true

		login := extractField(line, "login:")
		if login == "" {
			continue
		}

		f := model.NewFinding("hydra", "weak-credentials",
			fmt.Sprintf("Account %s accepts a wordlist password", login),
			fmt.Sprintf("The account %s authenticated with a password from the supplied wordlist.", login))
		f.Location = extractField(line, "host:")
		findings = append(findings, f)
	}

	if !recognized {
		return nil, errUnparseable
	}

	if len(findings) == 0 && strings.Contains(run.Output, "0 valid password") {
		f := model.NewFinding("hydra", "credential-validation",
			"All candidate passwords rejected",
			"The login endpoint rejected every candidate password from the supplied wordlist.").
			WithSeverity(model.SeverityInfo)
		if run.Target != nil {
			f.Location = run.Target.URL()
		}
		findings = append(findings, f)
	}

	return findings, nil
}

// extractField pulls the whitespace-delimited value following a label
// like "login:" out of a hydra result line.
func extractField(line, label string) string {
	_, after, found := strings.Cut(line, label)
	if !found {
		return ""
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
