package normalize

import (
	"fmt"
	"strings"

	"github.com/webstrike/webstrike/internal/model"
)

// parseSQLMap reads sqlmap's console output. Confirmed injection points
// are printed as parameter blocks:
//
//	sqlmap identified the following injection point(s) with a total of 46 HTTP(s) requests:
//	---
//	Parameter: q (GET)
//	    Type: boolean-based blind
//	    Title: AND boolean-based blind - WHERE or HAVING clause
//	    Payload: q=test' AND 1=1--
//	---
//	back-end DBMS: SQLite
func parseSQLMap(run *model.ToolRun) ([]model.Finding, error) {
	var findings []model.Finding
	recognized := strings.Contains(run.Output, "sqlmap")

	var param string
	var types []string

	flush := func() {
		if param == "" {
			return
		}
		detail := "an unspecified technique"
		if len(types) > 0 {
			detail = strings.Join(types, ", ")
		}
		f := model.NewFinding("sqlmap", "sql-injection",
			fmt.Sprintf("SQL injection in parameter %q", param),
			fmt.Sprintf("The parameter %q is injectable via %s.", param, detail))
		f.Evidence = strings.Join(types, "; ")
		if run.Target != nil {
			f.Location = run.Target.URL()
		}
		findings = append(findings, f)
		param, types = "", nil
	}

	for _, line := range strings.Split(run.Output, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "Parameter:"):
			flush()
			param = strings.TrimSpace(strings.TrimPrefix(line, "Parameter:"))
			recognized = true
		case strings.HasPrefix(line, "Type:"):
			types = append(types, strings.TrimSpace(strings.TrimPrefix(line, "Type:")))
		case strings.HasPrefix(line, "back-end DBMS:"):
			flush()
			dbms := strings.TrimSpace(strings.TrimPrefix(line, "back-end DBMS:"))
			if dbms != "" {
				f := model.NewFinding("sqlmap", "server-disclosure",
					"Database engine identified",
					fmt.Sprintf("The backend database engine was identified as %s.", dbms)).
					WithSeverity(model.SeverityInfo)
				f.Evidence = dbms
				if run.Target != nil {
					f.Location = run.Target.URL()
				}
				findings = append(findings, f)
			}
		}
	}
	flush()

	if !recognized {
		return nil, errUnparseable
	}
	return findings, nil
}
