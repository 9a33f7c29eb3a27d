package model

// Finding represents a single normalized security observation.
// Many findings may derive from one ToolRun; every finding traces back to
// exactly one ToolRun via the Tool field.
type Finding struct {
	// Tool is the name of the tool that produced this finding.
	// It always matches a ToolRun in the same report.
	Tool string `json:"tool"`

	// Category is the finding category identifier (e.g. "sql-injection",
	// "open-port"). This maps to the category mapping in severity.go.
	Category string `json:"category"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Evidence is the raw output snippet the finding was extracted from.
	Evidence string `json:"evidence,omitempty"`

	// Location is where the finding applies (URL, port, parameter).
	Location string `json:"location,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// CVSS is the base score associated with the category, zero if none.
	CVSS float64 `json:"cvss,omitempty"`

	// CWE is the weakness identifier for the category, if known.
	CWE string `json:"cwe,omitempty"`

	// OWASP is the OWASP Top 10 category, if known.
	OWASP string `json:"owasp,omitempty"`
}

// NewFinding creates a Finding for the given tool and category, filling
// severity, CVSS, CWE, OWASP and recommendation from the fixed category
// mapping.
func NewFinding(tool, category, title, description string) Finding {
	info := GetCategoryInfo(category)
	return Finding{
		Tool:           tool,
		Category:       category,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Recommendation: info.Recommendation,
		CVSS:           info.CVSS,
		CWE:            info.CWE,
		OWASP:          info.OWASP,
	}
}

// WithSeverity returns a copy of the finding with an explicit severity.
// Used when the external tool reports its own severity (e.g. nuclei) which
// takes precedence over the category default.
func (f Finding) WithSeverity(s Severity) Finding {
	f.Severity = s
	f.SeverityText = s.String()
	return f
}
