package model

import "strings"

// Severity represents the risk level of a security finding.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct security impact.
	// Examples: open ports on expected services, discovered subdomains.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: missing security headers, interesting files.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: server version disclosure, directory indexing, risky services.
	SeverityMedium

	// SeverityHigh indicates serious issues that risk compromise.
	// Examples: SQL injection, weak credentials, cross-site scripting.
	SeverityHigh

	// SeverityCritical indicates severe issues that likely allow full compromise.
	// Examples: confirmed remote code execution, exposed admin interfaces
	// with default credentials.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// RiskScore returns the numeric risk score (1-10) used for dashboard
// ingestion and report sorting.
func (s Severity) RiskScore() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 8
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2
	default:
		return 1
	}
}

// ParseSeverity maps a severity string emitted by an external tool
// (e.g. nuclei's "critical".."info") to a Severity. Unknown strings map
// to SeverityMedium so that tool-reported issues are never silently
// downgraded to informational.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "info", "informational", "unknown":
		return SeverityInfo
	default:
		return SeverityMedium
	}
}

// CategoryInfo contains metadata about a finding category including severity,
// CVSS score, CWE identifier, OWASP Top 10 category, and remediation guidance.
type CategoryInfo struct {
	Severity       Severity
	CVSS           float64
	CWE            string
	OWASP          string
	Recommendation string
}

// categoryInfoMapping maps finding categories to their metadata.
// This centralized mapping ensures the severity assigned to a category is
// deterministic: the same raw tool output always yields the same severity.
//
// Design decision: We use a map rather than embedding severity in each
// normalizer because:
// 1. It provides a single source of truth for risk levels
// 2. It allows updating risk assessments without touching parser code
// 3. It makes it easy to generate severity documentation
var categoryInfoMapping = map[string]CategoryInfo{
	// HIGH - Directly exploitable issues
	"sql-injection": {
		Severity:       SeverityHigh,
		CVSS:           7.5,
		CWE:            "CWE-89",
		OWASP:          "A03:2021 - Injection",
		Recommendation: "Use parameterized queries and validate all user input.",
	},
	"weak-credentials": {
		Severity:       SeverityHigh,
		CVSS:           6.5,
		CWE:            "CWE-287",
		OWASP:          "A07:2021 - Identification and Authentication Failures",
		Recommendation: "Enforce strong password policies and enable multi-factor authentication.",
	},
	"cross-site-scripting": {
		Severity:       SeverityHigh,
		CVSS:           6.1,
		CWE:            "CWE-79",
		OWASP:          "A03:2021 - Injection",
		Recommendation: "Encode output and apply a restrictive Content Security Policy.",
	},
	"exploit-available": {
		Severity:       SeverityHigh,
		CVSS:           8.0,
		CWE:            "CWE-1395",
		OWASP:          "A06:2021 - Vulnerable and Outdated Components",
		Recommendation: "Patch the affected component; a public exploit module exists.",
	},
	"credential-validation": {
		Severity:       SeverityHigh,
		CVSS:           6.5,
		CWE:            "CWE-287",
		OWASP:          "A07:2021 - Identification and Authentication Failures",
		Recommendation: "Rotate the validated credentials and audit account access.",
	},

	// MEDIUM - Issues that aid an attacker
	"risky-service": {
		Severity:       SeverityMedium,
		CVSS:           5.3,
		CWE:            "CWE-284",
		OWASP:          "A05:2021 - Security Misconfiguration",
		Recommendation: "Restrict access to the service or disable it if unused.",
	},
	"server-disclosure": {
		Severity:       SeverityMedium,
		CVSS:           5.3,
		CWE:            "CWE-200",
		OWASP:          "A05:2021 - Security Misconfiguration",
		Recommendation: "Suppress version information in server headers and error pages.",
	},
	"directory-indexing": {
		Severity:       SeverityMedium,
		CVSS:           5.3,
		CWE:            "CWE-548",
		OWASP:          "A05:2021 - Security Misconfiguration",
		Recommendation: "Disable directory listing in the web server configuration.",
	},
	"outdated-software": {
		Severity:       SeverityMedium,
		CVSS:           5.9,
		CWE:            "CWE-1104",
		OWASP:          "A06:2021 - Vulnerable and Outdated Components",
		Recommendation: "Upgrade the component to a supported version.",
	},
	"tls-misconfiguration": {
		Severity:       SeverityMedium,
		CVSS:           5.9,
		CWE:            "CWE-326",
		OWASP:          "A02:2021 - Cryptographic Failures",
		Recommendation: "Disable legacy protocols and weak cipher suites.",
	},
	"access-control": {
		Severity:       SeverityMedium,
		CVSS:           5.4,
		CWE:            "CWE-285",
		OWASP:          "A01:2021 - Broken Access Control",
		Recommendation: "Enforce authorization checks on every privileged endpoint.",
	},

	// LOW - Hardening opportunities
	"missing-security-header": {
		Severity:       SeverityLow,
		CVSS:           3.1,
		CWE:            "CWE-693",
		OWASP:          "A05:2021 - Security Misconfiguration",
		Recommendation: "Add the missing HTTP security headers.",
	},
	"interesting-file": {
		Severity:       SeverityLow,
		CVSS:           3.7,
		CWE:            "CWE-538",
		OWASP:          "A05:2021 - Security Misconfiguration",
		Recommendation: "Remove or restrict access to files not intended for the public.",
	},
	"http-anomaly": {
		Severity:       SeverityLow,
		CVSS:           3.1,
		CWE:            "CWE-200",
		OWASP:          "A05:2021 - Security Misconfiguration",
		Recommendation: "Review the anomalous HTTP behavior and confirm it is intended.",
	},

	// INFO - Observations without direct risk
	"open-port": {
		Severity:       SeverityInfo,
		CVSS:           0,
		CWE:            "",
		OWASP:          "",
		Recommendation: "Confirm the exposed service is intended to be reachable.",
	},
	"subdomain-discovered": {
		Severity:       SeverityInfo,
		CVSS:           0,
		CWE:            "",
		OWASP:          "",
		Recommendation: "Inventory the discovered host and include it in scan scope.",
	},
	"raw-output": {
		Severity:       SeverityInfo,
		CVSS:           0,
		CWE:            "",
		OWASP:          "",
		Recommendation: "Review the raw tool output manually.",
	},
}

// GetSeverity returns the severity level for a finding category.
// Returns SeverityInfo if the category is not in the mapping.
func GetSeverity(category string) Severity {
	if info, ok := categoryInfoMapping[category]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetCategoryInfo returns the full category information for a finding
// category. Returns a default CategoryInfo with SeverityInfo if the
// category is not in the mapping.
func GetCategoryInfo(category string) CategoryInfo {
	if info, ok := categoryInfoMapping[category]; ok {
		return info
	}
	return CategoryInfo{
		Severity:       SeverityInfo,
		Recommendation: "Investigate the finding and assess risk.",
	}
}

// Categories returns all known finding categories.
// Primarily used for documentation and tests.
func Categories() []string {
	out := make([]string, 0, len(categoryInfoMapping))
	for k := range categoryInfoMapping {
		out = append(out, k)
	}
	return out
}
