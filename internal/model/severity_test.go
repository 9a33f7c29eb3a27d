package model

import "testing"

func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Severity
	}{
		{name: "critical", in: "critical", want: SeverityCritical},
		{name: "uppercase high", in: "HIGH", want: SeverityHigh},
		{name: "mixed case medium", in: "Medium", want: SeverityMedium},
		{name: "low", in: "low", want: SeverityLow},
		{name: "info", in: "info", want: SeverityInfo},
		{name: "informational alias", in: "informational", want: SeverityInfo},
		{name: "unknown defaults to medium", in: "bogus", want: SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ParseSeverity(tt.in); got != tt.want {
				t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetCategoryInfo(t *testing.T) {
	t.Parallel()

	t.Run("known category", func(t *testing.T) {
		t.Parallel()

		info := GetCategoryInfo("sql-injection")
		if info.Severity != SeverityHigh {
			t.Errorf("Severity = %v, want %v", info.Severity, SeverityHigh)
		}
		if info.CWE != "CWE-89" {
			t.Errorf("CWE = %q, want %q", info.CWE, "CWE-89")
		}
		if info.Recommendation == "" {
			t.Error("Recommendation is empty, want non-empty")
		}
	})

	t.Run("unknown category falls back to info", func(t *testing.T) {
		t.Parallel()

		info := GetCategoryInfo("no-such-category")
		if info.Severity != SeverityInfo {
			t.Errorf("Severity = %v, want %v", info.Severity, SeverityInfo)
		}
		if info.Recommendation == "" {
			t.Error("Recommendation is empty, want a default")
		}
	})

	t.Run("raw-output is informational", func(t *testing.T) {
		t.Parallel()

		if got := GetSeverity("raw-output"); got != SeverityInfo {
			t.Errorf("GetSeverity(raw-output) = %v, want %v", got, SeverityInfo)
		}
	})
}

func TestRiskScore(t *testing.T) {
	t.Parallel()

	if SeverityCritical.RiskScore() <= SeverityHigh.RiskScore() {
		t.Error("critical risk score should exceed high")
	}
	if SeverityLow.RiskScore() <= SeverityInfo.RiskScore() {
		t.Error("low risk score should exceed info")
	}
}
