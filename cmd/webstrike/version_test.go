package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func() string
	}{
		{name: "version", fn: getVersion},
		{name: "commit", fn: getCommit},
		{name: "date", fn: getDate},
	}

	// Without ldflags each accessor must still produce a placeholder.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.fn(); got == "" {
				t.Errorf("%s accessor returned empty string", tt.name)
			}
		})
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	t.Run("command metadata", func(t *testing.T) {
		t.Parallel()

		cmd := NewVersionCmd()
		if cmd.Use != "version" {
			t.Errorf("Use = %q, want %q", cmd.Use, "version")
		}
		if cmd.Short == "" {
			t.Error("Short should not be empty")
		}
	})

	t.Run("prints version commit and date", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"webstrike version", "commit:", "built:"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q: %q", want, out)
			}
		}
	})
}
