package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewToolsCmd tests the tools command.
func TestNewToolsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewToolsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "tools" {
			t.Errorf("expected use 'tools', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("lists registered tools", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewToolsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "NAME") {
			t.Error("expected header row in output")
		}
		for _, name := range []string{"nmap", "nikto", "sqlmap", "hydra"} {
			if !strings.Contains(output, name) {
				t.Errorf("expected %q in output", name)
			}
		}
		for _, phase := range []string{"recon", "vuln-assessment", "exploitation"} {
			if !strings.Contains(output, phase) {
				t.Errorf("expected phase %q in output", phase)
			}
		}
	})
}
