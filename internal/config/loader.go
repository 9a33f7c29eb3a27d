package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".webstrike.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads per-tool overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	// Initialize Tools map if nil
	if cf.Tools == nil {
		cf.Tools = make(map[string]ToolConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .webstrike.yaml in the current directory
// 3. Look for .webstrike.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// ToolConfig holds per-tool configuration overrides.
// This allows tuning individual tools without touching CLI flags,
// for example giving sqlmap a longer timeout than the rest.
type ToolConfig struct {
	// ExtraArgs are appended to the tool's generated argument list.
	ExtraArgs []string `yaml:"extraArgs,omitempty"`

	// Timeout overrides the global per-tool timeout for this tool.
	// If zero, the global ToolTimeout is used.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Disabled removes the tool from runs even when selected.
	Disabled bool `yaml:"disabled,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler. Timeouts are written in the
// config file as Go duration strings ("90s", "10m"), which yaml.v3 does
// not decode into time.Duration on its own.
func (tc *ToolConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ExtraArgs []string `yaml:"extraArgs"`
		Timeout   string   `yaml:"timeout"`
		Disabled  bool     `yaml:"disabled"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	tc.ExtraArgs = raw.ExtraArgs
	tc.Disabled = raw.Disabled
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", raw.Timeout, err)
		}
		tc.Timeout = d
	}
	return nil
}

// File represents the structure of the .webstrike.yaml configuration file.
type File struct {
	// Tools maps tool names to their overrides.
	// Keys are the registered tool names (e.g., "nmap", "sqlmap").
	Tools map[string]ToolConfig `yaml:"tools,omitempty"`

	// Defaults contains overrides applied to all tools unless overridden
	// in the tool-specific configuration.
	Defaults ToolConfig `yaml:"defaults,omitempty"`
}

// GetToolConfig returns the configuration for a specific tool.
// It merges the tool-specific configuration with defaults.
func (cf *File) GetToolConfig(tool string) ToolConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with tool-specific configuration if present
	if tc, ok := cf.Tools[tool]; ok {
		if len(tc.ExtraArgs) > 0 {
			result.ExtraArgs = tc.ExtraArgs
		}
		if tc.Timeout != 0 {
			result.Timeout = tc.Timeout
		}
		if tc.Disabled {
			result.Disabled = true
		}
	}

	return result
}
