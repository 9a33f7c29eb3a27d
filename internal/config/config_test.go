package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.ToolTimeout != DefaultToolTimeout {
		t.Errorf("ToolTimeout = %v, want %v", cfg.ToolTimeout, DefaultToolTimeout)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, DefaultOutputDir)
	}
	if len(cfg.Formats) != len(DefaultFormats) {
		t.Errorf("Formats = %v, want %v", cfg.Formats, DefaultFormats)
	}
	if !cfg.SaveHistory {
		t.Error("SaveHistory = false, want true")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.TargetURL = "http://192.168.50.20:3000"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing target",
			mutate:  func(c *Config) { c.TargetURL = "" },
			wantErr: ErrNoTarget,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.ToolTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Concurrency = -1 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "empty format list",
			mutate:  func(c *Config) { c.Formats = nil },
			wantErr: ErrNoFormats,
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Formats = []string{"docx"} },
			wantErr: ErrUnknownFormat,
		},
		{
			name: "report file with multiple formats",
			mutate: func(c *Config) {
				c.ReportFile = "out.json"
				c.Formats = []string{FormatJSON, FormatHTML}
			},
			wantErr: ErrReportFileAmbiguous,
		},
		{
			name: "report file with single format",
			mutate: func(c *Config) {
				c.ReportFile = "out.json"
				c.Formats = []string{FormatJSON}
			},
		},
		{
			name:    "zero wait timeout",
			mutate:  func(c *Config) { c.WaitTimeout = 0 },
			wantErr: ErrInvalidWaitTimeout,
		},
		{
			name:    "negative max output size",
			mutate:  func(c *Config) { c.MaxOutputSize = -1 },
			wantErr: ErrInvalidMaxOutputSize,
		},
		{
			name:    "password file without username",
			mutate:  func(c *Config) { c.PasswordFile = "passwords.txt" },
			wantErr: ErrPasswordWithoutUser,
		},
		{
			name: "password file with username",
			mutate: func(c *Config) {
				c.PasswordFile = "passwords.txt"
				c.Username = "admin"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Run("env fills empty fields", func(t *testing.T) {
		t.Setenv(EnvTargetURL, "http://env.example.com")
		t.Setenv(EnvOutputDir, "/tmp/env-results")
		t.Setenv(EnvOpenSearchURL, "http://opensearch:9200")
		t.Setenv(EnvAutomatedTest, "true")

		cfg := NewConfig()
		cfg.ApplyEnv()

		if cfg.TargetURL != "http://env.example.com" {
			t.Errorf("TargetURL = %q, want env value", cfg.TargetURL)
		}
		if cfg.OutputDir != "/tmp/env-results" {
			t.Errorf("OutputDir = %q, want env value", cfg.OutputDir)
		}
		if cfg.OpenSearchURL != "http://opensearch:9200" {
			t.Errorf("OpenSearchURL = %q, want env value", cfg.OpenSearchURL)
		}
		if !cfg.AutomatedTest {
			t.Error("AutomatedTest = false, want true")
		}
	})

	t.Run("CLI values take precedence over env", func(t *testing.T) {
		t.Setenv(EnvTargetURL, "http://env.example.com")
		t.Setenv(EnvOutputDir, "/tmp/env-results")

		cfg := NewConfig()
		cfg.TargetURL = "http://flag.example.com"
		cfg.OutputDir = "/tmp/flag-results"
		cfg.ApplyEnv()

		if cfg.TargetURL != "http://flag.example.com" {
			t.Errorf("TargetURL = %q, want flag value", cfg.TargetURL)
		}
		if cfg.OutputDir != "/tmp/flag-results" {
			t.Errorf("OutputDir = %q, want flag value", cfg.OutputDir)
		}
	})

	t.Run("yes spelling enables automated test", func(t *testing.T) {
		t.Setenv(EnvAutomatedTest, "yes")

		cfg := NewConfig()
		cfg.ApplyEnv()

		if !cfg.AutomatedTest {
			t.Error("AutomatedTest = false, want true")
		}
	})
}

func TestConfigNormalizeFormats(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Formats = []string{"JSON", "json", "Html"}
	cfg.NormalizeFormats()

	want := []string{"json", "html"}
	if len(cfg.Formats) != len(want) {
		t.Fatalf("Formats = %v, want %v", cfg.Formats, want)
	}
	for i := range want {
		if cfg.Formats[i] != want[i] {
			t.Errorf("Formats[%d] = %q, want %q", i, cfg.Formats[i], want[i])
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads tool overrides", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `
defaults:
  timeout: 2m
tools:
  sqlmap:
    timeout: 10m
    extraArgs: ["--level=3"]
  zap:
    disabled: true
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() unexpected error: %v", err)
		}

		sqlmap := cf.GetToolConfig("sqlmap")
		if sqlmap.Timeout != 10*time.Minute {
			t.Errorf("sqlmap Timeout = %v, want 10m", sqlmap.Timeout)
		}
		if len(sqlmap.ExtraArgs) != 1 || sqlmap.ExtraArgs[0] != "--level=3" {
			t.Errorf("sqlmap ExtraArgs = %v, want [--level=3]", sqlmap.ExtraArgs)
		}

		zap := cf.GetToolConfig("zap")
		if !zap.Disabled {
			t.Error("zap Disabled = false, want true")
		}
		// zap inherits the default timeout
		if zap.Timeout != 2*time.Minute {
			t.Errorf("zap Timeout = %v, want 2m from defaults", zap.Timeout)
		}

		// unknown tool gets pure defaults
		nmap := cf.GetToolConfig("nmap")
		if nmap.Timeout != 2*time.Minute {
			t.Errorf("nmap Timeout = %v, want 2m from defaults", nmap.Timeout)
		}
		if nmap.Disabled {
			t.Error("nmap Disabled = true, want false")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("tools: [not a map"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("LoadConfigFile() error = nil, want parse error")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("tools: {}"), 0o600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q, want the same path", path, got)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/webstrike.yaml"); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})
}
