package types

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing process pattern",
			mutate:  func(c *Config) { c.Service.ProcessPattern = "" },
			wantErr: "processPattern",
		},
		{
			name:    "no ports",
			mutate:  func(c *Config) { c.Ports = nil },
			wantErr: "port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Ports = []int{70000} },
			wantErr: "invalid port",
		},
		{
			name:    "no hosts",
			mutate:  func(c *Config) { c.Hosts = nil },
			wantErr: "host",
		},
		{
			name:    "missing required key",
			mutate:  func(c *Config) { c.Env.RequiredKey = "" },
			wantErr: "requiredKey",
		},
		{
			name:    "timeout below floor",
			mutate:  func(c *Config) { c.Timeouts.HTTP = 500 * time.Millisecond },
			wantErr: "timeouts.http",
		},
		{
			name:    "timeout above ceiling",
			mutate:  func(c *Config) { c.Timeouts.DryRun = 10 * time.Second },
			wantErr: "timeouts.dryRun",
		},
		{
			name:    "non-positive fd ceiling",
			mutate:  func(c *Config) { c.Runtime.MaxOpenFiles = -1 },
			wantErr: "maxOpenFiles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
service:
  name: demo
  processPattern: uvicorn
ports:
  - 9000
hosts:
  - localhost
timeouts:
  http: 2s
  dial: 1s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Service.Name != "demo" {
		t.Errorf("Service.Name = %q, want demo", config.Service.Name)
	}
	if len(config.Ports) != 1 || config.Ports[0] != 9000 {
		t.Errorf("Ports = %v, want [9000]", config.Ports)
	}
	if config.Timeouts.HTTP != 2*time.Second {
		t.Errorf("Timeouts.HTTP = %v, want 2s", config.Timeouts.HTTP)
	}
	if config.Timeouts.Dial != time.Second {
		t.Errorf("Timeouts.Dial = %v, want 1s", config.Timeouts.Dial)
	}

	// Unset timeouts fall back to defaults.
	if config.Timeouts.Exec != DefaultConfig().Timeouts.Exec {
		t.Errorf("Timeouts.Exec = %v, want default %v", config.Timeouts.Exec, DefaultConfig().Timeouts.Exec)
	}
	// Defaults survive for unset sections.
	if config.Env.RequiredKey != "ANTHROPIC_API_KEY" {
		t.Errorf("Env.RequiredKey = %q, want default", config.Env.RequiredKey)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
timeouts:
  http: not-a-duration
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() = nil, want duration parse error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig() = nil, want error for missing file")
	}
}
