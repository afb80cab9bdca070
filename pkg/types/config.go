package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete Service Doctor configuration. It describes the
// diagnosed service and tunes probe behavior; it is constructed once and
// shared read-only across all probes.
type Config struct {
	// Service identifies the diagnosed service on this host.
	Service ServiceConfig `yaml:"service"`

	// Ports are the TCP ports the service is expected to listen on.
	Ports []int `yaml:"ports"`

	// Hosts are the hostnames probed for reachability.
	Hosts []string `yaml:"hosts"`

	// Endpoints are API paths probed for reachability (any status < 400 counts).
	Endpoints []string `yaml:"endpoints"`

	// StaticFiles are frontend assets that must be served with status 200.
	StaticFiles []string `yaml:"staticFiles"`

	// Env configures the environment/secret check.
	Env EnvConfig `yaml:"env"`

	// Runtime configures the backend runtime checks.
	Runtime RuntimeConfig `yaml:"runtime"`

	// SelfCheck configures the service's self-report hook used by the
	// extended backend probes.
	SelfCheck SelfCheckConfig `yaml:"selfCheck"`

	// Timeouts bound every external operation a probe performs.
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Output configures artifact emission.
	Output OutputConfig `yaml:"output"`

	// Logging configures the logger.
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig identifies the diagnosed service.
type ServiceConfig struct {
	// Name is a human-readable service name used in messages.
	Name string `yaml:"name"`

	// ProcessPattern is the substring matched against process command lines
	// to find the service process.
	ProcessPattern string `yaml:"processPattern"`

	// BackendDir is the working directory for backend runtime commands.
	BackendDir string `yaml:"backendDir"`

	// EntryFile is the service's entry point, checked for quarantine markers.
	EntryFile string `yaml:"entryFile"`
}

// EnvConfig configures the environment-configuration probe.
type EnvConfig struct {
	// File is the dotenv file holding the service's secrets.
	File string `yaml:"file"`

	// RequiredKey is the secret that must be present and non-placeholder.
	RequiredKey string `yaml:"requiredKey"`

	// Placeholders are values treated as unset (e.g. template leftovers).
	Placeholders []string `yaml:"placeholders"`
}

// RuntimeConfig configures the runtime-environment probe.
type RuntimeConfig struct {
	// PackageManager is the tool managing the backend environment (e.g. uv).
	PackageManager string `yaml:"packageManager"`

	// Interpreter is the language runtime binary (e.g. python3).
	Interpreter string `yaml:"interpreter"`

	// Dependencies are importable packages the backend requires.
	Dependencies []string `yaml:"dependencies"`

	// MaxOpenFiles is the open-descriptor ceiling for the service process.
	MaxOpenFiles int `yaml:"maxOpenFiles"`
}

// SelfCheckConfig configures the self-report hook the diagnosed service
// exposes. The engine never imports the service's internals; every backend
// introspection runs the hook command with a subcommand argument.
type SelfCheckConfig struct {
	// Command is the hook invocation, e.g. ["uv", "run", "python", "-m", "app.selfcheck"].
	Command []string `yaml:"command"`

	// Subsystems are the internal components the hook can instantiate
	// individually via "component <name>".
	Subsystems []string `yaml:"subsystems"`
}

// TimeoutConfig bounds external operations. Every value must stay within
// 1-5 seconds so a wedged dependency cannot stall a run. Values are stored
// as strings in YAML and parsed to time.Duration.
type TimeoutConfig struct {
	HTTPString   string `yaml:"http,omitempty"`
	DialString   string `yaml:"dial,omitempty"`
	DNSString    string `yaml:"dns,omitempty"`
	ExecString   string `yaml:"exec,omitempty"`
	DryRunString string `yaml:"dryRun,omitempty"`

	// Parsed duration fields (not in YAML)
	HTTP   time.Duration `yaml:"-"`
	Dial   time.Duration `yaml:"-"`
	DNS    time.Duration `yaml:"-"`
	Exec   time.Duration `yaml:"-"`
	DryRun time.Duration `yaml:"-"`
}

// parse fills the duration fields from their string forms. Empty strings
// leave the duration untouched so defaults survive.
func (t *TimeoutConfig) parse() error {
	for _, field := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeouts.http", t.HTTPString, &t.HTTP},
		{"timeouts.dial", t.DialString, &t.Dial},
		{"timeouts.dns", t.DNSString, &t.DNS},
		{"timeouts.exec", t.ExecString, &t.Exec},
		{"timeouts.dryRun", t.DryRunString, &t.DryRun},
	} {
		if field.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(field.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field.name, field.raw, err)
		}
		*field.dst = parsed
	}
	return nil
}

// OutputConfig configures artifact emission.
type OutputConfig struct {
	// Dir is the directory receiving the fix script and guide.
	Dir string `yaml:"dir"`

	// ScriptName and GuideName are the fixed artifact file names.
	ScriptName string `yaml:"scriptName"`
	GuideName  string `yaml:"guideName"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	minProbeTimeout = 1 * time.Second
	maxProbeTimeout = 5 * time.Second
)

// DefaultConfig returns the configuration for the stock deployment: a
// uv-managed Python backend on port 8000 serving a static frontend.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:           "course-chatbot",
			ProcessPattern: "uvicorn",
			BackendDir:     "backend",
			EntryFile:      "backend/app.py",
		},
		Ports:       []int{8000},
		Hosts:       []string{"localhost", "127.0.0.1"},
		Endpoints:   []string{"/", "/api/courses", "/docs"},
		StaticFiles: []string{"frontend/index.html", "frontend/script.js", "frontend/style.css"},
		Env: EnvConfig{
			File:         ".env",
			RequiredKey:  "ANTHROPIC_API_KEY",
			Placeholders: []string{"", "your-api-key-here", "changeme"},
		},
		Runtime: RuntimeConfig{
			PackageManager: "uv",
			Interpreter:    "python3",
			Dependencies:   []string{"fastapi", "uvicorn", "chromadb", "anthropic"},
			MaxOpenFiles:   1024,
		},
		SelfCheck: SelfCheckConfig{
			Command:    []string{"uv", "run", "python", "-m", "app.selfcheck"},
			Subsystems: []string{"document_processor", "vector_store", "ai_generator", "session_manager"},
		},
		Timeouts: TimeoutConfig{
			HTTP:   3 * time.Second,
			Dial:   2 * time.Second,
			DNS:    2 * time.Second,
			Exec:   5 * time.Second,
			DryRun: 5 * time.Second,
		},
		Output: OutputConfig{
			Dir:        ".",
			ScriptName: "fix_issues.sh",
			GuideName:  "REMEDIATION_GUIDE.md",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML configuration file, fills unset fields with
// defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if err := config.Timeouts.parse(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return config, nil
}

// ApplyDefaults fills zero-valued fields that YAML unmarshaling may have
// cleared (explicit empty sections override DefaultConfig values).
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()

	if c.Timeouts.HTTP == 0 {
		c.Timeouts.HTTP = def.Timeouts.HTTP
	}
	if c.Timeouts.Dial == 0 {
		c.Timeouts.Dial = def.Timeouts.Dial
	}
	if c.Timeouts.DNS == 0 {
		c.Timeouts.DNS = def.Timeouts.DNS
	}
	if c.Timeouts.Exec == 0 {
		c.Timeouts.Exec = def.Timeouts.Exec
	}
	if c.Timeouts.DryRun == 0 {
		c.Timeouts.DryRun = def.Timeouts.DryRun
	}
	if c.Output.ScriptName == "" {
		c.Output.ScriptName = def.Output.ScriptName
	}
	if c.Output.GuideName == "" {
		c.Output.GuideName = def.Output.GuideName
	}
	if c.Output.Dir == "" {
		c.Output.Dir = def.Output.Dir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Runtime.MaxOpenFiles == 0 {
		c.Runtime.MaxOpenFiles = def.Runtime.MaxOpenFiles
	}
}

// Validate checks the configuration for values no probe could act on.
func (c *Config) Validate() error {
	if c.Service.ProcessPattern == "" {
		return fmt.Errorf("service.processPattern is required")
	}
	if len(c.Ports) == 0 {
		return fmt.Errorf("at least one expected port is required")
	}
	for _, port := range c.Ports {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
		}
	}
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one test host is required")
	}
	if c.Env.RequiredKey == "" {
		return fmt.Errorf("env.requiredKey is required")
	}

	for name, timeout := range map[string]time.Duration{
		"timeouts.http":   c.Timeouts.HTTP,
		"timeouts.dial":   c.Timeouts.Dial,
		"timeouts.dns":    c.Timeouts.DNS,
		"timeouts.exec":   c.Timeouts.Exec,
		"timeouts.dryRun": c.Timeouts.DryRun,
	} {
		if timeout < minProbeTimeout || timeout > maxProbeTimeout {
			return fmt.Errorf("%s (%v) must be between %v and %v", name, timeout, minProbeTimeout, maxProbeTimeout)
		}
	}

	if c.Runtime.MaxOpenFiles < 1 {
		return fmt.Errorf("runtime.maxOpenFiles must be positive, got %d", c.Runtime.MaxOpenFiles)
	}

	return nil
}
