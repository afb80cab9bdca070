package basic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/types"
)

func testConfig() *types.Config {
	cfg := types.DefaultConfig()
	cfg.Hosts = []string{"localhost"}
	cfg.Ports = []int{8000}
	cfg.Timeouts.HTTP = time.Second
	cfg.Timeouts.Dial = time.Second
	cfg.Timeouts.Exec = time.Second
	return cfg
}

func TestProcessStatusProbe(t *testing.T) {
	tests := []struct {
		name       string
		procs      []capability.Process
		listErr    error
		wantStatus types.Status
		wantInMsg  string
	}{
		{
			name: "matching process running",
			procs: []capability.Process{
				{PID: 100, Command: "uv run uvicorn app:app --port 8000", State: "S"},
			},
			wantStatus: types.StatusPass,
			wantInMsg:  "1 matching process",
		},
		{
			name: "no matching process",
			procs: []capability.Process{
				{PID: 200, Command: "nginx: master process", State: "S"},
			},
			wantStatus: types.StatusFail,
			wantInMsg:  "nothing matching",
		},
		{
			name:       "process table unreadable",
			listErr:    errors.New("permission denied"),
			wantStatus: types.StatusFail,
			wantInMsg:  "unable to inspect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := capability.MockSet(nil, nil, nil, nil,
				&capability.MockProcessLister{Procs: tt.procs, ListErr: tt.listErr})
			probe := NewProcessStatusProbe(testConfig(), caps)

			result := probe.Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tt.wantStatus)
			}
			if !strings.Contains(result.Message, tt.wantInMsg) {
				t.Errorf("message = %q, want it to contain %q", result.Message, tt.wantInMsg)
			}
			if result.Category != types.CategoryInfrastructure {
				t.Errorf("category = %s, want infrastructure", result.Category)
			}
		})
	}
}

func TestProcessStatusProbeExcludesSelf(t *testing.T) {
	caps := capability.MockSet(nil, nil, nil, nil, &capability.MockProcessLister{
		Procs: []capability.Process{
			{PID: os.Getpid(), Command: "service-doctor -tier basic uvicorn", State: "R"},
		},
	})
	probe := NewProcessStatusProbe(testConfig(), caps)

	result := probe.Check(context.Background())
	if !result.Failed() {
		t.Error("the doctor's own process must not count as the service")
	}
}

func TestPortBindingProbe(t *testing.T) {
	lsofLine := func(command string) string { return "p123\nc" + command + "\n" }

	tests := []struct {
		name       string
		bound      bool
		lsof       capability.ExecResult
		wantStatus types.Status
	}{
		{
			name:       "port free",
			bound:      false,
			wantStatus: types.StatusPass,
		},
		{
			name:       "port owned by service",
			bound:      true,
			lsof:       capability.ExecResult{Stdout: lsofLine("uvicorn"), Succeeded: true},
			wantStatus: types.StatusPass,
		},
		{
			name:       "port held by another process",
			bound:      true,
			lsof:       capability.ExecResult{Stdout: lsofLine("node"), Succeeded: true},
			wantStatus: types.StatusFail,
		},
		{
			name:       "owner undetermined",
			bound:      true,
			lsof:       capability.ExecResult{Succeeded: false},
			wantStatus: types.StatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := capability.MockSet(
				&capability.MockExecutor{Default: tt.lsof},
				nil,
				&capability.MockDialer{Open: map[string]bool{"127.0.0.1:8000": tt.bound}},
				nil, nil)
			probe := NewPortBindingProbe(testConfig(), caps)

			result := probe.Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (details: %v)", result.Status, tt.wantStatus, result.Details)
			}
			if result.Failed() && len(result.Fixes) == 0 {
				t.Error("a conflict must carry a fix hint")
			}
		})
	}
}

func TestConnectivityProbePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Hosts = []string{"localhost", "127.0.0.1"}

	tests := []struct {
		name       string
		status     map[string]int
		wantStatus types.Status
	}{
		{
			name: "all respond",
			status: map[string]int{
				"http://localhost:8000/": 200,
				"http://127.0.0.1:8000/": 200,
			},
			wantStatus: types.StatusPass,
		},
		{
			name: "one responds",
			status: map[string]int{
				"http://127.0.0.1:8000/": 500,
			},
			wantStatus: types.StatusPass,
		},
		{
			name:       "none respond",
			status:     map[string]int{},
			wantStatus: types.StatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := capability.MockSet(nil, &capability.MockHTTP{Status: tt.status}, nil, nil, nil)
			probe := NewConnectivityProbe(cfg, caps)

			result := probe.Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (details: %v)", result.Status, tt.wantStatus, result.Details)
			}
		})
	}
}

func TestConnectivityProbeTimeoutDetail(t *testing.T) {
	caps := capability.MockSet(nil, &capability.MockHTTP{Err: context.DeadlineExceeded}, nil, nil, nil)
	probe := NewConnectivityProbe(testConfig(), caps)

	result := probe.Check(context.Background())
	if !result.Failed() {
		t.Fatal("a timed-out request must fail the sub-check")
	}
	found := false
	for _, detail := range result.Details {
		if strings.Contains(detail, "timeout after") {
			found = true
		}
	}
	if !found {
		t.Errorf("details %v missing a timeout-indicating line", result.Details)
	}
}

func TestConnectivityProbeAnyStatusCounts(t *testing.T) {
	// A 404 still proves the network path works.
	caps := capability.MockSet(nil, &capability.MockHTTP{Status: map[string]int{
		"http://localhost:8000/": 404,
	}}, nil, nil, nil)
	probe := NewConnectivityProbe(testConfig(), caps)

	if result := probe.Check(context.Background()); result.Failed() {
		t.Errorf("an HTTP 404 response must pass connectivity, got %s", result.Status)
	}
}

func TestEnvironmentProbe(t *testing.T) {
	writeEnv := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name       string
		setup      func(t *testing.T, cfg *types.Config)
		wantStatus types.Status
		wantInMsg  string
	}{
		{
			name: "key present",
			setup: func(t *testing.T, cfg *types.Config) {
				cfg.Env.File = writeEnv(t, "ANTHROPIC_API_KEY=sk-real-value\n")
			},
			wantStatus: types.StatusPass,
			wantInMsg:  "ANTHROPIC_API_KEY is configured",
		},
		{
			name: "file missing",
			setup: func(t *testing.T, cfg *types.Config) {
				cfg.Env.File = filepath.Join(t.TempDir(), "absent.env")
			},
			wantStatus: types.StatusFail,
			wantInMsg:  "missing or unreadable",
		},
		{
			name: "key missing",
			setup: func(t *testing.T, cfg *types.Config) {
				cfg.Env.File = writeEnv(t, "OTHER_KEY=value\n")
			},
			wantStatus: types.StatusFail,
			wantInMsg:  "ANTHROPIC_API_KEY is missing from",
		},
		{
			name: "placeholder value",
			setup: func(t *testing.T, cfg *types.Config) {
				cfg.Env.File = writeEnv(t, "ANTHROPIC_API_KEY=your-api-key-here\n")
			},
			wantStatus: types.StatusFail,
			wantInMsg:  "placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.setup(t, cfg)
			probe := NewEnvironmentProbe(cfg, capability.MockSet(nil, nil, nil, nil, nil))

			result := probe.Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tt.wantStatus)
			}
			if !strings.Contains(result.Message, tt.wantInMsg) {
				t.Errorf("message = %q, want it to contain %q", result.Message, tt.wantInMsg)
			}
			if result.Failed() && len(result.Fixes) == 0 {
				t.Error("a failing environment check must carry a fix hint")
			}
		})
	}
}

func TestAPIEndpointsProbePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoints = []string{"/", "/api/courses"}

	tests := []struct {
		name       string
		status     map[string]int
		wantStatus types.Status
	}{
		{
			name: "all below 400",
			status: map[string]int{
				"http://localhost:8000/":            200,
				"http://localhost:8000/api/courses": 200,
			},
			wantStatus: types.StatusPass,
		},
		{
			name: "one below 400",
			status: map[string]int{
				"http://localhost:8000/":            500,
				"http://localhost:8000/api/courses": 200,
			},
			wantStatus: types.StatusPass,
		},
		{
			name: "all erroring",
			status: map[string]int{
				"http://localhost:8000/":            500,
				"http://localhost:8000/api/courses": 503,
			},
			wantStatus: types.StatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := capability.MockSet(nil, &capability.MockHTTP{Status: tt.status}, nil, nil, nil)
			probe := NewAPIEndpointsProbe(cfg, caps)

			result := probe.Check(context.Background())
			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (details: %v)", result.Status, tt.wantStatus, result.Details)
			}
		})
	}
}

func TestStaticFilesProbe(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index.html")
	script := filepath.Join(dir, "script.js")
	for _, path := range []string{index, script} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := testConfig()
	cfg.StaticFiles = []string{index, script}

	t.Run("all assets served", func(t *testing.T) {
		caps := capability.MockSet(nil, &capability.MockHTTP{Status: map[string]int{
			"http://localhost:8000/index.html": 200,
			"http://localhost:8000/script.js":  200,
		}}, nil, nil, nil)
		result := NewStaticFilesProbe(cfg, caps).Check(context.Background())
		if result.Failed() {
			t.Errorf("status = %s, details: %v", result.Status, result.Details)
		}
	})

	t.Run("one asset not 200 fails the probe", func(t *testing.T) {
		// 304 is not good enough: the check demands exactly 200.
		caps := capability.MockSet(nil, &capability.MockHTTP{Status: map[string]int{
			"http://localhost:8000/index.html": 200,
			"http://localhost:8000/script.js":  304,
		}}, nil, nil, nil)
		result := NewStaticFilesProbe(cfg, caps).Check(context.Background())
		if !result.Failed() {
			t.Error("a non-200 asset must fail the probe")
		}
	})

	t.Run("asset missing on disk", func(t *testing.T) {
		missing := testConfig()
		missing.StaticFiles = []string{filepath.Join(dir, "absent.css")}
		caps := capability.MockSet(nil, &capability.MockHTTP{}, nil, nil, nil)
		result := NewStaticFilesProbe(missing, caps).Check(context.Background())
		if !result.Failed() {
			t.Error("a missing asset must fail the probe")
		}
	})
}
