package types

import (
	"testing"
)

func failResult(kind ProbeKind, name string, category Category) *DiagnosticResult {
	r := NewResult(kind, name, category)
	r.Status = StatusFail
	return r
}

func passResult(kind ProbeKind, name string, category Category) *DiagnosticResult {
	r := NewResult(kind, name, category)
	r.Status = StatusPass
	return r
}

func TestSummarizeCounts(t *testing.T) {
	tests := []struct {
		name         string
		results      []*DiagnosticResult
		wantPassed   int
		wantFailed   int
		wantCritical []string
	}{
		{
			name:       "empty run",
			results:    nil,
			wantPassed: 0,
			wantFailed: 0,
		},
		{
			name: "all passing",
			results: []*DiagnosticResult{
				passResult(KindProcessStatus, "Backend Process Status", CategoryInfrastructure),
				passResult(KindConnectivity, "HTTP Connectivity", CategoryNetwork),
			},
			wantPassed: 2,
		},
		{
			name: "critical categories collected",
			results: []*DiagnosticResult{
				failResult(KindProcessStatus, "Backend Process Status", CategoryInfrastructure),
				failResult(KindConnectivity, "HTTP Connectivity", CategoryNetwork),
				failResult(KindEnvironment, "Environment Configuration", CategoryConfiguration),
				passResult(KindStaticFiles, "Static File Serving", CategoryFrontend),
			},
			wantPassed:   1,
			wantFailed:   3,
			wantCritical: []string{"Backend Process Status", "HTTP Connectivity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &Run{Tier: TierBasic, Results: tt.results}
			run.Summarize()

			if run.Summary.Total != len(tt.results) {
				t.Errorf("Total = %d, want %d", run.Summary.Total, len(tt.results))
			}
			if run.Summary.Passed+run.Summary.Failed != run.Summary.Total {
				t.Errorf("Passed (%d) + Failed (%d) != Total (%d)",
					run.Summary.Passed, run.Summary.Failed, run.Summary.Total)
			}
			if run.Summary.Passed != tt.wantPassed {
				t.Errorf("Passed = %d, want %d", run.Summary.Passed, tt.wantPassed)
			}
			if run.Summary.Failed != tt.wantFailed {
				t.Errorf("Failed = %d, want %d", run.Summary.Failed, tt.wantFailed)
			}
			if len(run.Summary.Critical) != len(tt.wantCritical) {
				t.Fatalf("Critical = %v, want %v", run.Summary.Critical, tt.wantCritical)
			}
			for i, name := range tt.wantCritical {
				if run.Summary.Critical[i] != name {
					t.Errorf("Critical[%d] = %q, want %q", i, run.Summary.Critical[i], name)
				}
			}
		})
	}
}

func TestFailingPreservesOrder(t *testing.T) {
	run := &Run{Results: []*DiagnosticResult{
		failResult(KindProcessStatus, "a", CategoryInfrastructure),
		passResult(KindPortBinding, "b", CategoryInfrastructure),
		failResult(KindConnectivity, "c", CategoryNetwork),
	}}

	failing := run.Failing()
	if len(failing) != 2 {
		t.Fatalf("len(Failing()) = %d, want 2", len(failing))
	}
	if failing[0].TestName != "a" || failing[1].TestName != "c" {
		t.Errorf("Failing() order = %q, %q; want a, c", failing[0].TestName, failing[1].TestName)
	}
}

func TestCritical(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		category Category
		want     bool
	}{
		{"failing infrastructure", StatusFail, CategoryInfrastructure, true},
		{"failing network", StatusFail, CategoryNetwork, true},
		{"failing configuration", StatusFail, CategoryConfiguration, false},
		{"passing infrastructure", StatusPass, CategoryInfrastructure, false},
		{"pending network", StatusPending, CategoryNetwork, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult(KindUnknown, tt.name, tt.category)
			r.Status = tt.status
			if got := r.Critical(); got != tt.want {
				t.Errorf("Critical() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeKindStrings(t *testing.T) {
	kinds := []ProbeKind{
		KindProcessStatus, KindPortBinding, KindConnectivity, KindEnvironment,
		KindAPIEndpoints, KindStaticFiles, KindRuntimeEnvironment,
		KindApplicationImport, KindSubsystemInit, KindProcessLifecycle,
		KindStartupDryRun, KindDNSResolution, KindPortAccessibility,
		KindFirewall, KindNetworkInterfaces, KindVPNProxy, KindSecuritySoftware,
	}

	seen := make(map[string]bool)
	for _, kind := range kinds {
		name := kind.String()
		if name == "unknown" {
			t.Errorf("kind %d has no name", kind)
		}
		if seen[name] {
			t.Errorf("duplicate kind name %q", name)
		}
		seen[name] = true
	}
}
