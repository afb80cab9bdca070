package fixes

import (
	"strings"
	"testing"

	"github.com/supporttools/service-doctor/pkg/types"
)

func failing(kind types.ProbeKind, name string, category types.Category) *types.DiagnosticResult {
	r := types.NewResult(kind, name, category)
	r.Status = types.StatusFail
	r.Message = name + " failed"
	return r
}

func passing(kind types.ProbeKind, name string, category types.Category) *types.DiagnosticResult {
	r := types.NewResult(kind, name, category)
	r.Status = types.StatusPass
	return r
}

func TestMapPlanLengthEqualsFailingCount(t *testing.T) {
	run := &types.Run{Results: []*types.DiagnosticResult{
		failing(types.KindProcessStatus, "Backend Process Status", types.CategoryInfrastructure),
		passing(types.KindPortBinding, "Port Binding", types.CategoryInfrastructure),
		failing(types.KindConnectivity, "HTTP Connectivity", types.CategoryNetwork),
		failing(types.KindUnknown, "Mystery Check", types.CategoryGeneral),
	}}
	run.Summarize()

	plans := MapPlans(run, types.DefaultConfig())
	if len(plans) != len(run.Failing()) {
		t.Fatalf("len(plans) = %d, want %d", len(plans), len(run.Failing()))
	}
}

func TestMapPreservesRunOrder(t *testing.T) {
	run := &types.Run{Results: []*types.DiagnosticResult{
		failing(types.KindStaticFiles, "Static File Serving", types.CategoryFrontend),
		failing(types.KindProcessStatus, "Backend Process Status", types.CategoryInfrastructure),
		failing(types.KindEnvironment, "Environment Configuration", types.CategoryConfiguration),
	}}

	plans := MapPlans(run, types.DefaultConfig())
	if len(plans) != 3 {
		t.Fatalf("len(plans) = %d, want 3", len(plans))
	}

	wantCategories := []types.Category{
		types.CategoryFrontend,
		types.CategoryInfrastructure,
		types.CategoryConfiguration,
	}
	for i, category := range wantCategories {
		if plans[i].Category != category {
			t.Errorf("plans[%d].Category = %s, want %s", i, plans[i].Category, category)
		}
	}
}

func TestMapScenarioDeadService(t *testing.T) {
	// The service is down: the process is gone and nothing answers HTTP,
	// but the port check sees no conflict.
	run := &types.Run{Results: []*types.DiagnosticResult{
		failing(types.KindProcessStatus, "Backend Process Status", types.CategoryInfrastructure),
		passing(types.KindPortBinding, "Port Binding", types.CategoryInfrastructure),
		failing(types.KindConnectivity, "HTTP Connectivity", types.CategoryNetwork),
	}}
	run.Summarize()

	if run.Summary.Total != 3 {
		t.Fatalf("Total = %d, want 3", run.Summary.Total)
	}

	plans := MapPlans(run, types.DefaultConfig())
	if len(plans) != 2 {
		t.Fatalf("len(plans) = %d, want 2", len(plans))
	}

	restart := plans[0]
	if !strings.Contains(restart.Title, "backend service") {
		t.Errorf("first plan title = %q, want the service restart plan", restart.Title)
	}
	if restart.Priority != types.PriorityHigh {
		t.Errorf("restart priority = %s, want high", restart.Priority)
	}
	if restart.Category != types.CategoryInfrastructure {
		t.Errorf("restart category = %s, want infrastructure", restart.Category)
	}
	if len(restart.Commands) == 0 {
		t.Error("the restart plan must carry a runnable command")
	}
}

func TestMapScenarioMissingSecret(t *testing.T) {
	run := &types.Run{Results: []*types.DiagnosticResult{
		failing(types.KindEnvironment, "Environment Configuration", types.CategoryConfiguration),
	}}

	plans := MapPlans(run, types.DefaultConfig())
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	if !strings.Contains(plans[0].Title, "ANTHROPIC_API_KEY") {
		t.Errorf("plan title = %q, want it to name the required key", plans[0].Title)
	}
}

func TestMapGenericFallback(t *testing.T) {
	result := failing(types.KindUnknown, "Mystery Check", types.CategoryGeneral)
	result.Message = "something odd happened"
	result.AddFix("try turning it off and on again")

	run := &types.Run{Results: []*types.DiagnosticResult{result}}
	plans := MapPlans(run, types.DefaultConfig())

	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	plan := plans[0]
	if !strings.Contains(plan.Title, "Mystery Check") {
		t.Errorf("title = %q, want it to name the failing check", plan.Title)
	}
	if plan.Description != "something odd happened" {
		t.Errorf("description = %q, want the result message", plan.Description)
	}
	if len(plan.Steps) != 1 || plan.Steps[0] != "try turning it off and on again" {
		t.Errorf("steps = %v, want the result's fallback hints", plan.Steps)
	}
}

func TestEveryProbeKindHasARule(t *testing.T) {
	kinds := []types.ProbeKind{
		types.KindProcessStatus, types.KindPortBinding, types.KindConnectivity,
		types.KindEnvironment, types.KindAPIEndpoints, types.KindStaticFiles,
		types.KindRuntimeEnvironment, types.KindApplicationImport,
		types.KindSubsystemInit, types.KindProcessLifecycle, types.KindStartupDryRun,
		types.KindDNSResolution, types.KindPortAccessibility, types.KindFirewall,
		types.KindNetworkInterfaces, types.KindVPNProxy, types.KindSecuritySoftware,
	}

	ruled := make(map[types.ProbeKind]bool)
	for _, r := range rules {
		if ruled[r.kind] {
			t.Errorf("kind %s appears twice in the rule table", r.kind)
		}
		ruled[r.kind] = true
	}
	for _, kind := range kinds {
		if !ruled[kind] {
			t.Errorf("kind %s has no remediation rule", kind)
		}
	}
}
