// Package fixes maps failing diagnostic results to remediation plans and
// emits the fix script and remediation guide.
package fixes

import (
	"fmt"
	"strings"

	"github.com/supporttools/service-doctor/pkg/types"
)

// rule binds one probe kind to its plan builder. The table is scanned in
// order and the first matching rule wins, so more specific rules must come
// before general ones should overlapping kinds ever be introduced.
type rule struct {
	kind  types.ProbeKind
	build planBuilder
}

// rules is the ordered remediation rule table, grouped by the category the
// probes belong to.
var rules = []rule{
	// Infrastructure.
	{types.KindProcessStatus, buildProcessRestart},
	{types.KindPortBinding, buildPortConflict},

	// Network.
	{types.KindConnectivity, buildConnectivity},
	{types.KindDNSResolution, buildDNSResolution},
	{types.KindPortAccessibility, buildPortAccessibility},
	{types.KindFirewall, buildFirewall},
	{types.KindNetworkInterfaces, buildNetworkInterfaces},
	{types.KindVPNProxy, buildVPNProxy},
	{types.KindSecuritySoftware, buildSecuritySoftware},

	// Configuration.
	{types.KindEnvironment, buildEnvironment},

	// API and frontend.
	{types.KindAPIEndpoints, buildAPIEndpoints},
	{types.KindStaticFiles, buildStaticFiles},

	// Backend.
	{types.KindRuntimeEnvironment, buildRuntimeEnvironment},
	{types.KindApplicationImport, buildApplicationImport},
	{types.KindSubsystemInit, buildSubsystemInit},
	{types.KindProcessLifecycle, buildProcessLifecycle},
	{types.KindStartupDryRun, buildStartupDryRun},
}

// MapPlans maps a run's failing results to remediation plans using a
// one-shot mapper.
func MapPlans(run *types.Run, cfg *types.Config) []types.RemediationPlan {
	return NewMapper(cfg).Map(run)
}

// Mapper derives remediation plans from failing results.
type Mapper struct {
	cfg *types.Config
}

// NewMapper creates a fix mapper for the given configuration.
func NewMapper(cfg *types.Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Map returns exactly one plan per failing result of the run, preserving run
// order. A failing result without a matching rule gets a generic plan built
// from the result's own message and fallback hints; no failure is dropped.
func (m *Mapper) Map(run *types.Run) []types.RemediationPlan {
	failing := run.Failing()
	plans := make([]types.RemediationPlan, 0, len(failing))
	for _, result := range failing {
		plans = append(plans, m.planFor(result))
	}
	return plans
}

func (m *Mapper) planFor(result *types.DiagnosticResult) types.RemediationPlan {
	for _, r := range rules {
		if r.kind == result.Kind {
			return r.build(result, m.cfg)
		}
	}
	return genericPlan(result)
}

// genericPlan builds a plan from the failing result itself: its message as
// the description and its fallback hints as the steps.
func genericPlan(result *types.DiagnosticResult) types.RemediationPlan {
	plan := types.RemediationPlan{
		Title:       fmt.Sprintf("Investigate: %s", result.TestName),
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: result.Message,
		Steps:       append([]string(nil), result.Fixes...),
	}
	if len(plan.Steps) == 0 {
		plan.Steps = []string{
			"Review the evidence lines recorded for this probe:",
			strings.Join(result.Details, "; "),
		}
	}
	return plan
}
