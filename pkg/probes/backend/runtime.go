package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindRuntimeEnvironment,
		Group:       probes.GroupBackend,
		Order:       0,
		Factory:     NewRuntimeEnvironmentProbe,
		Description: "Checks the package manager, interpreter, and required dependencies",
	})
}

// RuntimeEnvironmentProbe checks the backend runtime: package manager,
// interpreter, and each required dependency. Conjunctive; every sub-check is
// independent, so a missing interpreter still lets dependency checks report.
type RuntimeEnvironmentProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewRuntimeEnvironmentProbe creates a runtime-environment probe.
func NewRuntimeEnvironmentProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &RuntimeEnvironmentProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *RuntimeEnvironmentProbe) Kind() types.ProbeKind { return types.KindRuntimeEnvironment }

// Check verifies the package manager and interpreter respond to --version
// and that each required dependency is importable via the self-check hook.
func (p *RuntimeEnvironmentProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Runtime Environment", types.CategoryBackend)

	p.checkTool(ctx, eval, "package manager", p.cfg.Runtime.PackageManager)
	p.checkTool(ctx, eval, "interpreter", p.cfg.Runtime.Interpreter)

	if !hookConfigured(p.cfg) {
		eval.Info("self-check hook not configured; dependency import checks skipped")
	} else {
		for _, dep := range p.cfg.Runtime.Dependencies {
			result := runHook(ctx, p.cfg, p.caps, p.cfg.Timeouts.Exec, "dep", dep)
			switch {
			case result.TimedOut:
				eval.Failf("dependency %s: check timed out after %v", dep, p.cfg.Timeouts.Exec)
			case result.Succeeded:
				eval.Passf("dependency %s importable", dep)
			default:
				eval.Failf("dependency %s not importable: %s", dep, firstLine(result.Stderr))
				eval.Fix(fmt.Sprintf("install backend dependencies: cd %s && %s sync",
					p.cfg.Service.BackendDir, p.cfg.Runtime.PackageManager))
			}
		}
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"backend runtime is complete",
		"backend runtime has missing pieces")
}

func (p *RuntimeEnvironmentProbe) checkTool(ctx context.Context, eval *probes.Evaluation, role, tool string) {
	if tool == "" {
		return
	}
	result := p.caps.Exec.Execute(ctx, "", p.cfg.Timeouts.Exec, tool, "--version")
	switch {
	case result.TimedOut:
		eval.Failf("%s %s: version check timed out after %v", role, tool, p.cfg.Timeouts.Exec)
	case result.Succeeded:
		eval.Passf("%s %s available (%s)", role, tool, firstLine(result.Stdout))
	default:
		eval.Failf("%s %s not available", role, tool)
		eval.Fix(fmt.Sprintf("install %s and ensure it is on PATH", tool))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
