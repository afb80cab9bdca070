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
		Kind:        types.KindSubsystemInit,
		Group:       probes.GroupBackend,
		Order:       2,
		Factory:     NewSubsystemInitProbe,
		Description: "Checks each internal subsystem individually, then full orchestrator instantiation",
	})
}

// SubsystemInitProbe instantiates each configured subsystem individually via
// the self-check hook, then attempts full instantiation of the orchestrating
// object. Per-subsystem checks localize the failure the combined
// instantiation would only report in aggregate.
type SubsystemInitProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewSubsystemInitProbe creates a subsystem-initialization probe.
func NewSubsystemInitProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &SubsystemInitProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *SubsystemInitProbe) Kind() types.ProbeKind { return types.KindSubsystemInit }

// Check evaluates one sub-check per subsystem plus one for the orchestrator.
func (p *SubsystemInitProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Subsystem Initialization", types.CategoryBackend)

	if !hookConfigured(p.cfg) {
		eval.Info("self-check hook not configured; subsystem checks skipped")
		return eval.Resolve(probes.PolicyConjunctive, "subsystem checks skipped", "")
	}

	for _, name := range p.cfg.SelfCheck.Subsystems {
		result := runHook(ctx, p.cfg, p.caps, p.cfg.Timeouts.Exec, "component", name)
		switch {
		case result.TimedOut:
			eval.Failf("subsystem %s: check timed out after %v", name, p.cfg.Timeouts.Exec)
		case result.Succeeded:
			eval.Passf("subsystem %s initializes", name)
		default:
			eval.Failf("subsystem %s failed: %s", name, firstLine(result.Stderr))
		}
	}

	orchestrator := runHook(ctx, p.cfg, p.caps, p.cfg.Timeouts.Exec, "orchestrator")
	switch {
	case orchestrator.TimedOut:
		eval.Failf("orchestrator instantiation timed out after %v", p.cfg.Timeouts.Exec)
	case orchestrator.Succeeded:
		eval.Pass("orchestrator instantiates with all subsystems")
	default:
		eval.Failf("orchestrator instantiation failed: %s", firstLine(orchestrator.Stderr))
		eval.Fix(p.instantiationHint(orchestrator.Stderr))
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"all subsystems initialize",
		"one or more subsystems failed to initialize")
}

// instantiationHint selects a specific hint from known substrings in the
// orchestrator's error output.
func (p *SubsystemInitProbe) instantiationHint(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, strings.ToLower(p.cfg.Env.RequiredKey)):
		return fmt.Sprintf("set %s in %s", p.cfg.Env.RequiredKey, p.cfg.Env.File)
	case strings.Contains(lower, "no such file") || strings.Contains(lower, "permission denied"):
		return "check that the service's data directories exist and are readable"
	case strings.Contains(lower, "collection") || strings.Contains(lower, "database"):
		return "the vector store may be corrupt; remove its data directory and re-ingest"
	default:
		return "run the self-check hook's orchestrator subcommand manually for the full error"
	}
}
