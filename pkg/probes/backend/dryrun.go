package backend

import (
	"context"
	"strconv"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindStartupDryRun,
		Group:       probes.GroupBackend,
		Order:       4,
		Factory:     NewStartupDryRunProbe,
		Description: "Loads server components under a wall-clock cutoff and verifies work items are present",
	})
}

// StartupDryRunProbe asks the self-check hook to load the server components
// without binding a port, under a hard wall-clock cutoff, and reads back the
// loaded work-item count from its output. Any non-zero count passes.
type StartupDryRunProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewStartupDryRunProbe creates a startup-dry-run probe.
func NewStartupDryRunProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &StartupDryRunProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *StartupDryRunProbe) Kind() types.ProbeKind { return types.KindStartupDryRun }

// Check runs the hook's dryrun subcommand and parses its "items=<N>" line.
func (p *StartupDryRunProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Startup Dry Run", types.CategoryBackend)

	if !hookConfigured(p.cfg) {
		eval.Info("self-check hook not configured; dry run skipped")
		return eval.Resolve(probes.PolicyConjunctive, "dry run skipped", "")
	}

	result := runHook(ctx, p.cfg, p.caps, p.cfg.Timeouts.DryRun, "dryrun")
	switch {
	case result.TimedOut:
		eval.Failf("dry run exceeded the %v cutoff", p.cfg.Timeouts.DryRun)
		eval.Fix("the service hangs during startup; check for blocking network calls in module scope")
	case !result.Succeeded:
		eval.Failf("dry run failed: %s", firstLine(result.Stderr))
		eval.Fix("run the self-check hook's dryrun subcommand manually for the full error")
	default:
		count, ok := parseItemCount(result.Stdout)
		switch {
		case !ok:
			eval.Fail("dry run output did not report an item count")
			eval.Info("expected a trailing items=<N> line in the hook output")
		case count > 0:
			eval.Passf("server components loaded with %d work item(s)", count)
		default:
			eval.Fail("server components loaded but zero work items are present")
			eval.Fix("re-run the service's ingestion step to load its documents")
		}
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"startup dry run succeeded",
		"startup dry run failed")
}

// parseItemCount finds the last "items=<N>" token in the hook output.
func parseItemCount(stdout string) (int, bool) {
	count := 0
	found := false
	for _, field := range strings.Fields(stdout) {
		if value, ok := strings.CutPrefix(field, "items="); ok {
			if n, err := strconv.Atoi(value); err == nil {
				count = n
				found = true
			}
		}
	}
	return count, found
}
