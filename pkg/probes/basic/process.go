// Package basic implements the basic probe tier: the quick checks every
// diagnostic run performs before any deeper inspection.
package basic

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindProcessStatus,
		Group:       probes.GroupBasic,
		Order:       0,
		Factory:     NewProcessStatusProbe,
		Description: "Checks that a process matching the service pattern is running",
	})
}

// ProcessStatusProbe checks that the diagnosed service's process exists.
type ProcessStatusProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewProcessStatusProbe creates a process-status probe.
func NewProcessStatusProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &ProcessStatusProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *ProcessStatusProbe) Kind() types.ProbeKind { return types.KindProcessStatus }

// Check looks for a running process whose command line matches the configured
// pattern. The doctor's own process is excluded from the match.
func (p *ProcessStatusProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Backend Process Status", types.CategoryInfrastructure)

	pattern := p.cfg.Service.ProcessPattern
	procs, err := p.caps.Processes.List(ctx)
	if err != nil {
		eval.Failf("could not enumerate processes: %v", err)
		eval.Fix("verify the diagnostic tool has permission to read the process table")
		return eval.Resolve(probes.PolicyConjunctive,
			"process table readable",
			"unable to inspect running processes")
	}

	self := os.Getpid()
	var matches []capability.Process
	for _, proc := range procs {
		if proc.PID == self {
			continue
		}
		if strings.Contains(proc.Command, pattern) {
			matches = append(matches, proc)
		}
	}

	if len(matches) == 0 {
		eval.Failf("no matching process for pattern %q", pattern)
		eval.Fix(fmt.Sprintf("start the service, e.g. cd %s && %s run uvicorn app:app --reload --port %d",
			p.cfg.Service.BackendDir, p.cfg.Runtime.PackageManager, firstPort(p.cfg)))
		return eval.Resolve(probes.PolicyConjunctive,
			"",
			fmt.Sprintf("no matching process: nothing matching %q is running", pattern))
	}

	for _, proc := range matches {
		eval.Passf("pid %d: %s", proc.PID, truncate(proc.Command, 120))
	}
	return eval.Resolve(probes.PolicyConjunctive,
		fmt.Sprintf("found %d matching process(es)", len(matches)),
		"")
}

func firstPort(cfg *types.Config) int {
	if len(cfg.Ports) > 0 {
		return cfg.Ports[0]
	}
	return 8000
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
