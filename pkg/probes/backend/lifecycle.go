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
		Kind:        types.KindProcessLifecycle,
		Group:       probes.GroupBackend,
		Order:       3,
		Factory:     NewProcessLifecycleProbe,
		Description: "Checks for unreaped service processes and excessive open file descriptors",
	})
}

// ProcessLifecycleProbe flags terminated-but-unreaped service processes and
// checks the live process's open-descriptor count against the configured
// ceiling. With no service process running there is nothing to evaluate and
// the probe passes with a note.
type ProcessLifecycleProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewProcessLifecycleProbe creates a process-lifecycle probe.
func NewProcessLifecycleProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &ProcessLifecycleProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *ProcessLifecycleProbe) Kind() types.ProbeKind { return types.KindProcessLifecycle }

// Check evaluates the zombie scan and the descriptor ceiling as independent
// sub-checks.
func (p *ProcessLifecycleProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Process Lifecycle", types.CategoryBackend)

	procs, err := p.caps.Processes.List(ctx)
	if err != nil {
		eval.Infof("could not enumerate processes: %v", err)
		return eval.Resolve(probes.PolicyConjunctive, "process table unavailable", "")
	}

	pattern := p.cfg.Service.ProcessPattern
	var live []capability.Process
	zombies := 0
	for _, proc := range procs {
		if !strings.Contains(proc.Command, pattern) {
			continue
		}
		if proc.Zombie() {
			zombies++
			eval.Failf("pid %d is terminated but unreaped (zombie)", proc.PID)
		} else {
			live = append(live, proc)
		}
	}
	if zombies > 0 {
		eval.Fix("reap or kill the parent of the zombie process, then restart the service")
	} else if len(live) > 0 {
		eval.Passf("no unreaped processes among %d matching process(es)", len(live))
	}

	if len(live) > 0 {
		pid := live[0].PID
		open, err := p.caps.Processes.OpenFiles(pid)
		if err != nil {
			eval.Infof("could not count open descriptors for pid %d: %v", pid, err)
		} else if open > p.cfg.Runtime.MaxOpenFiles {
			eval.Failf("pid %d holds %d open descriptors (ceiling %d)", pid, open, p.cfg.Runtime.MaxOpenFiles)
			eval.Fix(fmt.Sprintf("restart the service or raise the descriptor limit above %d", p.cfg.Runtime.MaxOpenFiles))
		} else {
			eval.Passf("pid %d holds %d open descriptors (ceiling %d)", pid, open, p.cfg.Runtime.MaxOpenFiles)
		}
	} else if zombies == 0 {
		eval.Info("no matching service process; lifecycle checks not applicable")
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"process lifecycle healthy",
		"process lifecycle problems detected")
}
