package basic

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindPortBinding,
		Group:       probes.GroupBasic,
		Order:       1,
		Factory:     NewPortBindingProbe,
		Description: "Checks each expected port for conflicts with other processes",
	})
}

// PortBindingProbe checks whether each expected port is free, owned by the
// service, or held by a conflicting process.
type PortBindingProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewPortBindingProbe creates a port-binding probe.
func NewPortBindingProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &PortBindingProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *PortBindingProbe) Kind() types.ProbeKind { return types.KindPortBinding }

// Check evaluates one sub-check per expected port. A free port passes (the
// service simply has not bound it yet), a port owned by the service passes,
// and a port held by an unrelated process is a conflict.
func (p *PortBindingProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Port Binding", types.CategoryInfrastructure)

	for _, port := range p.cfg.Ports {
		bound := p.caps.Dialer.Dial(ctx, "127.0.0.1", port, p.cfg.Timeouts.Dial)
		if !bound {
			eval.Passf("port %d is free", port)
			continue
		}

		owner, known := p.listenerCommand(ctx, port)
		switch {
		case !known:
			// Bound, owner undetermined (lsof unavailable or denied).
			// Optimistic: the listener may well be the service itself.
			eval.Passf("port %d is bound (owner could not be determined)", port)
			eval.Infof("install lsof or run with more privileges to identify the listener on port %d", port)
		case strings.Contains(owner, p.cfg.Service.ProcessPattern) || patternMatchesCommand(owner, p.cfg.Service.ProcessPattern):
			eval.Passf("port %d is bound by the service (%s)", port, owner)
		default:
			eval.Failf("port %d is held by another process: %s", port, owner)
			eval.Fix(fmt.Sprintf("free the port: kill $(lsof -t -i :%d)", port))
		}
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"no port conflicts detected",
		"one or more expected ports are held by other processes")
}

// listenerCommand returns the command name of the process listening on port,
// via lsof. known is false when the owner could not be determined.
func (p *PortBindingProbe) listenerCommand(ctx context.Context, port int) (owner string, known bool) {
	result := p.caps.Exec.Execute(ctx, "", p.cfg.Timeouts.Exec,
		"lsof", "-nP", "-iTCP:"+strconv.Itoa(port), "-sTCP:LISTEN", "-Fc")
	if !result.Succeeded {
		return "", false
	}

	// -F output: one field per line, command names prefixed with 'c'.
	for _, line := range strings.Split(result.Stdout, "\n") {
		if strings.HasPrefix(line, "c") && len(line) > 1 {
			return line[1:], true
		}
	}
	return "", false
}

// patternMatchesCommand handles lsof's truncated command names: "uvicorn"
// may be reported while the configured pattern is a longer command line.
func patternMatchesCommand(command, pattern string) bool {
	return command != "" && strings.Contains(pattern, command)
}
