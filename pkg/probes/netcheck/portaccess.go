package netcheck

import (
	"context"
	"fmt"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindPortAccessibility,
		Group:       probes.GroupNetwork,
		Order:       1,
		Factory:     NewPortAccessibilityProbe,
		Description: "Checks raw TCP connectivity to every host and expected port",
	})
}

// surveyPorts are well-known local ports probed for context only: seeing
// which unrelated services accept connections helps distinguish a dead
// network stack from a dead service.
var surveyPorts = []int{22, 80, 443, 3306, 5432, 6379, 8080}

// PortAccessibilityProbe attempts a raw TCP connect per host×port. Distinct
// from port-binding: this asks whether the path to the port is open, not who
// owns it.
type PortAccessibilityProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewPortAccessibilityProbe creates a port-accessibility probe.
func NewPortAccessibilityProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &PortAccessibilityProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *PortAccessibilityProbe) Kind() types.ProbeKind { return types.KindPortAccessibility }

// Check dials every host×expected-port combination, then surveys well-known
// local ports as supplementary context.
func (p *PortAccessibilityProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Port Accessibility", types.CategoryNetwork)

	for _, host := range p.cfg.Hosts {
		for _, port := range p.cfg.Ports {
			if p.caps.Dialer.Dial(ctx, host, port, p.cfg.Timeouts.Dial) {
				eval.Passf("%s:%d accepts connections", host, port)
			} else {
				eval.Failf("%s:%d refused or timed out after %v", host, port, p.cfg.Timeouts.Dial)
			}
		}
	}

	if eval.Failed() {
		eval.Fix("if the service log shows it bound the port, a local firewall is likely filtering it")
	}

	open := 0
	for _, port := range surveyPorts {
		if p.caps.Dialer.Dial(ctx, "127.0.0.1", port, p.cfg.Timeouts.Dial) {
			eval.Infof("system port %d is open", port)
			open++
		}
	}
	eval.Info(fmt.Sprintf("%d of %d surveyed system ports are open", open, len(surveyPorts)))

	return eval.Resolve(probes.PolicyConjunctive,
		"all expected ports accept connections",
		"one or more expected ports are not accepting connections")
}
