package netcheck

import (
	"context"
	"net"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindNetworkInterfaces,
		Group:       probes.GroupNetwork,
		Order:       3,
		Factory:     NewNetworkInterfacesProbe,
		Description: "Enumerates network interfaces and verifies the loopback path",
	})
}

// InterfaceLister abstracts net.Interfaces for testing.
type InterfaceLister func() ([]net.Interface, error)

// NetworkInterfacesProbe enumerates non-internal interfaces and verifies the
// loopback path the service depends on: first by connecting to an expected
// port, then by ICMP echo when no port is open.
type NetworkInterfacesProbe struct {
	cfg        *types.Config
	caps       *capability.Set
	interfaces InterfaceLister
}

// NewNetworkInterfacesProbe creates a network-interfaces probe.
func NewNetworkInterfacesProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &NetworkInterfacesProbe{cfg: cfg, caps: caps, interfaces: net.Interfaces}
}

// Kind implements probes.Probe.
func (p *NetworkInterfacesProbe) Kind() types.ProbeKind { return types.KindNetworkInterfaces }

// Check records the interface inventory as info and evaluates the loopback
// path as the probe's single sub-check.
func (p *NetworkInterfacesProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Network Interfaces", types.CategoryNetwork)

	ifaces, err := p.interfaces()
	if err != nil {
		eval.Infof("could not enumerate interfaces: %v", err)
	} else {
		up := 0
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 {
				continue
			}
			if iface.Flags&net.FlagUp != 0 {
				up++
				eval.Infof("interface %s is up", iface.Name)
			}
		}
		if up == 0 {
			eval.Info("no non-loopback interface is up (offline host; loopback still serves local traffic)")
		}
	}

	p.verifyLoopback(ctx, eval)

	return eval.Resolve(probes.PolicyConjunctive,
		"loopback path verified",
		"loopback path is not working")
}

// verifyLoopback connects to each expected port on 127.0.0.1 and falls back
// to ICMP echo when nothing is listening.
func (p *NetworkInterfacesProbe) verifyLoopback(ctx context.Context, eval *probes.Evaluation) {
	for _, port := range p.cfg.Ports {
		if p.caps.Dialer.Dial(ctx, "127.0.0.1", port, p.cfg.Timeouts.Dial) {
			eval.Passf("loopback verified via 127.0.0.1:%d", port)
			return
		}
	}

	// Nothing listening on the expected ports; ping tells loopback health
	// apart from a merely stopped service.
	result := p.caps.Exec.Execute(ctx, "", p.cfg.Timeouts.Exec, "ping", "-c", "1", "127.0.0.1")
	if result.Succeeded {
		eval.Pass("loopback verified via ICMP echo (no expected port is listening)")
		return
	}
	if result.TimedOut {
		eval.Failf("loopback ICMP echo timed out after %v", p.cfg.Timeouts.Exec)
	} else {
		eval.Fail("loopback is not responding to connects or ICMP echo")
	}
	eval.Fix("the loopback interface appears down; check `ip link show lo` or reboot the host")
}
