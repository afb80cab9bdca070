package netcheck

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindFirewall,
		Group:       probes.GroupNetwork,
		Order:       2,
		Factory:     NewFirewallProbe,
		Description: "Inspects the platform firewall and corroborates with a direct HTTP probe",
	})
}

// FirewallProbe inspects the platform firewall state and corroborates any
// active firewall with a direct HTTP request to the service. An active
// firewall alone is not a finding; an active firewall plus an unreachable
// service is.
type FirewallProbe struct {
	cfg  *types.Config
	caps *capability.Set

	// goos is overridable in tests.
	goos string
}

// NewFirewallProbe creates a firewall-configuration probe.
func NewFirewallProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &FirewallProbe{cfg: cfg, caps: caps, goos: runtime.GOOS}
}

// Kind implements probes.Probe.
func (p *FirewallProbe) Kind() types.ProbeKind { return types.KindFirewall }

// Check branches on the OS family to read the firewall state.
func (p *FirewallProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Firewall Configuration", types.CategoryNetwork)

	active, detail := p.firewallState(ctx)
	if detail != "" {
		eval.Info(detail)
	}

	if !active {
		// Nothing to corroborate; no firewall means no firewall finding.
		return eval.Resolve(probes.PolicyConjunctive,
			"no active firewall detected",
			"")
	}

	url := fmt.Sprintf("http://%s:%d/", p.primaryHost(), p.primaryPort())
	if _, err := p.caps.HTTP.Get(ctx, url, p.cfg.Timeouts.HTTP); err != nil {
		eval.Failf("firewall is active and %s is unreachable: %v", url, err)
		eval.Fix(p.allowHint())
	} else {
		eval.Passf("firewall is active but %s is reachable", url)
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"firewall is not blocking the service",
		"firewall appears to block the service")
}

// firewallState reads the platform firewall status. active is false when the
// state cannot be determined.
func (p *FirewallProbe) firewallState(ctx context.Context) (active bool, detail string) {
	timeout := p.cfg.Timeouts.Exec
	switch p.goos {
	case "linux":
		if result := p.caps.Exec.Execute(ctx, "", timeout, "ufw", "status"); result.Succeeded {
			line := firstLine(result.Stdout)
			return strings.Contains(line, "active") && !strings.Contains(line, "inactive"), "ufw: " + line
		}
		if result := p.caps.Exec.Execute(ctx, "", timeout, "iptables", "-L", "-n"); result.Succeeded {
			// A bare ACCEPT policy with no rules means no effective filtering.
			filtering := strings.Contains(result.Stdout, "DROP") || strings.Contains(result.Stdout, "REJECT")
			return filtering, fmt.Sprintf("iptables filtering rules present: %t", filtering)
		}
		return false, "firewall state could not be determined (ufw and iptables unavailable)"
	case "darwin":
		result := p.caps.Exec.Execute(ctx, "", timeout,
			"/usr/libexec/ApplicationFirewall/socketfilterfw", "--getglobalstate")
		if !result.Succeeded {
			return false, "firewall state could not be determined (socketfilterfw unavailable)"
		}
		line := firstLine(result.Stdout)
		return strings.Contains(line, "enabled"), "application firewall: " + line
	case "windows":
		result := p.caps.Exec.Execute(ctx, "", timeout, "netsh", "advfirewall", "show", "allprofiles")
		if !result.Succeeded {
			return false, "firewall state could not be determined (netsh unavailable)"
		}
		return strings.Contains(result.Stdout, "ON"), "netsh advfirewall profiles inspected"
	default:
		return false, fmt.Sprintf("no firewall inspection for %s", p.goos)
	}
}

func (p *FirewallProbe) allowHint() string {
	port := p.primaryPort()
	switch p.goos {
	case "linux":
		return fmt.Sprintf("allow the port: sudo ufw allow %d/tcp", port)
	case "darwin":
		return "allow incoming connections for the interpreter in System Settings > Network > Firewall"
	case "windows":
		return fmt.Sprintf("add an inbound rule for TCP port %d in Windows Defender Firewall", port)
	default:
		return fmt.Sprintf("open TCP port %d in the host firewall", port)
	}
}

func (p *FirewallProbe) primaryHost() string {
	if len(p.cfg.Hosts) > 0 {
		return p.cfg.Hosts[0]
	}
	return "localhost"
}

func (p *FirewallProbe) primaryPort() int {
	if len(p.cfg.Ports) > 0 {
		return p.cfg.Ports[0]
	}
	return 8000
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
