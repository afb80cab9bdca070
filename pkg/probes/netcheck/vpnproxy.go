package netcheck

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindVPNProxy,
		Group:       probes.GroupNetwork,
		Order:       4,
		Factory:     NewVPNProxyProbe,
		Description: "Detects VPN tunnel interfaces and proxy overrides that can capture local traffic",
	})
}

// tunnelPatterns are interface-name prefixes used by common VPN stacks.
var tunnelPatterns = []string{"tun", "tap", "utun", "ppp", "wg", "ipsec", "zt"}

// proxyVariables are the environment overrides that reroute HTTP traffic.
var proxyVariables = []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy"}

// VPNProxyProbe scans for tunnel interfaces and proxy environment overrides.
// Presence is a soft finding: a VPN or proxy does not prove interference,
// so the probe corroborates with a proxy-bypassing direct request before
// wording its hints.
type VPNProxyProbe struct {
	cfg        *types.Config
	caps       *capability.Set
	interfaces InterfaceLister
	getenv     func(string) string
}

// NewVPNProxyProbe creates a vpn-proxy-interference probe.
func NewVPNProxyProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &VPNProxyProbe{cfg: cfg, caps: caps, interfaces: net.Interfaces, getenv: os.Getenv}
}

// Kind implements probes.Probe.
func (p *VPNProxyProbe) Kind() types.ProbeKind { return types.KindVPNProxy }

// Check scans interfaces and environment, then corroborates any finding with
// a direct (proxy-bypassing) request.
func (p *VPNProxyProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "VPN/Proxy Interference", types.CategoryNetwork)

	found := false

	if ifaces, err := p.interfaces(); err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagUp == 0 {
				continue
			}
			name := strings.ToLower(iface.Name)
			for _, pattern := range tunnelPatterns {
				if strings.HasPrefix(name, pattern) {
					found = true
					eval.Failf("tunnel interface %s is up (possible VPN capturing local traffic)", iface.Name)
					break
				}
			}
		}
	}

	for _, variable := range proxyVariables {
		if value := p.getenv(variable); value != "" {
			found = true
			eval.Failf("proxy override %s=%s is set", variable, value)
		}
	}
	if noProxy := p.getenv("NO_PROXY") + p.getenv("no_proxy"); noProxy != "" {
		if !strings.Contains(noProxy, "localhost") && !strings.Contains(noProxy, "127.0.0.1") {
			eval.Info("NO_PROXY is set but does not exempt localhost")
		}
	}

	if !found {
		return eval.Resolve(probes.PolicyConjunctive,
			"no VPN tunnel or proxy override detected",
			"")
	}

	// Corroborate: a direct request that succeeds pins the blame on the
	// proxy/VPN path rather than the service.
	url := fmt.Sprintf("http://%s:%d/", p.primaryHost(), p.primaryPort())
	if status, err := p.caps.HTTP.GetDirect(ctx, url, p.cfg.Timeouts.HTTP); err == nil {
		eval.Infof("direct (proxy-bypassing) request to %s succeeded with status %d", url, status)
		eval.Fix("exempt localhost from the proxy: export NO_PROXY=localhost,127.0.0.1")
	} else {
		eval.Infof("direct request to %s also failed: %v", url, err)
		eval.Fix("temporarily disable the VPN/proxy and rerun the diagnostics")
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"",
		"VPN tunnel or proxy override may be capturing local traffic")
}

func (p *VPNProxyProbe) primaryHost() string {
	if len(p.cfg.Hosts) > 0 {
		return p.cfg.Hosts[0]
	}
	return "localhost"
}

func (p *VPNProxyProbe) primaryPort() int {
	if len(p.cfg.Ports) > 0 {
		return p.cfg.Ports[0]
	}
	return 8000
}
