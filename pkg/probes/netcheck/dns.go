// Package netcheck implements the extended network probe group: the checks
// that localize unreachability to the host's network stack rather than the
// service itself.
package netcheck

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindDNSResolution,
		Group:       probes.GroupNetwork,
		Order:       0,
		Factory:     NewDNSResolutionProbe,
		Description: "Checks that every configured test host resolves",
	})
}

// hostsFile is the host-alias file read for supplementary context.
const hostsFile = "/etc/hosts"

// DNSResolutionProbe resolves each configured host. Conjunctive: a service
// reachable by address but not by name is still misconfigured for its users.
type DNSResolutionProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewDNSResolutionProbe creates a dns-resolution probe.
func NewDNSResolutionProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &DNSResolutionProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *DNSResolutionProbe) Kind() types.ProbeKind { return types.KindDNSResolution }

// Check resolves every configured host and attaches relevant host-alias
// entries as supplementary info.
func (p *DNSResolutionProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "DNS Resolution", types.CategoryNetwork)

	for _, host := range p.cfg.Hosts {
		lookupCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.DNS)
		addrs, err := p.caps.Resolver.LookupHost(lookupCtx, host)
		cancel()

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			eval.Failf("%s: lookup timeout after %v", host, p.cfg.Timeouts.DNS)
		case err != nil:
			eval.Failf("%s: %v", host, err)
			eval.Fix("check " + hostsFile + " and the system resolver configuration")
		case len(addrs) == 0:
			eval.Failf("%s: resolved to no addresses", host)
		default:
			eval.Passf("%s resolves to %s", host, strings.Join(addrs, ", "))
		}
	}

	p.attachHostAliases(eval)

	return eval.Resolve(probes.PolicyConjunctive,
		"all test hosts resolve",
		"one or more test hosts fail to resolve")
}

// attachHostAliases records host-alias file entries mentioning the test
// hosts. Purely informational; a missing file is not a finding.
func (p *DNSResolutionProbe) attachHostAliases(eval *probes.Evaluation) {
	file, err := os.Open(hostsFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, host := range p.cfg.Hosts {
			if strings.Contains(line, host) {
				eval.Infof("%s: %s", hostsFile, line)
				break
			}
		}
	}
}
