package basic

import (
	"context"
	"errors"
	"fmt"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindConnectivity,
		Group:       probes.GroupBasic,
		Order:       2,
		Factory:     NewConnectivityProbe,
		Description: "Checks HTTP reachability across all host and port combinations",
	})
}

// ConnectivityProbe checks that the service answers HTTP on at least one
// host/port combination. Disjunctive: reaching any one combination is
// sufficient, since all combinations address the same service.
type ConnectivityProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewConnectivityProbe creates a connectivity probe.
func NewConnectivityProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &ConnectivityProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *ConnectivityProbe) Kind() types.ProbeKind { return types.KindConnectivity }

// Check performs a GET against every host×port root URL. Any HTTP response,
// whatever the status, proves the network path; connection errors and
// timeouts fail the sub-check.
func (p *ConnectivityProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "HTTP Connectivity", types.CategoryNetwork)

	for _, host := range p.cfg.Hosts {
		for _, port := range p.cfg.Ports {
			url := fmt.Sprintf("http://%s:%d/", host, port)
			status, err := p.caps.HTTP.Get(ctx, url, p.cfg.Timeouts.HTTP)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					eval.Failf("%s: timeout after %v", url, p.cfg.Timeouts.HTTP)
				} else {
					eval.Failf("%s: %v", url, err)
				}
				continue
			}
			eval.Passf("%s responded with status %d", url, status)
		}
	}

	if eval.Failed() {
		eval.Fix("confirm the service is listening: check the startup log for the bound address")
	}

	return eval.Resolve(probes.PolicyDisjunctive,
		"service reachable over HTTP",
		"no reachable endpoint on any host/port combination")
}
