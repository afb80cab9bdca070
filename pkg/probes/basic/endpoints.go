package basic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindAPIEndpoints,
		Group:       probes.GroupBasic,
		Order:       4,
		Factory:     NewAPIEndpointsProbe,
		Description: "Checks API endpoint reachability across port and path combinations",
	})
}

// APIEndpointsProbe checks that at least one configured API endpoint answers.
// Disjunctive: any endpoint responding below 400 proves the API layer is up.
type APIEndpointsProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewAPIEndpointsProbe creates an api-endpoint-reachability probe.
func NewAPIEndpointsProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &APIEndpointsProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *APIEndpointsProbe) Kind() types.ProbeKind { return types.KindAPIEndpoints }

// Check performs a GET per port×endpoint combination on the primary host.
// Any status below 400 counts as a passing sub-check.
func (p *APIEndpointsProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "API Endpoint Reachability", types.CategoryAPI)

	host := p.primaryHost()
	for _, port := range p.cfg.Ports {
		for _, endpoint := range p.cfg.Endpoints {
			url := fmt.Sprintf("http://%s:%d%s", host, port, ensureLeadingSlash(endpoint))
			status, err := p.caps.HTTP.Get(ctx, url, p.cfg.Timeouts.HTTP)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					eval.Failf("%s: timeout after %v", url, p.cfg.Timeouts.HTTP)
				} else {
					eval.Failf("%s: %v", url, err)
				}
				continue
			}
			if status < 400 {
				eval.Passf("%s responded with status %d", url, status)
			} else {
				eval.Failf("%s responded with status %d", url, status)
			}
		}
	}

	if eval.Failed() {
		eval.Fix("check the service log for router registration errors")
	}

	return eval.Resolve(probes.PolicyDisjunctive,
		"API endpoints reachable",
		"no API endpoint answered successfully")
}

func (p *APIEndpointsProbe) primaryHost() string {
	if len(p.cfg.Hosts) > 0 {
		return p.cfg.Hosts[0]
	}
	return "localhost"
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
