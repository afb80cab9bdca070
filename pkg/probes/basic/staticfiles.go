package basic

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindStaticFiles,
		Group:       probes.GroupBasic,
		Order:       5,
		Factory:     NewStaticFilesProbe,
		Description: "Checks that every frontend asset exists and is served with status 200",
	})
}

// StaticFilesProbe checks that every configured frontend asset is present on
// disk and served with exactly status 200. Conjunctive per asset: one broken
// asset fails the probe. Within a single asset, any expected port serving it
// satisfies that asset.
type StaticFilesProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewStaticFilesProbe creates a static-file-serving probe.
func NewStaticFilesProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &StaticFilesProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *StaticFilesProbe) Kind() types.ProbeKind { return types.KindStaticFiles }

// Check evaluates one sub-check per asset.
func (p *StaticFilesProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Static File Serving", types.CategoryFrontend)

	host := p.primaryHost()
	for _, asset := range p.cfg.StaticFiles {
		if _, err := os.Stat(asset); err != nil {
			eval.Failf("%s: missing on disk (%v)", asset, err)
			eval.Fix(fmt.Sprintf("restore the missing asset %s", asset))
			continue
		}

		served := false
		var lastStatus int
		var lastErr error
		for _, port := range p.cfg.Ports {
			url := fmt.Sprintf("http://%s:%d/%s", host, port, filepath.Base(asset))
			status, err := p.caps.HTTP.Get(ctx, url, p.cfg.Timeouts.HTTP)
			if err != nil {
				lastErr = err
				continue
			}
			lastStatus = status
			if status == http.StatusOK {
				served = true
				break
			}
		}

		switch {
		case served:
			eval.Passf("%s served with status 200", asset)
		case lastStatus != 0:
			eval.Failf("%s: served with status %d, expected 200", asset, lastStatus)
			eval.Fix("verify the static file mount path in the server configuration")
		default:
			eval.Failf("%s: not served (%v)", asset, lastErr)
			eval.Fix("verify the static file mount path in the server configuration")
		}
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"all frontend assets served",
		"one or more frontend assets are missing or not served")
}

func (p *StaticFilesProbe) primaryHost() string {
	if len(p.cfg.Hosts) > 0 {
		return p.cfg.Hosts[0]
	}
	return "localhost"
}
