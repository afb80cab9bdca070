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
		Kind:        types.KindApplicationImport,
		Group:       probes.GroupBackend,
		Order:       1,
		Factory:     NewApplicationImportProbe,
		Description: "Checks that the application module imports and its service object can be created",
	})
}

// ApplicationImportProbe runs the hook's import check, then its creation
// check. The second sub-check is evaluated only if the first passes: object
// creation cannot be meaningful against a module that does not import.
type ApplicationImportProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewApplicationImportProbe creates an application-import probe.
func NewApplicationImportProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &ApplicationImportProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *ApplicationImportProbe) Kind() types.ProbeKind { return types.KindApplicationImport }

// Check runs the two sequential sub-checks and refines hints from the error
// text when one fails.
func (p *ApplicationImportProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Application Import", types.CategoryBackend)

	if !hookConfigured(p.cfg) {
		eval.Info("self-check hook not configured; import checks skipped")
		return eval.Resolve(probes.PolicyConjunctive, "import checks skipped", "")
	}

	imported := runHook(ctx, p.cfg, p.caps, p.cfg.Timeouts.Exec, "import")
	switch {
	case imported.TimedOut:
		eval.Failf("module import timed out after %v", p.cfg.Timeouts.Exec)
	case imported.Succeeded:
		eval.Pass("application module imports cleanly")
	default:
		eval.Failf("module import failed: %s", firstLine(imported.Stderr))
		p.refineHint(eval, imported.Stderr)
	}

	// Creation is only meaningful once the module imports.
	if imported.Succeeded && !imported.TimedOut {
		created := runHook(ctx, p.cfg, p.caps, p.cfg.Timeouts.Exec, "create")
		switch {
		case created.TimedOut:
			eval.Failf("service object creation timed out after %v", p.cfg.Timeouts.Exec)
		case created.Succeeded:
			eval.Pass("service object created")
		default:
			eval.Failf("service object creation failed: %s", firstLine(created.Stderr))
			p.refineHint(eval, created.Stderr)
		}
	}

	return eval.Resolve(probes.PolicyConjunctive,
		"application imports and instantiates",
		"application failed to import or instantiate")
}

// refineHint inspects hook error output for known failure classes and adds a
// more specific fallback hint than the generic one.
func (p *ApplicationImportProbe) refineHint(eval *probes.Evaluation, stderr string) {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "no module named") || strings.Contains(lower, "not found"):
		eval.Fix(fmt.Sprintf("install missing dependencies: cd %s && %s sync",
			p.cfg.Service.BackendDir, p.cfg.Runtime.PackageManager))
	case strings.Contains(lower, "config") || strings.Contains(lower, "key"):
		eval.Fix(fmt.Sprintf("check %s: the service configuration appears incomplete", p.cfg.Env.File))
	default:
		eval.Fix("run the self-check hook manually to see the full traceback")
	}
}
