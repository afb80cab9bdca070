package netcheck

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindSecuritySoftware,
		Group:       probes.GroupNetwork,
		Order:       5,
		Factory:     NewSecuritySoftwareProbe,
		Description: "Scans for security software known to interfere with local servers",
	})
}

// interferenceCatalog lists security products known to filter or block
// local listeners. Matched case-insensitively against process command lines.
var interferenceCatalog = []string{
	"little snitch",
	"lulu",
	"eset",
	"norton",
	"mcafee",
	"sophos",
	"bitdefender",
	"crowdstrike",
	"falcond",
	"sentinelone",
	"zonealarm",
	"carbon black",
}

// SecuritySoftwareProbe scans the process list for interference-prone
// security products and checks the service entry file for a platform
// quarantine marker.
type SecuritySoftwareProbe struct {
	cfg  *types.Config
	caps *capability.Set
	goos string
}

// NewSecuritySoftwareProbe creates a security-software probe.
func NewSecuritySoftwareProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &SecuritySoftwareProbe{cfg: cfg, caps: caps, goos: runtime.GOOS}
}

// Kind implements probes.Probe.
func (p *SecuritySoftwareProbe) Kind() types.ProbeKind { return types.KindSecuritySoftware }

// Check scans processes against the catalog and looks for a quarantine
// marker on the entry file.
func (p *SecuritySoftwareProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Security Software", types.CategoryNetwork)

	procs, err := p.caps.Processes.List(ctx)
	if err != nil {
		eval.Infof("could not enumerate processes: %v", err)
	} else {
		matched := map[string]bool{}
		for _, proc := range procs {
			command := strings.ToLower(proc.Command)
			for _, product := range interferenceCatalog {
				if strings.Contains(command, product) && !matched[product] {
					matched[product] = true
					eval.Failf("security software running: %s (pid %d)", product, proc.PID)
				}
			}
		}
		if len(matched) == 0 {
			eval.Pass("no interference-prone security software detected")
		} else {
			eval.Fix("add a firewall/filter exception for the service in the listed product")
		}
	}

	p.checkQuarantine(ctx, eval)

	return eval.Resolve(probes.PolicyConjunctive,
		"no security software interference detected",
		"security software may interfere with the service")
}

// checkQuarantine looks for the platform's download-quarantine marker on the
// service entry file. A quarantined entry file can be silently blocked from
// binding ports.
func (p *SecuritySoftwareProbe) checkQuarantine(ctx context.Context, eval *probes.Evaluation) {
	entry := p.cfg.Service.EntryFile
	if entry == "" {
		return
	}

	switch p.goos {
	case "darwin":
		result := p.caps.Exec.Execute(ctx, "", p.cfg.Timeouts.Exec, "xattr", entry)
		if !result.Succeeded {
			return
		}
		if strings.Contains(result.Stdout, "com.apple.quarantine") {
			eval.Failf("%s carries the com.apple.quarantine marker", entry)
			eval.Fix("remove the marker: xattr -d com.apple.quarantine " + entry)
		} else {
			eval.Passf("%s carries no quarantine marker", entry)
		}
	case "windows":
		if _, err := os.Stat(entry + ":Zone.Identifier"); err == nil {
			eval.Failf("%s carries a Zone.Identifier quarantine stream", entry)
			eval.Fix("unblock the file in its Properties dialog or via Unblock-File")
		} else {
			eval.Passf("%s carries no quarantine stream", entry)
		}
	default:
		// No quarantine mechanism on this platform.
	}
}
