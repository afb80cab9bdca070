package fixes

import (
	"fmt"
	"strings"

	"github.com/supporttools/service-doctor/pkg/types"
)

// planBuilder turns one failing result into a remediation plan, using the
// configuration for concrete ports, paths, and commands.
type planBuilder func(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan

func restartCommand(cfg *types.Config) string {
	if len(cfg.SelfCheck.Command) >= 2 {
		// Package-manager launch mirrors the self-check invocation prefix.
		return fmt.Sprintf("cd %s && %s run %s %s",
			cfg.Service.BackendDir, cfg.Runtime.PackageManager, cfg.Runtime.Interpreter, entryBase(cfg))
	}
	return fmt.Sprintf("cd %s && %s %s", cfg.Service.BackendDir, cfg.Runtime.Interpreter, entryBase(cfg))
}

func entryBase(cfg *types.Config) string {
	entry := cfg.Service.EntryFile
	if idx := strings.LastIndexByte(entry, '/'); idx >= 0 {
		entry = entry[idx+1:]
	}
	if entry == "" {
		entry = "app.py"
	}
	return entry
}

func primaryPort(cfg *types.Config) int {
	if len(cfg.Ports) > 0 {
		return cfg.Ports[0]
	}
	return 8000
}

func primaryURL(cfg *types.Config) string {
	host := "localhost"
	if len(cfg.Hosts) > 0 {
		host = cfg.Hosts[0]
	}
	return fmt.Sprintf("http://%s:%d", host, primaryPort(cfg))
}

func buildProcessRestart(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       fmt.Sprintf("Start the %s backend service", cfg.Service.Name),
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "The backend process is not running, so nothing can serve requests.",
		Steps: []string{
			fmt.Sprintf("Change into the %s directory", cfg.Service.BackendDir),
			"Start the service in the foreground and watch for startup errors",
		},
		Commands:     []string{restartCommand(cfg)},
		Verification: fmt.Sprintf("curl -sf %s/ >/dev/null && echo service is up", primaryURL(cfg)),
	}
}

func buildPortConflict(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	port := primaryPort(cfg)
	return types.RemediationPlan{
		Title:       fmt.Sprintf("Free port %d from the conflicting process", port),
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "Another process owns the service port, so the service cannot bind it.",
		Steps: []string{
			fmt.Sprintf("Identify the process holding port %d", port),
			"Stop it, or reconfigure the service onto a free port",
		},
		Commands: []string{
			fmt.Sprintf("lsof -nP -i :%d", port),
			fmt.Sprintf("kill $(lsof -t -i :%d)", port),
		},
		Verification: fmt.Sprintf("! lsof -t -i :%d", port),
	}
}

func buildConnectivity(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Restore HTTP connectivity to the service",
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "No test URL returned an HTTP response; the service is down or unreachable.",
		Steps: []string{
			"Confirm the backend process is running (see the process plan if it also failed)",
			"Check the service log for bind errors or crashes during startup",
			"Rule out a local firewall or proxy capturing loopback traffic",
		},
		Commands:     []string{fmt.Sprintf("curl -v %s/", primaryURL(cfg))},
		Verification: fmt.Sprintf("curl -sf %s/ >/dev/null", primaryURL(cfg)),
	}
}

func buildEnvironment(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       fmt.Sprintf("Set %s in %s", cfg.Env.RequiredKey, cfg.Env.File),
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "The required secret is missing or still a placeholder, so AI-backed requests will fail.",
		Steps: []string{
			fmt.Sprintf("Open %s (create it next to the service if absent)", cfg.Env.File),
			fmt.Sprintf("Set %s to a real value from your provider console", cfg.Env.RequiredKey),
			"Restart the service so it rereads the environment",
		},
		Commands: []string{
			fmt.Sprintf("grep -q '^%s=' %s || echo '%s=<your-key>' >> %s",
				cfg.Env.RequiredKey, cfg.Env.File, cfg.Env.RequiredKey, cfg.Env.File),
		},
		Verification: fmt.Sprintf("grep -q '^%s=..*' %s", cfg.Env.RequiredKey, cfg.Env.File),
	}
}

func buildAPIEndpoints(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Investigate API route registration",
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: "The service responds but no configured API endpoint answered below status 400.",
		Steps: []string{
			"Check the service log for router or handler registration errors",
			"Confirm the configured endpoint paths match the routes the service mounts",
		},
		Commands:     []string{fmt.Sprintf("curl -i %s%s", primaryURL(cfg), firstEndpoint(cfg))},
		Verification: fmt.Sprintf("curl -sf %s%s >/dev/null", primaryURL(cfg), firstEndpoint(cfg)),
	}
}

func firstEndpoint(cfg *types.Config) string {
	for _, e := range cfg.Endpoints {
		if e != "" && e != "/" {
			if !strings.HasPrefix(e, "/") {
				return "/" + e
			}
			return e
		}
	}
	return "/"
}

func buildStaticFiles(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Restore the frontend static assets",
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: "One or more frontend assets are missing on disk or not served with status 200.",
		Steps: []string{
			"Verify the asset files exist in the frontend directory",
			"Confirm the static mount path in the service matches the asset layout",
			"Restore missing files from version control",
		},
		Commands:     []string{fmt.Sprintf("ls -l %s", strings.Join(cfg.StaticFiles, " "))},
		Verification: fmt.Sprintf("curl -sf %s/%s >/dev/null", primaryURL(cfg), baseName(firstStatic(cfg))),
	}
}

func firstStatic(cfg *types.Config) string {
	if len(cfg.StaticFiles) > 0 {
		return cfg.StaticFiles[0]
	}
	return "index.html"
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func buildRuntimeEnvironment(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Repair the backend runtime environment",
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "The package manager, interpreter, or a required dependency is missing.",
		Steps: []string{
			fmt.Sprintf("Confirm %s and %s are installed and on PATH", cfg.Runtime.PackageManager, cfg.Runtime.Interpreter),
			"Reinstall the backend dependencies",
		},
		Commands: []string{
			fmt.Sprintf("cd %s && %s sync", cfg.Service.BackendDir, cfg.Runtime.PackageManager),
		},
		Verification: fmt.Sprintf("%s --version", cfg.Runtime.PackageManager),
	}
}

func buildApplicationImport(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Fix the application import failure",
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "The application module fails to import, so the service cannot start at all.",
		Steps: []string{
			"Run the import by hand and read the traceback",
			"Install any missing module it names, or fix the configuration it rejects",
		},
		Commands: []string{
			fmt.Sprintf("cd %s && %s -c 'import app'", cfg.Service.BackendDir, cfg.Runtime.Interpreter),
		},
	}
}

func buildSubsystemInit(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Repair the failing backend subsystem",
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: "A backend subsystem fails to initialize; the evidence lines name which one and hint at why.",
		Steps: []string{
			"Read the evidence lines for the failing subsystem and its error",
			"Fix the named cause: missing secret, missing file, or a stale local database",
			"Restart the service",
		},
	}
}

func buildProcessLifecycle(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Clean up the unhealthy service process",
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: "The service process is a zombie or is holding too many open files.",
		Steps: []string{
			"Stop the service and its parent shell",
			"Start it fresh in the foreground",
			"If descriptor counts climb again, look for an fd leak in recent changes",
		},
		Commands:     []string{fmt.Sprintf("pkill -f %q || true", cfg.Service.ProcessPattern)},
		Verification: fmt.Sprintf("! pgrep -f %q", cfg.Service.ProcessPattern),
	}
}

func buildStartupDryRun(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Investigate the startup dry run",
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: "The dry-run startup timed out or reported no loaded items, so the service starts empty or hangs.",
		Steps: []string{
			"Run the dry run by hand and watch where it stalls",
			"If it reports zero items, confirm the content directory exists and is readable",
		},
		Commands: []string{
			fmt.Sprintf("cd %s && %s dryrun", cfg.Service.BackendDir, strings.Join(cfg.SelfCheck.Command, " ")),
		},
	}
}

func buildDNSResolution(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Fix local hostname resolution",
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "A test hostname does not resolve; nothing addressed by name can reach the service.",
		Steps: []string{
			"Check /etc/hosts for a localhost entry",
			"Add the missing mapping if absent",
		},
		Commands: []string{
			"grep localhost /etc/hosts || echo '127.0.0.1 localhost' | sudo tee -a /etc/hosts",
		},
		Verification: "getent hosts localhost",
	}
}

func buildPortAccessibility(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	port := primaryPort(cfg)
	return types.RemediationPlan{
		Title:       fmt.Sprintf("Open the path to port %d", port),
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "Raw TCP connects to the expected port fail even though the service may have bound it.",
		Steps: []string{
			"Confirm the service log shows a successful bind",
			"Check the host firewall for a rule filtering the port",
		},
		Commands:     []string{fmt.Sprintf("nc -zv 127.0.0.1 %d", port)},
		Verification: fmt.Sprintf("nc -z 127.0.0.1 %d", port),
	}
}

func buildFirewall(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	port := primaryPort(cfg)
	return types.RemediationPlan{
		Title:       fmt.Sprintf("Allow TCP port %d through the firewall", port),
		Priority:    types.PriorityMedium,
		Category:    result.Category,
		Description: "An active firewall coincides with the service being unreachable.",
		Steps: []string{
			fmt.Sprintf("Add an allow rule for TCP port %d", port),
			"Retest reachability afterwards",
		},
		Commands:     []string{fmt.Sprintf("sudo ufw allow %d/tcp", port)},
		Verification: fmt.Sprintf("curl -sf %s/ >/dev/null", primaryURL(cfg)),
	}
}

func buildNetworkInterfaces(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Bring the loopback interface up",
		Priority:    types.PriorityHigh,
		Category:    result.Category,
		Description: "The loopback path is not working; no local client can reach the service.",
		Steps: []string{
			"Inspect the loopback interface state",
			"Bring it up, or reboot the host if the interface refuses to come up",
		},
		Commands:     []string{"ip link show lo", "sudo ip link set lo up"},
		Verification: "ping -c 1 127.0.0.1",
	}
}

func buildVPNProxy(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Exempt localhost from the VPN/proxy",
		Priority:    types.PriorityLow,
		Category:    result.Category,
		Description: "A VPN tunnel or proxy override may be capturing traffic meant for the local service.",
		Steps: []string{
			"Exempt localhost from the proxy environment",
			"If that does not help, disable the VPN temporarily and rerun the diagnostics",
		},
		Commands:     []string{"export NO_PROXY=localhost,127.0.0.1"},
		Verification: fmt.Sprintf("curl -sf --noproxy '*' %s/ >/dev/null", primaryURL(cfg)),
	}
}

func buildSecuritySoftware(result *types.DiagnosticResult, cfg *types.Config) types.RemediationPlan {
	return types.RemediationPlan{
		Title:       "Exempt the service from the security software",
		Priority:    types.PriorityLow,
		Category:    result.Category,
		Description: "Security software known to interfere with local servers is running, or the entry file carries a quarantine marker.",
		Steps: []string{
			"Add an exception for the interpreter and the service port in the listed product",
			"Remove any quarantine marker from the entry file",
		},
		Commands: []string{
			fmt.Sprintf("xattr -d com.apple.quarantine %s 2>/dev/null || true", cfg.Service.EntryFile),
		},
	}
}
