// Service Doctor - local web service diagnostics and remediation tool
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/fixes"
	"github.com/supporttools/service-doctor/pkg/logger"
	"github.com/supporttools/service-doctor/pkg/runner"
	"github.com/supporttools/service-doctor/pkg/types"

	// Import probe packages to register them
	_ "github.com/supporttools/service-doctor/pkg/probes/backend"
	_ "github.com/supporttools/service-doctor/pkg/probes/basic"
	_ "github.com/supporttools/service-doctor/pkg/probes/netcheck"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Command-line flags
var (
	configPath    = flag.String("config", "", "Path to configuration file (defaults apply when empty)")
	tier          = flag.String("tier", "basic", "Diagnostic tier to run (basic, extended)")
	emitFixes     = flag.Bool("emit-fixes", true, "Write the fix script and remediation guide when checks fail")
	outputDir     = flag.String("output-dir", "", "Override the artifact output directory")
	logLevel      = flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	logFormat     = flag.String("log-format", "", "Override log format (json, text)")
	metricsListen = flag.String("metrics-listen", "", "Serve Prometheus metrics on this address and wait after the run (e.g. :9090)")
	version       = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if err := logger.Initialize(config.Logging.Level, config.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(2)
	}

	logger.Infof("Service Doctor %s starting (tier=%s)", Version, *tier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	opts := []runner.Option{}
	var metrics *runner.Metrics
	if *metricsListen != "" {
		registry := prometheus.NewRegistry()
		metrics = runner.NewMetrics(registry)
		opts = append(opts, runner.WithMetrics(metrics))
		go serveMetrics(*metricsListen, registry)
	}

	r := runner.New(config, capability.DefaultSet(), opts...)
	run, err := r.Run(ctx, types.Tier(*tier))
	if err != nil {
		logger.Errorf("Diagnostic run failed: %v", err)
		os.Exit(2)
	}

	fmt.Print(fixes.RenderRun(run))

	exitCode := 0
	if run.Summary.Failed > 0 {
		exitCode = 1

		if *emitFixes {
			plans := fixes.MapPlans(run, config)
			scriptPath, guidePath, err := fixes.NewEmitter(config).Emit(plans, config.Output.Dir)
			if err != nil {
				logger.Errorf("Failed to emit artifacts: %v", err)
				// The plans are still on hand; show the guide so nothing is lost.
				fmt.Print("\n" + fixes.RenderGuide(plans))
			} else {
				fmt.Printf("\nWrote %s and %s\n", scriptPath, guidePath)
			}
		}
	}

	if *metricsListen != "" {
		logger.Infof("Serving metrics on %s until interrupted", *metricsListen)
		<-ctx.Done()
	}

	logger.Infof("Service Doctor finished: %d/%d checks passed", run.Summary.Passed, run.Summary.Total)
	os.Exit(exitCode)
}

// loadConfiguration loads and validates the configuration with proper precedence:
// 1. Start with file config or defaults when no file is given
// 2. Apply CLI flag overrides
// 3. Re-validate the final configuration
func loadConfiguration() (*types.Config, error) {
	var config *types.Config
	var err error

	if *configPath == "" {
		config = types.DefaultConfig()
	} else {
		config, err = types.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	applyFlagOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after applying overrides: %w", err)
	}

	return config, nil
}

// applyFlagOverrides applies command-line flag overrides to the configuration
func applyFlagOverrides(config *types.Config) {
	if *outputDir != "" {
		config.Output.Dir = *outputDir
	}
	if *logLevel != "" {
		config.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		config.Logging.Format = *logFormat
	}
}

// serveMetrics exposes the Prometheus registry over HTTP.
func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("Metrics server failed: %v", err)
	}
}

// printVersion prints version information to stdout
func printVersion() {
	fmt.Printf("service-doctor %s\n", Version)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
	fmt.Printf("  Built: %s\n", BuildTime)
	fmt.Printf("  Go Version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
