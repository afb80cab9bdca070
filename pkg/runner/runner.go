// Package runner executes the probe catalog for a tier and aggregates the
// ordered results into a Run.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/logger"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

// Runner executes probes concurrently and assembles their results in the
// catalog's fixed order, independent of completion order.
type Runner struct {
	cfg      *types.Config
	caps     *capability.Set
	registry *probes.Registry
	metrics  *Metrics
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRegistry overrides the probe registry. Tests use this to run an
// isolated catalog.
func WithRegistry(registry *probes.Registry) Option {
	return func(r *Runner) { r.registry = registry }
}

// WithMetrics attaches a metrics collector to the runner.
func WithMetrics(metrics *Metrics) Option {
	return func(r *Runner) { r.metrics = metrics }
}

// New creates a Runner for the given configuration and capability set.
func New(cfg *types.Config, caps *capability.Set, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		caps:     caps,
		registry: probes.DefaultRegistry,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every probe of the tier concurrently and returns the results
// in catalog order. An unknown tier is rejected before any probe starts.
func (r *Runner) Run(ctx context.Context, tier types.Tier) (*types.Run, error) {
	catalog, err := r.registry.ForTier(tier)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"tier":   tier,
		"probes": len(catalog),
	}).Info("Starting diagnostic run")

	run := &types.Run{
		Tier:    tier,
		Results: make([]*types.DiagnosticResult, len(catalog)),
	}

	var wg sync.WaitGroup
	for i, info := range catalog {
		wg.Add(1)
		go func(slot int, info *probes.ProbeInfo) {
			defer wg.Done()
			run.Results[slot] = r.execute(ctx, info)
		}(i, info)
	}
	wg.Wait()

	run.Summarize()
	if r.metrics != nil {
		r.metrics.ObserveRun(run)
	}

	logger.WithFields(logrus.Fields{
		"tier":     tier,
		"total":    run.Summary.Total,
		"passed":   run.Summary.Passed,
		"failed":   run.Summary.Failed,
		"critical": len(run.Summary.Critical),
	}).Info("Diagnostic run finished")

	return run, nil
}

// execute runs one probe with panic recovery. A panicking probe yields a
// failing result instead of taking down the run.
func (r *Runner) execute(ctx context.Context, info *probes.ProbeInfo) (result *types.DiagnosticResult) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.WithFields(logrus.Fields{
				"probe": info.Kind.String(),
				"panic": rec,
			}).Error("Probe panicked")
			result = types.NewResult(info.Kind, info.Kind.String(), types.CategoryGeneral)
			result.Status = types.StatusFail
			result.Message = fmt.Sprintf("probe panicked: %v", rec)
		}
		if r.metrics != nil {
			r.metrics.ObserveProbe(result, time.Since(start))
		}
		logger.WithFields(logrus.Fields{
			"probe":    info.Kind.String(),
			"status":   result.Status,
			"duration": time.Since(start),
		}).Debug("Probe finished")
	}()

	probe := info.Factory(r.cfg, r.caps)
	result = probe.Check(ctx)
	return result
}
