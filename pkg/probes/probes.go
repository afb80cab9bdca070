// Package probes defines the probe contract, the sub-check evaluation model,
// and a registry that probe implementations self-register with via init().
//
// A probe is one independent, stateless diagnostic check. It receives the
// shared read-only configuration and execution capabilities at construction
// and produces exactly one DiagnosticResult per Check call. A probe must
// never abort the runner: every external failure, including timeouts, is
// recorded as a failed sub-check on the result.
package probes

import (
	"context"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/types"
)

// Probe is one independent diagnostic check.
type Probe interface {
	// Kind identifies the probe in the catalog.
	Kind() types.ProbeKind

	// Check runs the probe and returns a completed result. The returned
	// result never has pending status.
	Check(ctx context.Context) *types.DiagnosticResult
}

// Factory creates a probe instance bound to the given configuration and
// capabilities. Factories must be stateless.
type Factory func(cfg *types.Config, caps *capability.Set) Probe

// Group names a probe group within the catalog. Groups execute concurrently
// but their results are always concatenated in group order.
type Group int

const (
	// GroupBasic holds the quick checks run for every tier.
	GroupBasic Group = iota

	// GroupBackend holds the extended backend-focused checks.
	GroupBackend

	// GroupNetwork holds the extended network-focused checks.
	GroupNetwork
)

// String returns the group name.
func (g Group) String() string {
	switch g {
	case GroupBasic:
		return "basic"
	case GroupBackend:
		return "backend"
	case GroupNetwork:
		return "network"
	default:
		return "unknown"
	}
}
