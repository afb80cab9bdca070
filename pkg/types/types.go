// Package types defines the core data model for Service Doctor: probe
// results, remediation plans, and the per-invocation Run.
package types

// Status is the outcome of a single probe.
type Status string

const (
	// StatusPending is the initial state of a result before the probe has
	// finished. A pending status never outlives a completed probe.
	StatusPending Status = "pending"

	// StatusPass indicates the probe found nothing wrong.
	StatusPass Status = "pass"

	// StatusFail indicates at least one failing condition under the probe's
	// aggregation policy.
	StatusFail Status = "fail"
)

// Category classifies what part of the stack a probe examines.
type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryNetwork        Category = "network"
	CategoryConfiguration  Category = "configuration"
	CategoryAPI            Category = "api"
	CategoryFrontend       Category = "frontend"
	CategoryBackend        Category = "backend"
	CategoryGeneral        Category = "general"
)

// ProbeKind enumerates every probe in the catalog. Fix mapping dispatches on
// the kind directly, so a probe without a mapping rule is visible at the rule
// table rather than hidden behind string matching.
type ProbeKind int

const (
	KindUnknown ProbeKind = iota

	// Basic tier.
	KindProcessStatus
	KindPortBinding
	KindConnectivity
	KindEnvironment
	KindAPIEndpoints
	KindStaticFiles

	// Extended tier, backend group.
	KindRuntimeEnvironment
	KindApplicationImport
	KindSubsystemInit
	KindProcessLifecycle
	KindStartupDryRun

	// Extended tier, network group.
	KindDNSResolution
	KindPortAccessibility
	KindFirewall
	KindNetworkInterfaces
	KindVPNProxy
	KindSecuritySoftware
)

// String returns the canonical name for a probe kind.
func (k ProbeKind) String() string {
	switch k {
	case KindProcessStatus:
		return "process-status"
	case KindPortBinding:
		return "port-binding"
	case KindConnectivity:
		return "connectivity"
	case KindEnvironment:
		return "environment-configuration"
	case KindAPIEndpoints:
		return "api-endpoint-reachability"
	case KindStaticFiles:
		return "static-file-serving"
	case KindRuntimeEnvironment:
		return "runtime-environment"
	case KindApplicationImport:
		return "application-import"
	case KindSubsystemInit:
		return "subsystem-initialization"
	case KindProcessLifecycle:
		return "process-lifecycle"
	case KindStartupDryRun:
		return "startup-dry-run"
	case KindDNSResolution:
		return "dns-resolution"
	case KindPortAccessibility:
		return "port-accessibility"
	case KindFirewall:
		return "firewall-configuration"
	case KindNetworkInterfaces:
		return "network-interfaces"
	case KindVPNProxy:
		return "vpn-proxy-interference"
	case KindSecuritySoftware:
		return "security-software"
	default:
		return "unknown"
	}
}

// DiagnosticResult is the outcome of one probe: a status plus the ordered
// evidence, fallback hints, and supplementary notes collected along the way.
type DiagnosticResult struct {
	// Kind identifies which probe produced this result.
	Kind ProbeKind

	// TestName is the human-readable probe title (e.g. "Backend Process Status").
	TestName string

	// Category classifies the probe.
	Category Category

	// Status is pending, pass, or fail.
	Status Status

	// Message is a one-line summary of the outcome.
	Message string

	// Details are ordered evidence strings gathered during the probe.
	Details []string

	// Fixes are ordered fallback hints used when no specific remediation
	// rule matches this result.
	Fixes []string

	// Info are ordered supplementary notes that do not affect the status.
	Info []string
}

// NewResult creates a pending result for the given probe.
func NewResult(kind ProbeKind, testName string, category Category) *DiagnosticResult {
	return &DiagnosticResult{
		Kind:     kind,
		TestName: testName,
		Category: category,
		Status:   StatusPending,
	}
}

// AddDetail appends an evidence string.
func (r *DiagnosticResult) AddDetail(detail string) {
	r.Details = append(r.Details, detail)
}

// AddFix appends a fallback remediation hint.
func (r *DiagnosticResult) AddFix(fix string) {
	r.Fixes = append(r.Fixes, fix)
}

// AddInfo appends a supplementary note.
func (r *DiagnosticResult) AddInfo(info string) {
	r.Info = append(r.Info, info)
}

// Failed reports whether the result has fail status.
func (r *DiagnosticResult) Failed() bool {
	return r.Status == StatusFail
}

// Critical reports whether this is a failing result in a category that blocks
// everything above it (infrastructure or network).
func (r *DiagnosticResult) Critical() bool {
	if r.Status != StatusFail {
		return false
	}
	return r.Category == CategoryInfrastructure || r.Category == CategoryNetwork
}

// Priority ranks remediation plans.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RemediationPlan is a structured, prioritized fix derived from a failing
// result. Plans are immutable once produced by the fix mapper.
type RemediationPlan struct {
	// Title is a short imperative summary (e.g. "Restart the backend service").
	Title string

	// Priority orders plans in the emitted guide.
	Priority Priority

	// Category matches the failing result's category.
	Category Category

	// Description states the problem the plan addresses.
	Description string

	// Steps are ordered human instructions.
	Steps []string

	// Commands are ordered executable shell commands. May be empty when the
	// fix is manual.
	Commands []string

	// Verification is a single command that confirms the fix, or empty.
	Verification string
}

// Summary holds the aggregate counts for one Run.
type Summary struct {
	// Total is the number of probes executed.
	Total int

	// Passed and Failed partition Total.
	Passed int
	Failed int

	// Critical lists the test names of failing infrastructure/network probes.
	Critical []string
}

// Tier selects which probe group a Run covers.
type Tier string

const (
	// TierBasic runs the six quick checks.
	TierBasic Tier = "basic"

	// TierExtended runs the basic tier plus the backend and network groups.
	TierExtended Tier = "extended"
)

// Run is the complete ordered output of one diagnostic invocation. It is
// transient: nothing beyond the emitted artifacts is persisted.
type Run struct {
	Tier    Tier
	Results []*DiagnosticResult
	Summary Summary
}

// Failing returns the failing results in run order.
func (r *Run) Failing() []*DiagnosticResult {
	var failing []*DiagnosticResult
	for _, res := range r.Results {
		if res.Failed() {
			failing = append(failing, res)
		}
	}
	return failing
}

// Summarize recomputes the run's summary from its results.
func (r *Run) Summarize() {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		if res.Failed() {
			s.Failed++
			if res.Critical() {
				s.Critical = append(s.Critical, res.TestName)
			}
		} else {
			s.Passed++
		}
	}
	r.Summary = s
}
