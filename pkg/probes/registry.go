package probes

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/supporttools/service-doctor/pkg/types"
)

// ProbeInfo contains the registration metadata for one probe type.
type ProbeInfo struct {
	// Kind is the unique catalog identifier for this probe.
	Kind types.ProbeKind

	// Group places the probe in the basic, backend, or network group.
	Group Group

	// Order fixes the probe's position within its group.
	Order int

	// Factory creates instances of this probe.
	Factory Factory

	// Description provides human-readable documentation for this probe.
	Description string
}

// Registry manages probe registration and catalog ordering. Probes register
// at init time; the runner reads the catalog at run time.
type Registry struct {
	mu     sync.RWMutex
	probes map[types.ProbeKind]*ProbeInfo
}

// DefaultRegistry is the global probe registry. Probe packages register with
// it from their init functions.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry. Primarily useful for tests that
// need an isolated catalog.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[types.ProbeKind]*ProbeInfo)}
}

// ErrNilFactory is returned when registering a probe without a factory.
var ErrNilFactory = errors.New("probe factory cannot be nil")

// ErrDuplicateKind is returned when a probe kind is registered twice.
var ErrDuplicateKind = errors.New("probe kind is already registered")

// Register adds a probe type to the registry.
func (r *Registry) Register(info ProbeInfo) error {
	if info.Factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, info.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.probes[info.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, info.Kind)
	}
	r.probes[info.Kind] = &info
	return nil
}

// MustRegister registers a probe type and panics on error. Intended for use
// from init functions where a registration failure is a programming error.
func (r *Registry) MustRegister(info ProbeInfo) {
	if err := r.Register(info); err != nil {
		panic(err)
	}
}

// GroupInfos returns the registered probes of one group, ordered by Order.
func (r *Registry) GroupInfos(group Group) []*ProbeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []*ProbeInfo
	for _, info := range r.probes {
		if info.Group == group {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Order < infos[j].Order })
	return infos
}

// ForTier returns the probe catalog for a tier in its fixed order:
// basic for the basic tier; basic, then backend, then network for the
// extended tier.
func (r *Registry) ForTier(tier types.Tier) ([]*ProbeInfo, error) {
	switch tier {
	case types.TierBasic:
		return r.GroupInfos(GroupBasic), nil
	case types.TierExtended:
		catalog := r.GroupInfos(GroupBasic)
		catalog = append(catalog, r.GroupInfos(GroupBackend)...)
		catalog = append(catalog, r.GroupInfos(GroupNetwork)...)
		return catalog, nil
	default:
		return nil, fmt.Errorf("unknown tier %q: must be %q or %q", tier, types.TierBasic, types.TierExtended)
	}
}

// MustRegister registers a probe with the default registry.
func MustRegister(info ProbeInfo) {
	DefaultRegistry.MustRegister(info)
}
