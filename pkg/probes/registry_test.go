package probes

import (
	"context"
	"errors"
	"testing"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/types"
)

type stubProbe struct{ kind types.ProbeKind }

func (s *stubProbe) Kind() types.ProbeKind { return s.kind }
func (s *stubProbe) Check(ctx context.Context) *types.DiagnosticResult {
	return types.NewResult(s.kind, s.kind.String(), types.CategoryGeneral)
}

func stubFactory(kind types.ProbeKind) Factory {
	return func(cfg *types.Config, caps *capability.Set) Probe {
		return &stubProbe{kind: kind}
	}
}

func TestRegisterRejectsNilFactory(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(ProbeInfo{Kind: types.KindConnectivity})
	if !errors.Is(err, ErrNilFactory) {
		t.Errorf("Register() = %v, want ErrNilFactory", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	info := ProbeInfo{
		Kind:    types.KindConnectivity,
		Group:   GroupBasic,
		Factory: stubFactory(types.KindConnectivity),
	}

	if err := registry.Register(info); err != nil {
		t.Fatalf("first Register() = %v", err)
	}
	if err := registry.Register(info); !errors.Is(err, ErrDuplicateKind) {
		t.Errorf("second Register() = %v, want ErrDuplicateKind", err)
	}
}

func TestGroupInfosOrdering(t *testing.T) {
	registry := NewRegistry()
	// Register out of order; GroupInfos must sort by Order.
	for _, reg := range []struct {
		kind  types.ProbeKind
		order int
	}{
		{types.KindConnectivity, 2},
		{types.KindProcessStatus, 0},
		{types.KindPortBinding, 1},
	} {
		registry.MustRegister(ProbeInfo{
			Kind:    reg.kind,
			Group:   GroupBasic,
			Order:   reg.order,
			Factory: stubFactory(reg.kind),
		})
	}

	infos := registry.GroupInfos(GroupBasic)
	want := []types.ProbeKind{types.KindProcessStatus, types.KindPortBinding, types.KindConnectivity}
	if len(infos) != len(want) {
		t.Fatalf("len(GroupInfos) = %d, want %d", len(infos), len(want))
	}
	for i, kind := range want {
		if infos[i].Kind != kind {
			t.Errorf("GroupInfos[%d] = %s, want %s", i, infos[i].Kind, kind)
		}
	}
}

func TestForTier(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(ProbeInfo{Kind: types.KindProcessStatus, Group: GroupBasic, Order: 0, Factory: stubFactory(types.KindProcessStatus)})
	registry.MustRegister(ProbeInfo{Kind: types.KindRuntimeEnvironment, Group: GroupBackend, Order: 0, Factory: stubFactory(types.KindRuntimeEnvironment)})
	registry.MustRegister(ProbeInfo{Kind: types.KindDNSResolution, Group: GroupNetwork, Order: 0, Factory: stubFactory(types.KindDNSResolution)})

	basic, err := registry.ForTier(types.TierBasic)
	if err != nil {
		t.Fatalf("ForTier(basic) error: %v", err)
	}
	if len(basic) != 1 || basic[0].Kind != types.KindProcessStatus {
		t.Errorf("basic tier = %v", basic)
	}

	extended, err := registry.ForTier(types.TierExtended)
	if err != nil {
		t.Fatalf("ForTier(extended) error: %v", err)
	}
	wantOrder := []types.ProbeKind{types.KindProcessStatus, types.KindRuntimeEnvironment, types.KindDNSResolution}
	if len(extended) != len(wantOrder) {
		t.Fatalf("len(extended) = %d, want %d", len(extended), len(wantOrder))
	}
	for i, kind := range wantOrder {
		if extended[i].Kind != kind {
			t.Errorf("extended[%d] = %s, want %s", i, extended[i].Kind, kind)
		}
	}
}

func TestForTierRejectsUnknown(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.ForTier(types.Tier("full")); err == nil {
		t.Fatal("ForTier(full) = nil, want error")
	}
}
