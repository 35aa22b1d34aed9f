package playerdata

import (
	"testing"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
)

func TestActivateOrderAndSwap(t *testing.T) {
	s := NewPersistent()
	player := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	for _, id := range []uuid.UUID{a, b, c} {
		if !s.Activate(player, id) {
			t.Fatalf("first activation should report a change")
		}
	}
	if s.Activate(player, b) {
		t.Fatalf("repeat activation is a no-op")
	}
	if !s.Swap(player, 0, 2) {
		t.Fatalf("swap in range")
	}
	if s.Swap(player, 0, 3) || s.Swap(player, -1, 0) {
		t.Fatalf("swap out of range")
	}
	if !s.Swap(player, 1, 1) {
		t.Fatalf("self swap is in range")
	}
	got := s.Waystones(player)
	if len(got) != 3 || got[0] != c || got[1] != b || got[2] != a {
		t.Fatalf("order=%v", got)
	}
	if !s.Deactivate(player, b) || s.Deactivate(player, b) || s.IsActivated(player, b) {
		t.Fatalf("deactivate")
	}
}

func TestDirtyTracking(t *testing.T) {
	s := NewPersistent()
	p1, p2 := uuid.New(), uuid.New()
	s.Load(p1, Data{Waystones: []uuid.UUID{uuid.New()}})
	if len(s.TakeDirty()) != 0 {
		t.Fatalf("load must not mark dirty")
	}

	s.SetWarpStoneCooldownUntil(p2, 42)
	_ = s.IsActivated(p1, uuid.New())
	dirty := s.TakeDirty()
	if len(dirty) != 1 || dirty[p2].WarpStoneCooldownUntil != 42 {
		t.Fatalf("dirty=%v", dirty)
	}
	if len(s.TakeDirty()) != 0 {
		t.Fatalf("TakeDirty clears")
	}

	s.MarkDirty(p1, uuid.New())
	if d := s.TakeDirty(); len(d) != 1 {
		t.Fatalf("requeue only known records, got %v", d)
	}

	s.Forget(p1)
	if _, ok := s.Export(p1); ok {
		t.Fatalf("forgotten")
	}
}

func TestExportIsACopy(t *testing.T) {
	s := NewPersistent()
	player, w := uuid.New(), uuid.New()
	s.Activate(player, w)
	d, ok := s.Export(player)
	if !ok {
		t.Fatalf("export")
	}
	d.Waystones[0] = uuid.Nil
	if !s.IsActivated(player, w) {
		t.Fatalf("export aliased the stored slice")
	}
}

func TestStoresForAuthority(t *testing.T) {
	st := NewStores()
	player := uuid.New()
	st.Ephemeral.ApplyCooldowns(player, model.CooldownState{WarpStoneUntil: 9, InventoryButtonUntil: 11})
	st.Ephemeral.ApplyKnown(player, []uuid.UUID{uuid.New()})

	if st.For(model.Authoritative).WarpStoneCooldownUntil(player) != 0 {
		t.Fatalf("authoritative store saw remote sync")
	}
	remote := st.For(model.Remote)
	if remote.WarpStoneCooldownUntil(player) != 9 || remote.InventoryButtonCooldownUntil(player) != 11 {
		t.Fatalf("remote cooldowns not applied")
	}
	if len(remote.Waystones(player)) != 1 {
		t.Fatalf("remote known not applied")
	}
	st.Ephemeral.Reset()
	if len(remote.Waystones(player)) != 0 {
		t.Fatalf("reset")
	}
}
