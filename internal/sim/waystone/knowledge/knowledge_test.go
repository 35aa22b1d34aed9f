package knowledge

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
	"waystones.ai/internal/sim/waystone/registry"
	"waystones.ai/internal/sim/waystone/waystonetest"
)

func setup(online ...uuid.UUID) (*Registry, *registry.Registry, *waystonetest.Notifier) {
	reg := registry.New()
	n := waystonetest.NewNotifier()
	return New(playerdata.NewStores(), reg, waystonetest.Roster(online), n), reg, n
}

func TestActivatePublishesOnce(t *testing.T) {
	k, reg, _ := setup()
	player := uuid.New()
	w := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{}))

	var events []model.ActivatedEvent
	k.Subscribe(func(ev model.ActivatedEvent) { events = append(events, ev) })
	k.Subscribe(nil)

	if !k.Activate(model.Authoritative, player, w) {
		t.Fatalf("first activation")
	}
	if k.Activate(model.Authoritative, player, w) {
		t.Fatalf("repeat activation")
	}
	if k.Activate(model.Authoritative, player, nil) {
		t.Fatalf("nil waystone")
	}
	if len(events) != 1 || events[0].Player != player || events[0].Waystone != w {
		t.Fatalf("events=%v", events)
	}
	if !k.IsActivated(model.Authoritative, player, w) || k.IsActivated(model.Remote, player, w) {
		t.Fatalf("activation must land in the authoritative store only")
	}
}

func TestResolveSkipsRemovedAndSwap(t *testing.T) {
	k, reg, _ := setup()
	player := uuid.New()
	a := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{X: 1}))
	b := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{X: 2}))
	c := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{X: 3}))
	for _, w := range []*model.Waystone{a, b, c} {
		k.Activate(model.Authoritative, player, w)
	}

	if err := k.SwapOrder(model.Authoritative, player, 0, 2); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if err := k.SwapOrder(model.Authoritative, player, 0, 9); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	reg.Remove(b.ID)
	got := k.Resolve(model.Authoritative, player)
	if len(got) != 2 || got[0] != c || got[1] != a {
		t.Fatalf("resolve=%v", got)
	}
	if len(k.List(model.Authoritative, player)) != 3 {
		t.Fatalf("list keeps unresolved ids")
	}
}

func TestNearest(t *testing.T) {
	k, reg, _ := setup()
	player := uuid.New()
	if k.Nearest(model.Authoritative, player, model.Vec3{}) != nil {
		t.Fatalf("no known waystones")
	}
	far := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{X: 100}))
	tieA := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{X: 10}))
	tieB := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{X: -10}))
	for _, w := range []*model.Waystone{far, tieA, tieB} {
		k.Activate(model.Authoritative, player, w)
	}
	if got := k.Nearest(model.Authoritative, player, model.Vec3{}); got != tieA {
		t.Fatalf("ties keep display order, got %v", got.Pos)
	}
}

func TestMakeGlobalAndRemoveFromAll(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	k, reg, n := setup(p1, p2)
	w := reg.Put(waystonetest.Waystone("overworld", model.Vec3i{}))
	k.Activate(model.Authoritative, p1, w)

	published := 0
	k.Subscribe(func(model.ActivatedEvent) { published++ })
	k.MakeGlobal(w)
	if !k.IsActivated(model.Authoritative, p2, w) || published != 1 {
		t.Fatalf("only players missing the waystone are activated, published=%d", published)
	}

	k.RemoveFromAll(w)
	if k.IsActivated(model.Authoritative, p1, w) || k.IsActivated(model.Authoritative, p2, w) {
		t.Fatalf("remove from all")
	}
	if _, ok := n.Known[p1]; !ok {
		t.Fatalf("players should be resynced")
	}
	if len(n.Known[p2]) != 0 {
		t.Fatalf("resync should carry the empty list, got %v", n.Known[p2])
	}
}
