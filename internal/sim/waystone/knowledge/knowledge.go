package knowledge

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
)

var ErrIndexOutOfRange = errors.New("knowledge: sort index out of range")

// Registry tracks which waystones each player has activated.
type Registry struct {
	Stores    *playerdata.Stores
	Waystones model.Registry
	Roster    model.Roster
	Notifier  model.Notifier

	subscribers []func(model.ActivatedEvent)
}

func New(stores *playerdata.Stores, waystones model.Registry, roster model.Roster, notifier model.Notifier) *Registry {
	return &Registry{
		Stores:    stores,
		Waystones: waystones,
		Roster:    roster,
		Notifier:  notifier,
	}
}

// Subscribe registers fn for every new activation.
func (r *Registry) Subscribe(fn func(model.ActivatedEvent)) {
	if fn != nil {
		r.subscribers = append(r.subscribers, fn)
	}
}

func (r *Registry) IsActivated(auth model.Authority, player uuid.UUID, w *model.Waystone) bool {
	if w == nil {
		return false
	}
	return r.Stores.For(auth).IsActivated(player, w.ID)
}

// Activate adds w to the player's list. Repeated calls are no-ops and do not
// publish again.
func (r *Registry) Activate(auth model.Authority, player uuid.UUID, w *model.Waystone) bool {
	if w == nil || !r.Stores.For(auth).Activate(player, w.ID) {
		return false
	}
	ev := model.ActivatedEvent{Player: player, Waystone: w}
	for _, fn := range r.subscribers {
		fn(ev)
	}
	return true
}

func (r *Registry) Deactivate(auth model.Authority, player uuid.UUID, w *model.Waystone) bool {
	if w == nil {
		return false
	}
	return r.Stores.For(auth).Deactivate(player, w.ID)
}

// List returns the known waystone ids in display order.
func (r *Registry) List(auth model.Authority, player uuid.UUID) []uuid.UUID {
	return r.Stores.For(auth).Waystones(player)
}

// Resolve returns the known waystones in display order, skipping ids the
// registry no longer has.
func (r *Registry) Resolve(auth model.Authority, player uuid.UUID) []*model.Waystone {
	ids := r.List(auth, player)
	out := make([]*model.Waystone, 0, len(ids))
	for _, id := range ids {
		if r.Waystones == nil {
			break
		}
		if w, ok := r.Waystones.Get(id); ok {
			out = append(out, w)
		}
	}
	return out
}

func (r *Registry) SwapOrder(auth model.Authority, player uuid.UUID, i, j int) error {
	if !r.Stores.For(auth).Swap(player, i, j) {
		return ErrIndexOutOfRange
	}
	return nil
}

// Nearest returns the known waystone closest to pos, or nil. Distances are
// compared after rounding; ties keep display order.
func (r *Registry) Nearest(auth model.Authority, player uuid.UUID, pos model.Vec3) *model.Waystone {
	var best *model.Waystone
	bestDist := int64(0)
	for _, w := range r.Resolve(auth, player) {
		d := int64(math.Round(pos.DistanceSqTo(w.Pos)))
		if best == nil || d < bestDist {
			best = w
			bestDist = d
		}
	}
	return best
}

// MakeGlobal activates w for every online player that does not know it yet.
func (r *Registry) MakeGlobal(w *model.Waystone) {
	if w == nil || r.Roster == nil {
		return
	}
	for _, player := range r.Roster.Online() {
		if !r.IsActivated(model.Authoritative, player, w) {
			r.Activate(model.Authoritative, player, w)
		}
	}
}

// RemoveFromAll deactivates w for every online player and resyncs each
// player's list.
func (r *Registry) RemoveFromAll(w *model.Waystone) {
	if w == nil || r.Roster == nil {
		return
	}
	for _, player := range r.Roster.Online() {
		r.Deactivate(model.Authoritative, player, w)
		if r.Notifier != nil {
			r.Notifier.SyncKnownWaystones(player, r.Resolve(model.Authoritative, player))
		}
	}
}
