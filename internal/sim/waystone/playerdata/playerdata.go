package playerdata

import (
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"waystones.ai/internal/sim/waystone/model"
)

// Data is one player's waystone record.
type Data struct {
	// Waystones is in display order.
	Waystones                    []uuid.UUID `json:"waystones"`
	WarpStoneCooldownUntil       int64       `json:"warp_stone_cooldown_until"`
	InventoryButtonCooldownUntil int64       `json:"inventory_button_cooldown_until"`
}

func (d Data) clone() Data {
	out := d
	out.Waystones = append([]uuid.UUID(nil), d.Waystones...)
	return out
}

// Store is the per-player record capability shared by the cooldown tracker and
// the knowledge registry. Records are created lazily on first access.
type Store interface {
	IsActivated(player, waystone uuid.UUID) bool
	// Activate appends waystone unless already known and reports whether it did.
	Activate(player, waystone uuid.UUID) bool
	// Deactivate removes waystone and reports whether it was known.
	Deactivate(player, waystone uuid.UUID) bool
	Waystones(player uuid.UUID) []uuid.UUID
	// Swap exchanges two display positions; false if either is out of range.
	Swap(player uuid.UUID, i, j int) bool

	WarpStoneCooldownUntil(player uuid.UUID) int64
	SetWarpStoneCooldownUntil(player uuid.UUID, until int64)
	InventoryButtonCooldownUntil(player uuid.UUID) int64
	SetInventoryButtonCooldownUntil(player uuid.UUID, until int64)
}

// records is the map shared by both store variants.
type records struct {
	mu deadlock.Mutex
	m  map[uuid.UUID]*Data

	// dirty is nil for stores that are never saved.
	dirty map[uuid.UUID]struct{}
}

func newRecords(trackDirty bool) *records {
	r := &records{m: map[uuid.UUID]*Data{}}
	if trackDirty {
		r.dirty = map[uuid.UUID]struct{}{}
	}
	return r
}

func (r *records) getLocked(player uuid.UUID) *Data {
	d := r.m[player]
	if d == nil {
		d = &Data{}
		r.m[player] = d
	}
	return d
}

func (r *records) read(player uuid.UUID, fn func(d *Data)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.getLocked(player))
}

func (r *records) write(player uuid.UUID, fn func(d *Data) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := fn(r.getLocked(player))
	if changed && r.dirty != nil {
		r.dirty[player] = struct{}{}
	}
	return changed
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (r *records) IsActivated(player, waystone uuid.UUID) bool {
	var ok bool
	r.read(player, func(d *Data) { ok = indexOf(d.Waystones, waystone) >= 0 })
	return ok
}

func (r *records) Activate(player, waystone uuid.UUID) bool {
	return r.write(player, func(d *Data) bool {
		if indexOf(d.Waystones, waystone) >= 0 {
			return false
		}
		d.Waystones = append(d.Waystones, waystone)
		return true
	})
}

func (r *records) Deactivate(player, waystone uuid.UUID) bool {
	return r.write(player, func(d *Data) bool {
		i := indexOf(d.Waystones, waystone)
		if i < 0 {
			return false
		}
		d.Waystones = append(d.Waystones[:i], d.Waystones[i+1:]...)
		return true
	})
}

func (r *records) Waystones(player uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	r.read(player, func(d *Data) { out = append([]uuid.UUID(nil), d.Waystones...) })
	return out
}

func (r *records) Swap(player uuid.UUID, i, j int) bool {
	ok := false
	r.write(player, func(d *Data) bool {
		n := len(d.Waystones)
		if i < 0 || j < 0 || i >= n || j >= n {
			return false
		}
		ok = true
		if i == j {
			return false
		}
		d.Waystones[i], d.Waystones[j] = d.Waystones[j], d.Waystones[i]
		return true
	})
	return ok
}

func (r *records) WarpStoneCooldownUntil(player uuid.UUID) int64 {
	var v int64
	r.read(player, func(d *Data) { v = d.WarpStoneCooldownUntil })
	return v
}

func (r *records) SetWarpStoneCooldownUntil(player uuid.UUID, until int64) {
	r.write(player, func(d *Data) bool {
		d.WarpStoneCooldownUntil = until
		return true
	})
}

func (r *records) InventoryButtonCooldownUntil(player uuid.UUID) int64 {
	var v int64
	r.read(player, func(d *Data) { v = d.InventoryButtonCooldownUntil })
	return v
}

func (r *records) SetInventoryButtonCooldownUntil(player uuid.UUID, until int64) {
	r.write(player, func(d *Data) bool {
		d.InventoryButtonCooldownUntil = until
		return true
	})
}

// Stores holds both variants and picks one by authority.
type Stores struct {
	Persistent *Persistent
	Ephemeral  *Ephemeral
}

func NewStores() *Stores {
	return &Stores{Persistent: NewPersistent(), Ephemeral: NewEphemeral()}
}

// For returns the store for auth. Authorization must only use model.Authoritative.
func (s *Stores) For(auth model.Authority) Store {
	if auth == model.Remote {
		return s.Ephemeral
	}
	return s.Persistent
}
