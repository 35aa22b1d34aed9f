package playerdata

import (
	"sort"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
)

// Persistent is the authoritative store. Records are loaded when a player
// joins and flushed by the saver through TakeDirty.
type Persistent struct {
	*records
}

func NewPersistent() *Persistent {
	return &Persistent{records: newRecords(true)}
}

// Load installs a saved record without marking it dirty.
func (p *Persistent) Load(player uuid.UUID, d Data) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := d.clone()
	p.m[player] = &c
	delete(p.dirty, player)
}

// Export returns a copy of the player's record.
func (p *Persistent) Export(player uuid.UUID) (Data, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.m[player]
	if !ok {
		return Data{}, false
	}
	return d.clone(), true
}

// TakeDirty returns copies of every record changed since the last call and
// clears the dirty set.
func (p *Persistent) TakeDirty() map[uuid.UUID]Data {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[uuid.UUID]Data, len(p.dirty))
	for id := range p.dirty {
		if d, ok := p.m[id]; ok {
			out[id] = d.clone()
		}
		delete(p.dirty, id)
	}
	return out
}

// MarkDirty requeues records whose save failed.
func (p *Persistent) MarkDirty(players ...uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range players {
		if _, ok := p.m[id]; ok {
			p.dirty[id] = struct{}{}
		}
	}
}

// Forget drops a record from memory; callers save it first.
func (p *Persistent) Forget(player uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, player)
	delete(p.dirty, player)
}

// Players returns the ids with a record in memory, sorted.
func (p *Persistent) Players() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(p.m))
	for id := range p.m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Ephemeral mirrors what the server last told a client. It is rebuilt from
// sync messages and never consulted for authorization.
type Ephemeral struct {
	*records
}

func NewEphemeral() *Ephemeral {
	return &Ephemeral{records: newRecords(false)}
}

// Reset drops every record; called on (re)connect.
func (e *Ephemeral) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m = map[uuid.UUID]*Data{}
}

func (e *Ephemeral) ApplyCooldowns(player uuid.UUID, state model.CooldownState) {
	e.write(player, func(d *Data) bool {
		d.WarpStoneCooldownUntil = state.WarpStoneUntil
		d.InventoryButtonCooldownUntil = state.InventoryButtonUntil
		return true
	})
}

// ApplyKnown replaces the known list with the server's order.
func (e *Ephemeral) ApplyKnown(player uuid.UUID, known []uuid.UUID) {
	e.write(player, func(d *Data) bool {
		d.Waystones = append([]uuid.UUID(nil), known...)
		return true
	})
}
