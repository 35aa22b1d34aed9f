package registry

import (
	"sort"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
)

type posKey struct {
	dim string
	pos model.Vec3i
}

// Registry is the in-memory waystone index owned by the game loop.
type Registry struct {
	byID  map[uuid.UUID]*model.Waystone
	byPos map[posKey]uuid.UUID
}

func New() *Registry {
	return &Registry{
		byID:  map[uuid.UUID]*model.Waystone{},
		byPos: map[posKey]uuid.UUID{},
	}
}

// Put inserts or replaces w. A zero ID gets a fresh random one.
func (r *Registry) Put(w *model.Waystone) *model.Waystone {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if old, ok := r.byID[w.ID]; ok {
		delete(r.byPos, posKey{dim: old.Dimension, pos: old.Pos})
	}
	r.byID[w.ID] = w
	r.byPos[posKey{dim: w.Dimension, pos: w.Pos}] = w.ID
	return w
}

func (r *Registry) Get(id uuid.UUID) (*model.Waystone, bool) {
	w, ok := r.byID[id]
	return w, ok
}

// At resolves the waystone whose base or top cell is pos.
func (r *Registry) At(dimension string, pos model.Vec3i) (*model.Waystone, bool) {
	if id, ok := r.byPos[posKey{dim: dimension, pos: pos}]; ok {
		return r.Get(id)
	}
	below := model.Vec3i{X: pos.X, Y: pos.Y - 1, Z: pos.Z}
	if id, ok := r.byPos[posKey{dim: dimension, pos: below}]; ok {
		return r.Get(id)
	}
	return nil, false
}

// Remove invalidates and forgets the waystone. Handles held elsewhere see
// Valid == false.
func (r *Registry) Remove(id uuid.UUID) (*model.Waystone, bool) {
	w, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	w.Valid = false
	delete(r.byID, id)
	delete(r.byPos, posKey{dim: w.Dimension, pos: w.Pos})
	return w, true
}

// All returns every waystone sorted by dimension, name, id.
func (r *Registry) All() []*model.Waystone {
	out := make([]*model.Waystone, 0, len(r.byID))
	for _, w := range r.byID {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dimension != out[j].Dimension {
			return out[i].Dimension < out[j].Dimension
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Globals returns the global waystones in All order.
func (r *Registry) Globals() []*model.Waystone {
	var out []*model.Waystone
	for _, w := range r.All() {
		if w.Global {
			out = append(out, w)
		}
	}
	return out
}
