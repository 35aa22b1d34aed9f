package registry

import (
	"testing"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
)

func TestPutAtRemove(t *testing.T) {
	r := New()
	w := r.Put(&model.Waystone{Name: "home", Dimension: "overworld", Pos: model.Vec3i{X: 3, Y: 64, Z: 3}, Valid: true})
	if w.ID == uuid.Nil {
		t.Fatalf("put assigns an id")
	}
	if got, ok := r.At("overworld", model.Vec3i{X: 3, Y: 65, Z: 3}); !ok || got != w {
		t.Fatalf("top cell should resolve")
	}
	if _, ok := r.At("the_nether", w.Pos); ok {
		t.Fatalf("dimensions are separate")
	}

	moved := *w
	moved.Pos = model.Vec3i{X: 9, Y: 64, Z: 9}
	r.Put(&moved)
	if _, ok := r.At("overworld", model.Vec3i{X: 3, Y: 64, Z: 3}); ok {
		t.Fatalf("old position should be released")
	}

	got, ok := r.Remove(w.ID)
	if !ok || got.Valid {
		t.Fatalf("removed handle must be invalid")
	}
	if _, ok := r.Get(w.ID); ok {
		t.Fatalf("removed")
	}
	if _, ok := r.Remove(w.ID); ok {
		t.Fatalf("double remove")
	}
}

func TestAllAndGlobalsOrder(t *testing.T) {
	r := New()
	r.Put(&model.Waystone{Name: "b", Dimension: "overworld", Pos: model.Vec3i{X: 1}, Valid: true, Global: true})
	r.Put(&model.Waystone{Name: "a", Dimension: "overworld", Pos: model.Vec3i{X: 2}, Valid: true})
	r.Put(&model.Waystone{Name: "a", Dimension: "the_nether", Pos: model.Vec3i{X: 3}, Valid: true, Global: true})

	all := r.All()
	if len(all) != 3 || all[0].Name != "a" || all[1].Name != "b" || all[2].Dimension != "the_nether" {
		t.Fatalf("order: %v", all)
	}
	g := r.Globals()
	if len(g) != 2 || g[0].Name != "b" || g[1].Dimension != "the_nether" {
		t.Fatalf("globals: %v", g)
	}
}
