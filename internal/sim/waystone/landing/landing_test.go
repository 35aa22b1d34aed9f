package landing

import (
	"math"
	"testing"

	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/waystonetest"
)

var body = model.Body{Width: 0.6, Height: 1.8}

func ring(w *waystonetest.World, target model.Vec3i) {
	for _, d := range []model.Direction{model.North, model.East, model.South, model.West} {
		w.Fill(target.Offset(d))
	}
}

func TestCandidatesOrder(t *testing.T) {
	w := waystonetest.NewWorld(64, 255)
	target := model.Vec3i{Y: 64}
	w.Facing[target] = model.East

	c := Candidates(w, target)
	if len(c) != 12 {
		t.Fatalf("expected 12 candidates, got %d", len(c))
	}
	wantDirs := []model.Direction{model.East, model.West, model.South, model.North}
	for i, d := range wantDirs {
		if c[i].Facing != d || c[i].Pos != target.Offset(d) {
			t.Fatalf("candidate %d: %+v", i, c[i])
		}
		if c[4+i].Pos != target.Offset(d).Up() {
			t.Fatalf("one-up candidate %d: %+v", i, c[4+i])
		}
	}
	if PreferredFacing(w, model.Vec3i{X: 50}) != model.North {
		t.Fatalf("blocks without facing default to north")
	}
}

func TestFindPrefersSameLevel(t *testing.T) {
	w := waystonetest.NewWorld(64, 255)
	target := model.Vec3i{Y: 64}
	got, ok := Find(w, body, target)
	if !ok || got.Pos != (model.Vec3i{Y: 64, Z: -1}) || got.Facing != model.North {
		t.Fatalf("landing=%+v ok=%v", got, ok)
	}
}

func TestFindStepsUpWhenRingIsBlocked(t *testing.T) {
	w := waystonetest.NewWorld(64, 255)
	target := model.Vec3i{Y: 64}
	w.Facing[target] = model.East
	ring(w, target)

	got, ok := Find(w, body, target)
	if !ok || got.Pos != (model.Vec3i{X: 1, Y: 65}) || got.Facing != model.East {
		t.Fatalf("landing=%+v ok=%v", got, ok)
	}
}

func TestFindSkipsOutOfBoundsAndFails(t *testing.T) {
	// Ceiling at the target level rules out the raised candidates; the ring
	// blocks the rest.
	w := waystonetest.NewWorld(64, 64)
	target := model.Vec3i{Y: 64}
	ring(w, target)

	skipped := 0
	for _, c := range Candidates(w, target) {
		if c.Skipped {
			skipped++
		}
	}
	if skipped != 8 {
		t.Fatalf("expected 8 skipped candidates, got %d", skipped)
	}
	if _, ok := Find(w, body, target); ok {
		t.Fatalf("expected no landing")
	}
}

func TestVerticalOffsetBound(t *testing.T) {
	w := waystonetest.NewWorld(0, 255)
	target := model.Vec3i{Y: 64}
	for _, c := range Candidates(w, target)[8:] {
		if !c.Skipped {
			t.Fatalf("surface at y=0 is more than %d below the target: %+v", MaxVerticalOffset, c)
		}
	}
}

func TestStandingBox(t *testing.T) {
	b := StandingBox(body, model.Vec3i{X: 2, Y: 10, Z: -3})
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	if !near(b.Min.X, 2.2) || !near(b.Max.X, 2.8) || b.Min.Y != 10 || !near(b.Max.Y, 11.8) || !near(b.Min.Z, -2.8) {
		t.Fatalf("box=%+v", b)
	}
}

func TestFindIsDeterministic(t *testing.T) {
	build := func() *waystonetest.World {
		w := waystonetest.NewWorld(64, 255)
		target := model.Vec3i{X: 7, Y: 64, Z: -3}
		w.Facing[target] = model.West
		w.Fill(target.Offset(model.West))
		w.Fill(target.Offset(model.East).Up())
		return w
	}
	target := model.Vec3i{X: 7, Y: 64, Z: -3}
	a, b := build(), build()

	first, ok := Find(a, body, target)
	if !ok {
		t.Fatalf("no landing")
	}
	for i := 0; i < 5; i++ {
		again, ok := Find(a, body, target)
		if !ok || again != first {
			t.Fatalf("run %d: %+v, want %+v", i, again, first)
		}
		other, ok := Find(b, body, target)
		if !ok || other != first {
			t.Fatalf("identical world gave %+v, want %+v", other, first)
		}
	}
}
