package voxel

import (
	"testing"

	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/landing"
	"waystones.ai/internal/sim/waystone/model"
)

func flat() *World {
	return NewWorld("overworld", Gen{Seed: 1, MaxHeight: 127, SeaLevel: 62, BoundaryR: 100, Flat: true})
}

func TestFlatColumn(t *testing.T) {
	w := flat()
	if w.GetBlock(0, 0, 0) != Bedrock || w.GetBlock(0, 61, 0) != Grass || w.GetBlock(0, 58, 0) != Dirt || w.GetBlock(0, 10, 0) != Stone {
		t.Fatalf("unexpected column layers")
	}
	if w.GetBlock(0, 62, 0) != Air {
		t.Fatalf("air above ground")
	}
	if got := w.SurfaceHeight(-37, 15); got != 62 {
		t.Fatalf("surface=%d", got)
	}
}

func TestBounds(t *testing.T) {
	w := flat()
	if w.GetBlock(0, -1, 0) != Bedrock {
		t.Fatalf("below the world is solid")
	}
	if w.GetBlock(101, 10, 0) != Air || w.GetBlock(0, 128, 0) != Air {
		t.Fatalf("outside the boundary is air")
	}
	w.SetBlock(101, 70, 0, Stone)
	if len(w.Chunks) != 0 {
		t.Fatalf("out of bounds writes must not generate chunks")
	}
}

func TestSetBlockNegativeCoords(t *testing.T) {
	w := flat()
	w.SetBlock(-1, 70, -17, Log)
	if w.GetBlock(-1, 70, -17) != Log {
		t.Fatalf("negative coords round trip")
	}
	if _, ok := w.Chunks[ChunkKey{CX: -1, CZ: -2}]; !ok {
		t.Fatalf("expected chunk -1,-2; have %v", w.LoadedChunkKeys())
	}
	if got := w.SurfaceHeight(-1, -17); got != 71 {
		t.Fatalf("surface=%d", got)
	}
}

func TestIsVolumeFree(t *testing.T) {
	w := flat()
	standing := landing.StandingBox(model.Body{Width: 0.6, Height: 1.8}, model.Vec3i{Y: 62})
	if !w.IsVolumeFree(standing) {
		t.Fatalf("standing on grass should be free")
	}
	sunk := landing.StandingBox(model.Body{Width: 0.6, Height: 1.8}, model.Vec3i{Y: 61})
	if w.IsVolumeFree(sunk) {
		t.Fatalf("inside the grass layer")
	}
	w.SetBlock(0, 63, 0, Leaves)
	if w.IsVolumeFree(standing) {
		t.Fatalf("leaves at head height")
	}
}

func TestPlaceWaystoneAndLand(t *testing.T) {
	w := flat()
	base := model.Vec3i{Y: 62}
	w.PlaceWaystone(base, model.South)
	if d, ok := w.BlockFacing(base.Up()); !ok || d != model.South {
		t.Fatalf("top facing=%v ok=%v", d, ok)
	}
	got, ok := landing.Find(w, model.Body{Width: 0.6, Height: 1.8}, base)
	if !ok || got.Pos != (model.Vec3i{Y: 62, Z: 1}) || got.Facing != model.South {
		t.Fatalf("landing=%+v ok=%v", got, ok)
	}

	w.SetBlock(base.X, base.Y, base.Z, Air)
	if _, ok := w.BlockFacing(base); ok {
		t.Fatalf("facing cleared with the block")
	}
}

func TestDigestDeterministic(t *testing.T) {
	cfg := tuning.Defaults()
	a := NewWorlds(cfg)["overworld"]
	b := NewWorlds(cfg)["overworld"]
	for _, w := range []*World{a, b} {
		w.GetOrGenChunk(0, 0)
		w.GetOrGenChunk(-3, 5)
	}
	if a.Digest() != b.Digest() {
		t.Fatalf("same seed should generate the same terrain")
	}
	a.SetBlock(1, 100, 1, Stone)
	if a.Digest() == b.Digest() {
		t.Fatalf("digest should change after an edit")
	}
}

func TestSpawnAreaIsFlat(t *testing.T) {
	w := NewWorld("overworld", Gen{Seed: 99, MaxHeight: 255, SeaLevel: 62})
	for _, p := range [][2]int{{0, 0}, {10, -10}, {-16, 0}} {
		if got := w.SurfaceHeight(p[0], p[1]); got != 62 {
			t.Fatalf("surface at %v = %d", p, got)
		}
	}
}

func TestWorldsLookup(t *testing.T) {
	ws := NewWorlds(tuning.Defaults())
	if _, ok := ws.World("the_nether"); !ok {
		t.Fatalf("nether configured")
	}
	if _, ok := ws.World("the_end"); ok {
		t.Fatalf("unknown dimension")
	}
}

func TestBorderBlocksStanding(t *testing.T) {
	w := flat()
	body := model.Body{Width: 0.6, Height: 1.8}
	if !w.IsVolumeFree(landing.StandingBox(body, model.Vec3i{X: 100, Y: 62})) {
		t.Fatalf("last column inside the border should be free")
	}
	if w.IsVolumeFree(landing.StandingBox(body, model.Vec3i{X: 101, Y: 62})) {
		t.Fatalf("column beyond the border accepted")
	}

	target := model.Vec3i{X: 100, Y: 62}
	w.PlaceWaystone(target, model.East)
	got, ok := landing.Find(w, body, target)
	if !ok || got.Pos.X > 100 {
		t.Fatalf("landing=%+v ok=%v, want a cell inside the border", got, ok)
	}
}
