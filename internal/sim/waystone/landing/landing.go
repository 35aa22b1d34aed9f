package landing

import "waystones.ai/internal/sim/waystone/model"

// MaxVerticalOffset bounds how far above or below the target a landing may be.
const MaxVerticalOffset = 8

// Landing is an accepted standing cell and the facing to give the player.
type Landing struct {
	Pos    model.Vec3i
	Facing model.Direction
}

// Candidate is one cell in search order. Skipped candidates failed the
// height bounds and were never collision-tested.
type Candidate struct {
	Pos     model.Vec3i
	Facing  model.Direction
	Skipped bool
}

// PreferredFacing is the target block's facing, north when it has none.
func PreferredFacing(w model.World, target model.Vec3i) model.Direction {
	if d, ok := w.BlockFacing(target); ok {
		return d
	}
	return model.North
}

// Candidates returns the twelve cells in the fixed search order: for each of
// {same level, one up, column surface} every direction of {preferred,
// opposite, clockwise, counter-clockwise}, applied to the neighbour cell.
func Candidates(w model.World, target model.Vec3i) []Candidate {
	preferred := PreferredFacing(w, target)
	dirs := [4]model.Direction{
		preferred,
		preferred.Opposite(),
		preferred.Clockwise(),
		preferred.CounterClockwise(),
	}
	levels := [3]func(model.Vec3i) model.Vec3i{
		func(p model.Vec3i) model.Vec3i { return p },
		func(p model.Vec3i) model.Vec3i { return p.Up() },
		func(p model.Vec3i) model.Vec3i {
			return model.Vec3i{X: p.X, Y: w.SurfaceHeight(p.X, p.Z), Z: p.Z}
		},
	}

	out := make([]Candidate, 0, len(levels)*len(dirs))
	for _, level := range levels {
		for _, d := range dirs {
			p := level(target.Offset(d))
			dy := p.Y - target.Y
			if dy < 0 {
				dy = -dy
			}
			out = append(out, Candidate{
				Pos:     p,
				Facing:  d,
				Skipped: p.Y > w.MaxHeight() || dy > MaxVerticalOffset,
			})
		}
	}
	return out
}

// StandingBox is the body's volume standing on cell p.
func StandingBox(b model.Body, p model.Vec3i) model.AABB {
	half := b.Width / 2
	x := float64(p.X) + 0.5
	y := float64(p.Y)
	z := float64(p.Z) + 0.5
	return model.AABB{
		Min: model.Vec3{X: x - half, Y: y, Z: z - half},
		Max: model.Vec3{X: x + half, Y: y + b.Height, Z: z + half},
	}
}

// Find returns the first candidate whose standing box is free. ok is false
// when every candidate is out of bounds or obstructed.
func Find(w model.World, b model.Body, target model.Vec3i) (Landing, bool) {
	for _, c := range Candidates(w, target) {
		if c.Skipped {
			continue
		}
		if w.IsVolumeFree(StandingBox(b, c.Pos)) {
			return Landing{Pos: c.Pos, Facing: c.Facing}, true
		}
	}
	return Landing{}, false
}
