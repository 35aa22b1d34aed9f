package model

import "math"

// Vec3i is a block coordinate.
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3i) Up() Vec3i         { return Vec3i{X: v.X, Y: v.Y + 1, Z: v.Z} }

// Offset returns the neighbouring cell in direction d.
func (v Vec3i) Offset(d Direction) Vec3i { return v.Add(d.Step()) }

// Vec3 is an entity position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BlockPos returns the cell containing v.
func (v Vec3) BlockPos() Vec3i {
	return Vec3i{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

// DistanceSqTo returns the squared distance from v to the corner of cell p.
func (v Vec3) DistanceSqTo(p Vec3i) float64 {
	dx := v.X - float64(p.X)
	dy := v.Y - float64(p.Y)
	dz := v.Z - float64(p.Z)
	return dx*dx + dy*dy + dz*dz
}

// AABB is an axis-aligned box in world coordinates.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Intersects reports whether the open interiors of a and b overlap.
// Touching faces do not count.
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X &&
		a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y &&
		a.Min.Z < b.Max.Z && a.Max.Z > b.Min.Z
}

// BlockBox returns the unit cube of cell p.
func BlockBox(p Vec3i) AABB {
	return AABB{
		Min: Vec3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)},
		Max: Vec3{X: float64(p.X + 1), Y: float64(p.Y + 1), Z: float64(p.Z + 1)},
	}
}

// Direction is a horizontal facing.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

var directionNames = [...]string{"north", "east", "south", "west"}

func (d Direction) String() string {
	if d < North || d > West {
		return "unknown"
	}
	return directionNames[d]
}

// ParseDirection is the inverse of String.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), true
		}
	}
	return North, false
}

func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// Clockwise rotates a quarter turn clockwise seen from above (north -> east).
func (d Direction) Clockwise() Direction { return (d + 1) % 4 }

// CounterClockwise rotates a quarter turn counter-clockwise (north -> west).
func (d Direction) CounterClockwise() Direction { return (d + 3) % 4 }

// Step is the unit offset of d; north is -Z, east is +X.
func (d Direction) Step() Vec3i {
	switch d {
	case North:
		return Vec3i{Z: -1}
	case East:
		return Vec3i{X: 1}
	case South:
		return Vec3i{Z: 1}
	default:
		return Vec3i{X: -1}
	}
}

// Yaw is the entity rotation in degrees for facing d (south = 0, west = 90).
func (d Direction) Yaw() float64 {
	switch d {
	case South:
		return 0
	case West:
		return 90
	case North:
		return 180
	default:
		return 270
	}
}
