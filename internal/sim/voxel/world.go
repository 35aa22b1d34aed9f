package voxel

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/model"
)

type Gen struct {
	Seed      int64
	MaxHeight int
	SeaLevel  int
	BoundaryR int // blocks; 0 = unbounded

	// Flat skips terrain noise; every column is SeaLevel high.
	Flat bool
}

// World is one dimension's block store. It is owned by the game loop and is
// not safe for concurrent use.
type World struct {
	ID     string
	Gen    Gen
	Chunks map[ChunkKey]*Chunk

	facing map[model.Vec3i]model.Direction
}

func NewWorld(id string, gen Gen) *World {
	if gen.MaxHeight <= 0 {
		gen.MaxHeight = 255
	}
	return &World{
		ID:     id,
		Gen:    gen,
		Chunks: map[ChunkKey]*Chunk{},
		facing: map[model.Vec3i]model.Direction{},
	}
}

func (w *World) InBounds(x, y, z int) bool {
	if y < 0 || y > w.Gen.MaxHeight {
		return false
	}
	if r := w.Gen.BoundaryR; r > 0 {
		if x < -r || x > r || z < -r || z > r {
			return false
		}
	}
	return true
}

func (w *World) GetBlock(x, y, z int) Block {
	if !w.InBounds(x, y, z) {
		if y < 0 {
			return Bedrock
		}
		return Air
	}
	ch := w.GetOrGenChunk(floorDiv(x, ChunkSize), floorDiv(z, ChunkSize))
	return ch.Get(mod(x, ChunkSize), y, mod(z, ChunkSize))
}

func (w *World) SetBlock(x, y, z int, b Block) {
	if !w.InBounds(x, y, z) {
		return
	}
	ch := w.GetOrGenChunk(floorDiv(x, ChunkSize), floorDiv(z, ChunkSize))
	ch.Set(mod(x, ChunkSize), y, mod(z, ChunkSize), b)
	if b != Waystone {
		delete(w.facing, model.Vec3i{X: x, Y: y, Z: z})
	}
}

// SetFacing records an orientation for the block at p.
func (w *World) SetFacing(p model.Vec3i, d model.Direction) {
	w.facing[p] = d
}

// PlaceWaystone puts a two-high waystone at p facing d.
func (w *World) PlaceWaystone(p model.Vec3i, d model.Direction) {
	w.SetBlock(p.X, p.Y, p.Z, Waystone)
	w.SetBlock(p.X, p.Y+1, p.Z, Waystone)
	w.SetFacing(p, d)
	w.SetFacing(p.Up(), d)
}

func (w *World) GetOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := w.Chunks[k]; ok {
		return ch
	}
	ch := newChunk(cx, cz, w.Gen.MaxHeight+1)
	w.generate(ch)
	ch.dirty = true
	_ = ch.Digest()
	w.Chunks[k] = ch
	return ch
}

// groundHeight is the number of solid layers in a fresh column.
func (w *World) groundHeight(x, z int) int {
	h := w.Gen.SeaLevel
	if w.Gen.Flat {
		return h
	}
	// Keep the spawn area flat.
	if x*x+z*z <= 16*16 {
		return h
	}
	n := hash2(w.Gen.Seed, floorDiv(x, 8), floorDiv(z, 8))
	h += int(n%9) - 4
	if h < 1 {
		h = 1
	}
	if h > w.Gen.MaxHeight {
		h = w.Gen.MaxHeight
	}
	return h
}

func (w *World) generate(ch *Chunk) {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z
			ground := w.groundHeight(wx, wz)
			for y := 0; y < ground && y < ch.Height; y++ {
				b := Stone
				switch {
				case y == 0:
					b = Bedrock
				case y == ground-1:
					b = Grass
				case y >= ground-4:
					b = Dirt
				}
				ch.Blocks[ch.index(x, y, z)] = b
			}
		}
	}
}

// IsVolumeFree reports whether no solid cell overlaps box.
func (w *World) IsVolumeFree(box model.AABB) bool {
	x0, x1 := int(math.Floor(box.Min.X)), int(math.Ceil(box.Max.X))
	y0, y1 := int(math.Floor(box.Min.Y)), int(math.Ceil(box.Max.Y))
	z0, z1 := int(math.Floor(box.Min.Z)), int(math.Ceil(box.Max.Z))
	for y := y0; y < y1; y++ {
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				p := model.Vec3i{X: x, Y: y, Z: z}
				if !w.beyondBorder(x, z) && !w.GetBlock(x, y, z).Solid() {
					continue
				}
				if model.BlockBox(p).Intersects(box) {
					return false
				}
			}
		}
	}
	return true
}

// beyondBorder reports columns outside BoundaryR. They hold no blocks but
// nothing may stand in them.
func (w *World) beyondBorder(x, z int) bool {
	r := w.Gen.BoundaryR
	return r > 0 && (x < -r || x > r || z < -r || z > r)
}

// SurfaceHeight is the y of the first air cell above the highest solid block
// in the column.
func (w *World) SurfaceHeight(x, z int) int {
	for y := w.Gen.MaxHeight; y >= 0; y-- {
		if w.GetBlock(x, y, z).Solid() {
			return y + 1
		}
	}
	return 0
}

func (w *World) MaxHeight() int { return w.Gen.MaxHeight }

func (w *World) BlockFacing(p model.Vec3i) (model.Direction, bool) {
	d, ok := w.facing[p]
	return d, ok
}

// LoadedChunkKeys returns the generated chunk keys in a stable order.
func (w *World) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(w.Chunks))
	for k := range w.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// Worlds maps dimension ids to worlds.
type Worlds map[string]*World

func (ws Worlds) World(dimension string) (model.World, bool) {
	w, ok := ws[dimension]
	if !ok {
		return nil, false
	}
	return w, true
}

// NewWorlds builds one world per configured dimension.
func NewWorlds(cfg tuning.Config) Worlds {
	out := Worlds{}
	for _, d := range cfg.Dimensions {
		out[d.ID] = NewWorld(d.ID, Gen{
			Seed:      d.Seed,
			MaxHeight: d.MaxHeight,
			SeaLevel:  d.SeaLevel,
			BoundaryR: d.BoundaryR,
		})
	}
	return out
}

// Digest hashes every generated chunk in key order.
func (w *World) Digest() string {
	h := sha256.New()
	var tmp [8]byte
	for _, k := range w.LoadedChunkKeys() {
		binary.LittleEndian.PutUint32(tmp[:4], uint32(int32(k.CX)))
		binary.LittleEndian.PutUint32(tmp[4:], uint32(int32(k.CZ)))
		h.Write(tmp[:])
		d := w.Chunks[k].Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
