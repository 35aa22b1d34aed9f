package voxel

import (
	"crypto/sha256"
	"encoding/binary"
)

const ChunkSize = 16

type Block uint16

const (
	Air Block = iota
	Stone
	Dirt
	Grass
	Bedrock
	Log
	Leaves
	Waystone
)

// Solid reports whether b has a full collision box.
func (b Block) Solid() bool {
	return b != Air
}

type ChunkKey struct {
	CX int
	CZ int
}

// Chunk is a 16x16 column of Height cells, x-fastest then z then y.
type Chunk struct {
	CX, CZ int
	Height int
	Blocks []Block

	dirty bool
	hash  [32]byte
}

func newChunk(cx, cz, height int) *Chunk {
	return &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: height,
		Blocks: make([]Block, ChunkSize*ChunkSize*height),
	}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) Block {
	if y < 0 || y >= c.Height {
		return Air
	}
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b Block) {
	if y < 0 || y >= c.Height {
		return
	}
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], uint16(v))
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}
