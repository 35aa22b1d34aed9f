package model

import "github.com/google/uuid"

// ItemKind identifies a warp item.
type ItemKind string

const (
	ItemNone         ItemKind = ""
	ItemWarpScroll   ItemKind = "warp_scroll"
	ItemWarpStone    ItemKind = "warp_stone"
	ItemReturnScroll ItemKind = "return_scroll"
	ItemBoundScroll  ItemKind = "bound_scroll"
)

// ItemStack is a held stack. The player owns it; Shrink mutates in place.
type ItemStack struct {
	Kind  ItemKind `json:"kind"`
	Count int      `json:"count"`
}

func (s *ItemStack) Empty() bool { return s == nil || s.Kind == ItemNone || s.Count <= 0 }

func (s *ItemStack) Is(kind ItemKind) bool { return !s.Empty() && s.Kind == kind }

func (s *ItemStack) Shrink(n int) {
	if s == nil {
		return
	}
	s.Count -= n
	if s.Count <= 0 {
		s.Count = 0
		s.Kind = ItemNone
	}
}

type Hand int

const (
	MainHand Hand = iota
	OffHand
)

// Body is the collision size of an entity.
type Body struct {
	Width  float64
	Height float64
}

// Player is the subset of a connected player the waystone rules use.
type Player interface {
	ID() uuid.UUID
	Position() Vec3
	Dimension() string
	Body() Body
	Creative() bool

	ExperienceLevel() int
	AddExperienceLevel(delta int)

	// HeldItem returns the live stack in hand, or nil.
	HeldItem(h Hand) *ItemStack

	Teleport(dimension string, pos Vec3, yaw float64)
}

// World answers block and collision queries for one dimension.
type World interface {
	IsVolumeFree(box AABB) bool
	SurfaceHeight(x, z int) int
	MaxHeight() int
	BlockFacing(pos Vec3i) (Direction, bool)
}

// Worlds resolves a dimension id.
type Worlds interface {
	World(dimension string) (World, bool)
}

// Registry resolves waystone handles.
type Registry interface {
	Get(id uuid.UUID) (*Waystone, bool)
	At(dimension string, pos Vec3i) (*Waystone, bool)
}

// Roster lists the currently connected players.
type Roster interface {
	Online() []uuid.UUID
}

// Notifier delivers fire-and-forget messages to clients.
type Notifier interface {
	BroadcastEffect(dimension string, pos Vec3i)
	SyncCooldowns(player uuid.UUID, state CooldownState)
	SyncKnownWaystones(player uuid.UUID, known []*Waystone)
	Notice(player uuid.UUID, code string)
}
