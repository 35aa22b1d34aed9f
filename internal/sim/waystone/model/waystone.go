package model

import "github.com/google/uuid"

// Waystone is a resolved travel anchor.
type Waystone struct {
	ID        uuid.UUID
	Name      string
	Dimension string
	Pos       Vec3i
	Owner     uuid.UUID // uuid.Nil when unowned

	Global    bool
	Generated bool
	Valid     bool
}

func (w *Waystone) IsOwner(player uuid.UUID) bool {
	return w != nil && w.Owner != uuid.Nil && w.Owner == player
}

// Authority selects which copy of per-player data a call may see.
type Authority int

const (
	// Authoritative is the simulation side; its records are persisted and
	// are the only ones consulted for authorization.
	Authoritative Authority = iota
	// Remote is a non-authoritative mirror (client prediction, UI).
	Remote
)

func (a Authority) String() string {
	if a == Remote {
		return "remote"
	}
	return "authoritative"
}

// CooldownState carries both cooldown classes as unix milliseconds.
type CooldownState struct {
	WarpStoneUntil       int64
	InventoryButtonUntil int64
}

// ActivatedEvent is published when a player learns a waystone.
type ActivatedEvent struct {
	Player   uuid.UUID
	Waystone *Waystone
}
