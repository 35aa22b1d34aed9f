package cooldown

import (
	"time"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
)

// Tracker reads and writes both cooldown classes. Every call names the
// authority whose store it touches.
type Tracker struct {
	Stores *playerdata.Stores
	Now    func() time.Time
}

func NewTracker(stores *playerdata.Stores, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{Stores: stores, Now: now}
}

func (t *Tracker) nowMillis() int64 { return t.Now().UnixMilli() }

func left(until, now int64) int64 {
	if until <= now {
		return 0
	}
	return until - now
}

func (t *Tracker) WarpStoneCooldownUntil(auth model.Authority, player uuid.UUID) int64 {
	return t.Stores.For(auth).WarpStoneCooldownUntil(player)
}

// SetWarpStoneCooldownUntil overwrites the expiry; it never merges.
func (t *Tracker) SetWarpStoneCooldownUntil(auth model.Authority, player uuid.UUID, until int64) {
	t.Stores.For(auth).SetWarpStoneCooldownUntil(player, until)
}

func (t *Tracker) WarpStoneCooldownLeft(auth model.Authority, player uuid.UUID) int64 {
	return left(t.WarpStoneCooldownUntil(auth, player), t.nowMillis())
}

func (t *Tracker) CanUseWarpStone(auth model.Authority, player uuid.UUID) bool {
	return t.WarpStoneCooldownLeft(auth, player) == 0
}

func (t *Tracker) InventoryButtonCooldownUntil(auth model.Authority, player uuid.UUID) int64 {
	return t.Stores.For(auth).InventoryButtonCooldownUntil(player)
}

func (t *Tracker) SetInventoryButtonCooldownUntil(auth model.Authority, player uuid.UUID, until int64) {
	t.Stores.For(auth).SetInventoryButtonCooldownUntil(player, until)
}

func (t *Tracker) InventoryButtonCooldownLeft(auth model.Authority, player uuid.UUID) int64 {
	return left(t.InventoryButtonCooldownUntil(auth, player), t.nowMillis())
}

func (t *Tracker) CanUseInventoryButton(auth model.Authority, player uuid.UUID) bool {
	return t.InventoryButtonCooldownLeft(auth, player) == 0
}

// Left returns the remaining time of class in milliseconds.
func (t *Tracker) Left(auth model.Authority, player uuid.UUID, class model.CooldownClass) int64 {
	switch class {
	case model.WarpStoneCooldown:
		return t.WarpStoneCooldownLeft(auth, player)
	case model.InventoryButtonCooldown:
		return t.InventoryButtonCooldownLeft(auth, player)
	default:
		return 0
	}
}

// State returns both expiries for syncing to a client.
func (t *Tracker) State(auth model.Authority, player uuid.UUID) model.CooldownState {
	return model.CooldownState{
		WarpStoneUntil:       t.WarpStoneCooldownUntil(auth, player),
		InventoryButtonUntil: t.InventoryButtonCooldownUntil(auth, player),
	}
}

// Multiplier is 1 unless the waystone is global.
func Multiplier(cfg tuning.Config, w *model.Waystone) float64 {
	if w != nil && w.Global {
		return cfg.GlobalWaystoneCooldownMultiplier
	}
	return 1
}

// Duration returns the configured duration of class scaled for w, truncated
// to whole seconds.
func Duration(cfg tuning.Config, class model.CooldownClass, w *model.Waystone) time.Duration {
	var seconds int
	switch class {
	case model.WarpStoneCooldown:
		seconds = cfg.WarpStoneCooldownSeconds
	case model.InventoryButtonCooldown:
		seconds = cfg.InventoryButtonCooldownSeconds
	default:
		return 0
	}
	scaled := int(float64(seconds) * Multiplier(cfg, w))
	return time.Duration(scaled) * time.Second
}

// Start sets class to expire Duration(cfg, class, w) from now and returns the
// new expiry. NoCooldown is a no-op returning 0.
func (t *Tracker) Start(auth model.Authority, player uuid.UUID, class model.CooldownClass, cfg tuning.Config, w *model.Waystone) int64 {
	until := t.nowMillis() + Duration(cfg, class, w).Milliseconds()
	switch class {
	case model.WarpStoneCooldown:
		t.SetWarpStoneCooldownUntil(auth, player, until)
	case model.InventoryButtonCooldown:
		t.SetInventoryButtonCooldownUntil(auth, player, until)
	default:
		return 0
	}
	return until
}
