package teleport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/cooldown"
	"waystones.ai/internal/sim/waystone/cost"
	"waystones.ai/internal/sim/waystone/gate"
	"waystones.ai/internal/sim/waystone/landing"
	"waystones.ai/internal/sim/waystone/model"
)

// ErrUnresolvedWaystone means the caller passed a target that cannot be
// located at all. It is a caller bug, not a denial.
var ErrUnresolvedWaystone = errors.New("teleport: waystone cannot be resolved")

// Player-facing notice keys for the two denials the orchestrator reports itself.
const (
	NoticeCannotDimensionWarp = protocol.NoticeCannotDimensionWarp
	NoticeObstructed          = protocol.NoticeObstructed
)

type Outcome int

const (
	Teleported Outcome = iota
	DeniedInvalidTarget
	DeniedWarpMode
	DeniedLevels
	DeniedDimensionalWarp
	DeniedObstructed
)

func (o Outcome) OK() bool { return o == Teleported }

func (o Outcome) String() string {
	switch o {
	case Teleported:
		return "TELEPORTED"
	case DeniedInvalidTarget:
		return "INVALID_TARGET"
	case DeniedWarpMode:
		return "WARP_MODE"
	case DeniedLevels:
		return "LEVELS"
	case DeniedDimensionalWarp:
		return "DIMENSIONAL_WARP"
	case DeniedObstructed:
		return "OBSTRUCTED"
	default:
		return "UNKNOWN"
	}
}

// Record describes one attempt for audit.
type Record struct {
	Player    uuid.UUID
	Waystone  uuid.UUID
	From      uuid.UUID
	Mode      model.WarpMode
	Outcome   Outcome
	Cost      int
	Origin    model.Vec3i
	OriginDim string
	Landing   *landing.Landing
}

type Recorder interface {
	RecordTeleport(r Record)
}

type Orchestrator struct {
	Config    tuning.Config
	Worlds    model.Worlds
	Cooldowns *cooldown.Tracker
	Notifier  model.Notifier
	Recorder  Recorder
}

// Attempt validates and, if everything passes, performs a jump. All checks
// run before the first mutation, so a denial leaves the player, the item
// stack and the cooldowns untouched.
func (o *Orchestrator) Attempt(p model.Player, to *model.Waystone, mode model.WarpMode, from *model.Waystone) (Outcome, error) {
	if to == nil {
		return DeniedInvalidTarget, ErrUnresolvedWaystone
	}
	rec := Record{
		Player:    p.ID(),
		Waystone:  to.ID,
		Mode:      mode,
		Origin:    p.Position().BlockPos(),
		OriginDim: p.Dimension(),
	}
	if from != nil {
		rec.From = from.ID
	}
	out, err := o.attempt(p, to, from, mode, &rec)
	rec.Outcome = out
	if err == nil && o.Recorder != nil {
		o.Recorder.RecordTeleport(rec)
	}
	return out, err
}

func (o *Orchestrator) attempt(p model.Player, to, from *model.Waystone, mode model.WarpMode, rec *Record) (Outcome, error) {
	if !to.Valid {
		return DeniedInvalidTarget, nil
	}
	target, ok := o.Worlds.World(to.Dimension)
	if !ok {
		return DeniedInvalidTarget, fmt.Errorf("%w: no dimension %q", ErrUnresolvedWaystone, to.Dimension)
	}

	held := gate.FindWarpItem(p, mode)
	if !gate.CanUse(o.Cooldowns, p, mode, held, from) {
		return DeniedWarpMode, nil
	}

	levels := cost.Levels(o.Config, p, to, mode)
	rec.Cost = levels
	if p.ExperienceLevel() < levels {
		return DeniedLevels, nil
	}

	if to.Dimension != p.Dimension() && !o.Config.DimensionalWarp.Permits(to.Global) {
		o.notice(p, NoticeCannotDimensionWarp)
		return DeniedDimensionalWarp, nil
	}

	land, ok := landing.Find(target, p.Body(), to.Pos)
	if !ok {
		o.notice(p, NoticeObstructed)
		return DeniedObstructed, nil
	}
	rec.Landing = &land

	// Mutations start here.
	p.Teleport(to.Dimension, model.Vec3{
		X: float64(land.Pos.X) + 0.5,
		Y: float64(land.Pos.Y) + 0.5,
		Z: float64(land.Pos.Z) + 0.5,
	}, land.Facing.Yaw())

	info, _ := mode.Info()
	if info.ConsumesItem && !p.Creative() && held != nil {
		held.Shrink(1)
	}

	if info.Cooldown != model.NoCooldown {
		o.Cooldowns.Start(model.Authoritative, p.ID(), info.Cooldown, o.Config, to)
		if o.Notifier != nil {
			o.Notifier.SyncCooldowns(p.ID(), o.Cooldowns.State(model.Authoritative, p.ID()))
		}
	}

	if levels > 0 {
		p.AddExperienceLevel(-levels)
	}

	if o.Notifier != nil {
		o.Notifier.BroadcastEffect(rec.OriginDim, rec.Origin)
		o.Notifier.BroadcastEffect(to.Dimension, land.Pos)
	}
	return Teleported, nil
}

func (o *Orchestrator) notice(p model.Player, code string) {
	if o.Notifier != nil {
		o.Notifier.Notice(p.ID(), code)
	}
}
