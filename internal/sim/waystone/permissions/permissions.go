package permissions

import (
	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/model"
)

// EditPermission is the outcome of MayEdit.
type EditPermission int

const (
	EditAllow EditPermission = iota
	EditNotCreative
	EditNotOwner
	EditGetCreative
)

func (p EditPermission) String() string {
	switch p {
	case EditAllow:
		return "ALLOW"
	case EditNotCreative:
		return "NOT_CREATIVE"
	case EditNotOwner:
		return "NOT_THE_OWNER"
	case EditGetCreative:
		return "GET_CREATIVE"
	default:
		return "UNKNOWN"
	}
}

// NoticeCode is the player-facing message key for a denial.
func (p EditPermission) NoticeCode() string {
	switch p {
	case EditNotCreative:
		return protocol.NoticeOnlyCreative
	case EditNotOwner:
		return protocol.NoticeNotTheOwner
	case EditGetCreative:
		return protocol.NoticeCreativeRequiredForGlobal
	default:
		return ""
	}
}

func creative(p model.Player) bool { return p != nil && p.Creative() }

// MayBreak is false for unresolved or invalid waystones.
func MayBreak(cfg tuning.Config, p model.Player, w *model.Waystone) bool {
	if w == nil || !w.Valid {
		return false
	}
	if cfg.RestrictToCreative && !creative(p) {
		return false
	}
	if creative(p) {
		return true
	}
	if w.Generated && cfg.GeneratedWaystonesUnbreakable {
		return false
	}
	return !w.Global || !cfg.GlobalWaystoneRequiresCreative
}

// MayBreakAt resolves the waystone at pos first.
func MayBreakAt(cfg tuning.Config, p model.Player, reg model.Registry, dimension string, pos model.Vec3i) bool {
	if reg == nil {
		return false
	}
	w, ok := reg.At(dimension, pos)
	if !ok {
		return false
	}
	return MayBreak(cfg, p, w)
}

// MayPlace treats a nil player as not creative.
func MayPlace(cfg tuning.Config, p model.Player) bool {
	return !cfg.RestrictToCreative || creative(p)
}

func MayEdit(cfg tuning.Config, p model.Player, w *model.Waystone) EditPermission {
	if cfg.RestrictToCreative && !creative(p) {
		return EditNotCreative
	}
	if cfg.RestrictRenameToOwner && (p == nil || !w.IsOwner(p.ID())) {
		return EditNotOwner
	}
	if w != nil && w.Global && !creative(p) && !cfg.GlobalWaystoneRequiresCreative {
		return EditGetCreative
	}
	return EditAllow
}

func MayEditGlobal(cfg tuning.Config, p model.Player) bool {
	return creative(p) || !cfg.GlobalWaystoneRequiresCreative
}
