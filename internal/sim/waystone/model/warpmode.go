package model

import (
	"strings"

	"waystones.ai/internal/sim/tuning"
)

// WarpMode is how a jump was initiated.
type WarpMode int

const (
	InventoryButton WarpMode = iota + 1
	WarpScroll
	WarpStone
	ReturnScroll
	BoundScroll
	WaystoneToWaystone
)

// PreconditionKind is what must hold before a mode can be used.
type PreconditionKind int

const (
	RequiresCooldown PreconditionKind = iota + 1
	RequiresItem
	RequiresItemAndCooldown
	RequiresPriorWaystone
)

// CooldownClass names one of the two independent per-player cooldowns.
type CooldownClass int

const (
	NoCooldown CooldownClass = iota
	InventoryButtonCooldown
	WarpStoneCooldown
)

type WarpModeInfo struct {
	Name         string
	Precondition PreconditionKind
	Item         ItemKind
	ConsumesItem bool
	Cooldown     CooldownClass

	// XPCostMultiplier reads the mode's multiplier from the active config.
	XPCostMultiplier func(cfg tuning.Config) float64
}

func zeroMultiplier(tuning.Config) float64 { return 0 }

// WarpModes is the fixed per-mode table shared by gate, cost and consumption.
var WarpModes = map[WarpMode]WarpModeInfo{
	InventoryButton: {
		Name:             "INVENTORY_BUTTON",
		Precondition:     RequiresCooldown,
		Cooldown:         InventoryButtonCooldown,
		XPCostMultiplier: func(c tuning.Config) float64 { return c.InventoryButtonXPCostMultiplier },
	},
	WarpScroll: {
		Name:             "WARP_SCROLL",
		Precondition:     RequiresItem,
		Item:             ItemWarpScroll,
		ConsumesItem:     true,
		XPCostMultiplier: func(c tuning.Config) float64 { return c.WarpScrollXPCostMultiplier },
	},
	WarpStone: {
		Name:             "WARP_STONE",
		Precondition:     RequiresItemAndCooldown,
		Item:             ItemWarpStone,
		Cooldown:         WarpStoneCooldown,
		XPCostMultiplier: func(c tuning.Config) float64 { return c.WarpStoneXPCostMultiplier },
	},
	ReturnScroll: {
		Name:             "RETURN_SCROLL",
		Precondition:     RequiresItem,
		Item:             ItemReturnScroll,
		ConsumesItem:     true,
		XPCostMultiplier: zeroMultiplier,
	},
	BoundScroll: {
		Name:             "BOUND_SCROLL",
		Precondition:     RequiresItem,
		Item:             ItemBoundScroll,
		ConsumesItem:     true,
		XPCostMultiplier: zeroMultiplier,
	},
	WaystoneToWaystone: {
		Name:             "WAYSTONE_TO_WAYSTONE",
		Precondition:     RequiresPriorWaystone,
		XPCostMultiplier: func(c tuning.Config) float64 { return c.WaystoneXPCostMultiplier },
	},
}

// Info returns the table entry for m.
func (m WarpMode) Info() (WarpModeInfo, bool) {
	info, ok := WarpModes[m]
	return info, ok
}

func (m WarpMode) String() string {
	if info, ok := WarpModes[m]; ok {
		return info.Name
	}
	return "UNKNOWN"
}

// ParseWarpMode accepts the wire names used by String.
func ParseWarpMode(s string) (WarpMode, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for m, info := range WarpModes {
		if info.Name == s {
			return m, true
		}
	}
	return 0, false
}
