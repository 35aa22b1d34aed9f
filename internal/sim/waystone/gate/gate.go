package gate

import (
	"waystones.ai/internal/sim/waystone/cooldown"
	"waystones.ai/internal/sim/waystone/model"
)

// FindWarpItem returns the stack in main hand, then off hand, matching the
// mode's item. Modes without an item return nil.
func FindWarpItem(p model.Player, mode model.WarpMode) *model.ItemStack {
	info, ok := mode.Info()
	if !ok || info.Item == model.ItemNone {
		return nil
	}
	if s := p.HeldItem(model.MainHand); s.Is(info.Item) {
		return s
	}
	if s := p.HeldItem(model.OffHand); s.Is(info.Item) {
		return s
	}
	return nil
}

// CanUse reports whether p currently meets mode's precondition. Cooldowns are
// always read from the authoritative store.
func CanUse(cd *cooldown.Tracker, p model.Player, mode model.WarpMode, held *model.ItemStack, from *model.Waystone) bool {
	switch mode {
	case model.InventoryButton:
		return cd.CanUseInventoryButton(model.Authoritative, p.ID())
	case model.WarpScroll:
		return held.Is(model.ItemWarpScroll)
	case model.BoundScroll:
		return held.Is(model.ItemBoundScroll)
	case model.ReturnScroll:
		return held.Is(model.ItemReturnScroll)
	case model.WarpStone:
		return held.Is(model.ItemWarpStone) && cd.CanUseWarpStone(model.Authoritative, p.ID())
	case model.WaystoneToWaystone:
		return from != nil && from.Valid
	}
	return false
}

// Predict is CanUse against an arbitrary store; clients use it with
// model.Remote to grey out options before asking the server.
func Predict(cd *cooldown.Tracker, auth model.Authority, p model.Player, mode model.WarpMode, held *model.ItemStack, from *model.Waystone) bool {
	switch mode {
	case model.InventoryButton:
		return cd.CanUseInventoryButton(auth, p.ID())
	case model.WarpStone:
		return held.Is(model.ItemWarpStone) && cd.CanUseWarpStone(auth, p.ID())
	}
	return CanUse(cd, p, mode, held, from)
}
