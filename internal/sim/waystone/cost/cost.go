package cost

import (
	"math"

	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/model"
)

// Levels returns the experience-level price of jumping p to w with mode.
func Levels(cfg tuning.Config, p model.Player, w *model.Waystone, mode model.WarpMode) int {
	if p.Creative() {
		return 0
	}
	if w.Dimension != p.Dimension() {
		return cfg.DimensionalWarpXPCost
	}

	multiplier := 0.0
	if info, ok := mode.Info(); ok && info.XPCostMultiplier != nil {
		multiplier = info.XPCostMultiplier(cfg)
	}
	if w.Global {
		multiplier *= cfg.GlobalWaystoneXPCostMultiplier
	}

	dist := math.Sqrt(p.Position().DistanceSqTo(w.Pos))
	n := int(math.Round(BaseLevels(cfg, dist) * multiplier))
	if n < 0 {
		return 0
	}
	return n
}

// BaseLevels is dist / blocks_per_xp_level clamped to [0, maximum_xp_cost].
// A zero blocks_per_xp_level makes every jump free.
func BaseLevels(cfg tuning.Config, dist float64) float64 {
	if cfg.BlocksPerXPLevel <= 0 {
		return 0
	}
	v := dist / float64(cfg.BlocksPerXPLevel)
	if v < 0 {
		return 0
	}
	if max := float64(cfg.MaximumXPCost); v > max {
		return max
	}
	return v
}
