package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DimensionalWarp controls whether a jump may cross dimensions.
type DimensionalWarp string

const (
	DimensionalWarpAllow      DimensionalWarp = "ALLOW"
	DimensionalWarpGlobalOnly DimensionalWarp = "GLOBAL_ONLY"
	DimensionalWarpDeny       DimensionalWarp = "DENY"
)

// Permits reports whether a cross-dimension jump to a waystone with the given
// global flag is allowed.
func (d DimensionalWarp) Permits(global bool) bool {
	switch d {
	case DimensionalWarpAllow:
		return true
	case DimensionalWarpGlobalOnly:
		return global
	default:
		return false
	}
}

type Config struct {
	RestrictToCreative             bool `yaml:"restrict_to_creative"`
	RestrictRenameToOwner          bool `yaml:"restrict_rename_to_owner"`
	GeneratedWaystonesUnbreakable  bool `yaml:"generated_waystones_unbreakable"`
	GlobalWaystoneRequiresCreative bool `yaml:"global_waystone_requires_creative"`

	BlocksPerXPLevel      int `yaml:"blocks_per_xp_level"`
	MaximumXPCost         int `yaml:"maximum_xp_cost"`
	DimensionalWarpXPCost int `yaml:"dimensional_warp_xp_cost"`

	GlobalWaystoneXPCostMultiplier  float64 `yaml:"global_waystone_xp_cost_multiplier"`
	InventoryButtonXPCostMultiplier float64 `yaml:"inventory_button_xp_cost_multiplier"`
	WarpStoneXPCostMultiplier       float64 `yaml:"warp_stone_xp_cost_multiplier"`
	WarpScrollXPCostMultiplier      float64 `yaml:"warp_scroll_xp_cost_multiplier"`
	WaystoneXPCostMultiplier        float64 `yaml:"waystone_xp_cost_multiplier"`

	DimensionalWarp DimensionalWarp `yaml:"dimensional_warp"`

	WarpStoneCooldownSeconds         int     `yaml:"warp_stone_cooldown_seconds"`
	InventoryButtonCooldownSeconds   int     `yaml:"inventory_button_cooldown_seconds"`
	GlobalWaystoneCooldownMultiplier float64 `yaml:"global_waystone_cooldown_multiplier"`

	Server Server `yaml:"server"`

	Dimensions []DimensionSpec `yaml:"dimensions"`
}

type Server struct {
	TickRateHz         int `yaml:"tick_rate_hz"`
	EffectRadius       int `yaml:"effect_radius"`
	ActivationRadius   int `yaml:"activation_radius"`
	AutosaveEveryTicks int `yaml:"autosave_every_ticks"`
	StarterLevels      int `yaml:"starter_levels"`

	StarterMainHand ItemGrant `yaml:"starter_main_hand"`
	StarterOffHand  ItemGrant `yaml:"starter_off_hand"`
}

// ItemGrant is a stack handed to new players.
type ItemGrant struct {
	Kind  string `yaml:"kind"`
	Count int    `yaml:"count"`
}

type DimensionSpec struct {
	ID        string `yaml:"id"`
	Seed      int64  `yaml:"seed"`
	MaxHeight int    `yaml:"max_height"`
	SeaLevel  int    `yaml:"sea_level"`
	BoundaryR int    `yaml:"boundary_r"`
	Spawn     [3]int `yaml:"spawn"`
}

func Defaults() Config {
	return Config{
		GlobalWaystoneRequiresCreative: true,

		BlocksPerXPLevel:      1000,
		MaximumXPCost:         3,
		DimensionalWarpXPCost: 3,

		GlobalWaystoneXPCostMultiplier:  0,
		InventoryButtonXPCostMultiplier: 1,
		WarpStoneXPCostMultiplier:       0,
		WarpScrollXPCostMultiplier:      0,
		WaystoneXPCostMultiplier:        1,

		DimensionalWarp: DimensionalWarpAllow,

		WarpStoneCooldownSeconds:         30,
		InventoryButtonCooldownSeconds:   300,
		GlobalWaystoneCooldownMultiplier: 1,

		Server: Server{
			TickRateHz:         20,
			EffectRadius:       64,
			ActivationRadius:   5,
			AutosaveEveryTicks: 1200,
			StarterLevels:      5,
			StarterMainHand:    ItemGrant{Kind: "warp_stone", Count: 1},
			StarterOffHand:     ItemGrant{Kind: "warp_scroll", Count: 3},
		},

		Dimensions: []DimensionSpec{
			{ID: "overworld", Seed: 1337, MaxHeight: 255, SeaLevel: 62, BoundaryR: 4000, Spawn: [3]int{0, 64, 0}},
			{ID: "the_nether", Seed: 7331, MaxHeight: 127, SeaLevel: 32, BoundaryR: 1000, Spawn: [3]int{0, 40, 0}},
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("waystones.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("waystones.yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.DimensionalWarp = DimensionalWarp(strings.ToUpper(strings.TrimSpace(string(c.DimensionalWarp))))
	if c.DimensionalWarp == "" {
		c.DimensionalWarp = DimensionalWarpAllow
	}
	if c.Server.TickRateHz <= 0 {
		c.Server.TickRateHz = 20
	}
	if c.Server.ActivationRadius <= 0 {
		c.Server.ActivationRadius = 5
	}
	for i := range c.Dimensions {
		c.Dimensions[i].ID = strings.TrimSpace(c.Dimensions[i].ID)
		if c.Dimensions[i].MaxHeight <= 0 {
			c.Dimensions[i].MaxHeight = 255
		}
	}
}

func (c Config) Validate() error {
	switch c.DimensionalWarp {
	case DimensionalWarpAllow, DimensionalWarpGlobalOnly, DimensionalWarpDeny:
	default:
		return fmt.Errorf("dimensional_warp must be one of ALLOW, GLOBAL_ONLY, DENY (got %q)", c.DimensionalWarp)
	}
	if c.BlocksPerXPLevel < 0 {
		return fmt.Errorf("blocks_per_xp_level must be >= 0")
	}
	if c.MaximumXPCost < 0 || c.DimensionalWarpXPCost < 0 {
		return fmt.Errorf("xp costs must be >= 0")
	}
	if c.WarpStoneCooldownSeconds < 0 || c.InventoryButtonCooldownSeconds < 0 {
		return fmt.Errorf("cooldowns must be >= 0")
	}
	if c.GlobalWaystoneCooldownMultiplier < 0 || c.GlobalWaystoneXPCostMultiplier < 0 {
		return fmt.Errorf("global multipliers must be >= 0")
	}
	if len(c.Dimensions) == 0 {
		return fmt.Errorf("dimensions must not be empty")
	}
	seen := map[string]bool{}
	for _, d := range c.Dimensions {
		if d.ID == "" {
			return fmt.Errorf("dimension id must not be empty")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate dimension id: %s", d.ID)
		}
		seen[d.ID] = true
		if d.SeaLevel < 0 || d.SeaLevel >= d.MaxHeight {
			return fmt.Errorf("dimension %s sea_level must be in [0, max_height)", d.ID)
		}
	}
	return nil
}

// Dimension returns the spec for id.
func (c Config) Dimension(id string) (DimensionSpec, bool) {
	for _, d := range c.Dimensions {
		if d.ID == id {
			return d, true
		}
	}
	return DimensionSpec{}, false
}
