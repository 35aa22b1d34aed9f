package tuning

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestLoadShippedConfigMatchesDefaults(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "..", "configs", "waystones.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Defaults()
	want.Normalize()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("shipped config drifted from defaults:\n got=%+v\nwant=%+v", cfg, want)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DimensionalWarp != DimensionalWarpAllow || cfg.Server.TickRateHz != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadNormalizesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.yaml")
	if err := os.WriteFile(path, []byte("dimensional_warp: \" global_only \"\nserver:\n  tick_rate_hz: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DimensionalWarp != DimensionalWarpGlobalOnly {
		t.Fatalf("dimensional_warp=%q", cfg.DimensionalWarp)
	}
	if cfg.Server.TickRateHz != 20 {
		t.Fatalf("tick rate not normalized: %d", cfg.Server.TickRateHz)
	}

	if err := os.WriteFile(path, []byte("dimensional_warp: SOMETIMES\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateRejectsDuplicateDimensions(t *testing.T) {
	cfg := Defaults()
	cfg.Dimensions = append(cfg.Dimensions, cfg.Dimensions[0])
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected duplicate dimension error")
	}
	cfg = Defaults()
	cfg.BlocksPerXPLevel = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative blocks_per_xp_level error")
	}
}

func TestDimensionalWarpPermits(t *testing.T) {
	cases := []struct {
		d      DimensionalWarp
		global bool
		want   bool
	}{
		{DimensionalWarpAllow, false, true},
		{DimensionalWarpGlobalOnly, false, false},
		{DimensionalWarpGlobalOnly, true, true},
		{DimensionalWarpDeny, true, false},
	}
	for _, c := range cases {
		if got := c.d.Permits(c.global); got != c.want {
			t.Fatalf("%s.Permits(%v)=%v want %v", c.d, c.global, got, c.want)
		}
	}
}
