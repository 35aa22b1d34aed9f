package playerdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "players.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPlayerRoundTripKeepsOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	player := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	if _, ok, err := db.LoadPlayer(ctx, player); err != nil || ok {
		t.Fatalf("fresh player: ok=%v err=%v", ok, err)
	}

	in := playerdata.Data{
		Waystones:                    []uuid.UUID{c, a, b},
		WarpStoneCooldownUntil:       1700000000000,
		InventoryButtonCooldownUntil: 42,
	}
	if err := db.SavePlayer(ctx, player, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, ok, err := db.LoadPlayer(ctx, player)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(out.Waystones) != 3 || out.Waystones[0] != c || out.Waystones[1] != a || out.Waystones[2] != b {
		t.Fatalf("order mismatch: %v", out.Waystones)
	}
	if out.WarpStoneCooldownUntil != in.WarpStoneCooldownUntil || out.InventoryButtonCooldownUntil != 42 {
		t.Fatalf("cooldown mismatch: %+v", out)
	}

	// A shorter list replaces the old one.
	in.Waystones = []uuid.UUID{b}
	if err := db.SavePlayer(ctx, player, in); err != nil {
		t.Fatalf("resave: %v", err)
	}
	out, _, _ = db.LoadPlayer(ctx, player)
	if len(out.Waystones) != 1 || out.Waystones[0] != b {
		t.Fatalf("resave mismatch: %v", out.Waystones)
	}
}

func TestDeleteWaystoneDropsKnowledge(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := uuid.New()
	w := &model.Waystone{ID: uuid.New(), Name: "Mill", Dimension: "overworld", Pos: model.Vec3i{X: 3, Y: 64, Z: -7}, Owner: owner}
	g := &model.Waystone{ID: uuid.New(), Name: "Spawn", Dimension: "overworld", Pos: model.Vec3i{Y: 63}, Global: true, Generated: true}
	for _, x := range []*model.Waystone{w, g} {
		if err := db.SaveWaystone(ctx, x); err != nil {
			t.Fatalf("save waystone: %v", err)
		}
	}
	if err := db.SavePlayer(ctx, owner, playerdata.Data{Waystones: []uuid.UUID{w.ID, g.ID}}); err != nil {
		t.Fatalf("save player: %v", err)
	}

	all, err := db.LoadWaystones(ctx)
	if err != nil {
		t.Fatalf("load waystones: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 waystones, got %d", len(all))
	}
	// Ordered by dimension then name.
	if all[0].ID != w.ID || all[0].Owner != owner || all[0].Pos != w.Pos || !all[0].Valid {
		t.Fatalf("row mismatch: %+v", all[0])
	}
	if !all[1].Global || !all[1].Generated || all[1].Owner != uuid.Nil {
		t.Fatalf("row mismatch: %+v", all[1])
	}

	if err := db.DeleteWaystone(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, _, err := db.LoadPlayer(ctx, owner)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Waystones) != 1 || out.Waystones[0] != g.ID {
		t.Fatalf("knowledge not dropped: %v", out.Waystones)
	}
}

func TestProfilesAndListing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	alex, steve := uuid.New(), uuid.New()

	for _, p := range []Profile{
		{ID: steve, Name: "steve", Dimension: "overworld", Pos: model.Vec3{X: 0.5, Y: 64, Z: 0.5}, Levels: 7,
			MainHand: model.ItemStack{Kind: model.ItemWarpStone, Count: 1}},
		{ID: alex, Name: "alex", Dimension: "the_nether", Pos: model.Vec3{X: -10.5, Y: 40, Z: 3.5}, Levels: 0, Creative: true},
	} {
		if err := db.SaveProfile(ctx, p); err != nil {
			t.Fatalf("save profile: %v", err)
		}
	}
	if err := db.SavePlayer(ctx, steve, playerdata.Data{Waystones: []uuid.UUID{uuid.New(), uuid.New()}, WarpStoneCooldownUntil: 9}); err != nil {
		t.Fatalf("save player: %v", err)
	}

	p, ok, err := db.LoadProfile(ctx, alex)
	if err != nil || !ok {
		t.Fatalf("load profile: ok=%v err=%v", ok, err)
	}
	if p.Dimension != "the_nether" || !p.Creative || p.Pos.X != -10.5 {
		t.Fatalf("profile mismatch: %+v", p)
	}
	p, _, _ = db.LoadProfile(ctx, steve)
	if p.MainHand.Kind != model.ItemWarpStone || p.MainHand.Count != 1 || !p.OffHand.Empty() {
		t.Fatalf("hands mismatch: %+v", p)
	}
	if _, ok, _ := db.LoadProfile(ctx, uuid.New()); ok {
		t.Fatalf("unknown profile reported as present")
	}

	rows, err := db.ListPlayers(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "alex" || rows[1].Name != "steve" {
		t.Fatalf("listing mismatch: %+v", rows)
	}
	if rows[1].Known != 2 || rows[1].WarpStoneCooldownUntil != 9 || rows[1].Levels != 7 {
		t.Fatalf("steve row mismatch: %+v", rows[1])
	}
	if rows[0].Known != 0 || rows[0].WarpStoneCooldownUntil != 0 {
		t.Fatalf("alex row mismatch: %+v", rows[0])
	}
}

func TestSaveSessionsSkipsOlderRevisions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := uuid.New()
	home := uuid.New()

	newer := Save{
		Profile: Profile{ID: id, Name: "steve", Dimension: "overworld", Levels: 4, Rev: 2,
			OffHand: model.ItemStack{Kind: model.ItemWarpScroll, Count: 2}},
		Data: &playerdata.Data{Waystones: []uuid.UUID{home}, WarpStoneCooldownUntil: 50},
	}
	if stale, err := db.SaveSessions(ctx, []Save{newer}); err != nil || len(stale) != 0 {
		t.Fatalf("save: stale=%v err=%v", stale, err)
	}

	older := Save{
		Profile: Profile{ID: id, Name: "steve", Dimension: "overworld", Levels: 9, Rev: 1,
			OffHand: model.ItemStack{Kind: model.ItemWarpScroll, Count: 3}},
		Data: &playerdata.Data{WarpStoneCooldownUntil: 0},
	}
	stale, err := db.SaveSessions(ctx, []Save{older})
	if err != nil {
		t.Fatalf("save older: %v", err)
	}
	if len(stale) != 1 || stale[0] != id {
		t.Fatalf("expected %s reported stale, got %v", id, stale)
	}

	p, _, _ := db.LoadProfile(ctx, id)
	if p.Rev != 2 || p.Levels != 4 || p.OffHand.Count != 2 {
		t.Fatalf("older revision overwrote profile: %+v", p)
	}
	data, _, _ := db.LoadPlayer(ctx, id)
	if len(data.Waystones) != 1 || data.Waystones[0] != home || data.WarpStoneCooldownUntil != 50 {
		t.Fatalf("older revision overwrote record: %+v", data)
	}

	// Equal revisions are stale too.
	if stale, _ := db.SaveSessions(ctx, []Save{newer}); len(stale) != 1 {
		t.Fatalf("resave at same revision accepted")
	}
}
