package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"waystones.ai/internal/persistence/playerdb"
	"waystones.ai/internal/sim/waystone/model"
)

func openDB(dataDir, dbPath string) *playerdb.DB {
	db, err := playerdb.Open(resolveDBPath(dataDir, dbPath))
	if err != nil {
		fail(1, "open:", err)
	}
	return db
}

func playersCmd(args []string) {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	dataDir, dbPath := dbPathFlag(fs)
	limit := fs.Int("limit", 50, "result limit")
	_ = fs.Parse(args)

	db := openDB(*dataDir, *dbPath)
	defer db.Close()

	rows, err := db.ListPlayers(context.Background(), *limit)
	if err != nil {
		fail(1, "query:", err)
	}
	now := time.Now()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIM\tLEVELS\tKNOWN\tWARP STONE\tINVENTORY\tSAVED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Dimension, r.Levels, r.Known,
			cooldownText(r.WarpStoneCooldownUntil, now),
			cooldownText(r.InventoryButtonCooldownUntil, now),
			savedText(r.SavedAt, now))
	}
	_ = tw.Flush()
	fmt.Printf("%s players\n", humanize.Comma(int64(len(rows))))
}

func playerCmd(args []string) {
	fs := flag.NewFlagSet("player", flag.ExitOnError)
	dataDir, dbPath := dbPathFlag(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fail(2, "usage: admin player [-data dir] <player-uuid>")
	}
	id, err := uuid.Parse(strings.TrimSpace(fs.Arg(0)))
	if err != nil {
		fail(2, "bad player id:", err)
	}

	db := openDB(*dataDir, *dbPath)
	defer db.Close()
	ctx := context.Background()

	prof, ok, err := db.LoadProfile(ctx, id)
	if err != nil {
		fail(1, "profile:", err)
	}
	data, _, err := db.LoadPlayer(ctx, id)
	if err != nil {
		fail(1, "player:", err)
	}
	waystones, err := db.LoadWaystones(ctx)
	if err != nil {
		fail(1, "waystones:", err)
	}
	byID := make(map[uuid.UUID]*model.Waystone, len(waystones))
	for _, w := range waystones {
		byID[w.ID] = w
	}

	now := time.Now()
	if ok {
		fmt.Printf("player %s (%s)\n", prof.Name, prof.ID)
		fmt.Printf("  at %s %.1f,%.1f,%.1f  levels=%d creative=%v  saved %s\n",
			prof.Dimension, prof.Pos.X, prof.Pos.Y, prof.Pos.Z, prof.Levels, prof.Creative, savedText(prof.SavedAt, now))
		fmt.Printf("  main_hand=%s x%d off_hand=%s x%d\n", prof.MainHand.Kind, prof.MainHand.Count, prof.OffHand.Kind, prof.OffHand.Count)
	} else {
		fmt.Printf("player %s (no profile)\n", id)
	}
	fmt.Printf("  warp stone cooldown: %s\n", cooldownText(data.WarpStoneCooldownUntil, now))
	fmt.Printf("  inventory button cooldown: %s\n", cooldownText(data.InventoryButtonCooldownUntil, now))
	fmt.Printf("  known waystones (%d):\n", len(data.Waystones))
	for i, wid := range data.Waystones {
		w, ok := byID[wid]
		if !ok {
			fmt.Printf("  %3d. %s (missing)\n", i, wid)
			continue
		}
		fmt.Printf("  %3d. %-24s %s %d,%d,%d%s\n", i, w.Name, w.Dimension, w.Pos.X, w.Pos.Y, w.Pos.Z, waystoneFlags(w))
	}
}

func waystonesCmd(args []string) {
	fs := flag.NewFlagSet("waystones", flag.ExitOnError)
	dataDir, dbPath := dbPathFlag(fs)
	dim := fs.String("dim", "", "dimension filter")
	_ = fs.Parse(args)

	db := openDB(*dataDir, *dbPath)
	defer db.Close()

	waystones, err := db.LoadWaystones(context.Background())
	if err != nil {
		fail(1, "query:", err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIM\tPOS\tOWNER\tFLAGS")
	n := 0
	for _, w := range waystones {
		if *dim != "" && w.Dimension != *dim {
			continue
		}
		owner := "-"
		if w.Owner != uuid.Nil {
			owner = w.Owner.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d,%d,%d\t%s\t%s\n",
			w.ID, w.Name, w.Dimension, w.Pos.X, w.Pos.Y, w.Pos.Z, owner, strings.TrimSpace(waystoneFlags(w)))
		n++
	}
	_ = tw.Flush()
	fmt.Printf("%s waystones\n", humanize.Comma(int64(n)))
}

func waystoneFlags(w *model.Waystone) string {
	var flags []string
	if w.Global {
		flags = append(flags, "global")
	}
	if w.Generated {
		flags = append(flags, "generated")
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ",") + "]"
}
