package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	persistlog "waystones.ai/internal/persistence/log"
)

func teleportsCmd(args []string) {
	fs := flag.NewFlagSet("teleports", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	player := fs.String("player", "", "player uuid filter")
	outcome := fs.String("outcome", "", "outcome filter (e.g. TELEPORTED, LEVELS)")
	tail := fs.Int("tail", 20, "print the last N matching entries (0 for summary only)")
	_ = fs.Parse(args)

	entries, err := readTeleports(filepath.Join(*dataDir, "teleports"), func(e persistlog.TeleportLogEntry) bool {
		if *player != "" && e.Player != *player {
			return false
		}
		return *outcome == "" || strings.EqualFold(e.Outcome, *outcome)
	})
	if err != nil {
		fail(1, "read teleports:", err)
	}

	if *tail > 0 {
		start := len(entries) - *tail
		if start < 0 {
			start = 0
		}
		for _, e := range entries[start:] {
			landing := "-"
			if e.Landing != nil {
				landing = fmt.Sprintf("%d,%d,%d %s", e.Landing[0], e.Landing[1], e.Landing[2], e.Facing)
			}
			fmt.Printf("%s %s %s -> %s %s cost=%d landing=%s\n", e.Time, e.Player, e.Mode, e.Waystone, e.Outcome, e.Cost, landing)
		}
	}
	for _, line := range summarize(entries) {
		fmt.Println(line)
	}
}

// readTeleports decodes every hourly log under dir in name order.
func readTeleports(dir string, keep func(persistlog.TeleportLogEntry) bool) ([]persistlog.TeleportLogEntry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "teleports-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []persistlog.TeleportLogEntry
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := readTeleportFile(path, keep, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readTeleportFile(path string, keep func(persistlog.TeleportLogEntry) bool, out *[]persistlog.TeleportLogEntry) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e persistlog.TeleportLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if keep == nil || keep(e) {
			*out = append(*out, e)
		}
	}
	return sc.Err()
}

// summarize returns one line per outcome, most frequent first.
func summarize(entries []persistlog.TeleportLogEntry) []string {
	counts := map[string]int{}
	levels := 0
	for _, e := range entries {
		counts[e.Outcome]++
		levels += e.Cost
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	out := []string{fmt.Sprintf("%s attempts, %s levels spent", humanize.Comma(int64(len(entries))), humanize.Comma(int64(levels)))}
	for _, k := range keys {
		out = append(out, fmt.Sprintf("  %-24s %s", k, humanize.Comma(int64(counts[k]))))
	}
	return out
}
