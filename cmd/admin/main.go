package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "players":
			playersCmd(os.Args[2:])
			return
		case "player":
			playerCmd(os.Args[2:])
			return
		case "waystones":
			waystonesCmd(os.Args[2:])
			return
		case "teleports":
			teleportsCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	playersCmd(os.Args[1:])
}

func dbPathFlag(fs *flag.FlagSet) (dataDir, dbPath *string) {
	dataDir = fs.String("data", "./data", "runtime data directory")
	dbPath = fs.String("db", "", "sqlite db path (optional; defaults to <data>/players.sqlite)")
	return dataDir, dbPath
}

func resolveDBPath(dataDir, dbPath string) string {
	if p := strings.TrimSpace(dbPath); p != "" {
		return p
	}
	return filepath.Join(dataDir, "players.sqlite")
}

func fail(code int, args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(code)
}

// cooldownText renders a unix-millis deadline relative to now.
func cooldownText(untilMillis int64, now time.Time) string {
	if untilMillis <= 0 {
		return "-"
	}
	until := time.UnixMilli(untilMillis)
	if !until.After(now) {
		return "ready"
	}
	return humanize.RelTime(until, now, "ago", "from now")
}

// savedText renders an RFC3339 timestamp as "3 minutes ago".
func savedText(s string, now time.Time) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
