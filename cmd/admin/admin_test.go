package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	persistlog "waystones.ai/internal/persistence/log"
	"waystones.ai/internal/sim/game"
)

func TestReadTeleportsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := persistlog.NewJSONLZstdWriter(dir, "teleports")
	in := []persistlog.TeleportLogEntry{
		{Player: "a", Outcome: "TELEPORTED", Cost: 2},
		{Player: "b", Outcome: "LEVELS"},
		{Player: "a", Outcome: "TELEPORTED", Cost: 1},
	}
	for _, e := range in {
		if err := w.Write(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := readTeleports(dir, func(e persistlog.TeleportLogEntry) bool { return e.Player == "a" })
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Cost != 2 || got[1].Cost != 1 {
		t.Fatalf("unexpected entries: %#v", got)
	}
}

func TestSummarizeOrdersByCount(t *testing.T) {
	lines := summarize([]persistlog.TeleportLogEntry{
		{Outcome: "LEVELS"},
		{Outcome: "TELEPORTED", Cost: 1500},
		{Outcome: "TELEPORTED", Cost: 1},
	})
	if lines[0] != "3 attempts, 1,501 levels spent" {
		t.Fatalf("header=%q", lines[0])
	}
	if !strings.Contains(lines[1], "TELEPORTED") || !strings.Contains(lines[2], "LEVELS") {
		t.Fatalf("order: %#v", lines)
	}
}

func TestCooldownText(t *testing.T) {
	now := time.Unix(1_000, 0)
	if got := cooldownText(0, now); got != "-" {
		t.Fatalf("zero=%q", got)
	}
	if got := cooldownText(now.Add(-time.Second).UnixMilli(), now); got != "ready" {
		t.Fatalf("past=%q", got)
	}
	if got := cooldownText(now.Add(30*time.Second).UnixMilli(), now); got != "30 seconds from now" {
		t.Fatalf("future=%q", got)
	}
}

func TestStateRendersServerMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/v1/state" {
			http.NotFound(rw, r)
			return
		}
		_ = json.NewEncoder(rw).Encode(game.Metrics{
			Tick: 12345, Players: 3, Waystones: 7, Teleports: 3, Denied: 1, StepMS: 0.25,
			QueueDepths: game.QueueDepths{Inbox: 2},
		})
	}))
	defer srv.Close()

	_, m, err := fetchState(srv.Client(), srv.URL+"/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var b strings.Builder
	writeState(&b, m)
	out := b.String()
	for _, want := range []string{"12,345", "players    3", "3 ok, 1 denied (75.0% ok)", "inbox=2 join=0 leave=0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	if _, _, err := fetchState(srv.Client(), srv.URL+"/nope"); err == nil {
		t.Fatalf("expected an error for a non-2xx response")
	}
}
