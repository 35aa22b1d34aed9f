package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/game"
	"waystones.ai/internal/sim/tuning"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := tuning.Defaults()
	cfg.Server.TickRateHz = 100
	logger := log.New(io.Discard, "", 0)
	g := game.New(game.Options{Tuning: cfg}, logger)
	if err := g.LoadWaystones(context.Background()); err != nil {
		t.Fatalf("load waystones: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Run(ctx)
	}()
	srv := httptest.NewServer(NewServer(g, logger).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	for i := 0; i < 32; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == typ {
			return b
		}
	}
	t.Fatalf("no %s message", typ)
	return nil
}

func hello(id uuid.UUID) protocol.HelloMsg {
	return protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerID:        id.String(),
		Name:            "steve",
	}
}

func TestHandshakeAndKnownSync(t *testing.T) {
	url := startServer(t)
	conn := dial(t, url)
	id := uuid.New()
	if err := conn.WriteJSON(hello(id)); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.PlayerID != id.String() || welcome.Dimension != "overworld" {
		t.Fatalf("welcome mismatch: %#v", welcome)
	}
	var known protocol.KnownWaystonesMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeKnownWaystones), &known); err != nil {
		t.Fatalf("known: %v", err)
	}
	if len(known.Waystones) != 2 {
		t.Fatalf("expected spawn waystones, got %#v", known.Waystones)
	}

	// Schema-invalid requests are answered by the transport.
	if err := conn.WriteJSON(map[string]any{"type": "SORT", "protocol_version": protocol.Version, "index": -1, "other_index": 0}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Activation notices for the spawn waystones may still be queued.
	for i := 0; ; i++ {
		var notice protocol.NoticeMsg
		if err := json.Unmarshal(readUntil(t, conn, protocol.TypeNotice), &notice); err != nil {
			t.Fatalf("notice: %v", err)
		}
		if notice.Code == protocol.ErrBadRequest {
			break
		}
		if notice.Code != protocol.NoticeActivated || i > 4 {
			t.Fatalf("expected bad request, got %#v", notice)
		}
	}

	if err := conn.WriteJSON(protocol.SortMsg{Type: protocol.TypeSort, ProtocolVersion: protocol.Version, Index: 0, OtherIndex: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var swapped protocol.KnownWaystonesMsg
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeKnownWaystones), &swapped); err != nil {
		t.Fatalf("known: %v", err)
	}
	if swapped.Waystones[0].ID != known.Waystones[1].ID {
		t.Fatalf("sort not applied: %#v", swapped.Waystones)
	}
}

func TestHandshakeRejectsBadHello(t *testing.T) {
	url := startServer(t)
	conn := dial(t, url)
	if err := conn.WriteJSON(map[string]any{"type": "HELLO", "protocol_version": protocol.Version, "player_id": "nope"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}

func TestSecondSessionForSamePlayerIsRefused(t *testing.T) {
	url := startServer(t)
	id := uuid.New()
	first := dial(t, url)
	if err := first.WriteJSON(hello(id)); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, first, protocol.TypeWelcome)

	second := dial(t, url)
	if err := second.WriteJSON(hello(id)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = second.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := second.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}
