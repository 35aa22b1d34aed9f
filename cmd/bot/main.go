package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/remeh/sizedwaitgroup"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/waystone/model"
)

type counters struct {
	sent      atomic.Int64
	ok        atomic.Int64
	denied    atomic.Int64
	predicted atomic.Int64 // skipped locally because every mode was predicted unusable
}

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		bots     = flag.Int("bots", 1, "number of bots")
		parallel = flag.Int("parallel", 16, "max concurrent bots")
		interval = flag.Duration("interval", 2*time.Second, "time between teleport attempts per bot")
		duration = flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
		retry    = flag.Duration("reconnect", 2*time.Second, "delay before reconnecting a dropped bot (0 disables)")
		mainHand = flag.String("main_hand", string(model.ItemWarpStone), "item the bot assumes it holds in its main hand")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		var c2 context.CancelFunc
		ctx, c2 = context.WithTimeout(ctx, *duration)
		defer c2()
	}

	var stats counters
	swg := sizedwaitgroup.New(*parallel)
	for i := 0; i < *bots; i++ {
		if ctx.Err() != nil {
			break
		}
		swg.Add()
		go func(i int) {
			defer swg.Done()
			b := newBot(uuid.New(), fmt.Sprintf("bot-%d", i), model.ItemKind(*mainHand), *interval)
			if err := b.run(ctx, *url, *retry, logger, &stats); err != nil && ctx.Err() == nil {
				logger.Printf("%s: %v", b.name, err)
			}
		}(i)
	}
	swg.Wait()
	logger.Printf("done sent=%d ok=%d denied=%d skipped=%d",
		stats.sent.Load(), stats.ok.Load(), stats.denied.Load(), stats.predicted.Load())
}

// run keeps the bot connected until ctx ends, starting a fresh session after
// each drop when retry is positive.
func (b *bot) run(ctx context.Context, url string, retry time.Duration, logger *log.Logger, stats *counters) error {
	for {
		err := b.session(ctx, url, logger, stats)
		if ctx.Err() != nil || retry <= 0 {
			return err
		}
		logger.Printf("%s: %v; reconnecting in %s", b.name, err, retry)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retry):
		}
	}
}

func (b *bot) session(ctx context.Context, url string, logger *log.Logger, stats *counters) error {
	b.resetMirror()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerID:        b.id.String(),
		Name:            b.name,
		MaxQueue:        16,
	}
	if err := conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("send HELLO: %w", err)
	}

	msgs := make(chan []byte, 16)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go readLoop(conn, msgs, readErr, done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	var seq int
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return <-readErr
			}
			b.handle(msg, logger, stats)
		case <-ticker.C:
			req, ok := b.next(seq)
			if !ok {
				stats.predicted.Add(1)
				continue
			}
			seq++
			if err := conn.WriteJSON(req); err != nil {
				return fmt.Errorf("send TELEPORT: %w", err)
			}
			stats.sent.Add(1)
		}
	}
}

type messageReader interface {
	ReadMessage() (int, []byte, error)
}

// readLoop forwards messages until a read fails or done is closed.
func readLoop(r messageReader, msgs chan<- []byte, readErr chan<- error, done <-chan struct{}) {
	defer close(msgs)
	for {
		_, msg, err := r.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case msgs <- msg:
		case <-done:
			return
		}
	}
}

func (b *bot) handle(msg []byte, logger *log.Logger, stats *counters) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return
		}
		b.self.dimension = w.Dimension
		b.self.pos = model.Vec3{X: w.Pos[0], Y: w.Pos[1], Z: w.Pos[2]}
		b.self.levels = w.Levels
		logger.Printf("%s WELCOME dim=%s levels=%d", b.name, w.Dimension, w.Levels)
	case protocol.TypeCooldowns:
		var m protocol.CooldownsMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		b.applyCooldowns(m)
	case protocol.TypeKnownWaystones:
		var m protocol.KnownWaystonesMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		b.applyKnown(m)
	case protocol.TypeTeleportResult:
		var m protocol.TeleportResultMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		if m.OK {
			stats.ok.Add(1)
			b.self.levels -= m.Cost
			if w, ok := b.pending[m.RequestID]; ok {
				b.self.dimension = w.Dimension
				b.self.pos = model.Vec3{X: float64(w.Pos[0]) + 0.5, Y: float64(w.Pos[1]), Z: float64(w.Pos[2]) + 0.5}
			}
		} else {
			stats.denied.Add(1)
			logger.Printf("%s %s denied: %s %s", b.name, m.RequestID, m.Outcome, m.Code)
		}
		delete(b.pending, m.RequestID)
	case protocol.TypeNotice:
		var m protocol.NoticeMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		if m.Code != protocol.NoticeActivated {
			logger.Printf("%s NOTICE %s %s", b.name, m.Code, m.Text)
		}
	}
}
