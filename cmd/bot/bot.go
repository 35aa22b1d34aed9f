package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/waystone/cooldown"
	"waystones.ai/internal/sim/waystone/gate"
	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
)

// bot mirrors what the server has told it in the remote store and only asks
// for jumps it predicts the server will accept.
type bot struct {
	id       uuid.UUID
	name     string
	interval time.Duration

	self      *botPlayer
	stores    *playerdata.Stores
	cooldowns *cooldown.Tracker
	known     []protocol.WaystoneInfo
	pending   map[string]protocol.WaystoneInfo
	rng       *rand.Rand
}

func newBot(id uuid.UUID, name string, mainHand model.ItemKind, interval time.Duration) *bot {
	stores := playerdata.NewStores()
	b := &bot{
		id:        id,
		name:      name,
		interval:  interval,
		self:      &botPlayer{id: id, main: model.ItemStack{Kind: mainHand, Count: 1}},
		stores:    stores,
		cooldowns: cooldown.NewTracker(stores, time.Now),
		pending:   map[string]protocol.WaystoneInfo{},
		rng:       rand.New(rand.NewSource(int64(id.ID()))),
	}
	if mainHand == model.ItemNone {
		b.self.main = model.ItemStack{}
	}
	return b
}

func (b *bot) applyCooldowns(m protocol.CooldownsMsg) {
	b.stores.Ephemeral.ApplyCooldowns(b.id, model.CooldownState{
		WarpStoneUntil:       m.WarpStoneUntil,
		InventoryButtonUntil: m.InventoryButtonUntil,
	})
}

func (b *bot) applyKnown(m protocol.KnownWaystonesMsg) {
	ids := make([]uuid.UUID, 0, len(m.Waystones))
	for _, w := range m.Waystones {
		if id, err := uuid.Parse(w.ID); err == nil {
			ids = append(ids, id)
		}
	}
	b.stores.Ephemeral.ApplyKnown(b.id, ids)
	b.known = append(b.known[:0], m.Waystones...)
}

// resetMirror forgets everything the previous session synced; the server
// resends cooldowns and the known list after WELCOME.
func (b *bot) resetMirror() {
	b.stores.Ephemeral.Reset()
	b.known = b.known[:0]
	b.pending = map[string]protocol.WaystoneInfo{}
}

// pickMode returns the first mode the remote mirror predicts as usable.
func (b *bot) pickMode() (model.WarpMode, bool) {
	held := gate.FindWarpItem(b.self, model.WarpStone)
	if gate.Predict(b.cooldowns, model.Remote, b.self, model.WarpStone, held, nil) {
		return model.WarpStone, true
	}
	if gate.Predict(b.cooldowns, model.Remote, b.self, model.InventoryButton, nil, nil) {
		return model.InventoryButton, true
	}
	return 0, false
}

// target picks a known waystone that is not the one the bot stands on.
func (b *bot) target() (protocol.WaystoneInfo, bool) {
	for _, i := range b.rng.Perm(len(b.known)) {
		w := b.known[i]
		if w.Dimension == b.self.dimension {
			dx := float64(w.Pos[0]) + 0.5 - b.self.pos.X
			dz := float64(w.Pos[2]) + 0.5 - b.self.pos.Z
			if dx*dx+dz*dz < 4 {
				continue
			}
		}
		return w, true
	}
	return protocol.WaystoneInfo{}, false
}

func (b *bot) next(seq int) (protocol.TeleportMsg, bool) {
	w, ok := b.target()
	if !ok {
		return protocol.TeleportMsg{}, false
	}
	mode, ok := b.pickMode()
	if !ok {
		return protocol.TeleportMsg{}, false
	}
	req := protocol.TeleportMsg{
		Type:            protocol.TypeTeleport,
		ProtocolVersion: protocol.Version,
		RequestID:       fmt.Sprintf("%s-%d", b.name, seq),
		WaystoneID:      w.ID,
		WarpMode:        mode.String(),
	}
	b.pending[req.RequestID] = w
	return req, true
}

// botPlayer is the client-side view of the bot's own player.
type botPlayer struct {
	id        uuid.UUID
	dimension string
	pos       model.Vec3
	levels    int
	main      model.ItemStack
	off       model.ItemStack
}

func (p *botPlayer) ID() uuid.UUID            { return p.id }
func (p *botPlayer) Position() model.Vec3     { return p.pos }
func (p *botPlayer) Dimension() string        { return p.dimension }
func (p *botPlayer) Body() model.Body         { return model.Body{Width: 0.6, Height: 1.8} }
func (p *botPlayer) Creative() bool           { return false }
func (p *botPlayer) ExperienceLevel() int     { return p.levels }
func (p *botPlayer) AddExperienceLevel(d int) { p.levels += d }

func (p *botPlayer) HeldItem(h model.Hand) *model.ItemStack {
	if h == model.MainHand {
		return &p.main
	}
	return &p.off
}

func (p *botPlayer) Teleport(dimension string, pos model.Vec3, yaw float64) {
	p.dimension = dimension
	p.pos = pos
}
