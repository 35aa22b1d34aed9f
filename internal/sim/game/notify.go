package game

import (
	"encoding/json"

	"github.com/google/uuid"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/waystone/model"
)

func encode(v any) ([]byte, error) { return json.Marshal(v) }

// sendLatest never blocks the loop: a full queue loses its oldest message.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func (g *Game) sendTo(player uuid.UUID, v any) {
	ch, ok := g.clients[player]
	if !ok {
		return
	}
	b, err := encode(v)
	if err != nil {
		g.log.Printf("encode for %s: %v", player, err)
		return
	}
	sendLatest(ch, b)
}

func cooldownsMsg(s model.CooldownState) protocol.CooldownsMsg {
	return protocol.CooldownsMsg{
		Type:                 protocol.TypeCooldowns,
		ProtocolVersion:      protocol.Version,
		WarpStoneUntil:       s.WarpStoneUntil,
		InventoryButtonUntil: s.InventoryButtonUntil,
	}
}

func knownMsg(known []*model.Waystone) protocol.KnownWaystonesMsg {
	out := protocol.KnownWaystonesMsg{
		Type:            protocol.TypeKnownWaystones,
		ProtocolVersion: protocol.Version,
		Waystones:       make([]protocol.WaystoneInfo, 0, len(known)),
	}
	for _, w := range known {
		out.Waystones = append(out.Waystones, protocol.WaystoneInfo{
			ID:        w.ID.String(),
			Name:      w.Name,
			Dimension: w.Dimension,
			Pos:       [3]int{w.Pos.X, w.Pos.Y, w.Pos.Z},
			Global:    w.Global,
		})
	}
	return out
}

// BroadcastEffect tells every player in the dimension within the effect
// radius of pos.
func (g *Game) BroadcastEffect(dimension string, pos model.Vec3i) {
	msg := protocol.TeleportEffectMsg{
		Type:            protocol.TypeTeleportEffect,
		ProtocolVersion: protocol.Version,
		Dimension:       dimension,
		Pos:             [3]int{pos.X, pos.Y, pos.Z},
	}
	r := float64(g.cfg.Server.EffectRadius)
	for _, id := range g.Online() {
		p := g.players[id]
		if p.dimension != dimension {
			continue
		}
		if r > 0 && p.pos.DistanceSqTo(pos) > r*r {
			continue
		}
		g.sendTo(id, msg)
	}
}

func (g *Game) SyncCooldowns(player uuid.UUID, state model.CooldownState) {
	g.sendTo(player, cooldownsMsg(state))
}

func (g *Game) SyncKnownWaystones(player uuid.UUID, known []*model.Waystone) {
	g.sendTo(player, knownMsg(known))
}

func (g *Game) Notice(player uuid.UUID, code string) {
	g.notice(player, code, "")
}

func (g *Game) notice(player uuid.UUID, code, text string) {
	if !protocol.IsKnownCode(code) {
		g.log.Printf("notice with unknown code %q to %s", code, player)
	}
	g.sendTo(player, protocol.NoticeMsg{
		Type:            protocol.TypeNotice,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Text:            text,
	})
}

func (g *Game) syncKnown(player uuid.UUID) {
	g.SyncKnownWaystones(player, g.knowledge.Resolve(model.Authoritative, player))
}
