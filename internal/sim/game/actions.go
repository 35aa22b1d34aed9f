package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/waystone/cost"
	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/permissions"
	"waystones.ai/internal/sim/waystone/teleport"
)

func (g *Game) handleAction(env Envelope) {
	p, ok := g.players[env.PlayerID]
	if !ok {
		return
	}
	switch env.Type {
	case protocol.TypeTeleport:
		var m protocol.TeleportMsg
		if err := json.Unmarshal(env.Raw, &m); err != nil {
			g.notice(p.id, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		g.handleTeleport(p, m)
	case protocol.TypeActivate:
		var m protocol.ActivateMsg
		if err := json.Unmarshal(env.Raw, &m); err != nil {
			g.notice(p.id, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		g.handleActivate(p, m)
	case protocol.TypeSort:
		var m protocol.SortMsg
		if err := json.Unmarshal(env.Raw, &m); err != nil {
			g.notice(p.id, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		if err := g.knowledge.SwapOrder(model.Authoritative, p.id, m.Index, m.OtherIndex); err != nil {
			g.notice(p.id, protocol.ErrBadRequest, err.Error())
			return
		}
		g.syncKnown(p.id)
	case protocol.TypeBreak:
		var m protocol.BreakMsg
		if err := json.Unmarshal(env.Raw, &m); err != nil {
			g.notice(p.id, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		g.handleBreak(p, m)
	case protocol.TypeEdit:
		var m protocol.EditMsg
		if err := json.Unmarshal(env.Raw, &m); err != nil {
			g.notice(p.id, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		g.handleEdit(p, m)
	default:
		g.notice(p.id, protocol.ErrProtoBadRequest, "unknown type "+env.Type)
	}
}

// lookup resolves a valid registered waystone from its wire id.
func (g *Game) lookup(raw string) *model.Waystone {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	w, ok := g.waystones.Get(id)
	if !ok || !w.Valid {
		return nil
	}
	return w
}

func (g *Game) withinReach(p *Player, w *model.Waystone) bool {
	if w.Dimension != p.dimension {
		return false
	}
	r := float64(g.cfg.Server.ActivationRadius)
	return p.pos.DistanceSqTo(w.Pos) <= r*r
}

func (g *Game) handleTeleport(p *Player, m protocol.TeleportMsg) {
	res := protocol.TeleportResultMsg{
		Type:            protocol.TypeTeleportResult,
		ProtocolVersion: protocol.Version,
		RequestID:       m.RequestID,
	}
	mode, ok := model.ParseWarpMode(m.WarpMode)
	if !ok {
		res.Outcome = teleport.DeniedWarpMode.String()
		res.Code = protocol.ErrBadRequest
		g.sendTo(p.id, res)
		return
	}

	// Only waystones the player knows are listed as targets.
	to := g.lookup(m.WaystoneID)
	if to == nil || !(to.Global || g.knowledge.IsActivated(model.Authoritative, p.id, to)) {
		res.Outcome = teleport.DeniedInvalidTarget.String()
		res.Code = protocol.NoticeUnknownWaystone
		g.sendTo(p.id, res)
		return
	}
	var from *model.Waystone
	if m.FromWaystoneID != "" {
		if w := g.lookup(m.FromWaystoneID); w != nil && g.withinReach(p, w) {
			from = w
		}
	}

	levels := cost.Levels(g.cfg, p, to, mode)
	out, err := g.teleports.Attempt(p, to, mode, from)
	if err != nil {
		g.log.Printf("teleport player=%s waystone=%s: %v", p.id, to.ID, err)
		res.Outcome = out.String()
		res.Code = protocol.ErrInternal
		g.sendTo(p.id, res)
		return
	}
	res.OK = out.OK()
	res.Outcome = out.String()
	if out.OK() {
		g.stats.teleports.Add(1)
		res.Cost = levels
	} else {
		g.stats.denied.Add(1)
		res.Code = g.denialCode(p, out, mode, levels)
	}
	g.sendTo(p.id, res)
}

// denialCode picks the notice key for a denied attempt and tells the player
// why when the orchestrator has not already done so.
func (g *Game) denialCode(p *Player, out teleport.Outcome, mode model.WarpMode, levels int) string {
	switch out {
	case teleport.DeniedInvalidTarget:
		return protocol.NoticeUnknownWaystone
	case teleport.DeniedLevels:
		g.notice(p.id, protocol.NoticeNotEnoughLevels,
			fmt.Sprintf("needs %d levels, has %d", levels, p.levels))
		return protocol.NoticeNotEnoughLevels
	case teleport.DeniedDimensionalWarp:
		return protocol.NoticeCannotDimensionWarp
	case teleport.DeniedObstructed:
		return protocol.NoticeObstructed
	case teleport.DeniedWarpMode:
		info, _ := mode.Info()
		if mode == model.WaystoneToWaystone {
			g.notice(p.id, protocol.NoticeTooFar, "")
			return protocol.NoticeTooFar
		}
		if left := g.cooldowns.Left(model.Authoritative, p.id, info.Cooldown); left > 0 {
			now := g.now()
			ready := now.Add(time.Duration(left) * time.Millisecond)
			g.notice(p.id, protocol.NoticeCooldown, "ready "+humanize.RelTime(ready, now, "ago", "from now"))
			return protocol.NoticeCooldown
		}
		g.notice(p.id, protocol.NoticeMissingItem, string(info.Item))
		return protocol.NoticeMissingItem
	}
	return ""
}

func (g *Game) handleActivate(p *Player, m protocol.ActivateMsg) {
	w := g.lookup(m.WaystoneID)
	if w == nil {
		g.notice(p.id, protocol.NoticeUnknownWaystone, "")
		return
	}
	if !g.withinReach(p, w) {
		g.notice(p.id, protocol.NoticeTooFar, w.Name)
		return
	}
	if g.knowledge.Activate(model.Authoritative, p.id, w) {
		g.syncKnown(p.id)
	}
}

func (g *Game) handleBreak(p *Player, m protocol.BreakMsg) {
	w := g.lookup(m.WaystoneID)
	if w == nil {
		g.notice(p.id, protocol.NoticeUnknownWaystone, "")
		return
	}
	if !permissions.MayBreak(g.cfg, p, w) {
		g.notice(p.id, protocol.ErrNoPermission, w.Name)
		return
	}
	g.removeWaystone(w)
	g.notice(p.id, protocol.NoticeBroken, w.Name)
	g.log.Printf("break waystone=%s by=%s", w.ID, p.id)
}

func (g *Game) handleEdit(p *Player, m protocol.EditMsg) {
	w := g.lookup(m.WaystoneID)
	if w == nil {
		g.notice(p.id, protocol.NoticeUnknownWaystone, "")
		return
	}
	if perm := permissions.MayEdit(g.cfg, p, w); perm != permissions.EditAllow {
		g.notice(p.id, perm.NoticeCode(), w.Name)
		return
	}
	becameGlobal := false
	if m.Global != nil && *m.Global != w.Global {
		if !permissions.MayEditGlobal(g.cfg, p) {
			g.notice(p.id, permissions.EditGetCreative.NoticeCode(), w.Name)
			return
		}
		w.Global = *m.Global
		becameGlobal = w.Global
	}
	if name := strings.TrimSpace(m.Name); name != "" {
		w.Name = name
	}
	if becameGlobal {
		g.knowledge.MakeGlobal(w)
	}
	if g.store != nil {
		if err := g.store.SaveWaystone(context.Background(), w); err != nil {
			g.log.Printf("save waystone %s: %v", w.ID, err)
		}
	}
	for _, id := range g.Online() {
		if g.knowledge.IsActivated(model.Authoritative, id, w) {
			g.syncKnown(id)
		}
	}
	g.notice(p.id, protocol.NoticeEdited, w.Name)
}
