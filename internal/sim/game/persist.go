package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"waystones.ai/internal/persistence/playerdb"
	"waystones.ai/internal/sim/waystone/model"
)

// snapshot captures the profile under a new revision, so a later snapshot
// always wins in the store.
func (p *Player) snapshot() playerdb.Profile {
	p.rev++
	prof := playerdb.Profile{
		ID:        p.id,
		Name:      p.Name,
		Dimension: p.dimension,
		Pos:       p.pos,
		Levels:    p.levels,
		Creative:  p.creative,
		Rev:       p.rev,
	}
	if s := p.hands[model.MainHand]; !s.Empty() {
		prof.MainHand = *s
	}
	if s := p.hands[model.OffHand]; !s.Empty() {
		prof.OffHand = *s
	}
	return prof
}

func playerFromProfile(prof playerdb.Profile) *Player {
	p := NewPlayer(prof.ID, prof.Name, prof.Dimension, prof.Pos)
	p.levels = prof.Levels
	p.creative = prof.Creative
	p.rev = prof.Rev
	if !prof.MainHand.Empty() {
		s := prof.MainHand
		p.hands[model.MainHand] = &s
	}
	if !prof.OffHand.Empty() {
		s := prof.OffHand
		p.hands[model.OffHand] = &s
	}
	return p
}

// sessions snapshots every online player together with the records changed
// since the last call. It runs on the loop goroutine.
func (g *Game) sessions() []playerdb.Save {
	dirty := g.stores.Persistent.TakeDirty()
	out := make([]playerdb.Save, 0, len(g.players))
	for _, id := range g.Online() {
		s := playerdb.Save{Profile: g.players[id].snapshot()}
		if d, ok := dirty[id]; ok {
			s.Data = &d
		}
		out = append(out, s)
	}
	return out
}

// queueSave hands the current sessions to the saver. A save still waiting in
// the queue is replaced after its records are marked dirty again.
func (g *Game) queueSave() {
	if g.store == nil {
		return
	}
	saves := g.sessions()
	if !g.saverAlive.Load() {
		g.flush(context.Background(), saves)
		return
	}
	select {
	case g.saveQueue <- saves:
		return
	default:
	}
	select {
	case old := <-g.saveQueue:
		// Records taken by the replaced save ride along with the fresh one.
		g.stores.Persistent.MarkDirty(recordIDs(old)...)
		dirty := g.stores.Persistent.TakeDirty()
		for i := range saves {
			if d, ok := dirty[saves[i].Profile.ID]; ok {
				saves[i].Data = &d
			}
		}
	default:
	}
	select {
	case g.saveQueue <- saves:
	default:
		g.stores.Persistent.MarkDirty(recordIDs(saves)...)
	}
}

func recordIDs(saves []playerdb.Save) []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range saves {
		if s.Data != nil {
			ids = append(ids, s.Profile.ID)
		}
	}
	return ids
}

func (g *Game) runSaver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case saves := <-g.saveQueue:
			g.flush(ctx, saves)
		}
	}
}

// flush writes the given sessions. Records of a failed save are marked dirty
// again for the next round; sessions older than what the store holds are
// skipped by the store.
func (g *Game) flush(ctx context.Context, saves []playerdb.Save) {
	if g.store == nil || len(saves) == 0 {
		return
	}
	start := time.Now()
	stale, err := g.store.SaveSessions(ctx, saves)
	if err != nil {
		g.stores.Persistent.MarkDirty(recordIDs(saves)...)
		g.log.Printf("autosave: %v", err)
		return
	}
	g.log.Printf("autosave: %d players (%d stale) in %s", len(saves), len(stale), time.Since(start).Round(time.Millisecond))
}
