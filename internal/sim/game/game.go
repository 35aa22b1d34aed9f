package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"waystones.ai/internal/persistence/playerdb"
	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/voxel"
	"waystones.ai/internal/sim/waystone/cooldown"
	"waystones.ai/internal/sim/waystone/knowledge"
	"waystones.ai/internal/sim/waystone/model"
	"waystones.ai/internal/sim/waystone/playerdata"
	"waystones.ai/internal/sim/waystone/registry"
	"waystones.ai/internal/sim/waystone/teleport"
)

var ErrAlreadyOnline = errors.New("game: player already online")

// Store is the persistence the loop needs. playerdb.DB implements it.
type Store interface {
	LoadPlayer(ctx context.Context, id uuid.UUID) (playerdata.Data, bool, error)
	LoadProfile(ctx context.Context, id uuid.UUID) (playerdb.Profile, bool, error)
	SaveSessions(ctx context.Context, saves []playerdb.Save) ([]uuid.UUID, error)
	LoadWaystones(ctx context.Context) ([]*model.Waystone, error)
	SaveWaystone(ctx context.Context, w *model.Waystone) error
	DeleteWaystone(ctx context.Context, id uuid.UUID) error
}

type Options struct {
	Tuning   tuning.Config
	Worlds   voxel.Worlds
	Store    Store
	Recorder teleport.Recorder
	Now      func() time.Time
}

type JoinRequest struct {
	PlayerID uuid.UUID
	Name     string
	Out      chan []byte
	Resp     chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Initial holds encoded messages to send right after the welcome.
	Initial [][]byte
	Err     error
}

// Envelope is one validated client request.
type Envelope struct {
	PlayerID uuid.UUID
	Type     string
	Raw      []byte
}

// Game is the single authoritative mutator of players, waystones and
// per-player waystone data.
type Game struct {
	cfg    tuning.Config
	log    *log.Logger
	now    func() time.Time
	worlds voxel.Worlds
	store  Store

	waystones  *registry.Registry
	stores     *playerdata.Stores
	cooldowns  *cooldown.Tracker
	knowledge  *knowledge.Registry
	teleports  *teleport.Orchestrator
	players    map[uuid.UUID]*Player
	clients    map[uuid.UUID]chan []byte
	tick       atomic.Uint64
	saveQueue  chan []playerdb.Save
	saverAlive atomic.Bool
	stats      stats

	join  chan JoinRequest
	leave chan uuid.UUID
	inbox chan Envelope
}

func New(opts Options, logger *log.Logger) *Game {
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	worlds := opts.Worlds
	if worlds == nil {
		worlds = voxel.NewWorlds(opts.Tuning)
	}
	g := &Game{
		cfg:       opts.Tuning,
		log:       logger,
		now:       now,
		worlds:    worlds,
		store:     opts.Store,
		waystones: registry.New(),
		stores:    playerdata.NewStores(),
		players:   map[uuid.UUID]*Player{},
		clients:   map[uuid.UUID]chan []byte{},
		saveQueue: make(chan []playerdb.Save, 1),
		join:      make(chan JoinRequest, 64),
		leave:     make(chan uuid.UUID, 64),
		inbox:     make(chan Envelope, 1024),
	}
	g.cooldowns = cooldown.NewTracker(g.stores, now)
	g.knowledge = knowledge.New(g.stores, g.waystones, g, g)
	g.knowledge.Subscribe(g.onActivated)
	g.teleports = &teleport.Orchestrator{
		Config:    g.cfg,
		Worlds:    g.worlds,
		Cooldowns: g.cooldowns,
		Notifier:  g,
		Recorder:  opts.Recorder,
	}
	return g
}

func (g *Game) Join() chan<- JoinRequest { return g.join }
func (g *Game) Leave() chan<- uuid.UUID  { return g.leave }
func (g *Game) Inbox() chan<- Envelope   { return g.inbox }

func (g *Game) Waystones() *registry.Registry { return g.waystones }
func (g *Game) Knowledge() *knowledge.Registry { return g.knowledge }
func (g *Game) Cooldowns() *cooldown.Tracker   { return g.cooldowns }

// Player returns the online player with id. Loop goroutine only.
func (g *Game) Player(id uuid.UUID) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// Online implements model.Roster.
func (g *Game) Online() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.players))
	for id := range g.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (g *Game) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(g.cfg.Server.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	saverCtx, stopSaver := context.WithCancel(context.Background())
	saverDone := make(chan struct{})
	g.saverAlive.Store(true)
	go func() {
		defer close(saverDone)
		g.runSaver(saverCtx)
	}()
	defer func() {
		stopSaver()
		<-saverDone
		g.saverAlive.Store(false)
		select {
		case old := <-g.saveQueue:
			g.stores.Persistent.MarkDirty(recordIDs(old)...)
		default:
		}
		g.flush(context.Background(), g.sessions())
	}()

	var pendingJoins []JoinRequest
	var pendingLeaves []uuid.UUID
	var pendingActions []Envelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-g.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-g.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-g.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			g.StepOnce(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

// StepOnce applies one tick: joins, then actions in arrival order, then
// leaves. Tests drive the loop through it directly.
func (g *Game) StepOnce(joins []JoinRequest, leaves []uuid.UUID, actions []Envelope) uint64 {
	start := time.Now()
	tick := g.tick.Add(1)
	defer func() { g.stats.stepMicros.Store(time.Since(start).Microseconds()) }()
	for _, req := range joins {
		resp := g.handleJoin(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}
	for _, env := range actions {
		g.handleAction(env)
	}
	for _, id := range leaves {
		g.handleLeave(id)
	}
	if every := g.cfg.Server.AutosaveEveryTicks; every > 0 && tick%uint64(every) == 0 {
		g.queueSave()
	}
	return tick
}

func (g *Game) spawnFor(dimension string) (string, model.Vec3) {
	spec, ok := g.cfg.Dimension(dimension)
	if !ok && len(g.cfg.Dimensions) > 0 {
		spec = g.cfg.Dimensions[0]
	}
	x, z := spec.Spawn[0], spec.Spawn[2]
	y := spec.Spawn[1]
	if w, ok := g.worlds[spec.ID]; ok {
		y = w.SurfaceHeight(x, z)
	}
	return spec.ID, model.Vec3{X: float64(x) + 0.5, Y: float64(y), Z: float64(z) + 0.5}
}

func (g *Game) handleJoin(req JoinRequest) JoinResponse {
	if req.PlayerID == uuid.Nil {
		return JoinResponse{Err: fmt.Errorf("game: missing player id")}
	}
	if _, ok := g.players[req.PlayerID]; ok {
		return JoinResponse{Err: ErrAlreadyOnline}
	}
	name := req.Name
	if name == "" {
		name = "player"
	}

	var p *Player
	if g.store != nil {
		ctx := context.Background()
		prof, ok, err := g.store.LoadProfile(ctx, req.PlayerID)
		if err != nil {
			return JoinResponse{Err: fmt.Errorf("load profile: %w", err)}
		}
		if ok {
			p = playerFromProfile(prof)
			p.Name = name
			if _, exists := g.worlds[p.dimension]; !exists {
				p.dimension, p.pos = g.spawnFor("")
			}
		}
		data, ok, err := g.store.LoadPlayer(ctx, req.PlayerID)
		if err != nil {
			return JoinResponse{Err: fmt.Errorf("load waystones: %w", err)}
		}
		if ok {
			g.stores.Persistent.Load(req.PlayerID, data)
		}
	}
	if p == nil {
		dim, pos := g.spawnFor("")
		p = NewPlayer(req.PlayerID, name, dim, pos)
		giveStarterKit(p, g.cfg.Server)
	}

	g.players[p.id] = p
	g.stats.players.Store(int64(len(g.players)))
	if req.Out != nil {
		g.clients[p.id] = req.Out
	}
	for _, w := range g.waystones.Globals() {
		g.knowledge.Activate(model.Authoritative, p.id, w)
	}
	g.log.Printf("join player=%s name=%s dim=%s", p.id, p.Name, p.dimension)

	resp := JoinResponse{
		Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			PlayerID:        p.id.String(),
			Dimension:       p.dimension,
			Pos:             [3]float64{p.pos.X, p.pos.Y, p.pos.Z},
			Levels:          p.levels,
			Creative:        p.creative,
		},
	}
	for _, m := range []any{
		cooldownsMsg(g.cooldowns.State(model.Authoritative, p.id)),
		knownMsg(g.knowledge.Resolve(model.Authoritative, p.id)),
	} {
		if b, err := encode(m); err == nil {
			resp.Initial = append(resp.Initial, b)
		}
	}
	return resp
}

func (g *Game) handleLeave(id uuid.UUID) {
	p, ok := g.players[id]
	if !ok {
		return
	}
	if g.store != nil {
		save := playerdb.Save{Profile: p.snapshot()}
		if data, ok := g.stores.Persistent.Export(id); ok {
			save.Data = &data
		}
		if _, err := g.store.SaveSessions(context.Background(), []playerdb.Save{save}); err != nil {
			g.log.Printf("save player=%s: %v", id, err)
		}
	}
	g.stores.Persistent.Forget(id)
	delete(g.players, id)
	delete(g.clients, id)
	g.stats.players.Store(int64(len(g.players)))
	g.log.Printf("leave player=%s", id)
}

func (g *Game) onActivated(ev model.ActivatedEvent) {
	g.sendTo(ev.Player, protocol.NoticeMsg{
		Type:            protocol.TypeNotice,
		ProtocolVersion: protocol.Version,
		Code:            protocol.NoticeActivated,
		Text:            ev.Waystone.Name,
	})
}

// LoadWaystones fills the registry and the worlds from the store, then
// seeds one generated global waystone at the spawn of every dimension that
// has none. Call before Run.
func (g *Game) LoadWaystones(ctx context.Context) error {
	if g.store != nil {
		saved, err := g.store.LoadWaystones(ctx)
		if err != nil {
			return fmt.Errorf("load waystones: %w", err)
		}
		for _, w := range saved {
			g.placeWaystone(w)
		}
	}
	hasAny := map[string]bool{}
	for _, w := range g.waystones.All() {
		hasAny[w.Dimension] = true
	}
	for _, spec := range g.cfg.Dimensions {
		if hasAny[spec.ID] {
			continue
		}
		world, ok := g.worlds[spec.ID]
		if !ok {
			continue
		}
		x, z := spec.Spawn[0]+2, spec.Spawn[2]+2
		w := &model.Waystone{
			Name:      "Spawn " + spec.ID,
			Dimension: spec.ID,
			Pos:       model.Vec3i{X: x, Y: world.SurfaceHeight(x, z), Z: z},
			Global:    true,
			Generated: true,
			Valid:     true,
		}
		g.placeWaystone(w)
		if g.store != nil {
			if err := g.store.SaveWaystone(ctx, w); err != nil {
				return fmt.Errorf("seed waystone %s: %w", spec.ID, err)
			}
		}
		g.log.Printf("seeded waystone %s at %v in %s", w.ID, w.Pos, spec.ID)
	}
	return nil
}

// AddWaystone registers w and builds its blocks. Loop goroutine only, or
// before Run.
func (g *Game) AddWaystone(w *model.Waystone) *model.Waystone {
	w.Valid = true
	return g.placeWaystone(w)
}

func (g *Game) placeWaystone(w *model.Waystone) *model.Waystone {
	g.waystones.Put(w)
	g.stats.waystones.Store(int64(len(g.waystones.All())))
	if world, ok := g.worlds[w.Dimension]; ok {
		world.PlaceWaystone(w.Pos, model.South)
	}
	return w
}

func (g *Game) removeWaystone(w *model.Waystone) {
	if world, ok := g.worlds[w.Dimension]; ok {
		world.SetBlock(w.Pos.X, w.Pos.Y, w.Pos.Z, voxel.Air)
		world.SetBlock(w.Pos.X, w.Pos.Y+1, w.Pos.Z, voxel.Air)
	}
	g.waystones.Remove(w.ID)
	g.stats.waystones.Store(int64(len(g.waystones.All())))
	g.knowledge.RemoveFromAll(w)
	if g.store != nil {
		if err := g.store.DeleteWaystone(context.Background(), w.ID); err != nil {
			g.log.Printf("delete waystone %s: %v", w.ID, err)
		}
	}
}
