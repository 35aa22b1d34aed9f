// Package waystonetest holds in-memory fakes of the model ports for tests.
package waystonetest

import (
	"math"

	"github.com/google/uuid"

	"waystones.ai/internal/sim/waystone/model"
)

// Player is a plain model.Player.
type Player struct {
	PlayerID   uuid.UUID
	Pos        model.Vec3
	Dim        string
	Size       model.Body
	IsCreative bool
	Levels     int
	Main, Off  *model.ItemStack

	Yaw        float64
	Teleported int
}

func NewPlayer(dim string, pos model.Vec3) *Player {
	return &Player{
		PlayerID: uuid.New(),
		Pos:      pos,
		Dim:      dim,
		Size:     model.Body{Width: 0.6, Height: 1.8},
	}
}

func (p *Player) ID() uuid.UUID        { return p.PlayerID }
func (p *Player) Position() model.Vec3 { return p.Pos }
func (p *Player) Dimension() string    { return p.Dim }
func (p *Player) Body() model.Body     { return p.Size }
func (p *Player) Creative() bool       { return p.IsCreative }
func (p *Player) ExperienceLevel() int { return p.Levels }

func (p *Player) AddExperienceLevel(delta int) { p.Levels += delta }

func (p *Player) HeldItem(h model.Hand) *model.ItemStack {
	if h == model.MainHand {
		return p.Main
	}
	return p.Off
}

func (p *Player) Teleport(dimension string, pos model.Vec3, yaw float64) {
	p.Dim = dimension
	p.Pos = pos
	p.Yaw = yaw
	p.Teleported++
}

// World is a sparse block grid. Cells are air unless marked solid; the
// surface of a column is one above its highest solid cell, or Floor.
type World struct {
	Solid   map[model.Vec3i]bool
	Facing  map[model.Vec3i]model.Direction
	Floor   int
	Ceiling int
}

func NewWorld(floor, ceiling int) *World {
	return &World{
		Solid:   map[model.Vec3i]bool{},
		Facing:  map[model.Vec3i]model.Direction{},
		Floor:   floor,
		Ceiling: ceiling,
	}
}

func (w *World) Fill(p model.Vec3i) { w.Solid[p] = true }

func (w *World) IsVolumeFree(box model.AABB) bool {
	x0, x1 := int(math.Floor(box.Min.X)), int(math.Ceil(box.Max.X))
	y0, y1 := int(math.Floor(box.Min.Y)), int(math.Ceil(box.Max.Y))
	z0, z1 := int(math.Floor(box.Min.Z)), int(math.Ceil(box.Max.Z))
	for x := x0; x < x1; x++ {
		for y := y0; y < y1; y++ {
			for z := z0; z < z1; z++ {
				p := model.Vec3i{X: x, Y: y, Z: z}
				if w.Solid[p] && model.BlockBox(p).Intersects(box) {
					return false
				}
			}
		}
	}
	return true
}

func (w *World) SurfaceHeight(x, z int) int {
	top := w.Floor
	for p := range w.Solid {
		if p.X == x && p.Z == z && p.Y+1 > top {
			top = p.Y + 1
		}
	}
	return top
}

func (w *World) MaxHeight() int { return w.Ceiling }

func (w *World) BlockFacing(p model.Vec3i) (model.Direction, bool) {
	d, ok := w.Facing[p]
	return d, ok
}

// Worlds maps dimension ids to worlds.
type Worlds map[string]model.World

func (ws Worlds) World(dimension string) (model.World, bool) {
	w, ok := ws[dimension]
	return w, ok
}

// Notifier records every call.
type Notifier struct {
	Effects   []model.Vec3i
	Cooldowns map[uuid.UUID]model.CooldownState
	Known     map[uuid.UUID][]*model.Waystone
	Notices   []string
}

func NewNotifier() *Notifier {
	return &Notifier{
		Cooldowns: map[uuid.UUID]model.CooldownState{},
		Known:     map[uuid.UUID][]*model.Waystone{},
	}
}

func (n *Notifier) BroadcastEffect(dimension string, pos model.Vec3i) {
	n.Effects = append(n.Effects, pos)
}

func (n *Notifier) SyncCooldowns(player uuid.UUID, state model.CooldownState) {
	n.Cooldowns[player] = state
}

func (n *Notifier) SyncKnownWaystones(player uuid.UUID, known []*model.Waystone) {
	n.Known[player] = known
}

func (n *Notifier) Notice(player uuid.UUID, code string) {
	n.Notices = append(n.Notices, code)
}

// Roster is a fixed online list.
type Roster []uuid.UUID

func (r Roster) Online() []uuid.UUID { return r }

// Waystone returns a valid unowned waystone.
func Waystone(dim string, pos model.Vec3i) *model.Waystone {
	return &model.Waystone{ID: uuid.New(), Name: "ws", Dimension: dim, Pos: pos, Valid: true}
}
