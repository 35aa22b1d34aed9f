package game

import (
	"github.com/google/uuid"

	"waystones.ai/internal/sim/tuning"
	"waystones.ai/internal/sim/waystone/model"
)

// DefaultBody is the collision size of a standing player.
var DefaultBody = model.Body{Width: 0.6, Height: 1.8}

// Player is a connected player as the game loop sees it. Only the loop
// goroutine touches it.
type Player struct {
	id        uuid.UUID
	Name      string
	dimension string
	pos       model.Vec3
	Yaw       float64
	body      model.Body
	creative  bool
	levels    int
	hands     [2]*model.ItemStack
	// rev is the revision of the last saved snapshot.
	rev       int64
}

func NewPlayer(id uuid.UUID, name, dimension string, pos model.Vec3) *Player {
	return &Player{
		id:        id,
		Name:      name,
		dimension: dimension,
		pos:       pos,
		body:      DefaultBody,
	}
}

func (p *Player) ID() uuid.UUID        { return p.id }
func (p *Player) Position() model.Vec3 { return p.pos }
func (p *Player) Dimension() string    { return p.dimension }
func (p *Player) Body() model.Body     { return p.body }
func (p *Player) Creative() bool       { return p.creative }
func (p *Player) ExperienceLevel() int { return p.levels }

func (p *Player) SetCreative(v bool) { p.creative = v }

func (p *Player) AddExperienceLevel(delta int) {
	p.levels += delta
	if p.levels < 0 {
		p.levels = 0
	}
}

func (p *Player) HeldItem(h model.Hand) *model.ItemStack {
	if h != model.MainHand && h != model.OffHand {
		return nil
	}
	return p.hands[h]
}

// SetHeld replaces the stack in hand h.
func (p *Player) SetHeld(h model.Hand, s *model.ItemStack) {
	if h == model.MainHand || h == model.OffHand {
		p.hands[h] = s
	}
}

func (p *Player) Teleport(dimension string, pos model.Vec3, yaw float64) {
	p.dimension = dimension
	p.pos = pos
	p.Yaw = yaw
}

// MoveTo changes the position inside the current dimension.
func (p *Player) MoveTo(pos model.Vec3) { p.pos = pos }

func grantStack(g tuning.ItemGrant) *model.ItemStack {
	if g.Kind == "" || g.Count <= 0 {
		return nil
	}
	return &model.ItemStack{Kind: model.ItemKind(g.Kind), Count: g.Count}
}

// giveStarterKit applies the configured starter levels and stacks.
func giveStarterKit(p *Player, s tuning.Server) {
	p.levels = s.StarterLevels
	p.hands[model.MainHand] = grantStack(s.StarterMainHand)
	p.hands[model.OffHand] = grantStack(s.StarterOffHand)
}
