package world

import (
	"github.com/google/uuid"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
)

type Player struct {
	id    uuid.UUID
	name  string
	world *World
	level int
	mode  host.GameMode
	pos   host.Vec3
}

var _ host.Player = (*Player)(nil)

func (p *Player) ID() uuid.UUID           { return p.id }
func (p *Player) Name() string            { return p.name }
func (p *Player) Level() int              { return p.level }
func (p *Player) GameMode() host.GameMode { return p.mode }
func (p *Player) Pos() host.Vec3          { return p.pos }
func (p *Player) World() *World           { return p.world }

func (p *Player) SetLevel(level int)             { p.level = max(0, level) }
func (p *Player) SetGameMode(mode host.GameMode) { p.mode = mode }
func (p *Player) Teleport(pos host.Vec3)         { p.pos = pos }

// MoveTo transfers p to another world of the same server.
func (p *Player) MoveTo(w *World, pos host.Vec3) {
	if w != p.world {
		p.world.detach(p)
		w.players = append(w.players, p)
		p.world = w
	}
	p.pos = pos
}

func (w *World) detach(p *Player) {
	for i, q := range w.players {
		if q == p {
			w.players = append(w.players[:i], w.players[i+1:]...)
			return
		}
	}
}
