package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

var ErrStopped = errors.New("world: server stopped")

// Server is the reference host: a set of worlds advanced by a single game
// thread. Everything except Do, Post, Stop, CurrentTick and Metrics must be
// called from that thread (or before Run starts).
type Server struct {
	cfg      Config
	rateHz   int
	worlds   map[string]*World
	order    []*World
	players  map[uuid.UUID]*Player
	listener host.Listener
	rng      *rand.Rand
	log      *logrus.Entry
	seq      uint64

	tick atomic.Uint64

	cmds     chan command
	stop     chan struct{}
	stopOnce sync.Once

	metrics atomic.Value // Metrics
}

type command struct {
	fn   func(*Server)
	done chan struct{}
}

var _ host.Host = (*Server)(nil)

func NewServer(cfg Config, tickRateHz int, seed uint64, logger *logrus.Logger) (*Server, error) {
	if tickRateHz <= 0 {
		return nil, fmt.Errorf("tick rate must be > 0")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		cfg:     cfg,
		rateHz:  tickRateHz,
		worlds:  map[string]*World{},
		players: map[uuid.UUID]*Player{},
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:     logger.WithField("component", "world"),
		cmds:    make(chan command, 1024),
		stop:    make(chan struct{}),
	}
	for _, spec := range cfg.Worlds {
		if _, dup := s.worlds[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate world name: %s", spec.Name)
		}
		w, err := newWorld(s, spec)
		if err != nil {
			return nil, err
		}
		s.worlds[spec.Name] = w
		s.order = append(s.order, w)
	}
	for _, p := range cfg.Players {
		if _, err := s.AddPlayer(p); err != nil {
			return nil, err
		}
	}
	s.metrics.Store(Metrics{})
	return s, nil
}

// SetListener must be called before Run.
func (s *Server) SetListener(l host.Listener) { s.listener = l }

func (s *Server) Worlds() []host.World {
	out := make([]host.World, 0, len(s.order))
	for _, w := range s.order {
		out = append(out, w)
	}
	return out
}

func (s *Server) World(name string) (host.World, bool) {
	w, ok := s.worlds[name]
	if !ok {
		return nil, false
	}
	return w, true
}

// Local returns the concrete world, for drivers that need Damage, Tame and so on.
func (s *Server) Local(name string) (*World, bool) {
	w, ok := s.worlds[name]
	return w, ok
}

func (s *Server) Player(id uuid.UUID) (host.Player, bool) {
	p, ok := s.players[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (s *Server) PlayerByName(name string) (*Player, bool) {
	for _, w := range s.order {
		for _, p := range w.players {
			if p.name == name {
				return p, true
			}
		}
	}
	return nil, false
}

func (s *Server) AddPlayer(spec PlayerSpec) (*Player, error) {
	w, ok := s.worlds[spec.World]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorld, spec.World)
	}
	mode, ok := host.ParseGameMode(spec.GameMode)
	if !ok {
		return nil, fmt.Errorf("player %s: unknown game_mode %q", spec.Name, spec.GameMode)
	}
	p := &Player{
		id:    uuid.New(),
		name:  spec.Name,
		world: w,
		level: max(0, spec.Level),
		mode:  mode,
		pos:   host.Vec3{X: spec.X, Y: spec.Y, Z: spec.Z},
	}
	w.players = append(w.players, p)
	s.players[p.id] = p
	return p, nil
}

func (s *Server) RemovePlayer(id uuid.UUID) {
	p, ok := s.players[id]
	if !ok {
		return
	}
	delete(s.players, id)
	p.world.detach(p)
}

func (s *Server) CurrentTick() uint64 { return s.tick.Load() }

func (s *Server) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// Do runs fn on the game thread at the next tick and waits for it to finish.
func (s *Server) Do(ctx context.Context, fn func(*Server)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-s.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn for the next tick without waiting. It reports false when the
// queue is full.
func (s *Server) Post(fn func(*Server)) bool {
	select {
	case s.cmds <- command{fn: fn}:
		return true
	default:
		return false
	}
}

func (s *Server) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.rateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []command
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case cmd := <-s.cmds:
			pending = append(pending, cmd)
		case <-ticker.C:
			s.step(pending)
			pending = pending[:0]
		}
	}
}

func (s *Server) Stop() { s.stopOnce.Do(func() { close(s.stop) }) }

// StepOnce advances one tick on the calling goroutine, running any queued
// commands first. It is meant for tests and offline drivers.
func (s *Server) StepOnce() uint64 {
	var pending []command
drain:
	for {
		select {
		case cmd := <-s.cmds:
			pending = append(pending, cmd)
		default:
			break drain
		}
	}
	s.step(pending)
	return s.tick.Load()
}

func (s *Server) step(pending []command) {
	start := time.Now()
	tick := s.tick.Add(1)
	for _, cmd := range pending {
		s.run(cmd)
	}
	for _, w := range s.order {
		w.spawnTick(tick, s.rng)
	}
	s.publishMetrics(tick, time.Since(start))
}

func (s *Server) run(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("command panicked")
		}
		if cmd.done != nil {
			close(cmd.done)
		}
	}()
	cmd.fn(s)
}

// Metrics is a thread-safe view of the server, refreshed every tick.
type Metrics struct {
	Tick       uint64         `json:"tick"`
	Worlds     int            `json:"worlds"`
	Players    int            `json:"players"`
	Creatures  int            `json:"creatures"`
	BySpecies  map[string]int `json:"by_species,omitempty"`
	QueueDepth int            `json:"queue_depth"`
	StepMS     float64        `json:"step_ms"`
}

func (s *Server) Metrics() Metrics {
	m, _ := s.metrics.Load().(Metrics)
	return m
}

func (s *Server) publishMetrics(tick uint64, took time.Duration) {
	m := Metrics{
		Tick:       tick,
		Worlds:     len(s.order),
		Players:    len(s.players),
		BySpecies:  map[string]int{},
		QueueDepth: len(s.cmds),
		StepMS:     float64(took.Microseconds()) / 1000,
	}
	for _, w := range s.order {
		m.Creatures += len(w.creatures)
		for _, e := range w.creatures {
			m.BySpecies[e.mob.species.String()]++
		}
	}
	s.metrics.Store(m)
}

// spawnTick runs the natural spawner: one creature from the pool next to a
// random player in the world.
func (w *World) spawnTick(tick uint64, rng *rand.Rand) {
	every := w.spec.SpawnEveryTicks
	if every <= 0 || len(w.pool) == 0 || len(w.players) == 0 || tick%uint64(every) != 0 {
		return
	}
	p := w.players[rng.IntN(len(w.players))]
	s := w.pool[rng.IntN(len(w.pool))]
	r := w.spec.SpawnRadius
	pos := host.Vec3{
		X: p.pos.X + (rng.Float64()*2-1)*r,
		Y: p.pos.Y,
		Z: p.pos.Z + (rng.Float64()*2-1)*r,
	}
	if _, err := w.Spawn(pos, s, host.SpawnNatural); err != nil {
		w.srv.log.WithError(err).WithFields(logrus.Fields{
			"world":   w.Name(),
			"species": s.String(),
		}).Warn("natural spawn failed")
	}
}

// SpawnNow spawns s naturally at pos; a convenience for drivers.
func (w *World) SpawnNow(pos host.Vec3, s species.Species) (host.Creature, error) {
	return w.Spawn(pos, s, host.SpawnNatural)
}
