// Package sim implements the game manager: it owns the entity registry,
// the transform pool, the rollback manager, and the fixed
// player-number-to-entity table, and is the only place entity creation
// may occur.
package sim

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/SAE-Geneve/roolback-St0wy/config"
	"github.com/SAE-Geneve/roolback-St0wy/ecs"
	"github.com/SAE-Geneve/roolback-St0wy/input"
	"github.com/SAE-Geneve/roolback-St0wy/level"
	netpkt "github.com/SAE-Geneve/roolback-St0wy/net"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
	"github.com/SAE-Geneve/roolback-St0wy/rollback"
	"github.com/SAE-Geneve/roolback-St0wy/rules"
	"github.com/SAE-Geneve/roolback-St0wy/trace"
)

// winningScore is how many walls a player must destroy to win.
const winningScore = 3

// colliderMask is the combined presence bit for either collider variant;
// Registry.HasComponent requires every bit in its argument to be set, so
// presence-of-either is checked with a raw mask AND instead.
const colliderMask = ecs.AabbCollider | ecs.CircleCollider

// Manager owns the simulation's ECS registry, pools, physics engine and
// rollback manager, and drives the fixed-step tick loop.
type Manager struct {
	cfg *config.Config

	registry *ecs.Registry

	transforms   *ecs.Pool[physics.Transform]
	rigidbodies  *ecs.Pool[physics.Rigidbody]
	colliders    *ecs.Pool[physics.Collider]
	players      *ecs.Pool[rules.PlayerComponent]
	balls        *ecs.Pool[rules.BallComponent]
	fallingWalls *ecs.Pool[rules.FallingWallComponent]

	grid   *physics.Grid
	layers *physics.LayerMatrix
	engine *physics.Engine

	rb *rollback.Manager

	playerEntities [rollback.MaxPlayerNmb]ecs.Entity

	// scores is mutated by resolveDoorTrigger during replay, the same way
	// the physics/player/ball pools are — so it needs the same
	// reset-before-replay, commit-on-validate treatment the pools get,
	// or a wall-destroy event replayed on every
	// speculative tick between ValidateFrame calls would rescore itself
	// every time. lastValidScores is the committed baseline.
	scores          [rollback.MaxPlayerNmb]int
	lastValidScores [rollback.MaxPlayerNmb]int

	startingTime time.Time
	started      bool

	tracer    oteltrace.Tracer
	traceSink *trace.Sink
}

// New builds a Manager with an empty registry, a fresh physics engine
// wired with the game's layer rules, and the given level layout
// spawned as static geometry. traceSink may be nil (tracing disabled).
func New(cfg *config.Config, layout *level.Layout, sink *trace.Sink) *Manager {
	registry := ecs.NewRegistry()

	m := &Manager{
		cfg:      cfg,
		registry: registry,
		transforms: ecs.NewPool[physics.Transform](registry, ecs.Position|ecs.Scale|ecs.Rotation, func() physics.Transform {
			return physics.Transform{Scale: physics.Vec2f{X: 1, Y: 1}}
		}),
		rigidbodies:  ecs.NewPool[physics.Rigidbody](registry, ecs.Rigidbody, nil),
		colliders:    ecs.NewPool[physics.Collider](registry, colliderMask, nil),
		players:      ecs.NewPool[rules.PlayerComponent](registry, rollback.PlayerCharacter, nil),
		balls:        ecs.NewPool[rules.BallComponent](registry, rollback.Ball, nil),
		fallingWalls: ecs.NewPool[rules.FallingWallComponent](registry, rollback.FallingWall, nil),
		tracer:       otel.Tracer("sim"),
		traceSink:    sink,
	}
	for i := range m.playerEntities {
		m.playerEntities[i] = ecs.InvalidEntity
	}

	m.grid = physics.NewGrid(-50, -50, 10, 10, 10)
	m.layers = buildLayerMatrix()
	m.engine = physics.NewEngine(m.grid, m.layers)
	m.engine.AddListener(physics.ListenerFuncs{Trigger: m.onTrigger, Collision: m.onCollision})

	pools := rollback.Pools{Rigidbody: m.rigidbodies, Player: m.players, Ball: m.balls}
	m.rb = rollback.NewManager(registry, pools, m)

	m.spawnStaticWalls(layout)
	if layout != nil && layout.FallingWall != nil {
		m.SpawnFallingWall(*layout.FallingWall)
	}
	m.rb.Bootstrap()
	return m
}

// buildLayerMatrix encodes the game's collision filtering: the ball collides with
// both the outer walls and the thin middle wall; players pass through
// the middle wall (it only divides the ball's half of the arena) but
// collide with outer walls and falling doors; falling doors only ever
// interact with players (they are triggers, never solid to the ball).
func buildLayerMatrix() *physics.LayerMatrix {
	m := physics.NewLayerMatrix()
	m.Allow(physics.LayerBall, physics.LayerWall)
	m.Allow(physics.LayerBall, physics.LayerMiddleWall)
	m.Allow(physics.LayerBall, physics.LayerPlayer)
	m.Allow(physics.LayerPlayer, physics.LayerWall)
	m.Allow(physics.LayerPlayer, physics.LayerDoor)
	return m
}

// Registry exposes the underlying entity registry for host code that
// needs to query component presence directly (e.g. a renderer).
func (m *Manager) Registry() *ecs.Registry { return m.registry }

// GetTransformManager returns the pool a renderer samples between ticks.
// The pool itself is never locked; callers must not read it concurrently
// with a Tick call.
func (m *Manager) GetTransformManager() *ecs.Pool[physics.Transform] { return m.transforms }

// CurrentFrame and LastValidateFrame satisfy debugserver.StateProvider.
func (m *Manager) CurrentFrame() int64      { return m.rb.CurrentFrame() }
func (m *Manager) LastValidateFrame() int64 { return m.rb.LastValidateFrame() }

// Scores reports each player's points: DestroyWallScoreIncrement per
// destroyed wall.
func (m *Manager) Scores() [2]int { return m.scores }

// CheckWinCondition reports the first player whose score shows
// winningScore destroyed walls; the host emits WinGamePacket when it
// returns true.
func (m *Manager) CheckWinCondition() (netpkt.PlayerNumber, bool) {
	for p, s := range m.scores {
		if s >= winningScore*rules.DestroyWallScoreIncrement {
			return netpkt.PlayerNumber(p), true
		}
	}
	return 0, false
}

// StartGame records the match clock origin from the host's
// StartGamePacket; gameplay systems stay gated until
// StartingTime+StartDelay elapses.
func (m *Manager) StartGame(pkt netpkt.StartGamePacket) {
	m.startingTime = pkt.StartingTime
	m.started = false
}

// ApplyInput feeds every frame of an inbound PlayerInputPacket into the
// rollback manager's ring buffers.
func (m *Manager) ApplyInput(pkt netpkt.PlayerInputPacket) error {
	player := int(pkt.PlayerNumber)
	base := pkt.CurrentFrame
	for i, in := range pkt.Inputs {
		frame := base - int64(i)
		if frame < 0 {
			break
		}
		if err := m.rb.SetPlayerInput(player, in, frame); err != nil {
			return eris.Wrapf(err, "sim: apply input packet for player %d", player)
		}
	}
	return nil
}

// BuildInputPacket assembles the outbound PlayerInputPacket for player,
// carrying that player's most recent MaxInputNmb frames of input. The
// host sends one every fixed tick, unreliable: a dropped packet is
// recoverable from the next one's overlapping window.
func (m *Manager) BuildInputPacket(player netpkt.PlayerNumber) (netpkt.PlayerInputPacket, error) {
	pkt := netpkt.PlayerInputPacket{PlayerNumber: player}
	frame, err := m.rb.CollectPlayerInputs(int(player), pkt.Inputs[:])
	if err != nil {
		return netpkt.PlayerInputPacket{}, eris.Wrap(err, "sim: build input packet")
	}
	pkt.CurrentFrame = frame
	return pkt, nil
}

// Validate is the entry point for authority ValidateFramePacket
// messages.
func (m *Manager) Validate(pkt netpkt.ValidateFramePacket) error {
	if pkt.Frame <= m.rb.LastValidateFrame() {
		m.traceSink.Record(trace.Event{Kind: trace.EventStaleConfirm, Frame: pkt.Frame})
	}

	var digests [rollback.MaxPlayerNmb]rollback.PhysicsState
	for i, d := range pkt.PhysicsStates {
		digests[i] = rollback.PhysicsState(d)
	}
	m.scores = m.lastValidScores
	err := m.rb.ConfirmFrame(pkt.Frame, digests, m.playerEntities)
	if err == nil {
		m.lastValidScores = m.scores
	}
	m.traceValidate(pkt.Frame, err)
	return err
}

func (m *Manager) traceValidate(frame int64, err error) {
	if err != nil {
		m.traceSink.Record(trace.Event{Kind: trace.EventDesync, Frame: frame, Detail: err.Error()})
		return
	}
	m.traceSink.Record(trace.Event{Kind: trace.EventValidateFrame, Frame: frame})
}

// Tick advances the simulation by one fixed step, gated by the
// start-delay countdown. now is the host's
// wall clock; while gated, a Tick neither advances the frame nor runs
// any system.
func (m *Manager) Tick(ctx context.Context, now time.Time) {
	ctx, span := m.tracer.Start(ctx, "sim.tick")
	defer span.End()

	if !m.started {
		if m.startingTime.IsZero() || now.Before(m.startingTime.Add(m.cfg.Simulation.StartDelay)) {
			return
		}
		m.started = true
	}

	m.rb.StartNewFrame(m.rb.CurrentFrame() + 1)
	m.scores = m.lastValidScores
	m.rb.SimulateToCurrentFrame()
}

// Run drives Tick on a fixed-rate ticker until ctx is canceled or a
// SIGINT/SIGTERM arrives.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info().Msg("sim: tick loop starting")

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		period := m.cfg.Simulation.FixedPeriod
		if period <= 0 {
			period = 20 * time.Millisecond
		}
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				m.Tick(ctx, now)
			}
		}
	})
	return eg.Wait()
}

// BallFixedUpdate implements rollback.PlayerSystems: it runs the
// (presently no-op) ball rule for every live ball entity.
func (m *Manager) BallFixedUpdate() {
	m.registry.Each(func(e ecs.Entity) {
		if !m.registry.HasComponent(e, rollback.Ball) {
			return
		}
		bc := m.balls.GetComponent(e)
		rules.BallFixedUpdate(bc)
	})
}

// PlayerFixedUpdate implements rollback.PlayerSystems: stamps player's
// input this frame and runs the player movement/throw rule.
func (m *Manager) PlayerFixedUpdate(player int, in input.PlayerInput) {
	e := m.playerEntities[player]
	if e == ecs.InvalidEntity || !m.registry.EntityExists(e) {
		return
	}
	rb := m.rigidbodies.GetComponent(e)
	pc := m.players.GetComponent(e)
	rules.PlayerFixedUpdate(rb, pc, in, m)
}

// PhysicsFixedUpdate implements rollback.PlayerSystems: advances the
// physics engine by dt over every rigidbody entity.
func (m *Manager) PhysicsFixedUpdate(dt float32) {
	var bodies []physics.Body
	m.registry.Each(func(e ecs.Entity) {
		if !m.registry.HasComponent(e, ecs.Rigidbody) {
			return
		}
		b := physics.Body{
			Handle:    physics.EntityHandle(e),
			Rigidbody: m.rigidbodies.GetComponent(e),
		}
		if m.registry.Mask(e)&colliderMask != 0 {
			b.Collider = *m.colliders.GetComponent(e)
			b.HasCollider = true
		}
		bodies = append(bodies, b)
	})
	m.engine.FixedUpdate(dt, bodies)
}

// PublishTransforms implements rollback.PlayerSystems: copies each
// rigidbody's integrated transform into the render-facing transform
// pool.
func (m *Manager) PublishTransforms() {
	m.registry.Each(func(e ecs.Entity) {
		if !m.registry.HasComponent(e, ecs.Rigidbody) {
			return
		}
		rb := m.rigidbodies.GetComponent(e)
		m.transforms.SetComponent(e, rb.Transform)
	})
}

func (m *Manager) onTrigger(a, b physics.EntityHandle) {
	ea, eb := ecs.Entity(a), ecs.Entity(b)
	m.resolveDoorTrigger(ea, eb)
	m.resolveDoorTrigger(eb, ea)
}

// resolveDoorTrigger checks whether doorEntity/playerEntity is a
// door/player pair and, if so, applies rules.ResolveDoorTrigger's
// outcome.
func (m *Manager) resolveDoorTrigger(doorEntity, playerEntity ecs.Entity) {
	if !m.registry.HasComponent(doorEntity, rollback.FallingWall) {
		return
	}
	if !m.registry.HasComponent(playerEntity, rollback.PlayerCharacter) {
		return
	}
	fw := m.fallingWalls.GetComponent(doorEntity)
	if !fw.IsDoor {
		return
	}
	if m.registry.HasComponent(doorEntity, rollback.Destroyed) {
		// Already soft-destroyed this replay pass: Destroyed only stops
		// physics participation once ValidateFrame's freeStillDestroyed
		// frees the entity, so a player lingering in the trigger across
		// several frames would otherwise rescore every frame.
		return
	}
	pc := m.players.GetComponent(playerEntity)
	outcome := rules.ResolveDoorTrigger(*fw, *pc)
	if outcome.GrantBall {
		pc.HasBall = true
	}
	if outcome.DestroyWall {
		m.destroyFallingWallPair(doorEntity)
		if pc.Number >= 0 && pc.Number < len(m.scores) {
			m.scores[pc.Number] += rules.DestroyWallScoreIncrement
		}
	}
}

func (m *Manager) onCollision(physics.EntityHandle, physics.EntityHandle) {
	// Hard collisions (ball/wall/player bounces) need no game-rule
	// callback beyond the physics solvers themselves.
}

func (m *Manager) destroyFallingWallPair(doorEntity ecs.Entity) {
	m.softDestroy(doorEntity)
	pairedWall := m.fallingWalls.GetComponent(doorEntity).PairedWall
	if pairedWall != ecs.InvalidEntity && m.registry.EntityExists(pairedWall) {
		m.softDestroy(pairedWall)
	}
}

// softDestroy sets the Destroyed flag instead of freeing the entity
// immediately, so a rollback replay across this frame can revive it.
func (m *Manager) softDestroy(e ecs.Entity) {
	_ = m.registry.AddComponent(e, rollback.Destroyed)
}
