package rollback

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/SAE-Geneve/roolback-St0wy/ecs"
	"github.com/SAE-Geneve/roolback-St0wy/input"
)

// FixedPeriod is the simulation's logical tick length: 50 ticks per second.
const FixedPeriod = 1.0 / 50.0

// MaxPlayerNmb is the fixed player count this manager's buffers, digest
// array, and playerNumber table are sized for. Supporting more players
// is a structural change, not a constant bump.
const MaxPlayerNmb = 2

// ErrDesync is the fatal sentinel raised when a peer's confirmed digest
// disagrees with the local replay's digest.
var ErrDesync = eris.New("rollback: physics digest mismatch")

// ErrIncompleteInput is the fatal precondition-violation sentinel raised
// when ValidateFrame is asked to validate past a frame for which a
// player's input has not fully arrived.
var ErrIncompleteInput = eris.New("rollback: validating frame without full input")

// ErrUnknownPlayer is the soft sentinel logged (warn, then drop) for
// input or spawn traffic naming a player number outside [0, MaxPlayerNmb).
var ErrUnknownPlayer = eris.New("rollback: unknown player number")

// PlayerSystems is the set of per-frame game-rule hooks the replay loop
// drives, in the mandated order: ball, then player, then physics.
// Concrete wiring (spawning, scoring, ...) lives in the
// sim/rules packages; the rollback manager only needs the three call
// points.
type PlayerSystems interface {
	// BallFixedUpdate runs the ball rules system once per replayed frame.
	BallFixedUpdate()
	// PlayerFixedUpdate stamps player's input for this frame and runs the
	// player rules system for that one player.
	PlayerFixedUpdate(player int, in input.PlayerInput)
	// PhysicsFixedUpdate advances the physics engine by FixedPeriod.
	PhysicsFixedUpdate(dt float32)
	// PublishTransforms copies physics positions back into the transform
	// pool for rendering.
	PublishTransforms()
}

// Manager owns the input ring buffers, the created-entity log, and the
// two parallel pool sets (current + lastValidate) that make rollback
// possible: rewind is "copy lastValidate over current, replay forward."
type Manager struct {
	registry *ecs.Registry
	pools    Pools
	systems  PlayerSystems

	inputs [MaxPlayerNmb]*InputBuffer

	currentFrame      int64
	lastValidateFrame int64

	created []createdEntity

	lastValid lastValidateSet

	replaying   bool
	replayFrame int64
}

// NewManager creates a rollback manager bound to the given registry,
// pools and game-rule hooks. The registry and pools must already be
// wired together (pools registered against the registry) before this
// call.
func NewManager(registry *ecs.Registry, pools Pools, systems PlayerSystems) *Manager {
	m := &Manager{
		registry: registry,
		pools:    pools,
		systems:  systems,
	}
	for i := range m.inputs {
		m.inputs[i] = NewInputBuffer()
	}
	m.lastValidateFrame = -1
	m.currentFrame = -1
	return m
}

// Bootstrap commits the pools' current contents as the
// lastValidate baseline (the registry's entity set is not snapshotted), without advancing lastValidateFrame past its
// initial -1. Callers must invoke this exactly once, after all
// pre-game static setup (arena geometry, ...) and before the first
// SimulateToCurrentFrame call: without a baseline snapshot,
// restoreFromLastValidate is a no-op and every tick's replay-from-zero
// would double-integrate on top of the previous tick's already-moved
// state instead of truly rewinding.
func (m *Manager) Bootstrap() {
	m.commitToLastValidate()
}

// CurrentFrame reports the speculative frame the manager has most
// recently simulated to.
func (m *Manager) CurrentFrame() int64 { return m.currentFrame }

// LastValidateFrame reports the highest frame whose state is validated
// and canonical.
func (m *Manager) LastValidateFrame() int64 { return m.lastValidateFrame }

// RegisterCreatedEntity appends e to the created-entity log if frame is
// within the replay window (frame > lastValidateFrame); called by spawn
// code (sim.Manager) after every spawn. A spawn at or before
// lastValidateFrame is not logged; instead the live pools, spawn
// included, are committed as the lastValidate state, so the next rewind
// restores the spawned entity rather than leaving its speculative state
// in place.
func (m *Manager) RegisterCreatedEntity(e ecs.Entity, frame int64) {
	if frame <= m.lastValidateFrame {
		m.commitToLastValidate()
		return
	}
	m.created = append(m.created, createdEntity{entity: e, createdFrame: frame})
}

// SetPlayerInput records input for player at inputFrame.
// Advances that player's buffer first if inputFrame is ahead of its
// current frame. Unknown player numbers are a soft error: logged once
// and dropped.
func (m *Manager) SetPlayerInput(player int, in input.PlayerInput, inputFrame int64) error {
	if player < 0 || player >= MaxPlayerNmb {
		log.Warn().Int("player", player).Msg("rollback: input for unknown player, dropping")
		return eris.Wrapf(ErrUnknownPlayer, "player %d", player)
	}
	m.inputs[player].SetInput(in, inputFrame)
	if inputFrame > m.currentFrame {
		m.StartNewFrame(inputFrame)
	}
	return nil
}

// CollectPlayerInputs fills dst with player's most recent inputs (dst[0]
// is currentFrame's) and returns the frame dst[0] represents. This is
// what an outbound PlayerInputPacket is assembled from, once per fixed
// tick.
func (m *Manager) CollectPlayerInputs(player int, dst []input.PlayerInput) (int64, error) {
	if player < 0 || player >= MaxPlayerNmb {
		return 0, eris.Wrapf(ErrUnknownPlayer, "player %d", player)
	}
	m.inputs[player].CopyRecent(dst)
	return m.currentFrame, nil
}

// StartNewFrame advances the manager's notion of currentFrame and every
// player's input ring to match. A newFrame at or behind
// currentFrame is a no-op.
func (m *Manager) StartNewFrame(newFrame int64) {
	if newFrame <= m.currentFrame {
		return
	}
	for _, buf := range m.inputs {
		buf.StartNewFrame(newFrame)
	}
	m.currentFrame = newFrame
}

// SimulateToCurrentFrame rewinds speculative state to lastValidate and
// replays forward to currentFrame. It is safe to call every
// tick; replaying zero frames (currentFrame == lastValidateFrame) is a
// no-op beyond the rewind/copy.
func (m *Manager) SimulateToCurrentFrame() {
	m.rewindAndReplay(m.currentFrame)
	m.systems.PublishTransforms()
}

// rewindAndReplay is the shared core of SimulateToCurrentFrame and
// ValidateFrame:
// tear down everything created since lastValidateFrame, revive
// soft-destroyed entities, bulk-copy the ball/player/physics pools back
// from lastValidate, then replay forward through target. Entities
// created mid-replay (e.g. a ball spawned from a replayed Shoot input)
// are re-logged into the created-entity log as they're (re)created,
// ready for the next call's teardown.
func (m *Manager) rewindAndReplay(target int64) {
	m.destroyCreatedSince(m.lastValidateFrame)
	m.clearDestroyedFlags()
	m.restoreFromLastValidate()
	m.replay(m.lastValidateFrame+1, target)
}

// ValidateFrame is the authority-driven entry point:
// replays from lastValidate up through newValidateFrame, permanently
// frees entities still marked Destroyed, commits the result as the new
// lastValidate state, and advances lastValidateFrame. newValidateFrame
// at or below the current lastValidateFrame is a stale confirmation: logged
// and ignored, never regresses the frame counter.
func (m *Manager) ValidateFrame(newValidateFrame int64) error {
	if newValidateFrame <= m.lastValidateFrame {
		log.Warn().
			Int64("requested", newValidateFrame).
			Int64("lastValidateFrame", m.lastValidateFrame).
			Msg("rollback: stale confirmation, ignoring")
		return nil
	}

	for p, buf := range m.inputs {
		if buf.LastReceivedFrame() < newValidateFrame {
			log.Panic().
				Int("player", p).
				Int64("lastReceived", buf.LastReceivedFrame()).
				Int64("requested", newValidateFrame).
				Msg("rollback: validating frame without full input")
			return eris.Wrapf(ErrIncompleteInput, "player %d has input only through %d, requested %d",
				p, buf.LastReceivedFrame(), newValidateFrame)
		}
	}

	m.rewindAndReplay(newValidateFrame)
	m.freeStillDestroyed()
	m.commitToLastValidate()
	m.lastValidateFrame = newValidateFrame
	m.pruneCreatedUpTo(newValidateFrame)

	// currentFrame never regresses behind the newly validated frame.
	if m.currentFrame < newValidateFrame {
		m.currentFrame = newValidateFrame
	}
	return nil
}

// ConfirmFrame validates newValidateFrame then asserts the local
// per-player physics digest matches peerDigests. A mismatch
// is fatal: it means two peers that believe they processed identical
// inputs arrived at different state, which is unrecoverable without
// authority correction, which this engine does not attempt.
func (m *Manager) ConfirmFrame(newValidateFrame int64, peerDigests [MaxPlayerNmb]PhysicsState, playerEntities [MaxPlayerNmb]ecs.Entity) error {
	if newValidateFrame <= m.lastValidateFrame {
		// A reordered confirmation for an already-validated frame: the
		// peer digests describe that older frame's state, so comparing
		// them against the current lastValidate state would report a
		// desync that never happened. Warn and ignore, like ValidateFrame.
		log.Warn().
			Int64("requested", newValidateFrame).
			Int64("lastValidateFrame", m.lastValidateFrame).
			Msg("rollback: stale confirmation, ignoring")
		return nil
	}
	if err := m.ValidateFrame(newValidateFrame); err != nil {
		return err
	}

	for p := 0; p < MaxPlayerNmb; p++ {
		local := m.GetValidatePhysicsDigest(playerEntities[p])
		if local != peerDigests[p] {
			log.Panic().
				Int("player", p).
				Int64("frame", newValidateFrame).
				Uint32("local", uint32(local)).
				Uint32("peer", uint32(peerDigests[p])).
				Msg("rollback: desync detected")
			return eris.Wrapf(ErrDesync, "player %d frame %d: local=%d peer=%d",
				p, newValidateFrame, local, peerDigests[p])
		}
	}
	return nil
}

// GetValidatePhysicsDigest computes the cross-peer agreement fingerprint
// for e's rigidbody as it stands in the live pool. Right after
// ValidateFrame (where ConfirmFrame calls it) that is the validated
// state; after a later SimulateToCurrentFrame it is the speculative one.
func (m *Manager) GetValidatePhysicsDigest(e ecs.Entity) PhysicsState {
	rb := m.pools.Rigidbody.GetComponent(e)
	return ComputePhysicsState(
		rb.Transform.Position.X, rb.Transform.Position.Y,
		rb.Velocity.X, rb.Velocity.Y,
		rb.Transform.Rotation, rb.AngularVelocity,
	)
}

func (m *Manager) destroyCreatedSince(frame int64) {
	for _, c := range m.created {
		if c.createdFrame > frame {
			m.registry.DestroyEntity(c.entity)
		}
	}
	m.created = m.created[:0]
}

func (m *Manager) clearDestroyedFlags() {
	m.registry.Each(func(e ecs.Entity) {
		_ = m.registry.RemoveComponent(e, Destroyed)
	})
}

// restoreFromLastValidate bulk-copies the ball/player/physics pools back
// from the lastValidate snapshot. The registry's entity set is
// deliberately untouched here, so which entities exist is
// governed entirely by destroyCreatedSince/clearDestroyedFlags plus
// whatever the replayed systems (re)create.
func (m *Manager) restoreFromLastValidate() {
	if m.lastValid.rigidbodies != nil {
		_ = m.pools.Rigidbody.CopyAllComponents(m.lastValid.rigidbodies)
	}
	if m.lastValid.players != nil {
		_ = m.pools.Player.CopyAllComponents(m.lastValid.players)
	}
	if m.lastValid.balls != nil {
		_ = m.pools.Ball.CopyAllComponents(m.lastValid.balls)
	}
}

func (m *Manager) commitToLastValidate() {
	m.lastValid.rigidbodies = m.pools.Rigidbody.Snapshot()
	m.lastValid.players = m.pools.Player.Snapshot()
	m.lastValid.balls = m.pools.Ball.Snapshot()
}

// pruneCreatedUpTo drops created-entity log entries that are now part of
// validated state (createdFrame <= frame): they no longer need tracking
// for rewind cleanup, since a future SimulateToCurrentFrame restores
// from a lastValidate snapshot that already includes them.
func (m *Manager) pruneCreatedUpTo(frame int64) {
	kept := m.created[:0]
	for _, c := range m.created {
		if c.createdFrame > frame {
			kept = append(kept, c)
		}
	}
	m.created = kept
}

func (m *Manager) freeStillDestroyed() {
	m.registry.Each(func(e ecs.Entity) {
		if m.registry.HasComponent(e, Destroyed) {
			m.registry.DestroyEntity(e)
		}
	})
}

// replay runs the mandated three-system order for every frame in
// [from, to], stamping each player's recorded input immediately before
// that frame's PlayerFixedUpdate call.
func (m *Manager) replay(from, to int64) {
	m.replaying = true
	defer func() { m.replaying = false }()

	for frame := from; frame <= to; frame++ {
		m.replayFrame = frame
		m.systems.BallFixedUpdate()
		for p, buf := range m.inputs {
			framesBack := buf.CurrentFrame() - frame
			in := buf.At(framesBack)
			m.systems.PlayerFixedUpdate(p, in)
		}
		m.systems.PhysicsFixedUpdate(FixedPeriod)
	}
}

// ActiveFrame reports the frame currently being processed by a replay
// in progress, or currentFrame when no replay is active. Spawn code
// (sim.Manager) uses this to decide the created-entity log frame stamp
// without the PlayerSystems callbacks needing a frame parameter
// threaded through every call.
func (m *Manager) ActiveFrame() int64 {
	if m.replaying {
		return m.replayFrame
	}
	return m.currentFrame
}
