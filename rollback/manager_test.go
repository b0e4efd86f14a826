package rollback_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SAE-Geneve/roolback-St0wy/ecs"
	"github.com/SAE-Geneve/roolback-St0wy/input"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
	"github.com/SAE-Geneve/roolback-St0wy/rollback"
	"github.com/SAE-Geneve/roolback-St0wy/rules"
)

// fakeSystems is a minimal rollback.PlayerSystems: each player's
// rigidbody moves at +-1 m/s on Right/Left, and holding Shoot for
// player 0 spawns a fresh ball entity every time that frame is
// replayed — standing in for rules.PlayerFixedUpdate's ball-throw so the
// created-entity log has something real to exercise.
type fakeSystems struct {
	registry    *ecs.Registry
	rigidbodies *ecs.Pool[physics.Rigidbody]
	balls       *ecs.Pool[rules.BallComponent]
	players     [rollback.MaxPlayerNmb]ecs.Entity
	rb          *rollback.Manager
}

func (f *fakeSystems) BallFixedUpdate() {}

func (f *fakeSystems) PlayerFixedUpdate(player int, in input.PlayerInput) {
	e := f.players[player]
	rb := f.rigidbodies.GetComponent(e)
	rb.Velocity.X = 0
	if in.Held(input.Right) {
		rb.Velocity.X++
	}
	if in.Held(input.Left) {
		rb.Velocity.X--
	}
	if player == 0 && in.Held(input.Shoot) {
		ball := f.registry.CreateEntity()
		_ = f.registry.AddComponent(ball, rollback.Ball|ecs.Rigidbody)
		f.balls.SetComponent(ball, rules.BallComponent{Owner: player})
		f.rigidbodies.SetComponent(ball, physics.Rigidbody{InvMass: 1})
		f.rb.RegisterCreatedEntity(ball, f.rb.ActiveFrame())
	}
}

func (f *fakeSystems) PhysicsFixedUpdate(dt float32) {
	f.registry.Each(func(e ecs.Entity) {
		if !f.registry.HasComponent(e, ecs.Rigidbody) {
			return
		}
		rb := f.rigidbodies.GetComponent(e)
		rb.Transform.Position.X += rb.Velocity.X * dt
	})
}

func (f *fakeSystems) PublishTransforms() {}

type harness struct {
	manager     *rollback.Manager
	registry    *ecs.Registry
	rigidbodies *ecs.Pool[physics.Rigidbody]
	players     [rollback.MaxPlayerNmb]ecs.Entity
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry := ecs.NewRegistry()
	rigidbodies := ecs.NewPool[physics.Rigidbody](registry, ecs.Rigidbody, nil)
	playersPool := ecs.NewPool[rules.PlayerComponent](registry, rollback.PlayerCharacter, nil)
	ballsPool := ecs.NewPool[rules.BallComponent](registry, rollback.Ball, nil)

	fake := &fakeSystems{registry: registry, rigidbodies: rigidbodies, balls: ballsPool}

	var players [rollback.MaxPlayerNmb]ecs.Entity
	for i := 0; i < rollback.MaxPlayerNmb; i++ {
		e := registry.CreateEntity()
		require.NoError(t, registry.AddComponent(e, ecs.Rigidbody|rollback.PlayerCharacter))
		rigidbodies.SetComponent(e, physics.Rigidbody{InvMass: 1})
		playersPool.SetComponent(e, rules.PlayerComponent{Number: i})
		players[i] = e
	}
	fake.players = players

	pools := rollback.Pools{Rigidbody: rigidbodies, Player: playersPool, Ball: ballsPool}
	m := rollback.NewManager(registry, pools, fake)
	fake.rb = m
	m.Bootstrap()

	return &harness{manager: m, registry: registry, rigidbodies: rigidbodies, players: players}
}

func (h *harness) posX(e ecs.Entity) float32 {
	return h.rigidbodies.GetComponent(e).Transform.Position.X
}

func (h *harness) ballCount() int {
	n := 0
	h.registry.Each(func(e ecs.Entity) {
		if h.registry.HasComponent(e, rollback.Ball) {
			n++
		}
	})
	return n
}

// setBoth is a convenience for the common case of feeding both players
// an explicit input for the same frame, in player-0-then-player-1 order.
func setBoth(t *testing.T, h *harness, p0, p1 input.PlayerInput, frame int64) {
	t.Helper()
	require.NoError(t, h.manager.SetPlayerInput(0, p0, frame))
	require.NoError(t, h.manager.SetPlayerInput(1, p1, frame))
}

func TestSimulateToCurrentFrameIntegratesHeldInput(t *testing.T) {
	h := newHarness(t)
	for frame := int64(0); frame <= 4; frame++ {
		setBoth(t, h, input.Right, 0, frame)
	}
	h.manager.SimulateToCurrentFrame()

	require.InDelta(t, 5*rollback.FixedPeriod, h.posX(h.players[0]), 1e-6)
	require.InDelta(t, 0, h.posX(h.players[1]), 1e-6)
}

// Without Bootstrap's initial lastValidate snapshot, a second call with
// no new input would double-integrate on top of the first call's
// already-moved state instead of rewinding to the same baseline.
func TestSimulateToCurrentFrameIsIdempotentWithoutNewInput(t *testing.T) {
	h := newHarness(t)
	for frame := int64(0); frame <= 9; frame++ {
		setBoth(t, h, input.Right, 0, frame)
	}

	h.manager.SimulateToCurrentFrame()
	first := h.posX(h.players[0])

	h.manager.SimulateToCurrentFrame()
	second := h.posX(h.players[0])

	require.Equal(t, first, second)
}

// A fresh manager fed the exact same input sequence in one shot must
// land on the same state as one replayed incrementally frame by frame.
func TestReplayMatchesColdStartWithSameInputs(t *testing.T) {
	run := func() float32 {
		h := newHarness(t)
		for frame := int64(0); frame <= 9; frame++ {
			setBoth(t, h, input.Right, 0, frame)
		}
		h.manager.SimulateToCurrentFrame()
		return h.posX(h.players[0])
	}
	require.Equal(t, run(), run())
}

// A predicted-hold input that later arrives corrected must change the
// speculative outcome once SimulateToCurrentFrame is re-run.
func TestLateInputCorrectionChangesTrajectory(t *testing.T) {
	h := newHarness(t)
	setBoth(t, h, input.Right, 0, 0)
	// Only player 1 advances frame 1 explicitly; player 0's buffer
	// predicts Right continues to hold.
	require.NoError(t, h.manager.SetPlayerInput(1, 0, 1))

	h.manager.SimulateToCurrentFrame()
	require.InDelta(t, 2*rollback.FixedPeriod, h.posX(h.players[0]), 1e-6)

	require.NoError(t, h.manager.SetPlayerInput(0, input.Left, 1))
	h.manager.SimulateToCurrentFrame()
	require.InDelta(t, 0, h.posX(h.players[0]), 1e-6)
}

func TestValidateFramePanicsWithoutFullInput(t *testing.T) {
	h := newHarness(t)
	setBoth(t, h, 0, 0, 0)

	require.Panics(t, func() {
		_ = h.manager.ValidateFrame(5)
	})
}

func TestValidateFrameIgnoresStaleConfirmation(t *testing.T) {
	h := newHarness(t)
	for frame := int64(0); frame <= 9; frame++ {
		setBoth(t, h, 0, 0, frame)
	}

	require.NoError(t, h.manager.ValidateFrame(5))
	require.Equal(t, int64(5), h.manager.LastValidateFrame())

	require.NoError(t, h.manager.ValidateFrame(3))
	require.Equal(t, int64(5), h.manager.LastValidateFrame(), "a stale confirmation must not regress lastValidateFrame")
}

// A reordered confirmation for an already-validated frame carries
// digests describing that older frame; comparing them against the newer
// lastValidate state would be a spurious desync. Stale confirmations
// must be ignored before the digest check, not after.
func TestConfirmFrameIgnoresStaleDigests(t *testing.T) {
	h := newHarness(t)
	for frame := int64(0); frame <= 9; frame++ {
		setBoth(t, h, input.Right, 0, frame)
	}
	require.NoError(t, h.manager.ValidateFrame(5))

	var garbage [rollback.MaxPlayerNmb]rollback.PhysicsState
	garbage[0] = rollback.PhysicsState(0xdeadbeef)

	require.NotPanics(t, func() {
		require.NoError(t, h.manager.ConfirmFrame(3, garbage, h.players))
	})
	require.Equal(t, int64(5), h.manager.LastValidateFrame())
}

func TestConfirmFrameDesyncPanics(t *testing.T) {
	h := newHarness(t)
	for frame := int64(0); frame <= 4; frame++ {
		setBoth(t, h, input.Right, 0, frame)
	}

	var wrongDigest [rollback.MaxPlayerNmb]rollback.PhysicsState
	wrongDigest[0] = rollback.PhysicsState(12345)

	require.Panics(t, func() {
		_ = h.manager.ConfirmFrame(4, wrongDigest, h.players)
	})
}

// The digest at a validated frame must equal the digest a cold-started
// simulation produces from the same inputs — the cross-peer agreement
// signal only works if it is a pure function of (initial state, inputs).
func TestValidatedDigestMatchesColdStart(t *testing.T) {
	run := func() [rollback.MaxPlayerNmb]rollback.PhysicsState {
		h := newHarness(t)
		for frame := int64(0); frame <= 9; frame++ {
			setBoth(t, h, input.Right, input.Left, frame)
		}
		require.NoError(t, h.manager.ValidateFrame(9))

		var digests [rollback.MaxPlayerNmb]rollback.PhysicsState
		for p := range digests {
			digests[p] = h.manager.GetValidatePhysicsDigest(h.players[p])
		}
		return digests
	}
	require.Equal(t, run(), run())
}

// ConfirmFrame against digests computed by an identical peer replay must
// not trip the desync assertion, even when the confirmed frames include
// a late-input correction.
func TestConfirmFrameAcceptsMatchingDigests(t *testing.T) {
	feed := func(h *harness) {
		setBoth(t, h, input.Right, 0, 0)
		for frame := int64(1); frame <= 9; frame++ {
			require.NoError(t, h.manager.SetPlayerInput(1, 0, frame))
		}
		h.manager.SimulateToCurrentFrame() // player 0 predicted to hold Right
		for frame := int64(1); frame <= 9; frame++ {
			require.NoError(t, h.manager.SetPlayerInput(0, input.Left, frame))
		}
	}

	peer := newHarness(t)
	feed(peer)
	require.NoError(t, peer.manager.ValidateFrame(9))
	var digests [rollback.MaxPlayerNmb]rollback.PhysicsState
	for p := range digests {
		digests[p] = peer.manager.GetValidatePhysicsDigest(peer.players[p])
	}

	local := newHarness(t)
	feed(local)
	require.NotPanics(t, func() {
		require.NoError(t, local.manager.ConfirmFrame(9, digests, local.players))
	})
}

// A ball spawned from a held Shoot input must vanish once a
// ValidateFrame rewinds to a frame before its creation, and must be
// deterministically recreated (and persist) once a later ValidateFrame
// replays past that frame again.
func TestSpawnedEntitySurvivesOnlyPastItsCreationFrame(t *testing.T) {
	h := newHarness(t)

	for frame := int64(0); frame <= 3; frame++ {
		p0 := input.PlayerInput(0)
		if frame == 3 {
			p0 = input.Shoot
		}
		setBoth(t, h, p0, 0, frame)
	}
	h.manager.SimulateToCurrentFrame()
	require.Equal(t, 1, h.ballCount(), "the ball must exist once its spawning frame has been replayed")

	require.NoError(t, h.manager.ValidateFrame(2))
	require.Equal(t, 0, h.ballCount(), "validating to a frame before the spawn must not recreate the ball")

	for frame := int64(4); frame <= 5; frame++ {
		setBoth(t, h, 0, 0, frame)
	}
	require.NoError(t, h.manager.ValidateFrame(5))
	require.Equal(t, 1, h.ballCount(), "the ball must be recreated by replaying frame 3's Shoot input and persist")
}
