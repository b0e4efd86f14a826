package rules_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAE-Geneve/roolback-St0wy/input"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
	"github.com/SAE-Geneve/roolback-St0wy/rules"
)

type recordingSpawner struct {
	calls    int
	owner    int
	position physics.Vec2f
	velocity physics.Vec2f
}

func (s *recordingSpawner) SpawnBall(owner int, position, velocity physics.Vec2f) {
	s.calls++
	s.owner, s.position, s.velocity = owner, position, velocity
}

func TestPlayerFixedUpdateAppliesMovementForce(t *testing.T) {
	rb := &physics.Rigidbody{}
	pc := &rules.PlayerComponent{}

	rules.PlayerFixedUpdate(rb, pc, input.Right|input.Up, &recordingSpawner{})

	assert.Equal(t, physics.Vec2f{X: rules.PlayerSpeed, Y: rules.PlayerSpeed}, rb.Force)
}

// The character faces its movement direction, measured as the signed
// angle from Up: Up is 0, Right is +pi/2, Left is -pi/2, Down is pi.
func TestPlayerFacingIsSignedAngleFromUp(t *testing.T) {
	cases := []struct {
		name string
		in   input.PlayerInput
		want float64
	}{
		{"up", input.Up, 0},
		{"right", input.Right, math.Pi / 2},
		{"left", input.Left, -math.Pi / 2},
		{"down", input.Down, math.Pi},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rb := &physics.Rigidbody{}
			pc := &rules.PlayerComponent{}

			rules.PlayerFixedUpdate(rb, pc, tc.in, &recordingSpawner{})

			assert.InDelta(t, tc.want, float64(rb.Transform.Rotation), 1e-6)
		})
	}
}

func TestPlayerFacingUnchangedWhenIdle(t *testing.T) {
	rb := &physics.Rigidbody{}
	rb.Transform.Rotation = 1.25
	pc := &rules.PlayerComponent{AimDir: physics.Vec2f{Y: 1}}

	rules.PlayerFixedUpdate(rb, pc, 0, &recordingSpawner{})

	assert.InDelta(t, 1.25, float64(rb.Transform.Rotation), 1e-6)
	assert.Equal(t, physics.Vec2f{Y: 1}, pc.AimDir)
}

func TestPlayerThrowSpawnsBallAlongAim(t *testing.T) {
	rb := &physics.Rigidbody{}
	pc := &rules.PlayerComponent{HasBall: true, Number: 1}
	spawner := &recordingSpawner{}

	rules.PlayerFixedUpdate(rb, pc, input.Right|input.Shoot, spawner)

	require.Equal(t, 1, spawner.calls)
	assert.Equal(t, 1, spawner.owner)
	assert.InDelta(t, 0.5, spawner.position.X, 1e-6, "the ball appears half a meter along the aim")
	assert.InDelta(t, rules.BallSpeed, spawner.velocity.X, 1e-6, "a standing player adds no carried speed")
	assert.False(t, pc.HasBall)
}

func TestPlayerCannotThrowWithoutBall(t *testing.T) {
	rb := &physics.Rigidbody{}
	pc := &rules.PlayerComponent{}
	spawner := &recordingSpawner{}

	rules.PlayerFixedUpdate(rb, pc, input.Right|input.Shoot, spawner)

	assert.Equal(t, 0, spawner.calls)
}
