package rules

import (
	"github.com/SAE-Geneve/roolback-St0wy/input"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
)

// BallSpawner is how PlayerFixedUpdate requests a new ball entity
// without creating it directly: entity creation is reserved to the
// game manager's spawn methods so every spawn gets mirrored into the
// rollback pools correctly.
type BallSpawner interface {
	SpawnBall(owner int, position, velocity physics.Vec2f)
}

// PlayerFixedUpdate applies one player's held input for this frame:
// movement force, facing/aim update, and ball-throw on Shoot. rb is the
// player's rigidbody (embeds the render transform); pc is the player's
// throw state.
func PlayerFixedUpdate(rb *physics.Rigidbody, pc *PlayerComponent, in input.PlayerInput, spawner BallSpawner) {
	var right, up float32
	if in.Held(input.Right) {
		right++
	}
	if in.Held(input.Left) {
		right--
	}
	if in.Held(input.Up) {
		up++
	}
	if in.Held(input.Down) {
		up--
	}

	force := physics.Vec2f{X: right, Y: up}.Scale(PlayerSpeed)
	rb.ApplyForce(force)

	if force.LengthSq() > 0 {
		rb.Transform.Rotation = force.AngleFromUp()
		pc.AimDir = force.Normalized()
	}

	if in.Held(input.Shoot) && pc.HasBall {
		aim := pc.AimDir
		var carriedSpeed float32
		if rb.Velocity.Dot(aim) > 0 {
			carriedSpeed = rb.Velocity.Length()
		}
		velocity := aim.Scale(carriedSpeed + BallSpeed)
		position := rb.Transform.Position.Add(aim.Scale(0.5))
		spawner.SpawnBall(pc.Number, position, velocity)
		pc.HasBall = false
	}
}
