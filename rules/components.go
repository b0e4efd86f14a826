// Package rules implements the simulation-facing game logic: player
// movement and ball-throw, the ball body, and the falling-wall/door
// lifecycle. Rendering, input capture, and networking are out of scope;
// these functions only read/write ecs pools and the physics package.
package rules

import (
	"github.com/SAE-Geneve/roolback-St0wy/ecs"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
)

// Gameplay tuning constants.
const (
	PlayerSpeed             float32 = 400
	BallSpeed               float32 = 2
	BallScale               float32 = 0.3
	DestroyWallScoreIncrement       = 100
)

// PlayerComponent tracks per-player throw state: whether the player is
// currently holding a ball, and the last normalized aim direction (used
// both for throw velocity and character-facing).
type PlayerComponent struct {
	HasBall bool
	AimDir  physics.Vec2f
	Number  int
}

// BallComponent marks an entity as a thrown ball. Owner records who
// threw it; wall-destruction scores are credited to the player crossing
// the door, not read from Owner.
type BallComponent struct {
	Owner int
}

// FallingWallComponent marks the paired {backgroundWall, door} spawned
// together: both share a downward velocity, and the door's
// RequiresBall flag governs whether OnTrigger against a player destroys
// the wall (ball required) or refuses passage (ball forbidden).
type FallingWallComponent struct {
	RequiresBall bool
	IsDoor       bool
	// PairedWall is the other half of the {backgroundWall, door} spawn
	// pair: set on both entities so destroying one side can locate the
	// other. ecs.InvalidEntity on an entity that hasn't been paired yet.
	PairedWall ecs.Entity
}
