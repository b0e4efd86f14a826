package rollback

import (
	"github.com/SAE-Geneve/roolback-St0wy/ecs"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
	"github.com/SAE-Geneve/roolback-St0wy/rules"
)

// Destroyed is the soft-deletion flag: set instead of freeing an entity
// immediately, so a rollback replay can revive it. It occupies the first
// game-specific mask bit.
const Destroyed ecs.Mask = ecs.FirstGameMask << 0

// PlayerCharacter, Ball and FallingWall are the game-specific component
// presence bits the rollback manager's pools are keyed by.
const (
	PlayerCharacter ecs.Mask = ecs.FirstGameMask << (iota + 1)
	Ball
	FallingWall
)

type createdEntity struct {
	entity       ecs.Entity
	createdFrame int64
}

// lastValidateSet bundles every dense array the rollback manager
// snapshots and restores. The current set lives in the registry's
// normal pools; the lastValidate set is a set of raw snapshots,
// bulk-copied on commit and on restore.
type lastValidateSet struct {
	rigidbodies []physics.Rigidbody
	players     []rules.PlayerComponent
	balls       []rules.BallComponent
}

// Pools bundles the live component pools the rollback manager snapshots
// and restores wholesale — the speculative "current" half of the two
// parallel state sets.
type Pools struct {
	Rigidbody *ecs.Pool[physics.Rigidbody]
	Player    *ecs.Pool[rules.PlayerComponent]
	Ball      *ecs.Pool[rules.BallComponent]
}
