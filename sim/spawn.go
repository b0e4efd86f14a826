package sim

import (
	"github.com/rs/zerolog/log"

	"github.com/SAE-Geneve/roolback-St0wy/ecs"
	"github.com/SAE-Geneve/roolback-St0wy/level"
	netpkt "github.com/SAE-Geneve/roolback-St0wy/net"
	"github.com/SAE-Geneve/roolback-St0wy/physics"
	"github.com/SAE-Geneve/roolback-St0wy/rollback"
	"github.com/SAE-Geneve/roolback-St0wy/rules"
)

// spawnStaticWalls creates one static body per level.WallSpec. Called only
// from New, before the rollback manager's first frame, so every wall
// lands directly in validated state with no created-entity log entry
// needed.
func (m *Manager) spawnStaticWalls(layout *level.Layout) {
	if layout == nil {
		return
	}
	for _, w := range layout.Walls {
		e := m.registry.CreateEntity()
		_ = m.registry.AddComponent(e, ecs.Position|ecs.Scale|ecs.Rotation|ecs.Rigidbody|ecs.AabbCollider)
		m.transforms.SetComponent(e, physics.Transform{
			Position: physics.Vec2f{X: w.X, Y: w.Y},
			Scale:    physics.Vec2f{X: 1, Y: 1},
		})
		m.rigidbodies.SetComponent(e, physics.Rigidbody{
			Transform: physics.Transform{Position: physics.Vec2f{X: w.X, Y: w.Y}, Scale: physics.Vec2f{X: 1, Y: 1}},
			BodyType:  physics.Static,
			Layer:     layerFromName(w.Layer),
		})
		m.colliders.SetComponent(e, physics.NewAabb(w.HalfW, w.HalfH, physics.Vec2f{}))
	}
}

func layerFromName(name string) physics.Layer {
	switch name {
	case "wall":
		return physics.LayerWall
	case "middle_wall":
		return physics.LayerMiddleWall
	case "door":
		return physics.LayerDoor
	case "player":
		return physics.LayerPlayer
	case "ball":
		return physics.LayerBall
	default:
		return physics.LayerNone
	}
}

// SpawnPlayer creates (or respawns) the named player's character at the
// given pose, mirroring the net.SpawnPlayerPacket contract. Spawning is
// the only place player entities are created. A packet naming a player
// number outside [0, MaxPlayerNmb) is logged and dropped, returning
// ecs.InvalidEntity.
func (m *Manager) SpawnPlayer(pkt netpkt.SpawnPlayerPacket) ecs.Entity {
	player := int(pkt.PlayerNumber)
	if player < 0 || player >= len(m.playerEntities) {
		log.Warn().Int("player", player).Msg("sim: spawn for unknown player, dropping")
		return ecs.InvalidEntity
	}

	e := m.registry.CreateEntity()
	_ = m.registry.AddComponent(e, ecs.Position|ecs.Scale|ecs.Rotation|ecs.Rigidbody|ecs.AabbCollider|rollback.PlayerCharacter)
	rad := pkt.RotationDeg * (3.14159265 / 180)

	transform := physics.Transform{
		Position: physics.Vec2f{X: pkt.Position.X, Y: pkt.Position.Y},
		Scale:    physics.Vec2f{X: 1, Y: 1},
		Rotation: rad,
	}
	m.transforms.SetComponent(e, transform)
	m.rigidbodies.SetComponent(e, physics.Rigidbody{
		Transform:  transform,
		InvMass:    1,
		DragFactor: 0.9,
		BodyType:   physics.Dynamic,
		Layer:      physics.LayerPlayer,
	})
	m.colliders.SetComponent(e, physics.NewAabb(0.5, 0.5, physics.Vec2f{}))
	m.players.SetComponent(e, rules.PlayerComponent{Number: player})

	m.playerEntities[player] = e
	m.registerCreated(e)
	return e
}

// SpawnBall implements rules.BallSpawner: it is the only way a thrown
// ball entity comes into existence.
func (m *Manager) SpawnBall(owner int, position, velocity physics.Vec2f) {
	e := m.registry.CreateEntity()
	_ = m.registry.AddComponent(e, ecs.Position|ecs.Scale|ecs.Rotation|ecs.Rigidbody|ecs.CircleCollider|rollback.Ball)

	scale := rules.BallScale
	transform := physics.Transform{Position: position, Scale: physics.Vec2f{X: scale, Y: scale}}
	m.transforms.SetComponent(e, transform)
	m.rigidbodies.SetComponent(e, physics.Rigidbody{
		Transform:   transform,
		Velocity:    velocity,
		InvMass:     1,
		DragFactor:  1,
		Restitution: 0.9,
		BodyType:    physics.Dynamic,
		Layer:       physics.LayerBall,
	})
	m.colliders.SetComponent(e, physics.NewCircle(0.5, physics.Vec2f{}))
	m.balls.SetComponent(e, rules.BallComponent{Owner: owner})

	m.registerCreated(e)
}

// SpawnFallingWall creates the paired {backgroundWall, door} entities:
// both share a downward velocity; the door is a trigger gating passage
// per its RequiresBall flag.
func (m *Manager) SpawnFallingWall(spec level.FallingWallSpec) (wallEntity, doorEntity ecs.Entity) {
	velocity := physics.Vec2f{Y: -spec.FallSpeed}

	wallEntity = m.registry.CreateEntity()
	_ = m.registry.AddComponent(wallEntity, ecs.Position|ecs.Scale|ecs.Rotation|ecs.Rigidbody|ecs.AabbCollider|rollback.FallingWall)
	wallTransform := physics.Transform{Position: physics.Vec2f{X: spec.X, Y: spec.Y}, Scale: physics.Vec2f{X: 1, Y: 1}}
	m.transforms.SetComponent(wallEntity, wallTransform)
	m.rigidbodies.SetComponent(wallEntity, physics.Rigidbody{
		Transform: wallTransform,
		Velocity:  velocity,
		BodyType:  physics.Kinematic,
		Layer:     physics.LayerWall,
	})
	m.colliders.SetComponent(wallEntity, physics.NewAabb(spec.HalfW, spec.HalfH, physics.Vec2f{}))

	doorEntity = m.registry.CreateEntity()
	_ = m.registry.AddComponent(doorEntity, ecs.Position|ecs.Scale|ecs.Rotation|ecs.Rigidbody|ecs.AabbCollider|rollback.FallingWall)
	doorTransform := physics.Transform{Position: physics.Vec2f{X: spec.X, Y: spec.Y}, Scale: physics.Vec2f{X: 1, Y: 1}}
	m.transforms.SetComponent(doorEntity, doorTransform)
	m.rigidbodies.SetComponent(doorEntity, physics.Rigidbody{
		Transform: doorTransform,
		Velocity:  velocity,
		BodyType:  physics.Kinematic,
		Layer:     physics.LayerDoor,
		IsTrigger: true,
	})
	m.colliders.SetComponent(doorEntity, physics.NewAabb(spec.HalfW, spec.HalfH, physics.Vec2f{}))

	m.fallingWalls.SetComponent(wallEntity, rules.FallingWallComponent{PairedWall: doorEntity})
	m.fallingWalls.SetComponent(doorEntity, rules.FallingWallComponent{
		RequiresBall: spec.RequiresBall,
		IsDoor:       true,
		PairedWall:   wallEntity,
	})

	m.registerCreated(wallEntity)
	m.registerCreated(doorEntity)
	return wallEntity, doorEntity
}

// registerCreated logs a mid-window spawn in the created-entity log so
// a later rewind past this frame can undo it; a spawn issued on an
// already-validated frame is not logged but committed into the
// lastValidate state instead (see rollback.Manager.RegisterCreatedEntity),
// so rewinds restore it.
func (m *Manager) registerCreated(e ecs.Entity) {
	m.rb.RegisterCreatedEntity(e, m.rb.ActiveFrame())
}
