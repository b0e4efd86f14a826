// Package net defines the boundary types carrying inputs and lifecycle
// messages between peers. It intentionally stops at plain, named Go
// structs: packet encoding on the wire and the socket transport itself
// are a host concern, represented here only as the Transport interface
// a host application implements.
package net

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAE-Geneve/roolback-St0wy/input"
)

// PlayerNumber identifies one of the two participants. MaxPlayerNmb (2)
// is the only supported cardinality.
type PlayerNumber uint8

const (
	Player1 PlayerNumber = 0
	Player2 PlayerNumber = 1
)

// MaxInputNmb is the number of trailing frames an unreliable input
// packet carries, so a dropped packet or two is recoverable from the
// next one without a retransmit.
const MaxInputNmb = 50

// MatchID identifies one rollback session between two peers.
type MatchID = uuid.UUID

// NewMatchID allocates a fresh match identifier.
func NewMatchID() MatchID { return uuid.New() }

// PlayerInputPacket carries the most recent MaxInputNmb frames of one
// player's input, unreliable: a dropped packet is recoverable from the
// next one's overlapping window.
type PlayerInputPacket struct {
	PlayerNumber PlayerNumber
	CurrentFrame int64
	Inputs       [MaxInputNmb]input.PlayerInput
}

// SpawnPlayerPacket tells a peer to create the named player's character
// at a starting pose. Reliable.
type SpawnPlayerPacket struct {
	PlayerNumber PlayerNumber
	Position     Vec2
	RotationDeg  float32
}

// Vec2 is the wire-format 2D vector (plain floats, no physics.Vec2f
// dependency — net stays a leaf package with no physics import).
type Vec2 struct {
	X, Y float32
}

// StartGamePacket announces the match clock origin. The core gates
// gameplay systems until StartingTime + StartDelay has elapsed.
type StartGamePacket struct {
	StartingTime time.Time
}

// ValidateFramePacket is the authority's periodic confirmation,
// carrying one PhysicsState digest per player. DigestWord is
// a plain uint32 rather than importing rollback.PhysicsState, keeping
// net acyclic; callers convert at the boundary.
type ValidateFramePacket struct {
	Frame         int64
	PhysicsStates [MaxPlayerNmb]DigestWord
}

// MaxPlayerNmb mirrors rollback.MaxPlayerNmb; duplicated here (rather
// than imported) so net has zero dependency on the simulation packages,
// matching its role as the pure boundary type set.
const MaxPlayerNmb = 2

// DigestWord is the wire representation of a rollback.PhysicsState.
type DigestWord uint32

// WinGamePacket announces the match winner.
type WinGamePacket struct {
	Winner PlayerNumber
}

// Transport is the seam between the simulation core and whatever socket
// layer a host application wires in. The core never blocks on it:
// inbound packets are enqueued by the host and drained once per tick;
// outbound sends are fire-and-forget from the core's perspective.
type Transport interface {
	SendPlayerInput(PlayerInputPacket) error
	SendSpawnPlayer(SpawnPlayerPacket) error
	SendStartGame(StartGamePacket) error
	SendValidateFrame(ValidateFramePacket) error
	SendWinGame(WinGamePacket) error
}
