package physics

import "math"

// SolverConfig tunes the position-correction solver. Percent-slop scheme:
// depth beyond Slop is corrected by Percent of the remaining penetration
// per step, so small penetrations are tolerated without jitter.
type SolverConfig struct {
	Percent float32 // k in (0,1)
	Slop    float32 // s >= 0
}

// DefaultSolverConfig matches commonly used impulse-resolution defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{Percent: 0.8, Slop: 0.01}
}

// resolvedBody is the subset of Rigidbody state the solvers read/write,
// addressed by pointer so the engine can apply corrections in place.
type resolvedBody struct {
	Velocity *Vec2f
	Position *Vec2f
	InvMass  float32
	Restitution,
	StaticFriction,
	DynamicFriction float32
}

// solveImpulse applies the impulse-resolution step for a single
// collision between two dynamic bodies. If the bodies are already
// separating along the normal, it is a no-op.
func solveImpulse(a, b resolvedBody, m Manifold) {
	if a.InvMass+b.InvMass == 0 {
		return
	}

	relVel := b.Velocity.Sub(*a.Velocity)
	velAlongNormal := relVel.Dot(m.Normal)
	if velAlongNormal >= 0 {
		return // separating already
	}

	e := minF(a.Restitution, b.Restitution)

	j := -(1 + e) * velAlongNormal / (a.InvMass + b.InvMass)
	impulse := m.Normal.Scale(j)

	*a.Velocity = a.Velocity.Sub(impulse.Scale(a.InvMass))
	*b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))

	// Coulomb friction along the contact tangent.
	relVel = b.Velocity.Sub(*a.Velocity)
	tangent := relVel.Sub(m.Normal.Scale(relVel.Dot(m.Normal))).Normalized()
	if tangent.LengthSq() == 0 {
		return
	}

	jt := -relVel.Dot(tangent) / (a.InvMass + b.InvMass)
	mu := combineFriction(a.StaticFriction, b.StaticFriction)

	var frictionImpulse Vec2f
	if absF(jt) < j*mu {
		frictionImpulse = tangent.Scale(jt)
	} else {
		dynMu := combineFriction(a.DynamicFriction, b.DynamicFriction)
		frictionImpulse = tangent.Scale(-j * dynMu)
	}

	*a.Velocity = a.Velocity.Sub(frictionImpulse.Scale(a.InvMass))
	*b.Velocity = b.Velocity.Add(frictionImpulse.Scale(b.InvMass))
}

// solvePosition corrects interpenetration without adding energy, per
// SolverConfig's percent-slop scheme.
func solvePosition(a, b resolvedBody, m Manifold, cfg SolverConfig) {
	if a.InvMass+b.InvMass == 0 {
		return
	}
	penetration := m.Depth - cfg.Slop
	if penetration <= 0 {
		return
	}
	correction := m.Normal.Scale(penetration * cfg.Percent / (a.InvMass + b.InvMass))
	*a.Position = a.Position.Sub(correction.Scale(a.InvMass))
	*b.Position = b.Position.Add(correction.Scale(b.InvMass))
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// combineFriction mixes two bodies' coefficients geometrically, the
// common combine rule when each body's friction is defined independently.
func combineFriction(a, b float32) float32 {
	return float32(math.Sqrt(float64(a * b)))
}
