package physics

// TestCollision double-dispatches on the collider variant pair and
// returns the resulting Manifold. The body transforms are passed
// separately from the colliders because colliders store only a local
// offset/size; the transform places them in world space.
func TestCollision(ta Transform, ca Collider, tb Transform, cb Collider) Manifold {
	switch {
	case ca.Kind == ColliderCircle && cb.Kind == ColliderCircle:
		return circleCircle(ta, ca, tb, cb)
	case ca.Kind == ColliderAabb && cb.Kind == ColliderAabb:
		return aabbAabb(ta, ca, tb, cb)
	case ca.Kind == ColliderAabb && cb.Kind == ColliderCircle:
		return aabbCircle(ta, ca, tb, cb)
	default: // ca is Circle, cb is Aabb
		m := aabbCircle(tb, cb, ta, ca)
		if m.HasCollision {
			m.Normal = m.Normal.Neg()
			m.A, m.B = m.B, m.A
		}
		return m
	}
}

func circleCircle(ta Transform, ca Collider, tb Transform, cb Collider) Manifold {
	ra := ca.Radius * maxF(ta.Scale.X, ta.Scale.Y)
	rb := cb.Radius * maxF(tb.Scale.X, tb.Scale.Y)

	centerA := ca.worldCenter(ta)
	centerB := cb.worldCenter(tb)

	delta := centerB.Sub(centerA)
	dist := delta.Length()
	if dist == 0 {
		// Degenerate: coincident centers, no well-defined normal.
		return Manifold{}
	}
	if dist >= ra+rb {
		return Manifold{}
	}

	normal := delta.Scale(1 / dist)
	return Manifold{
		HasCollision: true,
		Normal:       normal,
		Depth:        ra + rb - dist,
		A:            centerA.Add(normal.Scale(ra)),
		B:            centerB.Sub(normal.Scale(rb)),
	}
}

func aabbAabb(ta Transform, ca Collider, tb Transform, cb Collider) Manifold {
	halfWA, halfHA := ca.aabbBounds(ta)
	halfWB, halfHB := cb.aabbBounds(tb)
	centerA := ca.worldCenter(ta)
	centerB := cb.worldCenter(tb)

	delta := centerB.Sub(centerA)

	overlapX := (halfWA + halfWB) - absF(delta.X)
	overlapY := (halfHA + halfHB) - absF(delta.Y)
	if overlapX <= 0 || overlapY <= 0 {
		return Manifold{}
	}

	var normal Vec2f
	var depth float32
	if overlapX < overlapY {
		depth = overlapX
		if delta.X < 0 {
			normal = Vec2f{X: -1}
		} else {
			normal = Vec2f{X: 1}
		}
	} else {
		depth = overlapY
		if delta.Y < 0 {
			normal = Vec2f{Y: -1}
		} else {
			normal = Vec2f{Y: 1}
		}
	}

	return Manifold{
		HasCollision: true,
		Normal:       normal,
		Depth:        depth,
		A:            centerA,
		B:            centerB,
	}
}

// aabbCircle tests Aabb ca (first body) against Circle cb (second body).
// normal points from the clamped point (on the box) toward the circle
// center, i.e. from the first body to the second, per convention.
func aabbCircle(ta Transform, ca Collider, tb Transform, cb Collider) Manifold {
	halfW, halfH := ca.aabbBounds(ta)
	boxCenter := ca.worldCenter(ta)
	circleCenter := cb.worldCenter(tb)
	radius := cb.Radius * maxF(tb.Scale.X, tb.Scale.Y)

	local := circleCenter.Sub(boxCenter)
	clamped := Vec2f{
		X: clampF(local.X, -halfW, halfW),
		Y: clampF(local.Y, -halfH, halfH),
	}
	clampedWorld := boxCenter.Add(clamped)

	delta := circleCenter.Sub(clampedWorld)
	dist := delta.Length()
	if dist >= radius {
		return Manifold{}
	}

	var normal Vec2f
	if dist == 0 {
		// Circle center is inside the box; push out along the box's
		// shallowest axis instead of leaving the normal undefined.
		dx := halfW - absF(local.X)
		dy := halfH - absF(local.Y)
		if dx < dy {
			if local.X < 0 {
				normal = Vec2f{X: -1}
			} else {
				normal = Vec2f{X: 1}
			}
		} else {
			if local.Y < 0 {
				normal = Vec2f{Y: -1}
			} else {
				normal = Vec2f{Y: 1}
			}
		}
	} else {
		normal = delta.Scale(1 / dist)
	}

	return Manifold{
		HasCollision: true,
		Normal:       normal,
		Depth:        radius - dist,
		A:            clampedWorld,
		B:            circleCenter,
	}
}

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
