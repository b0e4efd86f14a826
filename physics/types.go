package physics

// Transform is the position/scale/rotation of an entity in physics
// (meter) space.
type Transform struct {
	Position Vec2f
	Scale    Vec2f
	Rotation float32 // radians
}

// BodyType is the simulation role of a Rigidbody.
type BodyType uint8

const (
	Static BodyType = iota
	Kinematic
	Dynamic
)

// Layer is a collision category. The zero value, LayerNone, never
// collides with anything (it is excluded from every broad-phase pair by
// convention of the layer matrix's default).
type Layer uint8

const (
	LayerNone Layer = iota
	LayerPlayer
	LayerBall
	LayerWall
	LayerMiddleWall
	LayerDoor

	layerCount = LayerDoor + 1
)

// Rigidbody is the dynamic physical state of an entity. Invariants:
// InvMass == 0 for Static bodies; Force is reset to zero at the end of
// every FixedUpdate; GravityAccel is only assignable via SetGravityAccel
// when TakesGravity is true.
type Rigidbody struct {
	Transform Transform

	Velocity     Vec2f
	gravityAccel Vec2f
	Force        Vec2f

	InvMass float32

	takesGravity bool

	StaticFriction  float32
	DynamicFriction float32
	Restitution     float32
	DragFactor      float32

	IsTrigger bool
	BodyType  BodyType
	Layer     Layer

	AngularVelocity float32
}

// TakesGravity reports whether this body is eligible to receive gravity.
func (b *Rigidbody) TakesGravity() bool { return b.takesGravity }

// SetTakesGravity toggles gravity eligibility for this body.
func (b *Rigidbody) SetTakesGravity(v bool) { b.takesGravity = v }

// GravityAccel returns the body's gravity acceleration vector.
func (b *Rigidbody) GravityAccel() Vec2f { return b.gravityAccel }

// SetGravityAccel assigns the gravity acceleration vector. It silently
// no-ops when TakesGravity is false; callers must enable TakesGravity
// first.
func (b *Rigidbody) SetGravityAccel(v Vec2f) {
	if !b.takesGravity {
		return
	}
	b.gravityAccel = v
}

// ApplyForce accumulates a force to be applied at the next FixedUpdate.
func (b *Rigidbody) ApplyForce(f Vec2f) {
	b.Force = b.Force.Add(f)
}

// Mass returns 1/InvMass, or 0 for an infinite-mass (static, or
// explicitly massless) body.
func (b *Rigidbody) Mass() float32 {
	if b.InvMass == 0 {
		return 0
	}
	return 1 / b.InvMass
}

// ColliderKind tags which variant of Collider is populated.
type ColliderKind uint8

const (
	ColliderAabb ColliderKind = iota
	ColliderCircle
)

// Collider is a tagged union over the two supported collider shapes.
// Invariant: HalfW, HalfH, Radius >= 0.
type Collider struct {
	Kind ColliderKind

	// Aabb fields.
	HalfW, HalfH float32
	AabbCenter   Vec2f

	// Circle fields.
	Radius       float32
	CircleCenter Vec2f
}

// NewAabb builds an axis-aligned box collider centered on center.
func NewAabb(halfW, halfH float32, center Vec2f) Collider {
	return Collider{Kind: ColliderAabb, HalfW: halfW, HalfH: halfH, AabbCenter: center}
}

// NewCircle builds a circle collider centered on center.
func NewCircle(radius float32, center Vec2f) Collider {
	return Collider{Kind: ColliderCircle, Radius: radius, CircleCenter: center}
}

// worldCenter returns the collider's center in world space given the
// owning body's transform.
func (c Collider) worldCenter(t Transform) Vec2f {
	switch c.Kind {
	case ColliderAabb:
		return t.Position.Add(c.AabbCenter)
	default:
		return t.Position.Add(c.CircleCenter)
	}
}

// aabbBounds returns the world-space half extents of the collider's AABB
// (exact for ColliderAabb, bounding box for ColliderCircle) — used by the
// broad phase, which only ever needs an AABB approximation.
func (c Collider) aabbBounds(t Transform) (halfW, halfH float32) {
	switch c.Kind {
	case ColliderAabb:
		return c.HalfW * t.Scale.X, c.HalfH * t.Scale.Y
	default:
		r := c.Radius * maxF(t.Scale.X, t.Scale.Y)
		return r, r
	}
}

// FindFurthestPoint returns the support point of the collider along
// direction, in world space. Nothing in the current narrow phase needs
// it, but a GJK-based one (or a debug overlay) would consume it
// directly.
func (c Collider) FindFurthestPoint(t Transform, direction Vec2f) Vec2f {
	center := c.worldCenter(t)
	switch c.Kind {
	case ColliderCircle:
		d := direction.Normalized()
		return center.Add(d.Scale(c.Radius * maxF(t.Scale.X, t.Scale.Y)))
	default:
		hw, hh := c.aabbBounds(t)
		x := hw
		if direction.X < 0 {
			x = -hw
		}
		y := hh
		if direction.Y < 0 {
			y = -hh
		}
		return center.Add(Vec2f{X: x, Y: y})
	}
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Manifold is the geometric result of a narrow-phase collision test.
// Normal points from the first body to the second; Depth >= 0 when
// HasCollision.
type Manifold struct {
	HasCollision bool
	A, B         Vec2f
	Normal       Vec2f
	Depth        float32
}

// Collision pairs two entities (by opaque handle) with their manifold.
// Ordering of A/B preserves the generator's pairing.
type Collision struct {
	EntityA, EntityB EntityHandle
	Manifold         Manifold
}

// EntityHandle is the caller's opaque identifier for a physics body.
// The physics package never assumes this is an ecs.Entity so that it can
// be unit-tested without an ECS registry; sim/rollback pass ecs.Entity
// values converted to EntityHandle.
type EntityHandle uint32

// LayerMatrix is a symmetric boolean table gating broad-phase pair
// acceptance by layer. The matrix is mutated only at setup.
type LayerMatrix struct {
	allowed [layerCount][layerCount]bool
}

// NewLayerMatrix returns a matrix where every pair is disallowed by
// default (matching Layer's zero value never colliding).
func NewLayerMatrix() *LayerMatrix {
	return &LayerMatrix{}
}

// Allow marks l1/l2 (and l2/l1) as colliding.
func (m *LayerMatrix) Allow(l1, l2 Layer) {
	m.allowed[l1][l2] = true
	m.allowed[l2][l1] = true
}

// HasCollision reports whether l1 and l2 are configured to collide.
// Symmetric by construction: HasCollision(a,b) == HasCollision(b,a).
func (m *LayerMatrix) HasCollision(l1, l2 Layer) bool {
	return m.allowed[l1][l2]
}
