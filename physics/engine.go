package physics

// Body is everything the engine needs to know about one physics body for
// a single FixedUpdate call: its handle (for pairing/callbacks), its
// rigidbody state, and optionally a collider. Bodies without a collider
// still integrate but never participate in broad/narrow phase.
type Body struct {
	Handle      EntityHandle
	Rigidbody   *Rigidbody
	Collider    Collider
	HasCollider bool
}

// Engine runs the fixed-step simulation: gravity, collision resolution,
// integration, in that mandatory order. It owns the
// broad-phase grid and the layer matrix; listeners are registered once
// and fire for every FixedUpdate, including replayed ones.
type Engine struct {
	grid      *Grid
	layers    *LayerMatrix
	solverCfg SolverConfig
	listeners []Listener
}

// NewEngine creates an engine with the given broad-phase grid and layer
// matrix. Both must be configured by the caller before first use.
func NewEngine(grid *Grid, layers *LayerMatrix) *Engine {
	return &Engine{grid: grid, layers: layers, solverCfg: DefaultSolverConfig()}
}

// SetSolverConfig overrides the position-solver percent/slop tuning.
func (e *Engine) SetSolverConfig(cfg SolverConfig) { e.solverCfg = cfg }

// AddListener registers a collision/trigger listener.
func (e *Engine) AddListener(l Listener) { e.listeners = append(e.listeners, l) }

// FixedUpdate performs one tick of dt seconds over bodies, in place, and
// returns every collision detected this step (triggers and hard
// collisions alike) for callers that want to inspect them directly, in
// addition to the registered listener callbacks that fire as a side
// effect of this call.
func (e *Engine) FixedUpdate(dt float32, bodies []Body) []Collision {
	e.applyGravity(bodies)
	collisions := e.resolveCollisions(bodies)
	e.integrate(dt, bodies)
	return collisions
}

func (e *Engine) applyGravity(bodies []Body) {
	for _, b := range bodies {
		rb := b.Rigidbody
		if rb.BodyType != Dynamic || rb.InvMass == 0 {
			continue
		}
		rb.Force = rb.Force.Add(rb.GravityAccel().Scale(rb.Mass()))
	}
}

// resolveCollisions runs broad phase, layer filtering, and narrow phase
// to build the full set of collisions for this step, partitions them
// into triggers vs. hard collisions, solves all hard collisions (impulse
// then smooth-position, batched: solvers run once after the full pair
// loop, not once per accumulated prefix), then dispatches callbacks once
// per collision.
func (e *Engine) resolveCollisions(bodies []Body) []Collision {
	byHandle := make(map[EntityHandle]*Body, len(bodies))
	var refs []bodyRef
	for i := range bodies {
		b := &bodies[i]
		byHandle[b.Handle] = b
		if !b.HasCollider {
			continue
		}
		minX, minY, maxX, maxY := colliderAABB(b.Rigidbody.Transform, b.Collider)
		refs = append(refs, bodyRef{Handle: b.Handle, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY})
	}

	e.grid.Update(refs)
	pairs := e.grid.GetCollisionPairs()

	var triggers, hard []Collision
	for _, pair := range pairs {
		a, b := byHandle[pair[0]], byHandle[pair[1]]
		if a == nil || b == nil {
			continue
		}
		if !e.layers.HasCollision(a.Rigidbody.Layer, b.Rigidbody.Layer) {
			continue
		}

		m := TestCollision(a.Rigidbody.Transform, a.Collider, b.Rigidbody.Transform, b.Collider)
		if !m.HasCollision {
			continue
		}

		col := Collision{EntityA: a.Handle, EntityB: b.Handle, Manifold: m}
		if a.Rigidbody.IsTrigger || b.Rigidbody.IsTrigger {
			triggers = append(triggers, col)
		} else {
			hard = append(hard, col)
		}
	}

	for _, col := range hard {
		a, b := byHandle[col.EntityA], byHandle[col.EntityB]
		if a.Rigidbody.BodyType == Dynamic && b.Rigidbody.BodyType == Dynamic {
			ra := resolvedBody{
				Velocity: &a.Rigidbody.Velocity, Position: &a.Rigidbody.Transform.Position,
				InvMass: a.Rigidbody.InvMass, Restitution: a.Rigidbody.Restitution,
				StaticFriction: a.Rigidbody.StaticFriction, DynamicFriction: a.Rigidbody.DynamicFriction,
			}
			rb := resolvedBody{
				Velocity: &b.Rigidbody.Velocity, Position: &b.Rigidbody.Transform.Position,
				InvMass: b.Rigidbody.InvMass, Restitution: b.Rigidbody.Restitution,
				StaticFriction: b.Rigidbody.StaticFriction, DynamicFriction: b.Rigidbody.DynamicFriction,
			}
			solveImpulse(ra, rb, col.Manifold)
		}
	}
	for _, col := range hard {
		a, b := byHandle[col.EntityA], byHandle[col.EntityB]
		ra := resolvedBody{Position: &a.Rigidbody.Transform.Position, InvMass: a.Rigidbody.InvMass}
		rb := resolvedBody{Position: &b.Rigidbody.Transform.Position, InvMass: b.Rigidbody.InvMass}
		solvePosition(ra, rb, col.Manifold, e.solverCfg)
	}

	for _, l := range e.listeners {
		for _, col := range triggers {
			l.OnTrigger(col.EntityA, col.EntityB)
		}
		for _, col := range hard {
			l.OnCollision(col.EntityA, col.EntityB)
		}
	}

	all := make([]Collision, 0, len(triggers)+len(hard))
	all = append(all, triggers...)
	all = append(all, hard...)
	return all
}

func (e *Engine) integrate(dt float32, bodies []Body) {
	for _, b := range bodies {
		rb := b.Rigidbody
		if rb.BodyType == Static {
			rb.Force = Vec2f{}
			continue
		}
		rb.Velocity = rb.Velocity.Scale(rb.DragFactor).Add(rb.Force.Scale(rb.InvMass * dt))
		rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Scale(dt))
		rb.Force = Vec2f{}
	}
}

func colliderAABB(t Transform, c Collider) (minX, minY, maxX, maxY float32) {
	center := c.worldCenter(t)
	hw, hh := c.aabbBounds(t)
	return center.X - hw, center.Y - hh, center.X + hw, center.Y + hh
}
