package ecs

import "github.com/rotisserie/eris"

// ErrComponentNotPresent is returned when a component pool is asked for
// an entity that does not carry the pool's presence bit.
var ErrComponentNotPresent = eris.New("ecs: component not present on entity")

// Pool is a dense array of T indexed directly by Entity, growing
// whenever the owning Registry grows. Presence is governed entirely by
// the entity's bitmask in the Registry, not by any sentinel value in the
// pool itself: pool[e] is only meaningful when Registry.HasComponent(e,
// mask) is true.
type Pool[T any] struct {
	mask    Mask
	data    []T
	makeNew func() T
}

// NewPool creates a component pool for the given presence mask and
// registers it with the registry so the pool's backing array grows in
// lockstep with entity capacity. makeNew, if non-nil, is used to
// default-construct a freshly-added component (e.g. ScaleManager
// overrides this to return (1,1) scale instead of the zero value).
func NewPool[T any](r *Registry, mask Mask, makeNew func() T) *Pool[T] {
	p := &Pool[T]{mask: mask, makeNew: makeNew}
	r.RegisterPool(p.grow)
	return p
}

func (p *Pool[T]) grow(newCapacity int) {
	if newCapacity <= len(p.data) {
		return
	}
	grown := make([]T, newCapacity)
	copy(grown, p.data)
	p.data = grown
}

// AddComponent default-constructs a value for e. Precondition: e is
// within the pool's current capacity (the registry must have allocated
// the entity first).
func (p *Pool[T]) AddComponent(e Entity) T {
	var v T
	if p.makeNew != nil {
		v = p.makeNew()
	}
	p.ensure(int(e) + 1)
	p.data[e] = v
	return v
}

// RemoveComponent resets e's slot to the zero value. Callers are
// responsible for clearing the presence bit on the Registry; this only
// clears the backing storage so a later AddComponent doesn't observe
// stale data.
func (p *Pool[T]) RemoveComponent(e Entity) {
	if int(e) < len(p.data) {
		var zero T
		p.data[e] = zero
	}
}

// GetComponent returns a pointer into the dense array for in-place
// mutation. No pointer stability is promised across AddComponent calls
// that trigger a grow.
func (p *Pool[T]) GetComponent(e Entity) *T {
	p.ensure(int(e) + 1)
	return &p.data[e]
}

// SetComponent overwrites e's slot with value.
func (p *Pool[T]) SetComponent(e Entity, value T) {
	p.ensure(int(e) + 1)
	p.data[e] = value
}

// GetAllComponents returns the pool's full backing slice.
func (p *Pool[T]) GetAllComponents() []T {
	return p.data
}

// CopyAllComponents bulk-copies src over the pool's backing array,
// growing it first if src is longer. This is the primitive the rollback
// manager uses to restore a pool to its lastValidate state: copy(current
// <- lastValidate). src is commonly shorter than the live backing array
// — any entity created after src was snapshotted has already grown
// every registered pool (Registry.CreateEntity fires every grow callback
// immediately) whether or not it survives the rewind — so only the
// overlapping prefix is overwritten; slots past len(src) are left as the
// live replay currently has them, which is safe because an entity's
// liveness is governed entirely by the registry mask and the
// created-entity log, never by pool content.
func (p *Pool[T]) CopyAllComponents(src []T) error {
	if len(src) > len(p.data) {
		p.ensure(len(src))
	}
	copy(p.data, src)
	return nil
}

// Snapshot returns a fresh copy of the pool's backing array, suitable to
// stash as a lastValidate state.
func (p *Pool[T]) Snapshot() []T {
	out := make([]T, len(p.data))
	copy(out, p.data)
	return out
}

func (p *Pool[T]) ensure(n int) {
	if n <= len(p.data) {
		return
	}
	grown := make([]T, n)
	copy(grown, p.data)
	p.data = grown
}
