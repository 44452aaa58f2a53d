package state

// Registry is the sole owner of live entities. Entities appended during a tick
// are visible to index-based iteration in the same tick; removed entities stay
// in place until Sweep runs after all updates.
type Registry struct {
	entities []Entity
	index    map[EntityID]Entity
	nextID   EntityID
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[EntityID]Entity)}
}

// AllocateID returns a fresh, never reused handle.
func (r *Registry) AllocateID() EntityID {
	r.nextID++
	return r.nextID
}

// Add appends an entity. Entities with a zero or duplicate id are ignored.
func (r *Registry) Add(e Entity) bool {
	if e == nil || e.ID() == NoEntity {
		return false
	}
	if _, exists := r.index[e.ID()]; exists {
		return false
	}
	if e.ID() > r.nextID {
		r.nextID = e.ID()
	}
	r.entities = append(r.entities, e)
	r.index[e.ID()] = e
	return true
}

// Len returns the current number of stored entities including removed ones
// awaiting the sweep.
func (r *Registry) Len() int { return len(r.entities) }

// At returns the entity at position i.
func (r *Registry) At(i int) Entity {
	if i < 0 || i >= len(r.entities) {
		return nil
	}
	return r.entities[i]
}

// Each visits every stored entity, including those appended while iterating.
func (r *Registry) Each(fn func(Entity)) {
	for i := 0; i < len(r.entities); i++ {
		fn(r.entities[i])
	}
}

// Lookup returns the stored entity for id, even when it is flagged removed.
func (r *Registry) Lookup(id EntityID) (Entity, bool) {
	if id == NoEntity {
		return nil, false
	}
	e, ok := r.index[id]
	return e, ok
}

// Target resolves a handle to a live target. Removed, dead or unknown
// referents resolve to nothing; callers must drop the handle in that case.
func (r *Registry) Target(id EntityID) (Targetable, bool) {
	e, ok := r.Lookup(id)
	if !ok || e.Removed() {
		return nil, false
	}
	t, ok := e.(Targetable)
	if !ok || !t.Alive() {
		return nil, false
	}
	return t, true
}

// Validate nulls *id when it no longer resolves to a live target.
func (r *Registry) Validate(id *EntityID) (Targetable, bool) {
	if id == nil {
		return nil, false
	}
	t, ok := r.Target(*id)
	if !ok {
		*id = NoEntity
	}
	return t, ok
}

// Sweep compacts removed entities out of the collection and returns them.
func (r *Registry) Sweep() []Entity {
	var dropped []Entity
	kept := r.entities[:0]
	for _, e := range r.entities {
		if e.Removed() {
			dropped = append(dropped, e)
			delete(r.index, e.ID())
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(r.entities); i++ {
		r.entities[i] = nil
	}
	r.entities = kept
	return dropped
}

// Hero resolves a live hero handle.
func (r *Registry) Hero(id EntityID) (*Hero, bool) {
	t, ok := r.Target(id)
	if !ok {
		return nil, false
	}
	h, ok := t.(*Hero)
	return h, ok
}

// Monster resolves a live monster handle.
func (r *Registry) Monster(id EntityID) (*Monster, bool) {
	t, ok := r.Target(id)
	if !ok {
		return nil, false
	}
	m, ok := t.(*Monster)
	return m, ok
}

// Building resolves a live building handle.
func (r *Registry) Building(id EntityID) (*Building, bool) {
	t, ok := r.Target(id)
	if !ok {
		return nil, false
	}
	b, ok := t.(*Building)
	return b, ok
}

// Heroes returns the live heroes in insertion order.
func (r *Registry) Heroes() []*Hero {
	var out []*Hero
	for _, e := range r.entities {
		if h, ok := e.(*Hero); ok && h.Alive() {
			out = append(out, h)
		}
	}
	return out
}

// Monsters returns the live monsters in insertion order.
func (r *Registry) Monsters() []*Monster {
	var out []*Monster
	for _, e := range r.entities {
		if m, ok := e.(*Monster); ok && m.Alive() {
			out = append(out, m)
		}
	}
	return out
}

// Buildings returns the non-removed buildings in insertion order.
func (r *Registry) Buildings() []*Building {
	var out []*Building
	for _, e := range r.entities {
		if b, ok := e.(*Building); ok && b.Alive() {
			out = append(out, b)
		}
	}
	return out
}

// Castle returns the first live castle, if any.
func (r *Registry) Castle() (*Building, bool) {
	for _, e := range r.entities {
		if b, ok := e.(*Building); ok && b.Type == BuildingCastle && b.Alive() {
			return b, true
		}
	}
	return nil, false
}

// Bodies returns the live, visible mobile bodies in insertion order.
func (r *Registry) Bodies() []*Agent {
	var out []*Agent
	for _, e := range r.entities {
		if body, ok := Mobile(e); ok {
			out = append(out, body)
		}
	}
	return out
}

// CountKind reports the number of live entities of kind k.
func (r *Registry) CountKind(k Kind) int {
	n := 0
	for _, e := range r.entities {
		if e.Kind() != k || e.Removed() {
			continue
		}
		if t, ok := e.(Targetable); ok && !t.Alive() {
			continue
		}
		n++
	}
	return n
}
