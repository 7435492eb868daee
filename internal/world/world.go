// Package world provides the minimal runtime entity world the spawner
// instantiates prefabs into: generational entity ids, typed component
// storage, and a parent/child hierarchy.
//
// It is a correctness-oriented store, not an archetype ECS; the host
// engine's runtime is explicitly out of scope.
package world

import (
	"fmt"
	"reflect"
	"sort"
)

// Entity is a handle to an object in the World. It pairs a recyclable id
// with a generation counter so stale handles never alias a reused slot. The
// zero Entity is never alive.
type Entity struct {
	ID      uint32
	Version uint32
}

// World owns entities, their components, and the hierarchy between them.
// It is not safe for concurrent use; callers serialize access.
type World struct {
	versions   []uint32
	alive      []bool
	free       []uint32
	components map[reflect.Type]map[uint32]any
	parent     map[uint32]Entity
	children   map[uint32][]Entity
	count      int
}

// New returns an empty World.
func New() *World {
	return &World{
		components: make(map[reflect.Type]map[uint32]any),
		parent:     make(map[uint32]Entity),
		children:   make(map[uint32][]Entity),
	}
}

// Spawn creates a new live entity.
func (w *World) Spawn() Entity {
	var id uint32
	if n := len(w.free); n > 0 {
		id = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		id = uint32(len(w.versions))
		w.versions = append(w.versions, 0)
		w.alive = append(w.alive, false)
	}
	w.versions[id]++
	w.alive[id] = true
	w.count++
	return Entity{ID: id, Version: w.versions[id]}
}

// Alive reports whether the handle refers to a live entity.
func (w *World) Alive(e Entity) bool {
	return int(e.ID) < len(w.versions) && w.alive[e.ID] && w.versions[e.ID] == e.Version
}

// Count returns the number of live entities.
func (w *World) Count() int {
	return w.count
}

// Despawn removes the entity, its components, and recursively all of its
// children. Despawning a dead handle is a no-op.
func (w *World) Despawn(e Entity) {
	if !w.Alive(e) {
		return
	}

	// Children are despawned first; iterate over a copy because despawning
	// mutates the child list.
	kids := append([]Entity(nil), w.children[e.ID]...)
	for _, kid := range kids {
		w.Despawn(kid)
	}

	if p, ok := w.parent[e.ID]; ok {
		w.detachChild(p, e)
		delete(w.parent, e.ID)
	}
	delete(w.children, e.ID)
	for _, store := range w.components {
		delete(store, e.ID)
	}

	w.alive[e.ID] = false
	w.versions[e.ID]++ // invalidate outstanding handles
	w.free = append(w.free, e.ID)
	w.count--
}

// SetComponent attaches a component value to the entity, replacing any
// existing component of the same type. The value must be a struct, not a
// pointer.
func (w *World) SetComponent(e Entity, v any) error {
	if !w.Alive(e) {
		return fmt.Errorf("entity %v is not alive", e)
	}
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() == reflect.Pointer {
		return fmt.Errorf("component must be a struct value, got %v", t)
	}
	store, ok := w.components[t]
	if !ok {
		store = make(map[uint32]any)
		w.components[t] = store
	}
	store[e.ID] = v
	return nil
}

// Component returns the component of the given type attached to the entity.
func (w *World) Component(e Entity, t reflect.Type) (any, bool) {
	if !w.Alive(e) {
		return nil, false
	}
	v, ok := w.components[t][e.ID]
	return v, ok
}

// RemoveComponent detaches the component of the given type, if present.
func (w *World) RemoveComponent(e Entity, t reflect.Type) {
	if !w.Alive(e) {
		return
	}
	delete(w.components[t], e.ID)
}

// ComponentTypes lists the component types attached to the entity, ordered
// by type name for deterministic output.
func (w *World) ComponentTypes(e Entity) []reflect.Type {
	if !w.Alive(e) {
		return nil
	}
	var types []reflect.Type
	for t, store := range w.components {
		if _, ok := store[e.ID]; ok {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

// Set is the typed convenience wrapper over SetComponent.
func Set[T any](w *World, e Entity, v T) error {
	return w.SetComponent(e, v)
}

// Get is the typed convenience wrapper over Component.
func Get[T any](w *World, e Entity) (T, bool) {
	var zero T
	v, ok := w.Component(e, reflect.TypeOf(zero))
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// Has reports whether the entity carries a component of type T.
func Has[T any](w *World, e Entity) bool {
	var zero T
	_, ok := w.Component(e, reflect.TypeOf(zero))
	return ok
}

// Remove is the typed convenience wrapper over RemoveComponent.
func Remove[T any](w *World, e Entity) {
	var zero T
	w.RemoveComponent(e, reflect.TypeOf(zero))
}
