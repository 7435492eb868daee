package world

import "fmt"

// EntityMap translates the stable ids of a prefab document into the runtime
// entities created for one particular spawn. Each spawn gets a fresh map, so
// ids stay stable across files while runtime handles do not.
type EntityMap struct {
	entities map[uint64]Entity
}

// NewEntityMap returns an empty EntityMap.
func NewEntityMap() *EntityMap {
	return &EntityMap{entities: make(map[uint64]Entity)}
}

// Insert records the runtime entity spawned for a stable id.
func (m *EntityMap) Insert(stable uint64, e Entity) {
	m.entities[stable] = e
}

// Get resolves a stable id to its runtime entity.
func (m *EntityMap) Get(stable uint64) (Entity, bool) {
	e, ok := m.entities[stable]
	return e, ok
}

// Resolve is like Get but returns an error naming the missing id.
func (m *EntityMap) Resolve(stable uint64) (Entity, error) {
	e, ok := m.entities[stable]
	if !ok {
		return Entity{}, fmt.Errorf("id %d was not spawned in this instance", stable)
	}
	return e, nil
}

// Len returns the number of mapped ids.
func (m *EntityMap) Len() int {
	return len(m.entities)
}

// EntityResolver is implemented by component types whose payload references
// other instances by stable id. After every entity of an instance exists,
// the spawner calls MapEntities so the component can swap ids for handles.
type EntityResolver interface {
	MapEntities(m *EntityMap) error
}
