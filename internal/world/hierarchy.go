package world

import (
	"fmt"
	"sort"
)

// SetParent attaches child under parent, detaching it from any previous
// parent. Parenting an entity under one of its own descendants is rejected.
func (w *World) SetParent(child, parent Entity) error {
	if !w.Alive(child) {
		return fmt.Errorf("child %v is not alive", child)
	}
	if !w.Alive(parent) {
		return fmt.Errorf("parent %v is not alive", parent)
	}
	if child == parent {
		return fmt.Errorf("entity %v cannot be its own parent", child)
	}

	for cursor, ok := parent, true; ok; cursor, ok = w.Parent(cursor) {
		if cursor == child {
			return fmt.Errorf("entity %v is a descendant of %v; parenting would form a cycle", parent, child)
		}
	}

	if prev, ok := w.parent[child.ID]; ok {
		w.detachChild(prev, child)
	}
	w.parent[child.ID] = parent
	w.children[parent.ID] = append(w.children[parent.ID], child)
	return nil
}

// ClearParent detaches the entity from its parent, making it a root.
func (w *World) ClearParent(child Entity) {
	if !w.Alive(child) {
		return
	}
	if prev, ok := w.parent[child.ID]; ok {
		w.detachChild(prev, child)
		delete(w.parent, child.ID)
	}
}

// Parent returns the entity's parent, if it has one.
func (w *World) Parent(e Entity) (Entity, bool) {
	if !w.Alive(e) {
		return Entity{}, false
	}
	p, ok := w.parent[e.ID]
	return p, ok
}

// Children returns the entity's direct children in attachment order.
func (w *World) Children(e Entity) []Entity {
	if !w.Alive(e) {
		return nil
	}
	return append([]Entity(nil), w.children[e.ID]...)
}

// Roots returns every live entity without a parent, ordered by id.
func (w *World) Roots() []Entity {
	var roots []Entity
	for id, ok := range w.alive {
		if !ok {
			continue
		}
		e := Entity{ID: uint32(id), Version: w.versions[id]}
		if _, hasParent := w.parent[e.ID]; !hasParent {
			roots = append(roots, e)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return roots
}

func (w *World) detachChild(parent, child Entity) {
	kids := w.children[parent.ID]
	for i, kid := range kids {
		if kid == child {
			w.children[parent.ID] = append(kids[:i], kids[i+1:]...)
			return
		}
	}
}
