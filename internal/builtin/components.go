package builtin

import (
	"github.com/vk/prefabgo/internal/model"
	"github.com/vk/prefabgo/internal/world"
)

// Name is a human-readable label for an entity.
type Name struct {
	Value string `prefab:"value"`
}

// Visible toggles whether an entity and its subtree are rendered.
type Visible struct {
	Visible bool `prefab:"visible"`
}

// PointLight emits light equally in all directions from the entity.
type PointLight struct {
	Color     model.RGBA `prefab:"color,optional"`
	Intensity float64    `prefab:"intensity,optional"`
	Range     float64    `prefab:"range,optional"`
}

// DirectionalLight emits parallel light along the entity's forward axis.
type DirectionalLight struct {
	Color       model.RGBA `prefab:"color,optional"`
	Illuminance float64    `prefab:"illuminance,optional"`
}

// StaticMesh renders a mesh asset at the entity's transform.
type StaticMesh struct {
	Mesh     string `prefab:"mesh"`
	Material string `prefab:"material,optional"`
}

// LookAt keeps the entity oriented towards another entity of the same
// document, referenced by its stable id.
type LookAt struct {
	TargetID uint64 `prefab:"target"`

	// Target is filled in at spawn time from TargetID.
	Target world.Entity `prefab:"-"`
}

// MapEntities resolves the declared stable id against the entities spawned
// for this document.
func (l *LookAt) MapEntities(m *world.EntityMap) error {
	target, err := m.Resolve(l.TargetID)
	if err != nil {
		return err
	}
	l.Target = target
	return nil
}
