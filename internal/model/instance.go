package model

import (
	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
)

// Entity is a leaf instance: a plain entity with a stable id and a list of
// tagged component payloads.
type Entity struct {
	// ID is the stable numeric id of this instance within the document.
	ID uint64

	// Parent optionally names the id of another instance in the same
	// document. Nil parents the entity under the enclosing prefab's root.
	Parent *uint64

	Components []*Component

	DeclRange hcl.Range
}

// Source references the prefab document a variant instance is built from.
type Source struct {
	// Path locates the referenced document, relative to the referencing one.
	Path string

	// UUID optionally pins the identity of the referenced document. When it
	// is not uuid.Nil the loaded document must carry the same id.
	UUID uuid.UUID
}

// Instance is a prefab-variant instance: a placement of another prefab
// document inside this one, with per-instance overrides.
type Instance struct {
	// Variant is the registered prefab-type alias this instance expects its
	// source to be.
	Variant string

	// ID is the stable numeric id of this instance within the document.
	ID uint64

	// Source references the prefab document to instantiate. Nil is only
	// valid for variants that are fully procedural.
	Source *Source

	// Parent optionally names the id of a sibling instance; nil parents the
	// instance under the enclosing prefab's root.
	Parent *uint64

	// Transform overrides the source prefab's root transform field-wise.
	Transform *TransformPatch

	// Data overrides the source prefab's default payload. Undeclared
	// attributes fall through to the source defaults.
	Data map[string]hcl.Expression

	// Components overrides component payloads on the instance root. The
	// Transform and Parent aliases are excluded; validation rejects them.
	Components []*Component

	DeclRange hcl.Range
}
