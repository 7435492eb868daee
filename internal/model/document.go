package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
)

// Document is one parsed prefab file: a named, optionally-identified template
// whose scene list spawns a hierarchy of entities and nested sub-prefabs.
type Document struct {
	// Variant is the registered prefab-type alias of this document. The
	// untyped alias "Prefab" is the default.
	Variant string

	// ID optionally gives the document's root a stable id other instances
	// in the same document can reference.
	ID *uint64

	// UUID optionally identifies the document for source pinning.
	UUID uuid.UUID

	// Defaults is the root payload for the document's variant type,
	// unevaluated.
	Defaults map[string]hcl.Expression

	// Transform is the root transform; nil fields inherit the identity.
	Transform *TransformPatch

	// Entities and Instances together form the scene list.
	Entities  []*Entity
	Instances []*Instance

	// Path is where the document was loaded from; empty for in-memory
	// documents.
	Path string
}

// Validate enforces the structural invariants a document must hold before it
// can be cached or spawned: unique ids, resolvable parent references, and no
// reserved component overrides on instances.
func (d *Document) Validate() error {
	var errs []string

	ids := make(map[uint64]hcl.Range)
	claim := func(id uint64, rng hcl.Range) {
		if prev, ok := ids[id]; ok {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %d, first declared at %s", rng, id, prev))
			return
		}
		ids[id] = rng
	}

	if d.ID != nil {
		claim(*d.ID, hcl.Range{Filename: d.Path})
	}
	for _, e := range d.Entities {
		claim(e.ID, e.DeclRange)
	}
	for _, inst := range d.Instances {
		claim(inst.ID, inst.DeclRange)

		for _, c := range inst.Components {
			if c.Reserved() {
				errs = append(errs, fmt.Sprintf("%s: component %q cannot appear in an instance override list; use the dedicated field", c.DeclRange, c.Type))
			}
		}
		if inst.Source != nil && inst.Source.Path == "" && inst.Source.UUID == uuid.Nil {
			errs = append(errs, fmt.Sprintf("%s: source block declares neither path nor uuid", inst.DeclRange))
		}
	}

	// Parent references resolve against the full id space of the document,
	// so forward references are fine. References into a nested prefab's own
	// children are impossible by construction: nested ids are not in scope.
	checkParent := func(parent *uint64, self uint64, rng hcl.Range) {
		if parent == nil {
			return
		}
		if *parent == self {
			errs = append(errs, fmt.Sprintf("%s: instance %d cannot be its own parent", rng, self))
			return
		}
		if _, ok := ids[*parent]; !ok {
			errs = append(errs, fmt.Sprintf("%s: parent %d does not name an instance in this document", rng, *parent))
		}
	}
	for _, e := range d.Entities {
		checkParent(e.Parent, e.ID, e.DeclRange)
	}
	for _, inst := range d.Instances {
		checkParent(inst.Parent, inst.ID, inst.DeclRange)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid prefab document:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// SourcePaths returns the relative paths of every external prefab document
// this one references, deduplicated in declaration order.
func (d *Document) SourcePaths() []string {
	var paths []string
	seen := make(map[string]struct{})
	for _, inst := range d.Instances {
		if inst.Source == nil || inst.Source.Path == "" {
			continue
		}
		if _, ok := seen[inst.Source.Path]; ok {
			continue
		}
		seen[inst.Source.Path] = struct{}{}
		paths = append(paths, inst.Source.Path)
	}
	return paths
}
