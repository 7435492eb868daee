package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Reserved component aliases that instances may not override through their
// component list; parenthood and placement are overridden through the
// dedicated `parent` and `transform` fields instead.
const (
	ComponentTransform = "Transform"
	ComponentParent    = "Parent"
)

// Component is one tagged value attached to an entity or carried as an
// instance-level override: a registered component-type alias plus its raw
// serialized payload.
type Component struct {
	// Type is the registry alias the payload decodes against.
	Type string

	// Attrs holds the payload's attribute expressions, unevaluated so the
	// spawner can decode them against the registered Go type.
	Attrs map[string]hcl.Expression

	// DeclRange points at the component block in the source document, for
	// diagnostics.
	DeclRange hcl.Range
}

// Reserved reports whether the component's alias is one that instance
// override lists must not carry.
func (c *Component) Reserved() bool {
	return c.Type == ComponentTransform || c.Type == ComponentParent
}
