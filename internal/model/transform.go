package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Vec3 is a three-component vector. It is the wire representation for
// positions and scales in prefab documents.
type Vec3 struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
	Z float64 `cty:"z"`
}

// Quat is a rotation quaternion.
type Quat struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
	Z float64 `cty:"z"`
	W float64 `cty:"w"`
}

// Transform is a concrete, fully resolved transform as it exists on a
// spawned entity.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform returns the neutral transform: zero position, identity
// rotation, unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: Quat{W: 1},
		Scale:    Vec3{X: 1, Y: 1, Z: 1},
	}
}

// TransformPatch is a partial transform override. Each field is independently
// omittable; a nil field keeps the value it is applied over.
type TransformPatch struct {
	Position *Vec3
	Rotation *Quat
	Scale    *Vec3
}

// IsZero reports whether the patch overrides nothing.
func (p *TransformPatch) IsZero() bool {
	return p == nil || (p.Position == nil && p.Rotation == nil && p.Scale == nil)
}

// ApplyTo overwrites the fields of t that the patch declares.
func (p *TransformPatch) ApplyTo(t *Transform) {
	if p == nil {
		return
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Rotation != nil {
		t.Rotation = *p.Rotation
	}
	if p.Scale != nil {
		t.Scale = *p.Scale
	}
}

// Over merges the patch over a weaker patch, returning a new patch where
// fields declared by p win and undeclared fields fall through to base.
func (p *TransformPatch) Over(base *TransformPatch) *TransformPatch {
	if p.IsZero() {
		return base
	}
	if base.IsZero() {
		return p
	}
	out := &TransformPatch{Position: base.Position, Rotation: base.Rotation, Scale: base.Scale}
	if p.Position != nil {
		out.Position = p.Position
	}
	if p.Rotation != nil {
		out.Rotation = p.Rotation
	}
	if p.Scale != nil {
		out.Scale = p.Scale
	}
	return out
}

// Vec3FromCty converts a cty value produced by the vec3 template function, or
// a bare three-element tuple, into a Vec3.
func Vec3FromCty(v cty.Value) (Vec3, error) {
	out := Vec3{}
	fields := []*float64{&out.X, &out.Y, &out.Z}
	if err := numbersFromCty(v, []string{"x", "y", "z"}, fields); err != nil {
		return Vec3{}, fmt.Errorf("expected a vec3 value: %w", err)
	}
	return out, nil
}

// QuatFromCty converts a cty value produced by the quat or euler template
// functions, or a bare four-element tuple, into a Quat.
func QuatFromCty(v cty.Value) (Quat, error) {
	out := Quat{}
	fields := []*float64{&out.X, &out.Y, &out.Z, &out.W}
	if err := numbersFromCty(v, []string{"x", "y", "z", "w"}, fields); err != nil {
		return Quat{}, fmt.Errorf("expected a quat value: %w", err)
	}
	return out, nil
}

// numbersFromCty accepts either an object with the named numeric attributes
// or a tuple/list of the same arity, in declaration order.
func numbersFromCty(v cty.Value, names []string, into []*float64) error {
	if v.IsNull() || !v.IsKnown() {
		return fmt.Errorf("value is null or unknown")
	}
	ty := v.Type()

	switch {
	case ty.IsObjectType():
		for i, name := range names {
			if !ty.HasAttribute(name) {
				return fmt.Errorf("missing attribute %q", name)
			}
			f, err := numberFromCty(v.GetAttr(name))
			if err != nil {
				return fmt.Errorf("attribute %q: %w", name, err)
			}
			*into[i] = f
		}
		return nil
	case ty.IsTupleType() || ty.IsListType():
		if v.LengthInt() != len(names) {
			return fmt.Errorf("expected %d elements, got %d", len(names), v.LengthInt())
		}
		i := 0
		for it := v.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			f, err := numberFromCty(ev)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			*into[i] = f
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}

func numberFromCty(v cty.Value) (float64, error) {
	if v.IsNull() || !v.Type().Equals(cty.Number) {
		return 0, fmt.Errorf("not a number")
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}
