package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
)

// ComponentDescriptor describes one registered component type: the alias
// documents use for it and the Go struct its payload decodes into.
type ComponentDescriptor struct {
	Alias string
	Type  reflect.Type
}

// New returns a zero value of the component's Go type.
func (d *ComponentDescriptor) New() any {
	return reflect.Zero(d.Type).Interface()
}

// Decode evaluates the raw attribute expressions of a component block and
// decodes them into a new value of the component's Go type.
func (d *ComponentDescriptor) Decode(ctx context.Context, attrs map[string]hcl.Expression, evalCtx *hcl.EvalContext) (any, error) {
	target := reflect.New(d.Type)
	if err := decodeAttrs(ctx, attrs, evalCtx, target.Interface()); err != nil {
		return nil, fmt.Errorf("component %q: %w", d.Alias, err)
	}
	return target.Elem().Interface(), nil
}

// Copy returns a shallow copy of a component value, used when stamping a
// template's components onto freshly spawned entities.
func (d *ComponentDescriptor) Copy(v any) any {
	out := reflect.New(d.Type)
	out.Elem().Set(reflect.ValueOf(v))
	return out.Elem().Interface()
}

// RegisterComponent registers a component prototype under the shortened name
// of its Go type.
func (r *Registry) RegisterComponent(prototype any) error {
	t, err := prototypeType(prototype)
	if err != nil {
		return err
	}
	return r.RegisterComponentAliased(ShortName(t), prototype)
}

// RegisterComponentAliased registers a component prototype under an explicit
// alias. Both the alias and the Go type must be unclaimed.
func (r *Registry) RegisterComponentAliased(alias string, prototype any) error {
	t, err := prototypeType(prototype)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.components[alias]; ok {
		return fmt.Errorf("component %q: %w", alias, ErrAliasRegistered)
	}
	if prev, ok := r.componentTypes[t]; ok {
		return fmt.Errorf("component type %s (as %q): %w", t, prev, ErrTypeRegistered)
	}

	r.components[alias] = &ComponentDescriptor{Alias: alias, Type: t}
	r.componentTypes[t] = alias
	return nil
}

// prototypeType accepts a struct value or a pointer to one and returns the
// struct type.
func prototypeType(prototype any) (reflect.Type, error) {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return nil, fmt.Errorf("prototype must not be nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prototype must be a struct, got %s", t.Kind())
	}
	return t, nil
}
