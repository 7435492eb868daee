package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/prefabgo/internal/world"
)

// BlankVariant is the alias of the untyped prefab variant that is always
// registered: no payload, no construct hook, no source requirement.
const BlankVariant = "Prefab"

// ConstructFn runs once per spawned instance, after the instance's entities
// exist and its payload has been decoded and layered.
type ConstructFn func(ctx context.Context, w *world.World, root world.Entity, data any) error

// PrefabSpec is the registration input for a prefab variant.
type PrefabSpec struct {
	// Data is a prototype of the variant's payload struct. Nil registers a
	// payload-less variant, which then needs an explicit alias.
	Data any

	// UUID optionally pins the variant's identity, letting instances assert
	// the type of the document their source path resolves to.
	UUID string

	// Construct is the variant's spawn hook; nil is valid.
	Construct ConstructFn

	// RequiresSource marks variants whose instances must carry a source
	// reference. Fully procedural variants leave it false.
	RequiresSource bool
}

// PrefabDescriptor is a registered prefab variant.
type PrefabDescriptor struct {
	Alias          string
	DataType       reflect.Type // nil for payload-less variants
	UUID           uuid.UUID
	Construct      ConstructFn
	RequiresSource bool
}

// Defaults returns the variant's default payload: the zero value of its data
// type, or nil for payload-less variants.
func (d *PrefabDescriptor) Defaults() any {
	if d.DataType == nil {
		return nil
	}
	return reflect.Zero(d.DataType).Interface()
}

// Decode evaluates a defaults or data block against the variant's payload
// type. Payload-less variants reject non-empty payloads.
func (d *PrefabDescriptor) Decode(ctx context.Context, attrs map[string]hcl.Expression, evalCtx *hcl.EvalContext) (any, error) {
	if d.DataType == nil {
		if len(attrs) > 0 {
			return nil, fmt.Errorf("variant %q carries no payload but data was provided", d.Alias)
		}
		return nil, nil
	}
	target := reflect.New(d.DataType)
	if err := decodeAttrs(ctx, attrs, evalCtx, target.Interface()); err != nil {
		return nil, fmt.Errorf("variant %q: %w", d.Alias, err)
	}
	return target.Elem().Interface(), nil
}

// RegisterPrefab registers a variant under the shortened name of its payload
// type.
func (r *Registry) RegisterPrefab(spec PrefabSpec) error {
	if spec.Data == nil {
		return fmt.Errorf("payload-less variants need an explicit alias; use RegisterPrefabAliased")
	}
	t, err := prototypeType(spec.Data)
	if err != nil {
		return err
	}
	return r.RegisterPrefabAliased(ShortName(t), spec)
}

// RegisterPrefabAliased registers a variant under an explicit alias. Both
// the alias and the payload type (when present) must be unclaimed.
func (r *Registry) RegisterPrefabAliased(alias string, spec PrefabSpec) error {
	desc := &PrefabDescriptor{
		Alias:          alias,
		Construct:      spec.Construct,
		RequiresSource: spec.RequiresSource,
	}

	if spec.Data != nil {
		t, err := prototypeType(spec.Data)
		if err != nil {
			return err
		}
		desc.DataType = t
	}
	if spec.UUID != "" {
		id, err := uuid.Parse(spec.UUID)
		if err != nil {
			return fmt.Errorf("variant %q: bad uuid: %w", alias, err)
		}
		desc.UUID = id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prefabs[alias]; ok {
		return fmt.Errorf("variant %q: %w", alias, ErrAliasRegistered)
	}
	if desc.DataType != nil {
		if prev, ok := r.prefabTypes[desc.DataType]; ok {
			return fmt.Errorf("variant type %s (as %q): %w", desc.DataType, prev, ErrTypeRegistered)
		}
		r.prefabTypes[desc.DataType] = alias
	}

	r.prefabs[alias] = desc
	return nil
}
