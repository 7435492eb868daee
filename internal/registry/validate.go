package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/prefabgo/internal/ctxlog"
)

// Validate performs a strict check over every registered descriptor: each
// exported payload field must either carry a prefab tag or opt out with
// `prefab:"-"`, tag names must be unique within a struct, and every tagged
// field must be decodable from a document attribute.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	r.mu.RLock()
	defer r.mu.RUnlock()

	for alias, desc := range r.components {
		errs = append(errs, checkPayloadStruct("component", alias, desc.Type)...)
	}
	for alias, desc := range r.prefabs {
		if desc.DataType != nil {
			errs = append(errs, checkPayloadStruct("variant", alias, desc.DataType)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "components", len(r.components), "variants", len(r.prefabs))
	return nil
}

func checkPayloadStruct(kind, alias string, t reflect.Type) []string {
	var errs []string
	seen := make(map[string]string)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag, ok := field.Tag.Lookup(TagName)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s %q: field %s has no prefab tag; tag it or exclude it with `prefab:\"-\"`", kind, alias, field.Name))
			continue
		}
		name, _ := parseTag(field)
		if name == "" {
			if tag != "-" {
				errs = append(errs, fmt.Sprintf("%s %q: field %s has an empty prefab tag", kind, alias, field.Name))
			}
			continue
		}
		if prev, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("%s %q: fields %s and %s both bind attribute %q", kind, alias, prev, field.Name, name))
			continue
		}
		seen[name] = field.Name

		if err := checkDecodable(field.Type); err != nil {
			errs = append(errs, fmt.Sprintf("%s %q: field %s: %v", kind, alias, field.Name, err))
		}
	}
	return errs
}

func checkDecodable(t reflect.Type) error {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case vec3Type, quatType, rgbaType, uuidType:
		return nil
	}
	if _, err := gocty.ImpliedType(reflect.Zero(t).Interface()); err != nil {
		return fmt.Errorf("type %s is not decodable from a document attribute: %w", t, err)
	}
	return nil
}
