package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/prefabgo/internal/ctxlog"
	"github.com/vk/prefabgo/internal/model"
)

// TagName is the struct tag that binds payload fields to document
// attributes: `prefab:"light_strength"` or `prefab:"mesh,optional"`.
const TagName = "prefab"

var (
	vec3Type = reflect.TypeOf(model.Vec3{})
	quatType = reflect.TypeOf(model.Quat{})
	rgbaType = reflect.TypeOf(model.RGBA{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// decodeAttrs evaluates raw attribute expressions and writes them into the
// tagged fields of target, which must be a non-nil pointer to a struct.
// Attributes that bind to no field are an error, as are missing required
// fields.
func decodeAttrs(ctx context.Context, attrs map[string]hcl.Expression, evalCtx *hcl.EvalContext, target any) error {
	logger := ctxlog.FromContext(ctx)

	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}
	structVal := ptr.Elem()
	structType := structVal.Type()

	consumed := make(map[string]struct{}, len(attrs))

	for i := 0; i < structType.NumField(); i++ {
		fieldDef := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}

		name, optional := parseTag(fieldDef)
		if name == "" {
			continue
		}

		expr, provided := attrs[name]
		if !provided {
			if optional {
				continue
			}
			return fmt.Errorf("missing required attribute %q", name)
		}
		consumed[name] = struct{}{}

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("attribute %q: %w", name, diags)
		}
		if err := decodeValue(val, fieldVal); err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		logger.Debug("Decoded attribute.", "attr", name, "field", fieldDef.Name)
	}

	if len(consumed) != len(attrs) {
		var extra []string
		for name := range attrs {
			if _, ok := consumed[name]; !ok {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("unsupported attributes: %s", strings.Join(extra, ", "))
	}
	return nil
}

// parseTag returns the document attribute name for a struct field and
// whether it is optional. Pointer fields are optional implicitly.
func parseTag(f reflect.StructField) (name string, optional bool) {
	tag := f.Tag.Get(TagName)
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "-" {
		return "", false
	}
	for _, flag := range parts[1:] {
		if flag == "optional" {
			optional = true
		}
	}
	if f.Type.Kind() == reflect.Pointer {
		optional = true
	}
	return name, optional
}

// decodeValue converts one evaluated cty value into a Go field. The math
// types get bespoke conversions (they accept both object and tuple forms);
// everything else goes through gocty with an implied type.
func decodeValue(val cty.Value, target reflect.Value) error {
	if val.IsNull() {
		return nil // null keeps the field's zero value
	}

	if target.Kind() == reflect.Pointer {
		out := reflect.New(target.Type().Elem())
		if err := decodeValue(val, out.Elem()); err != nil {
			return err
		}
		target.Set(out)
		return nil
	}

	switch target.Type() {
	case vec3Type:
		v, err := model.Vec3FromCty(val)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(v))
		return nil
	case quatType:
		q, err := model.QuatFromCty(val)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(q))
		return nil
	case rgbaType:
		c, err := model.RGBAFromCty(val)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(c))
		return nil
	case uuidType:
		if !val.Type().Equals(cty.String) {
			return fmt.Errorf("expected a uuid string, got %s", val.Type().FriendlyName())
		}
		id, err := uuid.Parse(val.AsString())
		if err != nil {
			return fmt.Errorf("bad uuid: %w", err)
		}
		target.Set(reflect.ValueOf(id))
		return nil
	}

	want, err := gocty.ImpliedType(reflect.Zero(target.Type()).Interface())
	if err != nil {
		return fmt.Errorf("field type %s is not decodable: %w", target.Type(), err)
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target.Addr().Interface())
}
