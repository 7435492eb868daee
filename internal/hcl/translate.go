package hcl

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/prefabgo/internal/model"
)

var prefabSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id"},
		{Name: "uuid"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "defaults"},
		{Type: "transform"},
		{Type: "entity"},
		{Type: "instance", LabelNames: []string{"variant"}},
	},
}

var entitySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id", Required: true},
		{Name: "parent"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "component", LabelNames: []string{"type"}},
	},
}

var instanceSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id", Required: true},
		{Name: "parent"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "source"},
		{Type: "transform"},
		{Type: "data"},
		{Type: "component", LabelNames: []string{"type"}},
	},
}

var sourceSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "path"},
		{Name: "uuid"},
	},
}

var transformSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "position"},
		{Name: "rotation"},
		{Name: "scale"},
	},
}

// translateDocument turns one parsed `prefab` block into the model form.
func translateDocument(block *hcl.Block, path string, evalCtx *hcl.EvalContext) (*model.Document, error) {
	content, diags := block.Body.Content(prefabSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	doc := &model.Document{
		Variant: block.Labels[0],
		Path:    path,
	}

	if attr, ok := content.Attributes["id"]; ok {
		id, err := evalUint64(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: prefab id: %w", attr.Range, err)
		}
		doc.ID = &id
	}
	if attr, ok := content.Attributes["uuid"]; ok {
		id, err := evalUUID(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: prefab uuid: %w", attr.Range, err)
		}
		doc.UUID = id
	}

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "defaults":
			if doc.Defaults != nil {
				return nil, fmt.Errorf("%s: duplicate defaults block", inner.DefRange)
			}
			attrs, err := collectAttrs(inner.Body)
			if err != nil {
				return nil, err
			}
			doc.Defaults = attrs
		case "transform":
			if doc.Transform != nil {
				return nil, fmt.Errorf("%s: duplicate transform block", inner.DefRange)
			}
			patch, err := translateTransform(inner, evalCtx)
			if err != nil {
				return nil, err
			}
			doc.Transform = patch
		case "entity":
			entity, err := translateEntity(inner, evalCtx)
			if err != nil {
				return nil, err
			}
			doc.Entities = append(doc.Entities, entity)
		case "instance":
			instance, err := translateInstance(inner, evalCtx)
			if err != nil {
				return nil, err
			}
			doc.Instances = append(doc.Instances, instance)
		}
	}
	return doc, nil
}

func translateEntity(block *hcl.Block, evalCtx *hcl.EvalContext) (*model.Entity, error) {
	content, diags := block.Body.Content(entitySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	entity := &model.Entity{DeclRange: block.DefRange}

	id, err := evalUint64(content.Attributes["id"].Expr, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("%s: entity id: %w", block.DefRange, err)
	}
	entity.ID = id

	if attr, ok := content.Attributes["parent"]; ok {
		parent, err := evalUint64(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: entity parent: %w", attr.Range, err)
		}
		entity.Parent = &parent
	}

	for _, inner := range content.Blocks {
		component, err := translateComponent(inner)
		if err != nil {
			return nil, err
		}
		entity.Components = append(entity.Components, component)
	}
	return entity, nil
}

func translateInstance(block *hcl.Block, evalCtx *hcl.EvalContext) (*model.Instance, error) {
	content, diags := block.Body.Content(instanceSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	instance := &model.Instance{
		Variant:   block.Labels[0],
		DeclRange: block.DefRange,
	}

	id, err := evalUint64(content.Attributes["id"].Expr, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("%s: instance id: %w", block.DefRange, err)
	}
	instance.ID = id

	if attr, ok := content.Attributes["parent"]; ok {
		parent, err := evalUint64(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: instance parent: %w", attr.Range, err)
		}
		instance.Parent = &parent
	}

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "source":
			if instance.Source != nil {
				return nil, fmt.Errorf("%s: duplicate source block", inner.DefRange)
			}
			source, err := translateSource(inner, evalCtx)
			if err != nil {
				return nil, err
			}
			instance.Source = source
		case "transform":
			if instance.Transform != nil {
				return nil, fmt.Errorf("%s: duplicate transform block", inner.DefRange)
			}
			patch, err := translateTransform(inner, evalCtx)
			if err != nil {
				return nil, err
			}
			instance.Transform = patch
		case "data":
			if instance.Data != nil {
				return nil, fmt.Errorf("%s: duplicate data block", inner.DefRange)
			}
			attrs, err := collectAttrs(inner.Body)
			if err != nil {
				return nil, err
			}
			instance.Data = attrs
		case "component":
			component, err := translateComponent(inner)
			if err != nil {
				return nil, err
			}
			instance.Components = append(instance.Components, component)
		}
	}
	return instance, nil
}

func translateSource(block *hcl.Block, evalCtx *hcl.EvalContext) (*model.Source, error) {
	content, diags := block.Body.Content(sourceSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	source := &model.Source{}
	if attr, ok := content.Attributes["path"]; ok {
		path, err := evalString(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: source path: %w", attr.Range, err)
		}
		source.Path = path
	}
	if attr, ok := content.Attributes["uuid"]; ok {
		id, err := evalUUID(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: source uuid: %w", attr.Range, err)
		}
		source.UUID = id
	}
	return source, nil
}

func translateTransform(block *hcl.Block, evalCtx *hcl.EvalContext) (*model.TransformPatch, error) {
	content, diags := block.Body.Content(transformSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	patch := &model.TransformPatch{}
	if attr, ok := content.Attributes["position"]; ok {
		v, err := evalVec3(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: position: %w", attr.Range, err)
		}
		patch.Position = &v
	}
	if attr, ok := content.Attributes["rotation"]; ok {
		q, err := evalQuat(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: rotation: %w", attr.Range, err)
		}
		patch.Rotation = &q
	}
	if attr, ok := content.Attributes["scale"]; ok {
		v, err := evalVec3(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: scale: %w", attr.Range, err)
		}
		patch.Scale = &v
	}
	return patch, nil
}

func translateComponent(block *hcl.Block) (*model.Component, error) {
	attrs, err := collectAttrs(block.Body)
	if err != nil {
		return nil, err
	}
	return &model.Component{
		Type:      block.Labels[0],
		Attrs:     attrs,
		DeclRange: block.DefRange,
	}, nil
}

// collectAttrs keeps a body's attribute expressions unevaluated for the
// registry to decode at spawn time.
func collectAttrs(body hcl.Body) (map[string]hcl.Expression, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		out[name] = attr.Expr
	}
	return out, nil
}

func evalUint64(expr hcl.Expression, evalCtx *hcl.EvalContext) (uint64, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, diags
	}
	converted, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("expected a numeric id: %w", err)
	}
	var out uint64
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return 0, fmt.Errorf("expected a non-negative integer id: %w", err)
	}
	return out, nil
}

func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	converted, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("expected a string: %w", err)
	}
	if converted.IsNull() {
		return "", fmt.Errorf("expected a string, got null")
	}
	return converted.AsString(), nil
}

func evalUUID(expr hcl.Expression, evalCtx *hcl.EvalContext) (uuid.UUID, error) {
	s, err := evalString(expr, evalCtx)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad uuid %q: %w", s, err)
	}
	return id, nil
}

func evalVec3(expr hcl.Expression, evalCtx *hcl.EvalContext) (model.Vec3, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return model.Vec3{}, diags
	}
	return model.Vec3FromCty(val)
}

func evalQuat(expr hcl.Expression, evalCtx *hcl.EvalContext) (model.Quat, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return model.Quat{}, diags
	}
	return model.QuatFromCty(val)
}
