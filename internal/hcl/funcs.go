package hcl

import (
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

var (
	vec3Ty = cty.Object(map[string]cty.Type{
		"x": cty.Number, "y": cty.Number, "z": cty.Number,
	})
	quatTy = cty.Object(map[string]cty.Type{
		"x": cty.Number, "y": cty.Number, "z": cty.Number, "w": cty.Number,
	})
	rgbaTy = cty.Object(map[string]cty.Type{
		"r": cty.Number, "g": cty.Number, "b": cty.Number, "a": cty.Number,
	})
)

// BaseEvalContext returns the evaluation context every prefab document body
// is evaluated in: the math helper functions and nothing else. Callers may
// derive child contexts to add variables.
func BaseEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"vec3":  vec3Func,
			"quat":  quatFunc,
			"euler": eulerFunc,
			"rgba":  rgbaFunc,
		},
	}
}

func numParams(names ...string) []function.Parameter {
	params := make([]function.Parameter, len(names))
	for i, name := range names {
		params[i] = function.Parameter{Name: name, Type: cty.Number}
	}
	return params
}

func argFloat(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

var vec3Func = function.New(&function.Spec{
	Params: numParams("x", "y", "z"),
	Type:   function.StaticReturnType(vec3Ty),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.ObjectVal(map[string]cty.Value{
			"x": args[0], "y": args[1], "z": args[2],
		}), nil
	},
})

var quatFunc = function.New(&function.Spec{
	Params: numParams("x", "y", "z", "w"),
	Type:   function.StaticReturnType(quatTy),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.ObjectVal(map[string]cty.Value{
			"x": args[0], "y": args[1], "z": args[2], "w": args[3],
		}), nil
	},
})

// eulerFunc builds a rotation quaternion from yaw, pitch, and roll given in
// degrees, applied in that order.
var eulerFunc = function.New(&function.Spec{
	Params: numParams("yaw", "pitch", "roll"),
	Type:   function.StaticReturnType(quatTy),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		const degToRad = math.Pi / 180
		yaw := argFloat(args[0]) * degToRad / 2
		pitch := argFloat(args[1]) * degToRad / 2
		roll := argFloat(args[2]) * degToRad / 2

		cy, sy := math.Cos(yaw), math.Sin(yaw)
		cp, sp := math.Cos(pitch), math.Sin(pitch)
		cr, sr := math.Cos(roll), math.Sin(roll)

		return cty.ObjectVal(map[string]cty.Value{
			"x": cty.NumberFloatVal(sr*cp*cy - cr*sp*sy),
			"y": cty.NumberFloatVal(cr*sp*cy + sr*cp*sy),
			"z": cty.NumberFloatVal(cr*cp*sy - sr*sp*cy),
			"w": cty.NumberFloatVal(cr*cp*cy + sr*sp*sy),
		}), nil
	},
})

var rgbaFunc = function.New(&function.Spec{
	Params: numParams("r", "g", "b", "a"),
	Type:   function.StaticReturnType(rgbaTy),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.ObjectVal(map[string]cty.Value{
			"r": args[0], "g": args[1], "b": args[2], "a": args[3],
		}), nil
	},
})
