package builtin

import (
	"context"

	"github.com/vk/prefabgo/internal/model"
	"github.com/vk/prefabgo/internal/world"
)

// LampData is the payload of the Lamp variant.
type LampData struct {
	LightColor    model.RGBA `prefab:"light_color,optional"`
	LightStrength float64    `prefab:"light_strength,optional"`
	LightRange    float64    `prefab:"light_range,optional"`
}

func constructLamp(_ context.Context, w *world.World, root world.Entity, data any) error {
	payload := data.(LampData)
	if payload.LightColor == (model.RGBA{}) {
		payload.LightColor = model.White()
	}
	if payload.LightStrength == 0 {
		payload.LightStrength = 800
	}
	if payload.LightRange == 0 {
		payload.LightRange = 20
	}
	return world.Set(w, root, PointLight{
		Color:     payload.LightColor,
		Intensity: payload.LightStrength,
		Range:     payload.LightRange,
	})
}

// SunData is the payload of the Sun variant.
type SunData struct {
	LightColor  model.RGBA `prefab:"light_color,optional"`
	Illuminance float64    `prefab:"illuminance,optional"`
}

func constructSun(_ context.Context, w *world.World, root world.Entity, data any) error {
	payload := data.(SunData)
	if payload.LightColor == (model.RGBA{}) {
		payload.LightColor = model.White()
	}
	if payload.Illuminance == 0 {
		payload.Illuminance = 100000
	}
	return world.Set(w, root, DirectionalLight{
		Color:       payload.LightColor,
		Illuminance: payload.Illuminance,
	})
}

// CubeData is the payload of the Cube variant.
type CubeData struct {
	Size     float64 `prefab:"size,optional"`
	Material string  `prefab:"material,optional"`
}

func constructCube(_ context.Context, w *world.World, root world.Entity, data any) error {
	payload := data.(CubeData)
	size := payload.Size
	if size == 0 {
		size = 1
	}
	if err := world.Set(w, root, StaticMesh{Mesh: "meshes/cube", Material: payload.Material}); err != nil {
		return err
	}

	tf, ok := world.Get[model.Transform](w, root)
	if !ok {
		tf = model.IdentityTransform()
	}
	tf.Scale.X *= size
	tf.Scale.Y *= size
	tf.Scale.Z *= size
	return world.Set(w, root, tf)
}

// StaticMeshData is the payload of the StaticMesh variant.
type StaticMeshData struct {
	Mesh     string `prefab:"mesh"`
	Material string `prefab:"material,optional"`
}

func constructStaticMesh(_ context.Context, w *world.World, root world.Entity, data any) error {
	payload := data.(StaticMeshData)
	return world.Set(w, root, StaticMesh{Mesh: payload.Mesh, Material: payload.Material})
}
