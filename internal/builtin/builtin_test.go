package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/prefabgo/internal/model"
	"github.com/vk/prefabgo/internal/registry"
	"github.com/vk/prefabgo/internal/world"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Install(Module{}))
	return reg
}

func TestModule_RegistersCleanly(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	require.NoError(t, reg.Validate(context.Background()))
	assert.Subset(t, reg.ComponentAliases(),
		[]string{"Name", "Visible", "PointLight", "DirectionalLight", "StaticMesh", "LookAt"})
	assert.Subset(t, reg.PrefabAliases(),
		[]string{"Prefab", "Lamp", "Sun", "Cube", "StaticMesh"})
}

func TestModule_DoubleInstallFails(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	err := reg.Install(Module{})

	require.ErrorIs(t, err, registry.ErrAliasRegistered)
}

func TestConstructLamp_AppliesDefaults(t *testing.T) {
	t.Parallel()

	w := world.New()
	root := w.Spawn()

	require.NoError(t, constructLamp(context.Background(), w, root, LampData{}))

	light, ok := world.Get[PointLight](w, root)
	require.True(t, ok)
	assert.Equal(t, model.White(), light.Color)
	assert.Equal(t, float64(800), light.Intensity)
	assert.Equal(t, float64(20), light.Range)
}

func TestConstructLamp_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	w := world.New()
	root := w.Spawn()
	data := LampData{
		LightColor:    model.RGBA{R: 1, A: 1},
		LightStrength: 3,
		LightRange:    7,
	}

	require.NoError(t, constructLamp(context.Background(), w, root, data))

	light, _ := world.Get[PointLight](w, root)
	assert.Equal(t, model.RGBA{R: 1, A: 1}, light.Color)
	assert.Equal(t, float64(3), light.Intensity)
	assert.Equal(t, float64(7), light.Range)
}

func TestConstructCube_ScalesExistingTransform(t *testing.T) {
	t.Parallel()

	w := world.New()
	root := w.Spawn()
	tf := model.IdentityTransform()
	tf.Scale = model.Vec3{X: 2, Y: 2, Z: 2}
	require.NoError(t, world.Set(w, root, tf))

	require.NoError(t, constructCube(context.Background(), w, root, CubeData{Size: 3}))

	got, _ := world.Get[model.Transform](w, root)
	assert.Equal(t, model.Vec3{X: 6, Y: 6, Z: 6}, got.Scale)
	mesh, ok := world.Get[StaticMesh](w, root)
	require.True(t, ok)
	assert.Equal(t, "meshes/cube", mesh.Mesh)
}

func TestLookAt_MapEntities(t *testing.T) {
	t.Parallel()

	w := world.New()
	target := w.Spawn()
	m := world.NewEntityMap()
	m.Insert(42, target)

	look := &LookAt{TargetID: 42}
	require.NoError(t, look.MapEntities(m))
	assert.Equal(t, target, look.Target)

	missing := &LookAt{TargetID: 7}
	assert.Error(t, missing.MapEntities(m))
}
