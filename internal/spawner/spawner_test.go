package spawner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/prefabgo/internal/assets"
	"github.com/vk/prefabgo/internal/hcl"
	"github.com/vk/prefabgo/internal/model"
	"github.com/vk/prefabgo/internal/registry"
	"github.com/vk/prefabgo/internal/world"
)

type Name struct {
	Value string `prefab:"value"`
}

type Visible struct {
	Visible bool `prefab:"visible"`
}

type LampData struct {
	LightStrength float64    `prefab:"light_strength,optional"`
	LightColor    model.RGBA `prefab:"light_color,optional"`
}

// SpotData mirrors LampData as its own type: every registered variant needs
// a distinct payload type.
type SpotData struct {
	LightStrength float64 `prefab:"light_strength,optional"`
}

type SpotLight struct {
	Strength float64
}

// Tracker references another entity of the same document by stable id.
type Tracker struct {
	TargetID uint64       `prefab:"target"`
	Target   world.Entity `prefab:"-"`
}

func (c *Tracker) MapEntities(m *world.EntityMap) error {
	target, err := m.Resolve(c.TargetID)
	if err != nil {
		return err
	}
	c.Target = target
	return nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.RegisterComponent(Name{}))
	require.NoError(t, reg.RegisterComponent(Visible{}))
	require.NoError(t, reg.RegisterComponent(&Tracker{}))

	checkStrength := func(w *world.World, root world.Entity, strength float64) error {
		if strength < 0 {
			return errors.New("light strength must not be negative")
		}
		return world.Set(w, root, SpotLight{Strength: strength})
	}
	require.NoError(t, reg.RegisterPrefabAliased("Lamp", registry.PrefabSpec{
		Data: LampData{},
		Construct: func(_ context.Context, w *world.World, root world.Entity, data any) error {
			return checkStrength(w, root, data.(LampData).LightStrength)
		},
	}))
	require.NoError(t, reg.RegisterPrefabAliased("Spot", registry.PrefabSpec{
		Data: SpotData{},
		Construct: func(_ context.Context, w *world.World, root world.Entity, data any) error {
			return checkStrength(w, root, data.(SpotData).LightStrength)
		},
	}))
	return reg
}

type fixture struct {
	dir     string
	server  *assets.Server
	spawner *Spawner
	world   *world.World
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := assets.NewServer(hcl.NewLoader())
	return &fixture{
		dir:     t.TempDir(),
		server:  server,
		spawner: New(server, newTestRegistry(t)),
		world:   world.New(),
	}
}

func (f *fixture) write(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func (f *fixture) load(t *testing.T, path string) *assets.Handle {
	t.Helper()
	handle, err := f.server.Load(context.Background(), path)
	require.NoError(t, err)
	return handle
}

func findChild[T any](t *testing.T, w *world.World, parent world.Entity, want T) world.Entity {
	t.Helper()
	for _, child := range w.Children(parent) {
		if got, ok := world.Get[T](w, child); ok {
			if assert.ObjectsAreEqual(want, got) {
				return child
			}
		}
	}
	t.Fatalf("no child of %v carries %#v", parent, want)
	return world.Entity{}
}

func TestSpawn_EntitiesAndHierarchy(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  transform {
    position = vec3(0, 0, -10)
  }

  entity {
    id = 1
    component "Name" {
      value = "Base"
    }
  }

  entity {
    id     = 2
    parent = 1
    component "Name" {
      value = "Bulb"
    }
    component "Visible" {
      visible = true
    }
  }
}
`)

	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})
	require.NoError(t, err)

	tf, ok := world.Get[model.Transform](f.world, root)
	require.True(t, ok)
	assert.Equal(t, model.Vec3{Z: -10}, tf.Position)
	assert.Equal(t, model.Vec3{X: 1, Y: 1, Z: 1}, tf.Scale)

	base := findChild(t, f.world, root, Name{Value: "Base"})
	bulb := findChild(t, f.world, base, Name{Value: "Bulb"})
	visible, ok := world.Get[Visible](f.world, bulb)
	require.True(t, ok)
	assert.True(t, visible.Visible)

	// Construct hook ran against the (empty) defaults.
	light, ok := world.Get[SpotLight](f.world, root)
	require.True(t, ok)
	assert.Zero(t, light.Strength)
}

func TestSpawn_DocumentIDNamesRoot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  id = 4000

  entity {
    id     = 1
    parent = 4000
    component "Name" {
      value = "Arm"
    }
    component "Tracker" {
      target = 4000
    }
  }
}
`)

	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})
	require.NoError(t, err)

	arm := findChild(t, f.world, root, Name{Value: "Arm"})
	parent, ok := f.world.Parent(arm)
	require.True(t, ok)
	assert.Equal(t, root, parent, "document id parents under the root")

	tracker, ok := world.Get[Tracker](f.world, arm)
	require.True(t, ok)
	assert.Equal(t, root, tracker.Target, "document id resolves to the root")
}

func TestSpawn_SourceUUIDPinAgainstUnlabeledDocument(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "spot.prefab.hcl", `
prefab "Spot" {
  entity { id = 1 }
}
`)
	path := f.write(t, "scene.prefab.hcl", `
prefab "Lamp" {
  instance "Spot" {
    id = 1
    source {
      path = "spot.prefab.hcl"
      uuid = "76500818-9b39-4655-9d32-8f1ac0ecbb41"
    }
  }
}
`)

	_, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})

	require.ErrorIs(t, err, ErrSourceMismatch)
	assert.Contains(t, err.Error(), "declares none")
	assert.Zero(t, f.world.Count())
}

func TestSpawn_OptionsOverrideDocument(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  defaults {
    light_strength = 2
  }
  transform {
    position = vec3(1, 0, 0)
    scale    = vec3(2, 2, 2)
  }
}
`)

	pos := model.Vec3{X: 9}
	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{
		Transform: &model.TransformPatch{Position: &pos},
	})
	require.NoError(t, err)

	tf, _ := world.Get[model.Transform](f.world, root)
	assert.Equal(t, model.Vec3{X: 9}, tf.Position, "option position wins")
	assert.Equal(t, model.Vec3{X: 2, Y: 2, Z: 2}, tf.Scale, "undeclared fields fall through")

	light, _ := world.Get[SpotLight](f.world, root)
	assert.Equal(t, float64(2), light.Strength, "defaults reach the construct hook")
}

func TestSpawn_NestedInstance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "spot.prefab.hcl", `
prefab "Spot" {
  defaults {
    light_strength = 2
  }
  transform {
    position = vec3(0, 5, 0)
    scale    = vec3(3, 3, 3)
  }
  entity {
    id = 1
    component "Name" {
      value = "Cone"
    }
  }
}
`)
	lampPath := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  entity {
    id = 1
    component "Name" {
      value = "Base"
    }
  }
  instance "Spot" {
    id     = 2
    parent = 1
    source { path = "spot.prefab.hcl" }
    transform {
      position = vec3(0, 1, 0)
    }
    data {
      light_strength = 7
    }
    component "Visible" {
      visible = false
    }
  }
}
`)

	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, lampPath), Options{})
	require.NoError(t, err)

	base := findChild(t, f.world, root, Name{Value: "Base"})
	require.Len(t, f.world.Children(base), 1)
	spot := f.world.Children(base)[0]

	tf, _ := world.Get[model.Transform](f.world, spot)
	assert.Equal(t, model.Vec3{Y: 1}, tf.Position, "instance transform wins")
	assert.Equal(t, model.Vec3{X: 3, Y: 3, Z: 3}, tf.Scale, "source scale falls through")

	light, ok := world.Get[SpotLight](f.world, spot)
	require.True(t, ok, "nested construct hook ran")
	assert.Equal(t, float64(7), light.Strength, "instance data beats source defaults")

	visible, ok := world.Get[Visible](f.world, spot)
	require.True(t, ok, "instance component overrides land on the instance root")
	assert.False(t, visible.Visible)

	findChild(t, f.world, spot, Name{Value: "Cone"})
}

func TestSpawn_SourceVariantMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "spot.prefab.hcl", `
prefab "Lamp" {
  entity { id = 1 }
}
`)
	path := f.write(t, "scene.prefab.hcl", `
prefab "Lamp" {
  instance "Spot" {
    id = 1
    source { path = "spot.prefab.hcl" }
  }
}
`)

	_, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})

	require.ErrorIs(t, err, ErrSourceMismatch)
	assert.Zero(t, f.world.Count(), "failed spawn leaves nothing behind")
}

func TestSpawn_SourceUUIDMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "spot.prefab.hcl", `
prefab "Spot" {
  uuid = "9b2a7a2e-63a4-4a2e-9ed1-377a4f3f7a52"
  entity { id = 1 }
}
`)
	path := f.write(t, "scene.prefab.hcl", `
prefab "Lamp" {
  instance "Spot" {
    id = 1
    source {
      path = "spot.prefab.hcl"
      uuid = "76500818-9b39-4655-9d32-8f1ac0ecbb41"
    }
  }
}
`)

	_, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})

	require.ErrorIs(t, err, ErrSourceMismatch)
	assert.Zero(t, f.world.Count())
}

func TestSpawn_UnknownComponentRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  entity { id = 1 }
  entity {
    id = 2
    component "Nonexistent" {
      value = 1
    }
  }
}
`)

	_, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown component "Nonexistent"`)
	assert.Zero(t, f.world.Count())
}

func TestSpawn_ConstructFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  defaults {
    light_strength = -1
  }
  entity { id = 1 }
}
`)

	_, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "light strength must not be negative")
	assert.Zero(t, f.world.Count())
}

func TestSpawn_NotLoadedHandle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "broken.prefab.hcl", `prefab "Lamp" { entity { id = `)

	_, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})

	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestSpawn_UnreadySourceBecomesPlaceholder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "scene.prefab.hcl", `
prefab "Lamp" {
  instance "Spot" {
    id = 1
    source { path = "spot.prefab.hcl" }
    transform {
      position = vec3(4, 0, 0)
    }
  }
}
`)

	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{})
	require.NoError(t, err)

	require.Len(t, f.world.Children(root), 1)
	stub := f.world.Children(root)[0]

	ph, ok := world.Get[Placeholder](f.world, stub)
	require.True(t, ok)
	assert.Equal(t, "Spot", ph.Variant)
	tf, _ := world.Get[model.Transform](f.world, stub)
	assert.Equal(t, model.Vec3{X: 4}, tf.Position)
	assert.Equal(t, 1, f.spawner.PendingCount())
}

func TestProcessPending_CompletesOnceSourceIsReady(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	scenePath := f.write(t, "scene.prefab.hcl", `
prefab "Lamp" {
  instance "Spot" {
    id = 1
    source { path = "spot.prefab.hcl" }
  }
}
`)

	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, scenePath), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, f.spawner.PendingCount())
	stub := f.world.Children(root)[0]

	// Still unready, nothing happens.
	n, err := f.spawner.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Equal(t, 1, f.spawner.PendingCount())

	spotPath := f.write(t, "spot.prefab.hcl", `
prefab "Spot" {
  entity {
    id = 1
    component "Name" {
      value = "Cone"
    }
  }
}
`)
	_, err = f.server.Reload(context.Background(), spotPath)
	require.NoError(t, err)

	n, err = f.spawner.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, f.spawner.PendingCount())

	assert.False(t, world.Has[Placeholder](f.world, stub), "placeholder tag dropped")
	findChild(t, f.world, stub, Name{Value: "Cone"})
}

func TestProcessPending_DropsDespawnedPlaceholders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	scenePath := f.write(t, "scene.prefab.hcl", `
prefab "Lamp" {
  instance "Spot" {
    id = 1
    source { path = "spot.prefab.hcl" }
  }
}
`)

	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, scenePath), Options{})
	require.NoError(t, err)
	f.world.Despawn(root)

	n, err := f.spawner.ProcessPending(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.spawner.PendingCount())
}

func TestSpawn_UnderParent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.write(t, "lamp.prefab.hcl", `
prefab "Lamp" {
  entity { id = 1 }
}
`)

	anchor := f.world.Spawn()
	root, err := f.spawner.Spawn(context.Background(), f.world, f.load(t, path), Options{Parent: &anchor})
	require.NoError(t, err)

	parent, ok := f.world.Parent(root)
	require.True(t, ok)
	assert.Equal(t, anchor, parent)
}
