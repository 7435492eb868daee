// Package builtin registers the stock component and prefab variant set:
// the components a document can attach by alias and the variants that
// construct common scene content without a hand-written hook per project.
package builtin

import "github.com/vk/prefabgo/internal/registry"

// Module registers the stock components and variants.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) error {
	for _, prototype := range []any{
		Name{},
		Visible{},
		PointLight{},
		DirectionalLight{},
		StaticMesh{},
		&LookAt{},
	} {
		if err := r.RegisterComponent(prototype); err != nil {
			return err
		}
	}

	variants := []struct {
		alias string
		spec  registry.PrefabSpec
	}{
		{"Lamp", registry.PrefabSpec{Data: LampData{}, Construct: constructLamp}},
		{"Sun", registry.PrefabSpec{Data: SunData{}, Construct: constructSun}},
		{"Cube", registry.PrefabSpec{Data: CubeData{}, Construct: constructCube}},
		{"StaticMesh", registry.PrefabSpec{Data: StaticMeshData{}, Construct: constructStaticMesh}},
	}
	for _, v := range variants {
		if err := r.RegisterPrefabAliased(v.alias, v.spec); err != nil {
			return err
		}
	}
	return nil
}
