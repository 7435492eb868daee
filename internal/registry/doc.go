// Package registry holds the component and prefab-variant descriptors a
// running application has registered, keyed both by alias (the name used in
// prefab documents) and by Go type.
//
// Documents stay untyped until spawn time; the registry is what turns a
// tagged payload like `component "PointLight" { ... }` into a concrete Go
// value, and a `prefab "Lamp"` document into its typed defaults and
// construct hook.
package registry
