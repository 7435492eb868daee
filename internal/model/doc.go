// Package model defines the format-agnostic representation of a prefab
// document: the template a root entity uses to spawn a hierarchy of child
// entities and nested sub-prefabs, with per-instance overrides of transform,
// parenthood, and component data.
//
// The model is the single source of truth for the assets, spawner, and cli
// packages. The concrete template grammar lives in the hcl package; component
// payloads stay as raw expressions here so they can be decoded against the
// registry at spawn time.
package model
