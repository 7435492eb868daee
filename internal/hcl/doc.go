// Package hcl implements the concrete prefab template grammar on top of
// hashicorp/hcl: one `prefab` block per document, holding `entity` and
// `instance` blocks plus `defaults` and `transform` payloads.
//
// The loader translates parsed files into the format-agnostic model;
// component payloads stay as raw expressions so the registry can decode them
// later, while structural fields (ids, parents, transforms, sources) are
// evaluated eagerly so validation can run before anything spawns.
package hcl
