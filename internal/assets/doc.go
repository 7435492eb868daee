// Package assets owns the loaded prefab documents. The Server caches
// documents by canonical path, follows nested source references, tracks the
// dependency graph between documents, and reports per-document readiness so
// the spawner knows when a template and everything it nests can be
// instantiated.
package assets
