// Package app wires the prefab toolchain together: it owns the logger, the
// descriptor registry, the asset server, and the spawner, and maps the CLI
// commands onto them.
package app
