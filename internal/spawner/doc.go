// Package spawner instantiates loaded prefab documents into a world. It
// remaps the stable entity ids of a document onto freshly spawned entities,
// reparents top-level entities under the instance root, layers instance
// overrides over source defaults, and runs each variant's construct hook.
// Instances whose source document is not ready spawn as placeholders and
// can be completed later with ProcessPending.
package spawner
