package assets

import (
	"sync"

	"github.com/vk/prefabgo/internal/model"
)

// State describes where a prefab document is in its loading lifecycle.
type State int

const (
	// StateLoading means the document parsed but at least one nested
	// source is not Ready yet.
	StateLoading State = iota
	// StateReady means the document and every document it nests parsed
	// and validated.
	StateReady
	// StateFailed means the document itself could not be loaded.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle is a stable reference to one prefab document in the server's
// cache. The handle survives reloads; its document and state change
// underneath callers.
type Handle struct {
	path string

	mu  sync.RWMutex
	doc *model.Document
	st  State
	err error
}

// Path returns the canonical path the handle was loaded from.
func (h *Handle) Path() string {
	return h.path
}

// Document returns the parsed document, or nil while the handle is failed.
func (h *Handle) Document() *model.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc
}

// State reports the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.st
}

// Err returns the load error for a failed handle, nil otherwise.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *Handle) set(doc *model.Document, st State, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.doc = doc
	h.st = st
	h.err = err
}

func (h *Handle) setState(st State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.st = st
}
