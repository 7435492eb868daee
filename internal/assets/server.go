package assets

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/vk/prefabgo/internal/ctxlog"
	"github.com/vk/prefabgo/internal/dag"
	"github.com/vk/prefabgo/internal/fsutil"
	"github.com/vk/prefabgo/internal/hcl"
	"github.com/vk/prefabgo/internal/model"
)

// Loader parses one prefab document. Satisfied by hcl.Loader.
type Loader interface {
	Load(ctx context.Context, path string) (*model.Document, error)
}

// Server loads prefab documents and tracks the nesting graph between them.
type Server struct {
	loader Loader

	mu      sync.Mutex
	handles map[string]*Handle
	graph   *dag.Graph
}

// NewServer returns an asset server backed by the given document loader.
func NewServer(loader Loader) *Server {
	return &Server{
		loader:  loader,
		handles: make(map[string]*Handle),
		graph:   dag.New(),
	}
}

// Load returns the handle for the document at path, loading it and every
// document it nests on first use. The returned handle is StateReady when
// the whole nesting closure loaded, StateFailed when the document itself
// did not load, and StateLoading when the document loaded but a nested
// source did not.
//
// Load never returns an error for a bad document; the failure is recorded
// on the handle so callers can still spawn placeholders. The error return
// covers structural problems, currently only cyclic nesting.
func (s *Server) Load(ctx context.Context, path string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// States are recomputed even when the load failed: documents pulled in
	// before the failure still deserve their final state.
	handle, err := s.load(ctx, filepath.Clean(path))
	s.recomputeStates()
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// load assumes s.mu is held.
func (s *Server) load(ctx context.Context, path string) (*Handle, error) {
	if handle, ok := s.handles[path]; ok {
		return handle, nil
	}

	logger := ctxlog.FromContext(ctx)
	handle := &Handle{path: path, st: StateLoading}
	s.handles[path] = handle
	s.graph.AddNode(path)

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		logger.Warn("Prefab document failed to load.", "path", path, "error", err)
		handle.set(nil, StateFailed, err)
		return handle, nil
	}
	handle.set(doc, StateLoading, nil)

	for _, ref := range doc.SourcePaths() {
		depPath := fsutil.ResolveSource(path, ref)
		if _, err := s.load(ctx, depPath); err != nil {
			return nil, err
		}
		if err := s.graph.AddEdge(path, depPath); err != nil {
			return nil, fmt.Errorf("source reference %s -> %s: %w", path, depPath, err)
		}
		if err := s.graph.DetectCycle(); err != nil {
			return nil, s.failCyclic(handle, path, depPath, err)
		}
	}
	return handle, nil
}

// failCyclic rolls back the edge that closed a cycle and fails the
// offending handle so no later state pass can promote it. Its remaining
// valid edges stay recorded.
func (s *Server) failCyclic(handle *Handle, path, depPath string, err error) error {
	s.graph.RemoveEdge(path, depPath)
	cycleErr := fmt.Errorf("cyclic prefab nesting via %s: %w", path, err)
	handle.set(nil, StateFailed, cycleErr)
	return cycleErr
}

// Get returns the cached handle for path without loading it.
func (s *Server) Get(path string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.handles[filepath.Clean(path)]
	return handle, ok
}

// Handles returns every cached handle.
func (s *Server) Handles() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, 0, len(s.handles))
	for _, handle := range s.handles {
		out = append(out, handle)
	}
	return out
}

// Resolve returns the handle a source reference points to, loading it if it
// is not cached yet. fromPath is the document making the reference.
func (s *Server) Resolve(ctx context.Context, fromPath, ref string) (*Handle, error) {
	return s.Load(ctx, fsutil.ResolveSource(fromPath, ref))
}

// LoadDir loads every prefab document found under root.
func (s *Server) LoadDir(ctx context.Context, root string) ([]*Handle, error) {
	paths, err := fsutil.FindFilesByExtension(root, hcl.Extension)
	if err != nil {
		return nil, fmt.Errorf("scanning %s for prefab files: %w", root, err)
	}

	handles := make([]*Handle, 0, len(paths))
	for _, path := range paths {
		handle, err := s.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

// Reload re-parses the document at path in place and re-resolves its source
// references. Every transitive dependent is re-evaluated, so a document
// that was waiting on a previously broken source becomes Ready once the
// source is fixed, and one that nested a now-broken source drops out of
// Ready.
func (s *Server) Reload(ctx context.Context, path string) (*Handle, error) {
	s.mu.Lock()

	path = filepath.Clean(path)
	handle, ok := s.handles[path]
	if !ok {
		s.mu.Unlock()
		return s.Load(ctx, path)
	}
	defer s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	logger.Info("Reloading prefab document.", "path", path)
	s.graph.RemoveEdges(path)

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		handle.set(nil, StateFailed, err)
		s.recomputeStates()
		return handle, nil
	}
	handle.set(doc, StateLoading, nil)

	for _, ref := range doc.SourcePaths() {
		depPath := fsutil.ResolveSource(path, ref)
		if _, err := s.load(ctx, depPath); err != nil {
			return nil, err
		}
		if err := s.graph.AddEdge(path, depPath); err != nil {
			return nil, fmt.Errorf("source reference %s -> %s: %w", path, depPath, err)
		}
		if err := s.graph.DetectCycle(); err != nil {
			cycleErr := s.failCyclic(handle, path, depPath, err)
			s.recomputeStates()
			return nil, cycleErr
		}
	}

	s.recomputeStates()
	return handle, nil
}

// Dependents returns the canonical paths of every document that nests the
// one at path, directly or through intermediates.
func (s *Server) Dependents(path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Dependents(filepath.Clean(path))
}

// recomputeStates re-derives every handle's state from its parse result and
// its dependencies' states, dependencies first. Assumes s.mu is held and
// the graph is acyclic.
func (s *Server) recomputeStates() {
	order, err := s.graph.TopoSort()
	if err != nil {
		// Load and Reload reject cycles before they commit, so the
		// graph is always sortable here.
		panic(fmt.Sprintf("assets: dependency graph not sortable: %v", err))
	}

	for _, path := range order {
		handle, ok := s.handles[path]
		if !ok {
			continue
		}
		if handle.Document() == nil {
			continue // stays StateFailed
		}

		state := StateReady
		deps, _ := s.graph.Dependencies(path)
		for _, dep := range deps {
			depHandle, ok := s.handles[dep]
			if !ok || depHandle.State() != StateReady {
				state = StateLoading
				break
			}
		}
		handle.setState(state)
	}
}
