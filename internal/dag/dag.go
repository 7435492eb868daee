// Package dag tracks the dependency graph between prefab documents: an edge
// from A to B means A's scene instantiates B, so B must be loaded before A is
// ready and reloading B invalidates A.
package dag

import (
	"fmt"
	"sort"
	"sync"
)

type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// Graph is a mutable directed acyclic graph keyed by prefab document path.
// It is safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

// New returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode registers id in the graph. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that from depends on to. Both nodes must already exist and
// a node may not depend on itself.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("prefab %q cannot depend on itself", from)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("unknown node %q", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("unknown node %q", to)
	}

	fromNode.deps[to] = toNode
	toNode.dependents[from] = fromNode
	return nil
}

// RemoveEdge drops the single dependency edge from -> to, if present.
func (g *Graph) RemoveEdge(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fromNode, ok := g.nodes[from]
	if !ok {
		return
	}
	if toNode, ok := fromNode.deps[to]; ok {
		delete(toNode.dependents, from)
		delete(fromNode.deps, to)
	}
}

// RemoveEdges drops every outgoing dependency edge of id, keeping the node.
// Used when a document is reloaded and its source list may have changed.
func (g *Graph) RemoveEdges(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for depID, dep := range n.deps {
		delete(dep.dependents, id)
		delete(n.deps, depID)
	}
}

// Dependencies returns the ids the given node depends on, sorted.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return sortedKeys(n.deps), nil
}

// Dependents returns the ids that transitively depend on the given node,
// sorted. The node itself is not included.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", id)
	}

	seen := make(map[string]struct{})
	var walk func(n *node)
	walk = func(n *node) {
		for _, dep := range n.dependents {
			if _, ok := seen[dep.id]; ok {
				continue
			}
			seen[dep.id] = struct{}{}
			walk(dep)
		}
	}
	walk(start)

	out := make([]string, 0, len(seen))
	for depID := range seen {
		out = append(out, depID)
	}
	sort.Strings(out)
	return out, nil
}

// DetectCycle checks for a dependency cycle, returning a non-nil error naming
// one involved node when a cycle exists. A prefab that reaches itself through
// any chain of sources can never finish loading.
func (g *Graph) DetectCycle() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	done := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if done[n.id] {
			return nil
		}
		if onStack[n.id] {
			return fmt.Errorf("prefab dependency cycle involving %q", n.id)
		}
		onStack[n.id] = true
		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		onStack[n.id] = false
		done[n.id] = true
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopoSort returns every node ordered so that each one appears after all of
// its dependencies. Returns an error when the graph has a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	if err := g.DetectCycle(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var order []string
	done := make(map[string]bool)

	var visit func(n *node)
	visit = func(n *node) {
		if done[n.id] {
			return
		}
		done[n.id] = true
		for _, depID := range sortedKeys(n.deps) {
			visit(n.deps[depID])
		}
		order = append(order, n.id)
	}

	for _, id := range sortedKeys(g.nodes) {
		visit(g.nodes[id])
	}
	return order, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
