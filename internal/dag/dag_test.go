package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdge_UnknownNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("scene.prefab.hcl")

	err := g.AddEdge("scene.prefab.hcl", "lamp.prefab.hcl")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "lamp.prefab.hcl"`)
}

func TestAddEdge_SelfReference(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("scene.prefab.hcl")

	err := g.AddEdge("scene.prefab.hcl", "scene.prefab.hcl")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot depend on itself")
}

func TestDependenciesAndDependents(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"scene", "room", "lamp", "bulb"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("scene", "room"))
	require.NoError(t, g.AddEdge("room", "lamp"))
	require.NoError(t, g.AddEdge("lamp", "bulb"))

	deps, err := g.Dependencies("room")
	require.NoError(t, err)
	assert.Equal(t, []string{"lamp"}, deps)

	// Dependents are transitive: touching the bulb invalidates everything
	// above it.
	dependents, err := g.Dependents("bulb")
	require.NoError(t, err)
	assert.Equal(t, []string{"lamp", "room", "scene"}, dependents)
}

func TestRemoveEdge_DropsOnlyThatEdge(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"scene", "lamp", "rug"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("scene", "lamp"))
	require.NoError(t, g.AddEdge("scene", "rug"))

	g.RemoveEdge("scene", "rug")

	deps, err := g.Dependencies("scene")
	require.NoError(t, err)
	assert.Equal(t, []string{"lamp"}, deps)

	dependents, err := g.Dependents("rug")
	require.NoError(t, err)
	assert.Empty(t, dependents)

	// Unknown endpoints are a no-op.
	g.RemoveEdge("scene", "absent")
	g.RemoveEdge("absent", "lamp")
}

func TestDetectCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.DetectCycle())

	require.NoError(t, g.AddEdge("c", "a"))

	err := g.DetectCycle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestTopoSort(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"scene", "lamp", "bulb"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("scene", "lamp"))
	require.NoError(t, g.AddEdge("lamp", "bulb"))

	order, err := g.TopoSort()

	require.NoError(t, err)
	require.Len(t, order, 3)
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["bulb"], pos["lamp"])
	assert.Less(t, pos["lamp"], pos["scene"])
}

func TestRemoveEdges(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("scene")
	g.AddNode("lamp")
	require.NoError(t, g.AddEdge("scene", "lamp"))

	g.RemoveEdges("scene")

	deps, err := g.Dependencies("scene")
	require.NoError(t, err)
	assert.Empty(t, deps)

	dependents, err := g.Dependents("lamp")
	require.NoError(t, err)
	assert.Empty(t, dependents)
}
