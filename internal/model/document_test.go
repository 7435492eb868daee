package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint64) *uint64 { return &v }

func TestDocumentValidate_Valid(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant: "Prefab",
		ID:      uintPtr(4000),
		Entities: []*Entity{
			{ID: 1},
			{ID: 2, Parent: uintPtr(1)},
		},
		Instances: []*Instance{
			{Variant: "Lamp", ID: 3, Parent: uintPtr(2), Source: &Source{Path: "lamp.prefab.hcl"}},
		},
	}

	require.NoError(t, doc.Validate())
}

func TestDocumentValidate_ForwardParentReference(t *testing.T) {
	t.Parallel()

	// The id space is load-order independent: an entity may parent itself
	// under an instance declared after it.
	doc := &Document{
		Variant: "Prefab",
		Entities: []*Entity{
			{ID: 1, Parent: uintPtr(2)},
			{ID: 2},
		},
	}

	require.NoError(t, doc.Validate())
}

func TestDocumentValidate_DuplicateID(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant: "Prefab",
		Entities: []*Entity{
			{ID: 7},
			{ID: 7},
		},
	}

	err := doc.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id 7")
}

func TestDocumentValidate_UnknownParent(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant:  "Prefab",
		Entities: []*Entity{{ID: 1, Parent: uintPtr(99)}},
	}

	err := doc.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent 99")
}

func TestDocumentValidate_SelfParent(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant:  "Prefab",
		Entities: []*Entity{{ID: 1, Parent: uintPtr(1)}},
	}

	err := doc.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be its own parent")
}

func TestDocumentValidate_ReservedOverride(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant: "Prefab",
		Instances: []*Instance{
			{
				Variant: "Lamp",
				ID:      1,
				Source:  &Source{Path: "lamp.prefab.hcl"},
				Components: []*Component{
					{Type: ComponentTransform},
				},
			},
		},
	}

	err := doc.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `component "Transform"`)
}

func TestDocumentValidate_EmptySource(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant: "Prefab",
		Instances: []*Instance{
			{Variant: "Lamp", ID: 1, Source: &Source{}},
		},
	}

	err := doc.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither path nor uuid")
}

func TestDocumentSourcePaths_Deduplicates(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Variant: "Prefab",
		Instances: []*Instance{
			{Variant: "Lamp", ID: 1, Source: &Source{Path: "lamp.prefab.hcl"}},
			{Variant: "Lamp", ID: 2, Source: &Source{Path: "lamp.prefab.hcl"}},
			{Variant: "Crate", ID: 3, Source: &Source{Path: "crate.prefab.hcl"}},
			{Variant: "Ghost", ID: 4},
		},
	}

	assert.Equal(t, []string{"lamp.prefab.hcl", "crate.prefab.hcl"}, doc.SourcePaths())
}
