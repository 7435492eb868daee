package overrides

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type lampData struct {
	Strength float64
	Color    *[4]float64
	Tags     map[string]string
	Modes    []string
}

func TestMerge_StructFieldFallthrough(t *testing.T) {
	t.Parallel()

	weak := lampData{
		Strength: 1,
		Color:    &[4]float64{1, 1, 1, 1},
		Tags:     map[string]string{"room": "study", "kind": "desk"},
		Modes:    []string{"dim", "bright"},
	}
	strong := lampData{
		Strength: 2,
		Tags:     map[string]string{"room": "attic"},
	}

	got := Merge(strong, weak).(lampData)

	assert.Equal(t, float64(2), got.Strength, "declared scalar wins")
	assert.Equal(t, &[4]float64{1, 1, 1, 1}, got.Color, "nil pointer falls through")
	assert.Equal(t, map[string]string{"room": "attic", "kind": "desk"}, got.Tags, "maps merge key-wise")
	assert.Equal(t, []string{"dim", "bright"}, got.Modes, "nil slice falls through")
}

func TestMerge_NestedStructs(t *testing.T) {
	t.Parallel()

	type emission struct {
		Strength float64
		Radius   float64
	}
	type rig struct {
		Name     string
		Emission emission
		Tags     map[string]string
	}

	weak := rig{
		Name:     "ceiling",
		Emission: emission{Strength: 1, Radius: 4},
		Tags:     map[string]string{"floor": "2"},
	}
	strong := rig{Emission: emission{Strength: 6}}

	got := Merge(strong, weak).(rig)

	want := rig{
		Name:     "ceiling",
		Emission: emission{Strength: 6, Radius: 4},
		Tags:     map[string]string{"floor": "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged payload mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_SliceReplacesWholesale(t *testing.T) {
	t.Parallel()

	weak := lampData{Modes: []string{"dim", "bright"}}
	strong := lampData{Modes: []string{"strobe"}}

	got := Merge(strong, weak).(lampData)

	assert.Equal(t, []string{"strobe"}, got.Modes)
}

func TestMergeLayers_StrongestFirst(t *testing.T) {
	t.Parallel()

	instance := lampData{Strength: 3}
	variantDefault := lampData{Strength: 2, Modes: []string{"dim"}}
	blank := lampData{Color: &[4]float64{1, 0, 0, 1}}

	got := MergeLayers(instance, variantDefault, blank)

	assert.Equal(t, float64(3), got.Strength)
	assert.Equal(t, []string{"dim"}, got.Modes)
	assert.Equal(t, &[4]float64{1, 0, 0, 1}, got.Color)
}

func TestMergeLayers_Empty(t *testing.T) {
	t.Parallel()

	got := MergeLayers[lampData]()

	assert.Equal(t, lampData{}, got)
}

func TestAttrs_StrongShadowsWeak(t *testing.T) {
	t.Parallel()

	expr := func(v int64) hcl.Expression {
		return &hclsyntax.LiteralValueExpr{Val: cty.NumberIntVal(v)}
	}
	weak := map[string]hcl.Expression{"light_strength": expr(1), "range": expr(10)}
	strong := map[string]hcl.Expression{"light_strength": expr(2)}

	got := Attrs(strong, weak)

	require.Len(t, got, 2)
	v, _ := got["light_strength"].Value(nil)
	assert.True(t, v.RawEquals(cty.NumberIntVal(2)))
	v, _ = got["range"].Value(nil)
	assert.True(t, v.RawEquals(cty.NumberIntVal(10)))
}

func TestAttrs_EmptySides(t *testing.T) {
	t.Parallel()

	weak := map[string]hcl.Expression{"a": &hclsyntax.LiteralValueExpr{Val: cty.True}}

	assert.Equal(t, weak, Attrs(nil, weak))
	assert.Equal(t, weak, Attrs(weak, nil))
}
