package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// RGBA is a linear color value, as produced by the rgba template function.
type RGBA struct {
	R float64 `cty:"r"`
	G float64 `cty:"g"`
	B float64 `cty:"b"`
	A float64 `cty:"a"`
}

// White is the default color for light-emitting components.
func White() RGBA {
	return RGBA{R: 1, G: 1, B: 1, A: 1}
}

// RGBAFromCty converts a cty value produced by the rgba template function,
// or a bare four-element tuple, into an RGBA.
func RGBAFromCty(v cty.Value) (RGBA, error) {
	out := RGBA{}
	fields := []*float64{&out.R, &out.G, &out.B, &out.A}
	if err := numbersFromCty(v, []string{"r", "g", "b", "a"}, fields); err != nil {
		return RGBA{}, fmt.Errorf("expected an rgba value: %w", err)
	}
	return out, nil
}
