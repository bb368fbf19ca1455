package tensor

import (
	"fmt"
	"slices"
)

// Shape is the list of tensor dimensions. An empty shape is a scalar.
type Shape []int

// NumElements returns the product of the dimensions (1 for a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports the first non-positive dimension.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(d int) bool { return d <= 0 }); i >= 0 {
		return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, s[i])
	}
	return nil
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides returns row-major strides: stride[i] is the product of the
// dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// NormalizeAxis resolves a possibly negative axis against a rank.
// Panics if the axis is out of range.
func NormalizeAxis(axis, rank int) int {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		panic(fmt.Sprintf("axis %d out of range for rank %d", axis, rank))
	}
	return axis
}

// BroadcastShapes aligns a and b from the right; a missing or unit
// dimension stretches to match the other. The flag reports whether either
// side had to be stretched.
//
//	(3, 1) , (3, 5) -> (3, 5), true
//	(5)    , (3, 5) -> (3, 5), true
//	(3, 5) , (3, 5) -> (3, 5), false
//	(3, 4) , (3, 5) -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	n := max(len(a), len(b))
	pa, pb := a.padTo(n), b.padTo(n)

	result := make(Shape, n)
	stretched := len(a) != len(b)
	for i := range n {
		switch da, db := pa[i], pb[i]; {
		case da == db:
			result[i] = da
		case da == 1:
			result[i], stretched = db, true
		case db == 1:
			result[i], stretched = da, true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, i, da, db)
		}
	}
	return result, stretched, nil
}

// padTo prepends unit dimensions until the shape has rank n.
func (s Shape) padTo(n int) Shape {
	out := make(Shape, n-len(s), n)
	for i := range out {
		out[i] = 1
	}
	return append(out, s...)
}
