package nn

import (
	"fmt"
	"slices"

	"github.com/born-ml/stream/internal/tensor"
)

// BroadcastTo expands the input to a fixed shape following NumPy broadcasting rules.
type BroadcastTo[B tensor.Backend] struct {
	shape tensor.Shape
}

// NewBroadcastTo creates a BroadcastTo layer.
func NewBroadcastTo[B tensor.Backend](shape ...int) *BroadcastTo[B] {
	return &BroadcastTo[B]{shape: tensor.Shape(shape).Clone()}
}

// Forward broadcasts x.
func (b *BroadcastTo[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Expand(b.shape)
}

func (b *BroadcastTo[B]) String() string { return fmt.Sprintf("BroadcastTo(shape=%v)", []int(b.shape)) }

// ExpandDims inserts a unit axis at axis. Negative axes count from the end of the result.
type ExpandDims[B tensor.Backend] struct {
	axis int
}

// NewExpandDims creates an ExpandDims layer.
func NewExpandDims[B tensor.Backend](axis int) *ExpandDims[B] {
	return &ExpandDims[B]{axis: axis}
}

// Forward inserts the axis.
func (e *ExpandDims[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Unsqueeze(e.axis)
}

func (e *ExpandDims[B]) String() string { return fmt.Sprintf("ExpandDims(axis=%d)", e.axis) }

// Flatten reshapes the input to one dimension.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens x to shape [NumElements].
func (f *Flatten[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Reshape(x.NumElements())
}

func (f *Flatten[B]) String() string { return "Flatten()" }

// Reshape changes the input shape. One dimension may be -1 and is inferred.
type Reshape[B tensor.Backend] struct {
	shape []int
}

// NewReshape creates a Reshape layer.
func NewReshape[B tensor.Backend](shape ...int) *Reshape[B] {
	return &Reshape[B]{shape: slices.Clone(shape)}
}

// Forward reshapes x.
func (r *Reshape[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Reshape(r.shape...)
}

func (r *Reshape[B]) String() string { return fmt.Sprintf("Reshape(shape=%v)", r.shape) }

// RollAxis moves axis so that it lies before position start (NumPy rollaxis).
type RollAxis[B tensor.Backend] struct {
	axis, start int
}

// NewRollAxis creates a RollAxis layer.
func NewRollAxis[B tensor.Backend](axis, start int) *RollAxis[B] {
	return &RollAxis[B]{axis: axis, start: start}
}

// Forward rolls the axis.
func (r *RollAxis[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Transpose(rollAxisPerm(len(x.Shape()), r.axis, r.start)...)
}

func rollAxisPerm(ndim, axis, start int) []int {
	axis = tensor.NormalizeAxis(axis, ndim)
	if start < 0 {
		start += ndim
	}
	if start < 0 || start > ndim {
		panic(fmt.Sprintf("rollaxis: start %d out of range for rank %d", start, ndim))
	}
	if axis < start {
		start--
	}

	perm := make([]int, 0, ndim)
	for i := 0; i < ndim; i++ {
		if i != axis {
			perm = append(perm, i)
		}
	}
	return slices.Insert(perm, start, axis)
}

func (r *RollAxis[B]) String() string {
	return fmt.Sprintf("RollAxis(axis=%d, start=%d)", r.axis, r.start)
}

// Squeeze removes unit axes. With no axes, every unit axis is removed.
type Squeeze[B tensor.Backend] struct {
	axes []int
}

// NewSqueeze creates a Squeeze layer.
func NewSqueeze[B tensor.Backend](axes ...int) *Squeeze[B] {
	return &Squeeze[B]{axes: slices.Clone(axes)}
}

// Forward removes the configured unit axes.
func (s *Squeeze[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	drop := make([]bool, len(shape))
	if len(s.axes) == 0 {
		for i, d := range shape {
			drop[i] = d == 1
		}
	}
	for _, a := range s.axes {
		a = tensor.NormalizeAxis(a, len(shape))
		if shape[a] != 1 {
			panic(fmt.Sprintf("squeeze: dimension %d has size %d, not 1", a, shape[a]))
		}
		drop[a] = true
	}

	out := make([]int, 0, len(shape))
	for i, d := range shape {
		if !drop[i] {
			out = append(out, d)
		}
	}
	return x.Reshape(out...)
}

func (s *Squeeze[B]) String() string { return fmt.Sprintf("Squeeze(axes=%v)", s.axes) }

// SwapAxes exchanges two axes.
type SwapAxes[B tensor.Backend] struct {
	axis1, axis2 int
}

// NewSwapAxes creates a SwapAxes layer.
func NewSwapAxes[B tensor.Backend](axis1, axis2 int) *SwapAxes[B] {
	return &SwapAxes[B]{axis1: axis1, axis2: axis2}
}

// Forward swaps the axes.
func (s *SwapAxes[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	ndim := len(x.Shape())
	a := tensor.NormalizeAxis(s.axis1, ndim)
	b := tensor.NormalizeAxis(s.axis2, ndim)

	perm := make([]int, ndim)
	for i := range perm {
		perm[i] = i
	}
	perm[a], perm[b] = perm[b], perm[a]
	return x.Transpose(perm...)
}

func (s *SwapAxes[B]) String() string {
	return fmt.Sprintf("SwapAxes(axis1=%d, axis2=%d)", s.axis1, s.axis2)
}

// Tile repeats the input reps[i] times along each axis (NumPy tile).
// When reps and the input rank differ, the shorter one is padded with leading 1s.
type Tile[B tensor.Backend] struct {
	reps []int
}

// NewTile creates a Tile layer.
func NewTile[B tensor.Backend](reps ...int) *Tile[B] {
	return &Tile[B]{reps: slices.Clone(reps)}
}

// Forward tiles x by reshaping to [1, s0, 1, s1, ...], expanding the unit
// axes to the repeat counts and merging each (rep, size) pair.
func (t *Tile[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	n := max(len(shape), len(t.reps))
	dims := padLeft(shape, n)
	reps := padLeft(t.reps, n)

	interleaved := make([]int, 0, 2*n)
	expanded := make(tensor.Shape, 0, 2*n)
	out := make([]int, n)
	for i := range n {
		if reps[i] <= 0 {
			panic(fmt.Sprintf("tile: repeat counts must be positive, got %v", t.reps))
		}
		interleaved = append(interleaved, 1, dims[i])
		expanded = append(expanded, reps[i], dims[i])
		out[i] = reps[i] * dims[i]
	}
	return x.Reshape(interleaved...).Expand(expanded).Reshape(out...)
}

func padLeft(s []int, n int) []int {
	out := make([]int, n-len(s), n)
	for i := range out {
		out[i] = 1
	}
	return append(out, s...)
}

func (t *Tile[B]) String() string { return fmt.Sprintf("Tile(reps=%v)", t.reps) }

// Transpose permutes axes. With no axes, the axis order is reversed.
type Transpose[B tensor.Backend] struct {
	axes []int
}

// NewTranspose creates a Transpose layer.
func NewTranspose[B tensor.Backend](axes ...int) *Transpose[B] {
	return &Transpose[B]{axes: slices.Clone(axes)}
}

// Forward permutes x.
func (t *Transpose[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Transpose(t.axes...)
}

func (t *Transpose[B]) String() string { return fmt.Sprintf("Transpose(axes=%v)", t.axes) }
