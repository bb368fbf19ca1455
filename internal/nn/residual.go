package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/stream/internal/tensor"
)

// Residual is a skip connection: it runs its layers in order and adds the
// input back to the result.
//
//	y = layers[n-1](...layers[0](x)) + x
//
// The pipeline must preserve the input shape exactly; Forward panics with a
// "residual:" message otherwise. No broadcasting takes place on the skip-add.
//
// Residual is a Group, not a Module: a Stream registers the parameterized
// sub-layers individually as layer_<i>_<j>, descending into nested groups.
type Residual[B tensor.Backend] struct {
	layers []Layer[B]
	mode   Mode
}

// NewResidual creates a residual group. It panics when no layers are given.
func NewResidual[B tensor.Backend](layers ...Layer[B]) *Residual[B] {
	if len(layers) == 0 {
		panic("residual: at least one layer is required")
	}
	return &Residual[B]{layers: append([]Layer[B](nil), layers...)}
}

// Forward computes pipeline(x) + x.
func (r *Residual[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	y := x
	for _, l := range r.layers {
		y = l.Forward(y)
	}
	if !y.Shape().Equal(x.Shape()) {
		panic(fmt.Sprintf("residual: pipeline output shape %v differs from input shape %v", y.Shape(), x.Shape()))
	}
	return y.Add(x)
}

// Layers returns a copy of the wrapped layers in order.
func (r *Residual[B]) Layers() []Layer[B] {
	return append([]Layer[B](nil), r.layers...)
}

// SetMode forwards m to every mode-sensitive sub-layer.
func (r *Residual[B]) SetMode(m Mode) {
	r.mode = m
	for _, l := range r.layers {
		setMode(l, m)
	}
}

// Mode returns the mode last set on the group.
func (r *Residual[B]) Mode() Mode {
	return r.mode
}

func (r *Residual[B]) String() string {
	parts := make([]string, len(r.layers))
	for i, l := range r.layers {
		parts[i] = describe(l)
	}
	return fmt.Sprintf("Residual(%s)", strings.Join(parts, ", "))
}

// describe renders a layer with its String method when it has one.
func describe(l any) string {
	if s, ok := l.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", l)
}
