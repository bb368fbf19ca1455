package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/stream/internal/parallel"
	"github.com/born-ml/stream/internal/tensor"
)

// conv2dNaive is a direct convolution used as the reference.
func conv2dNaive(input, kernel []float64, g convGeom) []float64 {
	out := make([]float64, g.n*g.outPlane)
	for n := 0; n < g.n; n++ {
		for co := 0; co < g.cOut; co++ {
			for oh := 0; oh < g.hOut; oh++ {
				for ow := 0; ow < g.wOut; ow++ {
					var sum float64
					for ci := 0; ci < g.cIn; ci++ {
						for kh := 0; kh < g.kh; kh++ {
							for kw := 0; kw < g.kw; kw++ {
								h := oh*g.stride - g.padding + kh
								w := ow*g.stride - g.padding + kw
								if h < 0 || h >= g.h || w < 0 || w >= g.w {
									continue
								}
								sum += input[((n*g.cIn+ci)*g.h+h)*g.w+w] * kernel[((co*g.cIn+ci)*g.kh+kh)*g.kw+kw]
							}
						}
					}
					out[((n*g.cOut+co)*g.hOut+oh)*g.wOut+ow] = sum
				}
			}
		}
	}
	return out
}

func seq(n int, scale float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i%7-3) * scale
	}
	return s
}

func TestConv2D_MatchesNaive(t *testing.T) {
	tests := []struct {
		name            string
		in, k           tensor.Shape
		stride, padding int
	}{
		{"basic", tensor.Shape{1, 1, 4, 4}, tensor.Shape{1, 1, 3, 3}, 1, 0},
		{"padded", tensor.Shape{2, 3, 5, 5}, tensor.Shape{4, 3, 3, 3}, 1, 1},
		{"strided", tensor.Shape{2, 2, 7, 6}, tensor.Shape{3, 2, 3, 2}, 2, 1},
	}

	for _, par := range []parallel.Config{parallel.Sequential(), parallel.DefaultConfig()} {
		b := NewWithConfig(par)
		for _, tt := range tests {
			input := f64(t, seq(tt.in.NumElements(), 0.5), tt.in...)
			kernel := f64(t, seq(tt.k.NumElements(), 0.25), tt.k...)
			g := newConvGeom(tt.in, tt.k, tt.stride, tt.padding)

			got := b.Conv2D(input, kernel, tt.stride, tt.padding)
			want := conv2dNaive(input.AsFloat64(), kernel.AsFloat64(), g)

			assert.Equal(t, tensor.Shape{g.n, g.cOut, g.hOut, g.wOut}, got.Shape(), tt.name)
			if !floats.EqualApprox(got.AsFloat64(), want, 1e-9) {
				t.Errorf("%s: conv2d mismatch\ngot  %v\nwant %v", tt.name, got.AsFloat64(), want)
			}
		}
	}
}

// The backward kernels are the adjoints of the forward pass:
// <conv(x, k), g> == <x, dX(g)> == <k, dK(g)>.
func TestConv2DBackward_Adjoint(t *testing.T) {
	b := New()
	in, ks := tensor.Shape{2, 2, 5, 4}, tensor.Shape{3, 2, 3, 3}
	const stride, padding = 2, 1

	x := f64(t, seq(in.NumElements(), 0.3), in...)
	k := f64(t, seq(ks.NumElements(), 0.7), ks...)
	y := b.Conv2D(x, k, stride, padding)
	g := f64(t, seq(y.NumElements(), 1.1), y.Shape()...)

	lhs := floats.Dot(y.AsFloat64(), g.AsFloat64())
	dx := b.Conv2DInputBackward(x, k, g, stride, padding)
	dk := b.Conv2DKernelBackward(x, k, g, stride, padding)

	assert.Equal(t, in, dx.Shape())
	assert.Equal(t, ks, dk.Shape())
	assert.InDelta(t, lhs, floats.Dot(x.AsFloat64(), dx.AsFloat64()), 1e-9)
	assert.InDelta(t, lhs, floats.Dot(k.AsFloat64(), dk.AsFloat64()), 1e-9)
}

func TestConv2D_Float32(t *testing.T) {
	b := New()
	x := f32(t, []float32{1, 2, 3, 4}, 1, 1, 2, 2)
	k := f32(t, []float32{1, 1, 1, 1}, 1, 1, 2, 2)

	assert.Equal(t, []float32{10}, b.Conv2D(x, k, 1, 0).AsFloat32())
}

func TestConv2D_Errors(t *testing.T) {
	b := New()
	x := f32(t, make([]float32, 16), 1, 1, 4, 4)

	assert.Panics(t, func() { b.Conv2D(x, f32(t, make([]float32, 18), 1, 2, 3, 3), 1, 0) }, "channel mismatch")
	assert.Panics(t, func() { b.Conv2D(x, f32(t, make([]float32, 25), 1, 1, 5, 5), 1, 0) }, "kernel larger than input")
	assert.Panics(t, func() { b.Conv2D(x, f32(t, make([]float32, 9), 1, 1, 3, 3), 0, 0) }, "zero stride")
	assert.Panics(t, func() { b.Conv2D(f32(t, make([]float32, 4), 2, 2), x, 1, 0) }, "rank")
}
