package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/stream/internal/tensor"
)

func TestReshape(t *testing.T) {
	b := New()
	x := f32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	got := b.Reshape(x, tensor.Shape{3, 2})
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, x.AsFloat32(), got.AsFloat32())

	got.AsFloat32()[0] = 100
	assert.Equal(t, float32(1), x.AsFloat32()[0], "reshape must not alias its input")

	assert.Panics(t, func() { b.Reshape(x, tensor.Shape{4}) })
	assert.Panics(t, func() { b.Reshape(x, tensor.Shape{-6}) })
}

func TestTranspose(t *testing.T) {
	b := New()
	x := f64(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	got := b.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, got.AsFloat64())

	y := f64(t, seq(24, 1), 2, 3, 4)
	p := b.Transpose(y, 2, 0, 1)
	assert.Equal(t, tensor.Shape{4, 2, 3}, p.Shape())
	// p[k, i, j] == y[i, j, k]
	assert.Equal(t, y.AsFloat64()[(1*3+2)*4+3], p.AsFloat64()[(3*2+1)*3+2])

	back := b.Transpose(p, 1, 2, 0)
	assert.Equal(t, y.AsFloat64(), back.AsFloat64())

	assert.Panics(t, func() { b.Transpose(y, 0, 0, 1) })
	assert.Panics(t, func() { b.Transpose(y, 0, 1) })
}

func TestTranspose_Int32(t *testing.T) {
	b := New()
	x := tensor.MustNewRaw(tensor.Shape{2, 2}, tensor.Int32, tensor.CPU)
	copy(x.AsInt32(), []int32{1, 2, 3, 4})

	assert.Equal(t, []int32{1, 3, 2, 4}, b.Transpose(x).AsInt32())
}

func TestExpand(t *testing.T) {
	b := New()
	x := f32(t, []float32{1, 2}, 2, 1)

	got := b.Expand(x, tensor.Shape{2, 2, 3})
	assert.Equal(t, []float32{1, 1, 1, 2, 2, 2, 1, 1, 1, 2, 2, 2}, got.AsFloat32())

	assert.Panics(t, func() { b.Expand(x, tensor.Shape{3, 3}) })
	assert.Panics(t, func() { b.Expand(x, tensor.Shape{2}) })
}

func TestCat(t *testing.T) {
	b := New()
	a := f32(t, []float32{1, 2, 3, 4}, 2, 2)
	c := f32(t, []float32{5, 6}, 2, 1)

	got := b.Cat([]*tensor.RawTensor{a, c}, -1)
	assert.Equal(t, tensor.Shape{2, 3}, got.Shape())
	assert.Equal(t, []float32{1, 2, 5, 3, 4, 6}, got.AsFloat32())

	rows := b.Cat([]*tensor.RawTensor{a, a}, 0)
	assert.Equal(t, []float32{1, 2, 3, 4, 1, 2, 3, 4}, rows.AsFloat32())

	single := b.Cat([]*tensor.RawTensor{a}, 0)
	assert.NotSame(t, a, single)
	assert.Equal(t, a.AsFloat32(), single.AsFloat32())

	assert.Panics(t, func() { b.Cat(nil, 0) })
	assert.Panics(t, func() { b.Cat([]*tensor.RawTensor{a, c}, 0) })
	assert.Panics(t, func() { b.Cat([]*tensor.RawTensor{a, f64(t, []float64{1, 2}, 2, 1)}, 1) })
}
