package tensor_test

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/tensor"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, x.DType())
	assert.Equal(t, float32(6), x.At(1, 2))

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend)
	assert.Error(t, err)
}

func TestFromSlice_CopiesInput(t *testing.T) {
	data := []float64{1, 2}
	x, err := tensor.FromSlice(data, tensor.Shape{2}, cpu.New())
	require.NoError(t, err)

	data[0] = 100
	assert.Equal(t, 1.0, x.At(0))
}

func TestCloneAndDetach(t *testing.T) {
	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, cpu.New())

	c := x.Clone()
	c.Set(9, 0)
	assert.Equal(t, float32(1), x.At(0), "clone must not share storage")

	d := x.Detach()
	assert.NotSame(t, x.Raw(), d.Raw())
	assert.Equal(t, x.Data(), d.Data())
}

func TestItem(t *testing.T) {
	x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, cpu.New())
	assert.Equal(t, float32(6), x.Sum().Item())
	assert.Panics(t, func() { x.Item() })
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	assert.Equal(t, []float32{0, 0, 0}, tensor.Zeros[float32](tensor.Shape{3}, backend).Data())
	assert.Equal(t, []float64{1, 1}, tensor.Ones[float64](tensor.Shape{2}, backend).Data())
	assert.Equal(t, []int32{7, 7}, tensor.Full[int32](tensor.Shape{2}, 7, backend).Data())
	assert.Equal(t, []int32{2, 3, 4}, tensor.Arange[int32](2, 5, backend).Data())
	assert.Panics(t, func() { tensor.Arange[int32](3, 3, backend) })
}

func TestRandn_Deterministic(t *testing.T) {
	backend := cpu.New()
	a := tensor.Randn[float64](tensor.Shape{16}, backend, rand.NewPCG(3, 4))
	b := tensor.Randn[float64](tensor.Shape{16}, backend, rand.NewPCG(3, 4))
	if diff := cmp.Diff(a.Data(), b.Data()); diff != "" {
		t.Errorf("same seed produced different samples (-a +b):\n%s", diff)
	}

	u := tensor.Rand[float32](tensor.Shape{64}, backend, rand.NewPCG(5, 6))
	for _, v := range u.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("uniform sample %v outside [0, 1)", v)
		}
	}
}

func TestReshapeInfer(t *testing.T) {
	x := tensor.Arange[float32](0, 12, cpu.New())

	tests := []struct {
		dims []int
		want tensor.Shape
	}{
		{[]int{3, -1}, tensor.Shape{3, 4}},
		{[]int{-1}, tensor.Shape{12}},
		{[]int{2, -1, 2}, tensor.Shape{2, 3, 2}},
	}
	for _, tt := range tests {
		if got := x.Reshape(tt.dims...).Shape(); !got.Equal(tt.want) {
			t.Errorf("Reshape(%v) = %v, want %v", tt.dims, got, tt.want)
		}
	}

	assert.Panics(t, func() { x.Reshape(-1, -1) })
	assert.Panics(t, func() { x.Reshape(5, -1) })
}

func TestSqueezeUnsqueeze(t *testing.T) {
	x := tensor.Zeros[float32](tensor.Shape{2, 3}, cpu.New())

	assert.Equal(t, tensor.Shape{1, 2, 3}, x.Unsqueeze(0).Shape())
	assert.Equal(t, tensor.Shape{2, 3, 1}, x.Unsqueeze(-1).Shape())
	assert.Equal(t, tensor.Shape{2, 3}, x.Unsqueeze(1).Squeeze(1).Shape())
	assert.Panics(t, func() { x.Squeeze(0) })
}

func TestOps_DoNotMutateInputs(t *testing.T) {
	backend := cpu.New()
	x, _ := tensor.FromSlice([]float32{-1, 2, -3, 4}, tensor.Shape{2, 2}, backend)
	before := append([]float32(nil), x.Data()...)

	_ = x.ReLU()
	_ = x.Add(x)
	_ = x.MulScalar(3)
	_ = x.Reshape(4)
	_ = x.Transpose()
	_ = x.Softmax(1)

	assert.Equal(t, before, x.Data())
}

func TestMaxPoolIndices_Typed(t *testing.T) {
	backend := cpu.New()
	x, _ := tensor.FromSlice([]float32{1, 5, 3, 2}, tensor.Shape{1, 1, 2, 2}, backend)
	w := tensor.NewWindow([]int{2, 2}, nil, nil, false)

	idx := x.MaxPoolIndices(w)
	assert.Equal(t, tensor.Int32, idx.DType())
	assert.Equal(t, []int32{1}, idx.Data())

	up := x.MaxPool(w).Unpool(idx, w, nil)
	assert.Equal(t, []float32{0, 5, 0, 0}, up.Data())
}
