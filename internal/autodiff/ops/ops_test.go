package ops_test

import (
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/stream/internal/autodiff/ops"
	"github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/tensor"
)

func raw(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape(shape), cpu.New())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x.Raw()
}

func assertGrad(t *testing.T, name string, got *tensor.RawTensor, want []float64) {
	t.Helper()
	if !floats.EqualApprox(got.AsFloat64(), want, 1e-9) {
		t.Errorf("%s: got %v, want %v", name, got.AsFloat64(), want)
	}
}

func TestAddOp_BroadcastBackward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float64{1, 2, 3}, 3)
	b := raw(t, []float64{10}, 1)
	op := ops.NewAddOp(a, b, backend.Add(a, b))

	grads := op.Backward(raw(t, []float64{1, 1, 1}, 3), backend)

	assertGrad(t, "grad_a", grads[0], []float64{1, 1, 1})
	assertGrad(t, "grad_b", grads[1], []float64{3})
}

func TestSubOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float64{1, 2}, 2)
	b := raw(t, []float64{3, 4}, 2)
	op := ops.NewSubOp(a, b, backend.Sub(a, b))

	grads := op.Backward(raw(t, []float64{1, 2}, 2), backend)

	assertGrad(t, "grad_a", grads[0], []float64{1, 2})
	assertGrad(t, "grad_b", grads[1], []float64{-1, -2})
}

func TestMulOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float64{2, 3}, 2)
	b := raw(t, []float64{4, 5}, 2)
	op := ops.NewMulOp(a, b, backend.Mul(a, b))

	grads := op.Backward(raw(t, []float64{1, 1}, 2), backend)

	assertGrad(t, "grad_a", grads[0], []float64{4, 5})
	assertGrad(t, "grad_b", grads[1], []float64{2, 3})
}

func TestDivOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float64{6}, 1)
	b := raw(t, []float64{2}, 1)
	op := ops.NewDivOp(a, b, backend.Div(a, b))

	grads := op.Backward(raw(t, []float64{1}, 1), backend)

	assertGrad(t, "grad_a", grads[0], []float64{0.5})
	assertGrad(t, "grad_b", grads[1], []float64{-1.5}) // -a/b²
}

func TestMatMulOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float64{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float64{5, 6, 7, 8}, 2, 2)
	op := ops.NewMatMulOp(a, b, backend.MatMul(a, b))

	grads := op.Backward(raw(t, []float64{1, 1, 1, 1}, 2, 2), backend)

	// dA = 1 @ B^T, dB = A^T @ 1
	assertGrad(t, "grad_a", grads[0], []float64{11, 15, 11, 15})
	assertGrad(t, "grad_b", grads[1], []float64{4, 4, 6, 6})
}

func TestReLUOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{-1, 0, 2}, 3)
	op := ops.NewReLUOp(x, backend.ReLU(x))

	grads := op.Backward(raw(t, []float64{5, 5, 5}, 3), backend)

	assertGrad(t, "grad_x", grads[0], []float64{0, 0, 5})
}

func TestSoftmaxOp_BackwardSumsToZero(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1, 2, 3, 0, 0, 0}, 2, 3)
	op := ops.NewSoftmaxOp(x, backend.Softmax(x, 1), 1)

	grads := op.Backward(raw(t, []float64{1, 0, 0, 0, 1, 0}, 2, 3), backend)

	g := grads[0].AsFloat64()
	if s := floats.Sum(g[:3]); s > 1e-12 || s < -1e-12 {
		t.Errorf("row 0 gradient should sum to 0, got %v", s)
	}
	if s := floats.Sum(g[3:]); s > 1e-12 || s < -1e-12 {
		t.Errorf("row 1 gradient should sum to 0, got %v", s)
	}
}

func TestSumDimOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	op := ops.NewSumDimOp(x, backend.SumDim(x, 1, false), 1)

	grads := op.Backward(raw(t, []float64{1, 2}, 2), backend)

	assertGrad(t, "grad_x", grads[0], []float64{1, 1, 1, 2, 2, 2})
}

func TestMaxDimOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1, 5, 3, 7, 2, 7}, 2, 3)
	op := ops.NewMaxDimOp(x, backend.MaxDim(x, 1, false), 1, false)

	grads := op.Backward(raw(t, []float64{1, 1}, 2), backend)

	// Ties route to the first maximum.
	assertGrad(t, "grad_x", grads[0], []float64{0, 1, 0, 1, 0, 0})
}

func TestTransposeOp_BackwardInvertsPermutation(t *testing.T) {
	backend := cpu.New()
	x := raw(t, make([]float64, 24), 2, 3, 4)
	out := backend.Transpose(x, 2, 0, 1)
	op := ops.NewTransposeOp(x, out, []int{2, 0, 1})

	grads := op.Backward(out, backend)

	if !grads[0].Shape().Equal(tensor.Shape{2, 3, 4}) {
		t.Errorf("grad shape = %v, want [2 3 4]", grads[0].Shape())
	}
}

func TestCatOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float64{1, 2}, 2, 1)
	b := raw(t, []float64{3, 4, 5, 6}, 2, 2)
	out := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	op := ops.NewCatOp([]*tensor.RawTensor{a, b}, out, 1)

	grads := op.Backward(raw(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3), backend)

	assertGrad(t, "grad_a", grads[0], []float64{1, 4})
	assertGrad(t, "grad_b", grads[1], []float64{2, 3, 5, 6})
}

func TestExpandOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1, 2}, 2, 1)
	shape := tensor.Shape{3, 2, 4}
	op := ops.NewExpandOp(x, backend.Expand(x, shape))

	ones := make([]float64, shape.NumElements())
	floats.AddConst(1, ones)
	grads := op.Backward(raw(t, ones, 3, 2, 4), backend)

	assertGrad(t, "grad_x", grads[0], []float64{12, 12})
}

func TestMaxPoolOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1, 2, 3, 4}, 1, 1, 2, 2)
	w := tensor.NewWindow([]int{2, 2}, nil, nil, false)
	op := ops.NewMaxPoolOp(x, backend.MaxPool(x, w), w)

	grads := op.Backward(raw(t, []float64{7}, 1, 1, 1, 1), backend)

	assertGrad(t, "grad_x", grads[0], []float64{0, 0, 0, 7})
}

func TestAvgPoolOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1, 2, 3, 4}, 1, 1, 2, 2)
	w := tensor.NewWindow([]int{2, 2}, nil, nil, false)
	op := ops.NewAvgPoolOp(x, backend.AvgPool(x, w), w)

	grads := op.Backward(raw(t, []float64{8}, 1, 1, 1, 1), backend)

	assertGrad(t, "grad_x", grads[0], []float64{2, 2, 2, 2})
}

func TestUnpoolOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float64{1}, 1, 1, 1, 1)
	w := tensor.NewWindow([]int{2, 2}, nil, nil, false)
	out := backend.Unpool(x, nil, w, nil)
	op := ops.NewUnpoolOp(x, nil, out, w)

	grads := op.Backward(raw(t, []float64{1, 2, 3, 4}, 1, 1, 2, 2), backend)

	assertGrad(t, "grad_x", grads[0], []float64{10})
}
