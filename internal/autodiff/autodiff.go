// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and records every
// differentiable operation on a GradientTape while recording is enabled.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, backend)
//	y := x.Mul(x) // y = x²
//
//	grads := autodiff.Backward(y, backend)
//	fmt.Println(grads[x.Raw()]) // dy/dx = 2x = 4.0
package autodiff

import (
	"github.com/born-ml/stream/internal/autodiff/ops"
	"github.com/born-ml/stream/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

func (b *AutodiffBackend[B]) record(op ops.Operation) *tensor.RawTensor {
	b.tape.Record(op)
	return op.Output()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewAddOp(x, y, b.inner.Add(x, y)))
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewSubOp(x, y, b.inner.Sub(x, y)))
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewMulOp(x, y, b.inner.Mul(x, y)))
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewDivOp(x, y, b.inner.Div(x, y)))
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewMatMulOp(x, y, b.inner.MatMul(x, y)))
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	out := b.inner.Conv2D(input, kernel, stride, padding)
	return b.record(ops.NewConv2DOp(input, kernel, out, stride, padding))
}

// Conv2DInputBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool performs max pooling and records the operation.
func (b *AutodiffBackend[B]) MaxPool(x *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	return b.record(ops.NewMaxPoolOp(x, b.inner.MaxPool(x, w), w))
}

// MaxPoolIndices is not differentiable and is never recorded.
func (b *AutodiffBackend[B]) MaxPoolIndices(x *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	return b.inner.MaxPoolIndices(x, w)
}

// MaxPoolBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) MaxPoolBackward(x, grad *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	return b.inner.MaxPoolBackward(x, grad, w)
}

// AvgPool performs average pooling and records the operation.
func (b *AutodiffBackend[B]) AvgPool(x *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	return b.record(ops.NewAvgPoolOp(x, b.inner.AvgPool(x, w), w))
}

// AvgPoolBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) AvgPoolBackward(inputShape tensor.Shape, grad *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	return b.inner.AvgPoolBackward(inputShape, grad, w)
}

// Unpool performs unpooling and records the operation.
func (b *AutodiffBackend[B]) Unpool(x, indexes *tensor.RawTensor, w tensor.Window, outSize []int) *tensor.RawTensor {
	return b.record(ops.NewUnpoolOp(x, indexes, b.inner.Unpool(x, indexes, w, outSize), w))
}

// UnpoolBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) UnpoolBackward(indexes, grad *tensor.RawTensor, w tensor.Window, inputShape tensor.Shape) *tensor.RawTensor {
	return b.inner.UnpoolBackward(indexes, grad, w, inputShape)
}

// Reshape reshapes a tensor and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.record(ops.NewReshapeOp(t, b.inner.Reshape(t, newShape)))
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.record(ops.NewTransposeOp(t, b.inner.Transpose(t, axes...), axes))
}

// Expand broadcasts a tensor and records the operation.
func (b *AutodiffBackend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.record(ops.NewExpandOp(x, b.inner.Expand(x, shape)))
}

// Cat concatenates tensors and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.record(ops.NewCatOp(tensors, b.inner.Cat(tensors, dim), dim))
}

// AddScalar adds a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record(ops.NewScalarOp(ops.ScalarAdd, x, b.inner.AddScalar(x, scalar), scalar))
}

// SubScalar subtracts a scalar and records the operation.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record(ops.NewScalarOp(ops.ScalarSub, x, b.inner.SubScalar(x, scalar), scalar))
}

// MulScalar multiplies by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record(ops.NewScalarOp(ops.ScalarMul, x, b.inner.MulScalar(x, scalar), scalar))
}

// DivScalar divides by a scalar and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record(ops.NewScalarOp(ops.ScalarDiv, x, b.inner.DivScalar(x, scalar), scalar))
}

// Exp computes e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewExpOp(x, b.inner.Exp(x)))
}

// Log computes ln(x) and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewLogOp(x, b.inner.Log(x)))
}

// ReLU applies max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewReLUOp(x, b.inner.ReLU(x)))
}

// Sigmoid applies the logistic function and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewSigmoidOp(x, b.inner.Sigmoid(x)))
}

// Tanh applies tanh and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewTanhOp(x, b.inner.Tanh(x)))
}

// Softmax normalizes along dim and records the operation.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.record(ops.NewSoftmaxOp(x, b.inner.Softmax(x, dim), dim))
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record(ops.NewSumOp(x, b.inner.Sum(x)))
}

// SumDim sums along dim and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.record(ops.NewSumDimOp(x, b.inner.SumDim(x, dim, keepDim), dim))
}

// MaxDim takes the maximum along dim and records the operation.
func (b *AutodiffBackend[B]) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.record(ops.NewMaxDimOp(x, b.inner.MaxDim(x, dim, keepDim), dim, keepDim))
}

// MaxDimBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) MaxDimBackward(x, grad *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.MaxDimBackward(x, grad, dim, keepDim)
}
