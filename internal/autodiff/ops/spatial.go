package ops

import "github.com/born-ml/stream/internal/tensor"

// Conv2DOp records a 2D convolution operation for autodiff.
//
// Backward (gradients):
//   - d_input:  transposed convolution of d_output with kernel
//   - d_kernel: correlation of input with d_output
//
// References:
//   - "A guide to convolution arithmetic for deep learning" (Dumoulin & Visin, 2016)
type Conv2DOp struct {
	node
	stride  int
	padding int
}

// NewConv2DOp creates a new Conv2D operation.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{node: newNode(output, input, kernel), stride: stride, padding: padding}
}

// Backward delegates both gradients to the backend kernels.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.Conv2DInputBackward(input, kernel, outputGrad, op.stride, op.padding),
		backend.Conv2DKernelBackward(input, kernel, outputGrad, op.stride, op.padding),
	}
}

// MaxPoolOp records N-dimensional max pooling.
//
// Backward: each output gradient flows only to the input position that held
// the window maximum; every other position receives zero.
//
// Example (2x2 pool, stride=2):
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
type MaxPoolOp struct {
	node
	window tensor.Window
}

// NewMaxPoolOp creates a new MaxPoolOp.
func NewMaxPoolOp(x, output *tensor.RawTensor, w tensor.Window) *MaxPoolOp {
	return &MaxPoolOp{node: newNode(output, x), window: w}
}

// Backward computes the input gradient for max pooling.
func (op *MaxPoolOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPoolBackward(op.inputs[0], outputGrad, op.window)}
}

// AvgPoolOp records N-dimensional average pooling.
// Backward: grad / window volume spread over each window.
type AvgPoolOp struct {
	node
	window tensor.Window
}

// NewAvgPoolOp creates a new AvgPoolOp.
func NewAvgPoolOp(x, output *tensor.RawTensor, w tensor.Window) *AvgPoolOp {
	return &AvgPoolOp{node: newNode(output, x), window: w}
}

// Backward computes the input gradient for average pooling.
func (op *AvgPoolOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.AvgPoolBackward(op.inputs[0].Shape(), outputGrad, op.window)}
}

// UnpoolOp records unpooling (indexes == nil) or index-guided upsampling.
// Backward: gather grad back from every position the input was written to.
// The indexes tensor is not differentiable.
type UnpoolOp struct {
	node
	indexes *tensor.RawTensor
	window  tensor.Window
}

// NewUnpoolOp creates a new UnpoolOp.
func NewUnpoolOp(x, indexes, output *tensor.RawTensor, w tensor.Window) *UnpoolOp {
	return &UnpoolOp{node: newNode(output, x), indexes: indexes, window: w}
}

// Backward computes the input gradient for unpooling.
func (op *UnpoolOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.UnpoolBackward(op.indexes, outputGrad, op.window, op.inputs[0].Shape())}
}
