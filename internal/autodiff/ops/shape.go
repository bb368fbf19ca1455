package ops

import "github.com/born-ml/stream/internal/tensor"

// ReshapeOp represents a reshape. Backward: reshape grad to the input shape.
type ReshapeOp struct{ node }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{newNode(output, x)}
}

// Backward computes the input gradient for reshape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// TransposeOp represents an axis permutation.
// Backward: apply the inverse permutation to grad.
type TransposeOp struct {
	node
	axes []int
}

// NewTransposeOp creates a new TransposeOp. Empty axes means reversed dimensions.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	ndim := len(x.Shape())
	perm := make([]int, ndim)
	for i := range perm {
		if len(axes) == 0 {
			perm[i] = ndim - 1 - i
		} else {
			perm[i] = tensor.NormalizeAxis(axes[i], ndim)
		}
	}
	return &TransposeOp{node: newNode(output, x), axes: perm}
}

// Backward computes the input gradient for transpose.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, a := range op.axes {
		inverse[a] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// ExpandOp represents broadcasting x to a larger shape.
// Backward: sum grad over the broadcast dimensions.
type ExpandOp struct{ node }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{newNode(output, x)}
}

// Backward computes the input gradient for expand.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend)}
}

// CatOp represents concatenation along dim.
// Backward: slice grad back into one piece per input.
type CatOp struct {
	node
	dim int
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{node: newNode(output, inputs...), dim: tensor.NormalizeAxis(dim, len(output.Shape()))}
}

// Backward computes the input gradients for concatenation.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		size := in.Shape()[op.dim]
		grads[i] = narrow(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}
