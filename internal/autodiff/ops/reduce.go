package ops

import "github.com/born-ml/stream/internal/tensor"

// SumOp represents output = sum(x) (scalar). Backward: broadcast grad to x's shape.
type SumOp struct{ node }

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{newNode(output, x)}
}

// Backward computes the input gradient for sum.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Expand(outputGrad, op.inputs[0].Shape())}
}

// SumDimOp represents output = sum(x, dim).
type SumDimOp struct {
	node
	dim int
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{node: newNode(output, x), dim: tensor.NormalizeAxis(dim, len(x.Shape()))}
}

// Backward restores the reduced dimension and broadcasts grad over it.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.inputs[0].Shape()
	kept := inShape.Clone()
	kept[op.dim] = 1
	grad := backend.Reshape(outputGrad, kept)
	return []*tensor.RawTensor{backend.Expand(grad, inShape)}
}

// MaxDimOp represents output = max(x, dim). Gradient flows to the first maximum.
type MaxDimOp struct {
	node
	dim     int
	keepDim bool
}

// NewMaxDimOp creates a new MaxDimOp.
func NewMaxDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MaxDimOp {
	return &MaxDimOp{node: newNode(output, x), dim: dim, keepDim: keepDim}
}

// Backward computes the input gradient for max.
func (op *MaxDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxDimBackward(op.inputs[0], outputGrad, op.dim, op.keepDim)}
}
