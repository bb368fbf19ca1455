package ops

import "github.com/born-ml/stream/internal/tensor"

// ExpOp represents output = exp(x). Backward: grad * output.
type ExpOp struct{ node }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{newNode(output, x)}
}

// Backward computes the input gradient for exp.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = log(x). Backward: grad / x.
type LogOp struct{ node }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{newNode(output, x)}
}

// Backward computes the input gradient for log.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// ReLUOp represents output = max(0, x).
//
// Backward: grad where x > 0, zero elsewhere (including x == 0).
type ReLUOp struct{ node }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{newNode(output, x)}
}

// Backward computes the input gradient for ReLU.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := floatMask("relu", op.inputs[0], func(v float64) bool { return v > 0 })
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// SigmoidOp represents output = 1 / (1 + e^-x).
//
// Backward: grad * σ(x) * (1 - σ(x)), using the cached output.
type SigmoidOp struct{ node }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{newNode(output, x)}
}

// Backward computes the input gradient for sigmoid.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	oneMinusY := backend.AddScalar(backend.MulScalar(y, -1.0), 1.0)
	return []*tensor.RawTensor{backend.Mul(outputGrad, backend.Mul(y, oneMinusY))}
}

// TanhOp represents output = tanh(x). Backward: grad * (1 - tanh²(x)).
type TanhOp struct{ node }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{newNode(output, x)}
}

// Backward computes the input gradient for tanh.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	oneMinusY2 := backend.AddScalar(backend.MulScalar(backend.Mul(y, y), -1.0), 1.0)
	return []*tensor.RawTensor{backend.Mul(outputGrad, oneMinusY2)}
}

// SoftmaxOp represents output = softmax(x, dim).
//
// Backward (Jacobian-vector product):
//
//	dx = y * (grad - sum(grad * y, dim))
type SoftmaxOp struct {
	node
	dim int
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{node: newNode(output, x), dim: dim}
}

// Backward computes the input gradient for softmax.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	dot := backend.SumDim(backend.Mul(outputGrad, y), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(y, backend.Sub(outputGrad, dot))}
}
