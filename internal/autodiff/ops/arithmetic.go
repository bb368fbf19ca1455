package ops

import "github.com/born-ml/stream/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
//
// Backward: both inputs receive outputGrad, reduced over broadcast dimensions.
type AddOp struct{ node }

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{newNode(output, a, b)}
}

// Backward computes input gradients for addition.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend),
		reduceBroadcast(outputGrad, op.inputs[1].Shape(), backend),
	}
}

// SubOp represents element-wise subtraction: output = a - b.
type SubOp struct{ node }

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{newNode(output, a, b)}
}

// Backward computes input gradients for subtraction: (grad, -grad).
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend),
		reduceBroadcast(backend.MulScalar(outputGrad, -1.0), op.inputs[1].Shape(), backend),
	}
}

// MulOp represents element-wise multiplication: output = a * b.
//
// Backward (product rule): d(a*b)/da = b, d(a*b)/db = a.
type MulOp struct{ node }

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{newNode(output, a, b)}
}

// Backward computes input gradients for multiplication.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad, b), a.Shape(), backend),
		reduceBroadcast(backend.Mul(outputGrad, a), b.Shape(), backend),
	}
}

// DivOp represents element-wise division: output = a / b.
//
// Backward (quotient rule): d/da = 1/b, d/db = -a/b².
type DivOp struct{ node }

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{newNode(output, a, b)}
}

// Backward computes input gradients for division.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Div(outputGrad, b)
	// -grad * out / b == -grad * a / b²
	gradB := backend.MulScalar(backend.Div(backend.Mul(outputGrad, op.output), b), -1.0)
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// ScalarKind selects the scalar operation recorded by ScalarOp.
type ScalarKind int

// Scalar operation kinds.
const (
	ScalarAdd ScalarKind = iota
	ScalarSub
	ScalarMul
	ScalarDiv
)

// ScalarOp represents x (+ - * /) scalar.
type ScalarOp struct {
	node
	kind   ScalarKind
	scalar any
}

// NewScalarOp creates a new ScalarOp.
func NewScalarOp(kind ScalarKind, x, output *tensor.RawTensor, scalar any) *ScalarOp {
	return &ScalarOp{node: newNode(output, x), kind: kind, scalar: scalar}
}

// Backward passes the gradient through, scaled for Mul and Div.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case ScalarMul:
		return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
	case ScalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
	default:
		return []*tensor.RawTensor{outputGrad}
	}
}

// MatMulOp represents matrix multiplication: output = A @ B.
//
// Backward:
//   - dA = grad @ B^T
//   - dB = A^T @ grad
type MatMulOp struct{ node }

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{newNode(output, a, b)}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.MatMul(outputGrad, backend.Transpose(b)),
		backend.MatMul(backend.Transpose(a), outputGrad),
	}
}
