// Package ops defines the differentiable operations recorded by the autodiff tape.
//
// Each operation captures its inputs and output during the forward pass and
// maps the output gradient to input gradients during the backward pass:
//   - Arithmetic: Add, Sub, Mul, Div, scalar ops, MatMul
//   - Math: Exp, Log, ReLU, Sigmoid, Tanh, Softmax
//   - Reductions: Sum, SumDim, MaxDim
//   - Shape: Reshape, Transpose, Expand, Cat
//   - Spatial: Conv2D, MaxPool, AvgPool, Unpool
package ops

import "github.com/born-ml/stream/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input; a nil entry means no gradient flows there.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)]
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// node stores the graph edges shared by every operation.
type node struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func newNode(output *tensor.RawTensor, inputs ...*tensor.RawTensor) node {
	return node{inputs: inputs, output: output}
}

// Inputs returns the input tensors.
func (n node) Inputs() []*tensor.RawTensor {
	return n.inputs
}

// Output returns the output tensor.
func (n node) Output() *tensor.RawTensor {
	return n.output
}
