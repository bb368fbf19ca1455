// Package nn implements neural network building blocks for the stream layer.
//
// This package provides:
//   - Layer: the uniform tensor → tensor contract every wrapper satisfies
//   - Module: a Layer that owns trainable parameters
//   - Parameter: trainable tensors discovered by optimizers and serializers
//   - Linear, Conv2D: parameterized links
//   - Activation, pooling, array and noise wrappers around backend operations
//   - Residual: skip-connection group
//   - Stream: ordered, append-only pipeline with a parameter registry
//
// All layers operate on float32 tensors and never mutate their input.
package nn

import (
	"github.com/born-ml/stream/internal/tensor"
)

// Layer is a configured, callable transform from tensor to tensor.
//
// Configuration is fixed at construction. Forward returns a new tensor and
// never mutates its input; invalid configuration surfaces as the backend's
// panic for the delegated operation.
type Layer[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// Module is a Layer that owns trainable parameters.
//
// Modules can be composed inside a Stream, which registers them by position:
//
//	s := nn.NewStream[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//	opt := optim.NewSGD(s.Parameters(), optim.SGDConfig{LR: 0.01}, backend)
type Module[B tensor.Backend] interface {
	Layer[B]

	// Parameters returns all trainable parameters of this module in a stable order.
	Parameters() []*Parameter[B]

	// StateDict returns parameter tensors keyed by parameter name.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from stateDict into the module's parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Group is a Layer made of sub-layers that a Stream registers individually.
// Residual is the only Group in this package.
type Group[B tensor.Backend] interface {
	Layer[B]
	Layers() []Layer[B]
}

// ownsParameters reports whether l is a Module with at least one parameter.
func ownsParameters[B tensor.Backend](l Layer[B]) (Module[B], bool) {
	m, ok := l.(Module[B])
	if !ok || len(m.Parameters()) == 0 {
		return nil, false
	}
	return m, true
}
