package nn

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad() // nil until a backward pass assigns it
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// SetTensor replaces the parameter tensor. Optimizers use it to publish
// updated values, since tensors are never modified in place by operations.
func (p *Parameter[B]) SetTensor(t *tensor.Tensor[float32, B]) {
	p.tensor = t
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// CollectGrads assigns gradients from an autodiff gradient map to params.
// Parameters that did not contribute to the output keep a nil gradient.
//
// Example:
//
//	grads := autodiff.Backward(loss, backend)
//	nn.CollectGrads(model.Parameters(), grads)
func CollectGrads[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range params {
		if g, ok := grads[p.tensor.Raw()]; ok {
			p.grad = tensor.New[float32, B](g, p.tensor.Backend())
		} else {
			p.grad = nil
		}
	}
}

// loadInto copies raw into p after checking shape and dtype.
func (p *Parameter[B]) loadInto(raw *tensor.RawTensor) error {
	if raw == nil {
		return fmt.Errorf("missing %s in state dict", p.name)
	}
	if !raw.Shape().Equal(p.tensor.Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", p.name, p.tensor.Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", p.name, raw.DType())
	}
	copy(p.tensor.Data(), raw.AsFloat32())
	return nil
}

// paramStateDict keys each parameter's raw tensor by its name.
func paramStateDict[B tensor.Backend](params ...*Parameter[B]) map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		if p != nil {
			sd[p.name] = p.tensor.Raw()
		}
	}
	return sd
}

// loadParams loads every non-nil parameter from stateDict.
func loadParams[B tensor.Backend](stateDict map[string]*tensor.RawTensor, params ...*Parameter[B]) error {
	for _, p := range params {
		if p == nil {
			continue
		}
		if err := p.loadInto(stateDict[p.name]); err != nil {
			return err
		}
	}
	return nil
}
