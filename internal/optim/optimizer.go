// Package optim implements optimization algorithms for training streams.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers never write into a parameter tensor. Each step computes a new
// tensor and publishes it with Parameter.SetTensor, so tensors produced by
// an earlier forward pass keep their values.
//
// Example usage:
//
//	optimizer := optim.NewAdam(stream.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//
//	for step := range steps {
//	    backend.Tape().Clear()
//	    backend.Tape().StartRecording()
//	    loss := mse.Forward(stream.Forward(input), target)
//	    grads := autodiff.Backward(loss, backend)
//
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// grads maps parameter tensors to gradients, as returned by
	// autodiff.Backward. A nil map makes the optimizer use the gradients
	// stored on the parameters (see nn.CollectGrads).
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// StateDict returns the optimizer state (moment buffers) for checkpoints.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores state saved by StateDict.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// getGradient returns the gradient of param as float32 values, or nil when
// the parameter did not take part in the computation.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if param == nil {
		return nil
	}
	if grads == nil {
		if g := param.Grad(); g != nil {
			return g.Data()
		}
		return nil
	}
	if g, ok := grads[param.Tensor().Raw()]; ok {
		return g.AsFloat32()
	}
	return nil
}

// publish replaces param's tensor with a new tensor holding values.
func publish[B tensor.Backend](param *nn.Parameter[B], values []float32) {
	old := param.Tensor()
	raw := tensor.MustNewRaw(old.Shape(), tensor.Float32, old.Backend().Device())
	copy(raw.AsFloat32(), values)
	param.SetTensor(tensor.New[float32, B](raw, old.Backend()))
}

// bufferFor returns the float32 buffer stored under key in stateDict,
// checking it against the shape of param.
func bufferFor[B tensor.Backend](stateDict map[string]*tensor.RawTensor, key string, param *nn.Parameter[B]) ([]float32, bool, error) {
	raw, ok := stateDict[key]
	if !ok {
		return nil, false, nil
	}
	if !raw.Shape().Equal(param.Tensor().Shape()) {
		return nil, false, fmt.Errorf("%s shape mismatch: expected %v, got %v", key, param.Tensor().Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return nil, false, fmt.Errorf("%s dtype mismatch: expected float32, got %v", key, raw.DType())
	}
	return append([]float32(nil), raw.AsFloat32()...), true, nil
}

// bufferRaw wraps a moment buffer as a RawTensor shaped like param.
func bufferRaw[B tensor.Backend](buf []float32, param *nn.Parameter[B]) *tensor.RawTensor {
	raw := tensor.MustNewRaw(param.Tensor().Shape(), tensor.Float32, param.Tensor().Backend().Device())
	copy(raw.AsFloat32(), buf)
	return raw
}
