package optim

import (
	"fmt"

	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(stream.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities [][]float32 // per parameter index, nil until first step
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, _ B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make([][]float32, len(params)),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not in computational graph) are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		update := grad
		if s.momentum != 0 {
			if s.velocities[i] == nil {
				s.velocities[i] = make([]float32, len(grad))
			}
			vel := s.velocities[i]
			for j, g := range grad {
				vel[j] = s.momentum*vel[j] + g
			}
			update = vel
		}

		current := param.Tensor().Data()
		next := make([]float32, len(current))
		for j, p := range current {
			next[j] = p - s.lr*update[j]
		}
		publish(param, next)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// StateDict exports velocity buffers as "velocity.{param_index}".
// Without momentum it is empty.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, vel := range s.velocities {
		if vel != nil {
			stateDict[fmt.Sprintf("velocity.%d", i)] = bufferRaw(vel, s.params[i])
		}
	}
	return stateDict
}

// LoadStateDict restores velocity buffers. Missing entries start from zero
// on the next step.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	velocities := make([][]float32, len(s.params))
	for i, param := range s.params {
		buf, ok, err := bufferFor(stateDict, fmt.Sprintf("velocity.%d", i), param)
		if err != nil {
			return err
		}
		if ok {
			velocities[i] = buf
		}
	}
	s.velocities = velocities
	return nil
}
