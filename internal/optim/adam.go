package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int         // timestep for bias correction
	m      [][]float32 // first moments per parameter index
	v      [][]float32 // second moments per parameter index
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer, filling zero config fields with
// the defaults LR=0.001, Betas=[0.9, 0.999], Eps=1e-8.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, _ B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make([][]float32, len(params)),
		v:      make([][]float32, len(params)),
	}
}

// Step performs a single optimization step. Parameters with no gradient are skipped.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for i, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		if a.m[i] == nil {
			a.m[i] = make([]float32, len(grad))
			a.v[i] = make([]float32, len(grad))
		}
		m, v := a.m[i], a.v[i]

		current := param.Tensor().Data()
		next := make([]float32, len(current))
		for j, g := range grad {
			m[j] = a.beta1*m[j] + (1.0-a.beta1)*g
			v[j] = a.beta2*v[j] + (1.0-a.beta2)*g*g
			mHat := m[j] / biasCorrection1
			vHat := v[j] / biasCorrection2
			next[j] = current[j] - a.lr*mHat/(float32(math.Sqrt(float64(vHat)))+a.eps)
		}
		publish(param, next)
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam[B]) GetTimestep() int {
	return a.t
}

// StateDict exports "m.{i}", "v.{i}" moment buffers and the timestep "t".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i := range a.params {
		if a.m[i] == nil {
			continue
		}
		stateDict[fmt.Sprintf("m.%d", i)] = bufferRaw(a.m[i], a.params[i])
		stateDict[fmt.Sprintf("v.%d", i)] = bufferRaw(a.v[i], a.params[i])
	}
	t := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	t.AsInt32()[0] = int32(a.t)
	stateDict["t"] = t
	return stateDict
}

// LoadStateDict restores moments and the timestep.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	m := make([][]float32, len(a.params))
	v := make([][]float32, len(a.params))
	for i, param := range a.params {
		mi, okM, err := bufferFor(stateDict, fmt.Sprintf("m.%d", i), param)
		if err != nil {
			return err
		}
		vi, okV, err := bufferFor(stateDict, fmt.Sprintf("v.%d", i), param)
		if err != nil {
			return err
		}
		if okM != okV {
			return fmt.Errorf("adam state for parameter %d has only one of m/v", i)
		}
		m[i], v[i] = mi, vi
	}

	t := 0
	if raw, ok := stateDict["t"]; ok {
		if raw.DType() != tensor.Int32 || raw.NumElements() != 1 {
			return fmt.Errorf("adam timestep must be a single int32, got %v %v", raw.DType(), raw.Shape())
		}
		t = int(raw.AsInt32()[0])
	}
	a.m, a.v, a.t = m, v, t
	return nil
}
