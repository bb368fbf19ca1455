package autodiff

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// BackwardCapable is a backend that exposes a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape.
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t (seeded with ones) with respect to every
// recorded input.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := nn.MSELoss(model.Forward(x), target)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		fillOnes(outputGrad.AsFloat32())
	case tensor.Float64:
		fillOnes(outputGrad.AsFloat64())
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32/float64 supported)", t.DType()))
	}

	return tape.Backward(t.Raw(), outputGrad, backend)
}

func fillOnes[T tensor.Float](data []T) {
	for i := range data {
		data[i] = 1
	}
}
