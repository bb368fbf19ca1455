package nn

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// The result is a scalar (shape []) built from differentiable tensor
// operations, so it can be passed straight to autodiff.Backward.
//
// Example:
//
//	mse := nn.NewMSELoss[B]()
//	loss := mse.Forward(model.Forward(input), targets)
//	grads := autodiff.Backward(loss, backend)
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward computes the MSE loss. predictions and targets must have the same shape.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("mse: shape mismatch %v vs %v", predictions.Shape(), targets.Shape()))
	}
	diff := predictions.Sub(targets)
	return diff.Mul(diff).Sum().DivScalar(float32(diff.NumElements()))
}

// CrossEntropyLoss computes the mean negative log-likelihood of class
// labels under softmax(logits).
//
//	Loss = -mean_i(log_softmax(logits_i)[target_i])
//
// Input: logits [batch, classes], targets int32 [batch].
type CrossEntropyLoss[B tensor.Backend] struct {
	logSoftmax *LogSoftmax[B]
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{logSoftmax: NewLogSoftmax[B](1)}
}

// Forward computes the scalar loss. Labels select their log-probability
// through a constant one-hot mask, which keeps the result differentiable
// with respect to logits.
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: expected 2D logits [batch, classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if targets.NumElements() != batch {
		panic(fmt.Sprintf("cross_entropy: %d targets for batch of %d", targets.NumElements(), batch))
	}

	oneHot := tensor.Zeros[float32](shape, logits.Backend())
	mask := oneHot.Data()
	for i, label := range targets.Data() {
		if label < 0 || int(label) >= classes {
			panic(fmt.Sprintf("cross_entropy: label %d out of range [0, %d)", label, classes))
		}
		mask[i*classes+int(label)] = 1
	}

	logProbs := c.logSoftmax.Forward(logits)
	return logProbs.Mul(oneHot).Sum().Neg().DivScalar(float32(batch))
}

// Accuracy returns the fraction of rows whose argmax matches the target label.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float32 {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]
	data := logits.Data()
	labels := targets.Data()

	correct := 0
	for b := 0; b < batch; b++ {
		if argmax(data[b*classes:(b+1)*classes]) == int(labels[b]) {
			correct++
		}
	}
	return float32(correct) / float32(batch)
}

// argmax returns the index of the first maximum.
func argmax(z []float32) int {
	best := 0
	for i := 1; i < len(z); i++ {
		if z[i] > z[best] {
			best = i
		}
	}
	return best
}
