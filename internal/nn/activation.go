package nn

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// Documented defaults for optional wrapper configuration.
const (
	DefaultClippedReLUCeiling = 20
	DefaultCReLUAxis          = 1
	DefaultELUAlpha           = 1
	DefaultLeakyReLUSlope     = 1
	DefaultMaxoutPoolSize     = 2
	DefaultSoftmaxAxis        = 1
	DefaultSoftplusBeta       = 1
)

// The piecewise activations below are composed from ReLU, Exp and Log so
// that they differentiate through the existing backward rules.

// ClippedReLU computes min(max(0, x), z).
type ClippedReLU[B tensor.Backend] struct {
	z float32
}

// NewClippedReLU creates a ClippedReLU with ceiling z.
func NewClippedReLU[B tensor.Backend](z float32) *ClippedReLU[B] {
	return &ClippedReLU[B]{z: z}
}

// Forward computes relu(x) - relu(x - z).
func (c *ClippedReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.ReLU().Sub(x.SubScalar(c.z).ReLU())
}

func (c *ClippedReLU[B]) String() string { return fmt.Sprintf("ClippedReLU(z=%g)", c.z) }

// CReLU concatenates relu(x) and relu(-x) along axis, doubling that dimension.
type CReLU[B tensor.Backend] struct {
	axis int
}

// NewCReLU creates a CReLU that concatenates along axis.
func NewCReLU[B tensor.Backend](axis int) *CReLU[B] {
	return &CReLU[B]{axis: axis}
}

// Forward computes concat(relu(x), relu(-x), axis).
func (c *CReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.Cat([]*tensor.Tensor[float32, B]{x.ReLU(), x.Neg().ReLU()}, c.axis)
}

func (c *CReLU[B]) String() string { return fmt.Sprintf("CReLU(axis=%d)", c.axis) }

// ELU is the exponential linear unit: x for x > 0, alpha*(exp(x)-1) otherwise.
type ELU[B tensor.Backend] struct {
	alpha float32
}

// NewELU creates an ELU with the given alpha.
func NewELU[B tensor.Backend](alpha float32) *ELU[B] {
	return &ELU[B]{alpha: alpha}
}

// Forward computes relu(x) + alpha*(exp(-relu(-x)) - 1).
func (e *ELU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	neg := x.Neg().ReLU().Neg().Exp().SubScalar(1).MulScalar(e.alpha)
	return x.ReLU().Add(neg)
}

func (e *ELU[B]) String() string { return fmt.Sprintf("ELU(alpha=%g)", e.alpha) }

// HardSigmoid computes clip(0.2x + 0.5, 0, 1).
type HardSigmoid[B tensor.Backend] struct{}

// NewHardSigmoid creates a HardSigmoid.
func NewHardSigmoid[B tensor.Backend]() *HardSigmoid[B] {
	return &HardSigmoid[B]{}
}

// Forward applies the hard sigmoid.
func (h *HardSigmoid[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	v := x.MulScalar(0.2).AddScalar(0.5)
	return v.ReLU().Sub(v.SubScalar(1).ReLU())
}

func (h *HardSigmoid[B]) String() string { return "HardSigmoid()" }

// LeakyReLU computes x for x >= 0 and slope*x otherwise.
type LeakyReLU[B tensor.Backend] struct {
	slope float32
}

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{slope: slope}
}

// Forward computes relu(x) - slope*relu(-x).
func (l *LeakyReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.ReLU().Sub(x.Neg().ReLU().MulScalar(l.slope))
}

func (l *LeakyReLU[B]) String() string { return fmt.Sprintf("LeakyReLU(slope=%g)", l.slope) }

// LogSoftmax computes log(softmax(x)) along axis.
type LogSoftmax[B tensor.Backend] struct {
	axis int
}

// NewLogSoftmax creates a LogSoftmax over axis.
func NewLogSoftmax[B tensor.Backend](axis int) *LogSoftmax[B] {
	return &LogSoftmax[B]{axis: axis}
}

// Forward computes x - max - log(sum(exp(x - max))), which never overflows.
func (l *LogSoftmax[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shifted := x.Sub(x.MaxDim(l.axis, true))
	return shifted.Sub(shifted.Exp().SumDim(l.axis, true).Log())
}

func (l *LogSoftmax[B]) String() string { return fmt.Sprintf("LogSoftmax(axis=%d)", l.axis) }

// Maxout splits the channel axis (1) into groups of poolSize and keeps each group's maximum.
//
// Input: [N, C, ...], Output: [N, C/poolSize, ...]. C must be divisible by poolSize.
type Maxout[B tensor.Backend] struct {
	poolSize int
}

// NewMaxout creates a Maxout with the given pool size.
func NewMaxout[B tensor.Backend](poolSize int) *Maxout[B] {
	return &Maxout[B]{poolSize: poolSize}
}

// Forward applies maxout over axis 1.
func (m *Maxout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) < 2 || m.poolSize <= 0 {
		panic(fmt.Sprintf("maxout: invalid pool size %d for input %v", m.poolSize, shape))
	}
	grouped := make([]int, 0, len(shape)+1)
	grouped = append(grouped, shape[0], shape[1]/m.poolSize, m.poolSize)
	grouped = append(grouped, shape[2:]...)
	return x.Reshape(grouped...).MaxDim(2, false)
}

func (m *Maxout[B]) String() string { return fmt.Sprintf("Maxout(pool_size=%d)", m.poolSize) }

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies max(0, x).
func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.ReLU()
}

func (r *ReLU[B]) String() string { return "ReLU()" }

// Sigmoid applies 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the logistic function.
func (s *Sigmoid[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Sigmoid()
}

func (s *Sigmoid[B]) String() string { return "Sigmoid()" }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh.
func (t *Tanh[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Tanh()
}

func (t *Tanh[B]) String() string { return "Tanh()" }

// Softmax normalizes along axis so that values sum to 1.
type Softmax[B tensor.Backend] struct {
	axis int
}

// NewSoftmax creates a Softmax over axis.
func NewSoftmax[B tensor.Backend](axis int) *Softmax[B] {
	return &Softmax[B]{axis: axis}
}

// Forward applies softmax.
func (s *Softmax[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Softmax(s.axis)
}

func (s *Softmax[B]) String() string { return fmt.Sprintf("Softmax(axis=%d)", s.axis) }

// Softplus computes (1/beta) * log(1 + exp(beta*x)).
type Softplus[B tensor.Backend] struct {
	beta float32
}

// NewSoftplus creates a Softplus with the given beta.
func NewSoftplus[B tensor.Backend](beta float32) *Softplus[B] {
	return &Softplus[B]{beta: beta}
}

// Forward evaluates (max(bx, 0) + log(1 + exp(-|bx|))) / beta.
func (s *Softplus[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	bx := x.MulScalar(s.beta)
	pos, neg := bx.ReLU(), bx.Neg().ReLU()
	tail := pos.Add(neg).Neg().Exp().AddScalar(1).Log()
	return pos.Add(tail).DivScalar(s.beta)
}

func (s *Softplus[B]) String() string { return fmt.Sprintf("Softplus(beta=%g)", s.beta) }
