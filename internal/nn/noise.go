package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/stream/internal/tensor"
)

// DefaultDropoutRatio is the drop probability used when none is configured.
const DefaultDropoutRatio = 0.5

// Dropout zeroes each element with probability ratio during training and
// scales the survivors by 1/(1-ratio). In Eval mode it returns its input.
type Dropout[B tensor.Backend] struct {
	ratio float32
	mode  Mode
	opts  options
}

// NewDropout creates a Dropout layer. ratio must be in [0, 1).
func NewDropout[B tensor.Backend](ratio float32, opts ...Option) *Dropout[B] {
	if ratio < 0 || ratio >= 1 {
		panic(fmt.Sprintf("dropout: ratio must be in [0, 1), got %g", ratio))
	}
	return &Dropout[B]{ratio: ratio, opts: applyOptions(opts)}
}

// Forward applies the dropout mask in Train mode.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if d.mode == Eval || d.ratio == 0 {
		return x
	}
	keep := distuv.Bernoulli{P: 1 - float64(d.ratio), Src: d.opts.src}
	mask := tensor.Sample[float32](x.Shape(), keep, x.Backend())
	return x.Mul(mask.MulScalar(1 / (1 - d.ratio)))
}

// SetMode switches between Train and Eval.
func (d *Dropout[B]) SetMode(m Mode) { d.mode = m }

// Mode returns the current mode.
func (d *Dropout[B]) Mode() Mode { return d.mode }

// Ratio returns the drop probability.
func (d *Dropout[B]) Ratio() float32 { return d.ratio }

func (d *Dropout[B]) String() string { return fmt.Sprintf("Dropout(ratio=%g)", d.ratio) }

// GaussianNoise adds i.i.d. Gaussian noise with the given mean and standard
// deviation to every element during training. In Eval mode it returns its
// input unchanged.
//
// The noise scale is reconstructed from the log-variance log(std²), so
// std = 0 yields noise equal to mean.
type GaussianNoise[B tensor.Backend] struct {
	mean, std float32
	mode      Mode
	opts      options
}

// NewGaussianNoise creates a GaussianNoise layer.
func NewGaussianNoise[B tensor.Backend](mean, std float32, opts ...Option) *GaussianNoise[B] {
	return &GaussianNoise[B]{mean: mean, std: std, opts: applyOptions(opts)}
}

// Forward returns x + mean + exp(lnVar/2)*ε with ε ~ N(0, 1) in Train mode.
func (g *GaussianNoise[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if g.mode == Eval {
		return x
	}
	lnVar := math.Log(float64(g.std) * float64(g.std))
	scale := float32(math.Exp(lnVar / 2))

	eps := tensor.Sample[float32](x.Shape(), distuv.Normal{Mu: 0, Sigma: 1, Src: g.opts.src}, x.Backend())
	noise := eps.MulScalar(scale).AddScalar(g.mean)
	return x.Add(noise)
}

// SetMode switches between Train and Eval.
func (g *GaussianNoise[B]) SetMode(m Mode) { g.mode = m }

// Mode returns the current mode.
func (g *GaussianNoise[B]) Mode() Mode { return g.mode }

func (g *GaussianNoise[B]) String() string {
	return fmt.Sprintf("GaussianNoise(mean=%g, std=%g)", g.mean, g.std)
}
