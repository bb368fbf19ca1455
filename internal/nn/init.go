package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/stream/internal/tensor"
)

// Option configures the random source of layers that draw random numbers
// (weight initialization, dropout masks, Gaussian noise).
type Option func(*options)

type options struct {
	src rand.Source
}

// WithSource makes a layer draw from src instead of the global math/rand/v2
// source, so runs are reproducible.
func WithSource(src rand.Source) Option {
	return func(o *options) {
		o.src = src
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Xavier (Glorot) initialization for weights.
//
// Values are drawn from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))),
// which keeps activation variance roughly constant across layers.
// A nil src draws from the global source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B, src rand.Source) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Sample[float32](shape, distuv.Uniform{Min: -bound, Max: bound, Src: src}, backend)
}

// Zeros creates a float32 tensor filled with zeros, used for bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a float32 tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

// Randn creates a float32 tensor with values drawn from N(0, 1).
func Randn[B tensor.Backend](shape tensor.Shape, backend B, src rand.Source) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, backend, src)
}
