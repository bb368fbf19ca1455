// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/tensor"
)

// Default values for optional wrapper arguments.
const (
	DefaultClippedReLUCeiling = nn.DefaultClippedReLUCeiling
	DefaultCReLUAxis          = nn.DefaultCReLUAxis
	DefaultELUAlpha           = nn.DefaultELUAlpha
	DefaultLeakyReLUSlope     = nn.DefaultLeakyReLUSlope
	DefaultMaxoutPoolSize     = nn.DefaultMaxoutPoolSize
	DefaultSoftmaxAxis        = nn.DefaultSoftmaxAxis
	DefaultSoftplusBeta       = nn.DefaultSoftplusBeta
	DefaultDropoutRatio       = nn.DefaultDropoutRatio
)

// Activations.
type (
	ClippedReLU[B tensor.Backend] = nn.ClippedReLU[B]
	CReLU[B tensor.Backend]       = nn.CReLU[B]
	ELU[B tensor.Backend]         = nn.ELU[B]
	HardSigmoid[B tensor.Backend] = nn.HardSigmoid[B]
	LeakyReLU[B tensor.Backend]   = nn.LeakyReLU[B]
	LogSoftmax[B tensor.Backend]  = nn.LogSoftmax[B]
	Maxout[B tensor.Backend]      = nn.Maxout[B]
	ReLU[B tensor.Backend]        = nn.ReLU[B]
	Sigmoid[B tensor.Backend]     = nn.Sigmoid[B]
	Softmax[B tensor.Backend]     = nn.Softmax[B]
	Softplus[B tensor.Backend]    = nn.Softplus[B]
	Tanh[B tensor.Backend]        = nn.Tanh[B]
)

// NewClippedReLU creates min(max(0, x), z).
func NewClippedReLU[B tensor.Backend](z float32) *ClippedReLU[B] {
	return nn.NewClippedReLU[B](z)
}

// NewCReLU creates concat(relu(x), relu(-x)) along axis.
func NewCReLU[B tensor.Backend](axis int) *CReLU[B] {
	return nn.NewCReLU[B](axis)
}

// NewELU creates an exponential linear unit.
func NewELU[B tensor.Backend](alpha float32) *ELU[B] {
	return nn.NewELU[B](alpha)
}

// NewHardSigmoid creates clip(0.2x + 0.5, 0, 1).
func NewHardSigmoid[B tensor.Backend]() *HardSigmoid[B] {
	return nn.NewHardSigmoid[B]()
}

// NewLeakyReLU creates a leaky ReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](slope)
}

// NewLogSoftmax creates a numerically stable log-softmax over axis.
func NewLogSoftmax[B tensor.Backend](axis int) *LogSoftmax[B] {
	return nn.NewLogSoftmax[B](axis)
}

// NewMaxout creates a maxout over groups of poolSize channels.
//
//	maxout := nn.NewMaxout[B](2) // [N, 8, H, W] -> [N, 4, H, W]
func NewMaxout[B tensor.Backend](poolSize int) *Maxout[B] {
	return nn.NewMaxout[B](poolSize)
}

// NewReLU creates max(0, x).
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// NewSigmoid creates the logistic function.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// NewSoftmax creates a softmax over axis.
func NewSoftmax[B tensor.Backend](axis int) *Softmax[B] {
	return nn.NewSoftmax[B](axis)
}

// NewSoftplus creates (1/beta) * log(1 + exp(beta*x)).
func NewSoftplus[B tensor.Backend](beta float32) *Softplus[B] {
	return nn.NewSoftplus[B](beta)
}

// NewTanh creates the hyperbolic tangent.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Array manipulation.
type (
	BroadcastTo[B tensor.Backend] = nn.BroadcastTo[B]
	ExpandDims[B tensor.Backend]  = nn.ExpandDims[B]
	Flatten[B tensor.Backend]     = nn.Flatten[B]
	Reshape[B tensor.Backend]     = nn.Reshape[B]
	RollAxis[B tensor.Backend]    = nn.RollAxis[B]
	Squeeze[B tensor.Backend]     = nn.Squeeze[B]
	SwapAxes[B tensor.Backend]    = nn.SwapAxes[B]
	Tile[B tensor.Backend]        = nn.Tile[B]
	Transpose[B tensor.Backend]   = nn.Transpose[B]
)

// NewBroadcastTo expands input to shape.
func NewBroadcastTo[B tensor.Backend](shape ...int) *BroadcastTo[B] {
	return nn.NewBroadcastTo[B](shape...)
}

// NewExpandDims inserts a unit axis.
func NewExpandDims[B tensor.Backend](axis int) *ExpandDims[B] {
	return nn.NewExpandDims[B](axis)
}

// NewFlatten reshapes input to one dimension.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// NewReshape reshapes input; one dimension may be -1.
//
//	flat := nn.NewReshape[B](-1, 256) // [N, 16, 4, 4] -> [N, 256]
func NewReshape[B tensor.Backend](shape ...int) *Reshape[B] {
	return nn.NewReshape[B](shape...)
}

// NewRollAxis moves axis before position start.
func NewRollAxis[B tensor.Backend](axis, start int) *RollAxis[B] {
	return nn.NewRollAxis[B](axis, start)
}

// NewSqueeze removes unit axes (all of them when axes is empty).
func NewSqueeze[B tensor.Backend](axes ...int) *Squeeze[B] {
	return nn.NewSqueeze[B](axes...)
}

// NewSwapAxes exchanges two axes.
func NewSwapAxes[B tensor.Backend](axis1, axis2 int) *SwapAxes[B] {
	return nn.NewSwapAxes[B](axis1, axis2)
}

// NewTile repeats input along each axis.
func NewTile[B tensor.Backend](reps ...int) *Tile[B] {
	return nn.NewTile[B](reps...)
}

// NewTranspose permutes axes (reverses them when axes is empty).
func NewTranspose[B tensor.Backend](axes ...int) *Transpose[B] {
	return nn.NewTranspose[B](axes...)
}

// Noise. Both are identities in Eval mode.
type (
	Dropout[B tensor.Backend]       = nn.Dropout[B]
	GaussianNoise[B tensor.Backend] = nn.GaussianNoise[B]
)

// NewDropout creates a Dropout layer. ratio must lie in [0, 1).
func NewDropout[B tensor.Backend](ratio float32, opts ...Option) *Dropout[B] {
	return nn.NewDropout[B](ratio, opts...)
}

// NewGaussianNoise creates a layer that adds N(mean, std²) noise in Train mode.
func NewGaussianNoise[B tensor.Backend](mean, std float32, opts ...Option) *GaussianNoise[B] {
	return nn.NewGaussianNoise[B](mean, std, opts...)
}

// PoolingKind selects the reduction used by SpatialPyramidPooling2D.
type PoolingKind = nn.PoolingKind

// Pooling kinds.
const (
	PoolMax     PoolingKind = nn.PoolMax
	PoolAverage PoolingKind = nn.PoolAverage
)

// Pooling.
type (
	AveragePooling2D[B tensor.Backend]        = nn.AveragePooling2D[B]
	AveragePoolingND[B tensor.Backend]        = nn.AveragePoolingND[B]
	MaxPooling2D[B tensor.Backend]            = nn.MaxPooling2D[B]
	MaxPoolingND[B tensor.Backend]            = nn.MaxPoolingND[B]
	SpatialPyramidPooling2D[B tensor.Backend] = nn.SpatialPyramidPooling2D[B]
	Unpooling2D[B tensor.Backend]             = nn.Unpooling2D[B]
	UpSampling2D[B tensor.Backend]            = nn.UpSampling2D[B]
)

// NewAveragePooling2D creates a 2D average pooling layer. stride 0 means stride = ksize.
func NewAveragePooling2D[B tensor.Backend](ksize, stride, pad int) *AveragePooling2D[B] {
	return nn.NewAveragePooling2D[B](ksize, stride, pad)
}

// NewAveragePoolingND creates an N-dimensional average pooling layer.
func NewAveragePoolingND[B tensor.Backend](ksize, stride, pad []int) *AveragePoolingND[B] {
	return nn.NewAveragePoolingND[B](ksize, stride, pad)
}

// NewMaxPooling2D creates a 2D max pooling layer. stride 0 means stride = ksize.
func NewMaxPooling2D[B tensor.Backend](ksize, stride, pad int, coverAll bool) *MaxPooling2D[B] {
	return nn.NewMaxPooling2D[B](ksize, stride, pad, coverAll)
}

// NewMaxPoolingND creates an N-dimensional max pooling layer.
func NewMaxPoolingND[B tensor.Backend](ksize, stride, pad []int, coverAll bool) *MaxPoolingND[B] {
	return nn.NewMaxPoolingND[B](ksize, stride, pad, coverAll)
}

// NewSpatialPyramidPooling2D creates a spatial pyramid pooling layer.
func NewSpatialPyramidPooling2D[B tensor.Backend](pyramidHeight int, pooling PoolingKind) *SpatialPyramidPooling2D[B] {
	return nn.NewSpatialPyramidPooling2D[B](pyramidHeight, pooling)
}

// NewUnpooling2D creates an unpooling layer.
func NewUnpooling2D[B tensor.Backend](ksize, stride, pad int, outSize []int, coverAll bool) *Unpooling2D[B] {
	return nn.NewUnpooling2D[B](ksize, stride, pad, outSize, coverAll)
}

// NewUpSampling2D creates an index-guided upsampling layer.
func NewUpSampling2D[B tensor.Backend](indexes *tensor.Tensor[int32, B], ksize, stride, pad int, outSize []int, coverAll bool) *UpSampling2D[B] {
	return nn.NewUpSampling2D(indexes, ksize, stride, pad, outSize, coverAll)
}

// MaxPoolIndexes returns the in-window offsets of the maxima selected by
// MaxPooling2D with the same configuration.
func MaxPoolIndexes[B tensor.Backend](x *tensor.Tensor[float32, B], ksize, stride, pad int, coverAll bool) *tensor.Tensor[int32, B] {
	return nn.MaxPoolIndexes(x, ksize, stride, pad, coverAll)
}
