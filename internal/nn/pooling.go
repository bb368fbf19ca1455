package nn

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// window2D builds a square 2D window. A stride of 0 selects ksize.
func window2D(ksize, stride, pad int, coverAll bool) tensor.Window {
	if stride == 0 {
		stride = ksize
	}
	return tensor.NewWindow([]int{ksize, ksize}, []int{stride, stride}, []int{pad, pad}, coverAll)
}

// AveragePooling2D averages non-overlapping (or strided) square windows of [N, C, H, W] input.
// Padded positions count as zeros and the divisor is always ksize².
type AveragePooling2D[B tensor.Backend] struct {
	window tensor.Window
}

// NewAveragePooling2D creates a 2D average pooling layer. stride 0 means stride = ksize.
func NewAveragePooling2D[B tensor.Backend](ksize, stride, pad int) *AveragePooling2D[B] {
	return &AveragePooling2D[B]{window: window2D(ksize, stride, pad, false)}
}

// Forward applies average pooling.
func (p *AveragePooling2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.AvgPool(p.window)
}

func (p *AveragePooling2D[B]) String() string {
	return fmt.Sprintf("AveragePooling2D(ksize=%d, stride=%d, pad=%d)", p.window.Kernel[0], p.window.Stride[0], p.window.Pad[0])
}

// AveragePoolingND averages windows over the trailing len(ksize) axes of [N, C, d1, ..., dk] input.
type AveragePoolingND[B tensor.Backend] struct {
	window tensor.Window
}

// NewAveragePoolingND creates an N-dimensional average pooling layer.
// A nil stride selects ksize and a nil pad selects zeros.
func NewAveragePoolingND[B tensor.Backend](ksize, stride, pad []int) *AveragePoolingND[B] {
	return &AveragePoolingND[B]{window: tensor.NewWindow(ksize, stride, pad, false)}
}

// Forward applies average pooling.
func (p *AveragePoolingND[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.AvgPool(p.window)
}

func (p *AveragePoolingND[B]) String() string {
	return fmt.Sprintf("AveragePoolingND(ksize=%v, stride=%v, pad=%v)", p.window.Kernel, p.window.Stride, p.window.Pad)
}

// MaxPooling2D keeps the maximum of each square window of [N, C, H, W] input.
// With coverAll, a final partial window is added so every input element is covered.
type MaxPooling2D[B tensor.Backend] struct {
	window tensor.Window
}

// NewMaxPooling2D creates a 2D max pooling layer. stride 0 means stride = ksize.
func NewMaxPooling2D[B tensor.Backend](ksize, stride, pad int, coverAll bool) *MaxPooling2D[B] {
	return &MaxPooling2D[B]{window: window2D(ksize, stride, pad, coverAll)}
}

// Forward applies max pooling.
func (p *MaxPooling2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.MaxPool(p.window)
}

func (p *MaxPooling2D[B]) String() string {
	return fmt.Sprintf("MaxPooling2D(ksize=%d, stride=%d, pad=%d, cover_all=%v)",
		p.window.Kernel[0], p.window.Stride[0], p.window.Pad[0], p.window.CoverAll)
}

// MaxPoolingND keeps the maximum of each window over the trailing len(ksize) axes.
type MaxPoolingND[B tensor.Backend] struct {
	window tensor.Window
}

// NewMaxPoolingND creates an N-dimensional max pooling layer.
// A nil stride selects ksize and a nil pad selects zeros.
func NewMaxPoolingND[B tensor.Backend](ksize, stride, pad []int, coverAll bool) *MaxPoolingND[B] {
	return &MaxPoolingND[B]{window: tensor.NewWindow(ksize, stride, pad, coverAll)}
}

// Forward applies max pooling.
func (p *MaxPoolingND[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.MaxPool(p.window)
}

func (p *MaxPoolingND[B]) String() string {
	return fmt.Sprintf("MaxPoolingND(ksize=%v, stride=%v, pad=%v, cover_all=%v)",
		p.window.Kernel, p.window.Stride, p.window.Pad, p.window.CoverAll)
}

// PoolingKind selects the reduction used by SpatialPyramidPooling2D.
type PoolingKind int

// Pooling kinds.
const (
	PoolMax PoolingKind = iota
	PoolAverage
)

func (k PoolingKind) String() string {
	if k == PoolAverage {
		return "average"
	}
	return "max"
}

// SpatialPyramidPooling2D pools [N, C, H, W] input at pyramidHeight levels
// (1x1, 2x2, 4x4, ... bins) and concatenates the flattened levels.
//
// Output shape: [N, C * (4^pyramidHeight - 1) / 3, 1, 1] for maps whose
// sides are at least 2^(pyramidHeight-1).
type SpatialPyramidPooling2D[B tensor.Backend] struct {
	pyramidHeight int
	pooling       PoolingKind
}

// NewSpatialPyramidPooling2D creates a spatial pyramid pooling layer.
func NewSpatialPyramidPooling2D[B tensor.Backend](pyramidHeight int, pooling PoolingKind) *SpatialPyramidPooling2D[B] {
	return &SpatialPyramidPooling2D[B]{pyramidHeight: pyramidHeight, pooling: pooling}
}

// levelWindow returns the window that splits an h x w map into bins x bins cells.
func levelWindow(h, w, bins int) tensor.Window {
	kh := (h + bins - 1) / bins
	kw := (w + bins - 1) / bins
	return tensor.NewWindow(
		[]int{kh, kw},
		[]int{kh, kw},
		[]int{(kh*bins - h) / 2, (kw*bins - w) / 2},
		true,
	)
}

// Forward pools every pyramid level and concatenates the results on axis 1.
func (p *SpatialPyramidPooling2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 || p.pyramidHeight <= 0 {
		panic(fmt.Sprintf("spp: expected 4D input and positive pyramid height, got shape %v, height %d", shape, p.pyramidHeight))
	}

	levels := make([]*tensor.Tensor[float32, B], 0, p.pyramidHeight)
	for l := 0; l < p.pyramidHeight; l++ {
		w := levelWindow(shape[2], shape[3], 1<<l)
		var pooled *tensor.Tensor[float32, B]
		if p.pooling == PoolAverage {
			pooled = x.AvgPool(w)
		} else {
			pooled = x.MaxPool(w)
		}
		levels = append(levels, pooled.Reshape(shape[0], -1, 1, 1))
	}
	return tensor.Cat(levels, 1)
}

func (p *SpatialPyramidPooling2D[B]) String() string {
	return fmt.Sprintf("SpatialPyramidPooling2D(pyramid_height=%d, pooling=%s)", p.pyramidHeight, p.pooling)
}

// Unpooling2D is the inverse of pooling: each input element is copied over
// its whole window of the output, overlaps summed.
type Unpooling2D[B tensor.Backend] struct {
	window  tensor.Window
	outSize []int
}

// NewUnpooling2D creates an unpooling layer. stride 0 means stride = ksize;
// a nil outSize computes the size that pooling with the same window would invert.
func NewUnpooling2D[B tensor.Backend](ksize, stride, pad int, outSize []int, coverAll bool) *Unpooling2D[B] {
	return &Unpooling2D[B]{window: window2D(ksize, stride, pad, coverAll), outSize: outSize}
}

// Forward applies unpooling.
func (u *Unpooling2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Unpool(nil, u.window, u.outSize)
}

func (u *Unpooling2D[B]) String() string {
	return fmt.Sprintf("Unpooling2D(ksize=%d, stride=%d, pad=%d, outsize=%v, cover_all=%v)",
		u.window.Kernel[0], u.window.Stride[0], u.window.Pad[0], u.outSize, u.window.CoverAll)
}

// UpSampling2D places each input element at the window offset recorded by
// MaxPoolIndexes, leaving the rest of the window zero.
type UpSampling2D[B tensor.Backend] struct {
	indexes *tensor.Tensor[int32, B]
	window  tensor.Window
	outSize []int
}

// NewUpSampling2D creates an index-guided upsampling layer. indexes must
// come from MaxPoolIndexes with the same window configuration.
func NewUpSampling2D[B tensor.Backend](indexes *tensor.Tensor[int32, B], ksize, stride, pad int, outSize []int, coverAll bool) *UpSampling2D[B] {
	return &UpSampling2D[B]{indexes: indexes, window: window2D(ksize, stride, pad, coverAll), outSize: outSize}
}

// Forward applies upsampling.
func (u *UpSampling2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Unpool(u.indexes, u.window, u.outSize)
}

func (u *UpSampling2D[B]) String() string {
	return fmt.Sprintf("UpSampling2D(ksize=%d, stride=%d, pad=%d, outsize=%v, cover_all=%v)",
		u.window.Kernel[0], u.window.Stride[0], u.window.Pad[0], u.outSize, u.window.CoverAll)
}

// MaxPoolIndexes returns, for every output of MaxPooling2D with the same
// configuration, the flat offset of the maximum inside its window.
//
// Example:
//
//	idx := nn.MaxPoolIndexes(x, 2, 0, 0, false)
//	pooled := nn.NewMaxPooling2D[B](2, 0, 0, false).Forward(x)
//	restored := nn.NewUpSampling2D(idx, 2, 0, 0, nil, false).Forward(pooled)
func MaxPoolIndexes[B tensor.Backend](x *tensor.Tensor[float32, B], ksize, stride, pad int, coverAll bool) *tensor.Tensor[int32, B] {
	return x.MaxPoolIndices(window2D(ksize, stride, pad, coverAll))
}
