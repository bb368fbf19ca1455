package tensor

import "fmt"

// Window describes a sliding window over the trailing spatial axes of an
// (N, C, d1, ..., dk) tensor. It configures max/average pooling and unpooling.
type Window struct {
	Kernel   []int
	Stride   []int
	Pad      []int
	CoverAll bool
}

// NewWindow builds a Window. A nil stride defaults to the kernel size and a nil pad to zeros.
//
// Example:
//
//	w := tensor.NewWindow([]int{2, 2}, nil, nil, false) // 2x2, stride 2
func NewWindow(kernel, stride, pad []int, coverAll bool) Window {
	if stride == nil {
		stride = kernel
	}
	if pad == nil {
		pad = make([]int, len(kernel))
	}
	if len(stride) != len(kernel) || len(pad) != len(kernel) {
		panic(fmt.Sprintf("window: kernel %v, stride %v and pad %v must have the same length", kernel, stride, pad))
	}
	return Window{
		Kernel:   append([]int(nil), kernel...),
		Stride:   append([]int(nil), stride...),
		Pad:      append([]int(nil), pad...),
		CoverAll: coverAll,
	}
}

// Dims returns the number of spatial dimensions covered by the window.
func (w Window) Dims() int {
	return len(w.Kernel)
}

// Volume returns the number of elements inside one window.
func (w Window) Volume() int {
	return Shape(w.Kernel).NumElements()
}

// PooledSize returns the pooled length of a spatial axis.
//
//	coverAll: (size + 2p - k + s - 1) / s + 1
//	otherwise: (size + 2p - k) / s + 1
func PooledSize(size, k, s, p int, coverAll bool) int {
	if coverAll {
		return (size+2*p-k+s-1)/s + 1
	}
	return (size+2*p-k)/s + 1
}

// UnpooledSize is the inverse of PooledSize: the default output length of unpooling.
//
//	coverAll: s*(size-1) + k - s + 1 - 2p
//	otherwise: s*(size-1) + k - 2p
func UnpooledSize(size, k, s, p int, coverAll bool) int {
	if coverAll {
		return s*(size-1) + k - s + 1 - 2*p
	}
	return s*(size-1) + k - 2*p
}

// PooledShape returns the shape produced by pooling an input of shape in.
// Panics on invalid configuration.
func (w Window) PooledShape(in Shape) Shape {
	w.check(in)
	out := in.Clone()
	for i := range w.Kernel {
		out[2+i] = PooledSize(in[2+i], w.Kernel[i], w.Stride[i], w.Pad[i], w.CoverAll)
		if in[2+i]+2*w.Pad[i] < w.Kernel[i] || out[2+i] <= 0 {
			panic(fmt.Sprintf("pool: window %v does not fit input %v", w.Kernel, in))
		}
	}
	return out
}

// UnpooledShape returns the default shape produced by unpooling an input of shape in.
func (w Window) UnpooledShape(in Shape) Shape {
	w.check(in)
	out := in.Clone()
	for i := range w.Kernel {
		out[2+i] = UnpooledSize(in[2+i], w.Kernel[i], w.Stride[i], w.Pad[i], w.CoverAll)
		if out[2+i] <= 0 {
			panic(fmt.Sprintf("unpool: window %v produces empty output for input %v", w.Kernel, in))
		}
	}
	return out
}

func (w Window) check(in Shape) {
	if len(in) != 2+len(w.Kernel) {
		panic(fmt.Sprintf("pool: expected %dD input (N, C, %d spatial), got shape %v", 2+len(w.Kernel), len(w.Kernel), in))
	}
	for i := range w.Kernel {
		if w.Kernel[i] <= 0 || w.Stride[i] <= 0 || w.Pad[i] < 0 {
			panic(fmt.Sprintf("pool: invalid window kernel=%v stride=%v pad=%v", w.Kernel, w.Stride, w.Pad))
		}
	}
}
