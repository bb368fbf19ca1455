package cpu

import (
	"fmt"

	"github.com/born-ml/stream/internal/parallel"
	"github.com/born-ml/stream/internal/tensor"
)

// convGeom holds the dimensions of one Conv2D call.
type convGeom struct {
	n, cIn, h, w      int
	cOut, kh, kw      int
	hOut, wOut        int
	stride, padding   int
	colRows, colCols  int // im2col matrix for one sample: [cIn*kh*kw, hOut*wOut]
	inPlane, outPlane int // elements per sample
}

func newConvGeom(input, kernel tensor.Shape, stride, padding int) convGeom {
	if len(input) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(input)))
	}
	if len(kernel) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernel)))
	}
	if input[1] != kernel[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", input[1], kernel[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d / padding %d", stride, padding))
	}

	g := convGeom{
		n: input[0], cIn: input[1], h: input[2], w: input[3],
		cOut: kernel[0], kh: kernel[2], kw: kernel[3],
		stride: stride, padding: padding,
	}
	g.hOut = (g.h+2*padding-g.kh)/stride + 1
	g.wOut = (g.w+2*padding-g.kw)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", g.hOut, g.wOut))
	}
	g.colRows = g.cIn * g.kh * g.kw
	g.colCols = g.hOut * g.wOut
	g.inPlane = g.cIn * g.h * g.w
	g.outPlane = g.cOut * g.colCols
	return g
}

// Conv2D performs 2D convolution using im2col followed by a GEMM per sample.
//
// Input:  [N, C_in, H, W]
// Kernel: [C_out, C_in, K_h, K_w]
// Output: [N, C_out, H_out, W_out]
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom(input.Shape(), kernel.Shape(), stride, padding)
	out := cpu.alloc("conv2d", tensor.Shape{g.n, g.cOut, g.hOut, g.wOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dForward(out.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2dForward(out.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), g, cpu.par)
	default:
		panic(unsupported("conv2d", input.DType()))
	}
	return out
}

// Conv2DInputBackward computes dL/dinput: kernel^T @ grad per sample, folded back with col2im.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom(input.Shape(), kernel.Shape(), stride, padding)
	out := cpu.alloc("conv2d_backward", input.Shape(), input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dInputGrad(out.AsFloat32(), kernel.AsFloat32(), grad.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2dInputGrad(out.AsFloat64(), kernel.AsFloat64(), grad.AsFloat64(), g, cpu.par)
	default:
		panic(unsupported("conv2d_backward", input.DType()))
	}
	return out
}

// Conv2DKernelBackward computes dL/dkernel: sum over samples of grad @ im2col(input)^T.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom(input.Shape(), kernel.Shape(), stride, padding)
	out := cpu.alloc("conv2d_backward", kernel.Shape(), kernel.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dKernelGrad(out.AsFloat32(), input.AsFloat32(), grad.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2dKernelGrad(out.AsFloat64(), input.AsFloat64(), grad.AsFloat64(), g, cpu.par)
	default:
		panic(unsupported("conv2d_backward", input.DType()))
	}
	return out
}

func conv2dForward[T tensor.Float](out, input, kernel []T, g convGeom, par parallel.Config) {
	parallel.For(g.n, func(n int) {
		col := make([]T, g.colRows*g.colCols)
		im2col(col, input[n*g.inPlane:(n+1)*g.inPlane], g)
		gemm(false, false, g.cOut, g.colCols, g.colRows, kernel, col, out[n*g.outPlane:(n+1)*g.outPlane])
	}, par)
}

func conv2dInputGrad[T tensor.Float](out, kernel, grad []T, g convGeom, par parallel.Config) {
	parallel.For(g.n, func(n int) {
		col := make([]T, g.colRows*g.colCols)
		gemm(true, false, g.colRows, g.colCols, g.cOut, kernel, grad[n*g.outPlane:(n+1)*g.outPlane], col)
		col2im(out[n*g.inPlane:(n+1)*g.inPlane], col, g)
	}, par)
}

func conv2dKernelGrad[T tensor.Float](out, input, grad []T, g convGeom, par parallel.Config) {
	partial := make([][]T, g.n)
	parallel.For(g.n, func(n int) {
		col := make([]T, g.colRows*g.colCols)
		im2col(col, input[n*g.inPlane:(n+1)*g.inPlane], g)
		partial[n] = make([]T, len(out))
		gemm(false, true, g.cOut, g.colRows, g.colCols, grad[n*g.outPlane:(n+1)*g.outPlane], col, partial[n])
	}, par)
	for _, p := range partial {
		for i, v := range p {
			out[i] += v
		}
	}
}

// im2col unfolds one [C, H, W] sample into a [C*KH*KW, H_out*W_out] matrix.
func im2col[T tensor.Float](col, img []T, g convGeom) {
	for c := 0; c < g.cIn; c++ {
		for kh := 0; kh < g.kh; kh++ {
			for kw := 0; kw < g.kw; kw++ {
				row := ((c*g.kh+kh)*g.kw + kw) * g.colCols
				for oh := 0; oh < g.hOut; oh++ {
					h := oh*g.stride - g.padding + kh
					for ow := 0; ow < g.wOut; ow++ {
						w := ow*g.stride - g.padding + kw
						if h >= 0 && h < g.h && w >= 0 && w < g.w {
							col[row+oh*g.wOut+ow] = img[(c*g.h+h)*g.w+w]
						}
					}
				}
			}
		}
	}
}

// col2im is the adjoint of im2col: it accumulates columns back into the image.
func col2im[T tensor.Float](img, col []T, g convGeom) {
	for c := 0; c < g.cIn; c++ {
		for kh := 0; kh < g.kh; kh++ {
			for kw := 0; kw < g.kw; kw++ {
				row := ((c*g.kh+kh)*g.kw + kw) * g.colCols
				for oh := 0; oh < g.hOut; oh++ {
					h := oh*g.stride - g.padding + kh
					for ow := 0; ow < g.wOut; ow++ {
						w := ow*g.stride - g.padding + kw
						if h >= 0 && h < g.h && w >= 0 && w < g.w {
							img[(c*g.h+h)*g.w+w] += col[row+oh*g.wOut+ow]
						}
					}
				}
			}
		}
	}
}
