package cpu

import (
	"math"

	"github.com/born-ml/stream/internal/tensor"
)

// Sum reduces all elements to a scalar tensor (shape []).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := cpu.alloc("sum", tensor.Shape{}, x.DType())
	switch x.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = sumAll(x.AsFloat32())
	case tensor.Float64:
		out.AsFloat64()[0] = sumAll(x.AsFloat64())
	default:
		panic(unsupported("sum", x.DType()))
	}
	return out
}

func sumAll[T tensor.Float](data []T) T {
	var s T
	for _, v := range data {
		s += v
	}
	return s
}

// axisSplit views a shape as [outer, size, inner] around dim.
type axisSplit struct {
	outer, size, inner int
}

func splitAxis(shape tensor.Shape, dim int) axisSplit {
	s := axisSplit{outer: 1, size: shape[dim], inner: 1}
	for _, d := range shape[:dim] {
		s.outer *= d
	}
	for _, d := range shape[dim+1:] {
		s.inner *= d
	}
	return s
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	return append(out, shape[dim+1:]...)
}

// SumDim sums along dim.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = tensor.NormalizeAxis(dim, len(x.Shape()))
	sp := splitAxis(x.Shape(), dim)
	out := cpu.alloc("sumdim", reducedShape(x.Shape(), dim, keepDim), x.DType())
	switch x.DType() {
	case tensor.Float32:
		reduceAxis(out.AsFloat32(), x.AsFloat32(), sp, 0, func(acc, v float32) float32 { return acc + v })
	case tensor.Float64:
		reduceAxis(out.AsFloat64(), x.AsFloat64(), sp, 0, func(acc, v float64) float64 { return acc + v })
	default:
		panic(unsupported("sumdim", x.DType()))
	}
	return out
}

// MaxDim takes the maximum along dim.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = tensor.NormalizeAxis(dim, len(x.Shape()))
	sp := splitAxis(x.Shape(), dim)
	out := cpu.alloc("maxdim", reducedShape(x.Shape(), dim, keepDim), x.DType())
	switch x.DType() {
	case tensor.Float32:
		reduceAxis(out.AsFloat32(), x.AsFloat32(), sp, float32(math.Inf(-1)), maxOf[float32])
	case tensor.Float64:
		reduceAxis(out.AsFloat64(), x.AsFloat64(), sp, math.Inf(-1), maxOf[float64])
	default:
		panic(unsupported("maxdim", x.DType()))
	}
	return out
}

// MaxDimBackward routes grad to the first maximum along dim; other positions get zero.
func (cpu *CPUBackend) MaxDimBackward(x, grad *tensor.RawTensor, dim int, _ bool) *tensor.RawTensor {
	dim = tensor.NormalizeAxis(dim, len(x.Shape()))
	sp := splitAxis(x.Shape(), dim)
	out := cpu.alloc("maxdim_backward", x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		argmaxScatter(out.AsFloat32(), x.AsFloat32(), grad.AsFloat32(), sp)
	case tensor.Float64:
		argmaxScatter(out.AsFloat64(), x.AsFloat64(), grad.AsFloat64(), sp)
	default:
		panic(unsupported("maxdim_backward", x.DType()))
	}
	return out
}

func reduceAxis[T tensor.Float](dst, src []T, sp axisSplit, init T, f func(acc, v T) T) {
	for o := 0; o < sp.outer; o++ {
		for i := 0; i < sp.inner; i++ {
			acc := init
			for k := 0; k < sp.size; k++ {
				acc = f(acc, src[(o*sp.size+k)*sp.inner+i])
			}
			dst[o*sp.inner+i] = acc
		}
	}
}

func argmaxScatter[T tensor.Float](dst, src, grad []T, sp axisSplit) {
	for o := 0; o < sp.outer; o++ {
		for i := 0; i < sp.inner; i++ {
			best := 0
			for k := 1; k < sp.size; k++ {
				if src[(o*sp.size+k)*sp.inner+i] > src[(o*sp.size+best)*sp.inner+i] {
					best = k
				}
			}
			dst[(o*sp.size+best)*sp.inner+i] = grad[o*sp.inner+i]
		}
	}
}

// Softmax computes exp(x - max) / sum(exp(x - max)) along dim.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	dim = tensor.NormalizeAxis(dim, len(x.Shape()))
	sp := splitAxis(x.Shape(), dim)
	out := cpu.alloc("softmax", x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		softmax(out.AsFloat32(), x.AsFloat32(), sp)
	case tensor.Float64:
		softmax(out.AsFloat64(), x.AsFloat64(), sp)
	default:
		panic(unsupported("softmax", x.DType()))
	}
	return out
}

func softmax[T tensor.Float](dst, src []T, sp axisSplit) {
	for o := 0; o < sp.outer; o++ {
		for i := 0; i < sp.inner; i++ {
			at := func(k int) int { return (o*sp.size+k)*sp.inner + i }
			m := math.Inf(-1)
			for k := 0; k < sp.size; k++ {
				m = math.Max(m, float64(src[at(k)]))
			}
			sum := 0.0
			for k := 0; k < sp.size; k++ {
				e := math.Exp(float64(src[at(k)]) - m)
				dst[at(k)] = T(e)
				sum += e
			}
			for k := 0; k < sp.size; k++ {
				dst[at(k)] = T(float64(dst[at(k)]) / sum)
			}
		}
	}
}

func maxOf[T tensor.Float](a, b T) T {
	return max(a, b)
}
