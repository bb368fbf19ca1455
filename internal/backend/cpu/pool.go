package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/stream/internal/parallel"
	"github.com/born-ml/stream/internal/tensor"
)

// poolGeom maps between a "wide" spatial grid (pooling input, unpooling output)
// and a "narrow" one (pooling output, unpooling input) through a window.
type poolGeom struct {
	win          tensor.Window
	planes       int // N * C
	wide, narrow []int
	wideStrides  []int
	narrowStride []int
	widePlane    int
	narrowPlane  int
	kernelStride []int
}

func newPoolGeom(w tensor.Window, planes int, wide, narrow []int) poolGeom {
	return poolGeom{
		win:          w,
		planes:       planes,
		wide:         wide,
		narrow:       narrow,
		wideStrides:  tensor.Shape(wide).ComputeStrides(),
		narrowStride: tensor.Shape(narrow).ComputeStrides(),
		widePlane:    tensor.Shape(wide).NumElements(),
		narrowPlane:  tensor.Shape(narrow).NumElements(),
		kernelStride: tensor.Shape(w.Kernel).ComputeStrides(),
	}
}

// window calls f for every in-bounds element of the window anchored at narrow
// position o, passing the flat window offset and the flat wide position.
func (g *poolGeom) window(o int, f func(k, pos int)) {
	dims := len(g.wide)
	var origin [8]int
	rem := o
	for d := 0; d < dims; d++ {
		origin[d] = (rem/g.narrowStride[d])*g.win.Stride[d] - g.win.Pad[d]
		rem %= g.narrowStride[d]
	}

	volume := g.win.Volume()
	for k := 0; k < volume; k++ {
		pos, rem, ok := 0, k, true
		for d := 0; d < dims; d++ {
			c := origin[d] + rem/g.kernelStride[d]
			rem %= g.kernelStride[d]
			if c < 0 || c >= g.wide[d] {
				ok = false
				break
			}
			pos += c * g.wideStrides[d]
		}
		if ok {
			f(k, pos)
		}
	}
}

func pooledGeom(op string, x tensor.Shape, w tensor.Window) (poolGeom, tensor.Shape) {
	if len(w.Kernel) > 8 {
		panic(fmt.Sprintf("%s: at most 8 spatial dimensions supported, got %d", op, len(w.Kernel)))
	}
	out := w.PooledShape(x)
	return newPoolGeom(w, x[0]*x[1], x[2:], out[2:]), out
}

// MaxPool applies N-dimensional max pooling. Padded positions never win.
func (cpu *CPUBackend) MaxPool(x *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	g, outShape := pooledGeom("maxpool", x.Shape(), w)
	out := cpu.alloc("maxpool", outShape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		maxPool(out.AsFloat32(), nil, x.AsFloat32(), &g, cpu.par)
	case tensor.Float64:
		maxPool(out.AsFloat64(), nil, x.AsFloat64(), &g, cpu.par)
	default:
		panic(unsupported("maxpool", x.DType()))
	}
	return out
}

// MaxPoolIndices returns the flat in-window offset of every maximum as int32.
func (cpu *CPUBackend) MaxPoolIndices(x *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	g, outShape := pooledGeom("maxpool", x.Shape(), w)
	idx := cpu.alloc("maxpool", outShape, tensor.Int32)

	switch x.DType() {
	case tensor.Float32:
		maxPool(nil, idx.AsInt32(), x.AsFloat32(), &g, cpu.par)
	case tensor.Float64:
		maxPool(nil, idx.AsInt32(), x.AsFloat64(), &g, cpu.par)
	default:
		panic(unsupported("maxpool", x.DType()))
	}
	return idx
}

// MaxPoolBackward routes each output gradient to the position that held the maximum.
func (cpu *CPUBackend) MaxPoolBackward(x, grad *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	g, _ := pooledGeom("maxpool_backward", x.Shape(), w)
	idx := cpu.MaxPoolIndices(x, w).AsInt32()
	out := cpu.alloc("maxpool_backward", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		scatter(out.AsFloat32(), grad.AsFloat32(), idx, &g, cpu.par)
	case tensor.Float64:
		scatter(out.AsFloat64(), grad.AsFloat64(), idx, &g, cpu.par)
	default:
		panic(unsupported("maxpool_backward", x.DType()))
	}
	return out
}

// AvgPool applies N-dimensional average pooling. Padding counts as zeros in
// the divisor, which is always the window volume.
func (cpu *CPUBackend) AvgPool(x *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	g, outShape := pooledGeom("avgpool", x.Shape(), w)
	out := cpu.alloc("avgpool", outShape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		gather(out.AsFloat32(), x.AsFloat32(), nil, &g, cpu.par)
		scale(out.AsFloat32(), 1/float64(w.Volume()))
	case tensor.Float64:
		gather(out.AsFloat64(), x.AsFloat64(), nil, &g, cpu.par)
		scale(out.AsFloat64(), 1/float64(w.Volume()))
	default:
		panic(unsupported("avgpool", x.DType()))
	}
	return out
}

// AvgPoolBackward spreads each output gradient evenly over its window.
func (cpu *CPUBackend) AvgPoolBackward(inputShape tensor.Shape, grad *tensor.RawTensor, w tensor.Window) *tensor.RawTensor {
	g, _ := pooledGeom("avgpool_backward", inputShape, w)
	out := cpu.alloc("avgpool_backward", inputShape, grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		scatter(out.AsFloat32(), grad.AsFloat32(), nil, &g, cpu.par)
		scale(out.AsFloat32(), 1/float64(w.Volume()))
	case tensor.Float64:
		scatter(out.AsFloat64(), grad.AsFloat64(), nil, &g, cpu.par)
		scale(out.AsFloat64(), 1/float64(w.Volume()))
	default:
		panic(unsupported("avgpool_backward", grad.DType()))
	}
	return out
}

// Unpool writes every element of x into its window of the output, summing
// overlaps. With indexes, only the recorded in-window offset is written.
func (cpu *CPUBackend) Unpool(x, indexes *tensor.RawTensor, w tensor.Window, outSize []int) *tensor.RawTensor {
	g, outShape := unpooledGeom("unpool", x.Shape(), indexes, w, outSize)
	out := cpu.alloc("unpool", outShape, x.DType())
	idx := int32Values(indexes)

	switch x.DType() {
	case tensor.Float32:
		scatter(out.AsFloat32(), x.AsFloat32(), idx, &g, cpu.par)
	case tensor.Float64:
		scatter(out.AsFloat64(), x.AsFloat64(), idx, &g, cpu.par)
	default:
		panic(unsupported("unpool", x.DType()))
	}
	return out
}

// UnpoolBackward gathers the output gradient back onto the unpooled input.
func (cpu *CPUBackend) UnpoolBackward(indexes, grad *tensor.RawTensor, w tensor.Window, inputShape tensor.Shape) *tensor.RawTensor {
	gradShape := grad.Shape()
	if len(gradShape) < 2 {
		panic(fmt.Sprintf("unpool_backward: invalid gradient shape %v", gradShape))
	}
	g, _ := unpooledGeom("unpool_backward", inputShape, indexes, w, gradShape[2:])
	out := cpu.alloc("unpool_backward", inputShape, grad.DType())
	idx := int32Values(indexes)

	switch grad.DType() {
	case tensor.Float32:
		gather(out.AsFloat32(), grad.AsFloat32(), idx, &g, cpu.par)
	case tensor.Float64:
		gather(out.AsFloat64(), grad.AsFloat64(), idx, &g, cpu.par)
	default:
		panic(unsupported("unpool_backward", grad.DType()))
	}
	return out
}

func unpooledGeom(op string, x tensor.Shape, indexes *tensor.RawTensor, w tensor.Window, outSize []int) (poolGeom, tensor.Shape) {
	if len(w.Kernel) > 8 {
		panic(fmt.Sprintf("%s: at most 8 spatial dimensions supported, got %d", op, len(w.Kernel)))
	}
	outShape := w.UnpooledShape(x)
	if outSize != nil {
		if len(outSize) != w.Dims() {
			panic(fmt.Sprintf("%s: outsize %v does not match %d spatial dimensions", op, outSize, w.Dims()))
		}
		copy(outShape[2:], outSize)
	}
	if err := outShape.Validate(); err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	if indexes != nil && !indexes.Shape().Equal(x) {
		panic(fmt.Sprintf("%s: indexes shape %v does not match input %v", op, indexes.Shape(), x))
	}
	return newPoolGeom(w, x[0]*x[1], outShape[2:], x[2:]), outShape
}

func int32Values(r *tensor.RawTensor) []int32 {
	if r == nil {
		return nil
	}
	return r.AsInt32()
}

func maxPool[T tensor.Float](out []T, idx []int32, x []T, g *poolGeom, par parallel.Config) {
	parallel.For(g.planes, func(p int) {
		src := x[p*g.widePlane : (p+1)*g.widePlane]
		for o := 0; o < g.narrowPlane; o++ {
			best, bestK := math.Inf(-1), 0
			g.window(o, func(k, pos int) {
				if v := float64(src[pos]); v > best {
					best, bestK = v, k
				}
			})
			if out != nil {
				out[p*g.narrowPlane+o] = T(best)
			}
			if idx != nil {
				idx[p*g.narrowPlane+o] = int32(bestK)
			}
		}
	}, par)
}

// gather sums the wide window of every narrow position (optionally only the indexed offset).
func gather[T tensor.Float](narrow, wide []T, idx []int32, g *poolGeom, par parallel.Config) {
	parallel.For(g.planes, func(p int) {
		src := wide[p*g.widePlane : (p+1)*g.widePlane]
		for o := 0; o < g.narrowPlane; o++ {
			n := p*g.narrowPlane + o
			var sum T
			g.window(o, func(k, pos int) {
				if idx == nil || int(idx[n]) == k {
					sum += src[pos]
				}
			})
			narrow[n] = sum
		}
	}, par)
}

// scatter is the adjoint of gather: it adds every narrow value over its wide window.
func scatter[T tensor.Float](wide, narrow []T, idx []int32, g *poolGeom, par parallel.Config) {
	parallel.For(g.planes, func(p int) {
		dst := wide[p*g.widePlane : (p+1)*g.widePlane]
		for o := 0; o < g.narrowPlane; o++ {
			n := p*g.narrowPlane + o
			v := narrow[n]
			g.window(o, func(k, pos int) {
				if idx == nil || int(idx[n]) == k {
					dst[pos] += v
				}
			})
		}
	}, par)
}

func scale[T tensor.Float](data []T, s float64) {
	for i := range data {
		data[i] = T(float64(data[i]) * s)
	}
}
