package cpu

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// Shape kernels move whole elements as bytes, so they work for every dtype.

// Reshape returns a copy of t with a new shape holding the same number of elements.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return t.WithShape(newShape)
}

// Transpose permutes dimensions. With no axes, dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %v", ndim, axes))
	}

	perm := make([]int, ndim)
	seen := make([]bool, ndim)
	for i, a := range axes {
		a = tensor.NormalizeAxis(a, ndim)
		if seen[a] {
			panic(fmt.Sprintf("transpose: repeated axis in %v", axes))
		}
		seen[a] = true
		perm[i] = a
	}

	outShape := make(tensor.Shape, ndim)
	srcStrides := make([]int, ndim)
	inStrides := shape.ComputeStrides()
	for i, a := range perm {
		outShape[i] = shape[a]
		srcStrides[i] = inStrides[a]
	}

	out := cpu.alloc("transpose", outShape, t.DType())
	copyStrided(out, t, outShape, srcStrides)
	return out
}

// Expand broadcasts x to shape following NumPy rules.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	in := x.Shape()
	if len(shape) < len(in) {
		panic(fmt.Sprintf("expand: cannot expand %v to fewer dimensions %v", in, shape))
	}
	offset := len(shape) - len(in)
	for i, d := range in {
		if d != 1 && d != shape[offset+i] {
			panic(fmt.Sprintf("expand: cannot expand %v to %v", in, shape))
		}
	}

	out := cpu.alloc("expand", shape, x.DType())
	copyStrided(out, x, shape, broadcastStrides(in, shape))
	return out
}

// copyStrided fills dst (contiguous, shape outShape) reading src through srcStrides.
func copyStrided(dst, src *tensor.RawTensor, outShape tensor.Shape, srcStrides []int) {
	size := src.DType().Size()
	d, s := dst.Data(), src.Data()
	outStrides := outShape.ComputeStrides()
	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		j := flatIndex(i, outStrides, srcStrides)
		copy(d[i*size:(i+1)*size], s[j*size:(j+1)*size])
	}
}

// Cat concatenates tensors along dim. All other dimensions must match.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	first := tensors[0].Shape()
	dim = tensor.NormalizeAxis(dim, len(first))

	outShape := first.Clone()
	outShape[dim] = 0
	for _, t := range tensors {
		s := t.Shape()
		if len(s) != len(first) || t.DType() != tensors[0].DType() {
			panic(fmt.Sprintf("cat: incompatible tensor %v %s (expected rank %d %s)", s, t.DType(), len(first), tensors[0].DType()))
		}
		for i := range s {
			if i != dim && s[i] != first[i] {
				panic(fmt.Sprintf("cat: shape mismatch %v vs %v at dimension %d", s, first, i))
			}
		}
		outShape[dim] += s[dim]
	}

	out := cpu.alloc("cat", outShape, tensors[0].DType())
	size := tensors[0].DType().Size()
	sp := splitAxis(outShape, dim)
	dst := out.Data()
	offset := 0
	for _, t := range tensors {
		chunk := t.Shape()[dim] * sp.inner * size
		src := t.Data()
		for o := 0; o < sp.outer; o++ {
			start := (o*sp.size + offset) * sp.inner * size
			copy(dst[start:start+chunk], src[o*chunk:(o+1)*chunk])
		}
		offset += t.Shape()[dim]
	}
	return out
}
