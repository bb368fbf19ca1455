package ops

import (
	"fmt"

	"github.com/born-ml/stream/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	// Leading dimensions that broadcasting prepended.
	result := grad
	for i := 0; i < len(gradShape)-len(targetShape); i++ {
		result = backend.SumDim(result, 0, false)
	}

	for i, d := range targetShape {
		if d == 1 && result.Shape()[i] != 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// floatMask builds a 0/1 tensor shaped like x from a per-element predicate.
func floatMask(op string, x *tensor.RawTensor, keep func(v float64) bool) *tensor.RawTensor {
	mask, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create mask: %v", op, err))
	}

	switch x.DType() {
	case tensor.Float32:
		fillMask(mask.AsFloat32(), x.AsFloat32(), keep)
	case tensor.Float64:
		fillMask(mask.AsFloat64(), x.AsFloat64(), keep)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", op, x.DType()))
	}
	return mask
}

func fillMask[T tensor.Float](mask, x []T, keep func(v float64) bool) {
	for i, v := range x {
		if keep(float64(v)) {
			mask[i] = 1
		}
	}
}

// narrow copies the slice [start, start+length) of src along dim.
func narrow(src *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := src.Shape()
	outShape := shape.Clone()
	outShape[dim] = length

	dst, err := tensor.NewRaw(outShape, src.DType(), src.Device())
	if err != nil {
		panic(fmt.Sprintf("cat_backward: %v", err))
	}

	outer, inner := 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}

	size := src.DType().Size()
	row := length * inner * size
	srcRow := shape[dim] * inner * size
	s, d := src.Data(), dst.Data()
	for o := 0; o < outer; o++ {
		from := o*srcRow + start*inner*size
		copy(d[o*row:(o+1)*row], s[from:from+row])
	}
	return dst
}
