package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/stream/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: incompatible shapes %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	out := cpu.alloc("matmul", tensor.Shape{m, n}, a.DType())
	switch a.DType() {
	case tensor.Float32:
		gemm(false, false, m, n, k, a.AsFloat32(), b.AsFloat32(), out.AsFloat32())
	case tensor.Float64:
		gemm(false, false, m, n, k, a.AsFloat64(), b.AsFloat64(), out.AsFloat64())
	default:
		panic(unsupported("matmul", a.DType()))
	}
	return out
}

// gemm computes c = op(a) @ op(b) on row-major operands, where op(a) is [m, k]
// and op(b) is [k, n]. c is overwritten.
func gemm[T tensor.Float](transA, transB bool, m, n, k int, a, b, c []T) {
	tA, aRows, aCols := blas.NoTrans, m, k
	if transA {
		tA, aRows, aCols = blas.Trans, k, m
	}
	tB, bRows, bCols := blas.NoTrans, k, n
	if transB {
		tB, bRows, bCols = blas.Trans, n, k
	}

	switch av := any(a).(type) {
	case []float32:
		blas32.Gemm(tA, tB, 1,
			blas32.General{Rows: aRows, Cols: aCols, Stride: aCols, Data: av},
			blas32.General{Rows: bRows, Cols: bCols, Stride: bCols, Data: any(b).([]float32)},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: any(c).([]float32)})
	case []float64:
		blas64.Gemm(tA, tB, 1,
			blas64.General{Rows: aRows, Cols: aCols, Stride: aCols, Data: av},
			blas64.General{Rows: bRows, Cols: bCols, Stride: bCols, Data: any(b).([]float64)},
			0,
			blas64.General{Rows: m, Cols: n, Stride: n, Data: any(c).([]float64)})
	}
}
