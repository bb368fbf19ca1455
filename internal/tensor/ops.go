package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{2, 3}, backend)
//	b := tensor.Ones[float32](Shape{1, 3}, backend)
//	c := a.Add(b) // Shape: [2, 3]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// MatMul performs 2D matrix multiplication.
//
// Example:
//
//	a := tensor.Zeros[float32](Shape{3, 4}, backend)
//	b := tensor.Zeros[float32](Shape{4, 5}, backend)
//	c := a.MatMul(b) // Shape: [3, 5]
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

// Conv2D convolves a [N, C_in, H, W] input with a [C_out, C_in, K_h, K_w] kernel.
func (t *Tensor[T, B]) Conv2D(kernel *Tensor[T, B], stride, padding int) *Tensor[T, B] {
	return t.wrap(t.backend.Conv2D(t.raw, kernel.raw, stride, padding))
}

// Reshape returns a tensor with the same data but different shape.
// One dimension may be -1, in which case it is inferred.
//
// Example:
//
//	t := tensor.Arange[int32](0, 12, backend) // Shape: [12]
//	reshaped := t.Reshape(3, -1)              // Shape: [3, 4]
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Reshape(t.raw, ResolveShape(newShape, t.NumElements())))
}

// Transpose permutes the tensor's dimensions.
//
// If axes is empty, reverses all dimensions (for 2D, this is standard transpose).
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{2, 3, 4}, backend)
//	transposed := t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Transpose(t.raw, axes...))
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// Expand broadcasts the tensor to shape.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return t.wrap(t.backend.Expand(t.raw, shape))
}

// Unsqueeze inserts a dimension of size 1 at dim.
// Negative dims count from the end of the result.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	shape := t.Shape()
	dim = NormalizeAxis(dim, len(shape)+1)
	out := make([]int, 0, len(shape)+1)
	out = append(out, shape[:dim]...)
	out = append(out, 1)
	out = append(out, shape[dim:]...)
	return t.Reshape(out...)
}

// Squeeze removes the dimension dim, which must have size 1.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	shape := t.Shape()
	dim = NormalizeAxis(dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, not 1", dim, shape[dim]))
	}
	out := make([]int, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	out = append(out, shape[dim+1:]...)
	return t.Reshape(out...)
}

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation dimension.
// Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	c := tensor.Cat([]*Tensor[float32, B]{a, b}, 1) // [2, 3] + [2, 5] -> [2, 8]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	return tensors[0].wrap(tensors[0].backend.Cat(raws, dim))
}

// AddScalar adds a scalar to each element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return t.wrap(t.backend.AddScalar(t.raw, scalar))
}

// SubScalar subtracts a scalar from each element.
func (t *Tensor[T, B]) SubScalar(scalar T) *Tensor[T, B] {
	return t.wrap(t.backend.SubScalar(t.raw, scalar))
}

// MulScalar multiplies each element by a scalar.
//
// Example:
//
//	y := x.MulScalar(2.0) // y = x * 2
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return t.wrap(t.backend.MulScalar(t.raw, scalar))
}

// DivScalar divides each element by a scalar.
func (t *Tensor[T, B]) DivScalar(scalar T) *Tensor[T, B] {
	return t.wrap(t.backend.DivScalar(t.raw, scalar))
}

// Neg negates each element.
func (t *Tensor[T, B]) Neg() *Tensor[T, B] {
	return t.MulScalar(-1)
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return t.wrap(t.backend.Exp(t.raw))
}

// Log computes the natural logarithm element-wise.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return t.wrap(t.backend.Log(t.raw))
}

// ReLU computes max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return t.wrap(t.backend.ReLU(t.raw))
}

// Sigmoid computes 1 / (1 + e^-x) element-wise.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	return t.wrap(t.backend.Sigmoid(t.raw))
}

// Tanh computes the hyperbolic tangent element-wise.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	return t.wrap(t.backend.Tanh(t.raw))
}

// Softmax normalizes along dim so that values sum to 1.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Softmax(t.raw, dim))
}

// Sum reduces all elements to a scalar tensor.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return t.wrap(t.backend.Sum(t.raw))
}

// SumDim sums along dim.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.SumDim(t.raw, dim, keepDim))
}

// MaxDim takes the maximum along dim.
func (t *Tensor[T, B]) MaxDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.MaxDim(t.raw, dim, keepDim))
}

// MaxPool applies max pooling with window w over the trailing spatial axes.
func (t *Tensor[T, B]) MaxPool(w Window) *Tensor[T, B] {
	return t.wrap(t.backend.MaxPool(t.raw, w))
}

// MaxPoolIndices returns, for every pooled element, the flat offset of the
// maximum inside its window.
func (t *Tensor[T, B]) MaxPoolIndices(w Window) *Tensor[int32, B] {
	return New[int32, B](t.backend.MaxPoolIndices(t.raw, w), t.backend)
}

// AvgPool applies average pooling with window w. Padding counts toward the divisor.
func (t *Tensor[T, B]) AvgPool(w Window) *Tensor[T, B] {
	return t.wrap(t.backend.AvgPool(t.raw, w))
}

// Unpool scatters each element over its window in an output of spatial size outSize.
// A nil indexes tensor fills whole windows; otherwise only the indexed offset.
func (t *Tensor[T, B]) Unpool(indexes *Tensor[int32, B], w Window, outSize []int) *Tensor[T, B] {
	var idx *RawTensor
	if indexes != nil {
		idx = indexes.raw
	}
	return t.wrap(t.backend.Unpool(t.raw, idx, w, outSize))
}

func (t *Tensor[T, B]) wrap(raw *RawTensor) *Tensor[T, B] {
	return New[T, B](raw, t.backend)
}

// ResolveShape replaces a single -1 in dims with the size that makes the
// shape hold n elements.
func ResolveShape(dims []int, n int) Shape {
	out := Shape(dims).Clone()
	infer := -1
	known := 1
	for i, d := range out {
		if d == -1 {
			if infer >= 0 {
				panic(fmt.Sprintf("reshape: only one dimension can be -1, got %v", dims))
			}
			infer = i
			continue
		}
		known *= d
	}
	if infer >= 0 {
		if known <= 0 || n%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer dimension of %v for %d elements", dims, n))
		}
		out[infer] = n / known
	}
	return out
}
