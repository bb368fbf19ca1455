package tensor

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, DataTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with samples from N(0, 1).
// A nil src draws from the global math/rand/v2 source.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{100, 100}, backend, rand.NewPCG(1, 2))
func Randn[T Float, B Backend](shape Shape, b B, src rand.Source) *Tensor[T, B] {
	return Sample[T, B](shape, distuv.Normal{Mu: 0, Sigma: 1, Src: src}, b)
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
func Rand[T Float, B Backend](shape Shape, b B, src rand.Source) *Tensor[T, B] {
	return Sample[T, B](shape, distuv.Uniform{Min: 0, Max: 1, Src: src}, b)
}

// Sampler is satisfied by the gonum distuv distributions.
type Sampler interface {
	Rand() float64
}

// Sample fills a new tensor with independent draws from dist.
func Sample[T Float, B Backend](shape Shape, dist Sampler, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(dist.Rand())
	}
	return t
}

// Arange creates a 1D tensor with values from start to end (exclusive).
//
// Example:
//
//	t := tensor.Arange[float32](0, 6, backend) // [0, 1, 2, 3, 4, 5]
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	if end <= start {
		panic("arange: end must be greater than start")
	}
	t := Zeros[T, B](Shape{end - start}, b)
	data := t.Data()
	for i := range data {
		data[i] = T(start + i)
	}
	return t
}
