// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public tensor API of the stream framework.
//
// Tensors are immutable values: every operation returns a new tensor and
// leaves its operands untouched.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/stream/internal/tensor"
)

// DType is the constraint for tensor element types (float32, float64, int32).
type DType = tensor.DType

// Float is the subset of DType that supports differentiable arithmetic.
type Float = tensor.Float

// DataType is the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
)

// Device is the device holding tensor data.
type Device = tensor.Device

// CPU is the only supported device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Backend executes tensor operations. See backend/cpu and autodiff.
type Backend = tensor.Backend

// Tensor is a generic type-safe tensor with element type T on backend B.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// RawTensor is the untyped tensor representation used by backends,
// state dicts and gradient maps.
type RawTensor = tensor.RawTensor

// Window configures pooling and unpooling over the trailing spatial axes.
type Window = tensor.Window

// Sampler is satisfied by the gonum distuv distributions.
type Sampler = tensor.Sampler

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn draws from N(0, 1). A nil src uses the global math/rand/v2 source.
//
// Example:
//
//	x := tensor.Randn[float32](tensor.Shape{8, 16}, backend, rand.NewPCG(1, 2))
func Randn[T Float, B Backend](shape Shape, b B, src rand.Source) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b, src)
}

// Rand draws from U(0, 1). A nil src uses the global math/rand/v2 source.
func Rand[T Float, B Backend](shape Shape, b B, src rand.Source) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b, src)
}

// Sample fills a new tensor with independent draws from dist.
func Sample[T Float, B Backend](shape Shape, dist Sampler, b B) *Tensor[T, B] {
	return tensor.Sample[T, B](shape, dist, b)
}

// Arange creates a 1D tensor with values from start to end (exclusive).
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, end, b)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a raw tensor. Most users should use the creation functions instead.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw allocates a zeroed raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Cat concatenates tensors along dim.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}

// NewWindow builds a pooling window. A nil stride selects the kernel size
// and a nil pad selects zeros.
func NewWindow(kernel, stride, pad []int, coverAll bool) Window {
	return tensor.NewWindow(kernel, stride, pad, coverAll)
}

// BroadcastShapes computes the NumPy broadcast of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
