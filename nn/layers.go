// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/tensor"
)

// Linear is a fully connected layer: y = x @ W.T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with Xavier weights and zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...Option) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend, opts...)
}

// Conv2D is a 2D convolution over [N, C, H, W] input.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a Conv2D layer.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool, backend B, opts ...Option) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend, opts...)
}

// Loss functions.
type (
	MSELoss[B tensor.Backend]          = nn.MSELoss[B]
	CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]
)

// NewMSELoss creates a mean squared error loss.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] { return nn.NewMSELoss[B]() }

// NewCrossEntropyLoss creates a softmax cross-entropy loss over int32 labels.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] { return nn.NewCrossEntropyLoss[B]() }

// Accuracy returns the fraction of rows whose argmax equals the target label.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float32 {
	return nn.Accuracy(logits, targets)
}
