// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/serialization"
	"github.com/born-ml/stream/tensor"
)

// Layer is anything that maps a float32 tensor to another.
type Layer[B tensor.Backend] = nn.Layer[B]

// Module is a Layer that owns parameters and a state dict.
type Module[B tensor.Backend] = nn.Module[B]

// Group is a Module composed of an ordered list of sub-layers.
type Group[B tensor.Backend] = nn.Group[B]

// ModeSetter is implemented by mode-sensitive layers and the containers
// that forward a mode to them.
type ModeSetter = nn.ModeSetter

// Mode selects training or evaluation behavior.
type Mode = nn.Mode

// Modes.
const (
	Train Mode = nn.Train
	Eval  Mode = nn.Eval
)

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CollectGrads copies gradients from grads into each parameter.
func CollectGrads[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) {
	nn.CollectGrads(params, grads)
}

// Option configures random initialization.
type Option = nn.Option

// WithSource makes initialization and noise draws reproducible.
func WithSource(src rand.Source) Option {
	return nn.WithSource(src)
}

// Xavier returns a Xavier/Glorot uniform initialized tensor.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B, src rand.Source) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend, src)
}

// Stream is an ordered, append-only pipeline of layers.
type Stream[B tensor.Backend] = nn.Stream[B]

// Registration names a parameter-owning entry of a Stream.
type Registration[B tensor.Backend] = nn.Registration[B]

// NamedParameter pairs a parameter with its dotted path.
type NamedParameter[B tensor.Backend] = nn.NamedParameter[B]

// NewStream creates a stream from layers.
func NewStream[B tensor.Backend](layers ...Layer[B]) *Stream[B] {
	return nn.NewStream(layers...)
}

// Residual computes x + f(x) for the composition f of its layers.
type Residual[B tensor.Backend] = nn.Residual[B]

// NewResidual creates a residual block.
func NewResidual[B tensor.Backend](layers ...Layer[B]) *Residual[B] {
	return nn.NewResidual(layers...)
}

// Header is the metadata stored in a .born file.
type Header = serialization.Header

// OptimizerState is an optimizer whose buffers can be checkpointed.
type OptimizerState = nn.OptimizerState

// Checkpoint is a training state snapshot.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// Save writes module's state dict to path in .born format.
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	return nn.Save(module, path, modelType, metadata)
}

// Load reads path into module.
func Load[B tensor.Backend](path string, backend B, module Module[B]) (Header, error) {
	return nn.Load(path, backend, module)
}

// LoadCheckpoint restores model and optimizer (which may be nil) from path.
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}
