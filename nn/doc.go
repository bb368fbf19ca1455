// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides layer wrappers, Residual blocks and the Stream
// container.
//
// A Stream is an ordered pipeline. Parameter-owning entries are registered
// under position-derived names (layer_0, layer_2_0, ...) that also prefix
// the keys of its state dict.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	s := nn.NewStream[B](
//	    nn.NewLinear(16, 16, backend),
//	    nn.NewReLU[B](),
//	    nn.NewResidual[B](nn.NewLinear(16, 16, backend), nn.NewDropout[B](0.1)),
//	)
//	y := s.Forward(x)
//
// Layers are built with explicit arguments; see the config package for the
// declarative JSON form used by the stream command.
package nn
