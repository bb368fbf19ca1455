// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Convolution and pooling fan out over a bounded worker pool; results are
// joined before an operation returns.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
package cpu

import (
	internalcpu "github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/parallel"
	"github.com/born-ml/stream/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// ParallelConfig bounds the worker pool used by the backend.
type ParallelConfig = parallel.Config

var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend with the default worker configuration.
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with an explicit worker configuration.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
