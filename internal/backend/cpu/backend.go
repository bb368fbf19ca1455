// Package cpu implements the pure Go CPU backend.
//
// Dense matrix products go through gonum's BLAS; convolution and pooling fan
// out over the batch with internal/parallel.
package cpu

import (
	"fmt"

	"github.com/born-ml/stream/internal/parallel"
	"github.com/born-ml/stream/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend using all available cores for batched kernels.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallelism configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg.Coarse(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

func (cpu *CPUBackend) alloc(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	r, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return r
}

func unsupported(op string, dt tensor.DataType) string {
	return fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", op, dt)
}
