// Package config loads declarative stream documents and builds nn.Stream
// values from them.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors returned (wrapped) by Validate.
var (
	ErrUnknownKind   = errors.New("unknown layer kind")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidValue  = errors.New("invalid value")
	ErrUnsupportable = errors.New("layer kind cannot be built from a config file")
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// StreamConfig is the root of a stream document.
//
//	{"name": "mlp", "input_shape": [8, 16], "seed": 7,
//	 "layers": [{"kind": "linear", "in": 16, "out": 16}, {"kind": "relu"}]}
type StreamConfig struct {
	Name       string        `json:"name"`
	InputShape []int         `json:"input_shape,omitempty"`
	Seed       *uint64       `json:"seed,omitempty"`
	Layers     []LayerConfig `json:"layers"`
}

// LayerConfig describes one entry. Which fields apply depends on Kind;
// omitted optional fields take the documented nn defaults.
type LayerConfig struct {
	Kind string `json:"kind"`

	// linear, conv2d
	In   *int  `json:"in,omitempty"`
	Out  *int  `json:"out,omitempty"`
	Bias *bool `json:"bias,omitempty"`

	// conv2d and 2D pooling
	KSize    *int  `json:"ksize,omitempty"`
	Stride   *int  `json:"stride,omitempty"`
	Pad      *int  `json:"pad,omitempty"`
	CoverAll *bool `json:"cover_all,omitempty"`
	OutSize  []int `json:"outsize,omitempty"`

	// N-dimensional pooling
	Kernel  []int `json:"kernel,omitempty"`
	Strides []int `json:"strides,omitempty"`
	Pads    []int `json:"pads,omitempty"`

	PyramidHeight *int    `json:"pyramid_height,omitempty"`
	Pooling       *string `json:"pooling,omitempty"` // "max" or "average"

	// activations
	Z        *float64 `json:"z,omitempty"`
	Alpha    *float64 `json:"alpha,omitempty"`
	Slope    *float64 `json:"slope,omitempty"`
	Beta     *float64 `json:"beta,omitempty"`
	PoolSize *int     `json:"pool_size,omitempty"`

	// array manipulation
	Axis  *int  `json:"axis,omitempty"`
	Axes  []int `json:"axes,omitempty"`
	Start *int  `json:"start,omitempty"`
	Shape []int `json:"shape,omitempty"`
	Reps  []int `json:"reps,omitempty"`

	// noise
	Ratio *float64 `json:"ratio,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
	Std   *float64 `json:"std,omitempty"`

	// residual, stream
	Layers []LayerConfig `json:"layers,omitempty"`
}

// required lists the fields a kind cannot do without. Kinds absent from
// the map are unknown.
var required = map[string][]string{
	"linear": {"in", "out"},
	"conv2d": {"in", "out", "ksize"},

	"clipped_relu": nil,
	"crelu":        nil,
	"elu":          nil,
	"hard_sigmoid": nil,
	"leaky_relu":   nil,
	"log_softmax":  nil,
	"maxout":       nil,
	"relu":         nil,
	"sigmoid":      nil,
	"softmax":      nil,
	"softplus":     nil,
	"tanh":         nil,

	"average_pooling_2d":         {"ksize"},
	"average_pooling_nd":         {"kernel"},
	"max_pooling_2d":             {"ksize"},
	"max_pooling_nd":             {"kernel"},
	"spatial_pyramid_pooling_2d": {"pyramid_height"},
	"unpooling_2d":               {"ksize"},
	"upsampling_2d":              nil,

	"broadcast_to": {"shape"},
	"expand_dims":  {"axis"},
	"flatten":      nil,
	"reshape":      {"shape"},
	"rollaxis":     {"axis"},
	"squeeze":      nil,
	"swapaxes":     {"axes"},
	"tile":         {"reps"},
	"transpose":    nil,

	"dropout":        nil,
	"gaussian_noise": {"mean", "std"},

	"residual": {"layers"},
	"stream":   nil,
}

// Kinds returns every kind name Validate accepts.
func Kinds() []string {
	kinds := make([]string, 0, len(required))
	for k := range required {
		if k != "upsampling_2d" {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (l *LayerConfig) has(field string) bool {
	switch field {
	case "in":
		return l.In != nil
	case "out":
		return l.Out != nil
	case "ksize":
		return l.KSize != nil
	case "kernel":
		return len(l.Kernel) > 0
	case "pyramid_height":
		return l.PyramidHeight != nil
	case "shape":
		return l.Shape != nil
	case "axis":
		return l.Axis != nil
	case "axes":
		return len(l.Axes) > 0
	case "reps":
		return len(l.Reps) > 0
	case "mean":
		return l.Mean != nil
	case "std":
		return l.Std != nil
	case "layers":
		return len(l.Layers) > 0
	}
	return false
}

// LoadStreamConfig loads and validates a stream document. The file must have
// a .json extension and be at most 1MB.
func LoadStreamConfig(path string) (*StreamConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseStreamConfig(data)
}

// ParseStreamConfig decodes and validates a stream document.
func ParseStreamConfig(data []byte) (*StreamConfig, error) {
	cfg := &StreamConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks kinds, required fields and value ranges. Errors name the
// offending entry, e.g. "layers[2].layers[0]: unknown layer kind \"foo\"".
func (c *StreamConfig) Validate() error {
	for i, d := range c.InputShape {
		if d <= 0 {
			return fmt.Errorf("input_shape[%d] must be positive, got %d: %w", i, d, ErrInvalidValue)
		}
	}
	return validateLayers(c.Layers, "layers")
}

func validateLayers(layers []LayerConfig, path string) error {
	for i := range layers {
		if err := layers[i].validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (l *LayerConfig) validate(path string) error {
	fields, ok := required[l.Kind]
	if !ok {
		return fmt.Errorf("%s: %w %q", path, ErrUnknownKind, l.Kind)
	}
	if l.Kind == "upsampling_2d" {
		return fmt.Errorf("%s: %w: %s needs max pooling indexes", path, ErrUnsupportable, l.Kind)
	}
	for _, f := range fields {
		if !l.has(f) {
			return fmt.Errorf("%s: %w %q for %s", path, ErrMissingField, f, l.Kind)
		}
	}

	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%s: %s: %w", path, fmt.Sprintf(format, args...), ErrInvalidValue)
	}
	positive := func(name string, v *int) error {
		if v != nil && *v <= 0 {
			return invalid("%s must be positive, got %d", name, *v)
		}
		return nil
	}
	for _, p := range []struct {
		name string
		v    *int
	}{{"in", l.In}, {"out", l.Out}, {"ksize", l.KSize}, {"pool_size", l.PoolSize}, {"pyramid_height", l.PyramidHeight}} {
		if err := positive(p.name, p.v); err != nil {
			return err
		}
	}
	if l.Stride != nil && *l.Stride < 0 {
		return invalid("stride must be non-negative, got %d", *l.Stride)
	}
	if l.Pad != nil && *l.Pad < 0 {
		return invalid("pad must be non-negative, got %d", *l.Pad)
	}
	if l.Ratio != nil && (*l.Ratio < 0 || *l.Ratio >= 1) {
		return invalid("ratio must be in [0, 1), got %g", *l.Ratio)
	}
	if l.Std != nil && *l.Std < 0 {
		return invalid("std must be non-negative, got %g", *l.Std)
	}
	if l.Pooling != nil && *l.Pooling != "max" && *l.Pooling != "average" {
		return invalid("pooling must be \"max\" or \"average\", got %q", *l.Pooling)
	}
	if l.Kind == "swapaxes" && len(l.Axes) != 2 {
		return invalid("swapaxes needs exactly 2 axes, got %v", l.Axes)
	}
	if l.Kind == "conv2d" && l.Stride != nil && *l.Stride == 0 {
		return invalid("conv2d stride must be positive")
	}

	return validateLayers(l.Layers, path+".layers")
}
