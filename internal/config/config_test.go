package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/monitoring"
	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/tensor"
)

const exampleDoc = `{
  "name": "mlp",
  "input_shape": [8, 16],
  "seed": 7,
  "layers": [
    {"kind": "linear", "in": 16, "out": 16},
    {"kind": "relu"},
    {"kind": "residual", "layers": [
      {"kind": "linear", "in": 16, "out": 16},
      {"kind": "gaussian_noise", "mean": 0, "std": 0.1}
    ]},
    {"kind": "dropout", "ratio": 0.2}
  ]
}`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func ptrInt(v int) *int { return &v }

func TestLoadStreamConfig(t *testing.T) {
	cfg, err := LoadStreamConfig(writeConfig(t, "mlp.json", exampleDoc))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Name != "mlp" {
		t.Errorf("Name = %q, want mlp", cfg.Name)
	}
	if diff := cmp.Diff([]int{8, 16}, cfg.InputShape); diff != "" {
		t.Errorf("InputShape mismatch (-want +got):\n%s", diff)
	}
	if cfg.Seed == nil || *cfg.Seed != 7 {
		t.Errorf("Seed = %v, want 7", cfg.Seed)
	}
	if len(cfg.Layers) != 4 || len(cfg.Layers[2].Layers) != 2 {
		t.Fatalf("unexpected layer tree: %+v", cfg.Layers)
	}
	if cfg.Layers[3].Ratio == nil || *cfg.Layers[3].Ratio != 0.2 {
		t.Errorf("dropout ratio = %v, want 0.2", cfg.Layers[3].Ratio)
	}
}

func TestLoadStreamConfig_FileErrors(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		_, err := LoadStreamConfig(writeConfig(t, "mlp.yaml", exampleDoc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json extension")
	})
	t.Run("missing", func(t *testing.T) {
		_, err := LoadStreamConfig(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
	t.Run("too_large", func(t *testing.T) {
		big := `{"name": "` + strings.Repeat("x", maxFileSize) + `"}`
		_, err := LoadStreamConfig(writeConfig(t, "big.json", big))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
	t.Run("syntax", func(t *testing.T) {
		_, err := LoadStreamConfig(writeConfig(t, "bad.json", `{"layers": [`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config JSON")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  error
		path string
	}{
		{"unknown_top", `{"layers": [{"kind": "lstm"}]}`, ErrUnknownKind, "layers[0]"},
		{"unknown_nested", `{"layers": [{"kind": "relu"}, {"kind": "relu"},
			{"kind": "residual", "layers": [{"kind": "nope"}]}]}`, ErrUnknownKind, "layers[2].layers[0]"},
		{"missing_linear_out", `{"layers": [{"kind": "linear", "in": 3}]}`, ErrMissingField, "layers[0]"},
		{"missing_noise_std", `{"layers": [{"kind": "gaussian_noise", "mean": 0}]}`, ErrMissingField, "layers[0]"},
		{"empty_residual", `{"layers": [{"kind": "residual"}]}`, ErrMissingField, "layers[0]"},
		{"dropout_ratio", `{"layers": [{"kind": "dropout", "ratio": 1}]}`, ErrInvalidValue, "layers[0]"},
		{"negative_std", `{"layers": [{"kind": "gaussian_noise", "mean": 0, "std": -1}]}`, ErrInvalidValue, "layers[0]"},
		{"zero_features", `{"layers": [{"kind": "linear", "in": 0, "out": 1}]}`, ErrInvalidValue, "layers[0]"},
		{"swapaxes_arity", `{"layers": [{"kind": "swapaxes", "axes": [0]}]}`, ErrInvalidValue, "layers[0]"},
		{"pooling_name", `{"layers": [{"kind": "spatial_pyramid_pooling_2d", "pyramid_height": 2, "pooling": "min"}]}`, ErrInvalidValue, "layers[0]"},
		{"upsampling", `{"layers": [{"kind": "upsampling_2d"}]}`, ErrUnsupportable, "layers[0]"},
		{"input_shape", `{"input_shape": [2, 0], "layers": []}`, ErrInvalidValue, "input_shape[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStreamConfig([]byte(tt.doc))
			if !errors.Is(err, tt.err) {
				t.Fatalf("ParseStreamConfig() error = %v, want %v", err, tt.err)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("error %q does not name %s", err, tt.path)
			}
		})
	}
}

func TestBuild_Example(t *testing.T) {
	backend := cpu.New()
	cfg, err := ParseStreamConfig([]byte(exampleDoc))
	require.NoError(t, err)

	s, err := Build(cfg, backend)
	require.NoError(t, err)

	var names []string
	for _, r := range s.Registered() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"layer_0", "layer_2_0"}, names)

	x := tensor.Randn[float32](tensor.Shape(cfg.InputShape), backend, nil)
	assert.Equal(t, tensor.Shape{8, 16}, s.Forward(x).Shape())
}

func TestBuild_SeedIsDeterministic(t *testing.T) {
	backend := cpu.New()
	cfg, err := ParseStreamConfig([]byte(exampleDoc))
	require.NoError(t, err)

	a, err := Build(cfg, backend)
	require.NoError(t, err)
	b, err := Build(cfg, backend)
	require.NoError(t, err)

	sa, sb := a.StateDict(), b.StateDict()
	require.Len(t, sb, len(sa))
	for k, v := range sa {
		assert.Equal(t, v.AsFloat32(), sb[k].AsFloat32(), k)
	}

	x := tensor.Ones[float32](tensor.Shape{8, 16}, backend)
	assert.Equal(t, a.Forward(x).Data(), b.Forward(x).Data(), "noise and dropout draws must match too")
}

func TestBuild_RejectsInvalid(t *testing.T) {
	cfg := &StreamConfig{Layers: []LayerConfig{{Kind: "relu"}, {Kind: "bogus"}}}
	_, err := Build(cfg, cpu.New())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBuild_LogsDefaults(t *testing.T) {
	var lines []string
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...any) { lines = append(lines, fmt.Sprintf(format, v...)) })
	monitoring.SetVerbose(true)
	t.Cleanup(func() {
		monitoring.Logf = prev
		monitoring.SetVerbose(false)
	})

	cfg, err := ParseStreamConfig([]byte(`{"name": "d", "layers": [{"kind": "leaky_relu"}, {"kind": "leaky_relu", "slope": 0.1}]}`))
	require.NoError(t, err)
	s, err := Build(cfg, cpu.New())
	require.NoError(t, err)

	assert.Contains(t, lines, "config: layers[0]: slope defaulted to 1")
	for _, l := range lines {
		assert.NotContains(t, l, "layers[1]")
	}
	assert.Equal(t, "LeakyReLU(slope=1)", s.Layer(0).(fmt.Stringer).String())
}

func TestBuild_EveryKind(t *testing.T) {
	backend := cpu.New()
	image := tensor.Shape{1, 2, 4, 4}

	tests := []struct {
		layer LayerConfig
		in    tensor.Shape
		want  tensor.Shape
	}{
		{LayerConfig{Kind: "linear", In: ptrInt(4), Out: ptrInt(3)}, tensor.Shape{2, 4}, tensor.Shape{2, 3}},
		{LayerConfig{Kind: "conv2d", In: ptrInt(2), Out: ptrInt(3), KSize: ptrInt(3)}, image, tensor.Shape{1, 3, 2, 2}},
		{LayerConfig{Kind: "clipped_relu"}, image, image},
		{LayerConfig{Kind: "crelu"}, image, tensor.Shape{1, 4, 4, 4}},
		{LayerConfig{Kind: "elu"}, image, image},
		{LayerConfig{Kind: "hard_sigmoid"}, image, image},
		{LayerConfig{Kind: "leaky_relu"}, image, image},
		{LayerConfig{Kind: "log_softmax"}, image, image},
		{LayerConfig{Kind: "maxout"}, image, tensor.Shape{1, 1, 4, 4}},
		{LayerConfig{Kind: "relu"}, image, image},
		{LayerConfig{Kind: "sigmoid"}, image, image},
		{LayerConfig{Kind: "softmax"}, image, image},
		{LayerConfig{Kind: "softplus"}, image, image},
		{LayerConfig{Kind: "tanh"}, image, image},
		{LayerConfig{Kind: "average_pooling_2d", KSize: ptrInt(2)}, image, tensor.Shape{1, 2, 2, 2}},
		{LayerConfig{Kind: "average_pooling_nd", Kernel: []int{4, 4}}, image, tensor.Shape{1, 2, 1, 1}},
		{LayerConfig{Kind: "max_pooling_2d", KSize: ptrInt(3)}, image, tensor.Shape{1, 2, 2, 2}},
		{LayerConfig{Kind: "max_pooling_nd", Kernel: []int{2, 2}}, image, tensor.Shape{1, 2, 2, 2}},
		{LayerConfig{Kind: "spatial_pyramid_pooling_2d", PyramidHeight: ptrInt(2)}, image, tensor.Shape{1, 10, 1, 1}},
		{LayerConfig{Kind: "unpooling_2d", KSize: ptrInt(2)}, image, tensor.Shape{1, 2, 7, 7}},
		{LayerConfig{Kind: "broadcast_to", Shape: []int{3, 1, 2, 4, 4}}, image, tensor.Shape{3, 1, 2, 4, 4}},
		{LayerConfig{Kind: "expand_dims", Axis: ptrInt(0)}, image, tensor.Shape{1, 1, 2, 4, 4}},
		{LayerConfig{Kind: "flatten"}, image, tensor.Shape{32}},
		{LayerConfig{Kind: "reshape", Shape: []int{2, -1}}, image, tensor.Shape{2, 16}},
		{LayerConfig{Kind: "rollaxis", Axis: ptrInt(3)}, image, tensor.Shape{4, 1, 2, 4}},
		{LayerConfig{Kind: "squeeze"}, image, tensor.Shape{2, 4, 4}},
		{LayerConfig{Kind: "swapaxes", Axes: []int{0, 1}}, image, tensor.Shape{2, 1, 4, 4}},
		{LayerConfig{Kind: "tile", Reps: []int{2}}, image, tensor.Shape{1, 2, 4, 8}},
		{LayerConfig{Kind: "transpose"}, image, tensor.Shape{4, 4, 2, 1}},
		{LayerConfig{Kind: "dropout"}, image, image},
		{LayerConfig{Kind: "gaussian_noise", Mean: new(float64), Std: new(float64)}, image, image},
		{LayerConfig{Kind: "residual", Layers: []LayerConfig{{Kind: "tanh"}}}, image, image},
		{LayerConfig{Kind: "stream", Layers: []LayerConfig{{Kind: "flatten"}}}, image, tensor.Shape{32}},
	}

	var covered []string
	for _, tt := range tests {
		covered = append(covered, tt.layer.Kind)
		t.Run(tt.layer.Kind, func(t *testing.T) {
			s, err := Build(&StreamConfig{Layers: []LayerConfig{tt.layer}}, backend)
			require.NoError(t, err)
			y := s.Forward(tensor.Rand[float32](tt.in, backend, nil))
			assert.Equal(t, tt.want, y.Shape())
		})
	}

	kinds := Kinds()
	slices.Sort(kinds)
	slices.Sort(covered)
	if diff := cmp.Diff(kinds, covered); diff != "" {
		t.Errorf("kinds without a build test (-kinds +covered):\n%s", diff)
	}
}

func TestBuild_NestedStreamRegistersAsOne(t *testing.T) {
	cfg := &StreamConfig{Layers: []LayerConfig{
		{Kind: "relu"},
		{Kind: "stream", Layers: []LayerConfig{{Kind: "linear", In: ptrInt(2), Out: ptrInt(2)}}},
	}}
	s, err := Build(cfg, cpu.New())
	require.NoError(t, err)

	reg := s.Registered()
	require.Len(t, reg, 1)
	assert.Equal(t, "layer_1", reg[0].Name)
	_, ok := reg[0].Module.(*nn.Stream[*cpu.CPUBackend])
	assert.True(t, ok)
}

func TestBuild_NestedResidualRegistersDeepLayers(t *testing.T) {
	cfg := &StreamConfig{InputShape: []int{2, 3}, Layers: []LayerConfig{
		{Kind: "residual", Layers: []LayerConfig{
			{Kind: "residual", Layers: []LayerConfig{{Kind: "linear", In: ptrInt(3), Out: ptrInt(3)}}},
		}},
	}}
	s, err := Build(cfg, cpu.New())
	require.NoError(t, err)

	reg := s.Registered()
	require.Len(t, reg, 1)
	assert.Equal(t, "layer_0_0_0", reg[0].Name)
	assert.Len(t, s.Parameters(), 2)
	assert.Contains(t, s.StateDict(), "layer_0_0_0.weight")
}
