package nn_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/tensor"
)

func TestActivations(t *testing.T) {
	backend := cpu.New()
	input := []float32{-2, -0.5, 0, 0.5, 3}

	tests := []struct {
		name  string
		layer nn.Layer[cpuB]
		want  []float32
	}{
		{"clipped_relu", nn.NewClippedReLU[cpuB](1), []float32{0, 0, 0, 0.5, 1}},
		{"elu", nn.NewELU[cpuB](1), []float32{-0.864665, -0.393469, 0, 0.5, 3}},
		{"hard_sigmoid", nn.NewHardSigmoid[cpuB](), []float32{0.1, 0.4, 0.5, 0.6, 1}},
		{"leaky_relu", nn.NewLeakyReLU[cpuB](0.1), []float32{-0.2, -0.05, 0, 0.5, 3}},
		{"leaky_relu_default", nn.NewLeakyReLU[cpuB](nn.DefaultLeakyReLUSlope), input},
		{"relu", nn.NewReLU[cpuB](), []float32{0, 0, 0, 0.5, 3}},
		{"softplus", nn.NewSoftplus[cpuB](1), []float32{0.126928, 0.474077, 0.693147, 0.974077, 3.048587}},
		{"tanh", nn.NewTanh[cpuB](), []float32{-0.964028, -0.462117, 0, 0.462117, 0.995055}},
		{"sigmoid", nn.NewSigmoid[cpuB](), []float32{0.119203, 0.377541, 0.5, 0.622459, 0.952574}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := fromSlice(t, backend, input, 1, 5)
			y := tt.layer.Forward(x)
			assert.Equal(t, tensor.Shape{1, 5}, y.Shape())
			assertClose(t, tt.want, y.Data(), 1e-5)
			assert.Equal(t, input, x.Data(), "input must be untouched")
		})
	}
}

func TestSoftmaxFamily(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{1, 2, 3, 1000, 1000, 1000}, 2, 3)

	probs := nn.NewSoftmax[cpuB](nn.DefaultSoftmaxAxis).Forward(x).Data()
	assertClose(t, []float32{0.090031, 0.244728, 0.665241, 1.0 / 3, 1.0 / 3, 1.0 / 3}, probs, 1e-5)

	logProbs := nn.NewLogSoftmax[cpuB](1).Forward(x).Data()
	assertClose(t, []float32{-2.407606, -1.407606, -0.407606, -1.098612, -1.098612, -1.098612}, logProbs, 1e-5)
}

func TestCReLU(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{-2, -0.5, 0, 0.5, 3}, 1, 5)

	y := nn.NewCReLU[cpuB](nn.DefaultCReLUAxis).Forward(x)
	assert.Equal(t, tensor.Shape{1, 10}, y.Shape())
	assertClose(t, []float32{0, 0, 0, 0.5, 3, 2, 0.5, 0, 0, 0}, y.Data(), 1e-6)

	y0 := nn.NewCReLU[cpuB](0).Forward(x)
	assert.Equal(t, tensor.Shape{2, 5}, y0.Shape())
}

func TestMaxout(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{1, 5, 3, 2}, 1, 4)

	y := nn.NewMaxout[cpuB](nn.DefaultMaxoutPoolSize).Forward(x)
	assert.Equal(t, tensor.Shape{1, 2}, y.Shape())
	assert.Equal(t, []float32{5, 3}, y.Data())

	assert.Panics(t, func() { nn.NewMaxout[cpuB](0).Forward(x) })
	assert.Panics(t, func() { nn.NewMaxout[cpuB](3).Forward(x) })
}

func TestPoolingShapes(t *testing.T) {
	backend := cpu.New()
	x := tensor.Rand[float32](tensor.Shape{2, 3, 7, 7}, backend, nil)

	tests := []struct {
		name  string
		layer nn.Layer[cpuB]
		want  tensor.Shape
	}{
		{"max_2x2", nn.NewMaxPooling2D[cpuB](2, 0, 0, false), tensor.Shape{2, 3, 3, 3}},
		{"max_2x2_cover_all", nn.NewMaxPooling2D[cpuB](2, 0, 0, true), tensor.Shape{2, 3, 4, 4}},
		{"avg_3x3_s2_p1", nn.NewAveragePooling2D[cpuB](3, 2, 1), tensor.Shape{2, 3, 4, 4}},
		{"avg_nd", nn.NewAveragePoolingND[cpuB]([]int{7, 7}, nil, nil), tensor.Shape{2, 3, 1, 1}},
		{"spp_max", nn.NewSpatialPyramidPooling2D[cpuB](3, nn.PoolMax), tensor.Shape{2, 63, 1, 1}},
		{"spp_average", nn.NewSpatialPyramidPooling2D[cpuB](2, nn.PoolAverage), tensor.Shape{2, 15, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layer.Forward(x).Shape())
		})
	}

	x3 := tensor.Rand[float32](tensor.Shape{1, 1, 4, 4, 4}, backend, nil)
	y3 := nn.NewMaxPoolingND[cpuB]([]int{2, 2, 2}, nil, nil, false).Forward(x3)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2, 2}, y3.Shape())
}

func TestPoolingValues(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 10, 13, 14,
		11, 12, 15, 16,
	}, 1, 1, 4, 4)

	maxed := nn.NewMaxPooling2D[cpuB](2, 0, 0, false).Forward(x)
	assert.Equal(t, []float32{4, 8, 12, 16}, maxed.Data())

	avg := nn.NewAveragePooling2D[cpuB](2, 0, 0).Forward(x)
	assertClose(t, []float32{2.5, 6.5, 10.5, 14.5}, avg.Data(), 1e-6)

	spp := nn.NewSpatialPyramidPooling2D[cpuB](2, nn.PoolMax).Forward(x)
	assert.Equal(t, tensor.Shape{1, 5, 1, 1}, spp.Shape())
	assert.Equal(t, []float32{16, 4, 8, 12, 16}, spp.Data())
}

func TestUnpooling2D(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{1, 2, 3, 4}, 1, 1, 2, 2)

	y := nn.NewUnpooling2D[cpuB](2, 0, 0, nil, false).Forward(x)
	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, y.Shape())
	assert.Equal(t, []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, y.Data())

	sized := nn.NewUnpooling2D[cpuB](2, 0, 0, []int{5, 5}, false).Forward(x)
	assert.Equal(t, tensor.Shape{1, 1, 5, 5}, sized.Shape())
}

func TestUpSampling2D(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 10, 13, 14,
		11, 12, 15, 16,
	}, 1, 1, 4, 4)

	idx := nn.MaxPoolIndexes(x, 2, 0, 0, false)
	assert.Equal(t, []int32{3, 3, 3, 3}, idx.Data())

	pooled := nn.NewMaxPooling2D[cpuB](2, 0, 0, false).Forward(x)
	restored := nn.NewUpSampling2D(idx, 2, 0, 0, nil, false).Forward(pooled)
	assert.Equal(t, []float32{
		0, 0, 0, 0,
		0, 4, 0, 8,
		0, 0, 0, 0,
		0, 12, 0, 16,
	}, restored.Data())
}

func TestArrayShapes(t *testing.T) {
	backend := cpu.New()
	x := tensor.Rand[float32](tensor.Shape{2, 3, 4}, backend, nil)

	tests := []struct {
		name  string
		layer nn.Layer[cpuB]
		want  tensor.Shape
	}{
		{"expand_dims_front", nn.NewExpandDims[cpuB](0), tensor.Shape{1, 2, 3, 4}},
		{"expand_dims_back", nn.NewExpandDims[cpuB](-1), tensor.Shape{2, 3, 4, 1}},
		{"flatten", nn.NewFlatten[cpuB](), tensor.Shape{24}},
		{"reshape", nn.NewReshape[cpuB](6, -1), tensor.Shape{6, 4}},
		{"rollaxis_last_to_front", nn.NewRollAxis[cpuB](2, 0), tensor.Shape{4, 2, 3}},
		{"rollaxis_first_to_end", nn.NewRollAxis[cpuB](0, 3), tensor.Shape{3, 4, 2}},
		{"rollaxis_noop", nn.NewRollAxis[cpuB](1, 1), tensor.Shape{2, 3, 4}},
		{"swapaxes", nn.NewSwapAxes[cpuB](0, 2), tensor.Shape{4, 3, 2}},
		{"transpose_reverse", nn.NewTranspose[cpuB](), tensor.Shape{4, 3, 2}},
		{"transpose_axes", nn.NewTranspose[cpuB](1, 0, 2), tensor.Shape{3, 2, 4}},
		{"tile_prepend", nn.NewTile[cpuB](2, 1, 1, 1), tensor.Shape{2, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := tt.layer.Forward(x)
			assert.Equal(t, tt.want, y.Shape())
		})
	}
}

func TestSwapAxesValues(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	y := nn.NewSwapAxes[cpuB](0, 1).Forward(x)
	assert.Equal(t, tensor.Shape{3, 2}, y.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, y.Data())
}

func TestTile(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	y := nn.NewTile[cpuB](2, 2).Forward(x)
	assert.Equal(t, tensor.Shape{4, 6}, y.Shape())
	assert.Equal(t, []float32{
		1, 2, 3, 1, 2, 3,
		4, 5, 6, 4, 5, 6,
		1, 2, 3, 1, 2, 3,
		4, 5, 6, 4, 5, 6,
	}, y.Data())

	row := nn.NewTile[cpuB](2).Forward(x)
	assert.Equal(t, tensor.Shape{2, 6}, row.Shape())
	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3, 4, 5, 6, 4, 5, 6}, row.Data())

	assert.Panics(t, func() { nn.NewTile[cpuB](0).Forward(x) })
}

func TestSqueeze(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{1, 3, 1, 4}, backend)

	assert.Equal(t, tensor.Shape{3, 4}, nn.NewSqueeze[cpuB]().Forward(x).Shape())
	assert.Equal(t, tensor.Shape{3, 1, 4}, nn.NewSqueeze[cpuB](0).Forward(x).Shape())
	assert.Equal(t, tensor.Shape{1, 3, 4}, nn.NewSqueeze[cpuB](-2).Forward(x).Shape())
	assert.PanicsWithValue(t, "squeeze: dimension 1 has size 3, not 1", func() {
		nn.NewSqueeze[cpuB](1).Forward(x)
	})
}

func TestBroadcastTo(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 1, 4)

	y := nn.NewBroadcastTo[cpuB](2, 3, 4).Forward(x)
	assert.Equal(t, tensor.Shape{2, 3, 4}, y.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, y.Data()[4:8])
	assert.Equal(t, []float32{5, 6, 7, 8}, y.Data()[20:24])

	lead := nn.NewBroadcastTo[cpuB](3, 2, 1, 4).Forward(x)
	assert.Equal(t, tensor.Shape{3, 2, 1, 4}, lead.Shape())

	assert.Panics(t, func() { nn.NewBroadcastTo[cpuB](2, 3, 5).Forward(x) })
}

func TestDropout(t *testing.T) {
	backend := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{100, 100}, backend)

	d := nn.NewDropout[cpuB](0.3, seeded(7))
	require.Equal(t, nn.Train, d.Mode())

	y := d.Forward(x)
	kept := 0
	for _, v := range y.Data() {
		if v != 0 {
			kept++
			assert.InDelta(t, 1/0.7, v, 1e-5)
		}
	}
	assert.InDelta(t, 0.7, float64(kept)/10000, 0.03)
	for _, v := range x.Data() {
		require.Equal(t, float32(1), v, "input must be untouched")
	}

	d.SetMode(nn.Eval)
	assert.Same(t, x, d.Forward(x))

	assert.Same(t, x, nn.NewDropout[cpuB](0).Forward(x))
	assert.Panics(t, func() { nn.NewDropout[cpuB](1) })
	assert.Panics(t, func() { nn.NewDropout[cpuB](-0.1) })
	assert.Equal(t, "Dropout(ratio=0.3)", d.String())
}

func TestGaussianNoise(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{200, 50}, backend)

	g := nn.NewGaussianNoise[cpuB](1, 2, seeded(11))
	y := g.Forward(x)

	var sum, sq float64
	for _, v := range y.Data() {
		sum += float64(v)
		sq += float64(v) * float64(v)
	}
	n := float64(y.NumElements())
	mean := sum / n
	assert.InDelta(t, 1, mean, 0.1)
	assert.InDelta(t, 4, sq/n-mean*mean, 0.3)

	constant := nn.NewGaussianNoise[cpuB](0.5, 0).Forward(x)
	for _, v := range constant.Data() {
		require.Equal(t, float32(0.5), v)
	}

	g.SetMode(nn.Eval)
	for i := range 3 {
		assert.Same(t, x, g.Forward(x), fmt.Sprintf("call %d", i))
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "train", nn.Train.String())
	assert.Equal(t, "eval", nn.Eval.String())
}
