package config

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/stream/internal/monitoring"
	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/tensor"
)

// Build validates cfg and constructs the stream it describes. Omitted
// optional fields take the nn defaults; each applied default is logged
// through monitoring.Debugf.
//
// With a seed, every randomized layer gets its own PCG stream derived from
// it, so two builds of the same document are identical.
func Build[B tensor.Backend](cfg *StreamConfig, backend B) (*nn.Stream[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	b := &builder[B]{backend: backend, seed: cfg.Seed}
	s := nn.NewStream(b.layers(cfg.Layers, "layers")...)
	monitoring.Logf("config: built stream %q with %d entries, %d registered", cfg.Name, s.Len(), len(s.Registered()))
	return s, nil
}

type builder[B tensor.Backend] struct {
	backend B
	seed    *uint64
	drawn   uint64
}

// opts returns the random source option for the next randomized layer.
func (b *builder[B]) opts() []nn.Option {
	if b.seed == nil {
		return nil
	}
	b.drawn++
	return []nn.Option{nn.WithSource(rand.NewPCG(*b.seed, b.drawn))}
}

func (b *builder[B]) layers(cfgs []LayerConfig, path string) []nn.Layer[B] {
	out := make([]nn.Layer[B], len(cfgs))
	for i := range cfgs {
		out[i] = b.layer(&cfgs[i], fmt.Sprintf("%s[%d]", path, i))
	}
	return out
}

func intOr(v *int, def int, path, field string) int {
	if v == nil {
		monitoring.Debugf("config: %s: %s defaulted to %d", path, field, def)
		return def
	}
	return *v
}

func floatOr(v *float64, def float64, path, field string) float32 {
	if v == nil {
		monitoring.Debugf("config: %s: %s defaulted to %g", path, field, def)
		return float32(def)
	}
	return float32(*v)
}

func boolOr(v *bool, def bool, path, field string) bool {
	if v == nil {
		monitoring.Debugf("config: %s: %s defaulted to %v", path, field, def)
		return def
	}
	return *v
}

// layer builds one validated entry.
func (b *builder[B]) layer(l *LayerConfig, path string) nn.Layer[B] {
	switch l.Kind {
	case "linear":
		return nn.NewLinear(*l.In, *l.Out, b.backend, b.opts()...)
	case "conv2d":
		return nn.NewConv2D(*l.In, *l.Out, *l.KSize, *l.KSize,
			intOr(l.Stride, 1, path, "stride"),
			intOr(l.Pad, 0, path, "pad"),
			boolOr(l.Bias, true, path, "bias"),
			b.backend, b.opts()...)

	case "clipped_relu":
		return nn.NewClippedReLU[B](floatOr(l.Z, nn.DefaultClippedReLUCeiling, path, "z"))
	case "crelu":
		return nn.NewCReLU[B](intOr(l.Axis, nn.DefaultCReLUAxis, path, "axis"))
	case "elu":
		return nn.NewELU[B](floatOr(l.Alpha, nn.DefaultELUAlpha, path, "alpha"))
	case "hard_sigmoid":
		return nn.NewHardSigmoid[B]()
	case "leaky_relu":
		return nn.NewLeakyReLU[B](floatOr(l.Slope, nn.DefaultLeakyReLUSlope, path, "slope"))
	case "log_softmax":
		return nn.NewLogSoftmax[B](intOr(l.Axis, nn.DefaultSoftmaxAxis, path, "axis"))
	case "maxout":
		return nn.NewMaxout[B](intOr(l.PoolSize, nn.DefaultMaxoutPoolSize, path, "pool_size"))
	case "relu":
		return nn.NewReLU[B]()
	case "sigmoid":
		return nn.NewSigmoid[B]()
	case "softmax":
		return nn.NewSoftmax[B](intOr(l.Axis, nn.DefaultSoftmaxAxis, path, "axis"))
	case "softplus":
		return nn.NewSoftplus[B](floatOr(l.Beta, nn.DefaultSoftplusBeta, path, "beta"))
	case "tanh":
		return nn.NewTanh[B]()

	case "average_pooling_2d":
		return nn.NewAveragePooling2D[B](*l.KSize, intOr(l.Stride, 0, path, "stride"), intOr(l.Pad, 0, path, "pad"))
	case "average_pooling_nd":
		return nn.NewAveragePoolingND[B](l.Kernel, l.Strides, l.Pads)
	case "max_pooling_2d":
		return nn.NewMaxPooling2D[B](*l.KSize, intOr(l.Stride, 0, path, "stride"), intOr(l.Pad, 0, path, "pad"),
			boolOr(l.CoverAll, true, path, "cover_all"))
	case "max_pooling_nd":
		return nn.NewMaxPoolingND[B](l.Kernel, l.Strides, l.Pads, boolOr(l.CoverAll, true, path, "cover_all"))
	case "spatial_pyramid_pooling_2d":
		pooling := nn.PoolMax
		if l.Pooling != nil && *l.Pooling == "average" {
			pooling = nn.PoolAverage
		}
		return nn.NewSpatialPyramidPooling2D[B](*l.PyramidHeight, pooling)
	case "unpooling_2d":
		return nn.NewUnpooling2D[B](*l.KSize, intOr(l.Stride, 0, path, "stride"), intOr(l.Pad, 0, path, "pad"),
			l.OutSize, boolOr(l.CoverAll, true, path, "cover_all"))

	case "broadcast_to":
		return nn.NewBroadcastTo[B](l.Shape...)
	case "expand_dims":
		return nn.NewExpandDims[B](*l.Axis)
	case "flatten":
		return nn.NewFlatten[B]()
	case "reshape":
		return nn.NewReshape[B](l.Shape...)
	case "rollaxis":
		return nn.NewRollAxis[B](*l.Axis, intOr(l.Start, 0, path, "start"))
	case "squeeze":
		return nn.NewSqueeze[B](l.Axes...)
	case "swapaxes":
		return nn.NewSwapAxes[B](l.Axes[0], l.Axes[1])
	case "tile":
		return nn.NewTile[B](l.Reps...)
	case "transpose":
		return nn.NewTranspose[B](l.Axes...)

	case "dropout":
		return nn.NewDropout[B](floatOr(l.Ratio, nn.DefaultDropoutRatio, path, "ratio"), b.opts()...)
	case "gaussian_noise":
		return nn.NewGaussianNoise[B](float32(*l.Mean), float32(*l.Std), b.opts()...)

	case "residual":
		return nn.NewResidual(b.layers(l.Layers, path+".layers")...)
	case "stream":
		return nn.NewStream(b.layers(l.Layers, path+".layers")...)
	}
	// Validate rejects every other kind.
	panic(fmt.Sprintf("config: unhandled kind %q at %s", l.Kind, path))
}
