package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/stream/internal/autodiff"
	"github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/config"
	"github.com/born-ml/stream/internal/monitoring"
	"github.com/born-ml/stream/internal/nn"
	"github.com/born-ml/stream/internal/optim"
	"github.com/born-ml/stream/internal/tensor"
)

type trainBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

type trainOptions struct {
	steps    int
	lr       float32
	momentum float32
	out      string
}

func handleTrain(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	cfgPath, verbose := commonFlags(fs)
	steps := fs.Int("steps", 100, "Number of optimization steps")
	lr := fs.Float64("lr", 0.01, "SGD learning rate")
	momentum := fs.Float64("momentum", 0, "SGD momentum")
	out := fs.String("out", "stream.born", "Checkpoint output path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(fs, *cfgPath, *verbose)
	if err != nil {
		return err
	}
	if *steps <= 0 {
		return fmt.Errorf("-steps must be positive, got %d", *steps)
	}

	_, err = train(cfg, trainOptions{
		steps:    *steps,
		lr:       float32(*lr),
		momentum: float32(*momentum),
		out:      *out,
	}, w)
	return err
}

// train fits the stream to the identity map under MSE with SGD, then saves
// a checkpoint tagged with a fresh run id. It returns the final loss.
func train(cfg *config.StreamConfig, opts trainOptions, w io.Writer) (float32, error) {
	if len(cfg.InputShape) == 0 {
		return 0, fmt.Errorf("input_shape is required to train")
	}
	runID := uuid.NewString()

	backend := autodiff.New(cpu.New())
	s, err := config.Build(cfg, backend)
	if err != nil {
		return 0, err
	}
	params := s.Parameters()
	if len(params) == 0 {
		return 0, fmt.Errorf("stream %q has no parameters to train", cfg.Name)
	}

	opt := optim.NewSGD(params, optim.SGDConfig{LR: opts.lr, Momentum: opts.momentum}, backend)
	mse := nn.NewMSELoss[trainBackend]()
	src := inputSource(cfg)
	tape := backend.Tape()

	monitoring.Logf("train: run %s, %d steps, lr=%g", runID, opts.steps, opts.lr)
	start := time.Now()
	var loss float32
	for step := 1; step <= opts.steps; step++ {
		tape.Clear()
		tape.StartRecording()

		x := tensor.Randn[float32](tensor.Shape(cfg.InputShape), backend, src)
		y := s.Forward(x)
		if !y.Shape().Equal(x.Shape()) {
			return 0, fmt.Errorf("identity training needs output shape %v to match input shape %v", y.Shape(), x.Shape())
		}
		l := mse.Forward(y, x.Detach())
		loss = l.Item()

		opt.Step(autodiff.Backward(l, backend))
		opt.ZeroGrad()

		if step == 1 || step%10 == 0 || step == opts.steps {
			monitoring.Debugf("train: step %d loss %.6f", step, loss)
		}
	}
	tape.StopRecording()
	tape.Clear()

	ckpt := &nn.Checkpoint[trainBackend]{
		Model:     s,
		Optimizer: opt,
		Step:      int64(opts.steps),
		Loss:      float64(loss),
		Metadata: map[string]any{
			"run_id": runID,
			"stream": cfg.Name,
		},
	}
	if err := ckpt.Save(opts.out); err != nil {
		return 0, err
	}

	fmt.Fprintf(w, "run %s: %d steps in %s, final loss %.6f, saved %s\n",
		runID, opts.steps, time.Since(start).Round(time.Millisecond), loss, opts.out)
	return loss, nil
}
