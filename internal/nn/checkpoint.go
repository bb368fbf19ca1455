package nn

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/born-ml/stream/internal/monitoring"
	"github.com/born-ml/stream/internal/serialization"
	"github.com/born-ml/stream/internal/tensor"
)

const optimizerPrefix = "optimizer."

// OptimizerState represents an optimizer that can save/load its state.
//
// Optimizers from the optim package implement this interface; it lives
// here so checkpoints do not import optim.
type OptimizerState interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
	GetLR() float32
}

// Save writes module's state dict to path in .born format.
//
// Example:
//
//	err := nn.Save(stream, "model.born", "Stream", map[string]string{"run_id": id})
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	sd := module.StateDict()
	header := serialization.Header{ModelType: modelType, Metadata: metadata}
	if err := serialization.WriteFile(path, sd, header); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	monitoring.Logf("saved %s with %d tensors to %s", modelType, len(sd), path)
	return nil
}

// Load reads path and loads its tensors into module. The module must have
// the same architecture as the one that was saved.
func Load[B tensor.Backend](path string, backend B, module Module[B]) (serialization.Header, error) {
	sd, header, err := serialization.ReadFile(path, backend.Device())
	if err != nil {
		return serialization.Header{}, fmt.Errorf("load: %w", err)
	}
	if err := module.LoadStateDict(sd); err != nil {
		return serialization.Header{}, fmt.Errorf("load %s: %w", path, err)
	}
	monitoring.Logf("loaded %s with %d tensors from %s", header.ModelType, len(sd), path)
	return header, nil
}

// Checkpoint is a training state snapshot: model parameters, optimizer
// state and progress counters.
//
// Example:
//
//	ckpt := &nn.Checkpoint[B]{Model: s, Optimizer: opt, Step: 500, Loss: 0.12}
//	err := ckpt.Save("step_500.born")
//
//	ckpt, err := nn.LoadCheckpoint("step_500.born", backend, s, opt)
type Checkpoint[B tensor.Backend] struct {
	Model     Module[B]
	Optimizer OptimizerState
	Epoch     int
	Step      int64
	Loss      float64
	Metadata  map[string]any
	CreatedAt time.Time
}

// Save writes the checkpoint. Optimizer tensors are stored with an
// "optimizer." prefix next to the model tensors.
func (c *Checkpoint[B]) Save(path string) error {
	combined := maps.Clone(c.Model.StateDict())
	if combined == nil {
		combined = make(map[string]*tensor.RawTensor)
	}
	meta := &serialization.CheckpointMeta{
		IsCheckpoint: true,
		Epoch:        c.Epoch,
		Step:         c.Step,
		Loss:         c.Loss,
		TrainingMeta: c.Metadata,
	}
	if c.Optimizer != nil {
		for name, raw := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = raw
		}
		meta.OptimizerType = optimizerType(c.Optimizer)
		meta.OptimizerConfig = map[string]any{"lr": c.Optimizer.GetLR()}
	}

	header := serialization.Header{ModelType: "Checkpoint", CreatedAt: c.CreatedAt, CheckpointMeta: meta}
	if err := serialization.WriteFile(path, combined, header); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", path, err)
	}
	monitoring.Logf("saved checkpoint step=%d loss=%g to %s", c.Step, c.Loss, path)
	return nil
}

// LoadCheckpoint restores model and optimizer (which may be nil) from path.
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	sd, header, err := serialization.ReadFile(path, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if header.CheckpointMeta == nil || !header.CheckpointMeta.IsCheckpoint {
		return nil, fmt.Errorf("%s is not a checkpoint", path)
	}

	modelSD := make(map[string]*tensor.RawTensor)
	optimizerSD := make(map[string]*tensor.RawTensor)
	for name, raw := range sd {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optimizerSD[rest] = raw
		} else {
			modelSD[name] = raw
		}
	}

	if err := model.LoadStateDict(modelSD); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if optimizer != nil {
		if err := optimizer.LoadStateDict(optimizerSD); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	meta := header.CheckpointMeta
	return &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     meta.Epoch,
		Step:      meta.Step,
		Loss:      meta.Loss,
		Metadata:  meta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// optimizerType returns the optimizer's type name without package path or
// type arguments, e.g. "SGD".
func optimizerType(opt OptimizerState) string {
	name := fmt.Sprintf("%T", opt)
	name, _, _ = strings.Cut(name, "[")
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
