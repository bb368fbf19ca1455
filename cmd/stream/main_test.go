package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/stream/internal/autodiff"
	"github.com/born-ml/stream/internal/backend/cpu"
	"github.com/born-ml/stream/internal/config"
	"github.com/born-ml/stream/internal/monitoring"
	"github.com/born-ml/stream/internal/nn"
)

const identityDoc = `{
  "name": "identity",
  "input_shape": [8, 4],
  "seed": 3,
  "layers": [
    {"kind": "linear", "in": 4, "out": 4},
    {"kind": "residual", "layers": [{"kind": "gaussian_noise", "mean": 0, "std": 0}]}
  ]
}`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func mute(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = prev })
}

func TestHandleInspect(t *testing.T) {
	mute(t)
	var out bytes.Buffer
	require.NoError(t, handleInspect([]string{"-config", writeDoc(t, identityDoc)}, &out))

	text := out.String()
	assert.Contains(t, text, "(0): Linear(in_features=4, out_features=4) [layer_0]")
	assert.Contains(t, text, "layer_0.weight")
	assert.Contains(t, text, "Total parameters: 20")
}

func TestHandleRun(t *testing.T) {
	mute(t)
	path := writeDoc(t, identityDoc)

	var out bytes.Buffer
	require.NoError(t, handleRun([]string{"-config", path, "-eval"}, &out))
	assert.Contains(t, out.String(), "mode: eval")
	assert.Contains(t, out.String(), "output shape: [8 4]")

	noShape := writeDoc(t, `{"layers": [{"kind": "relu"}]}`)
	assert.Error(t, handleRun([]string{"-config", noShape}, &out))
}

func TestHandle_MissingConfig(t *testing.T) {
	mute(t)
	var out bytes.Buffer
	assert.Error(t, handleInspect(nil, &out))
	assert.Error(t, handleRun([]string{"-config", "missing.json"}, &out))
	assert.Error(t, handleTrain([]string{"-config", writeDoc(t, identityDoc), "-steps", "0"}, &out))
}

func TestTrain_ReducesLossAndSavesCheckpoint(t *testing.T) {
	mute(t)
	cfg, err := config.ParseStreamConfig([]byte(identityDoc))
	require.NoError(t, err)
	dir := t.TempDir()
	var out bytes.Buffer

	first, err := train(cfg, trainOptions{steps: 1, lr: 0.1, out: filepath.Join(dir, "one.born")}, &out)
	require.NoError(t, err)

	path := filepath.Join(dir, "many.born")
	last, err := train(cfg, trainOptions{steps: 100, lr: 0.1, out: path}, &out)
	require.NoError(t, err)
	assert.Less(t, last, first*0.1)

	backend := autodiff.New(cpu.New())
	model, err := config.Build(cfg, backend)
	require.NoError(t, err)
	ckpt, err := nn.LoadCheckpoint[trainBackend](path, backend, model, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(100), ckpt.Step)
	assert.InDelta(t, float64(last), ckpt.Loss, 1e-6)
	assert.Equal(t, "identity", ckpt.Metadata["stream"])
	runID, ok := ckpt.Metadata["run_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err)
}

func TestTrain_ShapeMismatch(t *testing.T) {
	mute(t)
	cfg, err := config.ParseStreamConfig([]byte(`{"input_shape": [2, 4], "layers": [{"kind": "linear", "in": 4, "out": 3}]}`))
	require.NoError(t, err)

	_, err = train(cfg, trainOptions{steps: 1, lr: 0.1, out: filepath.Join(t.TempDir(), "x.born")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity training")
}
