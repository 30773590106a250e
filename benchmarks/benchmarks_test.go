package benchmarks

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/dual-ac/network"
	"github.com/zeu5/dual-ac/rollout"
)

func TestLoadFileConfig(t *testing.T) {
	file := path.Join(t.TempDir(), "config.yaml")
	content := `
model:
  state_size: 6
  action_size: 3
  hidden_size: 16
  seed: 7
server:
  addr: "0.0.0.0:9000"
rollout:
  workers: 2
  progress: 250ms
checkpoint:
  store: redis
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := LoadFileConfig(file)
	require.NoError(t, err)
	assert.Equal(t, network.Config{StateSize: 6, ActionSize: 3, HiddenSize: 16, Seed: 7}, cfg.Model)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Rollout.Workers)
	assert.Equal(t, "250ms", cfg.Rollout.Progress.String())
	assert.Equal(t, "redis", cfg.Checkpoint.Store)
	// untouched defaults survive
	assert.Equal(t, "dualac:", cfg.Checkpoint.RedisPrefix)
	assert.True(t, cfg.Rollout.Plot)

	_, err = LoadFileConfig(path.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	file := path.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("model:\n  state_size: 6\n  action_size: 3\n  hidden_size: 16\n"), 0644))

	root := GetRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"forward", "--config", file, "--hidden-size", "8", "--seed", "3", "--log-level", "error"})
	require.NoError(t, root.Execute())

	var outputs []network.StepOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &outputs))
	require.Len(t, outputs, 1)
	assert.Len(t, outputs[0].Policy1, 3)
	assert.Len(t, outputs[0].Hidden, 8)
}

func TestForwardCommandScenario(t *testing.T) {
	root := GetRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"forward", "--state-size", "4", "--action-size", "2", "--hidden-size", "8", "--seed", "1",
		"-o", "0,0,0,0,1,0,0.5,1.0", "--steps", "3", "--log-level", "error"})
	require.NoError(t, root.Execute())

	var outputs []network.StepOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &outputs))
	require.Len(t, outputs, 3)
	for _, o := range outputs {
		assert.Len(t, o.Policy1, 2)
		assert.Len(t, o.Q2, 2)
		assert.Greater(t, o.Class, 0.0)
		assert.Less(t, o.Class, 1.0)
	}
	assert.NotEqual(t, outputs[0].Cell, outputs[1].Cell)
}

func TestForwardCommandRejectsBadObservation(t *testing.T) {
	root := GetRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"forward", "--state-size", "4", "--action-size", "2", "--hidden-size", "8", "-o", "1,2,3", "--log-level", "error"})
	assert.ErrorIs(t, root.Execute(), network.ErrInvalidInputShape)

	root = GetRootCommand()
	root.SetArgs([]string{"forward", "-o", "1,x", "--log-level", "error"})
	assert.Error(t, root.Execute())
}

func TestInitThenForwardFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	root := GetRootCommand()
	root.SetArgs([]string{"init", "--state-size", "3", "--action-size", "2", "--hidden-size", "4", "--seed", "9",
		"--store-dir", dir, "--key", "first", "--log-level", "error"})
	require.NoError(t, root.Execute())

	run := func() []network.StepOutput {
		root := GetRootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		// dimensions come from the checkpoint
		root.SetArgs([]string{"forward", "--store-dir", dir, "--key", "first", "--log-level", "error"})
		require.NoError(t, root.Execute())
		var outputs []network.StepOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &outputs))
		return outputs
	}
	first, second := run(), run()
	require.Len(t, first, 1)
	assert.Len(t, first[0].Hidden, 4)
	assert.Equal(t, first, second)
}

func TestRollout(t *testing.T) {
	net, err := network.New(&network.Config{StateSize: 2, ActionSize: 2, HiddenSize: 4, Seed: 5})
	require.NoError(t, err)
	episodes := []rollout.Episode{
		{Name: "a", Observations: [][]float64{
			network.EncodeObservation([]float64{0.1, 0.2}, -1, 2, 0, 0),
			network.EncodeObservation([]float64{0.3, 0.1}, 1, 2, 1, 1),
		}},
		{Name: "b", Observations: [][]float64{
			network.EncodeObservation([]float64{-0.1, 0.5}, -1, 2, 0, 0),
		}},
	}
	saveDir := path.Join(t.TempDir(), "results")

	summaries, err := Rollout(context.Background(), net, episodes, RolloutConfig{Workers: 2, Plot: true}, saveDir, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "a", summaries[0].Episode)
	assert.Equal(t, 2, summaries[0].Steps)
	assert.Equal(t, 1, summaries[1].Steps)

	for _, f := range []string{"summaries.json", "plots/a_values.png", "plots/summaries.png"} {
		_, err := os.Stat(path.Join(saveDir, f))
		assert.NoError(t, err, f)
	}
}
