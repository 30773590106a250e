package rollout

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/dual-ac/network"
	"golang.org/x/exp/rand"
)

func newNetwork(t *testing.T) *network.DualHeadActorCritic {
	t.Helper()
	net, err := network.New(&network.Config{StateSize: 4, ActionSize: 2, HiddenSize: 8, Seed: 3})
	require.NoError(t, err)
	return net
}

func makeEpisodes(n, steps int, seed uint64) []Episode {
	r := rand.New(rand.NewSource(seed))
	episodes := make([]Episode, n)
	for i := range episodes {
		ep := Episode{Name: "ep" + string(rune('a'+i))}
		prev := -1
		for s := 0; s < steps; s++ {
			state := []float64{r.NormFloat64(), r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
			ep.Observations = append(ep.Observations, network.EncodeObservation(state, prev, 2, r.Float64(), float64(s)))
			prev = r.Intn(2)
		}
		episodes[i] = ep
	}
	return episodes
}

func TestRunnerCarriesState(t *testing.T) {
	net := newNetwork(t)
	ep := makeEpisodes(1, 5, 1)[0]

	trace, err := NewRunner(net, nil).Run(context.Background(), ep)
	require.NoError(t, err)
	require.Equal(t, 5, trace.Len())

	// replaying by hand with the same state chain gives the same outputs
	state := network.State{}
	for i, obs := range ep.Observations {
		out, err := net.Step(obs, state)
		require.NoError(t, err)
		step, ok := trace.Get(i)
		require.True(t, ok)
		assert.Equal(t, out.Row(0), step.Output)
		state = out.State
	}
	_, ok := trace.Get(5)
	assert.False(t, ok)
}

func TestRunnerReturnsPartialTraceOnBadObservation(t *testing.T) {
	net := newNetwork(t)
	ep := makeEpisodes(1, 3, 2)[0]
	ep.Observations[2] = ep.Observations[2][:5]

	trace, err := NewRunner(net, nil).Run(context.Background(), ep)
	assert.ErrorIs(t, err, network.ErrInvalidInputShape)
	assert.Equal(t, 2, trace.Len())
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trace, err := NewRunner(newNetwork(t), nil).Run(ctx, makeEpisodes(1, 3, 2)[0])
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, trace.Len())
}

func TestRunParallelMatchesSequential(t *testing.T) {
	net := newNetwork(t)
	episodes := makeEpisodes(6, 10, 4)
	dir := t.TempDir()
	var out bytes.Buffer

	traces, err := RunParallel(context.Background(), net, episodes, ParallelConfig{
		Workers:        3,
		RecordPath:     dir,
		PrintFrequency: time.Millisecond,
		PrintOut:       &out,
	})
	require.NoError(t, err)
	require.Len(t, traces, 6)

	runner := NewRunner(net, nil)
	for i, ep := range episodes {
		want, err := runner.Run(context.Background(), ep)
		require.NoError(t, err)
		assert.Equal(t, want, traces[i])
	}

	recorded := 0
	entries, err := os.ReadDir(path.Join(dir, "traces"))
	require.NoError(t, err)
	for _, e := range entries {
		bs, err := os.ReadFile(path.Join(dir, "traces", e.Name()))
		require.NoError(t, err)
		for _, line := range strings.Split(strings.TrimSpace(string(bs)), "\n") {
			var tr Trace
			require.NoError(t, json.Unmarshal([]byte(line), &tr))
			assert.Equal(t, 10, tr.Len())
			recorded++
		}
	}
	assert.Equal(t, 6, recorded)
}

func TestRunParallelPropagatesErrors(t *testing.T) {
	episodes := makeEpisodes(4, 3, 5)
	episodes[2].Observations[1] = []float64{1}
	_, err := RunParallel(context.Background(), newNetwork(t), episodes, ParallelConfig{Workers: 2})
	assert.ErrorIs(t, err, network.ErrInvalidInputShape)
}

func TestLoadEpisodes(t *testing.T) {
	file := path.Join(t.TempDir(), "episodes.jsonl")
	content := `{"name":"first","observations":[[0,0,0,0,1,0,0.5,1]]}

{"observations":[[1,1,1,1,0,1,0,2],[1,1,1,1,0,1,0,3]]}
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	episodes, err := LoadEpisodes(file)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, "first", episodes[0].Name)
	assert.Equal(t, "episode_2", episodes[1].Name)
	assert.Len(t, episodes[1].Observations, 2)

	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0644))
	_, err = LoadEpisodes(file)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	trace := NewTrace("x")
	trace.Append(nil, network.StepOutput{Policy1: []float64{0.25, 0.75}, Policy2: []float64{0.5, 0.5}, V1: 1, V2: 2, Class: 0.2})
	trace.Append(nil, network.StepOutput{Policy1: []float64{0.1, 0.9}, Policy2: []float64{0.5, 0.5}, Q1: []float64{1, 2}, V1: 3, V2: 4, Class: 0.4})

	s := Summarize(trace)
	assert.Equal(t, 2, s.Steps)
	assert.InDelta(t, 2.0, s.MeanV1, 1e-12)
	assert.InDelta(t, 3.0, s.MeanV2, 1e-12)
	assert.InDelta(t, 0.3, s.MeanClass, 1e-12)
	assert.Equal(t, 0.1, s.MinProb)
	assert.Equal(t, 0.9, s.MaxProb)
	assert.Equal(t, 0, s.NonFinite)

	last, ok := trace.Last()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.Output.V1)
	assert.Equal(t, 1, trace.Slice(1, 2).Len())
}

func TestParallelOutput(t *testing.T) {
	p := NewParallelOutput()
	assert.True(t, p.TrySet("hello"))
	assert.Equal(t, "hello", p.Get())
}
