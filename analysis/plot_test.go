package analysis

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/dual-ac/network"
	"github.com/zeu5/dual-ac/rollout"
)

func TestPlotValues(t *testing.T) {
	trace := rollout.NewTrace("episode")
	for i := 0; i < 4; i++ {
		trace.Append(nil, network.StepOutput{V1: float64(i), V2: -float64(i), Class: 0.5})
	}
	file := path.Join(t.TempDir(), "values.png")
	require.NoError(t, PlotValues(trace, file))
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotSummaries(t *testing.T) {
	summaries := []rollout.Summary{{MeanV1: 1, MeanV2: 2, MeanClass: 0.3}, {MeanV1: 2, MeanV2: 1, MeanClass: 0.6}}
	file := path.Join(t.TempDir(), "summary.png")
	require.NoError(t, PlotSummaries(summaries, file))
	_, err := os.Stat(file)
	assert.NoError(t, err)
}
