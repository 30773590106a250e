package rollout

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary condenses a trace. NonFinite counts NaN or Inf output values, the
// only sign of numeric degeneration since the network never reports it.
type Summary struct {
	Episode   string  `json:"episode"`
	Steps     int     `json:"steps"`
	MeanV1    float64 `json:"mean_v1"`
	MeanV2    float64 `json:"mean_v2"`
	MeanClass float64 `json:"mean_class"`
	MinProb   float64 `json:"min_prob"`
	MaxProb   float64 `json:"max_prob"`
	NonFinite int     `json:"non_finite"`
}

func Summarize(t *Trace) Summary {
	s := Summary{Episode: t.Episode, Steps: t.Len()}
	if t.Len() == 0 {
		return s
	}
	v1 := make([]float64, t.Len())
	v2 := make([]float64, t.Len())
	class := make([]float64, t.Len())
	s.MinProb, s.MaxProb = math.Inf(1), math.Inf(-1)

	for i, step := range t.Steps {
		out := step.Output
		v1[i], v2[i], class[i] = out.V1, out.V2, out.Class
		for _, policy := range [][]float64{out.Policy1, out.Policy2} {
			s.MinProb = math.Min(s.MinProb, floats.Min(policy))
			s.MaxProb = math.Max(s.MaxProb, floats.Max(policy))
		}
		for _, values := range [][]float64{out.Policy1, out.Q1, out.Policy2, out.Q2, {out.V1, out.V2, out.Class}} {
			for _, v := range values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					s.NonFinite++
				}
			}
		}
	}
	s.MeanV1 = stat.Mean(v1, nil)
	s.MeanV2 = stat.Mean(v2, nil)
	s.MeanClass = stat.Mean(class, nil)
	return s
}
