package rollout

import "github.com/zeu5/dual-ac/network"

// Step is one forward call of a rollout
type Step struct {
	Observation []float64          `json:"observation"`
	Output      network.StepOutput `json:"output"`
}

// Trace of an episode as (observation, output) pairs in time order
type Trace struct {
	Episode string `json:"episode"`
	Steps   []Step `json:"steps"`
}

func NewTrace(episode string) *Trace {
	return &Trace{
		Episode: episode,
		Steps:   make([]Step, 0),
	}
}

func (t *Trace) Append(obs []float64, out network.StepOutput) {
	t.Steps = append(t.Steps, Step{Observation: obs, Output: out})
}

func (t *Trace) Len() int {
	return len(t.Steps)
}

func (t *Trace) Get(i int) (Step, bool) {
	if i < 0 || i >= len(t.Steps) {
		return Step{}, false
	}
	return t.Steps[i], true
}

func (t *Trace) Last() (Step, bool) {
	return t.Get(len(t.Steps) - 1)
}

func (t *Trace) Slice(from, to int) *Trace {
	sliced := NewTrace(t.Episode)
	sliced.Steps = append(sliced.Steps, t.Steps[from:to]...)
	return sliced
}
