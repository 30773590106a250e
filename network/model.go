package network

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// State is the recurrent memory of a batch of rollouts. Both matrices are
// batch x hidden. The zero value stands for the all-zero start state.
type State struct {
	Hidden *mat.Dense
	Cell   *mat.Dense
}

// ZeroState returns an all-zero state for batch rollouts
func ZeroState(batch, hiddenSize int) State {
	return State{
		Hidden: mat.NewDense(batch, hiddenSize, nil),
		Cell:   mat.NewDense(batch, hiddenSize, nil),
	}
}

// StateFromVectors wraps the state of a single rollout. The slices are
// copied; an empty slice leaves the matching matrix nil.
func StateFromVectors(hidden, cell []float64) State {
	var s State
	if len(hidden) > 0 {
		s.Hidden = mat.NewDense(1, len(hidden), append([]float64(nil), hidden...))
	}
	if len(cell) > 0 {
		s.Cell = mat.NewDense(1, len(cell), append([]float64(nil), cell...))
	}
	return s
}

// IsZero reports whether the state carries no matrices
func (s State) IsZero() bool {
	return s.Hidden == nil && s.Cell == nil
}

// Output of a forward pass. Row i of every field belongs to input row i.
type Output struct {
	Policy1 *mat.Dense    // batch x actions, clamped
	Q1      *mat.Dense    // batch x actions
	V1      *mat.VecDense // batch
	Policy2 *mat.Dense
	Q2      *mat.Dense
	V2      *mat.VecDense
	Class   *mat.VecDense // batch, inside (0, 1)
	State   State
}

// StepOutput is the output of a single row as plain slices
type StepOutput struct {
	Policy1 []float64 `json:"policy1"`
	Q1      []float64 `json:"q1"`
	V1      float64   `json:"v1"`
	Policy2 []float64 `json:"policy2"`
	Q2      []float64 `json:"q2"`
	V2      float64   `json:"v2"`
	Class   float64   `json:"class"`
	Hidden  []float64 `json:"hidden"`
	Cell    []float64 `json:"cell"`
}

// Row extracts row i of the batch output
func (o *Output) Row(i int) StepOutput {
	row := func(m *mat.Dense) []float64 {
		return append([]float64(nil), m.RawRowView(i)...)
	}
	return StepOutput{
		Policy1: row(o.Policy1),
		Q1:      row(o.Q1),
		V1:      o.V1.AtVec(i),
		Policy2: row(o.Policy2),
		Q2:      row(o.Q2),
		V2:      o.V2.AtVec(i),
		Class:   o.Class.AtVec(i),
		Hidden:  row(o.State.Hidden),
		Cell:    row(o.State.Cell),
	}
}

// headGroup is one actor/critic pair reading the shared hidden state
type headGroup struct {
	actor  *linear
	critic *linear
}

func newHeadGroup(name string, hiddenSize, actionSize int) headGroup {
	return headGroup{
		actor:  newLinear(name+".actor", hiddenSize, actionSize),
		critic: newLinear(name+".critic", hiddenSize, actionSize),
	}
}

func (g headGroup) params() []Param {
	return append(g.actor.params(), g.critic.params()...)
}

// forward returns the clamped policy, the action values and V = sum(policy * Q)
func (g headGroup) forward(h mat.Matrix) (*mat.Dense, *mat.Dense, *mat.VecDense) {
	policy := g.actor.forward(h)
	softmaxRows(policy)
	clampRows(policy)
	q := g.critic.forward(h)

	rows, _ := policy.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, floats.Dot(policy.RawRowView(i), q.RawRowView(i)))
	}
	return policy, q, v
}

// DualHeadActorCritic is a recurrent actor-critic with two actor/critic head
// groups and a binary classifier head over one shared LSTM state.
//
// The network holds no recurrent state. Forward is safe for concurrent use as
// long as nobody writes the parameters at the same time.
type DualHeadActorCritic struct {
	config *Config

	encoder    *linear
	cell       *lstmCell
	group1     headGroup
	group2     headGroup
	classifier *linear
}

// New builds the network and initializes its parameters: orthogonal weights,
// zero biases and a forget gate bias of 1 in the recurrent cell.
func New(config *Config) (*DualHeadActorCritic, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	n := assemble(*config)

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	initialize(n.Parameters(), distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)})
	if err := n.cell.setForgetBias(); err != nil {
		return nil, err
	}
	return n, nil
}

// assemble allocates zeroed layers for the given dimensions
func assemble(cfg Config) *DualHeadActorCritic {
	hidden, actions := cfg.HiddenSize, cfg.ActionSize
	return &DualHeadActorCritic{
		config:     &cfg,
		encoder:    newLinear("fc1", cfg.StateSize, hidden),
		cell:       newLSTMCell(cfg.InputSize()-cfg.StateSize+hidden, hidden),
		group1:     newHeadGroup("head1", hidden, actions),
		group2:     newHeadGroup("head2", hidden, actions),
		classifier: newLinear("fc_class", hidden, 1),
	}
}

// Config returns a copy of the network dimensions
func (n *DualHeadActorCritic) Config() Config {
	return *n.config
}

// Parameters lists every tensor of the network in a fixed order
func (n *DualHeadActorCritic) Parameters() []Param {
	params := make([]Param, 0, 16)
	params = append(params, n.encoder.params()...)
	params = append(params, n.cell.params()...)
	params = append(params, n.group1.params()...)
	params = append(params, n.group2.params()...)
	params = append(params, n.classifier.params()...)
	return params
}

// Clone returns a network with a deep copy of the parameters
func (n *DualHeadActorCritic) Clone() *DualHeadActorCritic {
	c := assemble(*n.config)
	dst := c.Parameters()
	for i, p := range n.Parameters() {
		copy(dst[i].Data(), p.Data())
	}
	return c
}

// Forward runs one time step for a batch of observations. Row i of x is
// state | previous action | reward | timestep, and row i of the state is the
// memory of the same rollout. The layout is positional and is not inspected;
// only the widths are checked.
func (n *DualHeadActorCritic) Forward(x mat.Matrix, s State) (*Output, error) {
	batch, width := x.Dims()
	if batch == 0 || width != n.config.InputSize() {
		return nil, fmt.Errorf("%w: observation is %dx%d, want width %d", ErrInvalidInputShape, batch, width, n.config.InputSize())
	}
	if s.IsZero() {
		s = ZeroState(batch, n.config.HiddenSize)
	}
	if err := n.checkState(s, batch); err != nil {
		return nil, err
	}

	stateSize := n.config.StateSize
	obs := mat.DenseCopyOf(x)
	encoded := n.encoder.forward(obs.Slice(0, batch, 0, stateSize))
	encoded.Apply(elu, encoded)

	var joined mat.Dense
	joined.Augment(encoded, obs.Slice(0, batch, stateSize, width))
	hidden, cell := n.cell.forward(&joined, s.Hidden, s.Cell)

	out := &Output{State: State{Hidden: hidden, Cell: cell}}
	out.Policy1, out.Q1, out.V1 = n.group1.forward(hidden)
	out.Policy2, out.Q2, out.V2 = n.group2.forward(hidden)

	logits := n.classifier.forward(hidden)
	out.Class = mat.NewVecDense(batch, nil)
	for i := 0; i < batch; i++ {
		out.Class.SetVec(i, squash(logits.At(i, 0)))
	}
	return out, nil
}

// Step runs a single observation vector
func (n *DualHeadActorCritic) Step(obs []float64, s State) (*Output, error) {
	if len(obs) != n.config.InputSize() {
		return nil, fmt.Errorf("%w: observation has length %d, want %d", ErrInvalidInputShape, len(obs), n.config.InputSize())
	}
	return n.Forward(mat.NewDense(1, len(obs), append([]float64(nil), obs...)), s)
}

func (n *DualHeadActorCritic) checkState(s State, batch int) error {
	if s.Hidden == nil || s.Cell == nil {
		return fmt.Errorf("%w: state needs both hidden and cell", ErrInvalidInputShape)
	}
	for i, m := range []*mat.Dense{s.Hidden, s.Cell} {
		r, c := m.Dims()
		if r != batch || c != n.config.HiddenSize {
			return fmt.Errorf("%w: %s state is %dx%d, want %dx%d", ErrInvalidInputShape, [...]string{"hidden", "cell"}[i], r, c, batch, n.config.HiddenSize)
		}
	}
	return nil
}
