package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// gate indexes the four blocks of the LSTM pre-activations. The order is
// input, forget, cell, output and every weight row and bias entry follows it.
type gate int

const (
	inputGate gate = iota
	forgetGate
	cellGate
	outputGate
	numGates
)

// lstmCell holds the parameters of a single LSTM cell. Both bias vectors are
// added to the pre-activations.
type lstmCell struct {
	inputSize  int
	hiddenSize int

	weightIH *mat.Dense // 4h x in
	weightHH *mat.Dense // 4h x h
	biasIH   *mat.VecDense
	biasHH   *mat.VecDense
}

func newLSTMCell(inputSize, hiddenSize int) *lstmCell {
	n := int(numGates) * hiddenSize
	return &lstmCell{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		weightIH:   mat.NewDense(n, inputSize, nil),
		weightHH:   mat.NewDense(n, hiddenSize, nil),
		biasIH:     mat.NewVecDense(n, nil),
		biasHH:     mat.NewVecDense(n, nil),
	}
}

func (c *lstmCell) params() []Param {
	return []Param{
		{Name: "lstm.weight_ih", Role: RoleWeight, Weight: c.weightIH},
		{Name: "lstm.weight_hh", Role: RoleWeight, Weight: c.weightHH},
		{Name: "lstm.bias_ih", Role: RoleBias, Bias: c.biasIH},
		{Name: "lstm.bias_hh", Role: RoleBias, Bias: c.biasHH},
	}
}

func (c *lstmCell) gateRange(g gate) (int, int) {
	return int(g) * c.hiddenSize, int(g+1) * c.hiddenSize
}

// setForgetBias writes 1 into the forget block [n/4, n/2) of both biases.
// It refuses to touch a bias whose layout does not put the forget gate there.
func (c *lstmCell) setForgetBias() error {
	from, to := c.gateRange(forgetGate)
	for _, b := range []*mat.VecDense{c.biasIH, c.biasHH} {
		n := b.Len()
		if n != int(numGates)*c.hiddenSize || from != n/4 || to != n/2 {
			return fmt.Errorf("%w: lstm bias of length %d has forget gate at [%d, %d)", ErrConfiguration, n, from, to)
		}
		for i := from; i < to; i++ {
			b.SetVec(i, 1)
		}
	}
	return nil
}

// forward runs one step for a batch. x is n x inputSize, h and c are n x hiddenSize.
func (c *lstmCell) forward(x, h, cell mat.Matrix) (*mat.Dense, *mat.Dense) {
	var gates, rec mat.Dense
	gates.Mul(x, c.weightIH.T())
	rec.Mul(h, c.weightHH.T())
	gates.Add(&gates, &rec)
	addBias(&gates, c.biasIH)
	addBias(&gates, c.biasHH)

	rows, _ := gates.Dims()
	block := func(g gate) mat.Matrix {
		from, to := c.gateRange(g)
		return gates.Slice(0, rows, from, to)
	}

	var in, forget, candidate, out mat.Dense
	in.Apply(sigmoidAt, block(inputGate))
	forget.Apply(sigmoidAt, block(forgetGate))
	candidate.Apply(tanhAt, block(cellGate))
	out.Apply(sigmoidAt, block(outputGate))

	var newCell, carry mat.Dense
	newCell.MulElem(&forget, cell)
	carry.MulElem(&in, &candidate)
	newCell.Add(&newCell, &carry)

	var newHidden mat.Dense
	newHidden.Apply(tanhAt, &newCell)
	newHidden.MulElem(&out, &newHidden)
	return &newHidden, &newCell
}
