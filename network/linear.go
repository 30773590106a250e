package network

import "gonum.org/v1/gonum/mat"

// linear is an affine map y = x W^T + b applied row-wise
type linear struct {
	name   string
	weight *mat.Dense    // out x in
	bias   *mat.VecDense // out
}

func newLinear(name string, in, out int) *linear {
	return &linear{
		name:   name,
		weight: mat.NewDense(out, in, nil),
		bias:   mat.NewVecDense(out, nil),
	}
}

func (l *linear) params() []Param {
	return []Param{
		{Name: l.name + ".weight", Role: RoleWeight, Weight: l.weight},
		{Name: l.name + ".bias", Role: RoleBias, Bias: l.bias},
	}
}

func (l *linear) forward(x mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(x, l.weight.T())
	addBias(&out, l.bias)
	return &out
}

// addBias adds b to every row of m
func addBias(m *mat.Dense, b *mat.VecDense) {
	m.Apply(func(_, j int, v float64) float64 {
		return v + b.AtVec(j)
	}, m)
}
