package network

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Role tells the initializer how to treat a parameter
type Role int

const (
	RoleWeight Role = iota
	RoleBias
)

func (r Role) String() string {
	switch r {
	case RoleWeight:
		return "weight"
	case RoleBias:
		return "bias"
	default:
		return "unknown"
	}
}

// Param is one named tensor of the network. Exactly one of Weight and Bias is
// set, depending on Role.
type Param struct {
	Name   string
	Role   Role
	Weight *mat.Dense
	Bias   *mat.VecDense
}

// Dims returns the shape of the parameter. Biases are reported as n x 1.
func (p Param) Dims() (int, int) {
	if p.Role == RoleBias {
		return p.Bias.Len(), 1
	}
	return p.Weight.Dims()
}

// Data returns the backing slice of the parameter in row-major order.
// Writes through it update the network.
func (p Param) Data() []float64 {
	if p.Role == RoleBias {
		return p.Bias.RawVector().Data
	}
	return p.Weight.RawMatrix().Data
}

// orthogonal returns a rows x cols matrix whose rows (rows < cols) or columns
// (rows >= cols) are orthonormal. The matrix is the Q factor of a standard
// normal draw with column signs fixed by the diagonal of R.
func orthogonal(rows, cols int, norm distuv.Normal) *mat.Dense {
	r, c := rows, cols
	if rows < cols {
		r, c = cols, rows
	}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = norm.Rand()
	}

	var qr mat.QR
	qr.Factorize(mat.NewDense(r, c, data))
	var q, rf mat.Dense
	qr.QTo(&q)
	qr.RTo(&rf)

	thin := mat.DenseCopyOf(q.Slice(0, r, 0, c))
	for j := 0; j < c; j++ {
		if rf.At(j, j) < 0 {
			for i := 0; i < r; i++ {
				thin.Set(i, j, -thin.At(i, j))
			}
		}
	}
	if rows < cols {
		return mat.DenseCopyOf(thin.T())
	}
	return thin
}

// initialize applies the orthogonal/zero policy to every parameter
func initialize(params []Param, norm distuv.Normal) {
	for _, p := range params {
		switch p.Role {
		case RoleWeight:
			rows, cols := p.Weight.Dims()
			p.Weight.Copy(orthogonal(rows, cols, norm))
		case RoleBias:
			p.Bias.Zero()
		}
	}
}
