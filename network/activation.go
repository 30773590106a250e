package network

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// probCeiling is the largest float64 below 1. It is at most 1-1e-20, which
// itself rounds to 1 in float64.
var probCeiling = math.Nextafter(1, 0)

// elu is the exponential linear unit with alpha 1
func elu(_, _ int, v float64) float64 {
	if v > 0 {
		return v
	}
	return math.Expm1(v)
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// squash keeps a sigmoid output inside the open interval (0, 1)
func squash(v float64) float64 {
	return math.Min(math.Max(sigmoid(v), math.SmallestNonzeroFloat64), probCeiling)
}

func sigmoidAt(_, _ int, v float64) float64 {
	return sigmoid(v)
}

func tanhAt(_, _ int, v float64) float64 {
	return math.Tanh(v)
}

// softmaxRows normalizes each row of m in place
func softmaxRows(m *mat.Dense) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		floats.AddConst(-floats.Max(row), row)
		for j, v := range row {
			row[j] = math.Exp(v)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
}

// clampRows caps every entry of m at probCeiling. There is no lower bound.
func clampRows(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		return math.Min(v, probCeiling)
	}, m)
}

// CReLU applies a rectified linear unit to x and to -x and concatenates both
// results along the feature axis, doubling the number of columns.
func CReLU(x mat.Matrix) *mat.Dense {
	var pos, neg mat.Dense
	pos.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, x)
	neg.Apply(func(_, _ int, v float64) float64 { return math.Max(-v, 0) }, x)
	var out mat.Dense
	out.Augment(&pos, &neg)
	return &out
}
