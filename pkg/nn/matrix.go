package nn

import (
	"math/rand/v2"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
)

// Matrix stores 2D leaf parameters as a contiguous 1D slice (row-major)
type Matrix struct {
	Data       []autograd.Node
	Rows, Cols int
}

// NewMatrix creates a matrix of Input nodes with Gaussian-initialized values
func NewMatrix(g *autograd.Graph, rows, cols int, std float64, rng *rand.Rand) *Matrix {
	data := make([]autograd.Node, rows*cols)
	for i := range data {
		data[i] = g.Input(float32(rng.NormFloat64() * std))
	}
	return &Matrix{
		Data: data,
		Rows: rows,
		Cols: cols,
	}
}

// At returns the node at (row, col)
func (m *Matrix) At(row, col int) autograd.Node {
	return m.Data[row*m.Cols+col]
}

// Row returns a slice view of row
func (m *Matrix) Row(row int) []autograd.Node {
	start := row * m.Cols
	return m.Data[start : start+m.Cols]
}
