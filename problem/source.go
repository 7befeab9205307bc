package problem

import "fmt"

// ExternalSource gives the fixed source density for cell, ordinate n and
// group g (0-based).
type ExternalSource interface {
	Value(cell, n, g int) float64
}

// Uniform is the same isotropic source density in every cell, per group.
type Uniform []float64

func (u Uniform) Value(_, _, g int) float64 {
	if g >= len(u) {
		return 0
	}
	return u[g]
}

// Tabulated is a per-cell, per-ordinate, per-group source stored at
// NumCells*NumAngles*g + NumCells*n + cell.
type Tabulated struct {
	NumCells, NumAngles, NumGroups int
	Values                         []float64
}

// NewTabulated checks that values has one entry per (cell, ordinate, group).
func NewTabulated(numCells, numAngles, numGroups int, values []float64) (*Tabulated, error) {
	if want := numCells * numAngles * numGroups; len(values) != want {
		return nil, fmt.Errorf("source table has %d values, want %d", len(values), want)
	}
	return &Tabulated{NumCells: numCells, NumAngles: numAngles, NumGroups: numGroups, Values: values}, nil
}

func (t *Tabulated) Value(cell, n, g int) float64 {
	return t.Values[t.NumCells*t.NumAngles*g+t.NumCells*n+cell]
}
