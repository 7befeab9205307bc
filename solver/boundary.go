package solver

import (
	"github.com/notargets/gomoc/problem"
)

// reflectFunc returns the outgoing value of ordinate np for group g at
// the boundary location being filled.
type reflectFunc func(np, g int) float64

// incoming reports whether ordinate n enters through a surface with
// outward normal (nx, ny).
func (b *Base) incoming(n int, nx, ny float64) bool {
	return b.quad.Dot(n, nx, ny) < 0
}

// boundaryValue is the incoming value for ordinate n, group g on a
// boundary edge with outward normal (nx, ny).
func (b *Base) boundaryValue(n, g int, nx, ny float64, reflect reflectFunc) float64 {
	switch b.prob.Boundary {
	case problem.Reflecting:
		return b.reflected(n, g, nx, ny, reflect)
	case problem.Source:
		v, ok := b.prob.BoundarySourceFor(nx, ny)
		if !ok {
			return 0
		}
		if v < 0 {
			return b.reflected(n, g, nx, ny, reflect)
		}
		return v
	}
	return 0
}

func (b *Base) reflected(n, g int, nx, ny float64, reflect reflectFunc) float64 {
	np := b.quad.Reflected(n, nx, ny)
	if np < 0 {
		return 0
	}
	return reflect(np, g)
}
