package solver

import (
	"math"

	"github.com/notargets/gomoc/dof"
	"github.com/notargets/gomoc/geometry"
	"github.com/notargets/gomoc/problem"
)

// Boundary keys of the Regular scheme: 6e + 2*slot + half.
const (
	regularEdgeSlot    = 0
	regularVertexSlot1 = 2
	regularVertexSlot2 = 4
	regularSlots       = 6
)

// Regular is the four sub-cell scheme. Each edge carries the averages of
// its two halves.
type Regular struct {
	*Base
}

var _ Solver = (*Regular)(nil)

// NewRegular builds the sub-cell solver for p.
func NewRegular(p *problem.Problem, opts Options) (*Regular, error) {
	b, err := newBase(p, opts, 4)
	if err != nil {
		return nil, err
	}
	s := &Regular{Base: b}
	b.scheme = s
	return s, nil
}

// SubCellScalarFlux is the scalar flux of one sub-cell.
func (s *Regular) SubCellScalarFlux(cell, g, sub int) float64 {
	return s.subCellScalarFlux(cell, g, sub)
}

func (s *Regular) classify(e, n int) geometry.Regular {
	return geometry.ClassifyRegular(s.tris[e], s.quad.Theta[n])
}

func (s *Regular) applyBoundary() dof.Values {
	bdry := make(dof.Values)
	G := s.prob.NumGroups
	for _, e := range s.mesh.BoundaryElements() {
		for n := 0; n < s.quad.NumAngles(); n++ {
			r := s.classify(e, n)
			slots := []struct{ nb, local, key int }{
				{r.EdgeNeighbor, r.EdgeSlot, regularEdgeSlot},
				{r.VertexNeighbor1, r.VertexSlot1, regularVertexSlot1},
				{r.VertexNeighbor2, r.VertexSlot2, regularVertexSlot2},
			}
			for _, slot := range slots {
				if slot.nb >= 0 {
					continue
				}
				u := r.UnitNormal(slot.local)
				nx, ny := u.X, u.Y
				if !s.incoming(n, nx, ny) {
					continue
				}
				id := s.edgeOf(e, slot.nb)
				for half := 0; half < 2; half++ {
					// a reflected ray keeps its position along the edge,
					// which the writer and reader index from opposite ends
					other := 1 - half
					reflect := func(np, g int) float64 {
						return s.solution[s.edges.Index(id, np, g, other)]
					}
					for g := 0; g < G; g++ {
						key := dof.Key{Spatial: regularSlots*e + slot.key + half, Angular: n, Group: g}
						bdry[key] = s.boundaryValue(n, g, nx, ny, reflect)
					}
				}
			}
		}
	}
	return bdry
}

func (s *Regular) sweep(n int, bdry dof.Values) {
	G := s.prob.NumGroups
	theta, mu := s.quad.Theta[n], s.quad.Mu[n]
	for e := range s.sweeper.Sweep(n) {
		r := s.classify(e, n)
		half, x := r.HalfPath()
		in := subCellInput{
			s: half / math.Sqrt(1-mu*mu),
			x: x,
			w: r.ProjectedHalfWidths(theta),
		}
		mat := s.prob.Material(e)
		edgeID := s.edgeOf(e, r.EdgeNeighbor)
		v1ID := s.edgeOf(e, r.VertexNeighbor1)
		v2ID := s.edgeOf(e, r.VertexNeighbor2)

		read := func(id, nb, key, g int) (a, b float64) {
			if nb >= 0 {
				k := s.edges.Index(id, n, g, 0)
				return s.solution[k], s.solution[k+1]
			}
			base := dof.Key{Spatial: regularSlots*e + key, Angular: n, Group: g}
			a = bdry.Get(base)
			base.Spatial++
			return a, bdry.Get(base)
		}
		write := func(id, g int, a, b float64) {
			k := s.edges.Index(id, n, g, 0)
			s.solution[k], s.solution[k+1] = a, b
		}

		for g := 0; g < G; g++ {
			in.sigma = mat.TotalXS(g + 1)
			for role, sub := range r.Sub {
				in.q[role] = s.source[s.cells.Index(e, n, g, sub)]
			}

			var out subCellOutput
			if r.VertexToEdge() {
				in.psi[0], in.psi[1] = read(v2ID, r.VertexNeighbor2, regularVertexSlot2, g)
				in.psi[4], in.psi[5] = read(v1ID, r.VertexNeighbor1, regularVertexSlot1, g)
				out = solveFromVertex(in, e, n, g)
				write(edgeID, g, out.psi3, out.psi2)
			} else {
				in.psi[0], in.psi[1] = read(edgeID, r.EdgeNeighbor, regularEdgeSlot, g)
				out = solveFromEdge(in, e, n, g)
				write(v1ID, g, out.psi3, out.psi2)
				write(v2ID, g, out.psi5, out.psi4)
			}
			for role, sub := range r.Sub {
				s.cellFlux[s.cells.Index(e, n, g, sub)] = out.cell[role]
			}
		}
	}
}
