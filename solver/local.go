package solver

import (
	"github.com/notargets/gomoc/dof"
	"github.com/notargets/gomoc/geometry"
	"github.com/notargets/gomoc/integrator"
	"github.com/notargets/gomoc/problem"
)

// Boundary keys of the Local scheme: 3e + slot.
const (
	localEdgeSlot = iota
	localVertexSlot1
	localVertexSlot2
	localSlots
)

// Local is the single-cell scheme. Each edge carries two values per
// ordinate and group, split at a stored surface position.
type Local struct {
	*Base

	// surface position per edge and ordinate
	position []float64
}

var _ Solver = (*Local)(nil)

// NewLocal builds the single-cell solver for p.
func NewLocal(p *problem.Problem, opts Options) (*Local, error) {
	b, err := newBase(p, opts, 1)
	if err != nil {
		return nil, err
	}
	s := &Local{Base: b}
	s.position = make([]float64, b.edges.NumSpatial*b.edges.NumAngles)
	for i := range s.position {
		s.position[i] = 0.5
	}
	b.scheme = s
	return s, nil
}

func (s *Local) classify(e, n int) geometry.Basic {
	return geometry.ClassifyBasic(s.tris[e], s.quad.Theta[n])
}

// edgeMean is the surface-position weighted mean of the two values of
// edge id at ordinate n.
func (s *Local) edgeMean(id, n, g int) float64 {
	sp := s.position[id*s.edges.NumAngles+n]
	k := s.edges.Index(id, n, g, 0)
	return sp*s.solution[k] + (1-sp)*s.solution[k+1]
}

func (s *Local) applyBoundary() dof.Values {
	bdry := make(dof.Values)
	G := s.prob.NumGroups
	for _, e := range s.mesh.BoundaryElements() {
		for n := 0; n < s.quad.NumAngles(); n++ {
			c := s.classify(e, n)
			slots := [localSlots]struct {
				nb, local int
				active    bool
			}{
				{c.EdgeNeighbor, c.EdgeSlot, !c.VertexToEdge},
				{c.VertexNeighbor1, c.VertexSlot1, true},
				{c.VertexNeighbor2, c.VertexSlot2, true},
			}
			for k, slot := range slots {
				if slot.nb >= 0 || !slot.active {
					continue
				}
				u := c.UnitNormal(slot.local)
				nx, ny := u.X, u.Y
				if !s.incoming(n, nx, ny) {
					continue
				}
				id := s.edgeOf(e, slot.nb)
				reflect := func(np, g int) float64 { return s.edgeMean(id, np, g) }
				for g := 0; g < G; g++ {
					key := dof.Key{Spatial: localSlots*e + k, Angular: n, Group: g}
					bdry[key] = s.boundaryValue(n, g, nx, ny, reflect)
				}
			}
		}
	}
	return bdry
}

func (s *Local) sweep(n int, bdry dof.Values) {
	G := s.prob.NumGroups
	Q := s.edges.NumAngles
	mu := s.quad.Mu[n]
	for e := range s.sweeper.Sweep(n) {
		c := s.classify(e, n)
		att := geometry.AttenuationLength(c.PathLength, mu)
		mat := s.prob.Material(e)
		edgeID := s.edgeOf(e, c.EdgeNeighbor)
		v1ID := s.edgeOf(e, c.VertexNeighbor1)
		v2ID := s.edgeOf(e, c.VertexNeighbor2)
		bkey := func(slot, g int) dof.Key {
			return dof.Key{Spatial: localSlots*e + slot, Angular: n, Group: g}
		}

		for g := 0; g < G; g++ {
			k := integrator.NewKernel(mat.TotalXS(g+1), att)
			qS := s.source[s.cells.Index(e, n, g, 0)] * att
			cell := s.cells.Index(e, n, g, 0)

			if !c.VertexToEdge {
				var l, r float64
				if c.EdgeNeighbor >= 0 {
					l, r = s.splitEdge(edgeID, n, g, c.SurfacePosition)
				} else {
					l = bdry.Get(bkey(localEdgeSlot, g))
					r = l
				}
				s.setEdge(v1ID, n, g, k.EdgeAverage(r, qS), 0.5)
				s.setEdge(v2ID, n, g, k.EdgeAverage(l, qS), 0.5)
				in := c.SurfacePosition*l + (1-c.SurfacePosition)*r
				s.cellFlux[cell] = k.CellAverage(in, qS)
				continue
			}

			var psi1, psi2 float64
			if c.VertexNeighbor1 >= 0 {
				psi1 = s.edgeMean(v1ID, n, g)
			} else {
				psi1 = bdry.Get(bkey(localVertexSlot1, g))
			}
			if c.VertexNeighbor2 >= 0 {
				psi2 = s.edgeMean(v2ID, n, g)
			} else {
				psi2 = bdry.Get(bkey(localVertexSlot2, g))
			}
			out := s.edges.Index(edgeID, n, g, 0)
			s.solution[out] = k.EdgeAverage(psi1, qS)
			s.solution[out+1] = k.EdgeAverage(psi2, qS)
			s.position[edgeID*Q+n] = c.SurfacePosition
			in := (c.Width1*psi1 + c.Width2*psi2) / c.WidthEdge
			s.cellFlux[cell] = k.CellAverage(in, qS)
		}
	}
}

// splitEdge averages the stored two-piece profile of edge id over the
// pieces [0, at] and [at, 1] measured from the reader's upstream end.
func (s *Local) splitEdge(id, n, g int, at float64) (l, r float64) {
	sp := s.position[id*s.edges.NumAngles+n]
	k := s.edges.Index(id, n, g, 0)
	l, r = s.solution[k], s.solution[k+1]
	switch {
	case at <= sp:
		if 1-at > positionTolerance {
			r = ((sp-at)*l + (1-sp)*r) / (1 - at)
		}
	default:
		l = (sp*l + (at-sp)*r) / at
	}
	return l, r
}

const positionTolerance = 1.0e-14

func (s *Local) setEdge(id, n, g int, v, sp float64) {
	k := s.edges.Index(id, n, g, 0)
	s.solution[k] = v
	s.solution[k+1] = v
	s.position[id*s.edges.NumAngles+n] = sp
}
