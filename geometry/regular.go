package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Regular describes one direction crossing a triangle refined into four
// sub-cells by its edge midpoints. Sub-cell 0 is the corner at vertex 0,
// 1 is the center, 2 the corner at vertex 2 and 3 the corner at vertex 1.
//
// Blocks 1, 3 and 5 run vertex to edge from local vertex 0 of Local;
// blocks 2, 4 and 6 run edge to vertex across local edge 0 of Local.
type Regular struct {
	Frame

	Block int
	// Local is Frame rotated so the block's entry feature sits at vertex 0
	// or edge 0.
	Local Frame
	// Phi is the direction angle measured from Local edge 0.
	Phi float64
	// Sub maps the block's local sub-cell roles to sub-cell indices.
	Sub [4]int

	EdgeSlot, VertexSlot1, VertexSlot2             int
	EdgeNeighbor, VertexNeighbor1, VertexNeighbor2 int
}

// VertexToEdge reports whether the block is solved from a vertex.
func (r Regular) VertexToEdge() bool { return r.Block%2 == 1 }

var (
	blockRotation = [7]int{0, 0, 0, 1, 1, 2, 2}
	blockSub      = [7][4]int{
		{},
		{0, 1, 2, 3},
		{0, 1, 2, 3},
		{3, 1, 0, 2},
		{3, 1, 0, 2},
		{2, 1, 3, 0},
		{2, 1, 3, 0},
	}
)

// ClassifyRegular classifies direction theta (absolute, radians) for t.
func ClassifyRegular(t Triangle, theta float64) Regular {
	f := NewFrame(t)
	rel := f.Relative(theta)
	s, _, upper := f.sector(rel)

	reg := Regular{Frame: f}
	phi := rel
	switch s {
	case 0:
		reg.Block = 1
		if upper {
			reg.Block = 4
			phi -= f.Theta[0] + f.Theta[2]
		}
	case 1:
		reg.Block = 2
		if upper {
			reg.Block = 5
			phi -= math.Pi + f.Theta[0]
		}
	default:
		reg.Block = 3
		phi -= f.Theta[0] + f.Theta[2]
		if upper {
			reg.Block = 6
			phi = rel - (math.Pi + f.Theta[0])
		}
	}
	reg.Phi = phi
	reg.Local = f.Rotated(blockRotation[reg.Block])
	reg.Sub = blockSub[reg.Block]

	r := apexRotation[s]
	reg.EdgeSlot = (1 + r) % 3
	reg.VertexSlot1 = (2 + r) % 3
	reg.VertexSlot2 = r
	reg.EdgeNeighbor = f.N[reg.EdgeSlot]
	reg.VertexNeighbor1 = f.N[reg.VertexSlot1]
	reg.VertexNeighbor2 = f.N[reg.VertexSlot2]
	return reg
}

// HalfPath is the in-plane chord through the entry half of the local
// frame, and Crossing the fraction along the far local edge where the
// apex chord meets it.
func (r Regular) HalfPath() (half, crossing float64) {
	l := r.Local
	if r.VertexToEdge() {
		half = l.D[0] * math.Sin(l.Theta[1]) / (2 * math.Sin(math.Pi-l.Theta[1]-r.Phi))
		crossing = half * math.Sin(r.Phi) / math.Sin(l.Theta[1]) / (l.D[1] / 2)
		return
	}
	half = l.D[2] * math.Sin(l.Theta[0]) / (2 * math.Sin(math.Pi-r.Phi))
	crossing = half * math.Sin(r.Phi-l.Theta[0]) / math.Sin(l.Theta[0]) / (l.D[0] / 2)
	return
}

// ProjectedHalfWidths returns half the width of each Local edge seen
// normal to the absolute direction theta.
func (r Regular) ProjectedHalfWidths(theta float64) [3]float64 {
	dir := r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
	var w [3]float64
	for k, e := range r.Local.Edge {
		w[k] = math.Abs(r2.Cross(e, dir)) / 2
	}
	return w
}
