package solver

import (
	"github.com/notargets/gomoc/integrator"
	log "github.com/sirupsen/logrus"
)

// subCellInput describes one refined triangle in its block frame. psi[0]
// and psi[1] are the halves of local edge 0, from local vertex 0; psi[4]
// and psi[5] the halves of local edge 2, from local vertex 2.
// q and the cell outputs are indexed by sub-cell role: corner at local
// vertex 0, center, corner at local vertex 2, corner at local vertex 1.
type subCellInput struct {
	psi   [6]float64
	q     [4]float64
	sigma float64
	s     float64 // half chord, attenuation length
	x     float64
	w     [3]float64 // projected half widths of local edges 0, 1, 2
}

// subCellOutput holds the outgoing half-edge values. psi3 and psi2 are
// the halves of local edge 1, psi5 and psi4 of local edge 2, each pair
// ordered from the writer's downstream end.
type subCellOutput struct {
	cell                   [4]float64
	psi2, psi3, psi4, psi5 float64
}

// solveFromVertex solves the four sub-cells of a triangle whose flow
// leaves local vertex 0 toward local edge 1.
func solveFromVertex(in subCellInput, e, n, g int) subCellOutput {
	var out subCellOutput
	p := in.psi
	w1, w2, w3 := in.w[0], in.w[2], in.w[1]
	sig, s, x := in.sigma, in.s, in.x

	// corner at vertex 0
	c0 := integrator.VertexToEdge(w1, w2, w3,
		(p[0]+p[1])/2, (p[4]+p[5])/2, (3*p[5]-p[4])/2, (3*p[0]-p[1])/2,
		in.q[0], sig, s)
	psi01 := c0.Edge
	out.cell[0] = c0.Cell

	// center
	d := (p[0]+p[1])/2 - (p[4]+p[5])/2
	lo, hi := psi01-d/2, psi01+d/2
	c1 := integrator.EdgeToVertex(lo, hi, in.q[1], sig, s, x)
	psi21, psi13, psiv := c1.Out1, c1.Out2, c1.Vertex
	out.cell[1] = c1.Cell

	// corner at vertex 2
	dd := lo - psiv
	c2 := integrator.VertexToEdge(w1, w2, w3,
		psi21-dd/2, (3*p[4]-p[5])/2, (p[4]+p[5])/2, psi21+dd/2,
		in.q[2], sig, s)
	out.psi3 = c2.Edge
	out.cell[2] = c2.Cell

	// corner at vertex 1
	dd = hi - psiv
	c3 := integrator.VertexToEdge(w1, w2, w3,
		(3*p[1]-p[0])/2, psi13-dd/2, psi13+dd/2, (p[0]+p[1])/2,
		in.q[3], sig, s)
	out.psi2 = c3.Edge
	out.cell[3] = c3.Cell

	if !integrator.AnyNegative(psi01, psi21, psi13, out.psi3, out.psi2) {
		return out
	}
	integrator.RecordFallback(log.Fields{"element": e, "ordinate": n, "group": g, "from": "vertex"})

	f0 := integrator.FlatVertexToEdge(w1, w2, w3, p[0], p[5], in.q[0], sig, s)
	psi01 = f0.Edge
	f1 := integrator.EdgeToVertex(psi01, psi01, in.q[1], sig, s, x)
	psi13, psi21 = f1.Out1, f1.Out2
	f2 := integrator.FlatVertexToEdge(w1, w2, w3, psi21, p[4], in.q[2], sig, s)
	f3 := integrator.FlatVertexToEdge(w1, w2, w3, p[1], psi13, in.q[3], sig, s)
	out.cell = [4]float64{f0.Cell, f1.Cell, f2.Cell, f3.Cell}
	out.psi3, out.psi2 = f2.Edge, f3.Edge
	return out
}

// solveFromEdge solves the four sub-cells of a triangle whose flow
// enters through local edge 0 and leaves toward local vertex 2.
func solveFromEdge(in subCellInput, e, n, g int) subCellOutput {
	var out subCellOutput
	p := in.psi
	sig, s, x := in.sigma, in.s, in.x
	mid := (p[0] + p[1]) / 2

	// corners on the entry edge
	c0 := integrator.EdgeToVertex((3*p[0]-p[1])/2, mid, in.q[0], sig, s, x)
	out.psi5, out.cell[0] = c0.Out1, c0.Cell
	psi01, psiv0 := c0.Out2, c0.Vertex

	c3 := integrator.EdgeToVertex(mid, (3*p[1]-p[0])/2, in.q[3], sig, s, x)
	out.psi2, out.cell[3] = c3.Out2, c3.Cell
	psi13, psiv3 := c3.Out1, c3.Vertex

	// center
	dr := mid - psiv3
	dl := mid - psiv0
	c1 := integrator.VertexToEdge(in.w[2], in.w[1], in.w[0],
		psi13-dr/2, psi01-dl/2, psi01+dl/2, psi13+dr/2,
		in.q[1], sig, s)
	psi21 := c1.Edge
	out.cell[1] = c1.Cell

	// corner at vertex 2
	d := psiv3 - psiv0
	c2 := integrator.EdgeToVertex(psi21-d/2, psi21+d/2, in.q[2], sig, s, x)
	out.psi4, out.psi3, out.cell[2] = c2.Out1, c2.Out2, c2.Cell

	if !integrator.AnyNegative(psi01, psi21, psi13, out.psi3, out.psi2, out.psi4, out.psi5) {
		return out
	}
	integrator.RecordFallback(log.Fields{"element": e, "ordinate": n, "group": g, "from": "edge"})

	f0 := integrator.EdgeToVertex(p[0], p[0], in.q[0], sig, s, x)
	f3 := integrator.EdgeToVertex(p[1], p[1], in.q[3], sig, s, x)
	f1 := integrator.FlatVertexToEdge(in.w[2], in.w[1], in.w[0], f3.Out1, f0.Out1, in.q[1], sig, s)
	f2 := integrator.EdgeToVertex(f1.Edge, f1.Edge, in.q[2], sig, s, x)
	out.cell = [4]float64{f0.Cell, f1.Cell, f2.Cell, f3.Cell}
	out.psi5, out.psi2 = f0.Out2, f3.Out1
	out.psi3, out.psi4 = f2.Out1, f2.Out2
	return out
}
