// Package geometry classifies how a straight characteristic crosses a
// triangle: which vertex or edge it enters through, which it leaves
// through, its chord length and where it crosses the far edge.
package geometry

import (
	"math"

	"github.com/notargets/gomoc/quadrature"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// ParallelTolerance flags a direction as parallel to an edge.
	ParallelTolerance = 1.0e-8
	// ParallelShift is the rotation applied to a parallel direction.
	ParallelShift = 1.0e-8

	wrapTolerance = 1.0e-9
	phiTolerance  = 1.0e-10
)

// Triangle is the input to the classifiers: vertex coordinates and the
// neighbor in each edge slot (slot v is edge (v, v+1 mod 3); negative
// values are boundary codes).
type Triangle struct {
	X, Y      [3]float64
	Neighbors [3]int
}

// Frame is a triangle relabeled counter-clockwise. Local vertex k is
// connectivity vertex V[k]. Edge k runs from local vertex k to k+1, with
// neighbor N[k], length D[k] and vector Edge[k]. Theta[k] is the interior
// angle at local vertex k.
type Frame struct {
	V     [3]int
	N     [3]int
	D     [3]float64
	Edge  [3]r2.Vec
	Theta [3]float64
	X, Y  [3]float64 // coordinates in local order

	// Phi1 is the absolute angle of edge 0.
	Phi1 float64
}

// NewFrame sorts the vertices counter-clockwise and derives edge lengths
// and interior angles.
func NewFrame(t Triangle) Frame {
	v0, v1, v2 := 0, 1, 2
	n0, n1, n2 := t.Neighbors[0], t.Neighbors[1], t.Neighbors[2]

	e1 := r2.Sub(t.vertex(v1), t.vertex(v0))
	e2 := r2.Sub(t.vertex(v2), t.vertex(v0))
	phi1 := quadrature.AngleFromVector(e1.X, e1.Y)
	phi2 := quadrature.AngleFromVector(e2.X, e2.Y)
	if phi1 < phiTolerance && phi2 > math.Pi {
		phi1 = 2 * math.Pi
	}
	if phi2 < phiTolerance && phi1 > math.Pi {
		phi2 = 2 * math.Pi
	}

	if r2.Cross(e1, e2) < 0 {
		v1, v2 = v2, v1
		n0, n2 = n2, n0
		phi1, phi2 = phi2, phi1
	}

	f := Frame{
		V:    [3]int{v0, v1, v2},
		N:    [3]int{n0, n1, n2},
		Phi1: phi1,
	}
	for k, v := range f.V {
		f.X[k], f.Y[k] = t.X[v], t.Y[v]
	}
	for k := 0; k < 3; k++ {
		kp := (k + 1) % 3
		f.Edge[k] = r2.Sub(f.vertex(kp), f.vertex(k))
		f.D[k] = r2.Norm(f.Edge[k])
	}
	for k := 0; k < 3; k++ {
		// angle between the outgoing edge k and the reversed incoming edge k-1
		c := -r2.Dot(f.Edge[(k+2)%3], f.Edge[k]) / (f.D[(k+2)%3] * f.D[k])
		f.Theta[k] = math.Acos(math.Max(-1, math.Min(1, c)))
	}
	return f
}

// Relative returns the direction angle measured from edge 0 in [0, 2pi),
// rotated by ParallelShift when the direction is parallel to any edge.
func (f Frame) Relative(theta float64) float64 {
	rel := theta - f.Phi1
	if rel < 0 {
		rel += 2 * math.Pi
	}
	if math.Abs(rel-2*math.Pi) < wrapTolerance {
		rel = 0
	}
	if f.Parallel(theta) {
		rel += ParallelShift
	}
	return rel
}

// Parallel reports whether the absolute direction theta is parallel to an
// edge within ParallelTolerance.
func (f Frame) Parallel(theta float64) bool {
	dir := r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
	for _, e := range f.Edge {
		if math.Abs(r2.Cross(dir, e)) < ParallelTolerance {
			return true
		}
	}
	return false
}

// Normal is the outward normal of local edge k, scaled by its length.
func (f Frame) Normal(k int) r2.Vec {
	return r2.Vec{X: f.Edge[k].Y, Y: -f.Edge[k].X}
}

// UnitNormal is the outward unit normal of local edge k.
func (f Frame) UnitNormal(k int) r2.Vec {
	return r2.Scale(1/f.D[k], f.Normal(k))
}

func (f Frame) vertex(k int) r2.Vec { return r2.Vec{X: f.X[k], Y: f.Y[k]} }

func (t Triangle) vertex(k int) r2.Vec { return r2.Vec{X: t.X[k], Y: t.Y[k]} }

// Rotated relabels the frame so local vertex r becomes vertex 0.
func (f Frame) Rotated(r int) Frame {
	var g Frame
	for k := 0; k < 3; k++ {
		j := (k + r) % 3
		g.V[k], g.N[k] = f.V[j], f.N[j]
		g.D[k], g.Edge[k], g.Theta[k] = f.D[j], f.Edge[j], f.Theta[j]
		g.X[k], g.Y[k] = f.X[j], f.Y[j]
	}
	g.Phi1 = quadrature.AngleFromVector(g.Edge[0].X, g.Edge[0].Y)
	return g
}

// sector locates a relative angle: 0 for the wedge at vertex 0 (and its
// opposite), 1 for the wedge at vertex 2, 2 for the wedge at vertex 1.
// psi is the angle inside the wedge measured from the first edge leaving
// its apex counter-clockwise, and upper reports rel >= pi.
func (f Frame) sector(rel float64) (s int, psi float64, upper bool) {
	t := math.Mod(rel, math.Pi)
	upper = rel >= math.Pi
	switch {
	case t <= f.Theta[0]:
		return 0, t, upper
	case t <= math.Pi-f.Theta[1]:
		return 1, t - f.Theta[0], upper
	default:
		return 2, t - (math.Pi - f.Theta[1]), upper
	}
}
