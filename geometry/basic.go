package geometry

import "math"

// apexRotation maps a sector to the frame rotation that puts its apex at
// local vertex 0.
var apexRotation = [3]int{0, 2, 1}

// Basic describes one direction crossing one triangle treated as a single
// cell. The characteristic through the apex splits the triangle in two;
// it meets the opposite edge at a point P.
type Basic struct {
	Frame

	// Sector is 1, 2 or 3 for apex vertex 0, 2 or 1 respectively.
	Sector int
	// VertexToEdge is true when the flow leaves the apex toward the far
	// edge; otherwise it enters through the far edge and exits at the apex.
	VertexToEdge bool

	// EdgeSlot is the local edge opposite the apex. VertexSlot1 arrives at
	// the apex and VertexSlot2 leaves it, counter-clockwise.
	EdgeSlot, VertexSlot1, VertexSlot2 int
	// Neighbor codes across the three slots.
	EdgeNeighbor, VertexNeighbor1, VertexNeighbor2 int

	// Psi is the direction angle at the apex measured from VertexSlot2.
	Psi float64
	// PathLength is the in-plane length of the apex chord.
	PathLength float64
	// SurfacePosition is the fraction of the far edge, measured from the
	// writer's downstream end, on the VertexSlot1 side of P.
	SurfacePosition float64

	// Projected widths of the three edges normal to the direction.
	Width1, Width2, WidthEdge float64
}

// ClassifyBasic classifies direction theta (absolute, radians) for t.
func ClassifyBasic(t Triangle, theta float64) Basic {
	f := NewFrame(t)
	rel := f.Relative(theta)
	s, psi, upper := f.sector(rel)
	r := apexRotation[s]
	loc := f.Rotated(r)

	b := Basic{
		Frame:        f,
		Sector:       s + 1,
		VertexToEdge: upper == (s == 1),
		EdgeSlot:     (1 + r) % 3,
		VertexSlot1:  (2 + r) % 3,
		VertexSlot2:  r,
		Psi:          psi,
	}
	b.EdgeNeighbor = f.N[b.EdgeSlot]
	b.VertexNeighbor1 = f.N[b.VertexSlot1]
	b.VertexNeighbor2 = f.N[b.VertexSlot2]

	alphaA, alphaB, alphaC := loc.Theta[0], loc.Theta[1], loc.Theta[2]
	dAB, dBC, dCA := loc.D[0], loc.D[1], loc.D[2]

	b.PathLength = dAB * math.Sin(alphaB) / math.Sin(psi+alphaB)
	toC := b.PathLength * math.Sin(alphaA-psi) / math.Sin(alphaC)
	toB := b.PathLength * math.Sin(psi) / math.Sin(alphaB)
	if b.VertexToEdge {
		b.SurfacePosition = toC / dBC
	} else {
		b.SurfacePosition = toB / dBC
	}
	b.SurfacePosition = clamp01(b.SurfacePosition)

	b.Width1 = dCA * math.Sin(alphaA-psi)
	b.Width2 = dAB * math.Sin(psi)
	b.WidthEdge = dBC * math.Sin(psi+alphaB)
	return b
}

// AttenuationLength converts the in-plane chord to a path length for a
// direction with polar cosine mu.
func AttenuationLength(pathLength, mu float64) float64 {
	return pathLength / math.Sqrt(1-mu*mu)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
