package integrator

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// EdgeToVertexResult is the outflow of a sub-triangle entered through one
// full edge and left through the two edges meeting at the opposite vertex.
type EdgeToVertexResult struct {
	// Out1 is the average over the exit edge adjacent to the psi1 end of
	// the entry edge, Out2 over the edge adjacent to the psi2 end.
	Out1, Out2 float64
	Cell       float64
	// Vertex is the point value reaching the exit vertex.
	Vertex float64
}

// EdgeToVertex integrates a linear inflow running from psi1 to psi2 across
// the entry edge. s is the chord from the entry edge to the vertex and x
// the fractional position on the entry edge where that chord starts.
func EdgeToVertex(psi1, psi2, q, sigma, s, x float64) EdgeToVertexResult {
	k := NewKernel(sigma, s)
	qS := q * s
	d := psi2 - psi1
	mean := 0.5 * (psi1 + psi2)
	return EdgeToVertexResult{
		Out1:   psi1*k.F1 + qS*k.F2 + d*k.K,
		Out2:   psi2*k.F1 + qS*k.F2 - d*k.K,
		Cell:   2*mean*k.F2 + qS*k.F3,
		Vertex: (d*(x-0.5)+mean)*k.Exp + qS*k.F1,
	}
}

// VertexToEdgeResult is the outflow of a sub-triangle entered through the
// two edges meeting at a vertex and left through the opposite edge.
type VertexToEdgeResult struct {
	Edge float64
	Cell float64
}

// VertexToEdge integrates inflows psi1 and psi2 on the two entry edges,
// weighted by their projected widths w1 and w2 against the exit width w3.
// psi0r and psi0l are the entry-edge values extrapolated to the shared
// vertex; they carry the linear part of the profile.
func VertexToEdge(w1, w2, w3, psi1, psi2, psi0l, psi0r, q, sigma, s float64) VertexToEdgeResult {
	k := NewKernel(sigma, s)
	qS := q * s
	virtual := (w1*psi1 + w2*psi2) / w3
	slope := w2/w3*(psi0l-psi2) + w1/w3*(psi0r-psi1)
	return VertexToEdgeResult{
		Edge: virtual*k.F1 + qS*k.F2 + slope*k.K,
		Cell: 2*virtual*k.F2 + qS*k.F3 + slope*k.F4,
	}
}

// FlatVertexToEdge is VertexToEdge with no linear correction.
func FlatVertexToEdge(w1, w2, w3, psi1, psi2, q, sigma, s float64) VertexToEdgeResult {
	return VertexToEdge(w1, w2, w3, psi1, psi2, psi2, psi1, q, sigma, s)
}

var fallbacks atomic.Int64

// RecordFallback counts a switch to the zero-order solution for one cell.
func RecordFallback(fields log.Fields) {
	n := fallbacks.Add(1)
	log.WithFields(fields).WithField("total", n).Debug("negative linear flux, using flat solution")
}

// FallbackCount is the number of zero-order fallbacks since the last reset.
func FallbackCount() int64 { return fallbacks.Load() }

// ResetFallbackCount zeroes the fallback counter.
func ResetFallbackCount() { fallbacks.Store(0) }

// AnyNegative reports whether any value is below zero.
func AnyNegative(values ...float64) bool {
	for _, v := range values {
		if v < 0 {
			return true
		}
	}
	return false
}
