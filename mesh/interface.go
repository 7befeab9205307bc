package mesh

import "iter"

// Mesh is what a transport solver reads from a triangle mesh.
type Mesh interface {
	NumElements() int
	NumEdges() int
	Coordinates(e int) (x, y [3]float64)
	Neighbors(e int) [3]int
	EdgeID(a, b int) int
	BoundaryElements() []int
	Volume(e int) float64
	Block(e int) int
	Centroid(e int) (cx, cy float64)
}

// Sweeper enumerates elements per direction in upwind dependency order.
type Sweeper interface {
	NumSweepDirections() int
	Sweep(n int) iter.Seq[int]
}

var (
	_ Mesh    = (*TriMesh)(nil)
	_ Sweeper = (*TriMesh)(nil)
)
