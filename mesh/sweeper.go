package mesh

import (
	"fmt"
	"iter"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// parallelTolerance matches the orientation classifier: a direction this
// close to parallel with an edge is rotated by the same amount before the
// upwind test.
const parallelTolerance = 1.0e-8

// Directions is the part of an ordinate set the sweeper needs.
type Directions interface {
	NumAngles() int
	InPlane(n int) (ox, oy float64)
}

// NumSweepDirections is the number of directions with a sweep order.
func (m *TriMesh) NumSweepDirections() int { return len(m.orders) }

// SweepOrder returns the element visiting order for direction n. Every
// element appears after all of its upwind neighbors.
func (m *TriMesh) SweepOrder(n int) []int { return m.orders[n] }

// Sweep yields the elements of direction n in sweep order.
func (m *TriMesh) Sweep(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, e := range m.orders[n] {
			if !yield(e) {
				return
			}
		}
	}
}

// SetSweepOrders installs externally computed orders, one permutation of
// the elements per direction.
func (m *TriMesh) SetSweepOrders(orders [][]int) error {
	K := m.NumElements()
	for n, order := range orders {
		if len(order) != K {
			return fmt.Errorf("sweep order %d has %d elements, want %d", n, len(order), K)
		}
		seen := make([]bool, K)
		for _, e := range order {
			if e < 0 || e >= K || seen[e] {
				return fmt.Errorf("sweep order %d is not a permutation (element %d)", n, e)
			}
			seen[e] = true
		}
	}
	m.orders = orders
	return nil
}

// NaturalSweepOrders visits elements in index order for every direction.
// Only valid for meshes whose numbering is already upwind-consistent.
func (m *TriMesh) NaturalSweepOrders(numAngles int) {
	m.orders = make([][]int, numAngles)
	for n := range m.orders {
		m.orders[n] = make([]int, m.NumElements())
		for e := range m.orders[n] {
			m.orders[n][e] = e
		}
	}
}

// BuildSweepOrders computes a dependency order for every direction from
// the upwind graph of the mesh.
func (m *TriMesh) BuildSweepOrders(dirs Directions) error {
	orders := make([][]int, dirs.NumAngles())
	for n := range orders {
		ox, oy := dirs.InPlane(n)
		order, err := m.sweepOrderFor(ox, oy)
		if err != nil {
			return fmt.Errorf("direction %d: %w", n, err)
		}
		orders[n] = order
	}
	m.orders = orders
	log.WithField("directions", len(orders)).Debug("sweep orders built")
	return nil
}

// UpwindGraph connects a to b when flux along (ox, oy) leaves a through
// the edge it shares with b.
func (m *TriMesh) UpwindGraph(ox, oy float64) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for e := 0; e < m.NumElements(); e++ {
		g.AddNode(simple.Node(e))
	}
	theta := math.Atan2(oy, ox)
	for e := 0; e < m.NumElements(); e++ {
		x, y := m.Coordinates(e)
		ccw := (x[1]-x[0])*(y[2]-y[0])-(x[2]-x[0])*(y[1]-y[0]) > 0
		for v, nbr := range m.Neighbors(e) {
			if nbr <= e {
				continue
			}
			dx, dy := x[(v+1)%3]-x[v], y[(v+1)%3]-y[v]
			nx, ny := dy, -dx
			if !ccw {
				nx, ny = -nx, -ny
			}
			l := math.Hypot(dx, dy)
			dot := (math.Cos(theta)*nx + math.Sin(theta)*ny) / l
			if math.Abs(dot) < parallelTolerance {
				dot = math.Cos(theta+parallelTolerance)*nx + math.Sin(theta+parallelTolerance)*ny
			}
			if dot > 0 {
				g.SetEdge(g.NewEdge(simple.Node(e), simple.Node(nbr)))
			} else {
				g.SetEdge(g.NewEdge(simple.Node(nbr), simple.Node(e)))
			}
		}
	}
	return g
}

func (m *TriMesh) sweepOrderFor(ox, oy float64) ([]int, error) {
	sorted, err := topo.SortStabilized(m.UpwindGraph(ox, oy), func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, fmt.Errorf("upwind graph is cyclic: %w", err)
	}
	order := make([]int, len(sorted))
	for i, nd := range sorted {
		order[i] = int(nd.ID())
	}
	return order, nil
}

func sortedKeys(m map[int]int) iter.Seq[int] {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return func(yield func(int) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}
