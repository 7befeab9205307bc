// Package mesh provides the unstructured triangular mesh the sweep solver
// runs on: geometry, adjacency, edge identities, material blocks and
// per-direction sweep orders.
package mesh

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gomoc/utils"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// TriMesh is a 2-D triangle mesh. Neighbor slot v of an element is the
// element across edge (v, v+1 mod 3), or -(v+1) on the domain boundary.
type TriMesh struct {
	VX, VY []float64
	Blocks []int

	conn     *utils.EdgeConnector
	volumes  []float64
	boundary []int

	orders [][]int // per-direction sweep order, nil until set
}

// NewTriMesh builds adjacency and edge ids. blocks may be nil, in which
// case every element is block 1.
func NewTriMesh(vx, vy []float64, EToV [][3]int, blocks []int) (*TriMesh, error) {
	if len(vx) != len(vy) {
		return nil, fmt.Errorf("mesh: %d x and %d y coordinates", len(vx), len(vy))
	}
	conn, err := utils.NewEdgeConnector(EToV, len(vx))
	if err != nil {
		return nil, fmt.Errorf("mesh connectivity: %w", err)
	}
	if err := conn.Verify(); err != nil {
		return nil, fmt.Errorf("mesh connectivity: %w", err)
	}
	if blocks == nil {
		blocks = make([]int, len(EToV))
		for i := range blocks {
			blocks[i] = 1
		}
	}
	if len(blocks) != len(EToV) {
		return nil, fmt.Errorf("mesh: %d block ids for %d elements", len(blocks), len(EToV))
	}

	m := &TriMesh{VX: vx, VY: vy, Blocks: blocks, conn: conn}
	m.volumes = make([]float64, conn.K)
	for e := 0; e < conn.K; e++ {
		x, y := m.Coordinates(e)
		m.volumes[e] = 0.5 * math.Abs(x[0]*(y[1]-y[2])+x[1]*(y[2]-y[0])+x[2]*(y[0]-y[1]))
		if m.volumes[e] == 0 {
			return nil, fmt.Errorf("mesh: element %d has zero area", e)
		}
		for _, nbr := range conn.EToE[e] {
			if nbr < 0 {
				m.boundary = append(m.boundary, e)
				break
			}
		}
	}
	log.WithFields(log.Fields{
		"elements": conn.K,
		"vertices": len(vx),
		"edges":    conn.NumEdges(),
		"boundary": len(m.boundary),
	}).Debug("mesh built")
	return m, nil
}

// NumElements is the triangle count.
func (m *TriMesh) NumElements() int { return m.conn.K }

// NumVertices is the vertex count.
func (m *TriMesh) NumVertices() int { return len(m.VX) }

// NumEdges counts interior and boundary edges.
func (m *TriMesh) NumEdges() int { return m.conn.NumEdges() }

// Connectivity returns the vertex ids of e.
func (m *TriMesh) Connectivity(e int) [3]int { return m.conn.EToV[e] }

// Coordinates returns the vertex coordinates of e in connectivity order.
func (m *TriMesh) Coordinates(e int) (x, y [3]float64) {
	for i, v := range m.conn.EToV[e] {
		x[i], y[i] = m.VX[v], m.VY[v]
	}
	return
}

// Neighbors returns the three neighbor slots of e.
func (m *TriMesh) Neighbors(e int) [3]int { return m.conn.EToE[e] }

// EdgeID returns the id of the edge shared by a and b (either order; b may
// be a boundary code), or -1.
func (m *TriMesh) EdgeID(a, b int) int { return m.conn.EdgeID(a, b) }

// BoundaryElements lists elements with at least one boundary slot.
func (m *TriMesh) BoundaryElements() []int { return m.boundary }

// Volume is the triangle area.
func (m *TriMesh) Volume(e int) float64 { return m.volumes[e] }

// Block is the material block id of e.
func (m *TriMesh) Block(e int) int { return m.Blocks[e] }

// Centroid is the vertex average of e.
func (m *TriMesh) Centroid(e int) (cx, cy float64) {
	x, y := m.Coordinates(e)
	return (x[0] + x[1] + x[2]) / 3, (y[0] + y[1] + y[2]) / 3
}

// String summarizes the mesh.
func (m *TriMesh) String() string {
	var sb strings.Builder
	sb.WriteString("=== TriMesh Summary ===\n")
	sb.WriteString(fmt.Sprintf("  Elements: %d, Vertices: %d, Edges: %d\n",
		m.NumElements(), m.NumVertices(), m.NumEdges()))
	sb.WriteString(fmt.Sprintf("  Boundary elements: %d\n", len(m.boundary)))

	sb.WriteString("\n--- Geometry ---\n")
	if len(m.VX) > 0 {
		sb.WriteString(fmt.Sprintf("  X range: [%.4f, %.4f]\n", floats.Min(m.VX), floats.Max(m.VX)))
		sb.WriteString(fmt.Sprintf("  Y range: [%.4f, %.4f]\n", floats.Min(m.VY), floats.Max(m.VY)))
	}
	sb.WriteString(fmt.Sprintf("  Total area: %.6g\n", floats.Sum(m.volumes)))
	sb.WriteString(fmt.Sprintf("  Element area range: [%.4g, %.4g]\n",
		floats.Min(m.volumes), floats.Max(m.volumes)))

	counts := make(map[int]int)
	for _, b := range m.Blocks {
		counts[b]++
	}
	sb.WriteString("\n--- Blocks ---\n")
	for b := range sortedKeys(counts) {
		sb.WriteString(fmt.Sprintf("  Block %d: %d elements\n", b, counts[b]))
	}

	sb.WriteString("\n--- Sweep ---\n")
	if m.orders == nil {
		sb.WriteString("  No sweep orders\n")
	} else {
		sb.WriteString(fmt.Sprintf("  Sweep orders for %d directions\n", len(m.orders)))
	}
	return sb.String()
}
