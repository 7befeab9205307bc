package utils

import (
	"fmt"
	"sort"
)

// EdgeKey names a mesh edge by the two elements sharing it, larger id
// first. A boundary edge pairs its element with the negative slot code
// -(v+1).
type EdgeKey struct {
	Hi int
	Lo int
}

// NewEdgeKey orders the pair.
func NewEdgeKey(a, b int) EdgeKey {
	if a < b {
		a, b = b, a
	}
	return EdgeKey{Hi: a, Lo: b}
}

// EdgeConnector builds triangle adjacency and stable edge ids from
// element-to-vertex connectivity.
type EdgeConnector struct {
	K        int // Number of triangles
	NumVerts int

	EToV    [][3]int // Triangle vertices
	EToE    [][3]int // Slot v: triangle across edge (v, v+1 mod 3), or -(v+1)
	EToEdge [][3]int // Slot v: edge id

	Edges   []EdgeKey // Edge id -> key, in key order
	edgeIDs map[EdgeKey]int
}

// NewEdgeConnector derives neighbors and edge ids for EToV.
func NewEdgeConnector(EToV [][3]int, numVerts int) (*EdgeConnector, error) {
	if len(EToV) == 0 || numVerts < 3 {
		return nil, fmt.Errorf("invalid dimensions: K=%d, numVerts=%d", len(EToV), numVerts)
	}
	ec := &EdgeConnector{
		K:        len(EToV),
		NumVerts: numVerts,
		EToV:     EToV,
	}
	if err := ec.buildNeighbors(); err != nil {
		return nil, err
	}
	ec.buildEdgeIDs()
	return ec, nil
}

type vertexPair struct{ a, b int }

func pairOf(a, b int) vertexPair {
	if a > b {
		a, b = b, a
	}
	return vertexPair{a, b}
}

// buildNeighbors matches the vertex pair of every slot with the other
// triangle carrying the same pair
func (ec *EdgeConnector) buildNeighbors() error {
	type owner struct{ elem, slot int }
	owners := make(map[vertexPair][]owner, 3*ec.K/2+3)

	for e, tri := range ec.EToV {
		for v := 0; v < 3; v++ {
			a, b := tri[v], tri[(v+1)%3]
			if a < 0 || a >= ec.NumVerts || b < 0 || b >= ec.NumVerts {
				return fmt.Errorf("element %d references vertex outside [0,%d)", e, ec.NumVerts)
			}
			if a == b {
				return fmt.Errorf("element %d is degenerate: repeated vertex %d", e, a)
			}
			p := pairOf(a, b)
			owners[p] = append(owners[p], owner{e, v})
		}
	}

	ec.EToE = make([][3]int, ec.K)
	for e := range ec.EToE {
		for v := 0; v < 3; v++ {
			ec.EToE[e][v] = -(v + 1)
		}
	}
	for p, list := range owners {
		switch len(list) {
		case 1:
		case 2:
			ec.EToE[list[0].elem][list[0].slot] = list[1].elem
			ec.EToE[list[1].elem][list[1].slot] = list[0].elem
		default:
			return fmt.Errorf("edge (%d,%d) is shared by %d elements", p.a, p.b, len(list))
		}
	}
	return nil
}

func (ec *EdgeConnector) buildEdgeIDs() {
	seen := make(map[EdgeKey]struct{}, 2*ec.K)
	for e := 0; e < ec.K; e++ {
		for v := 0; v < 3; v++ {
			seen[NewEdgeKey(e, ec.EToE[e][v])] = struct{}{}
		}
	}
	ec.Edges = make([]EdgeKey, 0, len(seen))
	for k := range seen {
		ec.Edges = append(ec.Edges, k)
	}
	sort.Slice(ec.Edges, func(i, j int) bool {
		if ec.Edges[i].Hi != ec.Edges[j].Hi {
			return ec.Edges[i].Hi < ec.Edges[j].Hi
		}
		return ec.Edges[i].Lo < ec.Edges[j].Lo
	})
	ec.edgeIDs = make(map[EdgeKey]int, len(ec.Edges))
	for id, k := range ec.Edges {
		ec.edgeIDs[k] = id
	}

	ec.EToEdge = make([][3]int, ec.K)
	for e := 0; e < ec.K; e++ {
		for v := 0; v < 3; v++ {
			ec.EToEdge[e][v] = ec.edgeIDs[NewEdgeKey(e, ec.EToE[e][v])]
		}
	}
}

// EdgeID returns the id of the edge between a and b in either order, or
// -1 when they do not share one.
func (ec *EdgeConnector) EdgeID(a, b int) int {
	if id, ok := ec.edgeIDs[NewEdgeKey(a, b)]; ok {
		return id
	}
	return -1
}

// NumEdges is the number of distinct edges, boundary edges included.
func (ec *EdgeConnector) NumEdges() int { return len(ec.Edges) }

// Verify checks that adjacency is symmetric and edge ids are consistent.
func (ec *EdgeConnector) Verify() error {
	for e := 0; e < ec.K; e++ {
		for v := 0; v < 3; v++ {
			nbr := ec.EToE[e][v]
			if nbr < 0 {
				if nbr != -(v + 1) {
					return fmt.Errorf("element %d slot %d: boundary code %d, want %d", e, v, nbr, -(v + 1))
				}
				continue
			}
			if nbr >= ec.K {
				return fmt.Errorf("element %d slot %d: neighbor %d out of range", e, v, nbr)
			}
			back := 0
			for w := 0; w < 3; w++ {
				if ec.EToE[nbr][w] == e {
					back++
				}
			}
			if back != 1 {
				return fmt.Errorf("elements %d and %d: %d reciprocal slots, want 1", e, nbr, back)
			}
			if ec.EdgeID(e, nbr) != ec.EdgeID(nbr, e) {
				return fmt.Errorf("edge (%d,%d) id is order dependent", e, nbr)
			}
		}
	}

	// Every interior edge is counted twice, every boundary edge once
	slots := 3 * ec.K
	interior := 0
	for _, k := range ec.Edges {
		if k.Lo >= 0 {
			interior++
		}
	}
	if len(ec.Edges)+interior != slots {
		return fmt.Errorf("conservation error: %d edges + %d interior != %d slots",
			len(ec.Edges), interior, slots)
	}
	return nil
}
