// Package problem bundles everything that defines a transport
// calculation: mesh, ordinates, materials, boundary treatment and the
// external source.
package problem

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gomoc/material"
	"github.com/notargets/gomoc/mesh"
	"github.com/notargets/gomoc/quadrature"
)

// NormalTolerance is the match tolerance between an edge normal and a
// prescribed boundary source entry.
const NormalTolerance = 1.0e-8

// BoundaryPolicy decides the incoming flux on the domain boundary.
type BoundaryPolicy int

const (
	Vacuum BoundaryPolicy = iota
	Reflecting
	Source
)

func (b BoundaryPolicy) String() string {
	switch b {
	case Reflecting:
		return "reflecting"
	case Source:
		return "source"
	}
	return "vacuum"
}

// ParseBoundaryPolicy reads a policy name.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vacuum":
		return Vacuum, nil
	case "reflecting", "reflect":
		return Reflecting, nil
	case "source":
		return Source, nil
	}
	return Vacuum, fmt.Errorf("unknown boundary policy %q", s)
}

// BoundarySource prescribes the incoming flux on every boundary edge whose
// outward unit normal is (Nx, Ny). A negative Value reflects instead.
type BoundarySource struct {
	Nx, Ny, Value float64
}

// Problem is one transport calculation.
type Problem struct {
	Mesh       mesh.Mesh
	Quadrature *quadrature.Set
	Materials  *material.Registry
	NumGroups  int

	Boundary        BoundaryPolicy
	BoundarySources []BoundarySource

	// ExternalSource is nil when the problem has no fixed source.
	ExternalSource ExternalSource

	materials []*material.Material // per element
}

// New validates the pieces and resolves each element's material.
func New(m mesh.Mesh, q *quadrature.Set, reg *material.Registry) (*Problem, error) {
	if m == nil || q == nil || reg == nil {
		return nil, fmt.Errorf("problem: mesh, quadrature and materials are required")
	}
	p := &Problem{Mesh: m, Quadrature: q, Materials: reg}
	p.materials = make([]*material.Material, m.NumElements())
	for e := range p.materials {
		mat, ok := reg.ByBlock(m.Block(e))
		if !ok {
			return nil, fmt.Errorf("problem: no material for block %d (element %d)", m.Block(e), e)
		}
		if p.NumGroups == 0 {
			p.NumGroups = mat.NumGroups
		}
		if mat.NumGroups != p.NumGroups {
			return nil, fmt.Errorf("problem: material %q has %d groups, want %d",
				mat.Name, mat.NumGroups, p.NumGroups)
		}
		p.materials[e] = mat
	}
	return p, nil
}

// Material returns the material of element e.
func (p *Problem) Material(e int) *material.Material { return p.materials[e] }

// BoundarySourceFor returns the prescribed value for a boundary edge with
// outward normal (nx, ny). The normal is normalized before matching.
func (p *Problem) BoundarySourceFor(nx, ny float64) (float64, bool) {
	norm := math.Hypot(nx, ny)
	nx, ny = nx/norm, ny/norm
	for _, b := range p.BoundarySources {
		if math.Abs(b.Nx-nx) < NormalTolerance && math.Abs(b.Ny-ny) < NormalTolerance {
			return b.Value, true
		}
	}
	return 0, false
}
