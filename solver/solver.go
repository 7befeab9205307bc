// Package solver is the characteristic sweep transport solver. Two
// schemes share one iteration driver: Local treats each triangle as one
// cell with two values per edge, Regular splits each triangle into four
// sub-cells by its edge midpoints.
package solver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/notargets/gomoc/dof"
	"github.com/notargets/gomoc/geometry"
	"github.com/notargets/gomoc/mesh"
	"github.com/notargets/gomoc/output"
	"github.com/notargets/gomoc/partitions"
	"github.com/notargets/gomoc/problem"
	"github.com/notargets/gomoc/quadrature"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrIncompatibleMesh is returned when the mesh cannot enumerate elements
// in sweep order for every ordinate.
var ErrIncompatibleMesh = errors.New("mesh does not support per-direction sweeps")

// referenceFill is the value of an unset reference solution.
const referenceFill = 1.0e30

// Solver is what solution managers drive.
type Solver interface {
	Solve(ctx context.Context) Report
	Problem() *problem.Problem
	Options() Options

	NumDOFs() int
	AngularLayout() dof.Layout
	Solution() []float64
	SetSolution(solution []float64) error
	CellFlux() []float64
	SetCellFlux(flux []float64) error
	CopySolution() []float64
	ZeroSolution()
	NormalizeSolution(totalProduction float64)
	ExtrapolateSolution(factor float64, base []float64)

	ScalarFlux(cell, g int) float64
	CellAngularFlux(cell, n, g int) float64
	NeutronProduction(cell int) float64
	TotalNeutronProduction() float64

	SetExternalSource(on bool)
	SetTransientSource(source []float64) error
	SetFissionSource(on bool)
	SetCriticalEigenvalue(k float64)

	L2Norm(other []float64) float64
	LInfNorm(other []float64) float64
	RInfNorm(other []float64) float64
	SetReference(ref []float64) error
	L2Error() float64
	RInfError() float64

	WriteSolution(sink output.Sink) error
	WriteScalarFlux(sink output.Sink) error
}

// Options controls the iteration.
type Options struct {
	Tolerance          float64
	MaxIters           int
	SourceScaling      float64
	CriticalEigenvalue float64
	// Workers is the number of goroutines sweeping directions.
	Workers int
	// FissionSource enables the outer fission iteration. When off the
	// fission snapshot is the live solution and one outer pass is made.
	FissionSource bool
}

// DefaultOptions returns tolerance 1e-6, 1000 iterations, unit source
// scaling and eigenvalue, one worker per CPU.
func DefaultOptions() Options {
	return Options{
		Tolerance:          1.0e-6,
		MaxIters:           1000,
		SourceScaling:      1,
		CriticalEigenvalue: 1,
		Workers:            runtime.NumCPU(),
	}
}

// Report summarizes one Solve.
type Report struct {
	InnerIters int
	OuterIters int
	Converged  bool
	// InnerNorms is the R-infinity norm after every scatter iteration.
	InnerNorms []float64
}

// scheme is the part that differs between Local and Regular.
type scheme interface {
	applyBoundary() dof.Values
	sweep(n int, bdry dof.Values)
}

// Base holds the state shared by both schemes.
type Base struct {
	prob    *problem.Problem
	mesh    mesh.Mesh
	sweeper mesh.Sweeper
	quad    *quadrature.Set
	opts    Options

	edges  dof.Layout // solution: two values per edge
	cells  dof.Layout // source and cell flux
	angles dof.Layout // one value per cell, ordinate and group

	solution     []float64
	solutionPrev []float64
	cellFlux     []float64
	source       []float64
	fission      []float64 // per cell and group
	transient    []float64 // angles layout, nil when unset
	reference    []float64

	hasExternal bool

	tris     []geometry.Triangle
	slotEdge [][3]int

	directions *partitions.Layout
	cellShards *partitions.Layout

	tracer trace.Tracer
	scheme scheme
}

type orderBuilder interface {
	BuildSweepOrders(dirs mesh.Directions) error
}

func newBase(p *problem.Problem, opts Options, subCells int) (*Base, error) {
	sw, ok := p.Mesh.(mesh.Sweeper)
	if !ok {
		log.Error("transport solver needs a mesh with sweep support")
		return nil, ErrIncompatibleMesh
	}
	Q := p.Quadrature.NumAngles()
	if sw.NumSweepDirections() == 0 {
		if ob, ok := p.Mesh.(orderBuilder); ok {
			if err := ob.BuildSweepOrders(p.Quadrature); err != nil {
				return nil, fmt.Errorf("sweep orders: %w", err)
			}
		}
	}
	if sw.NumSweepDirections() != Q {
		log.WithFields(log.Fields{"orders": sw.NumSweepDirections(), "ordinates": Q}).
			Error("mesh sweep orders do not match the quadrature")
		return nil, fmt.Errorf("%w: %d sweep orders for %d ordinates",
			ErrIncompatibleMesh, sw.NumSweepDirections(), Q)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	K := p.Mesh.NumElements()
	G := p.NumGroups
	b := &Base{
		prob:    p,
		mesh:    p.Mesh,
		sweeper: sw,
		quad:    p.Quadrature,
		opts:    opts,
		edges:   dof.NewEdgeLayout(p.Mesh.NumEdges(), Q, G),
		cells:   dof.NewPhaseSpaceLayout(K, Q, G, subCells),
		angles:  dof.NewPhaseSpaceLayout(K, Q, G, 1),
		tracer:  otel.Tracer("github.com/notargets/gomoc/solver"),
	}
	b.solution = make([]float64, b.edges.Size())
	b.solutionPrev = make([]float64, b.edges.Size())
	b.reference = make([]float64, b.edges.Size())
	for i := range b.reference {
		b.reference[i] = referenceFill
	}
	b.source = make([]float64, b.cells.Size())
	b.cellFlux = make([]float64, b.cells.Size())
	for i := range b.cellFlux {
		b.cellFlux[i] = 1
	}
	b.fission = make([]float64, K*G)

	b.tris = make([]geometry.Triangle, K)
	b.slotEdge = make([][3]int, K)
	for e := 0; e < K; e++ {
		x, y := p.Mesh.Coordinates(e)
		nbrs := p.Mesh.Neighbors(e)
		b.tris[e] = geometry.Triangle{X: x, Y: y, Neighbors: nbrs}
		for v, nb := range nbrs {
			b.slotEdge[e][v] = p.Mesh.EdgeID(e, nb)
		}
	}

	var err error
	if b.directions, err = partitions.ForWorkers(Q, opts.Workers, partitions.RoundRobin); err != nil {
		return nil, err
	}
	if b.cellShards, err = partitions.ForWorkers(K, opts.Workers, partitions.BlockPartition); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"dofs":      len(b.solution),
		"cells":     K,
		"ordinates": Q,
		"groups":    G,
		"subCells":  subCells,
		"workers":   b.directions.NumPartitions,
		"imbalance": b.directions.Statistics().Imbalance,
	}).Debug("solver initialized")
	return b, nil
}

// edgeOf returns the edge id of element e shared with neighbor code nb.
func (b *Base) edgeOf(e, nb int) int {
	nbrs := b.tris[e].Neighbors
	for v := range nbrs {
		if nbrs[v] == nb {
			return b.slotEdge[e][v]
		}
	}
	return -1
}

func (b *Base) Problem() *problem.Problem { return b.prob }
func (b *Base) Options() Options          { return b.opts }

// NumDOFs is the length of the solution vector.
func (b *Base) NumDOFs() int { return len(b.solution) }

// Solution is the live solution vector.
func (b *Base) Solution() []float64 { return b.solution }

// EdgeLayout addresses the solution vector.
func (b *Base) EdgeLayout() dof.Layout { return b.edges }

// CellLayout addresses the source and cell flux arrays.
func (b *Base) CellLayout() dof.Layout { return b.cells }

// AngularLayout addresses transient source vectors.
func (b *Base) AngularLayout() dof.Layout { return b.angles }

// SetExternalSource switches the problem's external source on or off.
func (b *Base) SetExternalSource(on bool) {
	b.hasExternal = on && b.prob.ExternalSource != nil
}

// SetTransientSource installs a per cell, ordinate and group source
// addressed by AngularLayout. nil removes it.
func (b *Base) SetTransientSource(source []float64) error {
	if source != nil && len(source) != b.angles.Size() {
		return fmt.Errorf("transient source has %d values, want %d", len(source), b.angles.Size())
	}
	b.transient = source
	return nil
}

// SetFissionSource switches the outer fission iteration on or off.
func (b *Base) SetFissionSource(on bool) { b.opts.FissionSource = on }

// SetCriticalEigenvalue sets the k dividing the fission source.
func (b *Base) SetCriticalEigenvalue(k float64) {
	if k <= 0 {
		k = 1
	}
	b.opts.CriticalEigenvalue = k
}

// ScalarFlux is the quadrature-weighted mean of the cell flux over all
// ordinates, averaged over sub-cells.
func (b *Base) ScalarFlux(cell, g int) float64 {
	var sum float64
	for sub := 0; sub < b.cells.NumSub; sub++ {
		sum += b.subCellScalarFlux(cell, g, sub)
	}
	return sum / float64(b.cells.NumSub)
}

func (b *Base) subCellScalarFlux(cell, g, sub int) float64 {
	var flux, wsum float64
	for n, w := range b.quad.Weights {
		flux += w * b.cellFlux[b.cells.Index(cell, n, g, sub)]
		wsum += w
	}
	return flux / wsum
}

// CellAngularFlux is the cell flux of ordinate n averaged over sub-cells.
func (b *Base) CellAngularFlux(cell, n, g int) float64 {
	var sum float64
	for sub := 0; sub < b.cells.NumSub; sub++ {
		sum += b.cellFlux[b.cells.Index(cell, n, g, sub)]
	}
	return sum / float64(b.cells.NumSub)
}
