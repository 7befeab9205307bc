package config

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/notargets/gomoc/mesh"
	"github.com/notargets/gomoc/problem"
	"github.com/notargets/gomoc/quadrature"
	"github.com/notargets/gomoc/solver"
	log "github.com/sirupsen/logrus"
)

// BuildMesh generates or reads the mesh. A non-empty override replaces
// the [Mesh] file. Explicit sweep orders are installed here; otherwise
// the solver derives upwind orders on construction.
func (c *Config) BuildMesh(override string) (*mesh.TriMesh, error) {
	mc := c.Mesh
	var (
		m   *mesh.TriMesh
		err error
	)
	switch {
	case override != "":
		m, err = mesh.ReadFile(override)
	case mc.Type == "file":
		m, err = mesh.ReadFile(mc.File)
	default:
		block := func(cx, _ float64) int {
			if cx < mc.InnerWidth {
				return mc.InnerBlock
			}
			return mc.Block
		}
		m, err = mesh.Rectangle(mc.Nx, mc.Ny, mc.Width, mc.Height, block)
	}
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	switch {
	case len(mc.Sweep) > 0:
		if err := m.SetSweepOrders(mc.Sweep); err != nil {
			return nil, fmt.Errorf("mesh: %w", err)
		}
	case mc.Ordering == "natural":
		m.NaturalSweepOrders(c.numAngles())
	}
	log.Info(m.String())
	return m, nil
}

func (c *Config) numAngles() int {
	t := c.Transport
	switch {
	case t.QuadOrder == 0:
		return len(t.Weights)
	case t.QuadType == "half3d":
		return 2 * t.QuadOrder * t.QuadOrder
	}
	return 4 * t.QuadOrder
}

// BuildQuadrature generates or assembles the ordinate set.
func (c *Config) BuildQuadrature() (*quadrature.Set, error) {
	t := c.Transport
	opt := quadrature.Strict(t.Strict)
	if t.QuadOrder > 0 {
		if t.QuadType == "half3d" {
			return quadrature.HalfSpace(t.QuadOrder, opt)
		}
		return quadrature.Azimuthal(t.QuadOrder, opt)
	}
	return quadrature.NewSet(t.OmegaX, t.OmegaY, t.OmegaZ, t.Weights, opt)
}

// BuildProblem assembles the transport problem on m.
func (c *Config) BuildProblem(m mesh.Mesh) (*problem.Problem, error) {
	q, err := c.BuildQuadrature()
	if err != nil {
		return nil, fmt.Errorf("quadrature: %w", err)
	}
	p, err := problem.New(m, q, c.Materials)
	if err != nil {
		return nil, err
	}
	if p.Boundary, err = problem.ParseBoundaryPolicy(c.Transport.Boundary); err != nil {
		return nil, err
	}

	src := c.Transport.Source
	switch src.Type {
	case "uniform":
		if len(src.Magnitude) != p.NumGroups {
			return nil, fmt.Errorf("external source: %d magnitudes for %d groups", len(src.Magnitude), p.NumGroups)
		}
		p.ExternalSource = problem.Uniform(src.Magnitude)
	case "file":
		values, err := readValues(src.File)
		if err != nil {
			return nil, fmt.Errorf("external source: %w", err)
		}
		tab, err := problem.NewTabulated(m.NumElements(), q.NumAngles(), p.NumGroups, values)
		if err != nil {
			return nil, fmt.Errorf("external source: %w", err)
		}
		p.ExternalSource = tab
	case "boundary":
		for i := 0; i+2 < len(src.NxNyQ); i += 3 {
			p.BoundarySources = append(p.BoundarySources, problem.BoundarySource{
				Nx: src.NxNyQ[i], Ny: src.NxNyQ[i+1], Value: src.NxNyQ[i+2],
			})
		}
	}
	return p, nil
}

// readValues reads whitespace separated numbers.
func readValues(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var values []float64
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: value %d: %w", path, len(values), err)
		}
		values = append(values, v)
	}
	return values, sc.Err()
}

// SolverOptions merges [Solver] with the environment. A positive
// MOC_WORKERS wins over the file.
func (c *Config) SolverOptions(e Env) solver.Options {
	s := c.Solver
	opts := solver.DefaultOptions()
	opts.Tolerance = s.Tolerance
	opts.MaxIters = s.MaxIters
	opts.SourceScaling = s.SourceScaling
	opts.CriticalEigenvalue = s.CriticalEigenvalue
	opts.FissionSource = s.FissionSource
	switch {
	case e.Workers > 0:
		opts.Workers = e.Workers
	case s.Workers > 0:
		opts.Workers = s.Workers
	default:
		opts.Workers = runtime.NumCPU()
	}
	return opts
}

// NewSolver builds the solver named by [Solver] type.
func (c *Config) NewSolver(p *problem.Problem, opts solver.Options) (solver.Solver, error) {
	switch c.Solver.Type {
	case "regMOC":
		return solver.NewRegular(p, opts)
	default:
		return solver.NewLocal(p, opts)
	}
}
