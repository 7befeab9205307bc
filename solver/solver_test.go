package solver

import (
	"context"
	"math"
	"testing"

	"github.com/notargets/gomoc/geometry"
	"github.com/notargets/gomoc/material"
	"github.com/notargets/gomoc/mesh"
	"github.com/notargets/gomoc/output"
	"github.com/notargets/gomoc/problem"
	"github.com/notargets/gomoc/quadrature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equilateralMesh(t *testing.T) *mesh.TriMesh {
	m, err := mesh.NewTriMesh(
		[]float64{0, 1, 0.5},
		[]float64{0, 0, math.Sqrt(3) / 2},
		[][3]int{{0, 1, 2}}, nil)
	require.NoError(t, err)
	return m
}

func singleOrdinate(t *testing.T, theta float64) *quadrature.Set {
	q, err := quadrature.NewSet(
		[]float64{math.Cos(theta)}, []float64{math.Sin(theta)}, nil, []float64{1})
	require.NoError(t, err)
	return q
}

func newProblem(t *testing.T, m mesh.Mesh, q *quadrature.Set, d material.Data, src float64) *problem.Problem {
	d.Name, d.Block = "fuel", 1
	if d.NumGroups == 0 {
		d.NumGroups = 1
	}
	mat, err := material.New(d)
	require.NoError(t, err)
	reg := material.NewRegistry()
	reg.Add(mat)
	p, err := problem.New(m, q, reg)
	require.NoError(t, err)
	if src != 0 {
		p.ExternalSource = problem.Uniform{src}
	}
	return p
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Workers = 2
	return opts
}

func TestSingleTriangleAttenuation(t *testing.T) {
	m := equilateralMesh(t)
	p := newProblem(t, m, singleOrdinate(t, 0), material.Data{SigmaT: []float64{1}}, 1)
	s, err := NewLocal(p, testOptions())
	require.NoError(t, err)
	s.SetExternalSource(true)

	rep := s.Solve(context.Background())
	assert.True(t, rep.Converged)
	assert.Equal(t, 2, rep.InnerIters)
	assert.Equal(t, 1, rep.OuterIters)

	// the direction is parallel to edge 0 and is rotated before tracing
	S := math.Sin(math.Pi/3) / math.Sin(math.Pi/3+geometry.ParallelShift)
	e := math.Exp(-S)
	f2 := (S - 1 + e) / (S * S)
	f3 := (S*S - 2*S + 2 - 2*e) / (S * S * S)

	out := s.edges.Index(m.EdgeID(0, -2), 0, 0, 0)
	assert.InDelta(t, S*f2, s.solution[out], 1e-10)
	assert.InDelta(t, S*f2, s.solution[out+1], 1e-10)
	assert.InDelta(t, S*f3, s.CellAngularFlux(0, 0, 0), 1e-10)
	assert.InDelta(t, S*f3, s.ScalarFlux(0, 0), 1e-10)

	// inflow edges are never written
	for _, code := range []int{-1, -3} {
		k := s.edges.Index(m.EdgeID(0, code), 0, 0, 0)
		assert.Zero(t, s.solution[k])
	}
}

func TestSingleTriangleStreaming(t *testing.T) {
	m := equilateralMesh(t)
	t.Run("vertex to edge", func(t *testing.T) {
		p := newProblem(t, m, singleOrdinate(t, math.Pi/6), material.Data{SigmaT: []float64{0}}, 1)
		s, err := NewLocal(p, testOptions())
		require.NoError(t, err)
		s.SetExternalSource(true)
		s.Solve(context.Background())

		// chord from vertex 0 to the midpoint of the far edge
		S := math.Sqrt(3) / 2
		out := s.edges.Index(m.EdgeID(0, -2), 0, 0, 0)
		assert.InDelta(t, S/2, s.solution[out], 1e-12)
		assert.InDelta(t, S/2, s.solution[out+1], 1e-12)
		assert.InDelta(t, S/3, s.ScalarFlux(0, 0), 1e-12)
	})
	t.Run("edge to vertex", func(t *testing.T) {
		p := newProblem(t, m, singleOrdinate(t, math.Pi/2), material.Data{SigmaT: []float64{0}}, 2)
		s, err := NewLocal(p, testOptions())
		require.NoError(t, err)
		s.SetExternalSource(true)
		s.Solve(context.Background())

		S := math.Sqrt(3) / 2
		for _, code := range []int{-2, -3} {
			k := s.edges.Index(m.EdgeID(0, code), 0, 0, 0)
			assert.InDelta(t, 2*S/2, s.solution[k], 1e-12)
		}
		assert.InDelta(t, 2*S/3, s.ScalarFlux(0, 0), 1e-12)
	})
}

var schemes = map[string]func(*problem.Problem, Options) (Solver, error){
	"local":   func(p *problem.Problem, o Options) (Solver, error) { return NewLocal(p, o) },
	"regular": func(p *problem.Problem, o Options) (Solver, error) { return NewRegular(p, o) },
}

func infiniteMedium(t *testing.T, d material.Data) *problem.Problem {
	m, err := mesh.Rectangle(2, 2, 1, 1, nil)
	require.NoError(t, err)
	q, err := quadrature.Azimuthal(2, quadrature.Strict(true))
	require.NoError(t, err)
	p := newProblem(t, m, q, d, 1)
	p.Boundary = problem.Reflecting
	return p
}

func TestInfiniteMedium(t *testing.T) {
	d := material.Data{
		SigmaT: []float64{1},
		SigmaS: []float64{0.5},
	}
	for name, build := range schemes {
		t.Run(name, func(t *testing.T) {
			s, err := build(infiniteMedium(t, d), testOptions())
			require.NoError(t, err)
			s.SetExternalSource(true)
			rep := s.Solve(context.Background())
			require.True(t, rep.Converged)
			for e := 0; e < 8; e++ {
				assert.InDelta(t, 2.0, s.ScalarFlux(e, 0), 1e-4, "element %d", e)
			}
		})
	}
}

// jitteredSquare meshes the unit square with n by n quads and moves every
// interior vertex by up to a fifth of the spacing.
func jitteredSquare(t *testing.T, n int) *mesh.TriMesh {
	r, err := mesh.Rectangle(n, n, 1, 1, nil)
	require.NoError(t, err)
	h := 1 / float64(n)
	vx := append([]float64(nil), r.VX...)
	vy := append([]float64(nil), r.VY...)
	for v := range vx {
		i, j := v%(n+1), v/(n+1)
		if i == 0 || j == 0 || i == n || j == n {
			continue
		}
		vx[v] += 0.2 * h * math.Sin(1.7*float64(v)+0.3)
		vy[v] += 0.2 * h * math.Cos(2.3*float64(v)+1.1)
	}
	EToV := make([][3]int, r.NumElements())
	for e := range EToV {
		EToV[e] = r.Connectivity(e)
	}
	m, err := mesh.NewTriMesh(vx, vy, EToV, nil)
	require.NoError(t, err)
	return m
}

func TestInfiniteMediumJittered(t *testing.T) {
	d := material.Data{
		SigmaT: []float64{1.5},
		SigmaS: []float64{0.75},
	}
	const src = 0.5
	exact := src / (d.SigmaT[0] - d.SigmaS[0])
	m := jitteredSquare(t, 6)
	q, err := quadrature.Azimuthal(2, quadrature.Strict(true))
	require.NoError(t, err)

	for name, build := range schemes {
		t.Run(name, func(t *testing.T) {
			p := newProblem(t, m, q, d, src)
			p.Boundary = problem.Reflecting
			opts := testOptions()
			opts.Tolerance = 1.0e-12
			s, err := build(p, opts)
			require.NoError(t, err)
			s.SetExternalSource(true)
			rep := s.Solve(context.Background())
			require.True(t, rep.Converged)
			for e := 0; e < m.NumElements(); e++ {
				assert.InDelta(t, exact, s.ScalarFlux(e, 0), 1e-8, "element %d", e)
			}
		})
	}
}

func TestFissionSource(t *testing.T) {
	d := material.Data{
		SigmaT:   []float64{1},
		SigmaS:   []float64{0.5},
		NuSigmaF: []float64{0.25},
		Chi:      []float64{1},
	}
	opts := testOptions()
	opts.FissionSource = true
	s, err := NewLocal(infiniteMedium(t, d), opts)
	require.NoError(t, err)
	s.SetExternalSource(true)
	rep := s.Solve(context.Background())
	assert.True(t, rep.Converged)
	assert.Greater(t, rep.OuterIters, 1)
	assert.InDelta(t, 4.0, s.ScalarFlux(3, 0), 1e-3)
}

func TestConvergenceMonotone(t *testing.T) {
	m, err := mesh.Rectangle(5, 1, 5, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 10, m.NumElements())
	q, err := quadrature.Azimuthal(1)
	require.NoError(t, err)
	p := newProblem(t, m, q, material.Data{SigmaT: []float64{1.5}}, 1)

	s, err := NewLocal(p, testOptions())
	require.NoError(t, err)
	s.SetExternalSource(true)
	rep := s.Solve(context.Background())
	require.True(t, rep.Converged)
	require.NotEmpty(t, rep.InnerNorms)
	for i := 1; i < len(rep.InnerNorms); i++ {
		assert.LessOrEqual(t, rep.InnerNorms[i], rep.InnerNorms[i-1])
	}
	assert.Less(t, rep.InnerNorms[len(rep.InnerNorms)-1], s.Options().Tolerance)
	assert.LessOrEqual(t, rep.InnerIters, s.Options().MaxIters)
}

func TestNonConvergenceIsReported(t *testing.T) {
	p := infiniteMedium(t, material.Data{SigmaT: []float64{1}, SigmaS: []float64{0.9}})
	opts := testOptions()
	opts.MaxIters = 3
	s, err := NewLocal(p, opts)
	require.NoError(t, err)
	s.SetExternalSource(true)
	rep := s.Solve(context.Background())
	assert.False(t, rep.Converged)
	assert.Equal(t, 3, rep.InnerIters)
}

type plainMesh struct{ mesh.Mesh }

func TestIncompatibleMesh(t *testing.T) {
	m := equilateralMesh(t)
	q := singleOrdinate(t, 0.3)
	p := newProblem(t, plainMesh{m}, q, material.Data{SigmaT: []float64{1}}, 0)
	_, err := NewLocal(p, testOptions())
	assert.ErrorIs(t, err, ErrIncompatibleMesh)
	_, err = NewRegular(p, testOptions())
	assert.ErrorIs(t, err, ErrIncompatibleMesh)

	m.NaturalSweepOrders(3)
	p = newProblem(t, m, q, material.Data{SigmaT: []float64{1}}, 0)
	_, err = NewLocal(p, testOptions())
	assert.ErrorIs(t, err, ErrIncompatibleMesh)
}

func TestSolutionOps(t *testing.T) {
	d := material.Data{SigmaT: []float64{1}, NuSigmaF: []float64{0.5}, Chi: []float64{1}}
	s, err := NewLocal(infiniteMedium(t, d), testOptions())
	require.NoError(t, err)
	s.SetExternalSource(true)
	s.Solve(context.Background())

	t.Run("normalize", func(t *testing.T) {
		s.NormalizeSolution(10)
		assert.InDelta(t, 10, s.TotalNeutronProduction(), 1e-10)
	})
	t.Run("copy and set", func(t *testing.T) {
		c := s.CopySolution()
		s.ZeroSolution()
		assert.Zero(t, s.L2Norm(make([]float64, s.NumDOFs())))
		require.NoError(t, s.SetSolution(c))
		assert.Zero(t, s.LInfNorm(c))
		assert.Error(t, s.SetSolution(c[1:]))
	})
	t.Run("extrapolate", func(t *testing.T) {
		base := s.CopySolution()
		s.ExtrapolateSolution(math.Log(2), nil)
		for i, v := range s.Solution() {
			assert.InDelta(t, 2*base[i], v, 1e-12)
		}
		s.ExtrapolateSolution(0, base)
		assert.Zero(t, s.LInfNorm(base))
	})
	t.Run("norms", func(t *testing.T) {
		other := s.CopySolution()
		other[0] += 3
		other[1] += 4
		assert.InDelta(t, 5, s.L2Norm(other), 1e-12)
		assert.InDelta(t, 4, s.LInfNorm(other), 1e-12)
		require.NoError(t, s.SetReference(s.CopySolution()))
		assert.Zero(t, s.RInfError())
		assert.Zero(t, s.L2Error())
	})
	t.Run("write", func(t *testing.T) {
		rec := output.NewRecorder()
		require.NoError(t, s.WriteSolution(rec))
		require.NoError(t, s.WriteScalarFlux(rec))
		n, err := rec.Get("numDOFs")
		require.NoError(t, err)
		assert.Equal(t, []float64{float64(s.NumDOFs())}, n)
		phi, err := rec.Get("scalarFlux_1")
		require.NoError(t, err)
		assert.Len(t, phi, 8)
		assert.InDelta(t, s.ScalarFlux(5, 0), phi[5], 0)
	})
}

func TestRInfSkipsNonPositive(t *testing.T) {
	assert.Equal(t, 0.5, rInf([]float64{2, 0, -1}, []float64{1, 7, 9}))
}
