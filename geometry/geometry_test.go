package geometry

import (
	"math"
	"testing"

	"github.com/notargets/gomoc/quadrature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

const tol = 1.0e-12

func equilateral() Triangle {
	return Triangle{
		X:         [3]float64{0, 1, 0.5},
		Y:         [3]float64{0, 0, math.Sqrt(3) / 2},
		Neighbors: [3]int{-1, -2, -3},
	}
}

func scalene() Triangle {
	return Triangle{
		X:         [3]float64{0.1, 2.3, 0.7},
		Y:         [3]float64{-0.2, 0.4, 1.9},
		Neighbors: [3]int{4, -2, 7},
	}
}

func TestNewFrame(t *testing.T) {
	t.Run("interior angles sum to pi", func(t *testing.T) {
		for _, tri := range []Triangle{equilateral(), scalene()} {
			f := NewFrame(tri)
			assert.InDelta(t, math.Pi, f.Theta[0]+f.Theta[1]+f.Theta[2], tol)
		}
	})
	t.Run("clockwise input is reordered", func(t *testing.T) {
		tri := equilateral()
		tri.X[1], tri.X[2] = tri.X[2], tri.X[1]
		tri.Y[1], tri.Y[2] = tri.Y[2], tri.Y[1]
		tri.Neighbors = [3]int{10, 11, 12}
		f := NewFrame(tri)
		assert.Equal(t, [3]int{0, 2, 1}, f.V)
		// connectivity slot 0 becomes local edge 2
		assert.Equal(t, [3]int{12, 11, 10}, f.N)
		for k := 0; k < 3; k++ {
			mid := r2.Vec{X: (f.X[k]+f.X[(k+1)%3])/2 - 0.5, Y: (f.Y[k]+f.Y[(k+1)%3])/2 - math.Sqrt(3)/6}
			assert.Greater(t, r2.Dot(f.UnitNormal(k), mid), 0.0, "normal %d points inward", k)
			assert.InDelta(t, 1.0, r2.Norm(f.UnitNormal(k)), 1e-14)
		}
	})
	t.Run("rotation keeps edge vectors", func(t *testing.T) {
		f := NewFrame(scalene())
		g := f.Rotated(2)
		assert.Equal(t, f.Edge[2], g.Edge[0])
		assert.Equal(t, f.Theta[0], g.Theta[1])
		assert.Equal(t, f.N[1], g.N[2])
	})
}

func TestClassifyBasic(t *testing.T) {
	t.Run("upward direction enters the bottom edge", func(t *testing.T) {
		b := ClassifyBasic(equilateral(), math.Pi/2)
		assert.Equal(t, 2, b.Sector)
		assert.False(t, b.VertexToEdge)
		assert.Equal(t, 0, b.EdgeSlot)
		assert.Equal(t, 1, b.VertexSlot1)
		assert.Equal(t, 2, b.VertexSlot2)
		assert.Equal(t, -1, b.EdgeNeighbor)
		assert.InDelta(t, math.Sqrt(3)/2, b.PathLength, tol)
		assert.InDelta(t, 0.5, b.SurfacePosition, tol)
		assert.InDelta(t, 1.0, b.WidthEdge, tol)
		assert.InDelta(t, 0.5, b.Width1, tol)
		assert.InDelta(t, 0.5, b.Width2, tol)
	})
	t.Run("downward direction leaves the top vertex", func(t *testing.T) {
		b := ClassifyBasic(equilateral(), 3*math.Pi/2)
		assert.Equal(t, 2, b.Sector)
		assert.True(t, b.VertexToEdge)
		assert.InDelta(t, math.Sqrt(3)/2, b.PathLength, tol)
	})
	t.Run("parallel direction is perturbed", func(t *testing.T) {
		b := ClassifyBasic(equilateral(), 0)
		assert.Equal(t, 1, b.Sector)
		assert.True(t, b.VertexToEdge)
		assert.InDelta(t, ParallelShift, b.Psi, tol)
		assert.InDelta(t, 1.0, b.PathLength, 1e-7)
	})
	t.Run("widths and surface positions are consistent", func(t *testing.T) {
		tri := scalene()
		for i := 0; i < 64; i++ {
			theta := 0.05 + float64(i)*math.Pi/64
			fwd := ClassifyBasic(tri, theta)
			back := ClassifyBasic(tri, theta+math.Pi)
			require.Equal(t, fwd.Sector, back.Sector)
			assert.NotEqual(t, fwd.VertexToEdge, back.VertexToEdge)
			assert.InDelta(t, fwd.WidthEdge, fwd.Width1+fwd.Width2, 1e-10)
			assert.InDelta(t, 1.0, fwd.SurfacePosition+back.SurfacePosition, 1e-10)
			assert.InDelta(t, fwd.PathLength, back.PathLength, 1e-10)
			assert.Greater(t, fwd.PathLength, 0.0)
		}
	})
	t.Run("surface position splits the far edge by width", func(t *testing.T) {
		tri := scalene()
		b := ClassifyBasic(tri, 1.1)
		require.True(t, b.VertexToEdge)
		assert.InDelta(t, b.Width1/b.WidthEdge, b.SurfacePosition, 1e-10)
	})
}

func TestAttenuationLength(t *testing.T) {
	assert.InDelta(t, 2.0, AttenuationLength(1, math.Sqrt(3)/2), tol)
	assert.Equal(t, 1.5, AttenuationLength(1.5, 0))
}

func TestClassifyRegular(t *testing.T) {
	tri := equilateral()
	cases := []struct {
		theta float64
		block int
		phi   float64
		half  float64
		cross float64
	}{
		{math.Pi / 6, 1, math.Pi / 6, math.Sqrt(3) / 4, 0.5},
		{math.Pi / 2, 2, math.Pi / 2, math.Sqrt(3) / 4, 0.5},
		{5 * math.Pi / 6, 3, math.Pi / 6, math.Sqrt(3) / 4, 0.5},
		{7 * math.Pi / 6, 4, math.Pi / 2, math.Sqrt(3) / 4, 0.5},
		{3 * math.Pi / 2, 5, math.Pi / 6, math.Sqrt(3) / 4, 0.5},
		{11 * math.Pi / 6, 6, math.Pi / 2, math.Sqrt(3) / 4, 0.5},
	}
	for _, c := range cases {
		r := ClassifyRegular(tri, c.theta)
		assert.Equal(t, c.block, r.Block, "theta %v", c.theta)
		assert.InDelta(t, c.phi, r.Phi, 1e-12, "theta %v", c.theta)
		half, cross := r.HalfPath()
		assert.InDelta(t, c.half, half, 1e-12, "theta %v", c.theta)
		assert.InDelta(t, c.cross, cross, 1e-12, "theta %v", c.theta)
		assert.Equal(t, c.block%2 == 1, r.VertexToEdge())
	}

	t.Run("sub-cell maps are permutations", func(t *testing.T) {
		for b := 1; b <= 6; b++ {
			seen := map[int]bool{}
			for _, s := range blockSub[b] {
				seen[s] = true
			}
			assert.Len(t, seen, 4)
			assert.Equal(t, 1, blockSub[b][1])
		}
	})
	t.Run("local corner 0 is the right sub-cell", func(t *testing.T) {
		// sub-cell index of the corner at connectivity vertex v
		corner := [3]int{0, 3, 2}
		for _, theta := range []float64{0.3, 1.5, 2.6, 3.5, 4.7, 5.9} {
			r := ClassifyRegular(tri, theta)
			assert.Equal(t, corner[r.Local.V[0]], r.Sub[0])
			assert.Equal(t, corner[r.Local.V[1]], r.Sub[3])
			assert.Equal(t, corner[r.Local.V[2]], r.Sub[2])
		}
	})
	t.Run("projected widths close", func(t *testing.T) {
		r := ClassifyRegular(scalene(), 0.8)
		w := r.ProjectedHalfWidths(0.8)
		widest := math.Max(w[0], math.Max(w[1], w[2]))
		assert.InDelta(t, widest, w[0]+w[1]+w[2]-widest, 1e-12)
	})
	t.Run("projected widths follow edge angles", func(t *testing.T) {
		r := ClassifyRegular(scalene(), 2.1)
		w := r.ProjectedHalfWidths(2.1)
		for k, e := range r.Local.Edge {
			phi := quadrature.AngleFromVector(e.X, e.Y)
			assert.InDelta(t, r.Local.D[k]*math.Abs(math.Sin(phi-2.1))/2, w[k], 1e-12)
		}
	})
}
