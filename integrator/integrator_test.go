package integrator

import (
	"math"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func closedForm(tau float64) Kernel {
	e := math.Exp(-tau)
	t2 := tau * tau
	k := Kernel{Tau: tau, Exp: e}
	k.F1 = (1 - e) / tau
	k.F2 = (tau - 1 + e) / t2
	k.F3 = (t2 - 2*tau + 2 - 2*e) / (t2 * tau)
	k.K = (1 - e - tau*e) / t2
	k.F4 = (1 - 2*k.K) / tau
	return k
}

func TestKernel(t *testing.T) {
	t.Run("streaming limit", func(t *testing.T) {
		k := NewKernel(0, 2.5)
		assert.Equal(t, 1.0, k.Exp)
		assert.InDelta(t, 1.0, k.F1, 1e-15)
		assert.InDelta(t, 0.5, k.F2, 1e-15)
		assert.InDelta(t, 1.0/3, k.F3, 1e-15)
		assert.InDelta(t, 0.5, k.K, 1e-15)
		assert.InDelta(t, 2.0/3, k.F4, 1e-15)
	})
	t.Run("series matches closed form at the switch", func(t *testing.T) {
		below := Kernel{Tau: seriesThreshold}
		below.series()
		above := closedForm(seriesThreshold)
		assert.InDelta(t, above.F1, below.F1, 1e-11)
		assert.InDelta(t, above.F2, below.F2, 1e-11)
		assert.InDelta(t, above.F3, below.F3, 1e-10)
		assert.InDelta(t, above.K, below.K, 1e-11)
		assert.InDelta(t, above.F4, below.F4, 1e-10)
	})
	t.Run("closed form for thick segments", func(t *testing.T) {
		for _, tau := range []float64{0.5, 1, 3.7, 40} {
			assert.Equal(t, closedForm(tau), NewKernel(tau, 1))
		}
	})
	t.Run("propagation is pure streaming without absorption", func(t *testing.T) {
		k := NewKernel(0, 1.7)
		assert.InDelta(t, 2.0+0.3*1.7, k.Propagate(2.0, 0.3*1.7), 1e-15)
	})
	t.Run("flat inflow in equilibrium with the source", func(t *testing.T) {
		// psi = q/sigma is a fixed point of every form
		sigma, q, s := 1.3, 0.8, 0.9
		psi := q / sigma
		k := NewKernel(sigma, s)
		assert.InDelta(t, psi, k.Propagate(psi, q*s), 1e-14)
		assert.InDelta(t, psi, k.EdgeAverage(psi, q*s), 1e-14)
		assert.InDelta(t, psi, k.CellAverage(psi, q*s), 1e-14)
	})
}

func TestEdgeToVertex(t *testing.T) {
	t.Run("streaming", func(t *testing.T) {
		r := EdgeToVertex(1, 3, 0.5, 0, 2, 0.25)
		assert.InDelta(t, 1.5+0.5*2, r.Vertex, 1e-14)
		assert.InDelta(t, 1+0.5*1+2*0.5, r.Out1, 1e-14)
		assert.InDelta(t, 3+0.5*1-2*0.5, r.Out2, 1e-14)
		assert.InDelta(t, 2*2*0.5+1.0/3, r.Cell, 1e-14)
	})
	t.Run("symmetric under swapping the ends", func(t *testing.T) {
		a := EdgeToVertex(0.4, 1.2, 0.7, 1.1, 0.6, 0.3)
		b := EdgeToVertex(1.2, 0.4, 0.7, 1.1, 0.6, 0.7)
		assert.InDelta(t, a.Out1, b.Out2, 1e-14)
		assert.InDelta(t, a.Out2, b.Out1, 1e-14)
		assert.InDelta(t, a.Cell, b.Cell, 1e-14)
		assert.InDelta(t, a.Vertex, b.Vertex, 1e-14)
	})
}

func TestVertexToEdge(t *testing.T) {
	t.Run("flat reduces to the weighted mean", func(t *testing.T) {
		r := FlatVertexToEdge(0.25, 0.75, 1, 2, 4, 0, 0, 1)
		assert.InDelta(t, 3.5, r.Edge, 1e-14)
		assert.InDelta(t, 3.5, r.Cell, 1e-14)
	})
	t.Run("uniform equilibrium", func(t *testing.T) {
		sigma, q := 2.0, 1.0
		psi := q / sigma
		r := VertexToEdge(0.4, 0.6, 1, psi, psi, psi, psi, q, sigma, 0.7)
		assert.InDelta(t, psi, r.Edge, 1e-14)
		assert.InDelta(t, psi, r.Cell, 1e-14)
	})
	t.Run("linear correction", func(t *testing.T) {
		k := NewKernel(1, 1)
		r := VertexToEdge(0.5, 0.5, 1, 1, 1, 2, 2, 0, 1, 1)
		assert.InDelta(t, k.F1+k.K, r.Edge, 1e-14)
		assert.InDelta(t, 2*k.F2+k.F4, r.Cell, 1e-14)
	})
}

func TestFallbackCounter(t *testing.T) {
	ResetFallbackCount()
	RecordFallback(log.Fields{"cell": 3})
	RecordFallback(nil)
	assert.Equal(t, int64(2), FallbackCount())
	ResetFallbackCount()
	assert.Zero(t, FallbackCount())
	assert.True(t, AnyNegative(1, -1e-300))
	assert.False(t, AnyNegative(0, 2))
}
