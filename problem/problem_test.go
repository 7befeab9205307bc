package problem

import (
	"testing"

	"github.com/notargets/gomoc/material"
	"github.com/notargets/gomoc/mesh"
	"github.com/notargets/gomoc/quadrature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBlockMesh(t *testing.T) *mesh.TriMesh {
	m, err := mesh.Rectangle(2, 1, 2, 1, func(cx, _ float64) int {
		if cx < 1 {
			return 1
		}
		return 2
	})
	require.NoError(t, err)
	return m
}

func registry(t *testing.T, groups ...int) *material.Registry {
	reg := material.NewRegistry()
	for i, G := range groups {
		sig := make([]float64, G)
		for g := range sig {
			sig[g] = float64(i + 1)
		}
		m, err := material.New(material.Data{Name: string(rune('a' + i)), Block: i + 1, NumGroups: G, SigmaT: sig})
		require.NoError(t, err)
		reg.Add(m)
	}
	return reg
}

func TestNew(t *testing.T) {
	m := twoBlockMesh(t)
	q, err := quadrature.Azimuthal(1)
	require.NoError(t, err)

	t.Run("resolves materials by block", func(t *testing.T) {
		p, err := New(m, q, registry(t, 2, 2))
		require.NoError(t, err)
		assert.Equal(t, 2, p.NumGroups)
		for e := 0; e < m.NumElements(); e++ {
			assert.Equal(t, m.Block(e), p.Material(e).Block)
		}
	})
	t.Run("missing block", func(t *testing.T) {
		_, err := New(m, q, registry(t, 1))
		assert.ErrorContains(t, err, "no material for block 2")
	})
	t.Run("group mismatch", func(t *testing.T) {
		_, err := New(m, q, registry(t, 1, 2))
		assert.ErrorContains(t, err, "groups")
	})
}

func TestBoundarySourceFor(t *testing.T) {
	p := &Problem{BoundarySources: []BoundarySource{{1, 0, 2.5}, {0, -1, -1}}}
	v, ok := p.BoundarySourceFor(3, 0)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
	v, ok = p.BoundarySourceFor(0, -0.5)
	assert.True(t, ok)
	assert.Equal(t, -1.0, v)
	_, ok = p.BoundarySourceFor(-1, 0)
	assert.False(t, ok)
}

func TestParseBoundaryPolicy(t *testing.T) {
	for s, want := range map[string]BoundaryPolicy{"": Vacuum, "Reflecting": Reflecting, "source": Source} {
		got, err := ParseBoundaryPolicy(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBoundaryPolicy("periodic")
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	u := Uniform{1, 2}
	assert.Equal(t, 2.0, u.Value(7, 3, 1))
	assert.Zero(t, u.Value(0, 0, 2))

	tab, err := NewTabulated(2, 2, 1, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 3.0, tab.Value(0, 1, 0))
	_, err = NewTabulated(2, 2, 2, []float64{1})
	assert.Error(t, err)
}
