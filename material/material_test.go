package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func TestScatteringKernel(t *testing.T) {
	// out-major: (out=1,in=1) (out=1,in=2) (out=2,in=1) (out=2,in=2)
	m, err := New(Data{
		Name:      "fuel",
		NumGroups: 2,
		SigmaT:    []float64{1, 2},
		SigmaS:    []float64{0.5, 0.0, 0.25, 1.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.SigmaS(1, 1))
	assert.Equal(t, 0.25, m.SigmaS(1, 2))
	assert.Equal(t, 0.0, m.SigmaS(2, 1))
	assert.Equal(t, 1.5, m.SigmaS(2, 2))
	assert.InDelta(t, 0.75, m.SigmaSTotal(1), 1e-15)
	assert.InDelta(t, 1.5, m.SigmaSTotal(2), 1e-15)
	assert.Equal(t, 0.0, m.SigmaSOrder(1, 1, 1))
	assert.Equal(t, 1.0, m.Speed(2))
	assert.False(t, m.IsFissile())
}

func TestTransientModifiers(t *testing.T) {
	m, err := New(Data{Name: "m", NumGroups: 1, SigmaT: []float64{1}, NuSigmaF: []float64{0.3}})
	require.NoError(t, err)
	m.SetSigmaTAdder(1, 0.25)
	m.SetNuSigmaFScaling(0.5)
	assert.Equal(t, 1.0, m.SigmaT(1))
	assert.Equal(t, 1.25, m.TotalXS(1))
	assert.InDelta(t, 0.15, m.ScaledNuSigmaF(1), 1e-15)
	assert.Equal(t, 0.3, m.NuSigmaF(1))
	m.ResetTransient()
	assert.Equal(t, 1.0, m.TotalXS(1))
	assert.InDelta(t, 0.3, m.ScaledNuSigmaF(1), 1e-15)
}

func TestInvalidData(t *testing.T) {
	_, err := New(Data{Name: "a", NumGroups: 2, SigmaT: []float64{1}})
	assert.Error(t, err)
	_, err = New(Data{Name: "b", NumGroups: 2, SigmaT: []float64{1, 1}, SigmaS: []float64{1, 2, 3}})
	assert.Error(t, err)
	_, err = New(Data{Name: "c", NumGroups: 1, SigmaT: []float64{1},
		Lambda: []float64{1, 2, 3, 4, 5, 6, 7}, Beta: []float64{1, 2, 3, 4, 5, 6, 7}})
	assert.Error(t, err)
}

const materialINI = `
[Material.fuel]
block = 1
numGroups = 1
sigmaT = 1.0
sigmaS = 0.5
nu_sigmaF = 0.2
fissionSpectrum = 1.0
dnFractionEff = 0.0065
dnDecayConst = 0.08, 0.5
dnFraction = 0.002, 0.0045
speed = 2.0e5

[Material.water]
block = 2
sigmaT = 2.0

[Solver]
type = localMOC
`

func TestLoadRegistry(t *testing.T) {
	f, err := ini.Load([]byte(materialINI))
	require.NoError(t, err)
	r, err := LoadRegistry(f)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	fuel, ok := r.ByBlock(1)
	require.True(t, ok)
	assert.Equal(t, "fuel", fuel.Name)
	assert.Equal(t, 2, fuel.NumDelayedGroups())
	assert.Equal(t, 0.5, fuel.Lambda(2))
	assert.Equal(t, 0.002, fuel.Beta(1))
	assert.Equal(t, 0.0065, fuel.BetaEff())
	assert.Equal(t, 2.0e5, fuel.Speed(1))
	assert.True(t, fuel.IsFissile())

	water, ok := r.ByName("water")
	require.True(t, ok)
	assert.Equal(t, 2, water.Block)

	dup, err := New(Data{Name: "water", Block: 9, NumGroups: 1, SigmaT: []float64{5}})
	require.NoError(t, err)
	assert.Same(t, water, r.Add(dup))

	all := r.All()
	assert.Equal(t, "fuel", all[0].Name)
	assert.Equal(t, "water", all[1].Name)
}

func TestLoadRegistryBadList(t *testing.T) {
	f, err := ini.Load([]byte("[Material.bad]\nsigmaT = one\n"))
	require.NoError(t, err)
	_, err = LoadRegistry(f)
	assert.Error(t, err)
}
