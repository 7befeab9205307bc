// Package material holds multigroup cross sections and delayed neutron
// data. All group and delayed-group getters are 1-based.
package material

import (
	"fmt"
)

// MaxDelayedGroups is the largest supported delayed precursor set.
const MaxDelayedGroups = 6

// Material is one multigroup cross-section set.
type Material struct {
	Name      string
	Block     int
	NumGroups int

	sigmaT      []float64
	sigmaTAdder []float64
	sigmaS      []float64 // order*G*G + (out-1)*G + in-1
	sigmaSTotal []float64
	scatOrder   int
	nuSigmaF    []float64
	chi         []float64
	speed       []float64

	nuSigmaFScaling float64

	lambda  []float64
	beta    []float64
	betaEff float64
}

// Data is the raw input for New. Nil slices default: SigmaS to zero, Speed
// to one, everything else to zero.
type Data struct {
	Name      string
	Block     int
	NumGroups int
	SigmaT    []float64
	SigmaS    []float64
	NuSigmaF  []float64
	Chi       []float64
	Speed     []float64
	Lambda    []float64
	Beta      []float64
	BetaEff   float64
}

// New validates d and builds the material.
func New(d Data) (*Material, error) {
	G := d.NumGroups
	if G < 1 {
		return nil, fmt.Errorf("material %q: numGroups %d < 1", d.Name, G)
	}
	if len(d.SigmaT) != G {
		return nil, fmt.Errorf("material %q: sigmaT has %d entries, want %d", d.Name, len(d.SigmaT), G)
	}
	m := &Material{
		Name:            d.Name,
		Block:           d.Block,
		NumGroups:       G,
		sigmaT:          append([]float64(nil), d.SigmaT...),
		sigmaTAdder:     make([]float64, G),
		sigmaSTotal:     make([]float64, G),
		nuSigmaFScaling: 1,
		betaEff:         d.BetaEff,
	}

	switch {
	case len(d.SigmaS) == 0:
		m.sigmaS = make([]float64, G*G)
	case len(d.SigmaS)%(G*G) == 0:
		m.sigmaS = append([]float64(nil), d.SigmaS...)
		m.scatOrder = len(d.SigmaS)/(G*G) - 1
	default:
		return nil, fmt.Errorf("material %q: sigmaS has %d entries, not a multiple of %d",
			d.Name, len(d.SigmaS), G*G)
	}
	for out := 1; out <= G; out++ {
		for in := 1; in <= G; in++ {
			m.sigmaSTotal[in-1] += m.sigmaS[(out-1)*G+in-1]
		}
	}

	var err error
	if m.nuSigmaF, err = groupVector(d.Name, "nu_sigmaF", d.NuSigmaF, G, 0); err != nil {
		return nil, err
	}
	if m.chi, err = groupVector(d.Name, "fissionSpectrum", d.Chi, G, 0); err != nil {
		return nil, err
	}
	if m.speed, err = groupVector(d.Name, "speed", d.Speed, G, 1); err != nil {
		return nil, err
	}

	if len(d.Lambda) != len(d.Beta) {
		return nil, fmt.Errorf("material %q: %d decay constants for %d delayed fractions",
			d.Name, len(d.Lambda), len(d.Beta))
	}
	if len(d.Lambda) > MaxDelayedGroups {
		return nil, fmt.Errorf("material %q: %d delayed groups, at most %d supported",
			d.Name, len(d.Lambda), MaxDelayedGroups)
	}
	m.lambda = append([]float64(nil), d.Lambda...)
	m.beta = append([]float64(nil), d.Beta...)
	return m, nil
}

func groupVector(name, key string, v []float64, G int, fill float64) ([]float64, error) {
	if len(v) == 0 {
		out := make([]float64, G)
		for i := range out {
			out[i] = fill
		}
		return out, nil
	}
	if len(v) != G {
		return nil, fmt.Errorf("material %q: %s has %d entries, want %d", name, key, len(v), G)
	}
	return append([]float64(nil), v...), nil
}

// SigmaT is the input total cross section of group g.
func (m *Material) SigmaT(g int) float64 { return m.sigmaT[g-1] }

// TotalXS is the cross section the transport sweep attenuates with:
// SigmaT plus the transient adder.
func (m *Material) TotalXS(g int) float64 { return m.sigmaT[g-1] + m.sigmaTAdder[g-1] }

// SigmaTAdder is the transient addition to the total cross section.
func (m *Material) SigmaTAdder(g int) float64 { return m.sigmaTAdder[g-1] }

// SetSigmaTAdder sets the transient addition for group g.
func (m *Material) SetSigmaTAdder(g int, v float64) { m.sigmaTAdder[g-1] = v }

// SigmaS is the isotropic scattering cross section from group in to
// group out.
func (m *Material) SigmaS(in, out int) float64 { return m.SigmaSOrder(0, in, out) }

// SigmaSOrder is the scattering moment of the given Legendre order. Orders
// above the input order are zero.
func (m *Material) SigmaSOrder(order, in, out int) float64 {
	if order > m.scatOrder {
		return 0
	}
	G := m.NumGroups
	return m.sigmaS[order*G*G+(out-1)*G+in-1]
}

// ScatteringOrder is the highest Legendre order given.
func (m *Material) ScatteringOrder() int { return m.scatOrder }

// SigmaSTotal is the isotropic scattering out of group in, summed over
// destination groups.
func (m *Material) SigmaSTotal(in int) float64 { return m.sigmaSTotal[in-1] }

// NuSigmaF is the fission production cross section.
func (m *Material) NuSigmaF(g int) float64 { return m.nuSigmaF[g-1] }

// ScaledNuSigmaF is NuSigmaF times the transient scaling; it feeds the
// fission source.
func (m *Material) ScaledNuSigmaF(g int) float64 { return m.nuSigmaF[g-1] * m.nuSigmaFScaling }

// NuSigmaFScaling is the transient fission scaling factor.
func (m *Material) NuSigmaFScaling() float64 { return m.nuSigmaFScaling }

// SetNuSigmaFScaling sets the transient fission scaling factor.
func (m *Material) SetNuSigmaFScaling(s float64) { m.nuSigmaFScaling = s }

// Chi is the fission spectrum.
func (m *Material) Chi(g int) float64 { return m.chi[g-1] }

// Speed is the group neutron speed.
func (m *Material) Speed(g int) float64 { return m.speed[g-1] }

// IsFissile reports whether any group has a production cross section.
func (m *Material) IsFissile() bool {
	for _, v := range m.nuSigmaF {
		if v != 0 {
			return true
		}
	}
	return false
}

// NumDelayedGroups is the number of precursor groups.
func (m *Material) NumDelayedGroups() int { return len(m.lambda) }

// Lambda is the decay constant of delayed group j.
func (m *Material) Lambda(j int) float64 { return m.lambda[j-1] }

// Beta is the delayed fraction of delayed group j.
func (m *Material) Beta(j int) float64 { return m.beta[j-1] }

// BetaEff is the effective delayed fraction.
func (m *Material) BetaEff() float64 { return m.betaEff }

// ResetTransient clears transient adders and scaling.
func (m *Material) ResetTransient() {
	for i := range m.sigmaTAdder {
		m.sigmaTAdder[i] = 0
	}
	m.nuSigmaFScaling = 1
}
