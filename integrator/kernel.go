// Package integrator solves the 1-D attenuation equation along a
// characteristic segment in closed form.
package integrator

import "math"

// seriesThreshold is the optical thickness below which the kernels are
// evaluated from their Taylor series.
const seriesThreshold = 0.1

const seriesTerms = 12

// Kernel holds the exponential moments of one segment of optical
// thickness Tau = sigma*S:
//
//	F1 = (1-e)/tau
//	F2 = (tau-1+e)/tau^2
//	F3 = (tau^2-2tau+2-2e)/tau^3
//	K  = (1-e-tau*e)/tau^2
//	F4 = (1-2K)/tau
//
// with e = exp(-tau). All are finite at tau = 0.
type Kernel struct {
	Tau, Exp          float64
	F1, F2, F3, K, F4 float64
}

// NewKernel evaluates the kernel for cross section sigma over path s.
func NewKernel(sigma, s float64) Kernel {
	tau := sigma * s
	k := Kernel{Tau: tau, Exp: math.Exp(-tau)}
	if math.Abs(tau) < seriesThreshold {
		k.series()
		return k
	}
	e := k.Exp
	t2 := tau * tau
	k.F1 = (1 - e) / tau
	k.F2 = (tau - 1 + e) / t2
	k.F3 = (t2 - 2*tau + 2 - 2*e) / (t2 * tau)
	k.K = (1 - e - tau*e) / t2
	k.F4 = (1 - 2*k.K) / tau
	return k
}

func (k *Kernel) series() {
	// term = (-tau)^m / (m+3)!, built up from (-tau)^m / m!
	var (
		p    = 1.0 // (-tau)^m
		fact = 1.0 // (m+1)!
	)
	for m := 0; m < seriesTerms; m++ {
		f1 := p / fact
		f2 := f1 / float64(m+2)
		f3 := f2 / float64(m+3)
		k.F1 += f1
		k.F2 += f2
		k.F3 += 2 * f3
		k.K += float64(m+1) * f2
		k.F4 += 2 * float64(m+2) * f3
		p *= -k.Tau
		fact *= float64(m + 2)
	}
}

// Propagate carries a point value psi along the full segment with source
// density q.
func (k Kernel) Propagate(psi, qS float64) float64 {
	return psi*k.Exp + qS*k.F1
}

// EdgeAverage is the outflow averaged over the segments of a triangle
// whose path lengths fall linearly from S to 0, for a flat inflow psi.
func (k Kernel) EdgeAverage(psi, qS float64) float64 {
	return psi*k.F1 + qS*k.F2
}

// CellAverage is the flux averaged over the same triangle.
func (k Kernel) CellAverage(psi, qS float64) float64 {
	return 2*psi*k.F2 + qS*k.F3
}
