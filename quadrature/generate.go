package quadrature

import (
	"fmt"
	"math"
)

// Azimuthal builds the 4N-direction in-plane set with equally spaced
// azimuths offset by half a spacing from the axes.
func Azimuthal(N int, opts ...Option) (*Set, error) {
	if N < 1 {
		return nil, fmt.Errorf("quadrature: azimuthal order %d < 1", N)
	}
	nTheta := 4 * N
	dTheta := 2 * math.Pi / float64(nTheta)
	ox := make([]float64, nTheta)
	oy := make([]float64, nTheta)
	w := make([]float64, nTheta)
	for i := range ox {
		theta := dTheta/2 + dTheta*float64(i)
		ox[i] = math.Cos(theta)
		oy[i] = math.Sin(theta)
		w[i] = 4 * math.Pi / float64(nTheta)
	}
	return NewSet(ox, oy, nil, w, opts...)
}

// HalfSpace builds the 2N^2 direction set over the upper hemisphere: the
// N/2 positive Gauss-Legendre polar cosines times 4N azimuths. N must be
// even.
func HalfSpace(N int, opts ...Option) (*Set, error) {
	if N < 2 || N%2 != 0 {
		return nil, fmt.Errorf("quadrature: half-space order %d must be even and >= 2", N)
	}
	roots, _ := GaussLegendre(N)
	mu := make([]float64, 0, N/2)
	for _, r := range roots {
		if r > 0 {
			mu = append(mu, r)
		}
	}

	nTheta := 4 * N
	dTheta := 2 * math.Pi / float64(nTheta)
	q := 2 * N * N
	ox := make([]float64, q)
	oy := make([]float64, q)
	oz := make([]float64, q)
	w := make([]float64, q)
	for n := 0; n < N/2; n++ {
		st := math.Sqrt(1 - mu[n]*mu[n])
		for i := 0; i < nTheta; i++ {
			theta := dTheta/2 + dTheta*float64(i)
			k := nTheta*n + i
			ox[k] = st * math.Cos(theta)
			oy[k] = st * math.Sin(theta)
			oz[k] = mu[n]
			w[k] = 4 * math.Pi / float64(q)
		}
	}
	return NewSet(ox, oy, oz, w, opts...)
}
