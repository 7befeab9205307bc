package quadrature

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGQ returns the N+1 Gauss quadrature points and weights for the
// Jacobi weight (1-x)^alpha (1+x)^beta on [-1, 1], via the eigen
// decomposition of the symmetric tridiagonal Jacobi matrix.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2.)}, []float64{2.}
	}

	h1 := make([]float64, N+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	d0 := make([]float64, N+1)
	fac := beta*beta - alpha*alpha
	for i, h := range h1 {
		d0[i] = fac / (h * (h + 2.))
	}
	// alpha+beta == 0 makes the first entry 0/0
	if alpha+beta < 10*1.e-16 {
		d0[0] = 0.
	}

	d1 := make([]float64, N)
	for i := range d1 {
		ip1 := float64(i + 1)
		h := h1[i]
		d1[i] = 2.0 / (h + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h+1)/(h+3),
		)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(symTriDiagonal(d0, d1), true); !ok {
		panic("jacobi matrix eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	W = make([]float64, len(X))
	g0 := gamma0(alpha, beta)
	for i := range W {
		v := vecs.At(0, i)
		W[i] = v * v * g0
	}
	return X, W
}

// GaussLegendre returns the N-point Gauss-Legendre rule on [-1, 1] with
// points in ascending order.
func GaussLegendre(N int) (X, W []float64) {
	return JacobiGQ(0, 0, N-1)
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	return math.Gamma(alpha+1.) * math.Gamma(beta+1.) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func symTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	dd := make([]float64, n*n)
	for i := 0; i < n; i++ {
		dd[i*n+i] = d0[i]
		if i < n-1 {
			dd[i*n+i+1] = d1[i]
			dd[(i+1)*n+i] = d1[i]
		}
	}
	return mat.NewSymDense(n, dd)
}
