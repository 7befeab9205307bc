// Package quadrature holds the discrete ordinate set: direction cosines,
// weights, the polar/azimuthal decomposition and the ordinate pairings
// used for reflection.
package quadrature

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

// AngleTolerance is the azimuthal match tolerance for ordinate pairing.
const AngleTolerance = 1.0e-8

// ErrUnmatchedOrdinate is returned in strict mode when an ordinate has
// no paired direction in the set.
var ErrUnmatchedOrdinate = errors.New("unmatched ordinate")

// Set is a discrete ordinate quadrature. Mu is the polar cosine (omega_z)
// and Theta the azimuth of (omega_x, omega_y) in [0, 2pi).
type Set struct {
	OmegaX  []float64
	OmegaY  []float64
	OmegaZ  []float64
	Weights []float64

	Mu    []float64
	Theta []float64

	negDir []int
	strict bool
}

// Option configures NewSet.
type Option func(*Set)

// Strict makes missing ordinate pairings a construction error instead of
// a logged one.
func Strict(on bool) Option {
	return func(s *Set) { s.strict = on }
}

// NewSet builds the ordinate set. omegaY and omegaZ may be nil, in which
// case they are taken as zero.
func NewSet(omegaX, omegaY, omegaZ, weights []float64, opts ...Option) (*Set, error) {
	q := len(weights)
	if q == 0 {
		return nil, fmt.Errorf("quadrature: no weights")
	}
	if len(omegaX) != q {
		return nil, fmt.Errorf("quadrature: omega_x has %d entries, want %d", len(omegaX), q)
	}
	if omegaY == nil {
		omegaY = make([]float64, q)
	}
	if omegaZ == nil {
		omegaZ = make([]float64, q)
	}
	if len(omegaY) != q || len(omegaZ) != q {
		return nil, fmt.Errorf("quadrature: omega_y/omega_z have %d/%d entries, want %d",
			len(omegaY), len(omegaZ), q)
	}

	s := &Set{
		OmegaX:  omegaX,
		OmegaY:  omegaY,
		OmegaZ:  omegaZ,
		Weights: weights,
		Mu:      make([]float64, q),
		Theta:   make([]float64, q),
		negDir:  make([]int, q),
	}
	for _, opt := range opts {
		opt(s)
	}

	for n := 0; n < q; n++ {
		s.Mu[n] = omegaZ[n]
		s.Theta[n] = AngleFromVector(omegaX[n], omegaY[n])
	}

	for i := 0; i < q; i++ {
		s.negDir[i] = -1
		for j := 0; j < q; j++ {
			if s.Mu[i] == s.Mu[j] &&
				azimuthDistance(s.Theta[i], math.Mod(s.Theta[j]+math.Pi, 2*math.Pi)) < AngleTolerance {
				s.negDir[i] = j
				break
			}
		}
		if s.negDir[i] < 0 {
			log.WithFields(log.Fields{"ordinate": i, "mu": s.Mu[i], "theta": s.Theta[i]}).
				Error("no negative ordinate found")
			if s.strict {
				return nil, fmt.Errorf("quadrature: negative of ordinate %d: %w", i, ErrUnmatchedOrdinate)
			}
		}
	}
	return s, nil
}

// NumAngles is the number of ordinates.
func (s *Set) NumAngles() int { return len(s.Weights) }

// WeightSum is the sum of all weights.
func (s *Set) WeightSum() float64 {
	var sum float64
	for _, w := range s.Weights {
		sum += w
	}
	return sum
}

// Negative returns the ordinate with the same polar cosine and the
// azimuth rotated by pi, or -1 when none exists.
func (s *Set) Negative(n int) int { return s.negDir[n] }

// InPlane returns the x-y projection of ordinate n.
func (s *Set) InPlane(n int) (ox, oy float64) {
	st := math.Sqrt(1 - s.Mu[n]*s.Mu[n])
	return st * math.Cos(s.Theta[n]), st * math.Sin(s.Theta[n])
}

// Dot is omega_n . (nx, ny) using the in-plane projection.
func (s *Set) Dot(n int, nx, ny float64) float64 {
	ox, oy := s.InPlane(n)
	return ox*nx + oy*ny
}

// Reflected returns the ordinate that is the specular reflection of n
// about a surface with normal (nx, ny). The normal need not be unit
// length. -1 is returned, and an error logged, when no ordinate matches.
func (s *Set) Reflected(n int, nx, ny float64) int {
	norm := math.Hypot(nx, ny)
	nx, ny = nx/norm, ny/norm
	ox, oy := s.InPlane(n)
	dot := ox*nx + oy*ny
	rx := -2*dot*nx + ox
	ry := -2*dot*ny + oy
	thetaR := AngleFromVector(rx, ry)
	for j := range s.Weights {
		if s.Mu[j] != s.Mu[n] {
			continue
		}
		if azimuthDistance(s.Theta[j], thetaR) < AngleTolerance {
			return j
		}
	}
	log.WithFields(log.Fields{"ordinate": n, "nx": nx, "ny": ny, "theta": thetaR}).
		Error("no reflected ordinate found")
	return -1
}

// azimuthDistance is the separation of two azimuths on the circle.
func azimuthDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// AngleFromVector returns the angle of (dx, dy) in [0, 2pi).
func AngleFromVector(dx, dy float64) float64 {
	if math.Abs(dx) < 1.0e-8 {
		if dy > 0 {
			return math.Pi / 2
		}
		return 3 * math.Pi / 2
	}
	return math.Mod(2*math.Pi+math.Atan2(dy, dx), 2*math.Pi)
}
