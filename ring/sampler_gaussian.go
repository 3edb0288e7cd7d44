package ring

import (
	"math"

	"github.com/fedshield/lattice/utils/sampling"
)

// GaussianSampler samples polynomials with coefficients following a discrete
// Gaussian distribution of standard deviation sigma, truncated at bound.
type GaussianSampler struct {
	baseSampler
	sigma float64
	bound float64
}

// NewGaussianSampler creates a new GaussianSampler with standard deviation
// sigma, rejecting samples of magnitude larger than bound.
func NewGaussianSampler(prng sampling.PRNG, baseRing *Ring, sigma float64, bound float64) *GaussianSampler {
	return &GaussianSampler{
		baseSampler: newBaseSampler(prng, baseRing),
		sigma:       sigma,
		bound:       bound,
	}
}

// Read samples a Gaussian polynomial on all the rows of pol.
func (s *GaussianSampler) Read(pol *Poly) {
	s.ReadLvl(pol.Level(), pol)
}

// ReadLvl samples a Gaussian polynomial on the rows 0 to level of pol.
func (s *GaussianSampler) ReadLvl(level int, pol *Poly) {
	moduli := s.baseRing.Modulus[:level+1]
	for j := 0; j < s.baseRing.N; j++ {
		coeff, sign := s.normInt()
		for i, qi := range moduli {
			if sign == 1 || coeff == 0 {
				pol.Coeffs[i][j] = coeff
			} else {
				pol.Coeffs[i][j] = qi - coeff
			}
		}
	}
}

// ReadAndAddLvl samples a Gaussian polynomial and adds it on the rows 0 to
// level of pol.
func (s *GaussianSampler) ReadAndAddLvl(level int, pol *Poly) {
	moduli := s.baseRing.Modulus[:level+1]
	for j := 0; j < s.baseRing.N; j++ {
		coeff, sign := s.normInt()
		for i, qi := range moduli {
			if sign == 1 || coeff == 0 {
				pol.Coeffs[i][j] = CRed(pol.Coeffs[i][j]+coeff, qi)
			} else {
				pol.Coeffs[i][j] = CRed(pol.Coeffs[i][j]+qi-coeff, qi)
			}
		}
	}
}

// ReadNew samples a new Gaussian polynomial at the given level.
func (s *GaussianSampler) ReadNew(level int) (pol *Poly) {
	pol = s.baseRing.NewPolyLvl(level)
	s.ReadLvl(level, pol)
	return
}

// normInt returns |round(x*sigma)| and the sign of x, for x a standard normal
// sample obtained by the Box-Muller transform, rejecting samples beyond the
// bound.
func (s *GaussianSampler) normInt() (coeff uint64, sign uint64) {
	for {
		u1 := s.randomFloat64()
		u2 := s.randomFloat64()
		norm := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2) * s.sigma
		if v := math.Abs(norm); v <= s.bound {
			coeff = uint64(v + 0.5)
			if norm >= 0 {
				sign = 1
			}
			return
		}
	}
}

// randomFloat64 returns a uniform float64 in (0, 1].
func (s *GaussianSampler) randomFloat64() float64 {
	for {
		if v := s.randomUint64() >> 11; v != 0 {
			return float64(v) / float64(1<<53)
		}
	}
}
