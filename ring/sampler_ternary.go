package ring

import (
	"github.com/fedshield/lattice/utils/sampling"
)

// TernarySampler samples polynomials with coefficients in {-1, 0, 1}, either
// with a fixed probability of zero or with a fixed number of non-zero
// coefficients (sparse ternary distribution).
type TernarySampler struct {
	baseSampler
	matrixValues [][3]uint64
	p            float64
	hw           int
	montgomery   bool
}

// NewTernarySampler creates a new TernarySampler where each coefficient is 0
// with probability p, and -1 or 1 with probability (1-p)/2 each. If
// montgomery is true the sampled coefficients are in the Montgomery domain.
func NewTernarySampler(prng sampling.PRNG, baseRing *Ring, p float64, montgomery bool) *TernarySampler {
	s := &TernarySampler{
		baseSampler: newBaseSampler(prng, baseRing),
		p:           p,
		hw:          -1,
		montgomery:  montgomery,
	}
	s.initMatrix()
	return s
}

// NewTernarySamplerSparse creates a new TernarySampler sampling polynomials
// with exactly hw non-zero coefficients, each -1 or 1 with equal probability.
func NewTernarySamplerSparse(prng sampling.PRNG, baseRing *Ring, hw int, montgomery bool) *TernarySampler {
	s := &TernarySampler{
		baseSampler: newBaseSampler(prng, baseRing),
		hw:          hw,
		montgomery:  montgomery,
	}
	s.initMatrix()
	return s
}

// initMatrix precomputes, for each modulus, the representations of the
// ternary values {0, 1, -1}.
func (s *TernarySampler) initMatrix() {
	s.matrixValues = make([][3]uint64, len(s.baseRing.Modulus))
	for i, qi := range s.baseRing.Modulus {
		s.matrixValues[i][0] = 0
		if s.montgomery {
			s.matrixValues[i][1] = MForm(1, qi, s.baseRing.BredParams[i])
			s.matrixValues[i][2] = MForm(qi-1, qi, s.baseRing.BredParams[i])
		} else {
			s.matrixValues[i][1] = 1
			s.matrixValues[i][2] = qi - 1
		}
	}
}

// Read samples a ternary polynomial on all the rows of pol.
func (s *TernarySampler) Read(pol *Poly) {
	s.ReadLvl(pol.Level(), pol)
}

// ReadLvl samples a ternary polynomial on the rows 0 to level of pol.
func (s *TernarySampler) ReadLvl(level int, pol *Poly) {
	if s.hw >= 0 {
		s.readSparse(level, pol)
	} else {
		s.readDense(level, pol)
	}
}

// ReadNew samples a new ternary polynomial at the given level.
func (s *TernarySampler) ReadNew(level int) (pol *Poly) {
	pol = s.baseRing.NewPolyLvl(level)
	s.ReadLvl(level, pol)
	return
}

func (s *TernarySampler) readDense(level int, pol *Poly) {

	// Index 0 with probability p, else 1 or 2 from the sign bit.
	threshold := uint64(s.p * float64(1<<63) * 2)

	for j := 0; j < s.baseRing.N; j++ {
		v := s.randomUint64()
		var idx int
		if v >= threshold {
			idx = 1 + int(v&1)
		}
		for i := 0; i <= level; i++ {
			pol.Coeffs[i][j] = s.matrixValues[i][idx]
		}
	}
}

func (s *TernarySampler) readSparse(level int, pol *Poly) {

	N := s.baseRing.N

	for i := 0; i <= level; i++ {
		row := pol.Coeffs[i]
		for j := range row {
			row[j] = 0
		}
	}

	// Sample hw distinct positions by partial Fisher-Yates shuffle.
	index := make([]int, N)
	for j := range index {
		index[j] = j
	}

	for k := 0; k < s.hw && k < N; k++ {
		j := k + int(s.randomUint64()%uint64(N-k))
		index[k], index[j] = index[j], index[k]
		idx := 1 + int(s.randomUint64()&1)
		for i := 0; i <= level; i++ {
			pol.Coeffs[i][index[k]] = s.matrixValues[i][idx]
		}
	}
}
