package ring

import (
	"encoding/binary"
	"math/bits"

	"github.com/fedshield/lattice/utils/sampling"
)

// baseSampler holds the state shared by all polynomial samplers.
type baseSampler struct {
	prng     sampling.PRNG
	baseRing *Ring
	buf      []byte
	ptr      int
}

func newBaseSampler(prng sampling.PRNG, baseRing *Ring) baseSampler {
	return baseSampler{
		prng:     prng,
		baseRing: baseRing,
		buf:      make([]byte, 1024),
		ptr:      1024,
	}
}

// randomUint64 returns the next 8 bytes of the PRNG stream as a uint64,
// refilling the internal buffer when needed. A PRNG read failure is a panic:
// the blake2b XOF backing KeyedPRNG cannot fail mid-stream.
func (s *baseSampler) randomUint64() uint64 {
	if s.ptr == len(s.buf) {
		if _, err := s.prng.Read(s.buf); err != nil {
			panic(err)
		}
		s.ptr = 0
	}
	v := binary.LittleEndian.Uint64(s.buf[s.ptr : s.ptr+8])
	s.ptr += 8
	return v
}

// UniformSampler samples polynomials with coefficients uniform in [0, qi-1]
// for each modulus of the chain.
type UniformSampler struct {
	baseSampler
}

// NewUniformSampler creates a new UniformSampler reading its randomness from
// prng.
func NewUniformSampler(prng sampling.PRNG, baseRing *Ring) *UniformSampler {
	return &UniformSampler{newBaseSampler(prng, baseRing)}
}

// Read samples a uniform polynomial on all the rows of pol.
func (s *UniformSampler) Read(pol *Poly) {
	s.ReadLvl(pol.Level(), pol)
}

// ReadLvl samples a uniform polynomial on the rows 0 to level of pol, by
// rejection sampling on the masked PRNG output.
func (s *UniformSampler) ReadLvl(level int, pol *Poly) {
	for i := 0; i <= level; i++ {
		qi := s.baseRing.Modulus[i]
		mask := uint64(1)<<uint(bits.Len64(qi)) - 1
		coeffs := pol.Coeffs[i]
		for j := range coeffs {
			v := s.randomUint64() & mask
			for v >= qi {
				v = s.randomUint64() & mask
			}
			coeffs[j] = v
		}
	}
}

// ReadNew samples a new uniform polynomial at the given level.
func (s *UniformSampler) ReadNew(level int) (pol *Poly) {
	pol = s.baseRing.NewPolyLvl(level)
	s.ReadLvl(level, pol)
	return
}
