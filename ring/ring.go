// Package ring implements RNS-accelerated modular arithmetic operations for
// polynomials in the ring Z_Q[X]/(X^N+1), including: RNS basis conversion,
// number theoretic transform (NTT), uniform, Gaussian and ternary sampling.
package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/fedshield/lattice/utils"
)

// Ring is a structure that keeps all the variables required to operate on a
// polynomial represented in CRT (RNS) form: one row of N coefficients per
// prime of the modulus chain.
type Ring struct {
	// N is the ring degree, a power of two.
	N int

	// Modulus is the chain of RNS primes q_i, each congruent to 1 mod 2N.
	Modulus []uint64

	// ModulusAtLevel[i] is the product q_0 * ... * q_i.
	ModulusAtLevel []*big.Int

	// BredParams[i] are the Barrett reduction parameters for q_i.
	BredParams [][]uint64

	// MredParams[i] is the Montgomery reduction parameter for q_i.
	MredParams []uint64

	// RescaleParams[l-1][i] is MForm((q_l)^-1 mod q_i), used to divide by the
	// last modulus of the chain at level l.
	RescaleParams [][]uint64

	// NttPsi[i][j] is MForm(psi_i^bitrev(j)) where psi_i is a primitive
	// 2N-th root of unity mod q_i.
	NttPsi [][]uint64

	// NttPsiInv[i][j] is MForm(psi_i^-bitrev(j)).
	NttPsiInv [][]uint64

	// NttNInv[i] is MForm(N^-1 mod q_i).
	NttNInv []uint64

	logN int
}

// NewRing creates a new Ring of degree N with the provided moduli. N must be
// a power of two and each modulus a distinct prime congruent to 1 mod 2N
// (a condition that also makes the moduli pairwise coprime).
func NewRing(N int, moduli []uint64) (r *Ring, err error) {

	if N < MinRingDegree || !utils.IsPowerOfTwo(N) {
		return nil, fmt.Errorf("invalid ring degree: N (%d) must be a power of two >= %d", N, MinRingDegree)
	}

	if len(moduli) == 0 {
		return nil, fmt.Errorf("invalid modulus chain: empty")
	}

	seen := make(map[uint64]bool, len(moduli))
	for _, qi := range moduli {
		if seen[qi] {
			return nil, fmt.Errorf("invalid modulus chain: %d appears twice", qi)
		}
		seen[qi] = true

		if bits.Len64(qi) > MaxModuliSize {
			return nil, fmt.Errorf("invalid modulus: %d exceeds %d bits", qi, MaxModuliSize)
		}

		if !IsPrime(qi) || qi&uint64(2*N-1) != 1 {
			return nil, fmt.Errorf("invalid modulus: %d is not an NTT-friendly prime for degree %d", qi, N)
		}
	}

	r = new(Ring)
	r.N = N
	r.logN = bits.Len64(uint64(N)) - 1
	r.Modulus = make([]uint64, len(moduli))
	copy(r.Modulus, moduli)

	r.ModulusAtLevel = make([]*big.Int, len(moduli))
	modulus := NewUint(1)
	for i, qi := range moduli {
		modulus.Mul(modulus, NewUint(qi))
		r.ModulusAtLevel[i] = new(big.Int).Set(modulus)
	}

	r.BredParams = make([][]uint64, len(moduli))
	r.MredParams = make([]uint64, len(moduli))
	for i, qi := range moduli {
		r.BredParams[i] = BRedParams(qi)
		r.MredParams[i] = MRedParams(qi)
	}

	r.RescaleParams = make([][]uint64, len(moduli)-1)
	for l := 1; l < len(moduli); l++ {
		ql := r.Modulus[l]
		params := make([]uint64, l)
		for i := 0; i < l; i++ {
			qi := r.Modulus[i]
			inv := ModExp(BRedAdd(ql, qi, r.BredParams[i]), qi-2, qi)
			params[i] = MForm(inv, qi, r.BredParams[i])
		}
		r.RescaleParams[l-1] = params
	}

	if err = r.genNTTParams(); err != nil {
		return nil, err
	}

	return r, nil
}

// MinRingDegree is the smallest supported ring degree.
const MinRingDegree = 8

// MaxModuliSize is the largest supported modulus bit-size. The bound keeps
// the lazy reductions used by the NTT free of uint64 overflows.
const MaxModuliSize = 60

// genNTTParams computes the primitive 2N-th roots of unity and the associated
// bit-reversed power tables for each modulus.
func (r *Ring) genNTTParams() error {

	N := r.N

	r.NttPsi = make([][]uint64, len(r.Modulus))
	r.NttPsiInv = make([][]uint64, len(r.Modulus))
	r.NttNInv = make([]uint64, len(r.Modulus))

	for i, qi := range r.Modulus {

		psi, err := primitiveRoot2N(qi, uint64(N))
		if err != nil {
			return err
		}
		psiInv := ModExp(psi, 2*uint64(N)-1, qi)

		bredParams := r.BredParams[i]

		r.NttPsi[i] = make([]uint64, N)
		r.NttPsiInv[i] = make([]uint64, N)

		var fwd, bwd uint64 = 1, 1
		for j := 0; j < N; j++ {
			idx := utils.BitReverse64(uint64(j), r.logN)
			r.NttPsi[i][idx] = MForm(fwd, qi, bredParams)
			r.NttPsiInv[i][idx] = MForm(bwd, qi, bredParams)
			fwd = BRed(fwd, psi, qi, bredParams)
			bwd = BRed(bwd, psiInv, qi, bredParams)
		}

		r.NttNInv[i] = MForm(ModExp(uint64(N), qi-2, qi), qi, bredParams)
	}

	return nil
}

// primitiveRoot2N returns a primitive 2N-th root of unity mod q. It requires
// q prime with q = 1 mod 2N and N a power of two.
func primitiveRoot2N(q, N uint64) (psi uint64, err error) {

	// x^((q-1)/2N) has order exactly 2N iff x is a quadratic non-residue,
	// since 2N is a power of two.
	for x := uint64(2); x < q; x++ {
		if ModExp(x, (q-1)>>1, q) == q-1 {
			return ModExp(x, (q-1)/(2*N), q), nil
		}
	}

	return 0, fmt.Errorf("no primitive root found mod %d (modulus is likely not prime)", q)
}

// MaxLevel returns the maximum level allocated by the ring (number of moduli - 1).
func (r *Ring) MaxLevel() int {
	return len(r.Modulus) - 1
}

// LogN returns log2(N).
func (r *Ring) LogN() int {
	return r.logN
}

// NewPoly creates a new polynomial with all coefficients set to 0, with one
// coefficient row per modulus of the chain.
func (r *Ring) NewPoly() *Poly {
	return NewPoly(r.N, len(r.Modulus)-1)
}

// NewPolyLvl creates a new polynomial with all coefficients set to 0, with
// level+1 coefficient rows.
func (r *Ring) NewPolyLvl(level int) *Poly {
	return NewPoly(r.N, level)
}

// PolyToBigintLvl reconstructs the centered big.Int coefficients of p from
// its RNS representation at the given level, reading one coefficient every
// gap entries. coeffs must have size at least N/gap.
func (r *Ring) PolyToBigintLvl(level int, p *Poly, gap int, coeffs []*big.Int) {

	crtReconstruction := make([]*big.Int, level+1)

	Q := r.ModulusAtLevel[level]
	tmp := new(big.Int)

	for i := 0; i <= level; i++ {
		qi := NewUint(r.Modulus[i])
		QiB := new(big.Int).Quo(Q, qi)
		QiStar := new(big.Int).ModInverse(QiB, qi)
		crtReconstruction[i] = new(big.Int).Mul(QiB, QiStar)
	}

	for n, idx := 0, 0; idx < r.N; n, idx = n+1, idx+gap {
		if coeffs[n] == nil {
			coeffs[n] = new(big.Int)
		}
		coeffs[n].SetUint64(0)
		for i := 0; i <= level; i++ {
			coeffs[n].Add(coeffs[n], tmp.Mul(NewUint(p.Coeffs[i][idx]), crtReconstruction[i]))
		}
		coeffs[n].Mod(coeffs[n], Q)
	}
}

// SetCoefficientsBigintLvl sets the RNS rows 0..level of p from the given
// big.Int coefficients, reduced mod each prime.
func (r *Ring) SetCoefficientsBigintLvl(level int, coeffs []*big.Int, p *Poly) {
	tmp := new(big.Int)
	for i := 0; i <= level; i++ {
		qi := NewUint(r.Modulus[i])
		row := p.Coeffs[i]
		for n := range coeffs {
			row[n] = tmp.Mod(coeffs[n], qi).Uint64()
		}
	}
}

// Log2OfInnerSum returns the bit-size of the largest centered coefficient of
// p at the given level (useful to monitor noise growth in tests).
func (r *Ring) Log2OfInnerSum(level int, p *Poly) (logSum int) {
	coeffs := make([]*big.Int, r.N)
	r.PolyToBigintLvl(level, p, 1, coeffs)

	Q := r.ModulusAtLevel[level]
	qHalf := new(big.Int).Rsh(Q, 1)

	max := new(big.Int)
	for _, c := range coeffs {
		if c.Cmp(qHalf) >= 0 {
			c.Sub(c, Q)
			c.Neg(c)
		}
		if c.Cmp(max) == 1 {
			max.Set(c)
		}
	}

	return max.BitLen()
}
