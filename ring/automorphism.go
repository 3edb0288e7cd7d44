package ring

import (
	"github.com/fedshield/lattice/utils"
)

// PermuteNTTIndex computes the index permutation in the NTT domain
// corresponding to the automorphism X -> X^galEl, where galEl is an odd
// element of Z/2NZ. Applying the permutation to a polynomial in the NTT
// domain is equivalent to applying the automorphism in the coefficient
// domain.
func (r *Ring) PermuteNTTIndex(galEl uint64) (index []uint64) {
	mask := uint64(2*r.N - 1)
	index = make([]uint64, r.N)
	for i := uint64(0); i < uint64(r.N); i++ {
		tmp1 := 2*utils.BitReverse64(i, r.logN) + 1
		tmp2 := ((galEl * tmp1) & mask - 1) >> 1
		index[i] = utils.BitReverse64(tmp2, r.logN)
	}
	return
}

// PermuteNTTWithIndexLvl applies the automorphism described by a permutation
// index (see PermuteNTTIndex) to the rows 0 to level of p1, in the NTT
// domain, and writes the result on p2. p2 must not alias p1.
func PermuteNTTWithIndexLvl(level int, p1 *Poly, index []uint64, p2 *Poly) {
	for i := 0; i <= level; i++ {
		p1row := p1.Coeffs[i]
		p2row := p2.Coeffs[i]
		for j := range p2row {
			p2row[j] = p1row[index[j]]
		}
	}
}

// PermuteNTTLvl applies the automorphism X -> X^galEl to the rows 0 to level
// of p1, in the NTT domain, and writes the result on p2. p2 must not alias
// p1.
func (r *Ring) PermuteNTTLvl(level int, p1 *Poly, galEl uint64, p2 *Poly) {
	PermuteNTTWithIndexLvl(level, p1, r.PermuteNTTIndex(galEl), p2)
}
