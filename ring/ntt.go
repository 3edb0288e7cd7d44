package ring

// This file implements the negacyclic number theoretic transform. The forward
// transform uses Cooley-Tukey butterflies and the inverse transform uses
// Gentleman-Sande butterflies, with the twiddle factors merged in the root
// power tables (tables of psi^bitrev(j) in the Montgomery domain), so no
// separate pre or post multiplication by the powers of psi is needed.

// NTTSingle computes the forward NTT of a single coefficient row. nttPsi is
// the table of MForm(psi^bitrev(j)).
func NTTSingle(coeffsIn, coeffsOut []uint64, N int, nttPsi []uint64, q, mredParams uint64) {

	copy(coeffsOut, coeffsIn)

	t := N
	for m := 1; m < N; m <<= 1 {
		t >>= 1
		for i := 0; i < m; i++ {
			j1 := 2 * i * t
			j2 := j1 + t
			F := nttPsi[m+i]
			for j := j1; j < j2; j++ {
				U := coeffsOut[j]
				V := MRed(coeffsOut[j+t], F, q, mredParams)
				coeffsOut[j] = CRed(U+V, q)
				coeffsOut[j+t] = CRed(U+q-V, q)
			}
		}
	}
}

// InvNTTSingle computes the inverse NTT of a single coefficient row. nttPsiInv
// is the table of MForm(psi^-bitrev(j)) and nttNInv is MForm(N^-1).
func InvNTTSingle(coeffsIn, coeffsOut []uint64, N int, nttPsiInv []uint64, nttNInv, q, mredParams uint64) {

	copy(coeffsOut, coeffsIn)

	t := 1
	for m := N; m > 1; m >>= 1 {
		h := m >> 1
		j1 := 0
		for i := 0; i < h; i++ {
			j2 := j1 + t
			F := nttPsiInv[h+i]
			for j := j1; j < j2; j++ {
				U := coeffsOut[j]
				V := coeffsOut[j+t]
				coeffsOut[j] = CRed(U+V, q)
				coeffsOut[j+t] = MRed(U+q-V, F, q, mredParams)
			}
			j1 += 2 * t
		}
		t <<= 1
	}

	for j := 0; j < N; j++ {
		coeffsOut[j] = MRed(coeffsOut[j], nttNInv, q, mredParams)
	}
}

// NTTLvl computes the forward NTT of the rows 0 to level of p1 and writes the
// result on p2.
func (r *Ring) NTTLvl(level int, p1, p2 *Poly) {
	for i := 0; i <= level; i++ {
		NTTSingle(p1.Coeffs[i], p2.Coeffs[i], r.N, r.NttPsi[i], r.Modulus[i], r.MredParams[i])
	}
}

// InvNTTLvl computes the inverse NTT of the rows 0 to level of p1 and writes
// the result on p2.
func (r *Ring) InvNTTLvl(level int, p1, p2 *Poly) {
	for i := 0; i <= level; i++ {
		InvNTTSingle(p1.Coeffs[i], p2.Coeffs[i], r.N, r.NttPsiInv[i], r.NttNInv[i], r.Modulus[i], r.MredParams[i])
	}
}

// NTT computes the forward NTT of all the rows of p1 and writes the result on
// p2.
func (r *Ring) NTT(p1, p2 *Poly) {
	r.NTTLvl(len(r.Modulus)-1, p1, p2)
}

// InvNTT computes the inverse NTT of all the rows of p1 and writes the result
// on p2.
func (r *Ring) InvNTT(p1, p2 *Poly) {
	r.InvNTTLvl(len(r.Modulus)-1, p1, p2)
}
