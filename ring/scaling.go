package ring

// This file implements the division with centered rounding of RNS polynomials
// by the last modulus of their chain. This operation underlies both the
// ciphertext rescale (division by q_level) and the second half of the
// key-switch (division by the special modulus P).

// DivRoundByLastModulusNTTLvl divides p0 by q_level with centered rounding
// and writes the result on the rows 0 to level-1 of p1. p0 is expected in the
// NTT domain with rows 0 to level; p1 receives rows 0 to level-1, also in the
// NTT domain. pool must provide at least two scratch rows of size N.
func (r *Ring) DivRoundByLastModulusNTTLvl(level int, p0, pool, p1 *Poly) {
	r.divRoundByModulusNTT(level, level-1, p0, pool, p1)
}

// ModDownNTTLvl divides p0 by the last modulus of the full chain (the special
// modulus row, at index len(r.Modulus)-1) with centered rounding, and writes
// the result on the rows 0 to level of p1. The input rows are 0 to level plus
// the special row, all in the NTT domain.
func (r *Ring) ModDownNTTLvl(level int, p0, pool, p1 *Poly) {
	r.divRoundByModulusNTT(len(r.Modulus)-1, level, p0, pool, p1)
}

// divRoundByModulusNTT removes the row lastRow of p0, dividing the rows 0 to
// outLevel by r.Modulus[lastRow] with centered rounding. All rows are in the
// NTT domain.
func (r *Ring) divRoundByModulusNTT(lastRow, outLevel int, p0, pool, p1 *Poly) {

	ql := r.Modulus[lastRow]
	qlHalf := ql >> 1

	pool0 := pool.Coeffs[0]
	pool1 := pool.Coeffs[1]

	// Centered rounding: (x - [x]_ql) / ql where [x]_ql is the centered
	// remainder, obtained by adding ql/2 before truncating.
	InvNTTSingle(p0.Coeffs[lastRow], pool0, r.N, r.NttPsiInv[lastRow], r.NttNInv[lastRow], ql, r.MredParams[lastRow])
	AddScalarVec(pool0, pool0, qlHalf, ql)

	for i := 0; i <= outLevel; i++ {

		qi := r.Modulus[i]
		bredParams := r.BredParams[i]
		mredParams := r.MredParams[i]
		rescaleParams := r.RescaleParams[lastRow-1][i]

		qlHalfModQi := BRedAdd(qlHalf, qi, bredParams)

		for j := 0; j < r.N; j++ {
			pool1[j] = BRedAdd(pool0[j]+qi-qlHalfModQi, qi, bredParams)
		}

		NTTSingle(pool1, pool1, r.N, r.NttPsi[i], qi, mredParams)

		p0row := p0.Coeffs[i]
		p1row := p1.Coeffs[i]
		for j := 0; j < r.N; j++ {
			p1row[j] = MRed(p0row[j]+qi-pool1[j], rescaleParams, qi, mredParams)
		}
	}
}
