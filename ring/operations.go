package ring

// This file implements the coefficient-wise arithmetic on RNS polynomials.
// The Lvl variants operate on the rows 0 to level included. The Vec variants
// operate on a single coefficient row and are used by callers that mix rows
// of different modulus chains (e.g. key-switching over Q and the special
// modulus P).

// AddVec returns p3 = p1 + p2 mod qi.
func AddVec(p1, p2, p3 []uint64, qi uint64) {
	for j := range p1 {
		p3[j] = CRed(p1[j]+p2[j], qi)
	}
}

// SubVec returns p3 = p1 - p2 mod qi.
func SubVec(p1, p2, p3 []uint64, qi uint64) {
	for j := range p1 {
		p3[j] = CRed(p1[j]+qi-p2[j], qi)
	}
}

// NegVec returns p2 = -p1 mod qi.
func NegVec(p1, p2 []uint64, qi uint64) {
	for j := range p1 {
		p2[j] = qi - p1[j]
	}
}

// ReduceVec returns p2 = p1 mod qi, for p1 in the range [0, 2^64-1].
func ReduceVec(p1, p2 []uint64, qi uint64, bredParams []uint64) {
	for j := range p1 {
		p2[j] = BRedAdd(p1[j], qi, bredParams)
	}
}

// MFormVec returns p2 = p1 * 2^64 mod qi.
func MFormVec(p1, p2 []uint64, qi uint64, bredParams []uint64) {
	for j := range p1 {
		p2[j] = MForm(p1[j], qi, bredParams)
	}
}

// InvMFormVec returns p2 = p1 * (2^64)^-1 mod qi.
func InvMFormVec(p1, p2 []uint64, qi, mredParams uint64) {
	for j := range p1 {
		p2[j] = InvMForm(p1[j], qi, mredParams)
	}
}

// MulCoeffsMontgomeryVec returns p3 = p1 * p2 * (2^64)^-1 mod qi.
func MulCoeffsMontgomeryVec(p1, p2, p3 []uint64, qi, mredParams uint64) {
	for j := range p1 {
		p3[j] = MRed(p1[j], p2[j], qi, mredParams)
	}
}

// MulCoeffsMontgomeryAndAddVec returns p3 = p3 + p1*p2*(2^64)^-1 mod qi.
func MulCoeffsMontgomeryAndAddVec(p1, p2, p3 []uint64, qi, mredParams uint64) {
	for j := range p1 {
		p3[j] = CRed(p3[j]+MRed(p1[j], p2[j], qi, mredParams), qi)
	}
}

// MulCoeffsMontgomeryAndSubVec returns p3 = p3 - p1*p2*(2^64)^-1 mod qi.
func MulCoeffsMontgomeryAndSubVec(p1, p2, p3 []uint64, qi, mredParams uint64) {
	for j := range p1 {
		p3[j] = CRed(p3[j]+qi-MRed(p1[j], p2[j], qi, mredParams), qi)
	}
}

// MulScalarMontgomeryVec returns p2 = p1 * scalarMont * (2^64)^-1 mod qi,
// where scalarMont is expected in the Montgomery domain.
func MulScalarMontgomeryVec(p1, p2 []uint64, scalarMont, qi, mredParams uint64) {
	for j := range p1 {
		p2[j] = MRed(p1[j], scalarMont, qi, mredParams)
	}
}

// AddScalarVec returns p2 = p1 + scalar mod qi, for scalar in [0, qi-1].
func AddScalarVec(p1, p2 []uint64, scalar, qi uint64) {
	for j := range p1 {
		p2[j] = CRed(p1[j]+scalar, qi)
	}
}

// AddLvl returns p3 = p1 + p2 mod each prime, for the rows 0 to level.
func (r *Ring) AddLvl(level int, p1, p2, p3 *Poly) {
	for i := 0; i <= level; i++ {
		AddVec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], r.Modulus[i])
	}
}

// SubLvl returns p3 = p1 - p2 mod each prime, for the rows 0 to level.
func (r *Ring) SubLvl(level int, p1, p2, p3 *Poly) {
	for i := 0; i <= level; i++ {
		SubVec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], r.Modulus[i])
	}
}

// NegLvl returns p2 = -p1 mod each prime, for the rows 0 to level.
func (r *Ring) NegLvl(level int, p1, p2 *Poly) {
	for i := 0; i <= level; i++ {
		NegVec(p1.Coeffs[i], p2.Coeffs[i], r.Modulus[i])
	}
}

// MFormLvl switches p1 to the Montgomery domain, for the rows 0 to level.
func (r *Ring) MFormLvl(level int, p1, p2 *Poly) {
	for i := 0; i <= level; i++ {
		MFormVec(p1.Coeffs[i], p2.Coeffs[i], r.Modulus[i], r.BredParams[i])
	}
}

// InvMFormLvl switches p1 out of the Montgomery domain, for the rows 0 to
// level.
func (r *Ring) InvMFormLvl(level int, p1, p2 *Poly) {
	for i := 0; i <= level; i++ {
		InvMFormVec(p1.Coeffs[i], p2.Coeffs[i], r.Modulus[i], r.MredParams[i])
	}
}

// MulCoeffsMontgomeryLvl returns p3 = p1 * p2, for the rows 0 to level. One
// of the two operands must be in the Montgomery domain; the result is in the
// domain of the other operand.
func (r *Ring) MulCoeffsMontgomeryLvl(level int, p1, p2, p3 *Poly) {
	for i := 0; i <= level; i++ {
		MulCoeffsMontgomeryVec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], r.Modulus[i], r.MredParams[i])
	}
}

// MulCoeffsMontgomeryAndAddLvl returns p3 = p3 + p1*p2, for the rows 0 to
// level, with the same domain convention as MulCoeffsMontgomeryLvl.
func (r *Ring) MulCoeffsMontgomeryAndAddLvl(level int, p1, p2, p3 *Poly) {
	for i := 0; i <= level; i++ {
		MulCoeffsMontgomeryAndAddVec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], r.Modulus[i], r.MredParams[i])
	}
}

// MulCoeffsMontgomeryAndSubLvl returns p3 = p3 - p1*p2, for the rows 0 to
// level.
func (r *Ring) MulCoeffsMontgomeryAndSubLvl(level int, p1, p2, p3 *Poly) {
	for i := 0; i <= level; i++ {
		MulCoeffsMontgomeryAndSubVec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], r.Modulus[i], r.MredParams[i])
	}
}

// MulScalarBigintLvl returns p2 = p1 * scalar mod each prime, for the rows 0
// to level.
func (r *Ring) MulScalarBigintLvl(level int, p1 *Poly, scalar *Int, p2 *Poly) {
	tmp := new(Int)
	for i := 0; i <= level; i++ {
		qi := r.Modulus[i]
		scalarQi := tmp.Mod(scalar, NewUint(qi)).Uint64()
		scalarMont := MForm(scalarQi, qi, r.BredParams[i])
		MulScalarMontgomeryVec(p1.Coeffs[i], p2.Coeffs[i], scalarMont, qi, r.MredParams[i])
	}
}
