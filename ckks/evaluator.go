package ckks

import (
	"fmt"

	"github.com/fedshield/lattice/ring"
	"github.com/fedshield/lattice/utils"
)

// Evaluator performs homomorphic operations on ciphertexts: additions,
// multiplications with relinearization, rescaling and slot rotations.
//
// Operands of binary operations must agree on level and, for additive
// operations, on scale. Mismatches are reported as errors and never fixed up
// implicitly: aligning operands costs levels or precision, a trade-off the
// caller must make explicitly with Rescale and DropLevel.
//
// An Evaluator is not safe for concurrent use; see ShallowCopy.
type Evaluator struct {
	params Parameters
	ringQ  *ring.Ring
	ringQP *ring.Ring
	rlk    *RelinearizationKey
	rtks   *RotationKeySet

	permuteNTTIndex map[uint64][]uint64

	poolQ      [5]*ring.Poly
	poolQP     [3]*ring.Poly
	poolInvNTT *ring.Poly
}

// NewEvaluator creates a new Evaluator holding the given evaluation keys.
// Both keys are optional: an evaluator without relinearization key cannot
// multiply, one without rotation keys cannot rotate.
func NewEvaluator(params Parameters, evk EvaluationKey) *Evaluator {

	eval := &Evaluator{
		params: params,
		ringQ:  params.RingQ(),
		ringQP: params.RingQP(),
		rlk:    evk.Rlk,
		rtks:   evk.Rtks,
	}

	eval.permuteNTTIndex = make(map[uint64][]uint64)
	if evk.Rtks != nil {
		for galEl := range evk.Rtks.Keys {
			eval.permuteNTTIndex[galEl] = eval.ringQ.PermuteNTTIndex(galEl)
		}
	}

	for i := range eval.poolQ {
		eval.poolQ[i] = eval.ringQ.NewPoly()
	}
	for i := range eval.poolQP {
		eval.poolQP[i] = eval.ringQP.NewPoly()
	}
	eval.poolInvNTT = eval.ringQ.NewPoly()

	return eval
}

// ShallowCopy returns a copy of the Evaluator sharing the evaluation keys
// but with fresh scratch buffers, for concurrent evaluation.
func (eval *Evaluator) ShallowCopy() *Evaluator {
	return NewEvaluator(eval.params, EvaluationKey{Rlk: eval.rlk, Rtks: eval.rtks})
}

// checkBinary verifies the level and scale compatibility of two operands.
func checkBinary(ct0, ct1 *Ciphertext, requireSameScale bool) error {
	if ct0.Level() != ct1.Level() {
		return fmt.Errorf("%w: %d and %d", ErrLevelMismatch, ct0.Level(), ct1.Level())
	}
	if requireSameScale && ct0.Scale != ct1.Scale {
		return fmt.Errorf("%w: %f and %f", ErrScaleMismatch, ct0.Scale, ct1.Scale)
	}
	return nil
}

// Add computes ctOut = ct0 + ct1. The operands must be at the same level and
// scale.
func (eval *Evaluator) Add(ct0, ct1, ctOut *Ciphertext) error {
	return eval.addSub(ct0, ct1, ctOut, false)
}

// Sub computes ctOut = ct0 - ct1. The operands must be at the same level and
// scale.
func (eval *Evaluator) Sub(ct0, ct1, ctOut *Ciphertext) error {
	return eval.addSub(ct0, ct1, ctOut, true)
}

func (eval *Evaluator) addSub(ct0, ct1, ctOut *Ciphertext, sub bool) error {

	if err := checkBinary(ct0, ct1, true); err != nil {
		return err
	}

	level := ct0.Level()
	minDeg := utils.Min(ct0.Degree(), ct1.Degree())
	maxDeg := utils.Max(ct0.Degree(), ct1.Degree())

	ctOut.resize(eval.params, maxDeg, level)

	for i := 0; i <= minDeg; i++ {
		if sub {
			eval.ringQ.SubLvl(level, ct0.Value[i], ct1.Value[i], ctOut.Value[i])
		} else {
			eval.ringQ.AddLvl(level, ct0.Value[i], ct1.Value[i], ctOut.Value[i])
		}
	}

	// The tail of the higher degree operand is copied, negated when it is
	// the subtrahend.
	if ct0.Degree() > minDeg {
		for i := minDeg + 1; i <= maxDeg; i++ {
			ring.CopyLvl(level, ct0.Value[i], ctOut.Value[i])
		}
	} else if ct1.Degree() > minDeg {
		for i := minDeg + 1; i <= maxDeg; i++ {
			if sub {
				eval.ringQ.NegLvl(level, ct1.Value[i], ctOut.Value[i])
			} else {
				ring.CopyLvl(level, ct1.Value[i], ctOut.Value[i])
			}
		}
	}

	ctOut.Scale = ct0.Scale
	return nil
}

// AddNew computes ct0 + ct1 on a new ciphertext.
func (eval *Evaluator) AddNew(ct0, ct1 *Ciphertext) (*Ciphertext, error) {
	ctOut := NewCiphertext(eval.params, utils.Max(ct0.Degree(), ct1.Degree()), ct0.Level(), ct0.Scale)
	if err := eval.Add(ct0, ct1, ctOut); err != nil {
		return nil, err
	}
	return ctOut, nil
}

// SubNew computes ct0 - ct1 on a new ciphertext.
func (eval *Evaluator) SubNew(ct0, ct1 *Ciphertext) (*Ciphertext, error) {
	ctOut := NewCiphertext(eval.params, utils.Max(ct0.Degree(), ct1.Degree()), ct0.Level(), ct0.Scale)
	if err := eval.Sub(ct0, ct1, ctOut); err != nil {
		return nil, err
	}
	return ctOut, nil
}

// Neg computes ctOut = -ct0.
func (eval *Evaluator) Neg(ct0, ctOut *Ciphertext) {
	level := ct0.Level()
	ctOut.resize(eval.params, ct0.Degree(), level)
	for i := range ct0.Value {
		eval.ringQ.NegLvl(level, ct0.Value[i], ctOut.Value[i])
	}
	ctOut.Scale = ct0.Scale
}

// NegNew computes -ct0 on a new ciphertext.
func (eval *Evaluator) NegNew(ct0 *Ciphertext) *Ciphertext {
	ctOut := NewCiphertext(eval.params, ct0.Degree(), ct0.Level(), ct0.Scale)
	eval.Neg(ct0, ctOut)
	return ctOut
}

// AddPlaintext computes ctOut = ct0 + pt. The plaintext must be at the
// ciphertext's level and scale.
func (eval *Evaluator) AddPlaintext(ct0 *Ciphertext, pt *Plaintext, ctOut *Ciphertext) error {

	if ct0.Level() != pt.Level() {
		return fmt.Errorf("%w: %d and %d", ErrLevelMismatch, ct0.Level(), pt.Level())
	}
	if ct0.Scale != pt.Scale {
		return fmt.Errorf("%w: %f and %f", ErrScaleMismatch, ct0.Scale, pt.Scale)
	}

	level := ct0.Level()
	ctOut.resize(eval.params, ct0.Degree(), level)
	eval.ringQ.AddLvl(level, ct0.Value[0], pt.Value, ctOut.Value[0])
	for i := 1; i <= ct0.Degree(); i++ {
		ring.CopyLvl(level, ct0.Value[i], ctOut.Value[i])
	}
	ctOut.Scale = ct0.Scale
	return nil
}

// MulRelin computes ctOut = ct0 * ct1 followed by a relinearization back to
// degree 1. The operands must be of degree 1 and at the same non-zero level;
// the output scale is the product of the operand scales and the caller is
// expected to Rescale.
func (eval *Evaluator) MulRelin(ct0, ct1, ctOut *Ciphertext) error {

	if err := checkBinary(ct0, ct1, false); err != nil {
		return err
	}

	if ct0.Degree() != 1 || ct1.Degree() != 1 {
		return fmt.Errorf("ckks: multiplication operands must have degree 1, have %d and %d", ct0.Degree(), ct1.Degree())
	}

	if ct0.Level() == 0 {
		return fmt.Errorf("%w: cannot multiply at level 0", ErrLevelExhausted)
	}

	if eval.rlk == nil {
		return ErrMissingRelinKey
	}

	ringQ := eval.ringQ
	level := ct0.Level()

	c00, c01 := eval.poolQ[0], eval.poolQ[1]
	pc0, pc1, pc2 := eval.poolQ[2], eval.poolQ[3], eval.poolQ[4]

	ringQ.MFormLvl(level, ct0.Value[0], c00)
	ringQ.MFormLvl(level, ct0.Value[1], c01)

	if ct0 == ct1 {
		// Squaring: (a0 + a1*s)^2 = a0^2 + 2*a0*a1*s + a1^2*s^2.
		ringQ.MulCoeffsMontgomeryLvl(level, c00, ct0.Value[0], pc0)
		ringQ.MulCoeffsMontgomeryLvl(level, c00, ct0.Value[1], pc1)
		ringQ.AddLvl(level, pc1, pc1, pc1)
		ringQ.MulCoeffsMontgomeryLvl(level, c01, ct0.Value[1], pc2)
	} else {
		ringQ.MulCoeffsMontgomeryLvl(level, c00, ct1.Value[0], pc0)
		ringQ.MulCoeffsMontgomeryLvl(level, c00, ct1.Value[1], pc1)
		ringQ.MulCoeffsMontgomeryAndAddLvl(level, c01, ct1.Value[0], pc1)
		ringQ.MulCoeffsMontgomeryLvl(level, c01, ct1.Value[1], pc2)
	}

	// Relinearize the degree 2 term with the key for s^2.
	p0QP, p1QP := eval.poolQP[0], eval.poolQP[1]
	eval.switchKeysInPlace(level, pc2, eval.rlk.Value, p0QP, p1QP)

	scale := ct0.Scale * ct1.Scale
	ctOut.resize(eval.params, 1, level)
	ringQ.AddLvl(level, pc0, p0QP, ctOut.Value[0])
	ringQ.AddLvl(level, pc1, p1QP, ctOut.Value[1])
	ctOut.Scale = scale

	return nil
}

// MulRelinNew computes ct0 * ct1 with relinearization on a new ciphertext.
func (eval *Evaluator) MulRelinNew(ct0, ct1 *Ciphertext) (*Ciphertext, error) {
	ctOut := NewCiphertext(eval.params, 1, ct0.Level(), ct0.Scale*ct1.Scale)
	if err := eval.MulRelin(ct0, ct1, ctOut); err != nil {
		return nil, err
	}
	return ctOut, nil
}

// Rescale divides ct by the last modulus of its chain with rounding, moving
// it down one level and dividing its scale by that modulus. At level 0 the
// chain is exhausted and ErrLevelExhausted is returned.
func (eval *Evaluator) Rescale(ct, ctOut *Ciphertext) error {

	level := ct.Level()
	if level == 0 {
		return fmt.Errorf("%w: cannot rescale at level 0", ErrLevelExhausted)
	}

	if ctOut != ct {
		ctOut.resize(eval.params, ct.Degree(), level-1)
	}

	for i := range ct.Value {
		eval.ringQ.DivRoundByLastModulusNTTLvl(level, ct.Value[i], eval.poolQ[0], ctOut.Value[i])
	}

	if ctOut == ct {
		for i := range ctOut.Value {
			ctOut.Value[i].Resize(level - 1)
		}
	}

	ctOut.Scale = ct.Scale / float64(eval.ringQ.Modulus[level])
	return nil
}

// RescaleNew rescales ct on a new ciphertext.
func (eval *Evaluator) RescaleNew(ct *Ciphertext) (*Ciphertext, error) {
	if ct.Level() == 0 {
		return nil, fmt.Errorf("%w: cannot rescale at level 0", ErrLevelExhausted)
	}
	ctOut := NewCiphertext(eval.params, ct.Degree(), ct.Level()-1, ct.Scale)
	if err := eval.Rescale(ct, ctOut); err != nil {
		return nil, err
	}
	return ctOut, nil
}

// DropLevel removes the given number of moduli from the ciphertext's chain
// without changing its scale or the encrypted values.
func (eval *Evaluator) DropLevel(ct *Ciphertext, levels int) error {
	newLevel := ct.Level() - levels
	if newLevel < 0 {
		return fmt.Errorf("%w: cannot drop %d levels from level %d", ErrLevelExhausted, levels, ct.Level())
	}
	for i := range ct.Value {
		ct.Value[i].Resize(newLevel)
	}
	return nil
}

// Rotate rotates the slots of ct by k positions to the left. The evaluator
// must hold the rotation key for this step.
func (eval *Evaluator) Rotate(ct *Ciphertext, k int, ctOut *Ciphertext) error {
	if k == 0 {
		ctOut.Copy(ct)
		return nil
	}
	return eval.automorphism(ct, eval.params.GaloisElementForColumnRotationBy(k), ctOut)
}

// RotateNew rotates the slots of ct by k positions to the left on a new
// ciphertext.
func (eval *Evaluator) RotateNew(ct *Ciphertext, k int) (*Ciphertext, error) {
	ctOut := NewCiphertext(eval.params, 1, ct.Level(), ct.Scale)
	if err := eval.Rotate(ct, k, ctOut); err != nil {
		return nil, err
	}
	return ctOut, nil
}

// Conjugate applies the complex conjugation on the slots of ct. The
// evaluator must hold the conjugation key.
func (eval *Evaluator) Conjugate(ct, ctOut *Ciphertext) error {
	return eval.automorphism(ct, eval.params.GaloisElementForRowRotation(), ctOut)
}

// ConjugateNew applies the complex conjugation on a new ciphertext.
func (eval *Evaluator) ConjugateNew(ct *Ciphertext) (*Ciphertext, error) {
	ctOut := NewCiphertext(eval.params, 1, ct.Level(), ct.Scale)
	if err := eval.Conjugate(ct, ctOut); err != nil {
		return nil, err
	}
	return ctOut, nil
}

// automorphism applies the Galois automorphism of galEl: the degree 1 term
// is switched back under the original secret, then both terms are permuted
// in the NTT domain.
func (eval *Evaluator) automorphism(ct *Ciphertext, galEl uint64, ctOut *Ciphertext) error {

	if ct.Degree() != 1 {
		return fmt.Errorf("ckks: automorphism operand must have degree 1, has %d", ct.Degree())
	}

	var swk *SwitchingKey
	var ok bool
	if eval.rtks != nil {
		swk, ok = eval.rtks.GetRotationKey(galEl)
	}
	if !ok {
		return fmt.Errorf("%w: galois element %d", ErrMissingRotationKey, galEl)
	}

	index, ok := eval.permuteNTTIndex[galEl]
	if !ok {
		index = eval.ringQ.PermuteNTTIndex(galEl)
		eval.permuteNTTIndex[galEl] = index
	}

	ringQ := eval.ringQ
	level := ct.Level()

	p0QP, p1QP := eval.poolQP[0], eval.poolQP[1]
	eval.switchKeysInPlace(level, ct.Value[1], swk, p0QP, p1QP)
	ringQ.AddLvl(level, p0QP, ct.Value[0], p0QP)

	scale := ct.Scale
	ctOut.resize(eval.params, 1, level)
	ring.PermuteNTTWithIndexLvl(level, p0QP, index, ctOut.Value[0])
	ring.PermuteNTTWithIndexLvl(level, p1QP, index, ctOut.Value[1])
	ctOut.Scale = scale

	return nil
}

// SwitchKeys re-encrypts ct under the secret the switching key points to.
func (eval *Evaluator) SwitchKeys(ct *Ciphertext, swk *SwitchingKey, ctOut *Ciphertext) error {

	if ct.Degree() != 1 {
		return fmt.Errorf("ckks: key switch operand must have degree 1, has %d", ct.Degree())
	}

	ringQ := eval.ringQ
	level := ct.Level()

	p0QP, p1QP := eval.poolQP[0], eval.poolQP[1]
	eval.switchKeysInPlace(level, ct.Value[1], swk, p0QP, p1QP)

	scale := ct.Scale
	ctOut.resize(eval.params, 1, level)
	ringQ.AddLvl(level, p0QP, ct.Value[0], ctOut.Value[0])
	ring.CopyLvl(level, p1QP, ctOut.Value[1])
	ctOut.Scale = scale

	return nil
}

// switchKeysInPlace computes the gadget product of cx (in the NTT domain,
// over Q at the given level) with the switching key: cx is pulled back to
// the coefficient domain, decomposed in its per-prime digits, and each digit
// is lifted to Q·P, multiplied with the matching key entry and accumulated.
// The special modulus is then rounded away. The results are written on the
// rows 0..level of p0QP and p1QP.
func (eval *Evaluator) switchKeysInPlace(level int, cx *ring.Poly, swk *SwitchingKey, p0QP, p1QP *ring.Poly) {

	ringQ := eval.ringQ
	ringQP := eval.ringQP
	pRow := len(ringQ.Modulus)
	digit := eval.poolQP[2]

	ringQ.InvNTTLvl(level, cx, eval.poolInvNTT)

	rows := make([]int, 0, level+2)
	for j := 0; j <= level; j++ {
		rows = append(rows, j)
	}
	rows = append(rows, pRow)

	for _, j := range rows {
		zero(p0QP.Coeffs[j])
		zero(p1QP.Coeffs[j])
	}

	for i := 0; i <= level; i++ {

		// Digit i is the lift of cx mod q_i, spread over Q and P.
		src := eval.poolInvNTT.Coeffs[i]

		for _, j := range rows {

			qj := ringQP.Modulus[j]
			mredParams := ringQP.MredParams[j]

			if j == i {
				copy(digit.Coeffs[j], src)
			} else {
				ring.ReduceVec(src, digit.Coeffs[j], qj, ringQP.BredParams[j])
			}

			ring.NTTSingle(digit.Coeffs[j], digit.Coeffs[j], ringQP.N, ringQP.NttPsi[j], qj, mredParams)

			ring.MulCoeffsMontgomeryAndAddVec(digit.Coeffs[j], swk.Value[i][0].Coeffs[j], p0QP.Coeffs[j], qj, mredParams)
			ring.MulCoeffsMontgomeryAndAddVec(digit.Coeffs[j], swk.Value[i][1].Coeffs[j], p1QP.Coeffs[j], qj, mredParams)
		}
	}

	// Divide by P with rounding, falling back to Q.
	ringQP.ModDownNTTLvl(level, p0QP, digit, p0QP)
	ringQP.ModDownNTTLvl(level, p1QP, digit, p1QP)
}

func zero(s []uint64) {
	for i := range s {
		s[i] = 0
	}
}
