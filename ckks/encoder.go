package ckks

import (
	"fmt"
	"math"
	"math/big"

	"github.com/fedshield/lattice/ring"
	"github.com/fedshield/lattice/utils/bignum"
)

// rootsPrecision is the big.Float precision used to derive the roots of
// unity of the canonical embedding.
const rootsPrecision = uint(128)

// Encoder embeds vectors of up to N/2 complex values into the ring through
// the canonical embedding: a special inverse FFT over the 2N-th roots of
// unity indexed by the rotation group, followed by scaling and rounding.
// An Encoder is not safe for concurrent use; see ShallowCopy.
type Encoder struct {
	params   Parameters
	ringQ    *ring.Ring
	m        int
	rotGroup []int
	roots    []complex128

	values       []complex128
	valuesFloat  []float64
	bigintCoeffs []*big.Int
	polypool     *ring.Poly
}

// NewEncoder creates a new Encoder for the given parameters.
func NewEncoder(params Parameters) *Encoder {

	m := 2 * params.N()
	slots := params.Slots()

	rotGroup := make([]int, slots)
	fivePows := 1
	for i := 0; i < slots; i++ {
		rotGroup[i] = fivePows
		fivePows = (fivePows * int(GaloisGen)) & (m - 1)
	}

	return &Encoder{
		params:       params,
		ringQ:        params.RingQ(),
		m:            m,
		rotGroup:     rotGroup,
		roots:        getRootsComplex128(m),
		values:       make([]complex128, slots),
		valuesFloat:  make([]float64, params.N()),
		bigintCoeffs: make([]*big.Int, params.N()),
		polypool:     params.RingQ().NewPoly(),
	}
}

// getRootsComplex128 returns the m-th roots of unity e^(2*pi*i*j/m),
// evaluated with high precision arithmetic before rounding to complex128.
func getRootsComplex128(m int) []complex128 {

	roots := make([]complex128, m+1)

	twoPiOverM := bignum.Pi(rootsPrecision)
	twoPiOverM.Mul(twoPiOverM, bignum.NewFloat(2.0, rootsPrecision))
	twoPiOverM.Quo(twoPiOverM, bignum.NewFloat(m, rootsPrecision))

	angle := new(big.Float).SetPrec(rootsPrecision)
	for j := 0; j < m>>1; j++ {
		angle.Mul(twoPiOverM, bignum.NewFloat(j, rootsPrecision))
		c, _ := bignum.Cos(angle).Float64()
		s, _ := bignum.Sin(angle).Float64()
		roots[j] = complex(c, s)
		roots[j+m>>1] = -roots[j]
	}
	roots[m] = roots[0]

	return roots
}

// ShallowCopy returns a copy of the Encoder sharing the read-only
// precomputations (roots, rotation group) but with fresh scratch buffers,
// for concurrent encoding.
func (ecd *Encoder) ShallowCopy() *Encoder {
	return &Encoder{
		params:       ecd.params,
		ringQ:        ecd.ringQ,
		m:            ecd.m,
		rotGroup:     ecd.rotGroup,
		roots:        ecd.roots,
		values:       make([]complex128, ecd.params.Slots()),
		valuesFloat:  make([]float64, ecd.params.N()),
		bigintCoeffs: make([]*big.Int, ecd.params.N()),
		polypool:     ecd.ringQ.NewPoly(),
	}
}

// Encode encodes values on the plaintext, at the plaintext's level and
// scale. Vectors shorter than N/2 are padded with zeros; longer vectors are
// rejected with ErrSlotOverflow.
func (ecd *Encoder) Encode(values []complex128, pt *Plaintext) error {

	slots := ecd.params.Slots()

	if len(values) > slots {
		return fmt.Errorf("%w: %d values for %d slots", ErrSlotOverflow, len(values), slots)
	}

	copy(ecd.values, values)
	for i := len(values); i < slots; i++ {
		ecd.values[i] = 0
	}

	SpecialInvFFT(ecd.values, slots, ecd.m, ecd.rotGroup, ecd.roots)

	for i, v := range ecd.values {
		ecd.valuesFloat[i] = real(v)
		ecd.valuesFloat[i+slots] = imag(v)
	}

	level := pt.Level()
	scaleUpVecExact(ecd.valuesFloat, pt.Scale, ecd.ringQ.Modulus[:level+1], pt.Value.Coeffs)
	ecd.ringQ.NTTLvl(level, pt.Value, pt.Value)

	return nil
}

// EncodeNew encodes values on a new plaintext at the given level and scale.
func (ecd *Encoder) EncodeNew(values []complex128, level int, scale float64) (*Plaintext, error) {
	pt := NewPlaintext(ecd.params, level, scale)
	if err := ecd.Encode(values, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

// EncodeFloat64 encodes real values on the plaintext.
func (ecd *Encoder) EncodeFloat64(values []float64, pt *Plaintext) error {
	cmplx := make([]complex128, len(values))
	for i, v := range values {
		cmplx[i] = complex(v, 0)
	}
	return ecd.Encode(cmplx, pt)
}

// Decode decodes the plaintext and returns the N/2 slot values.
func (ecd *Encoder) Decode(pt *Plaintext) []complex128 {

	slots := ecd.params.Slots()
	level := pt.Level()

	ecd.ringQ.InvNTTLvl(level, pt.Value, ecd.polypool)

	if level == 0 {
		ecd.polyToComplexNoCRT(ecd.polypool, pt.Scale, ecd.values)
	} else {
		ecd.polyToComplexCRT(level, ecd.polypool, pt.Scale, ecd.values)
	}

	SpecialFFT(ecd.values, slots, ecd.m, ecd.rotGroup, ecd.roots)

	res := make([]complex128, slots)
	copy(res, ecd.values)
	return res
}

// polyToComplexNoCRT recovers the centered slot values of a level 0
// polynomial, whose coefficients fit a single uint64 residue.
func (ecd *Encoder) polyToComplexNoCRT(p *ring.Poly, scale float64, values []complex128) {

	slots := ecd.params.Slots()
	q := ecd.ringQ.Modulus[0]
	qHalf := q >> 1

	for i := 0; i < slots; i++ {
		values[i] = complex(centeredFloat(p.Coeffs[0][i], q, qHalf), centeredFloat(p.Coeffs[0][i+slots], q, qHalf))
		values[i] /= complex(scale, 0)
	}
}

// polyToComplexCRT recovers the centered slot values of a polynomial through
// CRT reconstruction of its big.Int coefficients.
func (ecd *Encoder) polyToComplexCRT(level int, p *ring.Poly, scale float64, values []complex128) {

	slots := ecd.params.Slots()

	ecd.ringQ.PolyToBigintLvl(level, p, 1, ecd.bigintCoeffs)

	Q := ecd.ringQ.ModulusAtLevel[level]
	qHalf := new(big.Int).Rsh(Q, 1)

	for i := 0; i < slots; i++ {
		values[i] = complex(scaleDown(center(ecd.bigintCoeffs[i], Q, qHalf), scale), scaleDown(center(ecd.bigintCoeffs[i+slots], Q, qHalf), scale))
	}
}

func centeredFloat(c, q, qHalf uint64) float64 {
	if c >= qHalf {
		return -float64(q - c)
	}
	return float64(c)
}

// center maps c from [0, Q) to [-Q/2, Q/2).
func center(c, Q, qHalf *big.Int) *big.Int {
	if c.Cmp(qHalf) >= 0 {
		c.Sub(c, Q)
	}
	return c
}

// scaleDown divides the integer coefficient by the scale and returns the
// result as a float.
func scaleDown(coeff *big.Int, scale float64) (x float64) {
	x, _ = new(big.Float).SetInt(coeff).Float64()
	x /= scale
	return
}

// scaleUpVecExact multiplies each value by the scale, rounds, and spreads the
// result across the RNS rows. Values whose scaled magnitude exceeds the
// float64 integer range take an exact big.Float path.
func scaleUpVecExact(values []float64, scale float64, moduli []uint64, coeffs [][]uint64) {

	tmp := new(big.Int)

	for i, v := range values {

		if scaled := v * scale; math.Abs(scaled) > 1.8446744073709552e+19 {

			negative := scaled < 0

			xFlo := big.NewFloat(math.Abs(scaled))
			xFlo.Add(xFlo, big.NewFloat(0.5))
			xInt := new(big.Int)
			xFlo.Int(xInt)

			for j, qj := range moduli {
				c := tmp.Mod(xInt, ring.NewUint(qj)).Uint64()
				if negative && c != 0 {
					c = qj - c
				}
				coeffs[j][i] = c
			}

		} else {

			scaledInt := int64(math.Round(scaled))

			for j, qj := range moduli {
				if scaledInt < 0 {
					c := uint64(-scaledInt) % qj
					if c != 0 {
						c = qj - c
					}
					coeffs[j][i] = c
				} else {
					coeffs[j][i] = uint64(scaledInt) % qj
				}
			}
		}
	}
}
