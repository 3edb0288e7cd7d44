// Package ckks implements a leveled approximate homomorphic encryption
// scheme over the complex numbers (CKKS). Plaintexts are vectors of up to
// N/2 complex values, embedded in the cyclotomic ring Z_Q[X]/(X^N+1) through
// the canonical embedding, and arithmetic on ciphertexts carries over to
// approximate slot-wise arithmetic on the encrypted vectors.
package ckks

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/google/go-cmp/cmp"

	"github.com/fedshield/lattice/ring"
	"github.com/fedshield/lattice/utils/bignum"
)

// GaloisGen is the generator of the multiplicative subgroup of Z/2NZ acting
// on the slots by rotation. The powers of 5 mod 2N index the slot rotations.
const GaloisGen uint64 = 5

// DefaultSigma is the standard deviation of the error distribution.
const DefaultSigma = 3.2

// The error distribution is truncated at DefaultBound = 6*sigma.
const DefaultBound = 6 * DefaultSigma

// ParametersLiteral is a literal representation of scheme parameters. Users
// provide either the explicit moduli (Q, P) or their bit-sizes (LogQ, LogP),
// in which case suitable NTT-friendly primes are generated.
type ParametersLiteral struct {
	LogN  int      // Ring degree N = 2^LogN
	Q     []uint64 // Modulus chain (explicit)
	P     uint64   // Special key-switch modulus (explicit)
	LogQ  []int    `json:",omitempty"` // Modulus chain (bit-sizes)
	LogP  int      `json:",omitempty"` // Special modulus (bit-size)
	Scale float64  // Default encoding scale
	Sigma float64  // Error standard deviation (0 = DefaultSigma)
	H     int      // Secret hamming weight (0 = dense ternary)
}

// Parameters holds a validated parameter set together with the precomputed
// rings.
type Parameters struct {
	logN   int
	qi     []uint64
	p      uint64
	scale  float64
	sigma  float64
	h      int
	ringQ  *ring.Ring
	ringQP *ring.Ring
}

// PN12QP109 is an example parameter set with logN = 12 and a 109-bit
// ciphertext modulus, fit for shallow circuits.
var PN12QP109 = ParametersLiteral{
	LogN:  12,
	LogQ:  []int{37, 36},
	LogP:  36,
	Scale: 1 << 36,
}

// PN13QP218 is an example parameter set with logN = 13 and a 218-bit
// ciphertext modulus.
var PN13QP218 = ParametersLiteral{
	LogN:  13,
	LogQ:  []int{50, 42, 42, 42},
	LogP:  42,
	Scale: 1 << 42,
}

// NewParametersFromLiteral validates a ParametersLiteral and returns the
// corresponding Parameters, generating the modulus chain from LogQ/LogP when
// no explicit moduli are given.
func NewParametersFromLiteral(pl ParametersLiteral) (Parameters, error) {

	if pl.LogN < 3 || pl.LogN > 17 {
		return Parameters{}, fmt.Errorf("invalid parameters: LogN (%d) must be in [3, 17]", pl.LogN)
	}

	qi, p := pl.Q, pl.P

	if len(qi) == 0 {
		if len(pl.LogQ) == 0 {
			return Parameters{}, fmt.Errorf("invalid parameters: one of Q or LogQ must be set")
		}
		var err error
		if qi, p, err = genModuli(pl.LogN, pl.LogQ, pl.LogP); err != nil {
			return Parameters{}, err
		}
	} else if p == 0 {
		return Parameters{}, fmt.Errorf("invalid parameters: P must be set when Q is explicit")
	}

	return NewParameters(pl.LogN, qi, p, pl.Scale, pl.Sigma, pl.H)
}

// NewParameters creates a new parameter set from an explicit modulus chain qi,
// special modulus p, and default encoding scale. A sigma of 0 selects
// DefaultSigma and an h of 0 selects the dense ternary secret distribution.
func NewParameters(logN int, qi []uint64, p uint64, scale, sigma float64, h int) (Parameters, error) {

	if len(qi) < 2 {
		return Parameters{}, fmt.Errorf("invalid parameters: the modulus chain must contain at least 2 primes, has %d", len(qi))
	}

	if scale <= 0 {
		return Parameters{}, fmt.Errorf("invalid parameters: scale must be positive, is %f", scale)
	}

	if sigma < 0 {
		return Parameters{}, fmt.Errorf("invalid parameters: sigma must be non-negative, is %f", sigma)
	}

	if sigma == 0 {
		sigma = DefaultSigma
	}

	N := 1 << logN

	// Both rings validate primality, distinctness and NTT-friendliness of
	// their chain; building ringQP also rules out p colliding with any qi.
	ringQ, err := ring.NewRing(N, qi)
	if err != nil {
		return Parameters{}, err
	}

	ringQP, err := ring.NewRing(N, append(append([]uint64{}, qi...), p))
	if err != nil {
		return Parameters{}, err
	}

	return Parameters{
		logN:   logN,
		qi:     append([]uint64{}, qi...),
		p:      p,
		scale:  scale,
		sigma:  sigma,
		h:      h,
		ringQ:  ringQ,
		ringQP: ringQP,
	}, nil
}

// genModuli generates NTT-friendly primes of the requested bit-sizes for the
// modulus chain and the special modulus.
func genModuli(logN int, logQ []int, logP int) (qi []uint64, p uint64, err error) {

	if logP == 0 {
		return nil, 0, fmt.Errorf("invalid parameters: LogP must be set when using LogQ")
	}

	// Number of primes needed per bit-size, the special modulus included.
	sizes := map[int]int{logP: 1}
	for _, logqi := range logQ {
		sizes[logqi]++
	}

	generated := map[int][]uint64{}
	for size, n := range sizes {
		if generated[size], err = ring.GenerateNTTPrimes(size, logN, n); err != nil {
			return nil, 0, err
		}
	}

	qi = make([]uint64, len(logQ))
	for i, size := range logQ {
		qi[i] = generated[size][0]
		generated[size] = generated[size][1:]
	}
	p = generated[logP][0]

	return qi, p, nil
}

// N returns the ring degree.
func (p Parameters) N() int {
	return 1 << p.logN
}

// LogN returns log2 of the ring degree.
func (p Parameters) LogN() int {
	return p.logN
}

// Slots returns the number of plaintext slots, N/2.
func (p Parameters) Slots() int {
	return 1 << (p.logN - 1)
}

// MaxLevel returns the level of a fresh ciphertext, len(Q)-1.
func (p Parameters) MaxLevel() int {
	return len(p.qi) - 1
}

// Q returns a copy of the modulus chain.
func (p Parameters) Q() []uint64 {
	return append([]uint64{}, p.qi...)
}

// QCount returns the number of primes in the modulus chain.
func (p Parameters) QCount() int {
	return len(p.qi)
}

// P returns the special key-switch modulus.
func (p Parameters) P() uint64 {
	return p.p
}

// Scale returns the default encoding scale.
func (p Parameters) Scale() float64 {
	return p.scale
}

// Sigma returns the standard deviation of the error distribution.
func (p Parameters) Sigma() float64 {
	return p.sigma
}

// H returns the hamming weight of the secret, 0 meaning dense ternary.
func (p Parameters) H() int {
	return p.h
}

// RingQ returns the polynomial ring modulo the modulus chain.
func (p Parameters) RingQ() *ring.Ring {
	return p.ringQ
}

// RingQP returns the polynomial ring modulo the modulus chain extended with
// the special modulus.
func (p Parameters) RingQP() *ring.Ring {
	return p.ringQP
}

// QBigInt returns the product of the moduli up to the given level.
func (p Parameters) QBigInt(level int) *big.Int {
	return new(big.Int).Set(p.ringQ.ModulusAtLevel[level])
}

// LogQP returns the exact bit-size of the product of all the moduli,
// special modulus included.
func (p Parameters) LogQP() float64 {
	prec := uint(128)
	qp := new(big.Int).Mul(p.ringQ.ModulusAtLevel[p.MaxLevel()], new(big.Int).SetUint64(p.p))
	logqp := bignum.Log(bignum.NewFloat(qp, prec))
	logqp.Quo(logqp, bignum.Log2(prec))
	f, _ := logqp.Float64()
	return f
}

// GaloisElementForColumnRotationBy returns the Galois element 5^k mod 2N
// realizing a rotation of the slots by k positions to the left.
func (p Parameters) GaloisElementForColumnRotationBy(k int) uint64 {
	twoN := uint64(2 << p.logN)
	order := 1 << (p.logN - 1)
	k %= order
	if k < 0 {
		k += order
	}
	return ring.ModExp(GaloisGen, uint64(k), twoN)
}

// GaloisElementForRowRotation returns the Galois element -1 mod 2N realizing
// the complex conjugation of the slots.
func (p Parameters) GaloisElementForRowRotation() uint64 {
	return uint64(2<<p.logN) - 1
}

// GaloisElementsForRotations returns the Galois elements for the given
// rotation steps.
func (p Parameters) GaloisElementsForRotations(ks []int) []uint64 {
	galEls := make([]uint64, len(ks))
	for i, k := range ks {
		galEls[i] = p.GaloisElementForColumnRotationBy(k)
	}
	return galEls
}

// InverseGaloisElement returns galEl^-1 mod 2N.
func (p Parameters) InverseGaloisElement(galEl uint64) uint64 {
	twoN := uint64(2 << p.logN)
	// The group (Z/2NZ)* has order N.
	return ring.ModExp(galEl, uint64(1<<p.logN)-1, twoN)
}

// Equal returns true if the two parameter sets are identical.
func (p Parameters) Equal(other Parameters) bool {
	return p.logN == other.logN &&
		cmp.Equal(p.qi, other.qi) &&
		p.p == other.p &&
		p.scale == other.scale &&
		p.sigma == other.sigma &&
		p.h == other.h
}

// MarshalJSON encodes the parameters as a ParametersLiteral with explicit
// moduli.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(ParametersLiteral{
		LogN:  p.logN,
		Q:     p.Q(),
		P:     p.p,
		Scale: p.scale,
		Sigma: p.sigma,
		H:     p.h,
	})
}

// UnmarshalJSON decodes parameters marshalled with MarshalJSON.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var pl ParametersLiteral
	if err := json.Unmarshal(data, &pl); err != nil {
		return err
	}
	params, err := NewParametersFromLiteral(pl)
	if err != nil {
		return err
	}
	*p = params
	return nil
}

// MarshalBinary encodes the parameters in their canonical JSON form.
func (p Parameters) MarshalBinary() ([]byte, error) {
	return p.MarshalJSON()
}

// UnmarshalBinary decodes parameters marshalled with MarshalBinary.
func (p *Parameters) UnmarshalBinary(data []byte) error {
	return p.UnmarshalJSON(data)
}
