package ckks

import (
	"github.com/fedshield/lattice/ring"
)

// Plaintext is a ring element carrying an encoded message and its scale. The
// value is always in the NTT domain.
type Plaintext struct {
	Value *ring.Poly
	Scale float64
}

// NewPlaintext creates a new zero Plaintext at the given level and scale.
func NewPlaintext(params Parameters, level int, scale float64) *Plaintext {
	return &Plaintext{
		Value: ring.NewPoly(params.N(), level),
		Scale: scale,
	}
}

// Level returns the level of the plaintext.
func (pt *Plaintext) Level() int {
	return pt.Value.Level()
}

// CopyNew creates a deep copy of the plaintext.
func (pt *Plaintext) CopyNew() *Plaintext {
	return &Plaintext{Value: pt.Value.CopyNew(), Scale: pt.Scale}
}

// Ciphertext is an element of degree Degree() encrypting a message at a
// given level and scale. Value[i] is the coefficient of s^i in the
// decryption equation; all values are in the NTT domain.
type Ciphertext struct {
	Value []*ring.Poly
	Scale float64
}

// NewCiphertext creates a new zero Ciphertext of the given degree, level and
// scale.
func NewCiphertext(params Parameters, degree, level int, scale float64) *Ciphertext {
	ct := &Ciphertext{
		Value: make([]*ring.Poly, degree+1),
		Scale: scale,
	}
	for i := range ct.Value {
		ct.Value[i] = ring.NewPoly(params.N(), level)
	}
	return ct
}

// Degree returns the degree of the ciphertext.
func (ct *Ciphertext) Degree() int {
	return len(ct.Value) - 1
}

// Level returns the level of the ciphertext.
func (ct *Ciphertext) Level() int {
	return ct.Value[0].Level()
}

// CopyNew creates a deep copy of the ciphertext.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	cp := &Ciphertext{
		Value: make([]*ring.Poly, len(ct.Value)),
		Scale: ct.Scale,
	}
	for i := range ct.Value {
		cp.Value[i] = ct.Value[i].CopyNew()
	}
	return cp
}

// Copy copies ct1 on the receiver, resizing the receiver if needed.
func (ct *Ciphertext) Copy(ct1 *Ciphertext) {
	ct.Scale = ct1.Scale
	if len(ct.Value) != len(ct1.Value) {
		ct.Value = make([]*ring.Poly, len(ct1.Value))
		for i := range ct.Value {
			ct.Value[i] = ct1.Value[i].CopyNew()
		}
		return
	}
	for i := range ct.Value {
		ct.Value[i].Resize(ct1.Value[i].Level())
		ct.Value[i].Copy(ct1.Value[i])
	}
}

// resize sets the receiver to the given degree and level, reusing the backing
// polynomials where possible.
func (ct *Ciphertext) resize(params Parameters, degree, level int) {
	for len(ct.Value) <= degree {
		ct.Value = append(ct.Value, ring.NewPoly(params.N(), level))
	}
	ct.Value = ct.Value[:degree+1]
	for i := range ct.Value {
		ct.Value[i].Resize(level)
	}
}
