package ckks

import (
	"github.com/fedshield/lattice/ring"
)

// Decryptor decrypts ciphertexts with the secret key. Decryption is always
// approximate: once the noise has outgrown the scale the output is silently
// corrupted, never an error. The caller is responsible for staying within
// the noise budget of the parameter set.
type Decryptor struct {
	params Parameters
	ringQ  *ring.Ring
	sk     *SecretKey
	pool   *ring.Poly
}

// NewDecryptor creates a new Decryptor for the given secret key.
func NewDecryptor(params Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{
		params: params,
		ringQ:  params.RingQ(),
		sk:     sk,
		pool:   params.RingQ().NewPoly(),
	}
}

// Decrypt decrypts ct on a new plaintext, evaluating c0 + c1*s + c2*s^2 + ...
// at the ciphertext's level and scale.
func (dec *Decryptor) Decrypt(ct *Ciphertext) *Plaintext {
	pt := NewPlaintext(dec.params, ct.Level(), ct.Scale)
	dec.DecryptOn(ct, pt)
	return pt
}

// DecryptOn decrypts ct on the receiver plaintext, whose level is adjusted
// to the ciphertext's.
func (dec *Decryptor) DecryptOn(ct *Ciphertext, pt *Plaintext) {

	ringQ := dec.ringQ
	level := ct.Level()

	pt.Value.Resize(level)
	pt.Scale = ct.Scale

	// Horner evaluation in s of the ciphertext polynomials.
	ring.CopyLvl(level, ct.Value[ct.Degree()], pt.Value)

	for i := ct.Degree() - 1; i >= 0; i-- {
		ringQ.MulCoeffsMontgomeryLvl(level, pt.Value, dec.sk.Value, pt.Value)
		ringQ.AddLvl(level, pt.Value, ct.Value[i], pt.Value)
	}
}
