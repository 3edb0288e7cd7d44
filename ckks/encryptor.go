package ckks

import (
	"fmt"

	"github.com/fedshield/lattice/ring"
	"github.com/fedshield/lattice/utils/sampling"
)

// Encryptor encrypts plaintexts, either under a public key or directly under
// the secret key. An Encryptor is not safe for concurrent use; see
// ShallowCopy.
type Encryptor struct {
	params Parameters
	ringQ  *ring.Ring
	pk     *PublicKey
	sk     *SecretKey

	prng            sampling.PRNG
	ternarySampler  *ring.TernarySampler
	gaussianSampler *ring.GaussianSampler
	uniformSampler  *ring.UniformSampler
	poolQ           *ring.Poly
}

// NewEncryptor creates a new Encryptor from either a *PublicKey or a
// *SecretKey.
func NewEncryptor(params Parameters, key interface{}) (*Encryptor, error) {

	enc := &Encryptor{params: params, ringQ: params.RingQ()}

	switch key := key.(type) {
	case *PublicKey:
		enc.pk = key
	case *SecretKey:
		enc.sk = key
	default:
		return nil, fmt.Errorf("ckks: invalid encryption key type %T (must be *PublicKey or *SecretKey)", key)
	}

	prng, err := sampling.NewPRNG()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGenFailure, err)
	}

	enc.prng = prng
	enc.ternarySampler = ring.NewTernarySampler(prng, params.RingQ(), 1.0/3.0, false)
	enc.gaussianSampler = ring.NewGaussianSampler(prng, params.RingQ(), params.Sigma(), DefaultBound)
	enc.uniformSampler = ring.NewUniformSampler(prng, params.RingQ())
	enc.poolQ = params.RingQ().NewPoly()

	return enc, nil
}

// ShallowCopy returns a copy of the Encryptor with fresh buffers and an
// independent PRNG, for concurrent encryption under the same key.
func (enc *Encryptor) ShallowCopy() (*Encryptor, error) {
	if enc.pk != nil {
		return NewEncryptor(enc.params, enc.pk)
	}
	return NewEncryptor(enc.params, enc.sk)
}

// Encrypt encrypts pt on ct, at the plaintext's level and scale. The
// receiver must be of degree 1; its level is adjusted to the plaintext's.
func (enc *Encryptor) Encrypt(pt *Plaintext, ct *Ciphertext) error {

	if ct.Degree() != 1 {
		return fmt.Errorf("ckks: encryption receiver must have degree 1, has %d", ct.Degree())
	}

	level := pt.Level()
	ct.resize(enc.params, 1, level)

	if enc.pk != nil {
		enc.encryptPk(level, pt, ct)
	} else {
		enc.encryptSk(level, pt, ct)
	}

	ct.Scale = pt.Scale
	return nil
}

// EncryptNew encrypts pt on a new degree 1 ciphertext.
func (enc *Encryptor) EncryptNew(pt *Plaintext) (*Ciphertext, error) {
	ct := NewCiphertext(enc.params, 1, pt.Level(), pt.Scale)
	if err := enc.Encrypt(pt, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// encryptPk computes (u*pk0 + e0 + pt, u*pk1 + e1) for a fresh ternary u.
func (enc *Encryptor) encryptPk(level int, pt *Plaintext, ct *Ciphertext) {

	ringQ := enc.ringQ
	u := enc.poolQ

	enc.ternarySampler.ReadLvl(level, u)
	ringQ.NTTLvl(level, u, u)

	ringQ.MulCoeffsMontgomeryLvl(level, u, enc.pk.Value[0], ct.Value[0])
	ringQ.MulCoeffsMontgomeryLvl(level, u, enc.pk.Value[1], ct.Value[1])

	// e0, e1
	enc.gaussianSampler.ReadLvl(level, u)
	ringQ.NTTLvl(level, u, u)
	ringQ.AddLvl(level, ct.Value[0], u, ct.Value[0])

	enc.gaussianSampler.ReadLvl(level, u)
	ringQ.NTTLvl(level, u, u)
	ringQ.AddLvl(level, ct.Value[1], u, ct.Value[1])

	ringQ.AddLvl(level, ct.Value[0], pt.Value, ct.Value[0])
}

// encryptSk computes (-a*s + e + pt, a) for a fresh uniform a.
func (enc *Encryptor) encryptSk(level int, pt *Plaintext, ct *Ciphertext) {

	ringQ := enc.ringQ

	enc.uniformSampler.ReadLvl(level, ct.Value[1])

	ringQ.MulCoeffsMontgomeryLvl(level, ct.Value[1], enc.sk.Value, ct.Value[0])
	ringQ.NegLvl(level, ct.Value[0], ct.Value[0])

	e := enc.poolQ
	enc.gaussianSampler.ReadLvl(level, e)
	ringQ.NTTLvl(level, e, e)
	ringQ.AddLvl(level, ct.Value[0], e, ct.Value[0])

	ringQ.AddLvl(level, ct.Value[0], pt.Value, ct.Value[0])
}
