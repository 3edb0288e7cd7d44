package ckks

import (
	"fmt"

	"github.com/fedshield/lattice/ring"
	"github.com/fedshield/lattice/utils/sampling"
)

// KeyGenerator generates the key material of the scheme: secret and public
// keys, relinearization keys and rotation keys. A KeyGenerator is not safe
// for concurrent use.
type KeyGenerator struct {
	params          Parameters
	ringQ           *ring.Ring
	ringQP          *ring.Ring
	prng            sampling.PRNG
	uniformSampler  *ring.UniformSampler
	gaussianSampler *ring.GaussianSampler
	ternarySampler  *ring.TernarySampler
	polypool        [2]*ring.Poly
}

// NewKeyGenerator creates a new KeyGenerator seeded from the system entropy
// source. An entropy failure is reported as a wrapped ErrKeyGenFailure.
func NewKeyGenerator(params Parameters) (*KeyGenerator, error) {

	prng, err := sampling.NewPRNG()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGenFailure, err)
	}

	ringQP := params.RingQP()

	var ternarySampler *ring.TernarySampler
	if params.H() > 0 {
		ternarySampler = ring.NewTernarySamplerSparse(prng, ringQP, params.H(), false)
	} else {
		// Dense ternary secret: -1, 0 and 1 with equal probability.
		ternarySampler = ring.NewTernarySampler(prng, ringQP, 1.0/3.0, false)
	}

	return &KeyGenerator{
		params:          params,
		ringQ:           params.RingQ(),
		ringQP:          ringQP,
		prng:            prng,
		uniformSampler:  ring.NewUniformSampler(prng, ringQP),
		gaussianSampler: ring.NewGaussianSampler(prng, ringQP, params.Sigma(), DefaultBound),
		ternarySampler:  ternarySampler,
		polypool:        [2]*ring.Poly{ringQP.NewPoly(), ringQP.NewPoly()},
	}, nil
}

// GenSecretKey samples a new ternary secret key, dense or sparse following
// the parameters.
func (kgen *KeyGenerator) GenSecretKey() *SecretKey {
	return kgen.genSecretKey(kgen.ternarySampler)
}

// GenSecretKeySparse samples a new ternary secret key with exactly hw
// non-zero coefficients.
func (kgen *KeyGenerator) GenSecretKeySparse(hw int) *SecretKey {
	return kgen.genSecretKey(ring.NewTernarySamplerSparse(kgen.prng, kgen.ringQP, hw, false))
}

func (kgen *KeyGenerator) genSecretKey(sampler *ring.TernarySampler) *SecretKey {
	sk := NewSecretKey(kgen.params)
	sampler.Read(sk.Value)
	kgen.ringQP.NTT(sk.Value, sk.Value)
	kgen.ringQP.MFormLvl(sk.Value.Level(), sk.Value, sk.Value)
	return sk
}

// GenPublicKey generates a new encryption of zero (-a*s + e, a) under sk,
// over the modulus chain Q.
func (kgen *KeyGenerator) GenPublicKey(sk *SecretKey) *PublicKey {

	pk := NewPublicKey(kgen.params)
	levelQ := kgen.params.MaxLevel()

	// b = e
	kgen.gaussianSampler.ReadLvl(levelQ, pk.Value[0])
	kgen.ringQ.NTTLvl(levelQ, pk.Value[0], pk.Value[0])

	// a
	kgen.uniformSampler.ReadLvl(levelQ, pk.Value[1])

	// b = e - a*s
	kgen.ringQ.MulCoeffsMontgomeryAndSubLvl(levelQ, pk.Value[1], sk.Value, pk.Value[0])

	kgen.ringQ.MFormLvl(levelQ, pk.Value[0], pk.Value[0])
	kgen.ringQ.MFormLvl(levelQ, pk.Value[1], pk.Value[1])

	return pk
}

// GenKeyPair generates a new secret key and the matching public key.
func (kgen *KeyGenerator) GenKeyPair() (*SecretKey, *PublicKey) {
	sk := kgen.GenSecretKey()
	return sk, kgen.GenPublicKey(sk)
}

// GenRelinearizationKey generates the switching key from sk^2 to sk.
func (kgen *KeyGenerator) GenRelinearizationKey(sk *SecretKey) *RelinearizationKey {
	skSquared := kgen.polypool[1]
	kgen.ringQP.MulCoeffsMontgomeryLvl(sk.Value.Level(), sk.Value, sk.Value, skSquared)
	return &RelinearizationKey{Value: kgen.genSwitchingKey(skSquared, sk.Value)}
}

// GenSwitchingKey generates a switching key re-encrypting ciphertexts from
// skFrom to skTo.
func (kgen *KeyGenerator) GenSwitchingKey(skFrom, skTo *SecretKey) *SwitchingKey {
	return kgen.genSwitchingKey(skFrom.Value, skTo.Value)
}

// GenRotationKeysForRotations generates the rotation keys for the given
// rotation steps, plus the conjugation key when includeConjugate is set.
func (kgen *KeyGenerator) GenRotationKeysForRotations(ks []int, includeConjugate bool, sk *SecretKey) *RotationKeySet {

	galEls := kgen.params.GaloisElementsForRotations(ks)
	if includeConjugate {
		galEls = append(galEls, kgen.params.GaloisElementForRowRotation())
	}

	rtks := NewRotationKeySet()
	for _, galEl := range galEls {
		if _, ok := rtks.Keys[galEl]; !ok {
			rtks.Keys[galEl] = kgen.genRotationKey(sk, galEl)
		}
	}
	return rtks
}

// genRotationKey generates the switching key from sk to sk(X^(galEl^-1)),
// which the evaluator composes with the slot permutation of galEl.
func (kgen *KeyGenerator) genRotationKey(sk *SecretKey, galEl uint64) *SwitchingKey {
	skRot := kgen.polypool[1]
	index := kgen.ringQP.PermuteNTTIndex(kgen.params.InverseGaloisElement(galEl))
	ring.PermuteNTTWithIndexLvl(sk.Value.Level(), sk.Value, index, skRot)
	return kgen.genSwitchingKey(sk.Value, skRot)
}

// genSwitchingKey generates the gadget encryption of skIn under skOut. Both
// secrets are over Q·P in the NTT and Montgomery domain. The i-th entry
// encrypts w_i*skIn where w_i is congruent to P mod q_i and to 0 mod every
// other prime, so decomposition digits never carry the full ciphertext
// modulus and the added noise is divided by P on the way back.
func (kgen *KeyGenerator) genSwitchingKey(skIn, skOut *ring.Poly) *SwitchingKey {

	swk := NewSwitchingKey(kgen.params)

	ringQP := kgen.ringQP
	levelQP := ringQP.MaxLevel()
	p := kgen.params.P()
	tmp := kgen.polypool[0].Coeffs[0]

	for i := range swk.Value {

		b, a := swk.Value[i][0], swk.Value[i][1]

		kgen.uniformSampler.Read(a)

		// b = e - a*skOut
		kgen.gaussianSampler.Read(b)
		ringQP.NTT(b, b)
		ringQP.MulCoeffsMontgomeryAndSubLvl(levelQP, a, skOut, b)

		// b += w_i*skIn, which only touches the i-th row
		qi := ringQP.Modulus[i]
		pModQi := ring.BRedAdd(p, qi, ringQP.BredParams[i])
		ring.MulScalarMontgomeryVec(skIn.Coeffs[i], tmp, pModQi, qi, ringQP.MredParams[i])
		ring.AddVec(b.Coeffs[i], tmp, b.Coeffs[i], qi)

		ringQP.MFormLvl(levelQP, b, b)
		ringQP.MFormLvl(levelQP, a, a)
	}

	return swk
}
