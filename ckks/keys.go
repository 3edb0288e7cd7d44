package ckks

import (
	"github.com/zeebo/blake3"

	"github.com/fedshield/lattice/ring"
)

// SecretKey is a ternary secret stored over the extended modulus chain Q·P,
// in the NTT and Montgomery domain.
type SecretKey struct {
	Value *ring.Poly
}

// NewSecretKey allocates a zero SecretKey.
func NewSecretKey(params Parameters) *SecretKey {
	return &SecretKey{Value: params.RingQP().NewPoly()}
}

// CopyNew creates a deep copy of the secret key.
func (sk *SecretKey) CopyNew() *SecretKey {
	return &SecretKey{Value: sk.Value.CopyNew()}
}

// PublicKey is an encryption of zero (b, a) with b = -a*s + e, stored over
// the modulus chain Q in the NTT and Montgomery domain.
type PublicKey struct {
	Value [2]*ring.Poly
}

// NewPublicKey allocates a zero PublicKey.
func NewPublicKey(params Parameters) *PublicKey {
	return &PublicKey{Value: [2]*ring.Poly{params.RingQ().NewPoly(), params.RingQ().NewPoly()}}
}

// SwitchingKey is a gadget encryption of a secret under another secret. Its
// i-th entry encrypts the secret times the gadget element congruent to P mod
// q_i and 0 mod the other primes, so that re-encrypting a ciphertext only
// requires its per-prime decomposition digits. All entries are over Q·P in
// the NTT and Montgomery domain.
type SwitchingKey struct {
	Value [][2]*ring.Poly
}

// NewSwitchingKey allocates a zero SwitchingKey with one entry per prime of
// the modulus chain.
func NewSwitchingKey(params Parameters) *SwitchingKey {
	swk := &SwitchingKey{Value: make([][2]*ring.Poly, params.QCount())}
	for i := range swk.Value {
		swk.Value[i] = [2]*ring.Poly{params.RingQP().NewPoly(), params.RingQP().NewPoly()}
	}
	return swk
}

// RelinearizationKey is the switching key from s^2 back to s, used to reduce
// the degree of ciphertexts after multiplication.
type RelinearizationKey struct {
	Value *SwitchingKey
}

// RotationKeySet holds the switching keys for a set of Galois elements.
type RotationKeySet struct {
	Keys map[uint64]*SwitchingKey
}

// NewRotationKeySet creates an empty RotationKeySet.
func NewRotationKeySet() *RotationKeySet {
	return &RotationKeySet{Keys: make(map[uint64]*SwitchingKey)}
}

// GetRotationKey returns the switching key for the given Galois element, and
// whether it is present.
func (rtks *RotationKeySet) GetRotationKey(galEl uint64) (*SwitchingKey, bool) {
	swk, ok := rtks.Keys[galEl]
	return swk, ok
}

// EvaluationKey bundles the public evaluation material handed to an
// Evaluator.
type EvaluationKey struct {
	Rlk  *RelinearizationKey
	Rtks *RotationKeySet
}

// Digest returns a blake3 digest of the secret key, usable as a stable
// identity for key material without exposing it.
func (sk *SecretKey) Digest() [32]byte {
	data, _ := sk.MarshalBinary()
	return blake3.Sum256(data)
}

// Digest returns a blake3 digest of the public key.
func (pk *PublicKey) Digest() [32]byte {
	data, _ := pk.MarshalBinary()
	return blake3.Sum256(data)
}
