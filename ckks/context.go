package ckks

// This file implements the capability split between the party holding the
// secret key and parties that only evaluate. A PublicContext can encode,
// encrypt and compute; only the PrivateContext that spawned it can decrypt.
// The secret key never leaves the PrivateContext.

// PublicContext bundles the public capabilities of the scheme: encoding,
// encryption under the public key and homomorphic evaluation. It is safe to
// hand to an untrusted evaluator. A PublicContext is not safe for concurrent
// use; use the ShallowCopy of its components for data parallelism.
type PublicContext struct {
	Params    Parameters
	Encoder   *Encoder
	Encryptor *Encryptor
	Evaluator *Evaluator
}

// PrivateContext extends a PublicContext with the decryption capability.
type PrivateContext struct {
	*PublicContext
	sk        *SecretKey
	Decryptor *Decryptor
}

// NewPrivateContext generates fresh key material for the given parameters
// and returns the resulting private context. Rotation keys are generated for
// the given steps (plus the conjugation key) so the evaluator of the derived
// public context can rotate by them.
func NewPrivateContext(params Parameters, rotations []int) (*PrivateContext, error) {

	kgen, err := NewKeyGenerator(params)
	if err != nil {
		return nil, err
	}

	sk, pk := kgen.GenKeyPair()
	rlk := kgen.GenRelinearizationKey(sk)
	rtks := kgen.GenRotationKeysForRotations(rotations, true, sk)

	enc, err := NewEncryptor(params, pk)
	if err != nil {
		return nil, err
	}

	public := &PublicContext{
		Params:    params,
		Encoder:   NewEncoder(params),
		Encryptor: enc,
		Evaluator: NewEvaluator(params, EvaluationKey{Rlk: rlk, Rtks: rtks}),
	}

	return &PrivateContext{
		PublicContext: public,
		sk:            sk,
		Decryptor:     NewDecryptor(params, sk),
	}, nil
}

// Public returns the shareable public context, without the secret key.
func (pc *PrivateContext) Public() *PublicContext {
	return pc.PublicContext
}

// EncryptNew encodes and encrypts values at the top of the modulus chain
// with the default scale.
func (pc *PublicContext) EncryptNew(values []complex128) (*Ciphertext, error) {
	pt, err := pc.Encoder.EncodeNew(values, pc.Params.MaxLevel(), pc.Params.Scale())
	if err != nil {
		return nil, err
	}
	return pc.Encryptor.EncryptNew(pt)
}

// DecryptNew decrypts and decodes a ciphertext.
func (pc *PrivateContext) DecryptNew(ct *Ciphertext) []complex128 {
	return pc.Encoder.Decode(pc.Decryptor.Decrypt(ct))
}
