package ckks

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedshield/lattice/ring"
	"github.com/fedshield/lattice/utils"
)

var testParamsLiteral = ParametersLiteral{
	LogN:  12,
	LogQ:  []int{45, 35, 35},
	LogP:  45,
	Scale: 1 << 35,
}

var testRotations = []int{1, 2, 3, 7}

type testContext struct {
	params      Parameters
	kgen        *KeyGenerator
	sk          *SecretKey
	pk          *PublicKey
	rlk         *RelinearizationKey
	rtks        *RotationKeySet
	encoder     *Encoder
	encryptorPk *Encryptor
	encryptorSk *Encryptor
	decryptor   *Decryptor
	evaluator   *Evaluator
	rng         *rand.Rand
}

func testString(opname string, params Parameters) string {
	return fmt.Sprintf("%s/LogN=%d/levels=%d", opname, params.LogN(), params.MaxLevel()+1)
}

func genTestContext(t *testing.T, pl ParametersLiteral) *testContext {

	params, err := NewParametersFromLiteral(pl)
	require.NoError(t, err)

	kgen, err := NewKeyGenerator(params)
	require.NoError(t, err)

	sk, pk := kgen.GenKeyPair()

	tc := &testContext{
		params:  params,
		kgen:    kgen,
		sk:      sk,
		pk:      pk,
		rlk:     kgen.GenRelinearizationKey(sk),
		rtks:    kgen.GenRotationKeysForRotations(testRotations, true, sk),
		encoder: NewEncoder(params),
		rng:     rand.New(rand.NewSource(0x5eed)),
	}

	tc.encryptorPk, err = NewEncryptor(params, pk)
	require.NoError(t, err)
	tc.encryptorSk, err = NewEncryptor(params, sk)
	require.NoError(t, err)
	tc.decryptor = NewDecryptor(params, sk)
	tc.evaluator = NewEvaluator(params, EvaluationKey{Rlk: tc.rlk, Rtks: tc.rtks})

	return tc
}

// newTestVectors samples uniform values in the complex square of side 2a
// and returns them with their encoding and encryption at the top of the
// chain.
func (tc *testContext) newTestVectors(t *testing.T, a float64) (values []complex128, pt *Plaintext, ct *Ciphertext) {

	values = make([]complex128, tc.params.Slots())
	for i := range values {
		values[i] = complex(a*(2*tc.rng.Float64()-1), a*(2*tc.rng.Float64()-1))
	}

	pt, err := tc.encoder.EncodeNew(values, tc.params.MaxLevel(), tc.params.Scale())
	require.NoError(t, err)

	ct, err = tc.encryptorPk.EncryptNew(pt)
	require.NoError(t, err)

	return values, pt, ct
}

func verifyTestVectors(t *testing.T, tc *testContext, want []complex128, element interface{}, minPrec float64) {
	stats := GetPrecisionStats(tc.params, tc.encoder, tc.decryptor, want, element)
	require.GreaterOrEqual(t, stats.Real.Mean, minPrec, stats.String())
	require.GreaterOrEqual(t, stats.Imag.Mean, minPrec, stats.String())
}

func TestCKKS(t *testing.T) {

	tc := genTestContext(t, testParamsLiteral)
	params := tc.params

	t.Run(testString("Encoder/EncodeDecode", params), func(t *testing.T) {
		values, pt, _ := tc.newTestVectors(t, 1)
		verifyTestVectors(t, tc, values, pt, 20)
	})

	t.Run(testString("Encoder/PrecisionGrowsWithScale", params), func(t *testing.T) {
		values := make([]complex128, params.Slots())
		for i := range values {
			values[i] = complex(2*tc.rng.Float64()-1, 2*tc.rng.Float64()-1)
		}

		var prev float64
		for _, scale := range []float64{1 << 25, 1 << 30, 1 << 35} {
			pt, err := tc.encoder.EncodeNew(values, params.MaxLevel(), scale)
			require.NoError(t, err)
			stats := GetPrecisionStats(params, tc.encoder, nil, values, pt)
			require.Greater(t, stats.Real.Mean, prev)
			prev = stats.Real.Mean
		}

		// At the largest scale the worst slot error is far below 2^-8.
		pt, err := tc.encoder.EncodeNew(values, params.MaxLevel(), params.Scale())
		require.NoError(t, err)
		stats := GetPrecisionStats(params, tc.encoder, nil, values, pt)
		require.Greater(t, stats.Real.Min, 8.0)
		require.Greater(t, stats.Imag.Min, 8.0)
	})

	t.Run(testString("Encoder/SlotOverflow", params), func(t *testing.T) {
		values := make([]complex128, params.Slots()+1)
		_, err := tc.encoder.EncodeNew(values, params.MaxLevel(), params.Scale())
		require.ErrorIs(t, err, ErrSlotOverflow)
	})

	t.Run(testString("Encoder/ZeroPadding", params), func(t *testing.T) {
		short := []complex128{3 + 1i, 2 - 2i}
		pt, err := tc.encoder.EncodeNew(short, params.MaxLevel(), params.Scale())
		require.NoError(t, err)
		decoded := tc.encoder.Decode(pt)
		require.Len(t, decoded, params.Slots())
		want := make([]complex128, params.Slots())
		copy(want, short)
		verifyTestVectors(t, tc, want, decoded, 20)
	})

	t.Run(testString("Encryptor/Pk", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		require.Equal(t, params.MaxLevel(), ct.Level())
		require.Equal(t, params.Scale(), ct.Scale)
		verifyTestVectors(t, tc, values, ct, 13)
	})

	t.Run(testString("Encryptor/Sk", params), func(t *testing.T) {
		values, pt, _ := tc.newTestVectors(t, 1)
		ct, err := tc.encryptorSk.EncryptNew(pt)
		require.NoError(t, err)
		verifyTestVectors(t, tc, values, ct, 13)
	})

	t.Run(testString("Evaluator/Add", params), func(t *testing.T) {
		values0, _, ct0 := tc.newTestVectors(t, 1)
		values1, _, ct1 := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values0))
		for i := range want {
			want[i] = values0[i] + values1[i]
		}
		ct2, err := tc.evaluator.AddNew(ct0, ct1)
		require.NoError(t, err)
		verifyTestVectors(t, tc, want, ct2, 13)
	})

	t.Run(testString("Evaluator/Sub", params), func(t *testing.T) {
		values0, _, ct0 := tc.newTestVectors(t, 1)
		values1, _, ct1 := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values0))
		for i := range want {
			want[i] = values0[i] - values1[i]
		}
		ct2, err := tc.evaluator.SubNew(ct0, ct1)
		require.NoError(t, err)
		verifyTestVectors(t, tc, want, ct2, 13)
	})

	t.Run(testString("Evaluator/Neg", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values))
		for i := range want {
			want[i] = -values[i]
		}
		verifyTestVectors(t, tc, want, tc.evaluator.NegNew(ct), 13)
	})

	t.Run(testString("Evaluator/AddPlaintext", params), func(t *testing.T) {
		values0, _, ct0 := tc.newTestVectors(t, 1)
		values1, pt1, _ := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values0))
		for i := range want {
			want[i] = values0[i] + values1[i]
		}
		ct2 := NewCiphertext(params, 1, ct0.Level(), ct0.Scale)
		require.NoError(t, tc.evaluator.AddPlaintext(ct0, pt1, ct2))
		verifyTestVectors(t, tc, want, ct2, 13)
	})

	t.Run(testString("Evaluator/MulRelin", params), func(t *testing.T) {
		values0, _, ct0 := tc.newTestVectors(t, 1)
		values1, _, ct1 := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values0))
		for i := range want {
			want[i] = values0[i] * values1[i]
		}

		ct2, err := tc.evaluator.MulRelinNew(ct0, ct1)
		require.NoError(t, err)
		require.Equal(t, 1, ct2.Degree())
		require.Equal(t, ct0.Level(), ct2.Level())
		require.Equal(t, ct0.Scale*ct1.Scale, ct2.Scale)
		verifyTestVectors(t, tc, want, ct2, 13)

		// Rescale brings the scale back near the default and consumes one
		// level.
		require.NoError(t, tc.evaluator.Rescale(ct2, ct2))
		require.Equal(t, ct0.Level()-1, ct2.Level())
		qLast := float64(params.Q()[params.MaxLevel()])
		require.InEpsilon(t, params.Scale()*params.Scale()/qLast, ct2.Scale, 1e-12)
		verifyTestVectors(t, tc, want, ct2, 13)
	})

	t.Run(testString("Evaluator/Square", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values))
		for i := range want {
			want[i] = values[i] * values[i]
		}
		ct2, err := tc.evaluator.MulRelinNew(ct, ct)
		require.NoError(t, err)
		verifyTestVectors(t, tc, want, ct2, 13)
	})

	t.Run(testString("Evaluator/RescaleExhaustsChain", params), func(t *testing.T) {
		_, _, ct := tc.newTestVectors(t, 1)
		for level := params.MaxLevel(); level > 0; level-- {
			require.Equal(t, level, ct.Level())
			require.NoError(t, tc.evaluator.Rescale(ct, ct))
		}
		require.Equal(t, 0, ct.Level())
		require.ErrorIs(t, tc.evaluator.Rescale(ct, ct), ErrLevelExhausted)
	})

	t.Run(testString("Evaluator/MulAtLevelZero", params), func(t *testing.T) {
		_, _, ct0 := tc.newTestVectors(t, 1)
		_, _, ct1 := tc.newTestVectors(t, 1)
		require.NoError(t, tc.evaluator.DropLevel(ct0, params.MaxLevel()))
		require.NoError(t, tc.evaluator.DropLevel(ct1, params.MaxLevel()))
		_, err := tc.evaluator.MulRelinNew(ct0, ct1)
		require.ErrorIs(t, err, ErrLevelExhausted)
	})

	t.Run(testString("Evaluator/DropLevel", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		require.NoError(t, tc.evaluator.DropLevel(ct, 1))
		require.Equal(t, params.MaxLevel()-1, ct.Level())
		require.Equal(t, params.Scale(), ct.Scale)
		verifyTestVectors(t, tc, values, ct, 13)
		require.ErrorIs(t, tc.evaluator.DropLevel(ct, params.MaxLevel()), ErrLevelExhausted)
	})

	t.Run(testString("Evaluator/LevelMismatch", params), func(t *testing.T) {
		_, _, ct0 := tc.newTestVectors(t, 1)
		_, _, ct1 := tc.newTestVectors(t, 1)
		require.NoError(t, tc.evaluator.DropLevel(ct1, 1))
		_, err := tc.evaluator.AddNew(ct0, ct1)
		require.ErrorIs(t, err, ErrLevelMismatch)
		_, err = tc.evaluator.MulRelinNew(ct0, ct1)
		require.ErrorIs(t, err, ErrLevelMismatch)
	})

	t.Run(testString("Evaluator/ScaleMismatch", params), func(t *testing.T) {
		values, _, ct0 := tc.newTestVectors(t, 1)
		pt, err := tc.encoder.EncodeNew(values, params.MaxLevel(), params.Scale()/2)
		require.NoError(t, err)
		ct1, err := tc.encryptorPk.EncryptNew(pt)
		require.NoError(t, err)
		_, err = tc.evaluator.AddNew(ct0, ct1)
		require.ErrorIs(t, err, ErrScaleMismatch)
	})

	t.Run(testString("Evaluator/Rotate", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		for _, k := range testRotations {
			rot, err := tc.evaluator.RotateNew(ct, k)
			require.NoError(t, err)
			require.Equal(t, ct.Level(), rot.Level())
			require.Equal(t, ct.Scale, rot.Scale)
			verifyTestVectors(t, tc, utils.RotateSliceNew(values, k), rot, 13)
		}
	})

	t.Run(testString("Evaluator/RotateComposition", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)

		// Rotating by 1 then 2 is the same as rotating by 3.
		rot1, err := tc.evaluator.RotateNew(ct, 1)
		require.NoError(t, err)
		rot12, err := tc.evaluator.RotateNew(rot1, 2)
		require.NoError(t, err)
		verifyTestVectors(t, tc, utils.RotateSliceNew(values, 3), rot12, 13)
	})

	t.Run(testString("Evaluator/RotateMissingKey", params), func(t *testing.T) {
		_, _, ct := tc.newTestVectors(t, 1)
		_, err := tc.evaluator.RotateNew(ct, 5)
		require.ErrorIs(t, err, ErrMissingRotationKey)
	})

	t.Run(testString("Evaluator/Conjugate", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		want := make([]complex128, len(values))
		for i := range want {
			want[i] = complex(real(values[i]), -imag(values[i]))
		}
		conj, err := tc.evaluator.ConjugateNew(ct)
		require.NoError(t, err)
		verifyTestVectors(t, tc, want, conj, 13)
	})

	t.Run(testString("Evaluator/MissingRelinKey", params), func(t *testing.T) {
		_, _, ct0 := tc.newTestVectors(t, 1)
		_, _, ct1 := tc.newTestVectors(t, 1)
		bare := NewEvaluator(params, EvaluationKey{})
		_, err := bare.MulRelinNew(ct0, ct1)
		require.ErrorIs(t, err, ErrMissingRelinKey)
	})

	t.Run(testString("KeySwitch", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)
		sk2 := tc.kgen.GenSecretKey()
		swk := tc.kgen.GenSwitchingKey(tc.sk, sk2)

		ct2 := NewCiphertext(params, 1, ct.Level(), ct.Scale)
		require.NoError(t, tc.evaluator.SwitchKeys(ct, swk, ct2))

		dec2 := NewDecryptor(params, sk2)
		stats := GetPrecisionStats(params, tc.encoder, dec2, values, ct2)
		require.GreaterOrEqual(t, stats.Real.Mean, 13.0, stats.String())
	})

	t.Run(testString("Keys/Digest", params), func(t *testing.T) {
		require.Equal(t, tc.sk.Digest(), tc.sk.CopyNew().Digest())
		other := tc.kgen.GenSecretKey()
		require.NotEqual(t, tc.sk.Digest(), other.Digest())
		require.NotEqual(t, tc.pk.Digest(), tc.kgen.GenPublicKey(other).Digest())
	})

	t.Run(testString("Marshalling/Ciphertext", params), func(t *testing.T) {
		values, _, ct := tc.newTestVectors(t, 1)

		data, err := ct.MarshalBinary()
		require.NoError(t, err)

		ct2 := new(Ciphertext)
		require.NoError(t, ct2.UnmarshalBinary(data))
		require.Equal(t, ct.Degree(), ct2.Degree())
		require.Equal(t, ct.Level(), ct2.Level())
		require.Equal(t, ct.Scale, ct2.Scale)
		for i := range ct.Value {
			require.True(t, ct.Value[i].Equal(ct2.Value[i]))
		}
		verifyTestVectors(t, tc, values, ct2, 13)

		// Exactly one canonical encoding.
		data2, err := ct2.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, data, data2)
	})

	t.Run(testString("Marshalling/Plaintext", params), func(t *testing.T) {
		values, pt, _ := tc.newTestVectors(t, 1)
		data, err := pt.MarshalBinary()
		require.NoError(t, err)
		pt2 := new(Plaintext)
		require.NoError(t, pt2.UnmarshalBinary(data))
		require.True(t, pt.Value.Equal(pt2.Value))
		verifyTestVectors(t, tc, values, pt2, 20)
	})

	t.Run(testString("Marshalling/Keys", params), func(t *testing.T) {

		data, err := tc.sk.MarshalBinary()
		require.NoError(t, err)
		sk2 := new(SecretKey)
		require.NoError(t, sk2.UnmarshalBinary(data))
		require.True(t, tc.sk.Value.Equal(sk2.Value))

		data, err = tc.pk.MarshalBinary()
		require.NoError(t, err)
		pk2 := new(PublicKey)
		require.NoError(t, pk2.UnmarshalBinary(data))
		require.True(t, tc.pk.Value[0].Equal(pk2.Value[0]))
		require.True(t, tc.pk.Value[1].Equal(pk2.Value[1]))

		data, err = tc.rlk.MarshalBinary()
		require.NoError(t, err)
		rlk2 := new(RelinearizationKey)
		require.NoError(t, rlk2.UnmarshalBinary(data))
		for i := range tc.rlk.Value.Value {
			require.True(t, tc.rlk.Value.Value[i][0].Equal(rlk2.Value.Value[i][0]))
			require.True(t, tc.rlk.Value.Value[i][1].Equal(rlk2.Value.Value[i][1]))
		}

		data, err = tc.rtks.MarshalBinary()
		require.NoError(t, err)
		rtks2 := new(RotationKeySet)
		require.NoError(t, rtks2.UnmarshalBinary(data))
		require.Equal(t, len(tc.rtks.Keys), len(rtks2.Keys))
		for galEl := range tc.rtks.Keys {
			_, ok := rtks2.GetRotationKey(galEl)
			require.True(t, ok)
		}

		// Decryption still works with the roundtripped secret key.
		values, _, ct := tc.newTestVectors(t, 1)
		dec2 := NewDecryptor(params, sk2)
		stats := GetPrecisionStats(params, tc.encoder, dec2, values, ct)
		require.GreaterOrEqual(t, stats.Real.Mean, 13.0, stats.String())
	})
}

func TestCapabilitySplit(t *testing.T) {

	params, err := NewParametersFromLiteral(testParamsLiteral)
	require.NoError(t, err)

	private, err := NewPrivateContext(params, []int{1})
	require.NoError(t, err)
	public := private.Public()

	rng := rand.New(rand.NewSource(0x5eed))
	values := make([]complex128, params.Slots())
	for i := range values {
		values[i] = complex(2*rng.Float64()-1, 2*rng.Float64()-1)
	}

	// The public side encrypts and computes.
	ct0, err := public.EncryptNew(values)
	require.NoError(t, err)
	ct1, err := public.EncryptNew(values)
	require.NoError(t, err)

	prod, err := public.Evaluator.MulRelinNew(ct0, ct1)
	require.NoError(t, err)
	require.NoError(t, public.Evaluator.Rescale(prod, prod))
	require.Equal(t, params.MaxLevel()-1, prod.Level())

	// Only the private side can decrypt.
	decoded := private.DecryptNew(prod)
	for i := range values {
		require.InDelta(t, real(values[i]*values[i]), real(decoded[i]), 1e-3)
		require.InDelta(t, imag(values[i]*values[i]), imag(decoded[i]), 1e-3)
	}
}

// TestToyPipeline runs the whole pipeline on a degree 8 ring, where every
// intermediate value can be followed by hand: [3, 2] * [4, 5] followed by a
// rescale gives approximately [12, 10].
func TestToyPipeline(t *testing.T) {

	primes, err := ring.GenerateNTTPrimes(10, 3, 4)
	require.NoError(t, err)

	params, err := NewParameters(3, primes[:3], primes[3], 1<<10, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 8, params.N())
	require.Equal(t, 4, params.Slots())
	require.Equal(t, 2, params.MaxLevel())

	kgen, err := NewKeyGenerator(params)
	require.NoError(t, err)
	sk, pk := kgen.GenKeyPair()
	rlk := kgen.GenRelinearizationKey(sk)

	encoder := NewEncoder(params)
	enc, err := NewEncryptor(params, pk)
	require.NoError(t, err)
	dec := NewDecryptor(params, sk)
	eval := NewEvaluator(params, EvaluationKey{Rlk: rlk})

	encryptVec := func(vs []float64) *Ciphertext {
		pt := NewPlaintext(params, params.MaxLevel(), params.Scale())
		require.NoError(t, encoder.EncodeFloat64(vs, pt))
		ct, err := enc.EncryptNew(pt)
		require.NoError(t, err)
		return ct
	}

	ct0 := encryptVec([]float64{3, 2})
	ct1 := encryptVec([]float64{4, 5})

	// Fresh decryption is close to the input. The scale of 2^10 only leaves
	// a few bits of precision under the encryption noise.
	fresh := encoder.Decode(dec.Decrypt(ct0))
	require.InDelta(t, 3, real(fresh[0]), 0.3)
	require.InDelta(t, 2, real(fresh[1]), 0.3)

	sum, err := eval.AddNew(ct0, ct1)
	require.NoError(t, err)
	sumDec := encoder.Decode(dec.Decrypt(sum))
	require.InDelta(t, 7, real(sumDec[0]), 0.5)
	require.InDelta(t, 7, real(sumDec[1]), 0.5)

	prod, err := eval.MulRelinNew(ct0, ct1)
	require.NoError(t, err)
	require.NoError(t, eval.Rescale(prod, prod))
	require.Equal(t, params.MaxLevel()-1, prod.Level())

	decoded := encoder.Decode(dec.Decrypt(prod))
	require.InDelta(t, 12, real(decoded[0]), 1.5)
	require.InDelta(t, 10, real(decoded[1]), 1.5)
	require.InDelta(t, 0, real(decoded[2]), 1.5)
	require.InDelta(t, 0, imag(decoded[0]), 1.5)
}
