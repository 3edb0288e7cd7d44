package ckks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParametersValidation(t *testing.T) {

	t.Run("LogNOutOfRange", func(t *testing.T) {
		_, err := NewParametersFromLiteral(ParametersLiteral{LogN: 2, LogQ: []int{30, 30}, LogP: 30, Scale: 1 << 30})
		require.Error(t, err)
	})

	t.Run("MissingModuli", func(t *testing.T) {
		_, err := NewParametersFromLiteral(ParametersLiteral{LogN: 12, Scale: 1 << 30})
		require.Error(t, err)
	})

	t.Run("ChainTooShort", func(t *testing.T) {
		_, err := NewParametersFromLiteral(ParametersLiteral{LogN: 12, LogQ: []int{40}, LogP: 40, Scale: 1 << 30})
		require.Error(t, err)
	})

	t.Run("MissingP", func(t *testing.T) {
		_, err := NewParametersFromLiteral(ParametersLiteral{LogN: 12, Q: []uint64{0x7fff801, 0x7fffe01}, Scale: 1 << 25})
		require.Error(t, err)
	})

	t.Run("ZeroScale", func(t *testing.T) {
		_, err := NewParametersFromLiteral(ParametersLiteral{LogN: 12, LogQ: []int{40, 30}, LogP: 40})
		require.Error(t, err)
	})

	t.Run("NonNTTFriendlyPrime", func(t *testing.T) {
		// 97 is prime but 97 mod 2N != 1 for N = 4096.
		_, err := NewParameters(12, []uint64{97, 101}, 0x7fffe01, 1<<25, 0, 0)
		require.Error(t, err)
	})
}

func TestParametersGenerated(t *testing.T) {

	params, err := NewParametersFromLiteral(PN12QP109)
	require.NoError(t, err)

	require.Equal(t, 1<<12, params.N())
	require.Equal(t, 1<<11, params.Slots())
	require.Equal(t, 1, params.MaxLevel())
	require.Equal(t, DefaultSigma, params.Sigma())

	for _, qi := range params.Q() {
		require.Equal(t, uint64(1), qi%uint64(2*params.N()))
	}
	require.Equal(t, uint64(1), params.P()%uint64(2*params.N()))

	// LogQP must match the bit-size of the product of all the moduli.
	require.InDelta(t, 37+36+36, params.LogQP(), 1.0)
}

func TestGaloisElements(t *testing.T) {

	params, err := NewParametersFromLiteral(PN12QP109)
	require.NoError(t, err)

	twoN := uint64(2 * params.N())

	require.Equal(t, GaloisGen, params.GaloisElementForColumnRotationBy(1))
	require.Equal(t, uint64(twoN-1), params.GaloisElementForRowRotation())

	// Composition: the group action is additive in the rotation index.
	g1 := params.GaloisElementForColumnRotationBy(1)
	g2 := params.GaloisElementForColumnRotationBy(2)
	g3 := params.GaloisElementForColumnRotationBy(3)
	require.Equal(t, g3, (g1*g2)%twoN)

	// Negative rotations are the inverses of positive ones.
	gInv := params.GaloisElementForColumnRotationBy(-1)
	require.Equal(t, uint64(1), (g1*gInv)%twoN)
	require.Equal(t, gInv, params.InverseGaloisElement(g1))
}

func TestParametersMarshalling(t *testing.T) {

	params, err := NewParametersFromLiteral(PN13QP218)
	require.NoError(t, err)

	data, err := json.Marshal(params)
	require.NoError(t, err)

	var params2 Parameters
	require.NoError(t, json.Unmarshal(data, &params2))
	require.True(t, params.Equal(params2))

	bin, err := params.MarshalBinary()
	require.NoError(t, err)
	var params3 Parameters
	require.NoError(t, params3.UnmarshalBinary(bin))
	require.True(t, params.Equal(params3))
}
