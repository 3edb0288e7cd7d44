package ckks

import (
	"math/bits"

	"github.com/fedshield/lattice/utils"
)

// This file implements the special FFT of the canonical embedding on the
// slots. The transform evaluates a polynomial on the primitive 2N-th roots
// of unity indexed by the rotation group (the powers of 5 mod 2N), so that
// slot i of the embedding follows the orbit of the group generator and slot
// rotations become Galois automorphisms.

// SpecialFFT computes the decoding transform (coefficients to slots) in
// place on the first n values. m is the order of the roots of unity (2N),
// rotGroup the powers of 5 mod m and roots the m-th roots of unity.
func SpecialFFT(values []complex128, n, m int, rotGroup []int, roots []complex128) {

	utils.SliceBitReverseInPlace(values, n)

	logN := bits.Len64(uint64(n)) - 1
	logM := bits.Len64(uint64(m)) - 1

	for loglen := 1; loglen <= logN; loglen++ {
		len := 1 << loglen
		lenh := len >> 1
		lenq := len << 2
		logGap := logM - 2 - loglen
		mask := lenq - 1
		for i := 0; i < n; i += len {
			for j, k := 0, i; j < lenh; j, k = j+1, k+1 {
				values[k+lenh] *= roots[(rotGroup[j]&mask)<<logGap]
				values[k], values[k+lenh] = values[k]+values[k+lenh], values[k]-values[k+lenh]
			}
		}
	}
}

// SpecialInvFFT computes the encoding transform (slots to coefficients) in
// place on the first n values, the inverse of SpecialFFT.
func SpecialInvFFT(values []complex128, n, m int, rotGroup []int, roots []complex128) {

	logN := bits.Len64(uint64(n)) - 1
	logM := bits.Len64(uint64(m)) - 1

	for loglen := logN; loglen > 0; loglen-- {
		len := 1 << loglen
		lenh := len >> 1
		lenq := len << 2
		logGap := logM - 2 - loglen
		mask := lenq - 1
		for i := 0; i < n; i += len {
			for j, k := 0, i; j < lenh; j, k = j+1, k+1 {
				u := values[k] + values[k+lenh]
				v := (values[k] - values[k+lenh]) * roots[(lenq-(rotGroup[j]&mask))<<logGap]
				values[k], values[k+lenh] = u, v
			}
		}
	}

	for i := 0; i < n; i++ {
		values[i] /= complex(float64(n), 0)
	}

	utils.SliceBitReverseInPlace(values, n)
}
