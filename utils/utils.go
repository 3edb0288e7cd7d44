// Package utils implements various helper functions and generic types.
package utils

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Min returns the minimum of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a <= b {
		return a
	}
	return b
}

// Max returns the maximum of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a >= b {
		return a
	}
	return b
}

// IsPowerOfTwo returns true if x is a power of two, false otherwise.
func IsPowerOfTwo[T constraints.Integer](x T) bool {
	return x > 0 && x&(x-1) == 0
}

// BitReverse64 returns the bit-reversed value of index within a context of
// 2^bitLen values.
func BitReverse64(index uint64, bitLen int) uint64 {
	return bits.Reverse64(index) >> (64 - bitLen)
}

// RotateSliceNew returns a new slice corresponding to s rotated by k
// positions to the left.
func RotateSliceNew[T any](s []T, k int) (r []T) {
	r = make([]T, len(s))
	if len(s) == 0 {
		return
	}
	k %= len(s)
	if k < 0 {
		k += len(s)
	}
	copy(r, s[k:])
	copy(r[len(s)-k:], s[:k])
	return
}

// SliceBitReverseInPlace applies an in-place bit-reverse permutation on the
// first n elements of s. n must be a power of two.
func SliceBitReverseInPlace[T any](s []T, n int) {
	bitLen := bits.Len64(uint64(n)) - 1
	for i := 0; i < n; i++ {
		if j := int(BitReverse64(uint64(i), bitLen)); j > i {
			s[i], s[j] = s[j], s[i]
		}
	}
}

// EqualSlice checks the equality between two slices of comparable types.
func EqualSlice[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
