package ckks

import (
	"errors"
)

// Sentinel errors returned by the scheme. Recoverable precondition failures
// are reported through these, wrapped with operation context; panics are
// reserved for programmer misuse such as nil keys or receivers of the wrong
// degree.
var (
	// ErrLevelMismatch is returned when the operands of a binary operation
	// are not at the same level. Operands are never aligned implicitly: the
	// caller decides where to spend levels, via Rescale or DropLevel.
	ErrLevelMismatch = errors.New("ckks: operands have different levels")

	// ErrScaleMismatch is returned when the operands of an addition or
	// subtraction do not carry the same scale.
	ErrScaleMismatch = errors.New("ckks: operands have different scales")

	// ErrLevelExhausted is returned when an operation requires removing a
	// modulus from the chain but the operand is already at level 0.
	ErrLevelExhausted = errors.New("ckks: modulus chain exhausted")

	// ErrSlotOverflow is returned when encoding more values than the N/2
	// available slots.
	ErrSlotOverflow = errors.New("ckks: too many values for the number of slots")

	// ErrKeyGenFailure is returned when the system entropy source fails
	// during key material generation.
	ErrKeyGenFailure = errors.New("ckks: key generation failure")

	// ErrMissingRelinKey is returned by multiplications when the evaluator
	// holds no relinearization key.
	ErrMissingRelinKey = errors.New("ckks: evaluator has no relinearization key")

	// ErrMissingRotationKey is returned by rotations when no key for the
	// required Galois element is present.
	ErrMissingRotationKey = errors.New("ckks: no rotation key for the requested rotation")
)
