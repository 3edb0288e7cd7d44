package ring

import (
	"math/big"
)

// Int is an alias for big.Int, used by the modular arithmetic helpers.
type Int = big.Int

// NewUint creates a new big.Int with value v.
func NewUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// NewInt creates a new big.Int with value v.
func NewInt(v int64) *big.Int {
	return new(big.Int).SetInt64(v)
}
