// Package lattice is a library for leveled approximate homomorphic encryption
// over rings of the form Z_Q[X]/(X^N+1). It implements a full-RNS variant of
// the CKKS scheme: fixed-point approximate arithmetic over vectors of complex
// numbers, with encrypted addition, multiplication and slot rotation.
package lattice

// Version is the current version of the library.
const Version = "1.0.0"
