package ring

import (
	"fmt"
	"math/big"
	"math/bits"
)

// IsPrime applies a Miller-Rabin primality test on x.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// GenerateNTTPrimes generates n distinct primes congruent to 1 mod 2^(logN+1),
// as close as possible to 2^logQ, alternating above and below. Such primes
// support the negacyclic NTT of degree 2^logN.
func GenerateNTTPrimes(logQ, logN, n int) (primes []uint64, err error) {

	if logQ < 2 || logQ > MaxModuliSize {
		return nil, fmt.Errorf("logQ (%d) must be in [2, %d]", logQ, MaxModuliSize)
	}

	nthRoot := uint64(1) << (logN + 1)

	primes = make([]uint64, 0, n)

	// Candidates above and below 2^logQ, both congruent to 1 mod 2N.
	up := uint64(1)<<logQ + 1
	down := up

	for len(primes) < n {

		checkUp := bits.Len64(up) == logQ+1
		checkDown := down > nthRoot

		if !checkUp && !checkDown {
			return nil, fmt.Errorf("not enough %d-bit NTT primes for logN = %d", logQ, logN)
		}

		if checkUp {
			if IsPrime(up) {
				primes = append(primes, up)
			}
			up += nthRoot
		}

		if checkDown && len(primes) < n {
			down -= nthRoot
			if IsPrime(down) {
				primes = append(primes, down)
			}
		}
	}

	return primes, nil
}

// NextNTTPrime returns the smallest prime p > q congruent to 1 mod
// 2^(logN+1).
func NextNTTPrime(q uint64, logN int) (uint64, error) {
	nthRoot := uint64(1) << (logN + 1)
	for {
		q += nthRoot
		if bits.Len64(q) > MaxModuliSize {
			return 0, fmt.Errorf("next NTT prime exceeds %d bits", MaxModuliSize)
		}
		if IsPrime(q) {
			return q, nil
		}
	}
}

// PreviousNTTPrime returns the largest prime p < q congruent to 1 mod
// 2^(logN+1).
func PreviousNTTPrime(q uint64, logN int) (uint64, error) {
	nthRoot := uint64(1) << (logN + 1)
	for {
		if q <= nthRoot {
			return 0, fmt.Errorf("no previous NTT prime below %d", q)
		}
		q -= nthRoot
		if IsPrime(q) {
			return q, nil
		}
	}
}
