package ring

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fedshield/lattice/utils/sampling"
)

var testPRNGKey = []byte{0x49, 0x0a, 0x42, 0x3d, 0x97, 0x9d, 0xc1, 0x07}

func testRing(t *testing.T, logN, logQ, levels int) *Ring {
	moduli, err := GenerateNTTPrimes(logQ, logN, levels)
	require.NoError(t, err)
	r, err := NewRing(1<<logN, moduli)
	require.NoError(t, err)
	return r
}

func testPRNG(t *testing.T) *sampling.KeyedPRNG {
	prng, err := sampling.NewKeyedPRNG(testPRNGKey)
	require.NoError(t, err)
	return prng
}

func testString(opname string, r *Ring) string {
	return fmt.Sprintf("%s/N=%d/limbs=%d", opname, r.N, len(r.Modulus))
}

func TestNewRingErrors(t *testing.T) {

	// N not a power of two
	_, err := NewRing(12, []uint64{97})
	require.Error(t, err)

	// N too small
	_, err = NewRing(4, []uint64{97})
	require.Error(t, err)

	// empty chain
	_, err = NewRing(16, nil)
	require.Error(t, err)

	// 97 = 1 mod 32 but 13 is not
	_, err = NewRing(16, []uint64{97, 13})
	require.Error(t, err)

	// duplicate modulus
	_, err = NewRing(16, []uint64{97, 97})
	require.Error(t, err)

	// 33 = 1 mod 32 but is not prime
	_, err = NewRing(16, []uint64{33})
	require.Error(t, err)
}

func TestModularReduction(t *testing.T) {

	q := uint64(0x1fffffffffe00001)
	bredParams := BRedParams(q)
	mredParams := MRedParams(q)

	bigQ := NewUint(q)
	tmp := new(big.Int)

	x := uint64(0x1234567890abcdef)
	y := uint64(0x0fedcba987654321)

	t.Run("BRed", func(t *testing.T) {
		want := tmp.Mod(new(big.Int).Mul(NewUint(x), NewUint(y)), bigQ).Uint64()
		require.Equal(t, want, BRed(x, y, q, bredParams))
	})

	t.Run("BRedAdd", func(t *testing.T) {
		want := tmp.Mod(NewUint(x), bigQ).Uint64()
		require.Equal(t, want, BRedAdd(x, q, bredParams))
	})

	t.Run("MRed", func(t *testing.T) {
		// MRed(x, MForm(y)) = x*y mod q
		want := tmp.Mod(new(big.Int).Mul(NewUint(x%q), NewUint(y%q)), bigQ).Uint64()
		require.Equal(t, want, MRed(x%q, MForm(y%q, q, bredParams), q, mredParams))
	})

	t.Run("MForm", func(t *testing.T) {
		v := x % q
		require.Equal(t, v, InvMForm(MForm(v, q, bredParams), q, mredParams))
	})

	t.Run("ModExp", func(t *testing.T) {
		want := tmp.Exp(NewUint(x), NewUint(1000), bigQ).Uint64()
		require.Equal(t, want, ModExp(x, 1000, q))
	})
}

func TestNTTRoundTrip(t *testing.T) {

	r := testRing(t, 8, 55, 3)
	prng := testPRNG(t)
	sampler := NewUniformSampler(prng, r)

	p := sampler.ReadNew(r.MaxLevel())
	pWant := p.CopyNew()

	pNTT := r.NewPoly()
	r.NTT(p, pNTT)
	r.InvNTT(pNTT, p)

	require.True(t, p.Equal(pWant), testString("NTT/InvNTT", r))
}

// naiveNegacyclicMul computes the product of p1 and p2 in Z_q[X]/(X^N+1)
// with big.Int schoolbook multiplication.
func naiveNegacyclicMul(p1, p2 []uint64, q uint64) []uint64 {

	N := len(p1)
	bigQ := NewUint(q)
	acc := make([]*big.Int, N)
	for i := range acc {
		acc[i] = new(big.Int)
	}

	tmp := new(big.Int)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			tmp.Mul(NewUint(p1[i]), NewUint(p2[j]))
			if i+j < N {
				acc[i+j].Add(acc[i+j], tmp)
			} else {
				acc[i+j-N].Sub(acc[i+j-N], tmp)
			}
		}
	}

	res := make([]uint64, N)
	for i := range res {
		res[i] = acc[i].Mod(acc[i], bigQ).Uint64()
	}
	return res
}

func TestNTTMulMatchesNaiveConvolution(t *testing.T) {

	r := testRing(t, 4, 30, 2)
	prng := testPRNG(t)
	sampler := NewUniformSampler(prng, r)

	p1 := sampler.ReadNew(r.MaxLevel())
	p2 := sampler.ReadNew(r.MaxLevel())

	p1NTT, p2NTT, p3NTT, p3 := r.NewPoly(), r.NewPoly(), r.NewPoly(), r.NewPoly()
	r.NTT(p1, p1NTT)
	r.NTT(p2, p2NTT)

	r.MFormLvl(r.MaxLevel(), p1NTT, p1NTT)
	r.MulCoeffsMontgomeryLvl(r.MaxLevel(), p1NTT, p2NTT, p3NTT)
	r.InvNTT(p3NTT, p3)

	for i, qi := range r.Modulus {
		want := naiveNegacyclicMul(p1.Coeffs[i], p2.Coeffs[i], qi)
		require.Equal(t, want, p3.Coeffs[i], testString(fmt.Sprintf("limb %d", i), r))
	}
}

func TestPermuteNTT(t *testing.T) {

	r := testRing(t, 4, 30, 1)
	prng := testPRNG(t)
	sampler := NewUniformSampler(prng, r)

	galEl := uint64(5)
	N := r.N

	p := sampler.ReadNew(r.MaxLevel())

	// Apply X -> X^galEl naively in the coefficient domain.
	pWant := r.NewPoly()
	for i, qi := range r.Modulus {
		for j := 0; j < N; j++ {
			idx := (uint64(j) * galEl) % uint64(2*N)
			c := p.Coeffs[i][j]
			if idx >= uint64(N) {
				idx -= uint64(N)
				if c != 0 {
					c = qi - c
				}
			}
			pWant.Coeffs[i][idx] = c
		}
	}

	pNTT, pPermNTT, pPerm := r.NewPoly(), r.NewPoly(), r.NewPoly()
	r.NTT(p, pNTT)
	r.PermuteNTTLvl(r.MaxLevel(), pNTT, galEl, pPermNTT)
	r.InvNTT(pPermNTT, pPerm)

	require.True(t, pPerm.Equal(pWant))
}

func TestDivRoundByLastModulusNTT(t *testing.T) {

	r := testRing(t, 6, 40, 3)
	prng := testPRNG(t)
	sampler := NewUniformSampler(prng, r)

	level := r.MaxLevel()
	p := sampler.ReadNew(level)

	// Reference: centered big.Int division with rounding by q_level.
	coeffs := make([]*big.Int, r.N)
	r.PolyToBigintLvl(level, p, 1, coeffs)

	Q := r.ModulusAtLevel[level]
	qHalf := new(big.Int).Rsh(Q, 1)
	ql := NewUint(r.Modulus[level])
	qlHalf := new(big.Int).Rsh(ql, 1)

	want := NewPoly(r.N, level-1)
	tmp := new(big.Int)
	for j, c := range coeffs {
		if c.Cmp(qHalf) >= 0 {
			c.Sub(c, Q)
		}
		// round(c / ql) = floor((c + ql/2) / ql)
		c.Add(c, qlHalf)
		c.Div(c, ql) // Euclidean division, rounds towards -inf for c < 0
		for i := 0; i < level; i++ {
			qi := NewUint(r.Modulus[i])
			want.Coeffs[i][j] = tmp.Mod(c, qi).Uint64()
		}
	}

	pNTT, resNTT, res := r.NewPoly(), r.NewPoly(), NewPoly(r.N, level-1)
	r.NTT(p, pNTT)
	r.DivRoundByLastModulusNTTLvl(level, pNTT, r.NewPoly(), resNTT)
	r.InvNTTLvl(level-1, resNTT, res)

	require.True(t, res.Equal(want))
}

func TestUniformSampler(t *testing.T) {

	r := testRing(t, 8, 30, 2)
	sampler := NewUniformSampler(testPRNG(t), r)

	p := sampler.ReadNew(r.MaxLevel())
	for i, qi := range r.Modulus {
		for _, c := range p.Coeffs[i] {
			require.Less(t, c, qi)
		}
	}

	// Same key, same stream.
	p2 := NewUniformSampler(testPRNG(t), r).ReadNew(r.MaxLevel())
	require.True(t, p.Equal(p2))
}

func TestTernarySampler(t *testing.T) {

	r := testRing(t, 8, 30, 2)

	t.Run("Dense", func(t *testing.T) {
		sampler := NewTernarySampler(testPRNG(t), r, 1.0/3.0, false)
		p := sampler.ReadNew(r.MaxLevel())
		for i, qi := range r.Modulus {
			for _, c := range p.Coeffs[i] {
				require.True(t, c == 0 || c == 1 || c == qi-1)
			}
		}
	})

	t.Run("Sparse", func(t *testing.T) {
		hw := 16
		sampler := NewTernarySamplerSparse(testPRNG(t), r, hw, false)
		p := sampler.ReadNew(r.MaxLevel())
		nonZero := 0
		for _, c := range p.Coeffs[0] {
			if c != 0 {
				nonZero++
			}
		}
		require.Equal(t, hw, nonZero)
	})
}

func TestGaussianSampler(t *testing.T) {

	r := testRing(t, 8, 30, 2)
	sigma, bound := 3.2, 19.2
	sampler := NewGaussianSampler(testPRNG(t), r, sigma, bound)

	p := sampler.ReadNew(r.MaxLevel())
	for i, qi := range r.Modulus {
		for _, c := range p.Coeffs[i] {
			if c > qi/2 {
				c = qi - c
			}
			require.LessOrEqual(t, float64(c), bound+0.5)
		}
	}
}

func TestGenerateNTTPrimes(t *testing.T) {

	logN, logQ := 10, 40
	primes, err := GenerateNTTPrimes(logQ, logN, 8)
	require.NoError(t, err)
	require.Len(t, primes, 8)

	seen := map[uint64]bool{}
	for _, p := range primes {
		require.True(t, IsPrime(p))
		require.Equal(t, uint64(1), p&uint64(2<<logN-1))
		require.False(t, seen[p])
		seen[p] = true
	}

	next, err := NextNTTPrime(primes[0], logN)
	require.NoError(t, err)
	require.True(t, IsPrime(next) && next > primes[0])
	require.Equal(t, uint64(1), next&uint64(2<<logN-1))

	prev, err := PreviousNTTPrime(primes[0], logN)
	require.NoError(t, err)
	require.True(t, IsPrime(prev) && prev < primes[0])
}

func TestPolyMarshalBinary(t *testing.T) {

	r := testRing(t, 6, 30, 3)
	sampler := NewUniformSampler(testPRNG(t), r)

	p := sampler.ReadNew(r.MaxLevel())
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	p2 := new(Poly)
	require.NoError(t, p2.UnmarshalBinary(data))
	require.True(t, p.Equal(p2))

	// Canonical: re-serialization is byte-identical.
	data2, err := p2.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data, data2)
}
