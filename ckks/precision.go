package ckks

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// PrecisionStats summarizes the slot-wise precision of a decrypted and
// decoded vector against its expected values, in bits (-log2 of the absolute
// error), separately for the real and imaginary components.
type PrecisionStats struct {
	Real PrecisionStatsComponent
	Imag PrecisionStatsComponent
}

// PrecisionStatsComponent holds the precision distribution of one component.
type PrecisionStatsComponent struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// GetPrecisionStats decrypts and decodes element when needed and returns the
// precision of the result against want. element can be a []complex128, a
// *Plaintext or a *Ciphertext (requiring a non-nil decryptor).
func GetPrecisionStats(params Parameters, ecd *Encoder, dec *Decryptor, want []complex128, element interface{}) PrecisionStats {

	var have []complex128
	switch element := element.(type) {
	case []complex128:
		have = element
	case *Plaintext:
		have = ecd.Decode(element)
	case *Ciphertext:
		have = ecd.Decode(dec.Decrypt(element))
	default:
		panic(fmt.Errorf("invalid element.(type): must be []complex128, *Plaintext or *Ciphertext but is %T", element))
	}

	precReal := make([]float64, len(want))
	precImag := make([]float64, len(want))
	for i := range want {
		precReal[i] = deltaToPrecision(math.Abs(real(have[i]) - real(want[i])))
		precImag[i] = deltaToPrecision(math.Abs(imag(have[i]) - imag(want[i])))
	}

	return PrecisionStats{
		Real: componentStats(precReal),
		Imag: componentStats(precImag),
	}
}

// deltaToPrecision caps the precision of exact matches at 64 bits to keep
// the aggregates finite.
func deltaToPrecision(delta float64) float64 {
	if delta < 0x1p-64 {
		return 64
	}
	return -math.Log2(delta)
}

func componentStats(prec []float64) PrecisionStatsComponent {
	min, _ := stats.Min(prec)
	max, _ := stats.Max(prec)
	mean, _ := stats.Mean(prec)
	median, _ := stats.Median(prec)
	return PrecisionStatsComponent{Min: min, Max: max, Mean: mean, Median: median}
}

// String implements fmt.Stringer.
func (p PrecisionStats) String() string {
	return fmt.Sprintf("Precision (bits): real min=%.2f max=%.2f mean=%.2f median=%.2f | imag min=%.2f max=%.2f mean=%.2f median=%.2f",
		p.Real.Min, p.Real.Max, p.Real.Mean, p.Real.Median,
		p.Imag.Min, p.Imag.Max, p.Imag.Mean, p.Imag.Median)
}
