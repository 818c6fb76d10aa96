package local

import "math"

// float16to32 widens an IEEE 754 half-precision value, given as raw
// bits, to single precision. The conversion is pure bit manipulation
// and does not depend on any accelerator runtime.
func float16to32(bits uint16) float32 {
	sign := uint32(bits>>15) & 0x1
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits) & 0x3ff

	var out uint32

	switch {
	case exp == 0 && frac == 0:
		// Signed zero.
		out = sign << 31

	case exp == 0:
		// Subnormal half: renormalize into the single range.
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		out = sign<<31 | e<<23 | frac<<13

	case exp == 0x1f:
		// Infinity or NaN: max exponent, fraction carried across.
		out = sign<<31 | 0xff<<23 | frac<<13

	default:
		// Normal number: rebias exponent from 15 to 127.
		out = sign<<31 | (exp+127-15)<<23 | frac<<13
	}

	return math.Float32frombits(out)
}

// widenF16 converts a half-precision buffer to float32.
func widenF16(src []uint16) []float32 {
	out := make([]float32, len(src))
	for i, bits := range src {
		out[i] = float16to32(bits)
	}
	return out
}
