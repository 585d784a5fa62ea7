// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used when sizing FFT
frames. Any positive frame size is valid, but power-of-two sizes take the
fast radix-2 path, so callers use these to detect and suggest them.

	bitint.IsPowerOfTwo(1000)   // false
	bitint.NextPowerOfTwo(1000) // 1024

NextPowerOfTwo subtracts one before finding the highest set bit. Without
the subtraction an exact power of two would be doubled: bits.Len(8) is 4,
so 1<<4 = 16, while bits.Len(7) is 3 and 1<<3 = 8 as intended.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size, or 1 for
// non-positive sizes.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of two <= size, or 0 for
// non-positive sizes.
func PrevPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two. Powers of two
// have exactly one bit set, so n&(n-1) clears it to zero:
//
//	8  1000 & 0111 = 0000  true
//	7  0111 & 0110 = 0110  false
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
