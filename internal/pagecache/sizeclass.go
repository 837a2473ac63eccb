package pagecache

import "math/bits"

// SizeClass is a power-of-two length bucket, stored as the exponent so it
// fits in the single size byte of a PagePointer. Only the upper bound
// survives the compression, never the exact length.
type SizeClass uint8

// SizeClassFor rounds n up to the next power of two and keeps its
// trailing-zero count. Zero rounds up to one.
func SizeClassFor(n uint64) SizeClass {
	if n <= 1 {
		return 0
	}
	return SizeClass(bits.Len64(n - 1))
}

func (c SizeClass) Size() uint64 {
	return uint64(1) << c
}

func (c SizeClass) Exponent() uint8 {
	return uint8(c)
}
