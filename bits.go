package zcrack

// Word32 is a 32-bit register of the ZipCrypto internal state. All
// arithmetic on it wraps modulo 2^32, which is the native behavior of
// Go's uint32.
type Word32 = uint32

// lsb returns the least significant byte of w.
func lsb(w Word32) byte {
	return byte(w)
}

// msb returns the most significant byte of w.
func msb(w Word32) byte {
	return byte(w >> 24)
}

// mask returns the bit range [a,b) of a Word32 set to 1.
func mask(a, b uint) Word32 {
	return (^Word32(0) << a) & (^Word32(0) >> (32 - b))
}

// maxdiff returns the largest value of w - w[x,32) for any Word32 w,
// i.e. mask[0,x) + 0xff.
func maxdiff(x uint) Word32 {
	return mask(0, x) + 0xff
}

var (
	mask0_16  = mask(0, 16)
	mask0_32  = mask(0, 32)
	mask2_32  = mask(2, 32)
	mask8_32  = mask(8, 32)
	mask10_32 = mask(10, 32)
	mask24_32 = mask(24, 32)
	mask26_32 = mask(26, 32)

	maxdiff0_24 = maxdiff(24)
	maxdiff0_26 = maxdiff(26)
)
