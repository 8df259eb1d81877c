package zcrack

import "testing"

func TestKeystreamByteMatchesDirectFormula(t *testing.T) {
	for z2_16 := Word32(0); z2_16 < 1<<16; z2_16 += 4 {
		want := lsb((z2_16 | 2) * (z2_16 | 3) >> 8)
		if got := keystreamByte(z2_16); got != want {
			t.Fatalf("keystreamByte(%#x) = %#x, want %#x", z2_16, got, want)
		}
	}
}

func TestKeystreamByteIgnoresBitsOutsideZ2_16(t *testing.T) {
	base := Word32(0x0000abc4)
	want := keystreamByte(base)
	if got := keystreamByte(base | 0xffff0000 | 3); got != want {
		t.Fatalf("keystreamByte ignored high bits incorrectly: got %#x, want %#x", got, want)
	}
}

func TestKeystreamZ2_16RoundTrip(t *testing.T) {
	for k := 0; k < 256; k++ {
		for _, z := range keystreamZ2_16(byte(k)) {
			if got := keystreamByte(z); got != byte(k) {
				t.Fatalf("keystreamZ2_16(%d) contained %#x whose keystreamByte is %#x", k, z, got)
			}
		}
	}
}

func TestKeystreamZ2_16FilteredIsSubsetAndConsistent(t *testing.T) {
	for k := 0; k < 256; k++ {
		for _, z := range keystreamZ2_16(byte(k)) {
			z10_16 := z & mask(10, 16)
			filtered := keystreamZ2_16Filtered(byte(k), z10_16)

			found := false
			for _, fz := range filtered {
				if fz == z {
					found = true
				}
				if fz&mask(10, 16) != z10_16 {
					t.Fatalf("keystreamZ2_16Filtered(%d, %#x) returned %#x with a different [10,16) slice", k, z10_16, fz)
				}
			}
			if !found {
				t.Fatalf("keystreamZ2_16Filtered(%d, %#x) missing %#x", k, z10_16, z)
			}
			if !hasKeystreamZ2_16(byte(k), z10_16) {
				t.Fatalf("hasKeystreamZ2_16(%d, %#x) = false, want true", k, z10_16)
			}
		}
	}
}
