package zcrack

import "sync"

// keystreamTable holds the keystream-byte lookup table and its filtered
// inverses (component C), all keyed by the 14 significant bits of Z,
// i.e. Z[2,16).
type keystreamTable struct {
	byteOf [1 << 14]byte // byteOf[z2_16>>2] = keystream byte

	inv         [256][64]Word32   // inv[k] = sorted Z[2,16) values producing k
	invFiltered [256][64][]Word32 // invFiltered[k][z[10,16)] = subset of inv[k]
	hasFiltered [256]uint64       // hasFiltered[k] bit (z[10,16)) set if invFiltered non-empty
}

var (
	keystreamTab     keystreamTable
	keystreamTabOnce sync.Once
)

func initKeystreamTable() {
	keystreamTabOnce.Do(func() {
		var next [256]int
		for z2_16 := Word32(0); z2_16 < 1<<16; z2_16 += 4 {
			k := lsb((z2_16 | 2) * (z2_16 | 3) >> 8)
			keystreamTab.byteOf[z2_16>>2] = k
			keystreamTab.inv[k][next[k]] = z2_16
			next[k]++

			top6 := z2_16 >> 10
			keystreamTab.invFiltered[k][top6] = append(keystreamTab.invFiltered[k][top6], z2_16)
			keystreamTab.hasFiltered[k] |= 1 << top6
		}
	})
}

// keystreamByte returns the keystream byte associated to a Z value.
// Only Z[2,16) is used.
func keystreamByte(z Word32) byte {
	initKeystreamTable()
	return keystreamTab.byteOf[(z&mask0_16)>>2]
}

// keystreamZ2_16 returns the sorted array of 64 Z[2,16) values such
// that keystreamByte of each is equal to k.
func keystreamZ2_16(k byte) [64]Word32 {
	initKeystreamTable()
	return keystreamTab.inv[k]
}

// keystreamZ2_16Filtered returns the Z[2,16) values having the given
// [10,16) bits such that keystreamByte of each is equal to k. The
// slice contains one element on average.
func keystreamZ2_16Filtered(k byte, z10_16 Word32) []Word32 {
	initKeystreamTable()
	return keystreamTab.invFiltered[k][(z10_16&mask0_16)>>10]
}

// hasKeystreamZ2_16 reports whether keystreamZ2_16Filtered(k, z10_16)
// would be non-empty.
func hasKeystreamZ2_16(k byte, z10_16 Word32) bool {
	initKeystreamTable()
	return keystreamTab.hasFiltered[k]&(1<<((z10_16&mask0_16)>>10)) != 0
}
