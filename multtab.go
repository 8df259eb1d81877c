package zcrack

import "sync"

// Mult is the multiplicative constant used by ZipCrypto's Y register
// recurrence.
const Mult Word32 = 0x08088405

// MultInv is the multiplicative inverse of Mult modulo 2^32.
const MultInv Word32 = 0xd94fa8cd

// multTable holds the multiplication lookup tables and the two inverse
// "fiber" tables used to bound the backward search over Y (component
// B). Like crcTable, it is process-wide, immutable after
// initialization, and safe for concurrent reads.
type multTable struct {
	mult    [256]Word32
	multInv [256]Word32

	// fiber2[t] holds every byte x such that msb(x*MultInv) is t or t-1.
	fiber2 [256][]byte
	// fiber3[t] holds every byte x such that msb(x*MultInv) is t-1, t or t+1.
	fiber3 [256][]byte
}

var (
	multTab     multTable
	multTabOnce sync.Once
)

func initMultTable() {
	multTabOnce.Do(func() {
		var prod, prodInv Word32
		for x := 0; x < 256; x++ {
			multTab.mult[x] = prod
			multTab.multInv[x] = prodInv

			m := msb(prodInv)
			multTab.fiber2[m] = append(multTab.fiber2[m], byte(x))
			multTab.fiber2[byte(int(m)+1)] = append(multTab.fiber2[byte(int(m)+1)], byte(x))

			multTab.fiber3[byte(int(m)-1)] = append(multTab.fiber3[byte(int(m)-1)], byte(x))
			multTab.fiber3[m] = append(multTab.fiber3[m], byte(x))
			multTab.fiber3[byte(int(m)+1)] = append(multTab.fiber3[byte(int(m)+1)], byte(x))

			prod += Mult
			prodInv += MultInv
		}
	})
}

// multOf returns x*Mult using the lookup table.
func multOf(x byte) Word32 {
	initMultTable()
	return multTab.mult[x]
}

// multInvOf returns x*MultInv using the lookup table.
func multInvOf(x byte) Word32 {
	initMultTable()
	return multTab.multInv[x]
}

// fiber2 returns every byte x such that msb(x*MultInv) equals target or target-1.
func fiber2(target byte) []byte {
	initMultTable()
	return multTab.fiber2[target]
}

// fiber3 returns every byte x such that msb(x*MultInv) equals target-1, target or target+1.
func fiber3(target byte) []byte {
	initMultTable()
	return multTab.fiber3[target]
}
