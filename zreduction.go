package zcrack

import "sort"

// waitSize and trackSize bound the smallest-candidate-set tracking
// heuristic in Reduce: once the candidate set shrinks to waitSize or
// below, Reduce keeps iterating a further multiple of its size hoping
// for an even smaller set before giving up, and never tracks a set
// bigger than trackSize in the first place.
const (
	waitSize  = 1 << 8
	trackSize = 1 << 16
)

// Zreduction narrows the 2^22 possible Z_i[2,32) values consistent with
// the last known keystream byte down to the smallest practical set
// consistent with every preceding keystream byte back to
// ContiguousSize (component F).
type Zreduction struct {
	keystream []byte
	values    []Word32
	index     int
}

// NewZreduction constructs a Zreduction over keystream; call Generate
// then Reduce before reading Values/Index.
func NewZreduction(keystream []byte) *Zreduction {
	return &Zreduction{keystream: keystream}
}

// Generate populates the initial 2^22-entry candidate set: every
// Z_i[2,16) value whose keystream byte matches the last known
// keystream byte, each combined with every possible Z_i[16,32) guess.
func (z *Zreduction) Generate() {
	z.index = len(z.keystream) - 1
	z.values = make([]Word32, 0, 1<<22)

	last := z.keystream[z.index]
	zi2_16 := keystreamZ2_16(last)
	for _, lo := range zi2_16 {
		for high := Word32(0); high < 1<<16; high++ {
			z.values = append(z.values, high<<16|lo)
		}
	}
}

// Reduce walks backward from Index, at each step keeping only the
// Z_{i-1}[2,32) values consistent with keystream[i-1], and stops either
// at ContiguousSize or once the smallest candidate set seen has been
// given a further chance to shrink and failed to.
func (z *Zreduction) Reduce() {
	tracking := false
	var bestCopy []Word32
	bestIndex := z.index
	bestSize := trackSize

	waiting := false
	wait := 0

	for i := z.index; i >= ContiguousSize; i-- {
		zim1_10_32 := make([]Word32, 0, len(z.values))
		for _, zi2_32 := range z.values {
			cand := zPrevUpperFromZ(zi2_32)
			if hasKeystreamZ2_16(z.keystream[i-1], cand) {
				zim1_10_32 = append(zim1_10_32, cand)
			}
		}

		sort.Slice(zim1_10_32, func(a, b int) bool { return zim1_10_32[a] < zim1_10_32[b] })
		zim1_10_32 = dedupSortedWords(zim1_10_32)

		zim1_2_32 := make([]Word32, 0, len(zim1_10_32))
		for _, upper := range zim1_10_32 {
			for _, lo := range keystreamZ2_16Filtered(z.keystream[i-1], upper) {
				zim1_2_32 = append(zim1_2_32, upper|lo)
			}
		}

		if len(zim1_2_32) <= bestSize {
			tracking = true
			bestIndex = i - 1
			bestSize = len(zim1_2_32)
			waiting = false
		} else if tracking {
			if bestIndex == i {
				// z.values is about to be replaced by the larger
				// zim1_2_32 set below, so keep a copy of the smallest
				// set seen so far before that happens.
				bestCopy = append([]Word32(nil), z.values...)
				if bestSize <= waitSize {
					waiting = true
					wait = bestSize * 4
				}
			}
			if waiting {
				wait--
				if wait == 0 {
					break
				}
			}
		}

		z.values = zim1_2_32
	}

	if tracking {
		if bestIndex != ContiguousSize-1 {
			z.values = bestCopy
		}
		z.index = bestIndex
	} else {
		z.index = ContiguousSize - 1
	}
}

// Values returns the reduced Z_i[2,32) candidate set.
func (z *Zreduction) Values() []Word32 { return z.values }

// Index returns the keystream index the reduced candidates correspond to.
func (z *Zreduction) Index() int { return z.index }

func dedupSortedWords(s []Word32) []Word32 {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
