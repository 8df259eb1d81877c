package zcrack

import "sync"

// Attack iterates over candidates (Z_i[2,32) values, typically produced
// by Zreduction) and runs the four-stage attack on each in parallel,
// collecting every internal state consistent with data's known
// plaintext. index is the position of the candidates relative to
// data.Keystream. If exhaustive is false, Attack stops dispatching new
// candidates as soon as one solution has been found; either way,
// candidates already in flight are allowed to finish. A nil prog is
// accepted and simply disables progress tracking and cooperative
// cancellation via SetCanceled.
func Attack(data *Data, candidates []Word32, index int, exhaustive bool, prog *Progress) ([]Keys, error) {
	if len(data.Plaintext) < AttackSize {
		return nil, NewArgumentError("data", nil, "need at least AttackSize known plaintext bytes")
	}

	if prog == nil {
		// a private Progress still carries the early-exit flag
		prog = NewProgress(nil)
	}
	prog.SetTotal(int64(len(candidates)))

	var mu sync.Mutex
	var solutions []Keys

	add := func(k Keys) {
		mu.Lock()
		solutions = append(solutions, k)
		mu.Unlock()
		if !exhaustive {
			prog.SetEarlyExit()
		}
	}

	err := runWorkerPool(DefaultParallelConfig(), len(candidates), prog, func(i int) {
		a := newAttack(data, index, add)
		a.carryOut(candidates[i])
	})
	if err != nil {
		return nil, err
	}

	if len(solutions) == 0 {
		return nil, ErrNoSolution
	}
	return solutions, nil
}

// attack carries out the Biham-Kocher attack for a single Z_i[2,32)
// candidate, reconstructing the complete 96-bit internal state if one
// is consistent with the known plaintext (component G).
//
// The four stages recurse over fixed-size windows of the eight most
// recent cipher states: zlist/ylist/xlist index 0..7, with ylist[0:2]
// and xlist[0:4] never populated (mirroring the reference attack,
// which only needs Y from index 2 on and X from index 4 on).
type attack struct {
	data  *Data
	index int // starting index into data.Plaintext/Keystream, offset by the contiguous window

	zlist [ContiguousSize]Word32
	ylist [ContiguousSize]Word32
	xlist [ContiguousSize]Word32

	addSolution func(Keys)
}

func newAttack(data *Data, index int, addSolution func(Keys)) *attack {
	return &attack{
		data:        data,
		index:       index + 1 - ContiguousSize,
		addSolution: addSolution,
	}
}

// carryOut runs the full recursion for one Z7[2,32) candidate.
func (a *attack) carryOut(z7_2_32 Word32) {
	a.zlist[7] = z7_2_32
	a.exploreZlists(7)
}

// exploreZlists is Stage 1: it completes the Z-list backward from
// index i to 0 using the CRC32 inverse and the keystream-consistency
// filter, deriving Y[24,32) upper bytes for the next stage as it goes.
func (a *attack) exploreZlists(i int) {
	if i != 0 {
		zim1_10_32 := zPrevUpperFromZ(a.zlist[i])

		for _, zim1_2_16 := range keystreamZ2_16Filtered(a.data.Keystream[a.index+i-1], zim1_10_32) {
			a.zlist[i-1] = zim1_10_32 | zim1_2_16

			a.zlist[i] &= mask2_32
			a.zlist[i] |= (crc32StepInv(a.zlist[i], 0) ^ a.zlist[i-1]) >> 8

			if i < 7 {
				a.ylist[i+1] = yUpperFromZ(a.zlist[i+1], a.zlist[i])
			}

			a.exploreZlists(i - 1)
		}
		return
	}

	// Stage 2: the Z-list is complete; enumerate Y7 candidates 8 bits
	// at a time, guessing Y7[8,24) and deriving Y7[0,8) from the
	// multiplicative fiber table, filtered against Y6[24,32).
	multInv := MultInv // a variable, so that multInv<<8 wraps instead of overflowing a constant
	prod := multInvOf(msb(a.ylist[7]))<<24 - MultInv
	for y7_8_24 := Word32(0); y7_8_24 < 1<<24; y7_8_24 += 1 << 8 {
		for _, y7_0_8 := range fiber3(msb(a.ylist[6]) - msb(prod)) {
			if prod+multInvOf(y7_0_8)-(a.ylist[6]&mask24_32) <= maxdiff0_24 {
				a.ylist[7] = Word32(y7_0_8) | y7_8_24 | (a.ylist[7] & mask24_32)
				a.exploreYlists(7)
			}
		}
		prod += multInv << 8
	}
}

// exploreYlists is Stage 3: it completes the Y-list backward from
// index i to 3 using the multiplicative fiber tables, recovering the
// corresponding X byte at each step, bounded by Y[24,32) of two steps
// back.
func (a *attack) exploreYlists(i int) {
	if i != 3 {
		fy := (a.ylist[i] - 1) * MultInv
		ffy := (fy - 1) * MultInv

		for _, xi_0_8 := range fiber2(msb(ffy - (a.ylist[i-2] & mask24_32))) {
			yim1 := fy - Word32(xi_0_8)

			if ffy-multInvOf(xi_0_8)-(a.ylist[i-2]&mask24_32) <= maxdiff0_24 && msb(yim1) == msb(a.ylist[i-1]) {
				a.ylist[i-1] = yim1
				a.xlist[i] = Word32(xi_0_8)
				a.exploreYlists(i - 1)
			}
		}
		return
	}

	a.testXlist()
}

// testXlist is Stage 4: it reconstructs X forward to index 7 and
// backward to index 3, checks the X3/Y1 consistency bound, then
// validates the full candidate against every byte of known plaintext
// (the contiguous window, any extra plaintext, and forward/backward
// across the whole buffer) before accepting it as a solution.
func (a *attack) testXlist() {
	for i := 5; i <= 7; i++ {
		a.xlist[i] = (crc32Step(a.xlist[i-1], a.data.Plaintext[a.index+i-1]) & mask8_32) | Word32(lsb(a.xlist[i]))
	}

	x := a.xlist[7]
	for i := 6; i >= 3; i-- {
		x = crc32StepInv(x, a.data.Plaintext[a.index+i])
	}

	y1_26_32 := yUpperFromZ(a.zlist[1], a.zlist[0]) & mask26_32
	if ((a.ylist[3]-1)*MultInv-Word32(lsb(x))-1)*MultInv-y1_26_32 > maxdiff0_26 {
		return
	}

	keysForward := Keys{X: a.xlist[7], Y: a.ylist[7], Z: a.zlist[7]}
	keysForward.Update(a.data.Plaintext[a.index+7])
	for p := a.index + 8; p < len(a.data.Plaintext); p++ {
		c := a.data.Offset + p
		if (a.data.Ciphertext[HeaderSize+c] ^ keysForward.KeystreamByte()) != a.data.Plaintext[p] {
			return
		}
		keysForward.Update(a.data.Plaintext[p])
	}
	indexForward := a.data.Offset + len(a.data.Plaintext)

	keysBackward := Keys{X: x, Y: a.ylist[3], Z: a.zlist[3]}
	for p := a.index + 2; p >= 0; p-- {
		c := HeaderSize + a.data.Offset + p
		keysBackward.UpdateBackward(a.data.Ciphertext[c])
		if (a.data.Ciphertext[c] ^ keysBackward.KeystreamByte()) != a.data.Plaintext[p] {
			return
		}
	}
	indexBackward := a.data.Offset

	for _, pos := range a.data.ExtraOffsets {
		expected, ok := a.data.ExtraPlaintextAt(pos)
		if !ok {
			continue
		}
		var got byte
		if pos < indexBackward {
			keysBackward.UpdateBackwardRange(a.data.Ciphertext, HeaderSize+indexBackward, HeaderSize+pos)
			indexBackward = pos
			got = a.data.Ciphertext[HeaderSize+indexBackward] ^ keysBackward.KeystreamByte()
		} else {
			keysForward.UpdateRange(a.data.Ciphertext, HeaderSize+indexForward, HeaderSize+pos)
			indexForward = pos
			got = a.data.Ciphertext[HeaderSize+indexForward] ^ keysForward.KeystreamByte()
		}
		if got != expected {
			return
		}
	}

	// step back across the encryption header too, so the solution is the
	// state before the first ciphertext byte
	keysBackward.UpdateBackwardRange(a.data.Ciphertext, HeaderSize+indexBackward, 0)

	a.addSolution(keysBackward)
}
