package zcrack

import "sync"

// shortPasswordLimit is the greatest password length recoverShortPassword
// handles directly; recoverLongPassword takes over from here.
const shortPasswordLimit = 6

// longPasswordBruteforceThreshold is the length at which RecoverPassword
// switches from a sequential recoverLongPassword("", length) call to
// bruteforcing the first two characters in parallel, giving the worker
// pool enough independent tasks to keep every CPU core busy.
const longPasswordBruteforceThreshold = 10

// recoveryTarget holds everything about the cipher state being
// searched for that does not change across password length or prefix:
// the target X/Y/Z registers and the two precomputed reachability
// bitsets. It is built once and shared read-only by every worker
// (component H).
type recoveryTarget struct {
	charset []byte

	// z0_16_32 and zm1_24_32 precompute which Z0[16,32) and
	// Z_{-1}[24,32) values are reachable from the target state given
	// only two guessed trailing characters, letting recover() reject
	// almost every six-byte completion attempt in O(1).
	z0_16_32  [1 << 16]bool
	zm1_24_32 [1 << 8]bool

	x6, y6, z6 Word32
	y5, z4     Word32
}

func newRecoveryTarget(keys Keys, charset []byte) *recoveryTarget {
	t := &recoveryTarget{charset: charset, x6: keys.X, y6: keys.Y, z6: keys.Z}

	t.y5 = (t.y6-1)*MultInv - Word32(lsb(t.x6))

	z := [7]Word32{}
	z[6] = t.z6
	y := [7]Word32{}
	y[6] = t.y6
	y[5] = t.y5
	for i := 6; i > 1; i-- {
		z[i-1] = crc32StepInv(z[i], msb(y[i]))
	}
	t.z4 = z[4]

	for _, p5 := range charset {
		x5 := crc32StepInv(t.x6, p5)
		y4 := (t.y5-1)*MultInv - Word32(lsb(x5))
		z3 := crc32StepInv(t.z4, msb(y4))

		for _, p4 := range charset {
			x4 := crc32StepInv(x5, p4)
			y3 := (y4-1)*MultInv - Word32(lsb(x4))
			z2 := crc32StepInv(z3, msb(y3))
			z1 := crc32StepInv(z2, 0)
			z0 := crc32StepInv(z1, 0)

			t.z0_16_32[z0>>16] = true
			t.zm1_24_32[crc32StepInv(z0, 0)>>24] = true
		}
	}

	return t
}

// recoveryResults is the shared, mutex-guarded output every worker
// appends its found passwords to.
type recoveryResults struct {
	exhaustive bool
	prog       *Progress

	mu        sync.Mutex
	solutions []string
}

func (r *recoveryResults) stopped() bool {
	switch r.prog.State() {
	case StateCanceled:
		return true
	case StateEarlyExit:
		return !r.exhaustive
	default:
		return false
	}
}

func (r *recoveryResults) report(password string) {
	r.mu.Lock()
	r.solutions = append(r.solutions, password)
	r.mu.Unlock()

	if !r.exhaustive {
		r.prog.SetEarlyExit()
	}
}

// recoveryWorker carries one goroutine's mutable search state: the
// in-progress Y/Z completion arrays and the password prefix/erase
// bookkeeping. Every worker holds its own recoveryWorker but shares one
// recoveryTarget and one recoveryResults.
type recoveryWorker struct {
	target  *recoveryTarget
	results *recoveryResults

	x, y, z [7]Word32
	x0      Word32

	p      [6]byte
	prefix []byte
	erase  int
}

func newRecoveryWorker(target *recoveryTarget, results *recoveryResults) *recoveryWorker {
	w := &recoveryWorker{target: target, results: results}
	w.y[5] = target.y5

	// recover derives Y_i[24,32) from msb(z[i]) for i = 1..4, and each of
	// those msbs follows from Z4 alone; recover's forward pass keeps them.
	w.z[4] = target.z4
	for i := 4; i > 1; i-- {
		w.z[i-1] = crc32StepInv(w.z[i], 0)
	}
	return w
}

// recoverShortPassword looks for a password of the given length (6 or
// less) by virtually left-padding the cipher state with the charset's
// first character, undoing those pad steps, and handing the result to
// recover.
func (w *recoveryWorker) recoverShortPassword(length int) {
	initial := NewKeys()
	for i := 0; i < shortPasswordLimit-length; i++ {
		initial.UpdateBackwardPlaintext(w.target.charset[0])
	}

	w.prefix = nil
	w.erase = shortPasswordLimit - length
	w.recover(initial)
}

// recoverLongPasswordPrefix looks for a password of the given total
// length starting with prefix, whose state has already been advanced
// past it.
func (w *recoveryWorker) recoverLongPasswordPrefix(prefix []byte, length int) {
	w.prefix = append([]byte(nil), prefix...)
	w.erase = 0
	w.recoverLong(KeysFromPassword(prefix), length-len(prefix))
}

// recoverLong extends the password one byte at a time until exactly 6
// bytes remain, at which point recover takes over.
func (w *recoveryWorker) recoverLong(initial Keys, remaining int) {
	charset := w.target.charset

	if remaining == 7 {
		if !w.target.zm1_24_32[initial.Z>>24] {
			return
		}

		w.prefix = append(w.prefix, charset[0])
		for _, pi := range charset {
			init := initial
			init.Update(pi)

			w.prefix[len(w.prefix)-1] = pi
			w.recover(init)
		}
		w.prefix = w.prefix[:len(w.prefix)-1]
		return
	}

	if w.results.stopped() {
		return
	}

	w.prefix = append(w.prefix, charset[0])
	for _, pi := range charset {
		init := initial
		init.Update(pi)

		w.prefix[len(w.prefix)-1] = pi
		w.recoverLong(init, remaining-1)
	}
	w.prefix = w.prefix[:len(w.prefix)-1]
}

// recover tries to complete the last 6 bytes of the password given the
// state reached after every earlier byte.
func (w *recoveryWorker) recover(initial Keys) {
	if !w.target.z0_16_32[initial.Z>>16] {
		return
	}

	w.x[6] = w.target.x6
	w.x[0], w.x0 = initial.X, initial.X
	w.y[0] = initial.Y
	w.z[0] = initial.Z

	for i := 1; i <= 4; i++ {
		w.y[i] = yUpperFromZ(w.z[i], w.z[i-1])
		w.z[i] = crc32Step(w.z[i-1], msb(w.y[i]))
	}

	w.recursion(5)
}

func (w *recoveryWorker) recursion(i int) {
	if i != 1 {
		fy := (w.y[i] - 1) * MultInv
		ffy := (fy - 1) * MultInv

		for _, xi0_8 := range fiber2(msb(ffy - (w.y[i-2] & mask24_32))) {
			yim1 := fy - Word32(xi0_8)

			if ffy-multInvOf(xi0_8)-(w.y[i-2]&mask24_32) <= maxdiff0_24 && msb(yim1) == msb(w.y[i-1]) {
				w.y[i-1] = yim1
				w.x[i] = Word32(xi0_8)
				w.recursion(i - 1)
			}
		}
		return
	}

	x1 := (w.y[1]-1)*MultInv - w.y[0]
	if x1 > 0xff {
		return
	}
	w.x[1] = x1

	x := w.x
	for i := 5; i >= 0; i-- {
		xiXorPi := crc32StepInv(x[i+1], 0)
		w.p[i] = lsb(xiXorPi ^ x[i])
		x[i] = xiXorPi ^ Word32(w.p[i])
	}

	if x[0] != w.x0 {
		return
	}

	password := string(w.prefix) + string(w.p[:])
	if w.erase > 0 && w.erase <= len(password) {
		password = password[w.erase:]
	}

	w.results.report(password)
}

// RecoverPassword searches, for every length between minLen and
// maxLen, for a textual password that produces keys under the
// charset's alphabet (component H). Lengths of 6 or less are completed
// directly; 7 to 9 run the single-threaded recursive search; 10 and
// above bruteforce the first two characters across the worker pool so
// every CPU core has independent work. A nil prog disables progress
// tracking and cooperative cancellation.
func RecoverPassword(keys Keys, charset []byte, minLen, maxLen int, exhaustive bool, prog *Progress) ([]string, error) {
	if len(charset) == 0 {
		return nil, NewArgumentError("charset", charset, "must not be empty")
	}
	if minLen < 0 || maxLen < minLen {
		return nil, NewArgumentError("minLen/maxLen", []int{minLen, maxLen}, "must satisfy 0 <= minLen <= maxLen")
	}

	target := newRecoveryTarget(keys, charset)
	results := &recoveryResults{exhaustive: exhaustive, prog: prog}

	for length := minLen; length <= maxLen; length++ {
		if results.stopped() {
			break
		}

		switch {
		case length <= shortPasswordLimit:
			w := newRecoveryWorker(target, results)
			w.recoverShortPassword(length)
		case length < longPasswordBruteforceThreshold:
			w := newRecoveryWorker(target, results)
			w.recoverLongPasswordPrefix(nil, length)
		default:
			if err := bruteforcePrefixes(target, results, length); err != nil {
				return nil, err
			}
		}
	}

	if len(results.solutions) == 0 {
		return nil, ErrNoSolution
	}
	return results.solutions, nil
}

// bruteforcePrefixes dispatches every two-character prefix of length
// across the worker pool, each running an independent
// recoverLongPasswordPrefix search against a worker-local
// recoveryWorker sharing the same target and results.
func bruteforcePrefixes(target *recoveryTarget, results *recoveryResults, length int) error {
	n := len(target.charset)
	total := n * n
	results.prog.SetTotal(int64(total))

	return runWorkerPool(DefaultParallelConfig(), total, results.prog, func(i int) {
		prefix := []byte{target.charset[i/n], target.charset[i%n]}
		w := newRecoveryWorker(target, results)
		w.recoverLongPasswordPrefix(prefix, length)
	})
}
