package zcrack

import "testing"

func TestZreductionRetainsTrueCandidate(t *testing.T) {
	plaintext := []byte("0123456789abcdefghijklmnopqrstuvwxyz")

	k := KeysFromPassword([]byte("s3cr3t"))
	keystream := make([]byte, len(plaintext))
	states := make([]Word32, len(plaintext))
	for i, p := range plaintext {
		states[i] = k.Z
		keystream[i] = k.KeystreamByte()
		k.Update(p)
	}

	zr := NewZreduction(keystream)
	zr.Generate()
	zr.Reduce()

	want := states[zr.Index()] & mask2_32
	found := false
	for _, v := range zr.Values() {
		if v == want {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("Reduce() discarded the true Z[2,32) candidate at index %d (%#x); kept %d candidates",
			zr.Index(), want, len(zr.Values()))
	}
}

func TestZreductionIndexNeverBelowContiguousFloor(t *testing.T) {
	plaintext := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	k := KeysFromPassword([]byte("hunter2"))
	keystream := make([]byte, len(plaintext))
	for i, p := range plaintext {
		keystream[i] = k.KeystreamByte()
		k.Update(p)
	}

	zr := NewZreduction(keystream)
	zr.Generate()
	zr.Reduce()

	if zr.Index() < ContiguousSize-1 {
		t.Fatalf("Index() = %d, must never go below ContiguousSize-1 = %d", zr.Index(), ContiguousSize-1)
	}
}
