package zcrack

import "testing"

func TestAttackRecoversKnownKeys(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog, 1234567890")

	password := []byte("correcthorsebatterystaple")
	want := KeysFromPassword(password)

	k := want
	ciphertext := make([]byte, HeaderSize+len(plaintext))
	for i := 0; i < HeaderSize; i++ {
		ciphertext[i] = byte(i) ^ k.KeystreamByte()
		k.Update(byte(i))
	}
	for i, p := range plaintext {
		ciphertext[HeaderSize+i] = p ^ k.KeystreamByte()
		k.Update(p)
	}

	data, err := NewData(ciphertext, plaintext, 0, nil)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}

	zr := NewZreduction(data.Keystream)
	zr.Generate()
	zr.Reduce()

	solutions, err := Attack(data, zr.Values(), zr.Index(), true, nil)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}

	found := false
	for _, s := range solutions {
		if s == want {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("Attack did not recover the true initial Keys %s among %d solution(s): %v", want, len(solutions), solutions)
	}
}

func TestAttackUsesExtraPlaintextForValidation(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog, 1234567890")

	password := []byte("hunter2hunter2")
	want := KeysFromPassword(password)

	k := want
	tail := []byte(" plus a little more text beyond the contiguous run")
	full := append(append([]byte(nil), plaintext...), tail...)
	ciphertext := make([]byte, HeaderSize+len(full))
	for i := 0; i < HeaderSize; i++ {
		ciphertext[i] = byte(i) ^ k.KeystreamByte()
		k.Update(byte(i))
	}
	for i, p := range full {
		ciphertext[HeaderSize+i] = p ^ k.KeystreamByte()
		k.Update(p)
	}

	extraPos := len(plaintext) + 10
	extra := map[int]byte{extraPos: full[extraPos]}

	data, err := NewData(ciphertext, plaintext, 0, extra)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	if got, ok := data.ExtraPlaintextAt(extraPos); !ok || got != full[extraPos] {
		t.Fatalf("ExtraPlaintextAt(%d) = %v,%v, want %#x,true", extraPos, got, ok, full[extraPos])
	}

	zr := NewZreduction(data.Keystream)
	zr.Generate()
	zr.Reduce()

	solutions, err := Attack(data, zr.Values(), zr.Index(), true, nil)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	found := false
	for _, s := range solutions {
		if s == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("Attack did not recover the true Keys with extra plaintext present")
	}
}

func TestAttackRejectsTooShortPlaintext(t *testing.T) {
	data := &Data{Plaintext: make([]byte, AttackSize-1)}
	if _, err := Attack(data, nil, 0, true, nil); err == nil {
		t.Fatal("expected an error for plaintext shorter than AttackSize")
	}
}
