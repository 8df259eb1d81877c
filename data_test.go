package zcrack

import (
	"bytes"
	"os"
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
)

func makeSample(t *testing.T, password string, plaintext []byte, offset int) (ciphertext []byte) {
	t.Helper()
	k := KeysFromPassword([]byte(password))
	ciphertext = make([]byte, HeaderSize+offset+len(plaintext))
	for i := range ciphertext {
		// fill the header and any gap before offset with arbitrary
		// enciphered bytes so keystream derivation has real data to
		// read from, not zero-filled bytes.
		ciphertext[i] = byte(i) ^ k.KeystreamByte()
		k.Update(byte(i))
	}
	k2 := KeysFromPassword([]byte(password))
	for i := 0; i < HeaderSize+offset; i++ {
		k2.Update(ciphertext[i] ^ k2.KeystreamByte())
	}
	for i, p := range plaintext {
		ciphertext[HeaderSize+offset+i] = p ^ k2.KeystreamByte()
		k2.Update(p)
	}
	return ciphertext
}

func TestNewDataComputesKeystream(t *testing.T) {
	plaintext := []byte("0123456789ab")
	ciphertext := makeSample(t, "secret", plaintext, 0)

	d, err := NewData(ciphertext, plaintext, 0, nil)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	for i, p := range plaintext {
		want := ciphertext[HeaderSize+i] ^ p
		if d.Keystream[i] != want {
			t.Fatalf("keystream[%d] = %#x, want %#x", i, d.Keystream[i], want)
		}
	}
}

func TestNewDataRejectsTooSmallPlaintext(t *testing.T) {
	plaintext := []byte("short")
	ciphertext := make([]byte, HeaderSize+len(plaintext))
	if _, err := NewData(ciphertext, plaintext, 0, nil); err == nil {
		t.Fatal("expected error for plaintext shorter than AttackSize")
	}
}

func TestNewDataRejectsOffsetTooSmall(t *testing.T) {
	plaintext := []byte("0123456789ab")
	ciphertext := make([]byte, HeaderSize+len(plaintext))
	if _, err := NewData(ciphertext, plaintext, -HeaderSize-1, nil); err == nil {
		t.Fatal("expected error for offset driving HeaderSize+offset negative")
	}
}

func TestNewDataRejectsOffsetTooLarge(t *testing.T) {
	plaintext := []byte("0123456789ab")
	ciphertext := make([]byte, HeaderSize+len(plaintext))
	if _, err := NewData(ciphertext, plaintext, 1, nil); err == nil {
		t.Fatal("expected error when HeaderSize+offset+len(plaintext) exceeds ciphertext length")
	}
}

func TestDataExtraPlaintextAt(t *testing.T) {
	plaintext := []byte("0123456789ab")
	ciphertext := makeSample(t, "secret", plaintext, 0)

	extra := map[int]byte{20: 'z', 15: 'y'}
	d, err := NewData(ciphertext, plaintext, 0, extra)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}

	if got := d.ExtraOffsets; len(got) != 2 || got[0] != 15 || got[1] != 20 {
		t.Fatalf("ExtraOffsets = %v, want sorted [15 20]", got)
	}

	if b, ok := d.ExtraPlaintextAt(15); !ok || b != 'y' {
		t.Fatalf("ExtraPlaintextAt(15) = %#x,%v, want %#x,true", b, ok, 'y')
	}
	if _, ok := d.ExtraPlaintextAt(999); ok {
		t.Fatal("ExtraPlaintextAt should report unknown for a position never registered")
	}
}

func TestLoadDataReadsThroughFilesystem(t *testing.T) {
	fs, err := memfs.NewFS()
	if err != nil {
		t.Fatalf("memfs.NewFS: %v", err)
	}

	plaintext := []byte("0123456789ab")
	ciphertext := makeSample(t, "secret", plaintext, 3)

	writeFile(t, fs, "/cipher.bin", ciphertext)
	writeFile(t, fs, "/plain.bin", plaintext)

	d, err := LoadData(fs, "/cipher.bin", "/plain.bin", 3, nil)
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}
	if !bytes.Equal(d.Plaintext, plaintext) {
		t.Fatalf("Plaintext = %q, want %q", d.Plaintext, plaintext)
	}
	if d.Offset != 3 {
		t.Fatalf("Offset = %d, want 3", d.Offset)
	}
}

func writeFile(t *testing.T, fs absfs.FileSystem, name string, data []byte) {
	t.Helper()
	f, err := fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatalf("OpenFile(%s): %v", name, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Write(%s): %v", name, err)
	}
}
