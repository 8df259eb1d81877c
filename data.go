package zcrack

import (
	"io"
	"os"
	"sort"

	"github.com/absfs/absfs"
)

// HeaderSize is the length in bytes of the ZipCrypto encryption header
// prefixed to every entry's ciphertext.
const HeaderSize = 12

// AttackSize is the minimum number of known plaintext bytes the attack
// needs to run at all.
const AttackSize = 12

// ContiguousSize is the number of leading plaintext bytes that must be
// contiguous (no gaps) for Zreduction and Stage 1 of the attack to
// operate on them.
const ContiguousSize = 8

// Data bundles a known-plaintext/ciphertext pair together with the
// keystream derived from it (component E). Offset is relative to the
// ciphertext with its encryption header already accounted for, and may
// be negative down to -HeaderSize.
type Data struct {
	Ciphertext []byte
	Plaintext  []byte
	Keystream  []byte
	Offset     int

	// ExtraOffsets holds positions, sorted ascending, of additional
	// known plaintext bytes beyond the first ContiguousSize-contiguous
	// run, used to validate candidates once Stage 4 has produced an
	// X-list (see spec §4.D and Attack Stage 4). Positions are in
	// entry-stream space: 0 is the first plaintext byte of the entry,
	// the same space Offset places the contiguous plaintext window in
	// (ciphertext index for entry position q is HeaderSize+q).
	ExtraOffsets []int

	// Extra holds the known plaintext byte for each position in
	// ExtraOffsets, keyed the same way.
	Extra map[int]byte
}

// NewData builds a Data directly from in-memory plaintext and
// ciphertext, validating the same invariants LoadData enforces. extra
// supplies additional known plaintext bytes keyed by entry-stream
// position (the same space Offset uses), not necessarily adjoining the
// contiguous run; its keys are sorted ascending before storage so Stage
// 4's extra-plaintext validation walks them in order (Open Question:
// spec.md left the iteration order of extra plaintext unspecified;
// ascending order gives deterministic, early-exit-friendly validation
// and matches the contiguous run's own ordering).
func NewData(ciphertext, plaintext []byte, offset int, extra map[int]byte) (*Data, error) {
	if HeaderSize+offset < 0 {
		return nil, NewDataError("offset is too small", nil)
	}
	if len(plaintext) < AttackSize {
		return nil, NewDataError("plaintext is too small", nil)
	}
	if len(plaintext) > len(ciphertext) {
		return nil, NewDataError("ciphertext is smaller than plaintext", nil)
	}
	if HeaderSize+offset+len(plaintext) > len(ciphertext) {
		return nil, NewDataError("offset is too large", nil)
	}

	d := &Data{
		Ciphertext: ciphertext,
		Plaintext:  plaintext,
		Offset:     offset,
	}
	d.Keystream = make([]byte, len(plaintext))
	base := HeaderSize + offset
	for i, p := range plaintext {
		d.Keystream[i] = ciphertext[base+i] ^ p
	}

	if len(extra) > 0 {
		d.Extra = extra
		d.ExtraOffsets = make([]int, 0, len(extra))
		for pos := range extra {
			d.ExtraOffsets = append(d.ExtraOffsets, pos)
		}
		sort.Ints(d.ExtraOffsets)
	}
	return d, nil
}

// ExtraPlaintextAt returns the known plaintext byte at extra
// entry-stream position pos and whether one was registered there.
func (d *Data) ExtraPlaintextAt(pos int) (byte, bool) {
	p, ok := d.Extra[pos]
	return p, ok
}

// LoadData reads a plaintext file and a ciphertext file through fs and
// builds a Data from their contents, the boundary used by the CLI and
// any caller that has not already extracted bytes from a ZIP archive
// itself.
func LoadData(fs absfs.FileSystem, cipherPath, plainPath string, offset int, extra map[int]byte) (*Data, error) {
	plaintext, err := readAll(fs, plainPath)
	if err != nil {
		return nil, err
	}
	if len(plaintext) < AttackSize {
		return nil, NewDataError("plaintext is too small", nil)
	}
	if HeaderSize+offset < 0 {
		return nil, NewDataError("offset is too small", nil)
	}

	toRead := HeaderSize + offset + len(plaintext)
	ciphertext, err := readUpTo(fs, cipherPath, toRead)
	if err != nil {
		return nil, err
	}

	return NewData(ciphertext, plaintext, offset, extra)
}

func readAll(fs absfs.FileSystem, path string) ([]byte, error) {
	f, err := fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewFileError("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, NewFileError("stat", path, err)
	}

	buf := make([]byte, info.Size())
	if _, err := readFull(f, buf); err != nil {
		return nil, NewFileError("read", path, err)
	}
	return buf, nil
}

// readUpTo reads at most n bytes from path, returning fewer if the file
// is shorter; a short read is not itself an error here, validated later
// by NewData against the plaintext/ciphertext length invariants.
func readUpTo(fs absfs.FileSystem, path string, n int) ([]byte, error) {
	f, err := fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewFileError("open", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := readFull(f, buf)
	if err != nil && err != io.EOF {
		return nil, NewFileError("read", path, err)
	}
	return buf[:read], nil
}

func readFull(f absfs.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
