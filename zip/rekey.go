package zip

import (
	"io"
	"sort"

	"github.com/kapsa-labs/zcrack"
)

// ChangeKeys copies the archive byte for byte, decrypting every
// Traditional-encrypted entry under oldKeys and re-encrypting it under
// newKeys, leaving every other entry untouched. It lets an archive
// recovered via Attack be given a fresh, known password without
// recompressing any entry's data (component G/H's output feeding back into the zip
// boundary, grounded on Zip::changeKeys).
func (z *Reader) ChangeKeys(w io.Writer, oldKeys, newKeys zcrack.Keys, prog *zcrack.Progress) error {
	entries, err := z.Entries()
	if err != nil {
		return err
	}

	type span struct {
		offset, packedSize uint64
	}
	var spans []span
	for _, e := range entries {
		if e.Encryption == EncryptionTraditional {
			spans = append(spans, span{e.Offset, e.PackedSize})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].offset < spans[j].offset })

	if _, err := z.r.Seek(0, io.SeekStart); err != nil {
		return newWrappedError("could not rewind archive", err)
	}

	prog.SetTotal(int64(len(spans)))

	var current uint64
	for _, s := range spans {
		if prog.State() == zcrack.StateCanceled {
			return nil
		}

		if current < s.offset {
			if err := copyN(w, z.r, s.offset-current); err != nil {
				return newWrappedError("could not copy archive data", err)
			}
		}

		sig, err := readU32(z.r)
		if err != nil || sig != sigLocalFileHeader {
			return newError("could not find local file header")
		}
		if err := writeU32(w, sigLocalFileHeader); err != nil {
			return newWrappedError("could not write local file header", err)
		}
		if err := copyN(w, z.r, 22); err != nil {
			return newWrappedError("could not copy local file header", err)
		}

		filenameLength, err := readU16(z.r)
		if err != nil {
			return newWrappedError("could not read local file header", err)
		}
		extraLength, err := readU16(z.r)
		if err != nil {
			return newWrappedError("could not read local file header", err)
		}
		if err := writeU16(w, filenameLength); err != nil {
			return newWrappedError("could not write local file header", err)
		}
		if err := writeU16(w, extraLength); err != nil {
			return newWrappedError("could not write local file header", err)
		}

		nameAndExtra := uint64(filenameLength) + uint64(extraLength)
		if nameAndExtra > 0 {
			if err := copyN(w, z.r, nameAndExtra); err != nil {
				return newWrappedError("could not copy file name/extra field", err)
			}
		}

		if err := rekeyEntryData(w, z.r, s.packedSize, oldKeys, newKeys); err != nil {
			return err
		}

		current = s.offset + 30 + nameAndExtra + s.packedSize
		prog.Increment()
	}

	if _, err := io.Copy(w, z.r); err != nil {
		return newWrappedError("could not copy remaining archive data", err)
	}
	return nil
}

// Decrypt writes entry's packed data to w with the traditional
// encryption removed, leaving the plaintext (still possibly compressed
// with whatever method the entry declares) in its place.
func (z *Reader) Decrypt(w io.Writer, entry Entry, keys zcrack.Keys) error {
	if entry.Encryption != EncryptionTraditional {
		return newError("entry \"" + entry.Name + "\" is not encrypted with the traditional algorithm")
	}
	if err := z.Seek(entry); err != nil {
		return err
	}

	buf := make([]byte, 4096)
	var remaining = entry.PackedSize
	for remaining > 0 {
		n := uint64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(z.r, buf[:n]); err != nil {
			return newWrappedError("could not read entry data", err)
		}
		for i := uint64(0); i < n; i++ {
			buf[i] ^= keys.KeystreamByte()
			keys.Update(buf[i])
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return newWrappedError("could not write decrypted data", err)
		}
		remaining -= n
	}
	return nil
}

func rekeyEntryData(w io.Writer, r io.Reader, packedSize uint64, oldKeys, newKeys zcrack.Keys) error {
	buf := make([]byte, 4096)
	for remaining := packedSize; remaining > 0; {
		n := uint64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return newWrappedError("could not read entry data", err)
		}
		for i := uint64(0); i < n; i++ {
			p := buf[i] ^ oldKeys.KeystreamByte()
			c := p ^ newKeys.KeystreamByte()
			oldKeys.Update(p)
			newKeys.Update(p)
			buf[i] = c
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return newWrappedError("could not write entry data", err)
		}
		remaining -= n
	}
	return nil
}

func copyN(w io.Writer, r io.Reader, n uint64) error {
	_, err := io.CopyN(w, r, int64(n))
	return err
}

func writeU16(w io.Writer, v uint16) error {
	buf := [2]byte{byte(v), byte(v >> 8)}
	_, err := w.Write(buf[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	buf := [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	_, err := w.Write(buf[:])
	return err
}
