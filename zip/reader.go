// Package zip parses ZIP central directory metadata well enough to
// locate ZipCrypto-encrypted entries and extract their raw bytes,
// without attempting to read any entry's compressed content. It
// recognizes but does not decode AES/WinZip AE-x encrypted entries,
// which zcrack's attack does not apply to.
package zip

import (
	"encoding/binary"
	"errors"
	"io"
)

// Encryption identifies the encryption algorithm, if any, an entry's
// general purpose bit flags and extra fields declare.
type Encryption int

const (
	EncryptionNone Encryption = iota
	EncryptionTraditional
	EncryptionUnsupported
)

// Compression identifies a (possibly unrecognized) compression method
// number from the central directory header.
type Compression uint16

const (
	CompressionStore     Compression = 0
	CompressionShrink    Compression = 1
	CompressionImplode   Compression = 6
	CompressionDeflate   Compression = 8
	CompressionDeflate64 Compression = 9
	CompressionBZip2     Compression = 12
	CompressionLZMA      Compression = 14
)

// Entry describes one file stored in a ZIP archive's central
// directory.
type Entry struct {
	Name             string
	Encryption       Encryption
	Compression      Compression
	CRC32            uint32
	Offset           uint64
	PackedSize       uint64
	UncompressedSize uint64

	// CheckByte is the last byte of a traditionally-encrypted entry's
	// 12-byte decryption header once deciphered: the high byte of the
	// CRC-32, or of the last-modified time if bit 3 of the general
	// purpose flags is set (data descriptor in use).
	CheckByte byte
}

const (
	sigLocalFileHeader        = 0x04034b50
	sigCentralDirectoryHeader = 0x02014b50
	sigZip64Eocd              = 0x06064b50
	sigZip64EocdLocator       = 0x07064b50
	sigEocd                   = 0x06054b50

	mask32 = 0xffffffff
)

// Reader gives access to a ZIP archive's central directory and raw
// entry bytes (the ZIP reader boundary, supplementing spec.md's
// interface-only treatment of archive parsing with a concrete, Zip64-
// aware implementation, per original_source's Zip.cpp/zip.cpp).
type Reader struct {
	r                      io.ReadSeeker
	centralDirectoryOffset uint64
}

// NewReader locates r's central directory (following a Zip64 locator
// record if present) and returns a Reader over it.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	offset, err := findCentralDirectoryOffset(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, centralDirectoryOffset: offset}, nil
}

func findCentralDirectoryOffset(r io.ReadSeeker) (uint64, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, newWrappedError("could not seek to end of archive", err)
	}

	var commentLength int64
	var found bool
	for ; commentLength <= mask16; commentLength++ {
		if _, err := r.Seek(end-22-commentLength, io.SeekStart); err != nil {
			break
		}
		sig, err := readU32(r)
		if err != nil {
			break
		}
		if sig == sigEocd {
			found = true
			break
		}
	}
	if !found {
		return 0, newError("could not find end of central directory signature")
	}

	disk, err := readU16(r)
	if err != nil {
		return 0, newWrappedError("could not read end of central directory record", err)
	}
	if disk != 0 {
		return 0, newError("split zip archives are not supported")
	}
	// skip disk where central directory starts (2), number of central
	// directory entries on this disk (2), total number of central
	// directory entries (2), and size of central directory (4)
	if _, err := r.Seek(10, io.SeekCurrent); err != nil {
		return 0, newWrappedError("could not read end of central directory record", err)
	}
	centralDirectoryOffset64, err := readU32(r)
	if err != nil {
		return 0, newWrappedError("could not read end of central directory record", err)
	}
	centralDirectoryOffset := uint64(centralDirectoryOffset64)

	// look for a Zip64 end of central directory locator immediately
	// before the record just read
	if _, err := r.Seek(-40, io.SeekCurrent); err == nil {
		sig, err := readU32(r)
		if err == nil && sig == sigZip64EocdLocator {
			if _, err := r.Seek(4, io.SeekCurrent); err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory locator record", err)
			}
			zip64EocdOffset, err := readU64(r)
			if err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory locator record", err)
			}

			if _, err := r.Seek(int64(zip64EocdOffset), io.SeekStart); err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory record", err)
			}
			sig, err := readU32(r)
			if err != nil || sig != sigZip64Eocd {
				return 0, newError("could not find Zip64 end of central directory record")
			}
			if _, err := r.Seek(10, io.SeekCurrent); err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory record", err)
			}
			versionNeeded, err := readU16(r)
			if err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory record", err)
			}
			if _, err := r.Seek(32, io.SeekCurrent); err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory record", err)
			}
			centralDirectoryOffset, err = readU64(r)
			if err != nil {
				return 0, newWrappedError("could not read Zip64 end of central directory record", err)
			}
			if versionNeeded >= 62 {
				return 0, newError("central directory encryption is not supported")
			}
		}
	}

	return centralDirectoryOffset, nil
}

const mask16 = 0xffff

// Iterator reads successive Entry records from a Reader's central
// directory, one central directory header at a time.
type Iterator struct {
	z   *Reader
	err error
}

// Iterate returns an Iterator positioned at the first central
// directory entry.
func (z *Reader) Iterate() *Iterator {
	if _, err := z.r.Seek(int64(z.centralDirectoryOffset), io.SeekStart); err != nil {
		return &Iterator{z: z, err: err}
	}
	return &Iterator{z: z}
}

// Next reads the next Entry. It returns io.EOF once the central
// directory is exhausted.
func (it *Iterator) Next() (Entry, error) {
	if it.err != nil {
		return Entry{}, it.err
	}

	sig, err := readU32(it.z.r)
	if err != nil {
		return Entry{}, io.EOF
	}
	if sig != sigCentralDirectoryHeader {
		return Entry{}, io.EOF
	}

	entry, err := readCentralDirectoryHeader(it.z.r)
	if err != nil {
		it.err = err
		return Entry{}, err
	}
	return entry, nil
}

// Entries reads every entry in the central directory.
func (z *Reader) Entries() ([]Entry, error) {
	var entries []Entry
	it := z.Iterate()
	for {
		e, err := it.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

// Entry returns the first entry with the given name.
func (z *Reader) Entry(name string) (Entry, error) {
	entries, err := z.Entries()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, newError("found no entry named " + name)
}

func readCentralDirectoryHeader(r io.ReadSeeker) (Entry, error) {
	var entry Entry

	if _, err := r.Seek(4, io.SeekCurrent); err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	flags, err := readU16(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	method, err := readU16(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	lastModTime, err := readU16(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	if _, err := r.Seek(2, io.SeekCurrent); err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	crc32v, err := readU32(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	packedSize, err := readU32(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	uncompressedSize, err := readU32(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	filenameLength, err := readU16(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	extraFieldLength, err := readU16(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	fileCommentLength, err := readU16(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	if _, err := r.Seek(8, io.SeekCurrent); err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	offset, err := readU32(r)
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}
	name, err := readString(r, int(filenameLength))
	if err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}

	entry.Name = name
	entry.CRC32 = crc32v
	entry.PackedSize = uint64(packedSize)
	entry.UncompressedSize = uint64(uncompressedSize)
	entry.Offset = uint64(offset)
	entry.Compression = Compression(method)

	if flags&1 != 0 {
		if method == 99 || (flags>>6)&1 != 0 {
			entry.Encryption = EncryptionUnsupported
		} else {
			entry.Encryption = EncryptionTraditional
		}
	} else {
		entry.Encryption = EncryptionNone
	}

	if (flags>>3)&1 != 0 {
		entry.CheckByte = byte(lastModTime >> 8)
	} else {
		entry.CheckByte = byte(entry.CRC32 >> 24)
	}

	for remaining := int(extraFieldLength); remaining > 0; {
		id, err := readU16(r)
		if err != nil {
			return entry, newWrappedError("could not read extra field", err)
		}
		size, err := readU16(r)
		if err != nil {
			return entry, newWrappedError("could not read extra field", err)
		}
		remaining -= 4 + int(size)

		consumed, err := readExtraField(r, &entry, id, int(size))
		if err != nil {
			return entry, err
		}

		if _, err := r.Seek(int64(int(size)-consumed), io.SeekCurrent); err != nil {
			return entry, newWrappedError("could not read extra field", err)
		}
	}

	if _, err := r.Seek(int64(fileCommentLength), io.SeekCurrent); err != nil {
		return entry, newWrappedError("could not read central directory header", err)
	}

	return entry, nil
}

// readExtraField handles the extra field records zcrack cares about:
// Zip64 extended information (0x0001), Info-ZIP Unicode Path (0x7075),
// and the AE-x WinZip AES encryption structure (0x9901). It returns how
// many of size's bytes it consumed so the caller can skip the rest.
func readExtraField(r io.ReadSeeker, entry *Entry, id uint16, size int) (int, error) {
	switch id {
	case 0x0001: // Zip64 extended information
		consumed := 0
		if size-consumed >= 8 && entry.UncompressedSize == mask32 {
			v, err := readU64(r)
			if err != nil {
				return consumed, newWrappedError("could not read Zip64 extra field", err)
			}
			entry.UncompressedSize = v
			consumed += 8
		}
		if size-consumed >= 8 && entry.PackedSize == mask32 {
			v, err := readU64(r)
			if err != nil {
				return consumed, newWrappedError("could not read Zip64 extra field", err)
			}
			entry.PackedSize = v
			consumed += 8
		}
		if size-consumed >= 8 && entry.Offset == mask32 {
			v, err := readU64(r)
			if err != nil {
				return consumed, newWrappedError("could not read Zip64 extra field", err)
			}
			entry.Offset = v
			consumed += 8
		}
		return consumed, nil

	case 0x7075: // Info-ZIP Unicode Path
		if size < 5 {
			return 0, nil
		}
		if _, err := r.Seek(1, io.SeekCurrent); err != nil {
			return 0, newWrappedError("could not read unicode path extra field", err)
		}
		if _, err := readU32(r); err != nil {
			return 0, newWrappedError("could not read unicode path extra field", err)
		}
		// The stored name CRC is read but not checked: the UTF-8 name
		// replaces the header name whether or not the CRC matches.
		remaining := size - 5
		name, err := readString(r, remaining)
		if err != nil {
			return 0, newWrappedError("could not read unicode path extra field", err)
		}
		entry.Name = name
		return size, nil

	case 0x9901: // AE-x encryption structure
		if size < 7 {
			return 0, nil
		}
		if _, err := r.Seek(5, io.SeekCurrent); err != nil {
			return 0, newWrappedError("could not read AE-x extra field", err)
		}
		actualMethod, err := readU16(r)
		if err != nil {
			return 0, newWrappedError("could not read AE-x extra field", err)
		}
		entry.Compression = Compression(actualMethod)
		entry.Encryption = EncryptionUnsupported
		return 7, nil

	default:
		return 0, nil
	}
}

// Seek positions r at the beginning of entry's raw packed data,
// validating that a local file header is actually present at its
// declared offset.
func (z *Reader) Seek(entry Entry) error {
	if _, err := z.r.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return newWrappedError("could not seek to local file header", err)
	}
	sig, err := readU32(z.r)
	if err != nil || sig != sigLocalFileHeader {
		return newError("could not find local file header")
	}
	if _, err := z.r.Seek(22, io.SeekCurrent); err != nil {
		return newWrappedError("could not read local file header", err)
	}
	nameSize, err := readU16(z.r)
	if err != nil {
		return newWrappedError("could not read local file header", err)
	}
	extraSize, err := readU16(z.r)
	if err != nil {
		return newWrappedError("could not read local file header", err)
	}
	if _, err := z.r.Seek(int64(nameSize)+int64(extraSize), io.SeekCurrent); err != nil {
		return newWrappedError("could not read local file header", err)
	}
	return nil
}

// Load positions r at entry's raw data and reads up to count bytes of
// it (its full packed size if count is 0 or less, or not smaller than
// the packed size).
func (z *Reader) Load(entry Entry, count int) ([]byte, error) {
	if err := z.Seek(entry); err != nil {
		return nil, err
	}

	n := entry.PackedSize
	if count > 0 && uint64(count) < n {
		n = uint64(count)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(z.r, buf); err != nil {
		return nil, newWrappedError("could not read entry data", err)
	}
	return buf, nil
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
