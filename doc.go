// Package zcrack implements the Biham-Kocher known-plaintext attack
// against PKWARE's ZipCrypto stream cipher, recovering the cipher's
// 96-bit internal state from a handful of known plaintext bytes and,
// optionally, the textual password that produced it.
//
// # Overview
//
// ZipCrypto keys a stream cipher from three 32-bit registers (X, Y, Z)
// updated one plaintext byte at a time. Knowing as few as 12 bytes of
// plaintext at a known offset is enough to recover the internal state
// exactly; from there, either the entry itself (and every other entry
// encrypted with the same password in the same archive) can be
// deciphered directly, or a textual password of up to ten-odd
// characters can often be reconstructed.
//
// # Basic Usage
//
//	data, err := zcrack.NewData(ciphertext, plaintext, 0, nil)
//	if err != nil {
//	    panic(err)
//	}
//
//	zr := zcrack.NewZreduction(data.Keystream)
//	zr.Generate()
//	zr.Reduce()
//
//	keys, err := zcrack.Attack(data, zr.Values(), zr.Index(), false, nil)
//	if err != nil {
//	    panic(err)
//	}
//
//	charset, _ := zcrack.ParseCharset("?a?s")
//	passwords, err := zcrack.RecoverPassword(keys[0], charset, 1, 9, false, nil)
//
// # Security Considerations
//
// This package exists to demonstrate and reproduce a known,
// publicly-documented weakness of ZipCrypto; it is not a tool for
// attacking archives without authorization. ZipCrypto itself offers no
// meaningful resistance to this attack once roughly a dozen bytes of
// plaintext are known, which is why modern archivers default to
// AES-256 or WinZip AE-x instead (see the zip subpackage, which
// recognizes but does not attempt to break those).
//
// # Performance
//
// The attack and password recovery drivers both fan work out across a
// worker pool sized to the host's CPU count; Zreduction's pruning pass
// is what makes the difference between a search over 2^22 candidate Z
// values and one over a few dozen.
package zcrack
