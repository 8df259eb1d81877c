package zcrack

import "fmt"

// Keys is the ZipCrypto internal cipher state: three 32-bit registers
// updated one plaintext byte at a time. It is a small value type, free
// to copy between goroutines (component D).
type Keys struct {
	X, Y, Z Word32
}

// NewKeys returns the initial ZipCrypto state used before any password
// byte has been consumed.
func NewKeys() Keys {
	return Keys{X: 0x12345678, Y: 0x23456789, Z: 0x34567890}
}

// KeysFromPassword returns the state reached after consuming every
// byte of password in order, starting from the initial state.
func KeysFromPassword(password []byte) Keys {
	k := NewKeys()
	for _, p := range password {
		k.Update(p)
	}
	return k
}

// Update advances the state forward by one plaintext byte.
func (k *Keys) Update(p byte) {
	k.X = crc32Step(k.X, p)
	k.Y = (k.Y+Word32(lsb(k.X)))*Mult + 1
	k.Z = crc32Step(k.Z, msb(k.Y))
}

// UpdateBackward reverses Update given the ciphertext byte that was
// produced; the corresponding plaintext byte is derived on the fly
// from the keystream of the state being recovered, not the current one
// (Z does not depend on the plaintext byte, so it can be recovered
// first and used to decipher c).
func (k *Keys) UpdateBackward(c byte) {
	zPrev := crc32StepInv(k.Z, msb(k.Y))
	p := c ^ keystreamByte(zPrev)
	xPrev := crc32StepInv(k.X, p)
	k.Y = (k.Y-1)*MultInv - Word32(lsb(k.X))
	k.X = xPrev
	k.Z = zPrev
}

// KeystreamByte returns the keystream byte produced by the current
// state.
func (k Keys) KeystreamByte() byte {
	return keystreamByte(k.Z)
}

// UpdateRange advances the state forward by deciphering
// ciphertext[current:target] and consuming the recovered plaintext.
func (k *Keys) UpdateRange(ciphertext []byte, current, target int) {
	for i := current; i < target; i++ {
		k.Update(ciphertext[i] ^ k.KeystreamByte())
	}
}

// UpdateBackwardRange reverses the state across ciphertext[target:current],
// processing bytes from current-1 down to target.
func (k *Keys) UpdateBackwardRange(ciphertext []byte, current, target int) {
	for i := current - 1; i >= target; i-- {
		k.UpdateBackward(ciphertext[i])
	}
}

// UpdateBackwardPlaintext reverses Update given an already-known
// plaintext byte directly (used to virtually left-pad short
// passwords); unlike UpdateBackward it does not derive p from a
// ciphertext byte.
func (k *Keys) UpdateBackwardPlaintext(p byte) {
	zPrev := crc32StepInv(k.Z, msb(k.Y))
	xPrev := crc32StepInv(k.X, p)
	k.Y = (k.Y-1)*MultInv - Word32(lsb(k.X))
	k.X = xPrev
	k.Z = zPrev
}

// String formats the three registers as zero-padded, space-separated
// hexadecimal, matching the reference tool's Keys output.
func (k Keys) String() string {
	return fmt.Sprintf("%08x %08x %08x", k.X, k.Y, k.Z)
}
