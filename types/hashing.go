package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// HashLength is the length of every Hash in bytes.
const HashLength = sha256.Size

// Hash is a SHA-256 digest used for chain, block and transaction identities.
type Hash [HashLength]byte

// ZeroHash is the empty hash.
var ZeroHash = Hash{}

// HashFromBytes hashes the given bytes.
func HashFromBytes(b []byte) Hash {
	return sha256.Sum256(b)
}

// HashFromString hashes the given string, mostly used for chain ids.
func HashFromString(s string) Hash {
	return HashFromBytes([]byte(s))
}

// HashFromHex parses a hex encoded hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("%w: got %d bytes", ErrInvalidHashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashLength)
	copy(b, h[:])
	return b
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Xor returns h XOR other.
func (h Hash) Xor(other Hash) Hash {
	var out Hash
	for i := range h {
		out[i] = h[i] ^ other[i]
	}
	return out
}

// Address identifies an account or contract.
type Address []byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a)
}

// AddressFromHex parses a hex encoded address.
func AddressFromHex(s string) (Address, error) {
	return hex.DecodeString(s)
}

func encodeHeight(height uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, height)
	return buf
}
