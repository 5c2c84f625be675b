package wire

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"io"
)

// HashSize is the number of bytes in an inventory vector hash.
const HashSize = 32

// ShaHash is a 32-byte inventory vector: the truncated double-SHA-512
// of nonce‖payload_bytes_without_nonce. It uniquely identifies an
// object network-wide and is compared and hashed by byte value.
type ShaHash [HashSize]byte

// String returns the hash as a hex string, most-significant byte
// first, matching the btcsuite-family convention.
func (h ShaHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsEqual returns whether h and other represent the same hash.
func (h ShaHash) IsEqual(other *ShaHash) bool {
	if other == nil {
		return false
	}
	return h == *other
}

// Bytes returns a copy of the hash as a byte slice.
func (h ShaHash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// NewShaHash constructs a ShaHash from a byte slice, which must be
// exactly HashSize bytes long.
func NewShaHash(b []byte) (*ShaHash, error) {
	if len(b) != HashSize {
		return nil, ErrInvalid
	}
	var h ShaHash
	copy(h[:], b)
	return &h, nil
}

// DoubleSha512 truncates to 32 bytes the SHA-512 of the SHA-512 of b,
// the checksum construction used for both message checksums and
// inventory vectors.
func DoubleSha512(b []byte) []byte {
	first := sha512.Sum512(b)
	second := sha512.Sum512(first[:])
	return second[:HashSize]
}

// InventoryVector computes the IV for an object whose wire encoding,
// with the 8-byte nonce stripped off, is payloadWithoutNonce. The full
// hash input is nonce‖payload_bytes_without_nonce as required by §3.
func InventoryVector(nonce [8]byte, payloadWithoutNonce []byte) ShaHash {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(payloadWithoutNonce)))
	buf.Write(nonce[:])
	buf.Write(payloadWithoutNonce)
	var h ShaHash
	copy(h[:], DoubleSha512(buf.Bytes()))
	return h
}

// ReadShaHash reads a fixed 32-byte hash with no length prefix.
func ReadShaHash(r io.Reader) (*ShaHash, error) {
	buf, err := ReadFixedBytes(r, HashSize)
	if err != nil {
		return nil, err
	}
	var h ShaHash
	copy(h[:], buf)
	return &h, nil
}

// WriteShaHash writes a fixed 32-byte hash with no length prefix.
func WriteShaHash(w io.Writer, h *ShaHash) error {
	_, err := w.Write(h[:])
	return err
}
