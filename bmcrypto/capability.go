// Package bmcrypto defines the Cryptography capability: hashing,
// signing, ECIES encrypt/decrypt, and proof-of-work checking. The core
// networking and object packages never reach for a concrete curve or
// cipher directly — they hold a Capability handle injected at
// construction, so tests can stub it (§9 "Global cryptography
// singleton").
package bmcrypto

import "errors"

// ErrDecryptionFailed is returned by Decrypt when the ciphertext could
// not be opened with the given private key, e.g. a MAC/tag mismatch.
var ErrDecryptionFailed = errors.New("bmcrypto: decryption failed")

// PublicKey is an opaque, capability-specific public key, composed of
// a 64-byte uncompressed signing key half and a 64-byte uncompressed
// encryption key half, the shape Bitmessage addresses use.
type PublicKey struct {
	Signing    [64]byte
	Encryption [64]byte
}

// PrivateKey is an opaque, capability-specific private key pair
// mirroring PublicKey.
type PrivateKey struct {
	Signing    [32]byte
	Encryption [32]byte
}

// Capability is the full set of cryptographic operations the core
// delegates rather than implementing itself.
type Capability interface {
	// RipeHash returns the 20-byte RIPEMD-160(SHA-512(pub)) address
	// hash for a public key.
	RipeHash(pub *PublicKey) [20]byte

	// Sign returns a detached signature over msg using the signing
	// half of priv.
	Sign(priv *PrivateKey, msg []byte) ([]byte, error)

	// Verify reports whether sig is a valid signature over msg by the
	// signing half of pub.
	Verify(pub *PublicKey, msg, sig []byte) bool

	// Encrypt seals plaintext to pub's encryption half using ECIES.
	Encrypt(pub *PublicKey, plaintext []byte) ([]byte, error)

	// Decrypt opens an ECIES ciphertext with priv's encryption half.
	// Returns ErrDecryptionFailed on any integrity failure.
	Decrypt(priv *PrivateKey, ciphertext []byte) ([]byte, error)

	// CheckProofOfWork reports whether nonce is a valid proof-of-work
	// stamp on payloadWithoutNonce, given the target implied by
	// trialsPerByte/extraBytes and the object's remaining lifetime
	// (ttlSeconds, seconds until it expires), per §4.7 and the GLOSSARY.
	CheckProofOfWork(nonce [8]byte, payloadWithoutNonce []byte, trialsPerByte, extraBytes uint64, ttlSeconds int64) bool

	// DoProofOfWork computes a nonce satisfying CheckProofOfWork for
	// the given payload and difficulty parameters. It may block for a
	// long time and should be run off any latency-sensitive path.
	DoProofOfWork(payloadWithoutNonce []byte, trialsPerByte, extraBytes uint64, ttlSeconds int64) [8]byte
}
