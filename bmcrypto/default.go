package bmcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // protocol-mandated hash, not a security choice
)

// Default is the reference Capability implementation: secp256k1
// ECDSA signatures via btcec (the curve the pack's
// orbas1-Synnergy module already depends on), RIPEMD-160(SHA-512(·))
// address hashing, and an ECIES construction (ECDH, SHA-512-derived
// keys, AES-256-GCM plus an HMAC-SHA256 tag) adequate for exercising the rest of the
// core against real ciphertext rather than a byte-identity stub.
type Default struct{}

var _ Capability = Default{}

// RipeHash implements Capability.
func (Default) RipeHash(pub *PublicKey) [20]byte {
	sha := sha512.Sum512(append(append([]byte{}, pub.Signing[:]...), pub.Encryption[:]...))
	r := ripemd160.New()
	_, _ = r.Write(sha[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

func decodePrivScalar(b [32]byte) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

func decodePubPoint(b [64]byte) (*btcec.PublicKey, error) {
	// Reconstitute an uncompressed point from the raw 64-byte X||Y
	// halves Bitmessage addresses carry.
	buf := make([]byte, 65)
	buf[0] = 0x04
	copy(buf[1:], b[:])
	return btcec.ParsePubKey(buf)
}

// Sign implements Capability.
func (Default) Sign(priv *PrivateKey, msg []byte) ([]byte, error) {
	key := decodePrivScalar(priv.Signing)
	digest := sha256.Sum256(msg)
	sig := ecdsa.Sign(key, digest[:])
	return sig.Serialize(), nil
}

// Verify implements Capability.
func (Default) Verify(pub *PublicKey, msg, sig []byte) bool {
	point, err := decodePubPoint(pub.Signing)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return parsed.Verify(digest[:], point)
}

// Encrypt implements Capability using ephemeral ECDH, SHA-512-derived
// keys, and AES-256-GCM with an HMAC-SHA256 tag over nonce‖ciphertext.
func (Default) Encrypt(pub *PublicKey, plaintext []byte) ([]byte, error) {
	point, err := decodePubPoint(pub.Encryption)
	if err != nil {
		return nil, err
	}

	ephemeral, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}

	shared := ecdhSharedSecret(ephemeral, point)
	encKey, macKey := deriveKeys(shared)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	ephemeralPub := ephemeral.PubKey().SerializeUncompressed() // 0x04 || X(32) || Y(32)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(nonce)
	mac.Write(sealed)
	tag := mac.Sum(nil)

	out := make([]byte, 0, len(ephemeralPub)+len(nonce)+len(sealed)+len(tag))
	out = append(out, ephemeralPub...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	out = append(out, tag...)
	return out, nil
}

// Decrypt implements Capability.
func (Default) Decrypt(priv *PrivateKey, ciphertext []byte) ([]byte, error) {
	const ephemeralLen = 65
	const nonceLen = 12
	const tagLen = sha256.Size
	if len(ciphertext) < ephemeralLen+nonceLen+tagLen {
		return nil, ErrDecryptionFailed
	}

	ephemeralPub, err := btcec.ParsePubKey(ciphertext[:ephemeralLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	rest := ciphertext[ephemeralLen:]
	nonce := rest[:nonceLen]
	sealedAndTag := rest[nonceLen:]
	tag := sealedAndTag[len(sealedAndTag)-tagLen:]
	sealed := sealedAndTag[:len(sealedAndTag)-tagLen]

	key := decodePrivScalar(priv.Encryption)
	shared := ecdhSharedSecret(key, ephemeralPub)
	encKey, macKey := deriveKeys(shared)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(nonce)
	mac.Write(sealed)
	expectedTag := mac.Sum(nil)
	if !hmac.Equal(tag, expectedTag) {
		return nil, ErrDecryptionFailed
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// ecdhSharedSecret computes the X coordinate of priv·pub on secp256k1,
// the shared secret both sides of an ECIES exchange derive keys from.
func ecdhSharedSecret(priv *btcec.PrivateKey, pub *btcec.PublicKey) []byte {
	pubECDSA := pub.ToECDSA()
	sharedX, _ := btcec.S256().ScalarMult(pubECDSA.X, pubECDSA.Y, priv.Serialize())
	return sharedX.Bytes()
}

func deriveKeys(shared []byte) (encKey, macKey []byte) {
	h := sha512.Sum512(shared)
	return h[:32], h[32:]
}
