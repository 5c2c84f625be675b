package obj

import (
	"bytes"
	"io"

	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/wire"
)

// Pubkey advertises an address's public keys. Versions 2 and 3 carry
// the keys and PoW parameters in the clear and a detached signature;
// version 4 wraps the same content (minus the tag) in ECIES ciphertext
// addressed to a tag derived from the destination RIPE, so that only
// someone who already knows the address can read it.
type Pubkey struct {
	version uint64
	stream  uint64

	Behavior           uint32
	SigningKey         [64]byte
	EncryptionKey      [64]byte
	NonceTrialsPerByte uint64
	ExtraBytes         uint64
	signature          []byte

	// Tag addresses a v4 pubkey without revealing the RIPE; it is
	// cleartext even when the rest of the payload is sealed.
	Tag [32]byte

	encrypted []byte
	decrypted bool
}

// NewPubkey constructs a cleartext Pubkey payload. Callers targeting
// version 4 should call Encrypt before the Object is sealed.
func NewPubkey(version, stream uint64, behavior uint32, signingKey, encryptionKey [64]byte, trialsPerByte, extraBytes uint64) *Pubkey {
	return &Pubkey{
		version:            version,
		stream:             stream,
		Behavior:           behavior,
		SigningKey:         signingKey,
		EncryptionKey:      encryptionKey,
		NonceTrialsPerByte: trialsPerByte,
		ExtraBytes:         extraBytes,
		decrypted:          true,
	}
}

func (p *Pubkey) Kind() Kind      { return KindPubkey }
func (p *Pubkey) Version() uint64 { return p.version }
func (p *Pubkey) Stream() uint64  { return p.stream }

func (p *Pubkey) Signature() []byte { return p.signature }

func (p *Pubkey) SetSignature(sig []byte) error {
	p.signature = sig
	return nil
}

func (p *Pubkey) IsSigned() bool { return len(p.signature) > 0 }

func (p *Pubkey) SealState() SealState {
	switch {
	case p.decrypted && p.encrypted != nil:
		return Both
	case p.decrypted:
		return Open
	default:
		return Sealed
	}
}

func (p *Pubkey) IsDecrypted() bool { return p.decrypted }

// clearBytes encodes the plaintext body shared by all versions (minus
// the trailing signature), the portion that gets ECIES-sealed for v4.
func (p *Pubkey) clearBytes() []byte {
	var buf bytes.Buffer
	_ = wire.WriteUint32(&buf, p.Behavior)
	buf.Write(p.SigningKey[:])
	buf.Write(p.EncryptionKey[:])
	if p.version >= 3 {
		_ = wire.WriteVarInt(&buf, p.NonceTrialsPerByte)
		_ = wire.WriteVarInt(&buf, p.ExtraBytes)
	}
	return buf.Bytes()
}

// Encrypt implements Encrypted for version-4 pubkeys: it seals
// clearBytes‖signature to pub. Later wire encodes carry only the tag
// and the ciphertext, but the plaintext fields stay populated, so
// SealState reports Both from then on.
func (p *Pubkey) Encrypt(crypto bmcrypto.Capability, pub *bmcrypto.PublicKey) error {
	if p.version < 4 {
		return nil // v2/v3 pubkeys are never sealed
	}
	var buf bytes.Buffer
	buf.Write(p.clearBytes())
	_ = wire.WriteVarBytes(&buf, p.signature)

	ciphertext, err := crypto.Encrypt(pub, buf.Bytes())
	if err != nil {
		return err
	}
	p.encrypted = ciphertext
	return nil
}

// Decrypt implements Encrypted for version-4 pubkeys.
func (p *Pubkey) Decrypt(crypto bmcrypto.Capability, priv *bmcrypto.PrivateKey) error {
	if p.version < 4 {
		p.decrypted = true
		return nil
	}
	plaintext, err := crypto.Decrypt(priv, p.encrypted)
	if err != nil {
		return ErrDecryptionFailed
	}
	r := bytes.NewReader(plaintext)
	behavior, err := wire.ReadUint32(r)
	if err != nil {
		return ErrDecryptionFailed
	}
	signKey, err := wire.ReadFixedBytes(r, 64)
	if err != nil {
		return ErrDecryptionFailed
	}
	encKey, err := wire.ReadFixedBytes(r, 64)
	if err != nil {
		return ErrDecryptionFailed
	}
	trials, err := wire.ReadVarInt(r)
	if err != nil {
		return ErrDecryptionFailed
	}
	extra, err := wire.ReadVarInt(r)
	if err != nil {
		return ErrDecryptionFailed
	}
	sig, err := wire.ReadVarBytes(r, 1024, "signature")
	if err != nil {
		return ErrDecryptionFailed
	}

	p.Behavior = behavior
	copy(p.SigningKey[:], signKey)
	copy(p.EncryptionKey[:], encKey)
	p.NonceTrialsPerByte = trials
	p.ExtraBytes = extra
	p.signature = sig
	p.decrypted = true
	return nil
}

func (p *Pubkey) WireEncode(w io.Writer) error {
	if p.version >= 4 {
		if _, err := w.Write(p.Tag[:]); err != nil {
			return err
		}
		return wire.WriteVarBytes(w, p.encrypted)
	}
	if _, err := w.Write(p.clearBytes()); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, p.signature)
}

func (p *Pubkey) WireDecode(r io.Reader, version, stream uint64) error {
	p.version, p.stream = version, stream
	if version >= 4 {
		tag, err := wire.ReadFixedBytes(r, 32)
		if err != nil {
			return err
		}
		copy(p.Tag[:], tag)
		enc, err := wire.ReadVarBytes(r, wire.MaxMessagePayload, "encrypted pubkey")
		if err != nil {
			return err
		}
		p.encrypted = enc
		p.decrypted = false
		return nil
	}

	behavior, err := wire.ReadUint32(r)
	if err != nil {
		return err
	}
	signKey, err := wire.ReadFixedBytes(r, 64)
	if err != nil {
		return err
	}
	encKey, err := wire.ReadFixedBytes(r, 64)
	if err != nil {
		return err
	}
	p.Behavior = behavior
	copy(p.SigningKey[:], signKey)
	copy(p.EncryptionKey[:], encKey)

	if version >= 3 {
		trials, err := wire.ReadVarInt(r)
		if err != nil {
			return err
		}
		extra, err := wire.ReadVarInt(r)
		if err != nil {
			return err
		}
		p.NonceTrialsPerByte = trials
		p.ExtraBytes = extra
	}

	sig, err := wire.ReadVarBytes(r, 1024, "signature")
	if err != nil {
		return err
	}
	p.signature = sig
	p.decrypted = true
	return nil
}

// BytesToSign returns clearBytes: the signature covers the plaintext
// fields regardless of whether the payload is later sealed for v4.
func (p *Pubkey) BytesToSign() []byte {
	return p.clearBytes()
}
