package obj

import (
	"bytes"
	"io"

	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/wire"
)

// Broadcast is a one-to-many object: a Plaintext envelope encrypted
// so that anyone subscribed to the sender's address can decrypt it.
// Version 5 additionally carries a cleartext Tag derived from the
// sender's address, letting subscribers filter broadcasts without
// attempting decryption first; version 4 has no tag (§4.2).
type Broadcast struct {
	version uint64
	stream  uint64

	Tag [32]byte // only meaningful when version >= 5

	plaintext *Plaintext
	encrypted []byte
}

// NewBroadcast constructs an open Broadcast payload ready for
// Encrypt.
func NewBroadcast(version, stream uint64, tag [32]byte, plaintext *Plaintext) *Broadcast {
	return &Broadcast{version: version, stream: stream, Tag: tag, plaintext: plaintext}
}

func (b *Broadcast) Kind() Kind      { return KindBroadcast }
func (b *Broadcast) Version() uint64 { return b.version }
func (b *Broadcast) Stream() uint64  { return b.stream }

func (b *Broadcast) SealState() SealState {
	switch {
	case b.plaintext != nil && b.encrypted != nil:
		return Both
	case b.plaintext != nil:
		return Open
	default:
		return Sealed
	}
}

func (b *Broadcast) IsDecrypted() bool { return b.plaintext != nil }

// Plaintext returns the decrypted envelope, or nil if still Sealed.
func (b *Broadcast) Plaintext() *Plaintext { return b.plaintext }

func (b *Broadcast) Signature() []byte {
	if b.plaintext == nil {
		return nil
	}
	return b.plaintext.Signature()
}

func (b *Broadcast) SetSignature(sig []byte) error {
	if b.plaintext == nil {
		return ErrNotDecrypted
	}
	return b.plaintext.SetSignature(sig)
}

func (b *Broadcast) IsSigned() bool {
	return b.plaintext != nil && b.plaintext.IsSigned()
}

// Encrypt seals the plaintext envelope using a key derived from the
// sender's own address (broadcasts are "encrypted to the world" —
// anyone who knows the sending address can derive pub).
func (b *Broadcast) Encrypt(crypto bmcrypto.Capability, pub *bmcrypto.PublicKey) error {
	if b.plaintext == nil {
		return ErrNotDecrypted
	}
	var buf bytes.Buffer
	if err := b.plaintext.Encode(&buf); err != nil {
		return err
	}
	ciphertext, err := crypto.Encrypt(pub, buf.Bytes())
	if err != nil {
		return err
	}
	b.encrypted = ciphertext
	return nil
}

// Decrypt opens the ciphertext using the self-derived key.
func (b *Broadcast) Decrypt(crypto bmcrypto.Capability, priv *bmcrypto.PrivateKey) error {
	plaintext, err := crypto.Decrypt(priv, b.encrypted)
	if err != nil {
		return ErrDecryptionFailed
	}
	p, err := DecodePlaintext(bytes.NewReader(plaintext))
	if err != nil {
		return ErrDecryptionFailed
	}
	b.plaintext = p
	return nil
}

func (b *Broadcast) WireEncode(w io.Writer) error {
	if b.version >= 5 {
		if _, err := w.Write(b.Tag[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(b.encrypted)
	return err
}

func (b *Broadcast) WireDecode(r io.Reader, version, stream uint64) error {
	b.version, b.stream = version, stream
	if version >= 5 {
		tag, err := wire.ReadFixedBytes(r, 32)
		if err != nil {
			return err
		}
		copy(b.Tag[:], tag)
	}
	enc, err := io.ReadAll(r)
	if err != nil {
		return wire.ErrTruncated
	}
	b.encrypted = enc
	b.plaintext = nil
	return nil
}

func (b *Broadcast) BytesToSign() []byte {
	if b.plaintext == nil {
		return nil
	}
	return b.plaintext.bytesToSign()
}
