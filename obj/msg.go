package obj

import (
	"bytes"
	"io"

	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/wire"
)

// Msg is a private message object: an ECIES-encrypted Plaintext
// envelope addressed to the recipient's encryption key (§3, §4.2).
type Msg struct {
	version uint64
	stream  uint64

	plaintext *Plaintext
	encrypted []byte
}

// NewMsg constructs an open (decrypted) Msg payload ready for
// Encrypt.
func NewMsg(version, stream uint64, plaintext *Plaintext) *Msg {
	return &Msg{version: version, stream: stream, plaintext: plaintext}
}

func (m *Msg) Kind() Kind      { return KindMsg }
func (m *Msg) Version() uint64 { return m.version }
func (m *Msg) Stream() uint64  { return m.stream }

func (m *Msg) SealState() SealState {
	switch {
	case m.plaintext != nil && m.encrypted != nil:
		return Both
	case m.plaintext != nil:
		return Open
	default:
		return Sealed
	}
}

func (m *Msg) IsDecrypted() bool { return m.plaintext != nil }

// Plaintext returns the decrypted envelope, or nil if still Sealed.
func (m *Msg) Plaintext() *Plaintext { return m.plaintext }

func (m *Msg) Signature() []byte {
	if m.plaintext == nil {
		return nil
	}
	return m.plaintext.Signature()
}

func (m *Msg) SetSignature(sig []byte) error {
	if m.plaintext == nil {
		return ErrNotDecrypted
	}
	return m.plaintext.SetSignature(sig)
}

func (m *Msg) IsSigned() bool {
	return m.plaintext != nil && m.plaintext.IsSigned()
}

// Encrypt seals the plaintext envelope to pub, the recipient's
// encryption key.
func (m *Msg) Encrypt(crypto bmcrypto.Capability, pub *bmcrypto.PublicKey) error {
	if m.plaintext == nil {
		return ErrNotDecrypted
	}
	var buf bytes.Buffer
	if err := m.plaintext.Encode(&buf); err != nil {
		return err
	}
	ciphertext, err := crypto.Encrypt(pub, buf.Bytes())
	if err != nil {
		return err
	}
	m.encrypted = ciphertext
	return nil
}

// Decrypt opens the ciphertext with priv, the recipient's encryption
// key, populating Plaintext() on success.
func (m *Msg) Decrypt(crypto bmcrypto.Capability, priv *bmcrypto.PrivateKey) error {
	plaintext, err := crypto.Decrypt(priv, m.encrypted)
	if err != nil {
		return ErrDecryptionFailed
	}
	p, err := DecodePlaintext(bytes.NewReader(plaintext))
	if err != nil {
		return ErrDecryptionFailed
	}
	m.plaintext = p
	return nil
}

func (m *Msg) WireEncode(w io.Writer) error {
	_, err := w.Write(m.encrypted)
	return err
}

func (m *Msg) WireDecode(r io.Reader, version, stream uint64) error {
	m.version, m.stream = version, stream
	enc, err := io.ReadAll(r)
	if err != nil {
		return wire.ErrTruncated
	}
	m.encrypted = enc
	m.plaintext = nil
	return nil
}

// BytesToSign delegates to the decrypted plaintext envelope; the top
// level Object signature IS the plaintext's signature for msg objects
// since the plaintext is never transmitted unsigned.
func (m *Msg) BytesToSign() []byte {
	if m.plaintext == nil {
		return nil
	}
	return m.plaintext.bytesToSign()
}
