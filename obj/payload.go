package obj

import (
	"io"

	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/wire"
)

// Kind tags the concrete payload variant carried by an Object, used
// in place of inheritance per §9's design note.
type Kind int

const (
	KindGetpubkey Kind = iota
	KindPubkey
	KindMsg
	KindBroadcast
	KindGeneric
)

// Payload is implemented by every object payload variant.
type Payload interface {
	Kind() Kind
	Version() uint64
	Stream() uint64

	// WireEncode/WireDecode serialize the full payload as carried on
	// the wire after the object header.
	WireEncode(w io.Writer) error
	WireDecode(r io.Reader, version, stream uint64) error

	// BytesToSign returns the payload-specific portion of the
	// canonical pre-image a detached signature covers (§4.7),
	// excluding the trailing signature field itself.
	BytesToSign() []byte
}

// Signed is implemented by payload variants that carry a detached
// signature (Pubkey, Msg, Broadcast).
type Signed interface {
	Payload
	Signature() []byte
	SetSignature(sig []byte) error
	IsSigned() bool
}

// SealState models whether an encrypted-or-plain payload currently
// holds ciphertext, plaintext, or both, per §9's "Encrypted-or-plain
// duality" design note — never a nullable field pair.
type SealState int

const (
	// Sealed means only ciphertext is held.
	Sealed SealState = iota
	// Open means only plaintext is held (freshly constructed locally,
	// not yet encrypted).
	Open
	// Both means the payload holds plaintext and has also cached its
	// encrypted form.
	Both
)

// Encrypted is implemented by payload variants that may be sealed
// (Msg, Broadcast).
type Encrypted interface {
	Payload
	SealState() SealState
	IsDecrypted() bool
	Encrypt(crypto bmcrypto.Capability, pub *bmcrypto.PublicKey) error
	Decrypt(crypto bmcrypto.Capability, priv *bmcrypto.PrivateKey) error
}

func isSigned(p Payload) bool {
	s, ok := p.(Signed)
	return ok && s.IsSigned()
}

func isDecrypted(p Payload) bool {
	e, ok := p.(Encrypted)
	if !ok {
		return true // non-encrypted variants are trivially "decrypted"
	}
	return e.IsDecrypted()
}

// objectTypeOf maps a Kind to its wire object_type identifier.
func objectTypeOf(k Kind) uint32 {
	switch k {
	case KindGetpubkey:
		return wire.ObjectTypeGetpubkey
	case KindPubkey:
		return wire.ObjectTypePubkey
	case KindMsg:
		return wire.ObjectTypeMsg
	case KindBroadcast:
		return wire.ObjectTypeBroadcast
	default:
		return wire.ObjectTypeGeneric
	}
}
