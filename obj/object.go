package obj

import (
	"bytes"
	"io"
	"time"

	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/wire"
)

// Header is the fixed-width preamble of every object (§3, §6):
// nonce ‖ expires_time ‖ object_type ‖ version ‖ stream.
type Header struct {
	Nonce       [8]byte
	ExpiresTime int64
	ObjectType  uint32
	Version     uint64
	Stream      uint64
}

// Object is the in-memory representation of a network object message:
// a header plus a typed payload variant (§4.2). Once
// PayloadBytesWithoutNonce has been computed it is memoized and the
// Object is sealed against further payload mutation (§4.2 invariant).
type Object struct {
	Header  Header
	Payload Payload

	cached []byte // memoized payload_bytes_without_nonce, header included
}

// New constructs a locally-originated Object. stream, if nonzero,
// overrides payload.Stream() per the header/payload stream-mismatch
// invariant exception in §3.
func New(payload Payload, ttl time.Duration, streamOverride uint64) *Object {
	stream := payload.Stream()
	if streamOverride != 0 {
		stream = streamOverride
	}
	return &Object{
		Header: Header{
			ExpiresTime: time.Now().Add(ttl).Unix(),
			ObjectType:  objectTypeOf(payload.Kind()),
			Version:     payload.Version(),
			Stream:      stream,
		},
		Payload: payload,
	}
}

// IsSealed reports whether the payload's wire bytes have already been
// memoized, after which no further mutation is permitted.
func (o *Object) IsSealed() bool {
	return o.cached != nil
}

// headerBytesWithoutNonce encodes expires_time‖object_type‖version‖stream,
// the portion of the header that both the IV computation and the
// bytes-to-sign pre-image share.
func (o *Object) headerBytesWithoutNonce() []byte {
	var buf bytes.Buffer
	_ = wire.WriteInt64(&buf, o.Header.ExpiresTime)
	_ = wire.WriteUint32(&buf, o.Header.ObjectType)
	_ = wire.WriteVarInt(&buf, o.Header.Version)
	_ = wire.WriteVarInt(&buf, o.Header.Stream)
	return buf.Bytes()
}

// PayloadBytesWithoutNonce returns the memoized
// header_without_nonce ‖ payload wire encoding. Once computed, it is
// byte-stable for the life of the Object (§4.2 invariant): Sign then
// returns ErrSealed. Methods called directly on the Payload are not
// guarded and do not change the memoized bytes.
func (o *Object) PayloadBytesWithoutNonce() []byte {
	if o.cached != nil {
		return o.cached
	}
	var buf bytes.Buffer
	buf.Write(o.headerBytesWithoutNonce())
	_ = o.Payload.WireEncode(&buf)
	o.cached = buf.Bytes()
	return o.cached
}

// BytesToSign returns the canonical pre-image a detached signature
// covers (§4.7): header_without_nonce ‖ payload.BytesToSign().
func (o *Object) BytesToSign() []byte {
	var buf bytes.Buffer
	buf.Write(o.headerBytesWithoutNonce())
	buf.Write(o.Payload.BytesToSign())
	return buf.Bytes()
}

// Sign computes a detached signature over BytesToSign and installs it
// into the payload. Returns ErrSealed if the object's bytes have
// already been memoized (signing must happen before the first
// PayloadBytesWithoutNonce/IV call).
func (o *Object) Sign(crypto bmcrypto.Capability, priv *bmcrypto.PrivateKey) error {
	if o.IsSealed() {
		return ErrSealed
	}
	signed, ok := o.Payload.(Signed)
	if !ok {
		return ErrNotSigned
	}
	sig, err := crypto.Sign(priv, o.BytesToSign())
	if err != nil {
		return err
	}
	return signed.SetSignature(sig)
}

// VerifySignature checks a previously-set detached signature against
// pub. The payload must be decrypted first (§4.7).
func (o *Object) VerifySignature(crypto bmcrypto.Capability, pub *bmcrypto.PublicKey) (bool, error) {
	if !isDecrypted(o.Payload) {
		return false, ErrNotDecrypted
	}
	signed, ok := o.Payload.(Signed)
	if !ok || !signed.IsSigned() {
		return false, ErrNotSigned
	}
	return crypto.Verify(pub, o.BytesToSign(), signed.Signature()), nil
}

// IV computes this object's inventory vector: the truncated
// double-SHA-512 of nonce ‖ payload_bytes_without_nonce (§3).
func (o *Object) IV() wire.ShaHash {
	return wire.InventoryVector(o.Header.Nonce, o.PayloadBytesWithoutNonce())
}

// Expired reports whether the object's stated lifetime has passed as
// of now.
func (o *Object) Expired(now time.Time) bool {
	return o.Header.ExpiresTime < now.Unix()
}

// CheckProofOfWork verifies the header's nonce against the payload
// bytes using the given network-wide difficulty parameters (§4.7,
// open question (c): parameters must match between sender and
// verifier).
func (o *Object) CheckProofOfWork(crypto bmcrypto.Capability, trialsPerByte, extraBytes uint64) bool {
	payload := o.PayloadBytesWithoutNonce()
	ttl := o.Header.ExpiresTime - time.Now().Unix()
	return crypto.CheckProofOfWork(o.Header.Nonce, payload, trialsPerByte, extraBytes, ttl)
}

// DoProofOfWork stamps the object with a nonce satisfying the given
// difficulty parameters. It mutates only Header.Nonce, which is
// excluded from PayloadBytesWithoutNonce, so it is legal even after
// the object has been sealed.
func (o *Object) DoProofOfWork(crypto bmcrypto.Capability, trialsPerByte, extraBytes uint64) {
	payload := o.PayloadBytesWithoutNonce()
	ttl := o.Header.ExpiresTime - time.Now().Unix()
	o.Header.Nonce = crypto.DoProofOfWork(payload, trialsPerByte, extraBytes, ttl)
}

// Encode writes the full wire encoding (nonce ‖ header ‖ payload) of
// the object, as carried in an "object" frame payload (§6).
func (o *Object) Encode(w io.Writer) error {
	if _, err := w.Write(o.Header.Nonce[:]); err != nil {
		return err
	}
	_, err := w.Write(o.PayloadBytesWithoutNonce())
	return err
}

// DecodeHeader reads only the fixed header fields from r, leaving the
// payload bytes for the Factory to interpret. Returns the header and
// the remaining undecoded body.
func DecodeHeader(r io.Reader) (Header, []byte, error) {
	var hdr Header
	nonceBuf, err := wire.ReadFixedBytes(r, 8)
	if err != nil {
		return hdr, nil, err
	}
	copy(hdr.Nonce[:], nonceBuf)

	hdr.ExpiresTime, err = wire.ReadInt64(r)
	if err != nil {
		return hdr, nil, err
	}
	hdr.ObjectType, err = wire.ReadUint32(r)
	if err != nil {
		return hdr, nil, err
	}
	hdr.Version, err = wire.ReadVarInt(r)
	if err != nil {
		return hdr, nil, err
	}
	hdr.Stream, err = wire.ReadVarInt(r)
	if err != nil {
		return hdr, nil, err
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return hdr, nil, wire.ErrTruncated
	}
	return hdr, body, nil
}
