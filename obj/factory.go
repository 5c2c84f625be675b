package obj

import (
	"bytes"

	"github.com/hirowhite/bmd/wire"
)

// FromWire reconstructs a full Object, including its concrete payload
// variant, from a decoded header and the raw body bytes that followed
// it on the wire (§4.2's Factory).
func FromWire(hdr Header, body []byte) (*Object, error) {
	payload, err := newPayload(hdr.ObjectType, hdr.Version, hdr.Stream, body)
	if err != nil {
		return nil, err
	}
	o := &Object{Header: hdr, Payload: payload}
	// The wire bytes are already canonical, so memoize them verbatim
	// instead of re-encoding (re-encoding an encrypted v4 pubkey or a
	// not-yet-decrypted msg/broadcast would lose the ciphertext we
	// cannot reproduce without the recipient's key).
	var buf bytes.Buffer
	_ = wire.WriteInt64(&buf, hdr.ExpiresTime)
	_ = wire.WriteUint32(&buf, hdr.ObjectType)
	_ = wire.WriteVarInt(&buf, hdr.Version)
	_ = wire.WriteVarInt(&buf, hdr.Stream)
	buf.Write(body)
	o.cached = buf.Bytes()
	return o, nil
}

func newPayload(objectType uint32, version, stream uint64, body []byte) (Payload, error) {
	r := bytes.NewReader(body)

	var payload Payload
	switch objectType {
	case wire.ObjectTypeGetpubkey:
		payload = &Getpubkey{}
	case wire.ObjectTypePubkey:
		payload = &Pubkey{}
	case wire.ObjectTypeMsg:
		payload = &Msg{}
	case wire.ObjectTypeBroadcast:
		payload = &Broadcast{}
	default:
		payload = &Generic{objectType: objectType}
	}

	if err := payload.WireDecode(r, version, stream); err != nil {
		return nil, err
	}
	return payload, nil
}

// Decode reads a full object (nonce ‖ header ‖ payload) from raw bytes
// as carried in an object-command frame payload, and reconstructs its
// concrete variant via the Factory.
func Decode(raw []byte) (*Object, error) {
	hdr, body, err := DecodeHeader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return FromWire(hdr, body)
}
