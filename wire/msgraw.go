package wire

import "io"

// MsgObjectRaw carries the raw payload of an "object" frame. The wire
// layer does not know how to interpret object payloads — that is the
// obj package's Factory's job — so it simply preserves the bytes for
// the caller to hand off.
type MsgObjectRaw struct {
	Payload []byte
}

func (m *MsgObjectRaw) BmDecode(r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return ErrTruncated
	}
	m.Payload = payload
	return nil
}

func (m *MsgObjectRaw) BmEncode(w io.Writer) error {
	_, err := w.Write(m.Payload)
	return err
}

func (m *MsgObjectRaw) Command() string { return CmdObject }

func (m *MsgObjectRaw) MaxPayloadLength() uint32 { return MaxMessagePayload }

// MsgCustomRaw carries the raw payload of a "custom" frame, delegated
// to an application-configured handler by the connection state
// machine.
type MsgCustomRaw struct {
	Payload []byte
}

func (m *MsgCustomRaw) BmDecode(r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return ErrTruncated
	}
	m.Payload = payload
	return nil
}

func (m *MsgCustomRaw) BmEncode(w io.Writer) error {
	_, err := w.Write(m.Payload)
	return err
}

func (m *MsgCustomRaw) Command() string { return CmdCustom }

func (m *MsgCustomRaw) MaxPayloadLength() uint32 { return MaxMessagePayload }
