package wire

import (
	"io"
)

// MsgVersion implements Message and is the first message exchanged on
// a connection, carrying protocol version, nonce (for self-connect
// detection), services, addresses, and advertised streams (§4.5).
type MsgVersion struct {
	ProtocolVersion uint32
	Services        ServiceFlag
	Timestamp       int64
	AddrYou         NetAddress
	AddrMe          NetAddress
	Nonce           uint64
	UserAgent       string
	StreamNumbers   []uint64
}

// NewMsgVersion returns a new version message populated from the
// given addresses, client nonce, and served streams.
func NewMsgVersion(me, you *NetAddress, nonce uint64, streams []uint64) *MsgVersion {
	return &MsgVersion{
		ProtocolVersion: CurrentVersion,
		Services:        SFNodeNetwork,
		AddrMe:          *me,
		AddrYou:         *you,
		Nonce:           nonce,
		StreamNumbers:   streams,
	}
}

// AddUserAgent sets the advertised user agent string as "name:version".
func (m *MsgVersion) AddUserAgent(name, version string) {
	m.UserAgent = name + ":" + version
}

func (m *MsgVersion) BmDecode(r io.Reader) error {
	pv, err := ReadUint32(r)
	if err != nil {
		return err
	}
	m.ProtocolVersion = pv

	services, err := ReadUint64(r)
	if err != nil {
		return err
	}
	m.Services = ServiceFlag(services)

	ts, err := ReadInt64(r)
	if err != nil {
		return err
	}
	m.Timestamp = ts

	addrYou, err := ReadNetAddress(r, false)
	if err != nil {
		return err
	}
	m.AddrYou = *addrYou

	addrMe, err := ReadNetAddress(r, false)
	if err != nil {
		return err
	}
	m.AddrMe = *addrMe

	nonce, err := ReadUint64(r)
	if err != nil {
		return err
	}
	m.Nonce = nonce

	uaBytes, err := ReadVarBytes(r, 5000, "user agent")
	if err != nil {
		return err
	}
	m.UserAgent = string(uaBytes)

	streamCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if streamCount > 160000 {
		return ErrTooLarge
	}
	streams := make([]uint64, streamCount)
	for i := range streams {
		s, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		streams[i] = s
	}
	m.StreamNumbers = streams

	return nil
}

func (m *MsgVersion) BmEncode(w io.Writer) error {
	if err := WriteUint32(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteUint64(w, uint64(m.Services)); err != nil {
		return err
	}
	if err := WriteInt64(w, m.Timestamp); err != nil {
		return err
	}
	if err := WriteNetAddress(w, &m.AddrYou, false); err != nil {
		return err
	}
	if err := WriteNetAddress(w, &m.AddrMe, false); err != nil {
		return err
	}
	if err := WriteUint64(w, m.Nonce); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(m.UserAgent)); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.StreamNumbers))); err != nil {
		return err
	}
	for _, s := range m.StreamNumbers {
		if err := WriteVarInt(w, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgVersion) Command() string { return CmdVersion }

func (m *MsgVersion) MaxPayloadLength() uint32 { return 1024 }

// MsgVerAck implements Message and acknowledges a received version
// message (§4.5 step 3).
type MsgVerAck struct{}

// NewMsgVerAck returns a new verack message.
func NewMsgVerAck() *MsgVerAck { return &MsgVerAck{} }

func (m *MsgVerAck) BmDecode(r io.Reader) error { return nil }
func (m *MsgVerAck) BmEncode(w io.Writer) error { return nil }
func (m *MsgVerAck) Command() string            { return CmdVerAck }
func (m *MsgVerAck) MaxPayloadLength() uint32    { return 0 }
