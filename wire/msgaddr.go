package wire

import "io"

// MsgAddr implements Message and carries a list of known peer
// addresses (§4.4, §4.5).
type MsgAddr struct {
	AddrList []*NetAddress
}

// NewMsgAddr returns a new, empty addr message.
func NewMsgAddr() *MsgAddr {
	return &MsgAddr{AddrList: make([]*NetAddress, 0, MaxAddrPerMsg)}
}

// AddAddress appends na to the message, rejecting the add once the
// protocol maximum is reached.
func (m *MsgAddr) AddAddress(na *NetAddress) error {
	if len(m.AddrList) >= MaxAddrPerMsg {
		return ErrTooLarge
	}
	m.AddrList = append(m.AddrList, na)
	return nil
}

func (m *MsgAddr) BmDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxAddrPerMsg {
		return ErrTooLarge
	}
	addrs := make([]*NetAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		na, err := ReadNetAddress(r, true)
		if err != nil {
			return err
		}
		addrs = append(addrs, na)
	}
	m.AddrList = addrs
	return nil
}

func (m *MsgAddr) BmEncode(w io.Writer) error {
	if len(m.AddrList) > MaxAddrPerMsg {
		return ErrTooLarge
	}
	if err := WriteVarInt(w, uint64(len(m.AddrList))); err != nil {
		return err
	}
	for _, na := range m.AddrList {
		if err := WriteNetAddress(w, na, true); err != nil {
			return err
		}
	}
	return nil
}

func (m *MsgAddr) Command() string { return CmdAddr }

func (m *MsgAddr) MaxPayloadLength() uint32 {
	// varint count + MaxAddrPerMsg * (timestamp4 + stream-varint + services8 + ip16 + port2)
	return 9 + MaxAddrPerMsg*40
}
