package wire

import "io"

// MsgInv implements Message and advertises objects the sender has
// (§4.5's inv handling).
type MsgInv struct {
	InvList []*InvVect
}

// NewMsgInv returns a new, empty inv message.
func NewMsgInv() *MsgInv {
	return &MsgInv{InvList: make([]*InvVect, 0, MaxInvPerMsg)}
}

// AddInvVect appends iv to the message.
func (m *MsgInv) AddInvVect(iv *InvVect) {
	m.InvList = append(m.InvList, iv)
}

func (m *MsgInv) BmDecode(r io.Reader) error {
	list, err := ReadInvVectList(r, MaxInvPerMsg)
	if err != nil {
		return err
	}
	m.InvList = list
	return nil
}

func (m *MsgInv) BmEncode(w io.Writer) error {
	if len(m.InvList) > MaxInvPerMsg {
		return ErrTooLarge
	}
	return WriteInvVectList(w, m.InvList)
}

func (m *MsgInv) Command() string { return CmdInv }

func (m *MsgInv) MaxPayloadLength() uint32 {
	return 9 + MaxInvPerMsg*HashSize
}

// MsgGetData implements Message and requests the objects named by
// InvList from the peer (§4.5's getdata handling).
type MsgGetData struct {
	InvList []*InvVect
}

// NewMsgGetData returns a new, empty getdata message.
func NewMsgGetData() *MsgGetData {
	return &MsgGetData{InvList: make([]*InvVect, 0, MaxInvPerMsg)}
}

// AddInvVect appends iv to the message.
func (m *MsgGetData) AddInvVect(iv *InvVect) {
	m.InvList = append(m.InvList, iv)
}

func (m *MsgGetData) BmDecode(r io.Reader) error {
	list, err := ReadInvVectList(r, MaxInvPerMsg)
	if err != nil {
		return err
	}
	m.InvList = list
	return nil
}

func (m *MsgGetData) BmEncode(w io.Writer) error {
	if len(m.InvList) > MaxInvPerMsg {
		return ErrTooLarge
	}
	return WriteInvVectList(w, m.InvList)
}

func (m *MsgGetData) Command() string { return CmdGetData }

func (m *MsgGetData) MaxPayloadLength() uint32 {
	return 9 + MaxInvPerMsg*HashSize
}
