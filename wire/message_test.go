package wire

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	me := NewNetAddressIPPort(net.ParseIP("127.0.0.1"), 8444, 1, SFNodeNetwork)
	you := NewNetAddressIPPort(net.ParseIP("1.2.3.4"), 8444, 1, SFNodeNetwork)

	msgs := []Message{
		NewMsgVersion(me, you, 1234, []uint64{1}),
		NewMsgVerAck(),
		func() Message {
			a := NewMsgAddr()
			require.NoError(t, a.AddAddress(you))
			return a
		}(),
		func() Message {
			inv := NewMsgInv()
			inv.AddInvVect(&InvVect{Hash: ShaHash{1, 2, 3}})
			return inv
		}(),
		func() Message {
			gd := NewMsgGetData()
			gd.AddInvVect(&InvVect{Hash: ShaHash{4, 5, 6}})
			return gd
		}(),
	}

	for _, msg := range msgs {
		var wire bytes.Buffer
		require.NoError(t, WriteMessage(&wire, MainNet, msg))

		decoded, err := ReadMessage(&wire, MainNet)
		require.NoError(t, err)
		require.Equal(t, msg.Command(), decoded.Command())
	}
}

func TestMessageChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, MainNet, NewMsgVerAck()))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff

	_, err := ReadMessage(bytes.NewReader(corrupted), MainNet)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestMessageNetworkMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, MainNet, NewMsgVerAck()))

	_, err := ReadMessage(&buf, TestNet)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestInventoryVectorDeterminism(t *testing.T) {
	nonce := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	payload := []byte("identical payload")

	iv1 := InventoryVector(nonce, payload)
	iv2 := InventoryVector(nonce, payload)
	require.Equal(t, iv1, iv2)

	otherPayload := []byte("different payload")
	iv3 := InventoryVector(nonce, otherPayload)
	require.NotEqual(t, iv1, iv3)
}
