package listener

import (
	"bytes"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/repo"
	"github.com/stretchr/testify/require"
)

// pubFromPriv derives the uncompressed X||Y public-key halves
// bmcrypto.PublicKey expects from a raw 32-byte scalar, mirroring what
// a real address-generation path does with btcec directly.
func pubFromPriv(t *testing.T, scalar [32]byte) [64]byte {
	t.Helper()
	priv, _ := btcec.PrivKeyFromBytes(scalar[:])
	uncompressed := priv.PubKey().SerializeUncompressed() // 0x04 || X(32) || Y(32)
	var out [64]byte
	copy(out[:], uncompressed[1:])
	return out
}

func newIdentity(t *testing.T, crypto bmcrypto.Capability, seed byte) (Identity, *bmcrypto.PrivateKey) {
	t.Helper()
	priv := &bmcrypto.PrivateKey{}
	priv.Signing[31] = seed
	priv.Encryption[31] = seed + 1

	pub := &bmcrypto.PublicKey{
		Signing:    pubFromPriv(t, priv.Signing),
		Encryption: pubFromPriv(t, priv.Encryption),
	}
	return Identity{Ripe: crypto.RipeHash(pub), Public: pub, Private: priv}, priv
}

func TestDispatcherDecryptsAddressedMsg(t *testing.T) {
	crypto := bmcrypto.Default{}
	recipient, _ := newIdentity(t, crypto, 1)

	var delivered *obj.Plaintext
	msgs := repo.NewMemMessageRepo()
	d := New(crypto, func(id Identity, o *obj.Object, pt *obj.Plaintext, verified bool) {
		delivered = pt
	}, msgs)
	d.AddIdentity(recipient)

	draft := &obj.MsgDraft{
		FromVersion:     3,
		FromStream:      1,
		DestinationRipe: &recipient.Ripe,
		Encoding:        2,
		Message:         []byte("hello"),
		TTL:             time.Hour,
	}

	senderPriv := &bmcrypto.PrivateKey{}
	senderPriv.Signing[31] = 3
	senderPriv.Encryption[31] = 4

	built, err := d.PrepareOutbound(draft, senderPriv, recipient.Public, 1, 1)
	require.NoError(t, err)

	sentPt := built.Payload.(*obj.Msg).Plaintext()
	require.Equal(t, obj.StatusSent, sentPt.Status())

	stored, err := msgs.Get(sentPt.ID)
	require.NoError(t, err)
	require.Equal(t, sentPt.Ack, stored.AckData)

	var buf bytes.Buffer
	require.NoError(t, built.Encode(&buf))
	decoded, err := obj.Decode(buf.Bytes())
	require.NoError(t, err)

	d.Deliver(decoded)
	require.NotNil(t, delivered)
	require.Equal(t, []byte("hello"), delivered.Message)

	// An ack arriving off the wire carries the original ack bytes back
	// verbatim (via Deliver's Generic-payload path); this retires the
	// tracked record.
	d.handleAck(sentPt.Ack)
	_, err = msgs.Get(sentPt.ID)
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDispatcherIgnoresUnaddressedMsg(t *testing.T) {
	crypto := bmcrypto.Default{}
	recipient, _ := newIdentity(t, crypto, 1)
	stranger, _ := newIdentity(t, crypto, 7)

	called := false
	d := New(crypto, func(id Identity, o *obj.Object, pt *obj.Plaintext, verified bool) {
		called = true
	}, repo.NewMemMessageRepo())
	d.AddIdentity(stranger)

	draft := &obj.MsgDraft{
		FromVersion:     3,
		FromStream:      1,
		DestinationRipe: &recipient.Ripe,
		Encoding:        2,
		Message:         []byte("hello"),
		TTL:             time.Hour,
	}
	senderPriv := &bmcrypto.PrivateKey{}
	senderPriv.Signing[31] = 5
	senderPriv.Encryption[31] = 6

	built, err := d.PrepareOutbound(draft, senderPriv, recipient.Public, 1, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, built.Encode(&buf))
	decoded, err := obj.Decode(buf.Bytes())
	require.NoError(t, err)

	d.Deliver(decoded)
	require.False(t, called)
}
