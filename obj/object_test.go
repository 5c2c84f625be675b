package obj

import (
	"bytes"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/wire"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) (*bmcrypto.PrivateKey, *bmcrypto.PublicKey) {
	t.Helper()
	signPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	encPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var priv bmcrypto.PrivateKey
	copy(priv.Signing[:], signPriv.Serialize())
	copy(priv.Encryption[:], encPriv.Serialize())

	var pub bmcrypto.PublicKey
	copy(pub.Signing[:], signPriv.PubKey().SerializeUncompressed()[1:])
	copy(pub.Encryption[:], encPriv.PubKey().SerializeUncompressed()[1:])

	return &priv, &pub
}

func TestGetpubkeyWireRoundTrip(t *testing.T) {
	gp := NewGetpubkey(3, 1, [20]byte{1, 2, 3}, [32]byte{})
	o := New(gp, time.Hour, 0)

	var buf bytes.Buffer
	require.NoError(t, o.Encode(&buf))

	hdr, body, err := DecodeHeader(&buf)
	require.NoError(t, err)
	decoded, err := FromWire(hdr, body)
	require.NoError(t, err)

	got, ok := decoded.Payload.(*Getpubkey)
	require.True(t, ok)
	require.Equal(t, gp.Ripe, got.Ripe)
}

func TestObjectSealedAfterIV(t *testing.T) {
	gp := NewGetpubkey(3, 1, [20]byte{9}, [32]byte{})
	o := New(gp, time.Hour, 0)

	_ = o.IV() // forces memoization
	require.True(t, o.IsSealed())

	crypto := bmcrypto.Default{}
	priv, _ := testKeyPair(t)
	pubkeyPayload := NewPubkey(3, 1, 1, [64]byte{}, [64]byte{}, 1000, 1000)
	sealed := New(pubkeyPayload, time.Hour, 0)
	_ = sealed.IV()
	err := sealed.Sign(crypto, priv)
	require.ErrorIs(t, err, ErrSealed)
}

func TestIVDeterminism(t *testing.T) {
	gp1 := NewGetpubkey(3, 1, [20]byte{1, 2, 3}, [32]byte{})
	gp2 := NewGetpubkey(3, 1, [20]byte{1, 2, 3}, [32]byte{})
	o1 := New(gp1, time.Hour, 0)
	o2 := New(gp2, time.Hour, 0)
	o1.Header.ExpiresTime = 1000
	o2.Header.ExpiresTime = 1000
	o1.Header.Nonce = [8]byte{1}
	o2.Header.Nonce = [8]byte{1}

	require.Equal(t, o1.IV(), o2.IV())

	gp3 := NewGetpubkey(3, 1, [20]byte{9, 9, 9}, [32]byte{})
	o3 := New(gp3, time.Hour, 0)
	o3.Header.ExpiresTime = 1000
	o3.Header.Nonce = [8]byte{1}
	require.NotEqual(t, o1.IV(), o3.IV())
}

func TestPubkeySignAndVerify(t *testing.T) {
	priv, pub := testKeyPair(t)
	crypto := bmcrypto.Default{}

	payload := NewPubkey(3, 1, 1, pub.Signing, pub.Encryption, 1000, 1000)
	o := New(payload, time.Hour, 0)

	require.NoError(t, o.Sign(crypto, priv))
	require.True(t, payload.IsSigned())

	ok, err := o.VerifySignature(crypto, pub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPubkeyV4EncryptDecrypt(t *testing.T) {
	priv, pub := testKeyPair(t)
	crypto := bmcrypto.Default{}

	payload := NewPubkey(4, 1, 1, pub.Signing, pub.Encryption, 1000, 1000)
	o := New(payload, time.Hour, 0)
	require.NoError(t, o.Sign(crypto, priv))
	require.NoError(t, payload.Encrypt(crypto, pub))
	require.Equal(t, Both, payload.SealState())

	var buf bytes.Buffer
	require.NoError(t, o.Encode(&buf))

	hdr, body, err := DecodeHeader(&buf)
	require.NoError(t, err)
	decoded, err := FromWire(hdr, body)
	require.NoError(t, err)

	decodedPubkey := decoded.Payload.(*Pubkey)
	require.False(t, decodedPubkey.IsDecrypted())
	require.NoError(t, decodedPubkey.Decrypt(crypto, priv))
	require.True(t, decodedPubkey.IsDecrypted())
	require.Equal(t, pub.Signing, decodedPubkey.SigningKey)
}

func TestMsgEncryptDecryptAndAdmission(t *testing.T) {
	senderPriv, senderPub := testKeyPair(t)
	recipPriv, recipPub := testKeyPair(t)
	crypto := bmcrypto.Default{}

	destRipe := crypto.RipeHash(recipPub)
	plaintext := NewPlaintext(1, 1, destRipe, wire.EncodingSimple, []byte("Subject:hi\nBody:there"))
	msgPayload := NewMsg(1, 1, plaintext)
	o := New(msgPayload, time.Hour, 0)

	require.NoError(t, o.Sign(crypto, senderPriv))
	require.NoError(t, msgPayload.Encrypt(crypto, recipPub))

	o.DoProofOfWork(crypto, 100, 0)
	require.True(t, o.CheckProofOfWork(crypto, 100, 0))

	var buf bytes.Buffer
	require.NoError(t, o.Encode(&buf))
	hdr, body, err := DecodeHeader(&buf)
	require.NoError(t, err)
	received, err := FromWire(hdr, body)
	require.NoError(t, err)

	receivedMsg := received.Payload.(*Msg)
	require.False(t, receivedMsg.IsDecrypted())
	require.NoError(t, receivedMsg.Decrypt(crypto, recipPriv))
	ok, err := received.VerifySignature(crypto, senderPub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPlaintextSetToInvariant(t *testing.T) {
	ripe := [20]byte{1, 2, 3}
	p := NewPlaintext(1, 1, ripe, wire.EncodingTrivial, []byte("body"))

	require.False(t, p.DestinationResolved())
	require.ErrorIs(t, p.SetTo(4, [20]byte{9, 9, 9}), ErrDestinationMismatch)
	require.NoError(t, p.SetTo(4, ripe))
	require.True(t, p.DestinationResolved())
	require.ErrorIs(t, p.SetTo(4, ripe), ErrDestinationAlreadySet)
}

func TestGenericPayloadRoundTrip(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	hdr := Header{ObjectType: 0xAAAA, Version: 1, Stream: 1, ExpiresTime: time.Now().Add(time.Hour).Unix()}
	o, err := FromWire(hdr, raw)
	require.NoError(t, err)
	generic, ok := o.Payload.(*Generic)
	require.True(t, ok)
	require.Equal(t, raw, generic.Raw)
}
