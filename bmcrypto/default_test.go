package bmcrypto

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func keyPair(t *testing.T) (*PrivateKey, *PublicKey) {
	t.Helper()
	signPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	encPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var priv PrivateKey
	copy(priv.Signing[:], signPriv.Serialize())
	copy(priv.Encryption[:], encPriv.Serialize())

	var pub PublicKey
	copy(pub.Signing[:], signPriv.PubKey().SerializeUncompressed()[1:])
	copy(pub.Encryption[:], encPriv.PubKey().SerializeUncompressed()[1:])

	return &priv, &pub
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pub := keyPair(t)
	c := Default{}

	msg := []byte("hello bitmessage")
	sig, err := c.Sign(priv, msg)
	require.NoError(t, err)
	require.True(t, c.Verify(pub, msg, sig))
	require.False(t, c.Verify(pub, []byte("tampered"), sig))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv, pub := keyPair(t)
	c := Default{}

	plaintext := []byte("a secret message")
	ciphertext, err := c.Encrypt(pub, plaintext)
	require.NoError(t, err)

	decrypted, err := c.Decrypt(priv, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	_, pub := keyPair(t)
	otherPriv, _ := keyPair(t)
	c := Default{}

	ciphertext, err := c.Encrypt(pub, []byte("top secret"))
	require.NoError(t, err)

	_, err = c.Decrypt(otherPriv, ciphertext)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestProofOfWorkCheckAndDo(t *testing.T) {
	c := Default{}
	payload := []byte("low difficulty payload")
	// Deliberately easy parameters so the brute-force test is fast.
	const trialsPerByte = 100
	const extraBytes = 0
	const ttl = 0

	nonce := c.DoProofOfWork(payload, trialsPerByte, extraBytes, ttl)
	require.True(t, c.CheckProofOfWork(nonce, payload, trialsPerByte, extraBytes, ttl))
}

func TestRipeHashDeterministic(t *testing.T) {
	c := Default{}
	_, pub := keyPair(t)
	h1 := c.RipeHash(pub)
	h2 := c.RipeHash(pub)
	require.Equal(t, h1, h2)
}
