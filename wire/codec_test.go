package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000, ^uint64(0)}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, v))
		require.Equal(t, VarIntSerializeSize(v), buf.Len())

		got, err := ReadVarInt(&buf)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVarIntNonMinimalRejected(t *testing.T) {
	// 0xfd prefix followed by a 16-bit value that fits in one byte.
	buf := bytes.NewBuffer([]byte{0xfd, 0x00, 0x05})
	_, err := ReadVarInt(buf)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVarIntTruncated(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xfd, 0x01})
	_, err := ReadVarInt(buf)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestVarBytesRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox")
	var buf bytes.Buffer
	require.NoError(t, WriteVarBytes(&buf, payload))

	got, err := ReadVarBytes(&buf, 1024, "test")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestVarBytesTooLarge(t *testing.T) {
	payload := make([]byte, 100)
	var buf bytes.Buffer
	require.NoError(t, WriteVarBytes(&buf, payload))

	_, err := ReadVarBytes(&buf, 10, "test")
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint16(&buf, 0xbeef))
	require.NoError(t, WriteUint32(&buf, 0xdeadbeef))
	require.NoError(t, WriteInt64(&buf, -1))
	require.NoError(t, WriteUint64(&buf, 0xfeedfacecafebeef))

	u16, err := ReadUint16(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xbeef, u16)

	u32, err := ReadUint32(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xdeadbeef, u32)

	i64, err := ReadInt64(&buf)
	require.NoError(t, err)
	require.EqualValues(t, -1, i64)

	u64, err := ReadUint64(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xfeedfacecafebeef, u64)
}
