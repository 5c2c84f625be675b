// Package wire implements the Bitmessage peer-to-peer wire protocol:
// variable-length integer encoding, fixed-width fields, var-bytes,
// message framing, and the control-plane message types (version,
// verack, addr, inv, getdata).
package wire

import (
	"encoding/binary"
	"io"
)

// Varint prefixes, mirroring the Bitcoin-family encoding the teacher's
// bmutil/wire package used: values below 0xfd encode as a single byte;
// larger values are prefixed by a marker byte indicating the width of
// the following fixed-size integer.
const (
	varIntPrefix16 = 0xfd
	varIntPrefix32 = 0xfe
	varIntPrefix64 = 0xff
)

// MaxVarIntPayload bounds how large a var-bytes/var-array length prefix
// we are willing to trust before allocating, to stop a malicious peer
// from forcing a huge allocation from a tiny frame.
const MaxVarIntPayload = 1 << 24

// ReadVarInt reads a variable length integer from r and returns it as
// a uint64. Non-minimal encodings (a multi-byte form used where a
// shorter form would have sufficed) are rejected as ErrInvalid.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, ErrTruncated
	}

	switch prefix[0] {
	case varIntPrefix64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, ErrTruncated
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v <= 0xffffffff {
			return 0, ErrInvalid
		}
		return v, nil
	case varIntPrefix32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, ErrTruncated
		}
		v := uint64(binary.BigEndian.Uint32(buf[:]))
		if v <= 0xffff {
			return 0, ErrInvalid
		}
		return v, nil
	case varIntPrefix16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, ErrTruncated
		}
		v := uint64(binary.BigEndian.Uint16(buf[:]))
		if v < varIntPrefix16 {
			return 0, ErrInvalid
		}
		return v, nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarInt serializes val to w using the minimal encoding.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < varIntPrefix16:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = varIntPrefix16
		binary.BigEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = varIntPrefix32
		binary.BigEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = varIntPrefix64
		binary.BigEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// VarIntSerializeSize returns the number of bytes val would occupy if
// serialized with WriteVarInt.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < varIntPrefix16:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a varint length prefix followed by that many raw
// bytes. maxAllowed bounds the length to guard against a hostile peer
// declaring an oversized frame.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > maxAllowed {
		return nil, ErrTooLarge
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

// WriteVarBytes serializes a varint length prefix followed by buf.
func WriteVarBytes(w io.Writer, buf []byte) error {
	if err := WriteVarInt(w, uint64(len(buf))); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}

// ReadFixedBytes reads exactly n raw bytes with no length prefix, used
// for fixed-width fields such as a 20-byte RIPE or a 64-byte pubkey
// half.
func ReadFixedBytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

// ReadUint16 reads a fixed 16-bit big-endian integer.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint16 writes a fixed 16-bit big-endian integer.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a fixed 32-bit big-endian integer.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteUint32 writes a fixed 32-bit big-endian integer.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadInt64 reads a fixed 64-bit big-endian signed integer.
func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ErrTruncated
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

// WriteInt64 writes a fixed 64-bit big-endian signed integer.
func WriteInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadUint64 reads a fixed 64-bit big-endian unsigned integer.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteUint64 writes a fixed 64-bit big-endian unsigned integer.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
