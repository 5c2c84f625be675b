package obj

import (
	"bytes"
	"io"

	"github.com/hirowhite/bmd/wire"
)

// Getpubkey requests the public key behind a RIPE (version ≤ 3) or a
// tag (version ≥ 4). It carries no signature and no encryption.
type Getpubkey struct {
	version uint64
	stream  uint64
	Ripe    [20]byte
	Tag     [32]byte
}

// NewGetpubkey constructs a Getpubkey payload for the given address
// version/stream, RIPE and tag. The tag is used as given (it is what
// v4+ encodes); it is not derived here.
func NewGetpubkey(version, stream uint64, ripe [20]byte, tag [32]byte) *Getpubkey {
	return &Getpubkey{version: version, stream: stream, Ripe: ripe, Tag: tag}
}

func (g *Getpubkey) Kind() Kind      { return KindGetpubkey }
func (g *Getpubkey) Version() uint64 { return g.version }
func (g *Getpubkey) Stream() uint64  { return g.stream }

func (g *Getpubkey) WireEncode(w io.Writer) error {
	if g.version >= 4 {
		_, err := w.Write(g.Tag[:])
		return err
	}
	_, err := w.Write(g.Ripe[:])
	return err
}

func (g *Getpubkey) WireDecode(r io.Reader, version, stream uint64) error {
	g.version, g.stream = version, stream
	if version >= 4 {
		buf, err := wire.ReadFixedBytes(r, 32)
		if err != nil {
			return err
		}
		copy(g.Tag[:], buf)
		return nil
	}
	buf, err := wire.ReadFixedBytes(r, 20)
	if err != nil {
		return err
	}
	copy(g.Ripe[:], buf)
	return nil
}

// BytesToSign returns the payload's wire encoding. Getpubkey does not
// implement Signed, so getpubkey objects are never signed.
func (g *Getpubkey) BytesToSign() []byte {
	var buf bytes.Buffer
	_ = g.WireEncode(&buf)
	return buf.Bytes()
}
