package obj

import "io"

// Generic carries the raw payload of an object type this build does
// not know how to interpret. It is still relayed and stored by IV —
// the flood-fill overlay must not drop objects just because a node is
// running older software than the one that minted them (§9 design
// note: "Generic" variant).
type Generic struct {
	version    uint64
	stream     uint64
	objectType uint32
	Raw        []byte
}

func (g *Generic) Kind() Kind      { return KindGeneric }
func (g *Generic) Version() uint64 { return g.version }
func (g *Generic) Stream() uint64  { return g.stream }

func (g *Generic) WireEncode(w io.Writer) error {
	_, err := w.Write(g.Raw)
	return err
}

func (g *Generic) WireDecode(r io.Reader, version, stream uint64) error {
	g.version, g.stream = version, stream
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	g.Raw = raw
	return nil
}

// BytesToSign returns nil: generic objects are opaque and never
// locally signed.
func (g *Generic) BytesToSign() []byte { return nil }
