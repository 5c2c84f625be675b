package addrmgr

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/hirowhite/bmd/wire"
	"github.com/stretchr/testify/require"
)

func TestAddAddressesThenGetKnownAddresses(t *testing.T) {
	m := New()
	na1 := wire.NewNetAddressIPPort(net.ParseIP("1.2.3.4"), 8444, 1, wire.SFNodeNetwork)
	na2 := wire.NewNetAddressIPPort(net.ParseIP("5.6.7.8"), 8444, 2, wire.SFNodeNetwork)
	m.AddAddresses([]*wire.NetAddress{na1, na2}, nil)

	all := m.GetKnownAddresses(10)
	require.Len(t, all, 2)

	stream1 := m.GetKnownAddresses(10, 1)
	require.Len(t, stream1, 1)
	require.Equal(t, na1.Key(), stream1[0].Key())
}

func TestGetKnownAddressesRespectsLimit(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		na := wire.NewNetAddressIPPort(net.ParseIP("10.0.0.1"), uint16(1000+i), 1, wire.SFNodeNetwork)
		m.AddAddress(na, nil)
	}
	require.Len(t, m.GetKnownAddresses(3), 3)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New()
	na := wire.NewNetAddressIPPort(net.ParseIP("9.9.9.9"), 8444, 1, wire.SFNodeNetwork)
	m.AddAddress(na, nil)

	path := filepath.Join(t.TempDir(), "peers.json")
	require.NoError(t, m.Save(path))

	m2 := New()
	require.NoError(t, m2.Load(path))
	require.Equal(t, 1, m2.Count())
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	m := New()
	require.NoError(t, m.Load(filepath.Join(t.TempDir(), "does-not-exist.json")))
	require.Equal(t, 0, m.Count())
}
