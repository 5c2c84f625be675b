package peer

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hirowhite/bmd/addrmgr"
	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/inventory"
	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/wire"
	"github.com/stretchr/testify/require"
)

// fakeNetwork is a minimal NetworkHandler stub: no cross-connection
// deduplication, just enough bookkeeping to exercise a single Peer.
type fakeNetwork struct {
	mu      sync.Mutex
	offered []wire.ShaHash
	common  map[wire.ShaHash]bool
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{common: make(map[wire.ShaHash]bool)}
}

func (f *fakeNetwork) Offer(iv wire.ShaHash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offered = append(f.offered, iv)
}

func (f *fakeNetwork) ExcludeCommonRequests(ivs []wire.ShaHash) []wire.ShaHash {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]wire.ShaHash, 0, len(ivs))
	for _, iv := range ivs {
		if !f.common[iv] {
			out = append(out, iv)
		}
	}
	return out
}

func (f *fakeNetwork) MarkCommonRequests(ivs []wire.ShaHash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, iv := range ivs {
		f.common[iv] = true
	}
}

func (f *fakeNetwork) UnmarkCommonRequest(iv wire.ShaHash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.common, iv)
}

type fakeListener struct {
	mu        sync.Mutex
	delivered []*obj.Object
}

func (f *fakeListener) Deliver(o *obj.Object) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, o)
}

func newTestConfig(mode Mode, nonce uint64, store inventory.Store) Config {
	return Config{
		Mode:             mode,
		Net:              wire.TestNet,
		Nonce:            nonce,
		Version:          wire.CurrentVersion,
		Streams:          []uint64{1},
		UserAgentName:    "bmd",
		UserAgentVersion: "0.0.1",
		Store:            store,
		AddrMgr:          addrmgr.New(),
		Network:          newFakeNetwork(),
		Crypto:           bmcrypto.Default{},
		Listener:         &fakeListener{},
		PowTrialsPerByte: 1000,
		PowExtraBytes:    1000,
	}
}

// handshakePair drives two Peers (client/server) over a net.Pipe until
// both report Active, returning them for further scenario-specific
// interaction.
func handshakePair(t *testing.T, clientStore, serverStore inventory.Store) (*Peer, *Peer) {
	t.Helper()
	c1, c2 := net.Pipe()

	client := New(newTestConfig(Client, 1, clientStore), c1, false)
	server := New(newTestConfig(Server, 2, serverStore), c2, true)

	go client.Start()
	go server.Start()

	require.Eventually(t, func() bool {
		return client.State() == Active && server.State() == Active
	}, time.Second, time.Millisecond)

	return client, server
}

func TestHandshakeReachesActive(t *testing.T) {
	client, server := handshakePair(t, inventory.NewMemStore(), inventory.NewMemStore())
	defer client.Disconnect()
	defer server.Disconnect()

	require.Equal(t, Active, client.State())
	require.Equal(t, Active, server.State())
}

func TestSelfConnectRejected(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	client := New(newTestConfig(Client, 42, inventory.NewMemStore()), c1, false)
	server := New(newTestConfig(Server, 42, inventory.NewMemStore()), c2, true)

	go client.Start()
	err := server.Start()

	require.ErrorIs(t, err, ErrSelfConnect)
	require.Equal(t, Disconnected, server.State())
}

func TestInvGetDataObjectFlow(t *testing.T) {
	senderStore := inventory.NewMemStore()
	gp := obj.NewGetpubkey(3, 1, [20]byte{1, 2, 3}, [32]byte{})
	o := obj.New(gp, time.Hour, 0)
	o.DoProofOfWork(bmcrypto.Default{}, 1000, 1000)
	require.NoError(t, senderStore.StoreObject(o))

	receiverStore := inventory.NewMemStore()

	sender, receiver := handshakePair(t, senderStore, receiverStore)
	defer sender.Disconnect()
	defer receiver.Disconnect()

	// The sender already advertised its inventory on activation; wait
	// for the receiver to pull the object across.
	require.Eventually(t, func() bool {
		_, ok, err := receiverStore.GetObject(o.IV())
		return err == nil && ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFinishedRequiresSyncMode(t *testing.T) {
	c1, _ := net.Pipe()
	defer c1.Close()
	p := New(newTestConfig(Client, 1, inventory.NewMemStore()), c1, false)
	require.False(t, p.Finished())
}

func TestFinishedAfterDeadline(t *testing.T) {
	c1, _ := net.Pipe()
	defer c1.Close()
	cfg := newTestConfig(Sync, 1, inventory.NewMemStore())
	cfg.SyncDeadline = time.Now().Add(-time.Second)
	p := New(cfg, c1, false)
	require.True(t, p.Finished())
}
