package netsync

import (
	"net"
	"testing"
	"time"

	"github.com/hirowhite/bmd/addrmgr"
	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/inventory"
	"github.com/hirowhite/bmd/peer"
	"github.com/hirowhite/bmd/wire"
	"github.com/stretchr/testify/require"
)

func TestExcludeCommonRequests(t *testing.T) {
	h := New()
	a := wire.ShaHash{1}
	b := wire.ShaHash{2}

	h.MarkCommonRequests([]wire.ShaHash{a})
	remaining := h.ExcludeCommonRequests([]wire.ShaHash{a, b})

	require.Equal(t, []wire.ShaHash{b}, remaining)
}

func TestUnmarkCommonRequest(t *testing.T) {
	h := New()
	a := wire.ShaHash{1}
	h.MarkCommonRequests([]wire.ShaHash{a})
	h.UnmarkCommonRequest(a)

	remaining := h.ExcludeCommonRequests([]wire.ShaHash{a})
	require.Equal(t, []wire.ShaHash{a}, remaining)
}

func TestRemovePeerLeavesUnrelatedCommonRequests(t *testing.T) {
	h := New()
	a := wire.ShaHash{9}
	h.MarkCommonRequests([]wire.ShaHash{a})

	// A freshly constructed Peer has no outstanding requests, so
	// removing it leaves an unrelated common entry untouched.
	p := peer.New(peer.Config{Mode: peer.Client}, nil, false)
	h.AddPeer(p)
	h.RemovePeer(p)

	remaining := h.ExcludeCommonRequests([]wire.ShaHash{a})
	require.Empty(t, remaining)
	require.Equal(t, 0, h.PeerCount())
}

func syncPeerConfig(deadline time.Time) peer.Config {
	return peer.Config{
		Mode:             peer.Sync,
		Net:              wire.TestNet,
		Nonce:            1,
		Version:          wire.CurrentVersion,
		Streams:          []uint64{1},
		Store:            inventory.NewMemStore(),
		AddrMgr:          addrmgr.New(),
		Crypto:           bmcrypto.Default{},
		PowTrialsPerByte: 1000,
		PowExtraBytes:    1000,
		SyncDeadline:     deadline,
	}
}

// TestManageTearsDownSyncPeerOnDeadline exercises the wiring between
// Manage and Peer.Finished(): a Sync-mode peer whose deadline has
// already passed must be disconnected promptly rather than riding out
// the ordinary idle timeout.
func TestManageTearsDownSyncPeerOnDeadline(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := c2.Read(buf); err != nil {
				return
			}
		}
	}()

	h := New()
	cfg := syncPeerConfig(time.Now().Add(-time.Minute))
	cfg.Network = h
	p := peer.New(cfg, c1, false)

	done := make(chan struct{})
	go func() {
		h.Manage(p)
		close(done)
	}()

	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	require.Equal(t, peer.Disconnected, p.State())
}
