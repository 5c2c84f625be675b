// Package netsync implements the Network Handler capability (§4.6):
// the set of live connections, the common_requested_objects map shared
// across them, and flood-fill offer/request dispatch. It is the
// concurrency-safe hub a peer.Peer is configured against so no two
// connections independently re-request the same object.
package netsync

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hirowhite/bmd/peer"
	"github.com/hirowhite/bmd/wire"
	"go.uber.org/zap"
)

var log = zap.NewNop().Sugar()

// UseLogger installs l as netsync's package logger.
func UseLogger(l *zap.SugaredLogger) { log = l }

// offerFanout is how many live connections a single offer(iv) is
// flood-filled to.
const offerFanout = 3

// Handler owns the live connection set and the cross-connection
// common_requested_objects bookkeeping, and implements
// peer.NetworkHandler so every Peer it manages shares one view of
// what is already outstanding.
type Handler struct {
	mu     sync.RWMutex
	peers  map[*peer.Peer]struct{}
	common map[wire.ShaHash]time.Time
}

// New returns an empty Handler.
func New() *Handler {
	return &Handler{
		peers:  make(map[*peer.Peer]struct{}),
		common: make(map[wire.ShaHash]time.Time),
	}
}

var _ peer.NetworkHandler = (*Handler)(nil)

// AddPeer registers p as live, once its handshake has completed.
func (h *Handler) AddPeer(p *peer.Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[p] = struct{}{}
}

// RemovePeer deregisters p and reassigns any IVs it had outstanding:
// removing them from common_requested_objects so the next inv
// exchange with a surviving peer re-requests them (§4.6 "request(ivs)").
func (h *Handler) RemovePeer(p *peer.Peer) {
	outstanding := p.RequestedObjects()

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, p)
	for _, iv := range outstanding {
		delete(h.common, iv)
	}
}

// PeerCount reports the number of live connections.
func (h *Handler) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Offer implements peer.NetworkHandler: flood-fill iv by enqueuing an
// inv to a random subset of live peers (§4.6).
func (h *Handler) Offer(iv wire.ShaHash) {
	h.mu.RLock()
	targets := make([]*peer.Peer, 0, len(h.peers))
	for p := range h.peers {
		if p.State() == peer.Active {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	rand.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })
	if len(targets) > offerFanout {
		targets = targets[:offerFanout]
	}

	inv := &wire.InvVect{Hash: iv}
	for _, p := range targets {
		p.SendInv(inv)
	}
}

// ExcludeCommonRequests implements peer.NetworkHandler: drops any IV
// already outstanding on another connection.
func (h *Handler) ExcludeCommonRequests(ivs []wire.ShaHash) []wire.ShaHash {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]wire.ShaHash, 0, len(ivs))
	for _, iv := range ivs {
		if _, requested := h.common[iv]; !requested {
			out = append(out, iv)
		}
	}
	return out
}

// MarkCommonRequests implements peer.NetworkHandler.
func (h *Handler) MarkCommonRequests(ivs []wire.ShaHash) {
	now := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, iv := range ivs {
		h.common[iv] = now
	}
}

// UnmarkCommonRequest implements peer.NetworkHandler.
func (h *Handler) UnmarkCommonRequest(iv wire.ShaHash) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.common, iv)
}
