package netsync

import (
	"time"

	"github.com/hirowhite/bmd/peer"
)

// activationPollInterval bounds how quickly Manage notices a
// connection reaching Active, to register it in the live set before
// the first Offer needs it. The same interval paces the Sync-mode
// Finished() watcher below.
const activationPollInterval = 10 * time.Millisecond

// Manage runs p to completion, registering it in the live connection
// set once its handshake completes and deregistering it (reassigning
// its outstanding requests) once it disconnects. It blocks until p's
// connection ends, so callers typically invoke it in its own
// goroutine per connection.
func (h *Handler) Manage(p *peer.Peer) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(activationPollInterval)
		defer ticker.Stop()
		for range ticker.C {
			switch p.State() {
			case peer.Active:
				h.AddPeer(p)
				return
			case peer.Disconnected:
				return
			}
		}
	}()

	if p.Mode() == peer.Sync {
		go h.watchSyncFinished(p)
	}

	err := p.Start()
	<-done
	h.RemovePeer(p)
	return err
}

// watchSyncFinished polls a Sync-mode peer's Finished() and tears it
// down once the sync-mode termination rules (§4.5) are met, so
// --sync-once dialers actually exit once caught up instead of riding
// out the ordinary idle timeout.
func (h *Handler) watchSyncFinished(p *peer.Peer) {
	ticker := time.NewTicker(activationPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if p.State() == peer.Disconnected {
			return
		}
		if p.Finished() {
			p.Disconnect()
			return
		}
	}
}
