package peer

import "time"

// Finished reports whether a Sync-mode connection should be torn down
// (§4.5 "Sync-mode termination"): the connection has been explicitly
// disconnected, the sync deadline has passed, or the connection is
// Active with an empty sending queue and no inbound activity for the
// read-idle window.
func (p *Peer) Finished() bool {
	if p.cfg.Mode != Sync {
		return false
	}
	if p.State() == Disconnected {
		return true
	}
	if !p.cfg.SyncDeadline.IsZero() && time.Now().After(p.cfg.SyncDeadline) {
		return true
	}
	if p.State() != Active {
		return false
	}
	if len(p.sendingQueue) > 0 {
		return false
	}

	p.activityMu.Lock()
	idleSince := time.Since(p.lastActivity)
	p.activityMu.Unlock()
	return idleSince >= syncIdleWindow
}
