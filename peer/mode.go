package peer

// Mode distinguishes the three ways a connection can be driven (§4.5,
// supplemented by SPEC_FULL.md's sync-mode expansion).
type Mode int

const (
	// Server is an inbound connection: we wait for the remote's
	// version before sending our own.
	Server Mode = iota
	// Client is an outbound, long-lived connection: we speak first.
	Client
	// Sync is a one-shot outbound connection that exchanges inventory
	// and then reports Finished, per the sync-mode termination rules.
	Sync
)

func (m Mode) String() string {
	switch m {
	case Server:
		return "server"
	case Client:
		return "client"
	case Sync:
		return "sync"
	default:
		return "unknown"
	}
}

// State is a position in the connection state machine: Connecting →
// Active → Disconnected (terminal).
type State int32

const (
	Connecting State = iota
	Active
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
