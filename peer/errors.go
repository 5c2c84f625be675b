package peer

import "errors"

var (
	// ErrSelfConnect is returned when a peer's version nonce matches
	// our own client nonce (§4.5 step 2).
	ErrSelfConnect = errors.New("peer: self connection detected")

	// ErrProtocolVersion is returned when a peer advertises a version
	// below CurrentVersion.
	ErrProtocolVersion = errors.New("peer: protocol version too old")

	// ErrUnexpectedMessage is returned when a message arrives in a
	// state that does not accept it (a NodeException per §4.5).
	ErrUnexpectedMessage = errors.New("peer: unexpected message for current state")

	// ErrUnrequestedObject is returned when an object frame arrives
	// for an IV this connection never requested.
	ErrUnrequestedObject = errors.New("peer: unrequested object")
)
