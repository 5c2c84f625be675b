package obj

import (
	"errors"
	"time"
)

// ErrDraftIncomplete is returned by MsgDraft.Build/BroadcastDraft.Build
// when a required field was never set.
var ErrDraftIncomplete = errors.New("obj: draft is missing required fields")

// MsgDraft tolerates partial construction of an outbound private
// message while the caller accumulates sender address fields,
// destination, and body across several steps (e.g. waiting on a pubkey request before
// the destination keys are known) — the "Draft, finalized by a
// validating build step" pattern from §9, replacing the teacher
// lineage's mutable builder objects.
type MsgDraft struct {
	FromVersion, FromStream uint64
	DestinationRipe         *[20]byte
	Encoding                uint64
	Message                 []byte
	TTL                     time.Duration
	Stream                  uint64 // object-level stream override, 0 = inherit
}

// Build validates the draft and produces a locally-originated, open
// (unsigned, unencrypted) Msg Object.
func (d *MsgDraft) Build() (*Object, error) {
	if d.DestinationRipe == nil || d.TTL <= 0 {
		return nil, ErrDraftIncomplete
	}
	plaintext := NewPlaintext(d.FromVersion, d.FromStream, *d.DestinationRipe, d.Encoding, d.Message)
	payload := NewMsg(d.FromVersion, d.FromStream, plaintext)
	return New(payload, d.TTL, d.Stream), nil
}

// BroadcastDraft is the Draft analogue of MsgDraft for one-to-many
// broadcasts, which have no destination RIPE.
type BroadcastDraft struct {
	FromVersion, FromStream uint64
	Tag                     [32]byte
	Encoding                uint64
	Message                 []byte
	TTL                     time.Duration
	Stream                  uint64
}

// Build validates the draft and produces a locally-originated, open
// Broadcast Object.
func (d *BroadcastDraft) Build() (*Object, error) {
	if d.TTL <= 0 {
		return nil, ErrDraftIncomplete
	}
	plaintext := NewPlaintext(d.FromVersion, d.FromStream, [20]byte{}, d.Encoding, d.Message)
	payload := NewBroadcast(d.FromVersion, d.FromStream, d.Tag, plaintext)
	return New(payload, d.TTL, d.Stream), nil
}
