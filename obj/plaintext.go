package obj

import (
	"bytes"
	cryptorand "crypto/rand"
	"io"
	"time"

	"github.com/hirowhite/bmd/wire"
)

// Status models a Plaintext's progress through the application-side
// send pipeline (§3, §4 "Status state machine"). PoW, transmit, and
// ack reception only ever move Status forward or log a failure — they
// never raise to the original caller after submission (§7).
type Status int

const (
	StatusPubkeyRequested Status = iota
	StatusDoingProofOfWork
	StatusSent
	StatusAcknowledged
)

// addressPlaceholder is the unresolved-destination sentinel: address
// version 0. A Plaintext's destination RIPE may be set exactly once
// from this sentinel (§3 invariant).
const addressPlaceholder = 0

// Plaintext is the inner envelope of a decrypted msg/broadcast object
// (§3, §6): sender address fields, destination RIPE, encoding tag,
// message/ack bytes, signature, and application-side bookkeeping.
type Plaintext struct {
	FromVersion        uint64
	FromStream         uint64
	Behavior           uint32
	SigningKey         [64]byte
	EncryptionKey      [64]byte
	NonceTrialsPerByte uint64
	ExtraBytes         uint64

	// toVersion is addressPlaceholder until SetTo resolves the
	// destination; DestinationRipe always holds the RIPE the sender
	// targeted, known from construction.
	toVersion       uint64
	DestinationRipe [20]byte

	Encoding uint64
	Message  []byte
	Ack      []byte
	sig      []byte

	// Application-side fields, not part of the signed wire pre-image.
	ID       [16]byte
	status   Status
	SentTime time.Time
	RecvTime time.Time
	Labels   map[string]struct{}
}

// NewPlaintext constructs a Plaintext with an unresolved destination
// targeting destinationRipe.
func NewPlaintext(fromVersion, fromStream uint64, destinationRipe [20]byte, encoding uint64, message []byte) *Plaintext {
	p := &Plaintext{
		FromVersion:     fromVersion,
		FromStream:      fromStream,
		toVersion:       addressPlaceholder,
		DestinationRipe: destinationRipe,
		Encoding:        encoding,
		Message:         message,
		status:          StatusPubkeyRequested,
		Labels:          make(map[string]struct{}),
	}
	_, _ = cryptorand.Read(p.ID[:])
	p.Ack = make([]byte, 32)
	_, _ = cryptorand.Read(p.Ack)
	return p
}

// Status returns the current application-side send status.
func (p *Plaintext) Status() Status { return p.status }

// AdvanceStatus moves the Plaintext forward in its send pipeline. It
// never fails the caller (§7): out-of-order calls are no-ops.
func (p *Plaintext) AdvanceStatus(s Status) {
	if s > p.status {
		p.status = s
	}
}

// AddLabel attaches a label to the message.
func (p *Plaintext) AddLabel(label string) {
	p.Labels[label] = struct{}{}
}

// DestinationResolved reports whether SetTo has successfully resolved
// the destination address.
func (p *Plaintext) DestinationResolved() bool {
	return p.toVersion != addressPlaceholder
}

// SetTo resolves the destination address once the sender's intended
// recipient pubkey has been found. It accepts when ripe matches the
// placeholder's DestinationRipe and the destination has not already
// been resolved; it rejects a mismatch or a second call (§3 invariant,
// §9 Open Question (a): the spec's corrected, non-inverted semantics).
func (p *Plaintext) SetTo(toVersion uint64, ripe [20]byte) error {
	if p.DestinationResolved() {
		return ErrDestinationAlreadySet
	}
	if ripe != p.DestinationRipe {
		return ErrDestinationMismatch
	}
	p.toVersion = toVersion
	return nil
}

// Signature returns the detached signature over the plaintext body.
func (p *Plaintext) Signature() []byte { return p.sig }

// SetSignature installs a detached signature.
func (p *Plaintext) SetSignature(sig []byte) error {
	p.sig = sig
	return nil
}

// IsSigned reports whether a signature has been installed.
func (p *Plaintext) IsSigned() bool { return len(p.sig) > 0 }

// bytesToSign encodes the canonical pre-image per §6: the full wire
// format minus the trailing signature field.
func (p *Plaintext) bytesToSign() []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarInt(&buf, p.FromVersion)
	_ = wire.WriteVarInt(&buf, p.FromStream)
	_ = wire.WriteUint32(&buf, p.Behavior)
	buf.Write(p.SigningKey[:])
	buf.Write(p.EncryptionKey[:])
	_ = wire.WriteVarInt(&buf, p.NonceTrialsPerByte)
	_ = wire.WriteVarInt(&buf, p.ExtraBytes)
	buf.Write(p.DestinationRipe[:])
	_ = wire.WriteVarInt(&buf, p.Encoding)
	_ = wire.WriteVarBytes(&buf, p.Message)
	_ = wire.WriteVarBytes(&buf, p.Ack)
	return buf.Bytes()
}

// Encode writes the full plaintext wire format (§6), signature
// included.
func (p *Plaintext) Encode(w io.Writer) error {
	if _, err := w.Write(p.bytesToSign()); err != nil {
		return err
	}
	return wire.WriteVarBytes(w, p.sig)
}

// DecodePlaintext parses the plaintext wire format (§6) out of a
// decrypted msg/broadcast body.
func DecodePlaintext(r io.Reader) (*Plaintext, error) {
	p := &Plaintext{Labels: make(map[string]struct{})}

	var err error
	if p.FromVersion, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	if p.FromStream, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	if p.Behavior, err = wire.ReadUint32(r); err != nil {
		return nil, err
	}
	signKey, err := wire.ReadFixedBytes(r, 64)
	if err != nil {
		return nil, err
	}
	copy(p.SigningKey[:], signKey)
	encKey, err := wire.ReadFixedBytes(r, 64)
	if err != nil {
		return nil, err
	}
	copy(p.EncryptionKey[:], encKey)
	if p.NonceTrialsPerByte, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	if p.ExtraBytes, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	ripe, err := wire.ReadFixedBytes(r, 20)
	if err != nil {
		return nil, err
	}
	copy(p.DestinationRipe[:], ripe)
	p.toVersion = addressPlaceholder

	if p.Encoding, err = wire.ReadVarInt(r); err != nil {
		return nil, err
	}
	if p.Message, err = wire.ReadVarBytes(r, wire.MaxMessagePayload, "message"); err != nil {
		return nil, err
	}
	if p.Ack, err = wire.ReadVarBytes(r, wire.MaxMessagePayload, "ack"); err != nil {
		return nil, err
	}
	if p.sig, err = wire.ReadVarBytes(r, 1024, "signature"); err != nil {
		return nil, err
	}

	return p, nil
}
