// Package listener implements the Dispatch/Listener capability:
// delivering decrypted inbound messages to the application layer, and
// signing/encrypting locally-originated ones before they are handed
// to the network handler for admission (§4.7). It sits above
// peer.Peer, which hands every requested Object not already in its
// inventory here via Deliver, still sealed, before checking its
// proof of work.
package listener

import (
	"errors"
	"sync"

	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/repo"
	"go.uber.org/zap"
)

var log = zap.NewNop().Sugar()

// UseLogger installs l as listener's package logger.
func UseLogger(l *zap.SugaredLogger) { log = l }

// ErrNotEncryptable is returned when PrepareOutbound is given a built
// Object whose payload does not implement obj.Encrypted.
var ErrNotEncryptable = errors.New("listener: payload does not support encryption")

// Identity is a locally-held address this node can receive messages
// and broadcasts for.
type Identity struct {
	Ripe    [20]byte
	Public  *bmcrypto.PublicKey
	Private *bmcrypto.PrivateKey
}

// Inbound is called once a Msg or Broadcast has been decrypted and
// (if signed) verified against one of this node's identities.
type Inbound func(id Identity, o *obj.Object, pt *obj.Plaintext, verified bool)

// Draft is implemented by obj.MsgDraft and obj.BroadcastDraft.
type Draft interface {
	Build() (*obj.Object, error)
}

// Dispatcher is the Dispatch/Listener capability: it owns this node's
// identities and decides, for every object the connection layer
// admits, whether it is addressed to us.
type Dispatcher struct {
	crypto  bmcrypto.Capability
	inbound Inbound
	msgs    repo.MessageRepo

	mu         sync.RWMutex
	identities map[[20]byte]Identity
}

// New returns a Dispatcher that calls inbound for every object it
// successfully decrypts. msgs tracks every outbound Msg/Broadcast this
// Dispatcher prepares, through the Status pipeline, until its ack
// arrives.
func New(crypto bmcrypto.Capability, inbound Inbound, msgs repo.MessageRepo) *Dispatcher {
	return &Dispatcher{
		crypto:     crypto,
		inbound:    inbound,
		msgs:       msgs,
		identities: make(map[[20]byte]Identity),
	}
}

// AddIdentity registers id so inbound traffic addressed to its RIPE
// can be decrypted.
func (d *Dispatcher) AddIdentity(id Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.identities[id.Ripe] = id
}

// RemoveIdentity deregisters a previously-added identity.
func (d *Dispatcher) RemoveIdentity(ripe [20]byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.identities, ripe)
}

func (d *Dispatcher) snapshotIdentities() []Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Identity, 0, len(d.identities))
	for _, id := range d.identities {
		out = append(out, id)
	}
	return out
}

// Deliver implements peer.Listener. A Generic payload cannot be
// decrypted, but it is exactly the shape a rebroadcast ack arrives in
// (the recipient echoes the ack bytes back onto the network
// unmodified); it is checked against msgs before being ignored. A
// Msg/Broadcast is tried against every registered identity in turn.
func (d *Dispatcher) Deliver(o *obj.Object) {
	if g, ok := o.Payload.(*obj.Generic); ok {
		d.handleAck(g.Raw)
		return
	}

	enc, ok := o.Payload.(obj.Encrypted)
	if !ok || enc.IsDecrypted() {
		return
	}

	for _, id := range d.snapshotIdentities() {
		if err := enc.Decrypt(d.crypto, id.Private); err != nil {
			continue
		}

		pt := plaintextOf(o.Payload)
		verified, err := o.VerifySignature(d.crypto, &bmcrypto.PublicKey{
			Signing:    pt.SigningKey,
			Encryption: pt.EncryptionKey,
		})
		if err != nil {
			verified = false
		}

		if d.inbound != nil {
			d.inbound(id, o, pt, verified)
		}
		return
	}
}

// handleAck looks up raw against every outbound message still awaiting
// acknowledgment and, on a match, retires its repository record —
// there is nothing left to retry. The repository record does not hold
// the Plaintext, so no Plaintext's Status is changed here.
func (d *Dispatcher) handleAck(raw []byte) {
	if d.msgs == nil {
		return
	}
	rec, found, err := d.msgs.FindByAckData(raw)
	if err != nil || !found {
		return
	}
	if err := d.msgs.Delete(rec.ID); err != nil {
		log.Warnw("failed to retire acknowledged message record", "id", rec.ID, "error", err)
		return
	}
	log.Debugw("message acknowledged", "id", rec.ID)
}

func plaintextOf(p obj.Payload) *obj.Plaintext {
	switch v := p.(type) {
	case *obj.Msg:
		return v.Plaintext()
	case *obj.Broadcast:
		return v.Plaintext()
	default:
		return nil
	}
}

// PrepareOutbound builds draft, signs it with senderPriv, encrypts it
// to pub, and stamps proof-of-work — the full local-origination
// pipeline of §4.7, ready for the caller to hand to an
// inventory.Store and netsync.Handler.Offer.
func (d *Dispatcher) PrepareOutbound(draft Draft, senderPriv *bmcrypto.PrivateKey, pub *bmcrypto.PublicKey, trialsPerByte, extraBytes uint64) (*obj.Object, error) {
	o, err := draft.Build()
	if err != nil {
		return nil, err
	}
	if err := o.Sign(d.crypto, senderPriv); err != nil {
		return nil, err
	}

	enc, ok := o.Payload.(obj.Encrypted)
	if !ok {
		return nil, ErrNotEncryptable
	}
	if err := enc.Encrypt(d.crypto, pub); err != nil {
		return nil, err
	}

	pt := plaintextOf(o.Payload)
	if pt != nil {
		pt.AdvanceStatus(obj.StatusDoingProofOfWork)
	}

	o.DoProofOfWork(d.crypto, trialsPerByte, extraBytes)

	if pt != nil {
		pt.AdvanceStatus(obj.StatusSent)
		d.trackOutbound(pt, o.Header.ExpiresTime)
	}
	return o, nil
}

// trackOutbound records pt in the message repository so a later
// handleAck can retire it once its acknowledgment arrives off the
// wire.
func (d *Dispatcher) trackOutbound(pt *obj.Plaintext, ttl int64) {
	if d.msgs == nil {
		return
	}
	if err := d.msgs.Insert(repo.MessageRecord{
		ID:      pt.ID,
		AckData: pt.Ack,
		TTL:     ttl,
	}); err != nil {
		log.Warnw("failed to record outbound message", "id", pt.ID, "error", err)
	}
}
