// Package peer implements the per-connection state machine (§4.5):
// handshake negotiation, the Connecting/Active/Disconnected lifecycle,
// and data-plane message handling. It is adapted from the teacher's
// own peer.go, replacing its btcd-flavored block/tx relay with
// Bitmessage's object/inventory relay.
package peer

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hirowhite/bmd/addrmgr"
	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/inventory"
	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/wire"
	"go.uber.org/zap"
)

var log = zap.NewNop().Sugar()

// UseLogger installs l as peer's package logger.
func UseLogger(l *zap.SugaredLogger) { log = l }

const (
	// maxPendingOutbound bounds the outbound queue so a slow reader
	// applies backpressure rather than growing memory unboundedly.
	maxPendingOutbound = 100

	// negotiateTimeout bounds how long a connection may sit in
	// Connecting before it is dropped as unresponsive.
	negotiateTimeout = 30 * time.Second

	// idleTimeout bounds how long an Active connection may go without
	// any inbound traffic before it is dropped.
	idleTimeout = 5 * time.Minute

	// syncIdleWindow is the read-idle window that, combined with an
	// empty sending queue, ends a Sync-mode connection (§4.5).
	syncIdleWindow = time.Second
)

// NetworkHandler is the subset of the netsync Network Handler (§4.6)
// a Peer needs: flood-fill offering and the cross-connection
// common_requested_objects bookkeeping that prevents every connection
// from independently re-requesting the same IV.
type NetworkHandler interface {
	// Offer flood-fills iv to this node's other live connections.
	Offer(iv wire.ShaHash)

	// ExcludeCommonRequests removes any IV already outstanding on
	// another connection, returning only those this connection should
	// itself request.
	ExcludeCommonRequests(ivs []wire.ShaHash) []wire.ShaHash

	// MarkCommonRequests records ivs as outstanding requests, shared
	// across every connection.
	MarkCommonRequests(ivs []wire.ShaHash)

	// UnmarkCommonRequest removes iv from the shared outstanding set,
	// once it has arrived or been given up on.
	UnmarkCommonRequest(iv wire.ShaHash)
}

// Listener receives objects newly arrived on this connection that were
// requested and are not yet in the inventory. Delivery happens before
// the proof-of-work check, so an object that later fails it has still
// been delivered; decryption is left to the listener package.
type Listener interface {
	Deliver(o *obj.Object)
}

// CustomHandler answers a "custom" frame. A nil response with ok=false
// causes disconnect, matching §4.5's custom-message rule.
type CustomHandler func(payload []byte) (response []byte, ok bool)

// Config bundles everything a Peer needs to run a single connection.
type Config struct {
	Mode    Mode
	Net     wire.BitmessageNet
	Nonce   uint64 // this node's client nonce, for self-connect detection
	Version uint32 // CurrentVersion we advertise and enforce as a floor

	Streams          []uint64
	UserAgentName    string
	UserAgentVersion string

	Store   inventory.Store
	AddrMgr *addrmgr.Manager
	Network NetworkHandler
	Crypto  bmcrypto.Capability
	Listener Listener
	Custom  CustomHandler

	PowTrialsPerByte uint64
	PowExtraBytes    uint64

	// SyncDeadline, if non-zero, ends a Sync-mode connection once
	// passed, regardless of queue/idle state.
	SyncDeadline time.Time
}

// Peer drives a single connection through the state machine.
type Peer struct {
	cfg     Config
	conn    Conn
	inbound bool
	addr    *wire.NetAddress

	state      int32 // State, accessed atomically
	started    int32
	disconnect int32

	handshakeMu    sync.Mutex
	verackSent     bool
	verackReceived bool
	peerNonce      uint64
	peerVersion    uint32
	peerStreams    []uint64

	ivMu             sync.Mutex
	ivCache          map[wire.ShaHash]time.Time
	requestedObjects map[wire.ShaHash]time.Time

	sendingQueue chan wire.Message
	writeMu      sync.Mutex
	quit         chan struct{}
	closeOnce    sync.Once

	activityMu     sync.Mutex
	lastActivity   time.Time
	lastObjectTime time.Time
}

// New constructs a Peer for an already-established connection. inbound
// distinguishes Server-mode peers (who wait for the remote's version)
// from Client/Sync peers (who speak first).
func New(cfg Config, conn Conn, inbound bool) *Peer {
	p := &Peer{
		cfg:              cfg,
		conn:             conn,
		inbound:          inbound,
		ivCache:          make(map[wire.ShaHash]time.Time),
		requestedObjects: make(map[wire.ShaHash]time.Time),
		sendingQueue:     make(chan wire.Message, maxPendingOutbound),
		quit:             make(chan struct{}),
	}
	p.setState(Connecting)
	p.touch()
	return p
}

func (p *Peer) setState(s State) { atomic.StoreInt32(&p.state, int32(s)) }
func (p *Peer) State() State     { return State(atomic.LoadInt32(&p.state)) }
func (p *Peer) Connected() bool  { return p.State() != Disconnected }
func (p *Peer) Mode() Mode       { return p.cfg.Mode }

// RequestedObjects snapshots the IVs currently outstanding on this
// connection, so the network handler can reassign them elsewhere once
// the connection dies (§4.6 "request(ivs)").
func (p *Peer) RequestedObjects() []wire.ShaHash {
	p.ivMu.Lock()
	defer p.ivMu.Unlock()
	out := make([]wire.ShaHash, 0, len(p.requestedObjects))
	for iv := range p.requestedObjects {
		out = append(out, iv)
	}
	return out
}

// RemoteAddr returns the peer's advertised/observed network address,
// or nil before the handshake has resolved one.
func (p *Peer) RemoteAddr() *wire.NetAddress { return p.addr }
func (p *Peer) touch() {
	p.activityMu.Lock()
	p.lastActivity = time.Now()
	p.activityMu.Unlock()
}

// Start begins the connection: for Client and Sync modes it sends the
// local version immediately (§4.5 step 1); then it launches the read
// and write loops. Start blocks until the connection ends.
func (p *Peer) Start() error {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return nil
	}

	if p.cfg.Mode != Server {
		if err := p.sendVersion(); err != nil {
			p.Disconnect()
			return err
		}
	}

	errCh := make(chan error, 1)
	go p.writeLoop()
	go func() { errCh <- p.readLoop() }()

	err := <-errCh
	p.Disconnect()
	return err
}

// Disconnect closes the connection exactly once and transitions to
// Disconnected.
func (p *Peer) Disconnect() {
	p.closeOnce.Do(func() {
		atomic.StoreInt32(&p.disconnect, 1)
		p.setState(Disconnected)
		close(p.quit)
		p.conn.Close()
	})
}

// send enqueues msg on the FIFO sending queue, drained by writeLoop.
func (p *Peer) send(msg wire.Message) {
	if !p.Connected() {
		return
	}
	select {
	case p.sendingQueue <- msg:
	case <-p.quit:
	}
}

// SendInv enqueues a one-entry inv message advertising iv, used by the
// network handler to flood-fill a newly accepted object (§4.6).
func (p *Peer) SendInv(iv *wire.InvVect) {
	msg := wire.NewMsgInv()
	msg.AddInvVect(iv)
	p.send(msg)
}

// sendNow bypasses the queue, for immediate handshake frames (§4.5:
// "send() may bypass the queue for immediate handshake frames").
func (p *Peer) sendNow(msg wire.Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return wire.WriteMessage(p.conn, p.cfg.Net, msg)
}

func (p *Peer) sendVersion() error {
	you := p.addr
	if you == nil {
		you = wire.NewNetAddressIPPort(nil, 0, 0, 0)
	}
	me := p.cfg.AddrMgr.GetBestLocalAddress(you)
	msg := wire.NewMsgVersion(me, you, p.cfg.Nonce, p.cfg.Streams)
	msg.ProtocolVersion = p.cfg.Version
	msg.AddUserAgent(p.cfg.UserAgentName, p.cfg.UserAgentVersion)
	return p.sendNow(msg)
}

func (p *Peer) writeLoop() {
	for {
		select {
		case msg := <-p.sendingQueue:
			if err := p.sendNow(msg); err != nil {
				p.Disconnect()
				return
			}
		case <-p.quit:
			return
		}
	}
}

func (p *Peer) readLoop() error {
	for {
		p.conn.SetReadDeadline(time.Now().Add(p.readTimeout()))
		msg, err := wire.ReadMessage(p.conn, p.cfg.Net)
		if err != nil {
			return err
		}
		p.touch()

		if err := p.dispatch(msg); err != nil {
			log.Debugw("peer dispatch error, disconnecting", "err", err)
			return err
		}

		if p.addr != nil {
			p.cfg.AddrMgr.Connected(p.addr)
		}
	}
}

func (p *Peer) readTimeout() time.Duration {
	if p.State() == Connecting {
		return negotiateTimeout
	}
	return idleTimeout
}

// dispatch routes an inbound message per the state machine (§4.5):
// control messages only in Connecting, data-plane only in Active.
func (p *Peer) dispatch(msg wire.Message) error {
	switch p.State() {
	case Connecting:
		switch m := msg.(type) {
		case *wire.MsgVersion:
			return p.handleVersion(m)
		case *wire.MsgVerAck:
			return p.handleVerAck()
		case *wire.MsgCustomRaw:
			return p.handleCustom(m)
		default:
			return fmt.Errorf("%w: %s while connecting", ErrUnexpectedMessage, msg.Command())
		}
	case Active:
		switch m := msg.(type) {
		case *wire.MsgInv:
			return p.handleInv(m)
		case *wire.MsgGetData:
			return p.handleGetData(m)
		case *wire.MsgObjectRaw:
			return p.handleObject(m)
		case *wire.MsgAddr:
			return p.handleAddr(m)
		case *wire.MsgCustomRaw:
			return p.handleCustom(m)
		default:
			return fmt.Errorf("%w: %s while active", ErrUnexpectedMessage, msg.Command())
		}
	default:
		return ErrUnexpectedMessage
	}
}

func (p *Peer) handleVersion(msg *wire.MsgVersion) error {
	if msg.Nonce == p.cfg.Nonce {
		return ErrSelfConnect
	}
	if msg.ProtocolVersion < p.cfg.Version {
		return ErrProtocolVersion
	}

	p.handshakeMu.Lock()
	p.peerNonce = msg.Nonce
	p.peerVersion = msg.ProtocolVersion
	p.peerStreams = msg.StreamNumbers
	p.handshakeMu.Unlock()

	if p.inbound {
		stream := uint32(0)
		if len(msg.StreamNumbers) > 0 {
			stream = uint32(msg.StreamNumbers[0])
		}
		p.addr = newNetAddress(p.conn.RemoteAddr(), stream, msg.Services)
		p.cfg.AddrMgr.AddAddress(p.addr, nil)
	}

	if err := p.sendNow(wire.NewMsgVerAck()); err != nil {
		return err
	}
	p.handshakeMu.Lock()
	p.verackSent = true
	p.handshakeMu.Unlock()

	if p.cfg.Mode == Server {
		if err := p.sendVersion(); err != nil {
			return err
		}
	}

	return p.maybeActivate()
}

func (p *Peer) handleVerAck() error {
	p.handshakeMu.Lock()
	p.verackReceived = true
	p.handshakeMu.Unlock()
	return p.maybeActivate()
}

func (p *Peer) maybeActivate() error {
	p.handshakeMu.Lock()
	ready := p.verackSent && p.verackReceived
	p.handshakeMu.Unlock()
	if !ready || p.State() != Connecting {
		return nil
	}
	return p.enterActive()
}

// enterActive runs the §4.5 step-4 on-activation behavior.
func (p *Peer) enterActive() error {
	p.setState(Active)

	if p.addr != nil {
		p.cfg.AddrMgr.Connected(p.addr)
		p.cfg.AddrMgr.Good(p.addr)
	}

	if p.cfg.Mode == Sync {
		return nil
	}

	if addrs := p.cfg.AddrMgr.AddressCache(); len(addrs) > 0 {
		if len(addrs) > wire.MaxAddrPerMsg {
			addrs = addrs[:wire.MaxAddrPerMsg]
		}
		addrMsg := wire.NewMsgAddr()
		for _, na := range addrs {
			_ = addrMsg.AddAddress(na)
		}
		p.send(addrMsg)
	}

	ivs, err := p.cfg.Store.GetInventory(p.peerStreamsAsUint64()...)
	if err != nil {
		return err
	}
	for chunk := range chunkIVs(ivs, wire.MaxInvPerMsg) {
		invMsg := wire.NewMsgInv()
		for _, iv := range chunk {
			invMsg.AddInvVect(&wire.InvVect{Hash: iv})
		}
		p.send(invMsg)
	}

	return nil
}

func (p *Peer) peerStreamsAsUint64() []uint64 {
	p.handshakeMu.Lock()
	defer p.handshakeMu.Unlock()
	return p.peerStreams
}

// handleInv merges advertised IVs into the known-inventory cache and
// requests whatever is both locally missing and not already
// outstanding on another connection (§4.5).
func (p *Peer) handleInv(msg *wire.MsgInv) error {
	p.evictExpiredIVs()

	now := time.Now()
	hashes := make([]wire.ShaHash, len(msg.InvList))
	p.ivMu.Lock()
	for i, iv := range msg.InvList {
		p.ivCache[iv.Hash] = now
		hashes[i] = iv.Hash
	}
	p.ivMu.Unlock()

	missing, err := p.cfg.Store.GetMissing(hashes, p.peerStreamsAsUint64()...)
	if err != nil {
		return err
	}
	missing = p.cfg.Network.ExcludeCommonRequests(missing)
	if len(missing) == 0 {
		return nil
	}

	p.ivMu.Lock()
	for _, iv := range missing {
		p.requestedObjects[iv] = now
	}
	p.ivMu.Unlock()
	p.cfg.Network.MarkCommonRequests(missing)

	for chunk := range chunkIVs(missing, wire.MaxInvPerMsg) {
		getData := wire.NewMsgGetData()
		for _, iv := range chunk {
			getData.AddInvVect(&wire.InvVect{Hash: iv})
		}
		p.send(getData)
	}
	return nil
}

// handleGetData enqueues each requested object we actually hold.
func (p *Peer) handleGetData(msg *wire.MsgGetData) error {
	for _, iv := range msg.InvList {
		o, ok, err := p.cfg.Store.GetObject(iv.Hash)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := o.Encode(&buf); err != nil {
			return err
		}
		p.send(&wire.MsgObjectRaw{Payload: buf.Bytes()})
	}
	return nil
}

// handleObject implements the §4.5 object-arrival rules: clears the
// request bookkeeping unconditionally, then verifies and stores only
// once, flood-filling on first acceptance.
func (p *Peer) handleObject(msg *wire.MsgObjectRaw) error {
	o, err := obj.Decode(msg.Payload)
	if err != nil {
		return err
	}
	iv := o.IV()

	p.ivMu.Lock()
	_, wasRequested := p.requestedObjects[iv]
	delete(p.requestedObjects, iv)
	p.ivMu.Unlock()
	p.cfg.Network.UnmarkCommonRequest(iv)

	if !wasRequested {
		return ErrUnrequestedObject
	}

	if _, ok, err := p.cfg.Store.GetObject(iv); err != nil {
		return err
	} else if ok {
		return nil // already have it
	}

	if p.cfg.Listener != nil {
		p.cfg.Listener.Deliver(o)
	}

	if !o.CheckProofOfWork(p.cfg.Crypto, p.cfg.PowTrialsPerByte, p.cfg.PowExtraBytes) {
		log.Debugw("object failed proof of work, dropping", "iv", iv)
		return nil
	}

	if err := p.cfg.Store.StoreObject(o); err != nil {
		return err
	}
	p.cfg.Network.Offer(iv)

	p.activityMu.Lock()
	p.lastObjectTime = time.Now()
	p.activityMu.Unlock()
	return nil
}

func (p *Peer) handleAddr(msg *wire.MsgAddr) error {
	if len(msg.AddrList) == 0 {
		return nil
	}
	p.cfg.AddrMgr.AddAddresses(msg.AddrList, p.addr)
	return nil
}

func (p *Peer) handleCustom(msg *wire.MsgCustomRaw) error {
	if p.cfg.Custom == nil {
		return io.EOF
	}
	resp, ok := p.cfg.Custom(msg.Payload)
	if !ok {
		return io.EOF
	}
	return p.sendNow(&wire.MsgCustomRaw{Payload: resp})
}

// evictExpiredIVs drops ivCache entries older than wire.IVCacheExpiry,
// run opportunistically before each inv update (§4.5).
func (p *Peer) evictExpiredIVs() {
	cutoff := time.Now().Add(-wire.IVCacheExpiry)
	p.ivMu.Lock()
	defer p.ivMu.Unlock()
	for iv, ts := range p.ivCache {
		if ts.Before(cutoff) {
			delete(p.ivCache, iv)
		}
	}
}

func chunkIVs(ivs []wire.ShaHash, size int) <-chan []wire.ShaHash {
	out := make(chan []wire.ShaHash)
	go func() {
		defer close(out)
		for i := 0; i < len(ivs); i += size {
			end := i + size
			if end > len(ivs) {
				end = len(ivs)
			}
			out <- ivs[i:end]
		}
	}()
	return out
}
