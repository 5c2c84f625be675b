package wire

import "time"

// CurrentVersion is the protocol version this package speaks and the
// default NewMsgVersion fills in. A peer.Peer both advertises and
// enforces as a floor the version in its peer.Config (set from
// config.Config's Network.CurrentVersion), which may differ; peers
// advertising a lower version are rejected at handshake time (§4.5).
const CurrentVersion uint32 = 3

// ServiceFlag identifies services supported by a bitmessage peer.
type ServiceFlag uint64

const (
	// SFNodeNetwork indicates a peer is a full, flood-filling node.
	SFNodeNetwork ServiceFlag = 1 << iota
)

// BitmessageNet identifies which network a message belongs to, akin
// to Bitcoin's magic value.
type BitmessageNet uint32

const (
	// MainNet is the production Bitmessage network magic.
	MainNet BitmessageNet = 0xE9BEB4D9

	// TestNet is the test network magic.
	TestNet BitmessageNet = 0xFABFB5DA
)

// Object type identifiers, carried in the ObjectMessage header.
const (
	ObjectTypeGetpubkey  uint32 = 0
	ObjectTypePubkey     uint32 = 1
	ObjectTypeMsg        uint32 = 2
	ObjectTypeBroadcast  uint32 = 3
	ObjectTypeGeneric    uint32 = 0xffffffff // unrecognized-but-relayable
)

// Encoding enum for Plaintext message bodies (§6).
const (
	EncodingIgnore  uint64 = 0
	EncodingTrivial uint64 = 1
	EncodingSimple  uint64 = 2
)

// Command strings used in message framing (§6). Fixed at 12 ASCII
// bytes, NUL-padded, as in the Bitcoin-family wire protocol the
// teacher's bmutil/wire package itself derives from.
const (
	CmdVersion = "version"
	CmdVerAck  = "verack"
	CmdAddr    = "addr"
	CmdInv     = "inv"
	CmdGetData = "getdata"
	CmdObject  = "object"
	CmdCustom  = "custom"
)

// CommandSize is the fixed width of the command field in a message
// header.
const CommandSize = 12

// MaxInvPerMsg is the maximum number of inventory vectors allowed in a
// single inv or getdata message.
const MaxInvPerMsg = 50000

// MaxAddrPerMsg is the maximum number of addresses allowed in a single
// addr message.
const MaxAddrPerMsg = 1000

// IVCacheExpiry is how long an entry may sit in a connection's
// ivCache before opportunistic cleanup evicts it (§3).
const IVCacheExpiry = 5 * time.Minute

// InventoryGracePeriod is added to an object's expiry before the
// inventory evicts it, so a just-expired object is not immediately
// re-requested from peers still offering it (§4.3).
const InventoryGracePeriod = 300 * time.Second
