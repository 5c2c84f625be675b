// Command bmd wires the Bitmessage networking core together: it loads
// configuration, opens the inventory store and node registry, starts
// an inbound listener and an outbound dialer pool, and drives every
// accepted or dialed connection through peer.Peer under a shared
// netsync.Handler.
package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/go-socks/socks"
	"github.com/hirowhite/bmd/addrmgr"
	"github.com/hirowhite/bmd/bmcrypto"
	"github.com/hirowhite/bmd/config"
	"github.com/hirowhite/bmd/inventory"
	"github.com/hirowhite/bmd/listener"
	"github.com/hirowhite/bmd/netsync"
	"github.com/hirowhite/bmd/obj"
	"github.com/hirowhite/bmd/peer"
	"github.com/hirowhite/bmd/repo"
	"github.com/hirowhite/bmd/wire"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	root := &cobra.Command{
		Use:   "bmd",
		Short: "a Bitmessage flood-fill networking node",
		RunE:  run,
	}
	config.BindFlags(root)
	root.Flags().String("config", "", "directory to search for bmd.yaml")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	peer.UseLogger(sugar)
	netsync.UseLogger(sugar)
	addrmgr.UseLogger(sugar)
	listener.UseLogger(sugar)

	node, err := newNode(cfg, sugar)
	if err != nil {
		return err
	}
	defer node.close()

	return node.run(cmd.Context())
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// node bundles every long-lived component a running bmd process holds.
type node struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	crypto   bmcrypto.Capability
	store    inventory.Store
	addrMgr  *addrmgr.Manager
	sync     *netsync.Handler
	ident    listener.Identity
	dispatch *listener.Dispatcher
	net      wire.BitmessageNet
	nonce    uint64
	dial     func(network, addr string) (peer.Conn, error)

	closer func() error
}

func newNode(cfg *config.Config, log *zap.SugaredLogger) (*node, error) {
	crypto := bmcrypto.Default{}

	store, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	addrMgr := addrmgr.New()
	addrPath := cfg.Storage.DataDir + "/peers.json"
	if err := addrMgr.Load(addrPath); err != nil {
		log.Warnw("failed to load peer address cache", "error", err)
	}

	ident, err := localIdentity(crypto)
	if err != nil {
		return nil, err
	}

	dispatch := listener.New(crypto, func(id listener.Identity, o *obj.Object, pt *obj.Plaintext, verified bool) {}, repo.NewMemMessageRepo())
	dispatch.AddIdentity(ident)

	net := wire.MainNet
	if cfg.Network.UseTestNet {
		net = wire.TestNet
	}

	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	dial := peer.Dial
	if cfg.Network.SocksProxy != "" {
		dial = peer.DialSocks(&socks.Proxy{Addr: cfg.Network.SocksProxy})
		log.Infow("routing outbound connections through SOCKS proxy", "proxy", cfg.Network.SocksProxy)
	}

	return &node{
		cfg:      cfg,
		log:      log,
		crypto:   crypto,
		store:    store,
		addrMgr:  addrMgr,
		sync:     netsync.New(),
		ident:    ident,
		dispatch: dispatch,
		net:      net,
		nonce:    nonce,
		dial:     dial,
		closer: func() error {
			if err := addrMgr.Save(addrPath); err != nil {
				log.Warnw("failed to persist peer address cache", "error", err)
			}
			return closer()
		},
	}, nil
}

func (n *node) close() error {
	return n.closer()
}

func openStore(cfg *config.Config) (inventory.Store, func() error, error) {
	if !cfg.Storage.UseBadger {
		return inventory.NewMemStore(), func() error { return nil }, nil
	}
	bs, err := inventory.OpenBadgerStore(cfg.Storage.DataDir + "/inventory")
	if err != nil {
		return nil, nil, fmt.Errorf("opening badger store: %w", err)
	}
	return bs, bs.Close, nil
}

// localIdentity generates a fresh signing/encryption keypair for this
// node, the way a real node derives the address it offers pubkeys
// under. A persistent wallet.dat-style identity store is out of scope
// (§5 Non-goals); each run gets an ephemeral identity.
func localIdentity(crypto bmcrypto.Capability) (listener.Identity, error) {
	signingPriv, err := btcec.NewPrivateKey()
	if err != nil {
		return listener.Identity{}, err
	}
	encPriv, err := btcec.NewPrivateKey()
	if err != nil {
		return listener.Identity{}, err
	}

	priv := &bmcrypto.PrivateKey{}
	copy(priv.Signing[:], signingPriv.Serialize())
	copy(priv.Encryption[:], encPriv.Serialize())

	pub := &bmcrypto.PublicKey{
		Signing:    uncompressedHalves(signingPriv),
		Encryption: uncompressedHalves(encPriv),
	}

	return listener.Identity{
		Ripe:    crypto.RipeHash(pub),
		Public:  pub,
		Private: priv,
	}, nil
}

func uncompressedHalves(priv *btcec.PrivateKey) [64]byte {
	var out [64]byte
	copy(out[:], priv.PubKey().SerializeUncompressed()[1:])
	return out
}

func randomNonce() (uint64, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return 0, err
	}
	b := priv.Serialize()
	var n uint64
	for i := 0; i < 8; i++ {
		n = n<<8 | uint64(b[i])
	}
	return n, nil
}

// run starts the inbound listener (skipped in sync-once mode) and the
// outbound dialer pool, and blocks until all of them have returned,
// one fails, or the context is cancelled.
func (n *node) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if n.cfg.Network.ListenAddr != "" && !n.cfg.Storage.SyncOnce {
		ln, err := net.Listen("tcp", n.cfg.Network.ListenAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", n.cfg.Network.ListenAddr, err)
		}
		defer ln.Close()
		n.log.Infow("listening for inbound peers", "addr", n.cfg.Network.ListenAddr)

		g.Go(func() error {
			return n.acceptLoop(ctx, ln)
		})
	}

	for _, seed := range n.cfg.Network.Seeds {
		seed := seed
		g.Go(func() error {
			return n.dialSeed(ctx, seed)
		})
	}

	return g.Wait()
}

func (n *node) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		p := peer.New(n.peerConfig(peer.Server), conn, true)
		go func() {
			if err := n.sync.Manage(p); err != nil {
				n.log.Debugw("inbound connection ended", "error", err)
			}
		}()
	}
}

func (n *node) dialSeed(ctx context.Context, addr string) error {
	conn, err := n.dial("tcp", addr)
	if err != nil {
		n.log.Warnw("failed to dial seed peer", "addr", addr, "error", err)
		return nil
	}

	mode := peer.Client
	if n.cfg.Storage.SyncOnce {
		mode = peer.Sync
	}

	p := peer.New(n.peerConfig(mode), conn, false)
	return n.sync.Manage(p)
}

func (n *node) peerConfig(mode peer.Mode) peer.Config {
	return peer.Config{
		Mode:             mode,
		Net:              n.net,
		Nonce:            n.nonce,
		Version:          n.cfg.Network.CurrentVersion,
		Streams:          n.cfg.Network.Streams,
		UserAgentName:    "bmd",
		UserAgentVersion: "0.1.0",
		Store:            n.store,
		AddrMgr:          n.addrMgr,
		Network:          n.sync,
		Crypto:           n.crypto,
		Listener:         n.dispatch,
		PowTrialsPerByte: n.cfg.ProofOfWork.NonceTrialsPerByte,
		PowExtraBytes:    n.cfg.ProofOfWork.ExtraBytes,
	}
}
