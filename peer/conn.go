package peer

import (
	"net"
	"strconv"
	"time"

	"github.com/btcsuite/go-socks/socks"
	"github.com/hirowhite/bmd/wire"
)

// Conn is the transport a Peer drives. Any net.Conn satisfies it
// directly; tests substitute net.Pipe halves.
type Conn interface {
	net.Conn
}

// Dial is the connection-opening func used to reach outbound peers. It
// is a package variable, as the teacher's peer.go keeps its own Dial
// var, so callers can swap in a SOCKS-proxied dialer without touching
// the state machine.
var Dial = func(network, addr string) (Conn, error) {
	return net.DialTimeout(network, addr, 30*time.Second)
}

// DialSocks returns a Dial func that proxies outbound connections
// through a SOCKS4/5 server, for Tor-routed peers.
func DialSocks(proxy *socks.Proxy) func(network, addr string) (Conn, error) {
	return func(network, addr string) (Conn, error) {
		return proxy.Dial(network, addr)
	}
}

// newNetAddress extracts the IP and port from a net.Addr, handling
// both direct TCP connections and SOCKS-proxied ones.
func newNetAddress(addr net.Addr, stream uint32, services wire.ServiceFlag) *wire.NetAddress {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return wire.NewNetAddressIPPort(tcpAddr.IP, uint16(tcpAddr.Port), stream, services)
	}
	if proxied, ok := addr.(*socks.ProxiedAddr); ok {
		ip := net.ParseIP(proxied.Host)
		if ip == nil {
			ip = net.IPv4zero
		}
		return wire.NewNetAddressIPPort(ip, uint16(proxied.Port), stream, services)
	}

	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return wire.NewNetAddressIPPort(net.IPv4zero, 0, stream, services)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		port = 0
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ip = net.IPv4zero
	}
	return wire.NewNetAddressIPPort(ip, uint16(port), stream, services)
}
