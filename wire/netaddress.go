package wire

import (
	"io"
	"net"
	"strconv"
	"time"
)

// NetAddress describes a known peer: its routable address, the
// streams it serves, and the services it advertises. Bitmessage
// addresses carry a stream number, unlike plain Bitcoin NetAddress.
type NetAddress struct {
	Timestamp time.Time
	Stream    uint32
	Services  ServiceFlag
	IP        net.IP
	Port      uint16
}

// NewNetAddressIPPort builds a NetAddress from an IP/port pair plus
// the stream and service flags a peer advertises for it.
func NewNetAddressIPPort(ip net.IP, port uint16, stream uint32, services ServiceFlag) *NetAddress {
	return &NetAddress{
		Timestamp: time.Now(),
		Stream:    stream,
		Services:  services,
		IP:        ip,
		Port:      port,
	}
}

// Key returns a canonical string identifying this address for use as
// a map key (ignoring timestamp and services).
func (na *NetAddress) Key() string {
	return net.JoinHostPort(na.IP.String(), strconv.Itoa(int(na.Port)))
}

// ReadNetAddress decodes a NetAddress, optionally including the
// timestamp (omitted for the NetAddress embedded in a version
// message, which predates per-address timestamps).
func ReadNetAddress(r io.Reader, hasTimestamp bool) (*NetAddress, error) {
	na := &NetAddress{}
	if hasTimestamp {
		ts, err := ReadUint32(r)
		if err != nil {
			return nil, err
		}
		na.Timestamp = time.Unix(int64(ts), 0)
	}

	stream, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	na.Stream = uint32(stream)

	services, err := ReadUint64(r)
	if err != nil {
		return nil, err
	}
	na.Services = ServiceFlag(services)

	ipBytes, err := ReadFixedBytes(r, 16)
	if err != nil {
		return nil, err
	}
	na.IP = net.IP(ipBytes)

	port, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}
	na.Port = port

	return na, nil
}

// WriteNetAddress encodes a NetAddress, optionally including the
// timestamp.
func WriteNetAddress(w io.Writer, na *NetAddress, hasTimestamp bool) error {
	if hasTimestamp {
		if err := WriteUint32(w, uint32(na.Timestamp.Unix())); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(na.Stream)); err != nil {
		return err
	}
	if err := WriteUint64(w, uint64(na.Services)); err != nil {
		return err
	}
	ip := na.IP.To16()
	if ip == nil {
		ip = net.IPv6zero
	}
	if _, err := w.Write(ip); err != nil {
		return err
	}
	return WriteUint16(w, na.Port)
}
