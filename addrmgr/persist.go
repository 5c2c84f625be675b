package addrmgr

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"

	"github.com/hirowhite/bmd/wire"
)

// serializedAddress is the on-disk shape of a known address. Plain
// JSON, stdlib-only: no pack repo carries a registry-persistence
// library distinct from the one inventory already claims (badger), so
// this stays on encoding/json rather than introduce a second KV store
// for a few hundred small records (see DESIGN.md).
type serializedAddress struct {
	IP       string `json:"ip"`
	Port     uint16 `json:"port"`
	Stream   uint32 `json:"stream"`
	Services uint64 `json:"services"`
}

// Save serializes all known addresses to path, creating parent
// directories as needed.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	out := make([]serializedAddress, 0, len(m.addrs))
	for _, ka := range m.addrs {
		out = append(out, serializedAddress{
			IP:       ka.na.IP.String(),
			Port:     ka.na.Port,
			Stream:   ka.na.Stream,
			Services: uint64(ka.na.Services),
		})
	}
	m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load reads previously-Saved addresses from path into the registry.
// A missing file is not an error: a fresh node simply starts with an
// empty registry.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var in []serializedAddress
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	for _, sa := range in {
		na := wire.NewNetAddressIPPort(net.ParseIP(sa.IP), sa.Port, sa.Stream, wire.ServiceFlag(sa.Services))
		m.AddAddress(na, nil)
	}
	log.Infow("loaded peer addresses from disk", "path", path, "count", len(in))
	return nil
}
